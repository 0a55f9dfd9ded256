package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/shared"
)

// GormPaymentTransactionRepository implements billing.PaymentTransactionRepository
// using GORM. Transactions form an insert-only ledger; there is no update path.
type GormPaymentTransactionRepository struct {
	txAware
}

// NewGormPaymentTransactionRepository creates a new GormPaymentTransactionRepository
func NewGormPaymentTransactionRepository(db *gorm.DB) *GormPaymentTransactionRepository {
	return &GormPaymentTransactionRepository{txAware{db: db}}
}

// FindByID finds a transaction by its ID
func (r *GormPaymentTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentTransaction, error) {
	var txn billing.PaymentTransaction
	if err := r.conn(ctx).First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// FindByAdmission finds all transactions for an admission, newest first
func (r *GormPaymentTransactionRepository) FindByAdmission(ctx context.Context, admissionID uuid.UUID) ([]billing.PaymentTransaction, error) {
	var txns []billing.PaymentTransaction
	if err := r.conn(ctx).
		Where("admission_id = ?", admissionID).
		Order("received_at DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// Save inserts a new transaction
func (r *GormPaymentTransactionRepository) Save(ctx context.Context, txn *billing.PaymentTransaction) error {
	return r.conn(ctx).Create(txn).Error
}

// SumByAdmission sums transaction amounts for an admission, optionally
// excluding one payment method
func (r *GormPaymentTransactionRepository) SumByAdmission(ctx context.Context, admissionID uuid.UUID, excludeMethod billing.PaymentMethod) (decimal.Decimal, error) {
	query := r.conn(ctx).
		Model(&billing.PaymentTransaction{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("admission_id = ?", admissionID)

	if excludeMethod != "" {
		query = query.Where("method != ?", excludeMethod)
	}

	var result struct {
		Total decimal.Decimal
	}
	if err := query.Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// GenerateTransactionNumber generates the next transaction number.
// Format: TXN-YYYY-NNNN (e.g., TXN-2026-0001)
func (r *GormPaymentTransactionRepository) GenerateTransactionNumber(ctx context.Context) (string, error) {
	return generateSequentialNumber(r.conn(ctx), &billing.PaymentTransaction{}, "transaction_number", "TXN")
}

var _ billing.PaymentTransactionRepository = (*GormPaymentTransactionRepository)(nil)
