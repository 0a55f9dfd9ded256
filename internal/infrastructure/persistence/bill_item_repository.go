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

// GormBillItemRepository implements billing.BillItemRepository using GORM
type GormBillItemRepository struct {
	txAware
}

// NewGormBillItemRepository creates a new GormBillItemRepository
func NewGormBillItemRepository(db *gorm.DB) *GormBillItemRepository {
	return &GormBillItemRepository{txAware{db: db}}
}

// FindByID finds a bill item by its ID
func (r *GormBillItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.BillItem, error) {
	var item billing.BillItem
	if err := r.conn(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByAdmission finds all bill items for an admission, ordered by service date
func (r *GormBillItemRepository) FindByAdmission(ctx context.Context, admissionID uuid.UUID) ([]billing.BillItem, error) {
	var items []billing.BillItem
	if err := r.conn(ctx).
		Where("admission_id = ?", admissionID).
		Order("service_date ASC, created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindByAdmissionAndCategory finds all bill items of one category for an admission
func (r *GormBillItemRepository) FindByAdmissionAndCategory(ctx context.Context, admissionID uuid.UUID, category billing.ChargeCategory) ([]billing.BillItem, error) {
	var items []billing.BillItem
	if err := r.conn(ctx).
		Where("admission_id = ? AND category = ?", admissionID, category).
		Order("service_date ASC, created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindOutstandingByAdmission finds items that can still accept payments,
// oldest first so allocation drains charges in posting order
func (r *GormBillItemRepository) FindOutstandingByAdmission(ctx context.Context, admissionID uuid.UUID) ([]billing.BillItem, error) {
	var items []billing.BillItem
	if err := r.conn(ctx).
		Where("admission_id = ? AND status IN ? AND pending_amount > 0",
			admissionID,
			[]billing.BillItemStatus{billing.BillItemStatusPending, billing.BillItemStatusPartial}).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save creates or updates a bill item
func (r *GormBillItemRepository) Save(ctx context.Context, item *billing.BillItem) error {
	return r.conn(ctx).Save(item).Error
}

// SaveWithLock saves a bill item with optimistic locking.
// Returns ErrConcurrencyConflict if the stored version no longer matches.
func (r *GormBillItemRepository) SaveWithLock(ctx context.Context, item *billing.BillItem) error {
	result := r.conn(ctx).
		Model(item).
		Where("id = ? AND version = ?", item.ID, item.Version-1).
		Select("*").
		Updates(item)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SumPendingByAdmission sums the pending balances of non-cancelled items
func (r *GormBillItemRepository) SumPendingByAdmission(ctx context.Context, admissionID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.conn(ctx).
		Model(&billing.BillItem{}).
		Select("COALESCE(SUM(pending_amount), 0) AS total").
		Where("admission_id = ? AND status != ?", admissionID, billing.BillItemStatusCancelled).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

var _ billing.BillItemRepository = (*GormBillItemRepository)(nil)
