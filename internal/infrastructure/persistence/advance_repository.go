package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/shared"
)

// GormAdvanceRepository implements billing.AdvanceRepository using GORM
type GormAdvanceRepository struct {
	txAware
}

// NewGormAdvanceRepository creates a new GormAdvanceRepository
func NewGormAdvanceRepository(db *gorm.DB) *GormAdvanceRepository {
	return &GormAdvanceRepository{txAware{db: db}}
}

// FindByID finds an advance by its ID
func (r *GormAdvanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Advance, error) {
	var advance billing.Advance
	if err := r.conn(ctx).First(&advance, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &advance, nil
}

// FindByAdmission finds all advances for an admission, oldest first
func (r *GormAdvanceRepository) FindByAdmission(ctx context.Context, admissionID uuid.UUID) ([]billing.Advance, error) {
	var advances []billing.Advance
	if err := r.conn(ctx).
		Where("admission_id = ?", admissionID).
		Order("created_at ASC").
		Find(&advances).Error; err != nil {
		return nil, err
	}
	return advances, nil
}

// FindActiveByAdmission finds advances with an available balance, oldest
// first so deposits are consumed FIFO
func (r *GormAdvanceRepository) FindActiveByAdmission(ctx context.Context, admissionID uuid.UUID) ([]billing.Advance, error) {
	var advances []billing.Advance
	if err := r.conn(ctx).
		Where("admission_id = ? AND status = ?", admissionID, billing.AdvanceStatusActive).
		Order("created_at ASC").
		Find(&advances).Error; err != nil {
		return nil, err
	}
	return advances, nil
}

// Save creates or updates an advance
func (r *GormAdvanceRepository) Save(ctx context.Context, advance *billing.Advance) error {
	return r.conn(ctx).Save(advance).Error
}

// SaveWithLock saves an advance with optimistic locking. The balance guard
// in the WHERE clause keeps a racing draw from pushing the used amount past
// the deposit even if the version check were bypassed.
// Returns ErrConcurrencyConflict when the row changed under us.
func (r *GormAdvanceRepository) SaveWithLock(ctx context.Context, advance *billing.Advance) error {
	result := r.conn(ctx).
		Model(advance).
		Where("id = ? AND version = ? AND amount >= ?", advance.ID, advance.Version-1, advance.UsedAmount).
		Select("*").
		Updates(advance)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SumUsedByAdmission sums the consumed amounts across the admission's advances
func (r *GormAdvanceRepository) SumUsedByAdmission(ctx context.Context, admissionID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.conn(ctx).
		Model(&billing.Advance{}).
		Select("COALESCE(SUM(used_amount), 0) AS total").
		Where("admission_id = ?", admissionID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumAvailableByAdmission sums the remaining balances across the admission's advances
func (r *GormAdvanceRepository) SumAvailableByAdmission(ctx context.Context, admissionID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.conn(ctx).
		Model(&billing.Advance{}).
		Select("COALESCE(SUM(amount - used_amount), 0) AS total").
		Where("admission_id = ? AND status = ?", admissionID, billing.AdvanceStatusActive).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// GenerateReceiptNumber generates the next advance receipt number.
// Format: ADV-YYYY-NNNN (e.g., ADV-2026-0001)
func (r *GormAdvanceRepository) GenerateReceiptNumber(ctx context.Context) (string, error) {
	return generateSequentialNumber(r.conn(ctx), &billing.Advance{}, "receipt_number", "ADV")
}

var _ billing.AdvanceRepository = (*GormAdvanceRepository)(nil)

// generateSequentialNumber produces the next document number of the form
// PREFIX-YYYY-NNNN by looking at the highest existing number for the year.
// Uniqueness is ultimately enforced by the column's unique index.
func generateSequentialNumber(db *gorm.DB, model interface{}, column, docPrefix string) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", docPrefix, time.Now().Year())

	var last string
	err := db.
		Model(model).
		Select(column).
		Where(column+" LIKE ?", prefix+"%").
		Order(column + " DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if last != "" {
		parts := strings.Split(last, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%04d", prefix, nextNum), nil
}
