package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
)

// GormAdmissionRepository implements patient.AdmissionRepository using GORM
type GormAdmissionRepository struct {
	txAware
}

// NewGormAdmissionRepository creates a new GormAdmissionRepository
func NewGormAdmissionRepository(db *gorm.DB) *GormAdmissionRepository {
	return &GormAdmissionRepository{txAware{db: db}}
}

// FindByID finds an admission by ID
func (r *GormAdmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Admission, error) {
	var admission patient.Admission
	if err := r.conn(ctx).First(&admission, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &admission, nil
}

// FindByPatient lists a patient's admissions, newest first
func (r *GormAdmissionRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]patient.Admission, error) {
	var admissions []patient.Admission
	if err := r.conn(ctx).
		Where("patient_id = ?", patientID).
		Order("admitted_at DESC").
		Find(&admissions).Error; err != nil {
		return nil, err
	}
	return admissions, nil
}

// FindOpenByPatient finds the patient's open stay, if any
func (r *GormAdmissionRepository) FindOpenByPatient(ctx context.Context, patientID uuid.UUID) (*patient.Admission, error) {
	var admission patient.Admission
	if err := r.conn(ctx).
		Where("patient_id = ? AND status = ?", patientID, patient.AdmissionStatusAdmitted).
		Order("admitted_at DESC").
		First(&admission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &admission, nil
}

// FindAdmitted lists currently open stays
func (r *GormAdmissionRepository) FindAdmitted(ctx context.Context, filter shared.Filter) (*shared.Paginated[patient.Admission], error) {
	base := r.conn(ctx).
		Model(&patient.Admission{}).
		Where("status = ?", patient.AdmissionStatusAdmitted)

	if ward, ok := filter.Filters["ward"]; ok {
		base = base.Where("ward = ?", ward)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, AdmissionSortFields, "admitted_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var admissions []patient.Admission
	if err := base.
		Order(orderBy + " " + orderDir).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&admissions).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(admissions, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Save creates or updates an admission
func (r *GormAdmissionRepository) Save(ctx context.Context, admission *patient.Admission) error {
	return r.conn(ctx).Save(admission).Error
}

// SaveWithLock saves an admission with optimistic locking.
// Returns ErrConcurrencyConflict if the stored version no longer matches.
func (r *GormAdmissionRepository) SaveWithLock(ctx context.Context, admission *patient.Admission) error {
	result := r.conn(ctx).
		Model(admission).
		Where("id = ? AND version = ?", admission.ID, admission.Version-1).
		Select("*").
		Updates(admission)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ patient.AdmissionRepository = (*GormAdmissionRepository)(nil)
