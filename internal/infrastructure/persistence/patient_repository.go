package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
)

// GormPatientRepository implements patient.PatientRepository using GORM
type GormPatientRepository struct {
	txAware
}

// NewGormPatientRepository creates a new GormPatientRepository
func NewGormPatientRepository(db *gorm.DB) *GormPatientRepository {
	return &GormPatientRepository{txAware{db: db}}
}

// FindByID finds a patient by ID
func (r *GormPatientRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var record patient.Patient
	if err := r.conn(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByMRN finds a patient by medical record number
func (r *GormPatientRepository) FindByMRN(ctx context.Context, mrn string) (*patient.Patient, error) {
	var record patient.Patient
	if err := r.conn(ctx).First(&record, "mrn = ?", strings.ToUpper(mrn)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Search lists patients matching a name or MRN fragment
func (r *GormPatientRepository) Search(ctx context.Context, query string, filter shared.Filter) (*shared.Paginated[patient.Patient], error) {
	base := r.conn(ctx).Model(&patient.Patient{})
	if query != "" {
		pattern := "%" + query + "%"
		base = base.Where("name LIKE ? OR mrn LIKE ?", pattern, strings.ToUpper(pattern))
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, PatientSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var records []patient.Patient
	if err := base.
		Order(orderBy + " " + orderDir).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&records).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(records, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Save creates or updates a patient
func (r *GormPatientRepository) Save(ctx context.Context, record *patient.Patient) error {
	return r.conn(ctx).Save(record).Error
}

// ExistsByMRN checks whether a patient with the MRN already exists
func (r *GormPatientRepository) ExistsByMRN(ctx context.Context, mrn string) (bool, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&patient.Patient{}).
		Where("mrn = ?", strings.ToUpper(mrn)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ patient.PatientRepository = (*GormPatientRepository)(nil)
