package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
)

// GormDoctorRepository implements patient.DoctorRepository using GORM
type GormDoctorRepository struct {
	txAware
}

// NewGormDoctorRepository creates a new GormDoctorRepository
func NewGormDoctorRepository(db *gorm.DB) *GormDoctorRepository {
	return &GormDoctorRepository{txAware{db: db}}
}

// FindByID finds a doctor by ID
func (r *GormDoctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Doctor, error) {
	var doctor patient.Doctor
	if err := r.conn(ctx).First(&doctor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doctor, nil
}

// FindActive lists active doctors, optionally filtered by specialty
func (r *GormDoctorRepository) FindActive(ctx context.Context, specialty string) ([]patient.Doctor, error) {
	query := r.conn(ctx).Where("status = ?", patient.DoctorStatusActive)
	if specialty != "" {
		query = query.Where("specialty = ?", specialty)
	}

	var doctors []patient.Doctor
	if err := query.Order("name ASC").Find(&doctors).Error; err != nil {
		return nil, err
	}
	return doctors, nil
}

// Save creates or updates a doctor
func (r *GormDoctorRepository) Save(ctx context.Context, doctor *patient.Doctor) error {
	return r.conn(ctx).Save(doctor).Error
}

var _ patient.DoctorRepository = (*GormDoctorRepository)(nil)
