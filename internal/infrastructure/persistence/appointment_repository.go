package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
)

// GormAppointmentRepository implements patient.AppointmentRepository using GORM
type GormAppointmentRepository struct {
	txAware
}

// NewGormAppointmentRepository creates a new GormAppointmentRepository
func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{txAware{db: db}}
}

// FindByID finds an appointment by ID
func (r *GormAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Appointment, error) {
	var appointment patient.Appointment
	if err := r.conn(ctx).First(&appointment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

// FindByPatient lists a patient's appointments, newest first
func (r *GormAppointmentRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]patient.Appointment, error) {
	var appointments []patient.Appointment
	if err := r.conn(ctx).
		Where("patient_id = ?", patientID).
		Order("scheduled_at DESC").
		Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// FindByDoctorAndRange lists a doctor's appointments in a time window
func (r *GormAppointmentRepository) FindByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]patient.Appointment, error) {
	var appointments []patient.Appointment
	if err := r.conn(ctx).
		Where("doctor_id = ? AND scheduled_at >= ? AND scheduled_at < ?", doctorID, from, to).
		Order("scheduled_at ASC").
		Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// Save creates or updates an appointment
func (r *GormAppointmentRepository) Save(ctx context.Context, appointment *patient.Appointment) error {
	return r.conn(ctx).Save(appointment).Error
}

var _ patient.AppointmentRepository = (*GormAppointmentRepository)(nil)
