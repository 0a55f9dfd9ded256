package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/backend/internal/domain/shared"
)

// AppointmentStatus represents the status of an outpatient appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow    AppointmentStatus = "NO_SHOW"
)

// IsTerminal returns true for statuses an appointment cannot leave
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled || s == AppointmentStatusNoShow
}

// Appointment represents a scheduled outpatient consultation slot
type Appointment struct {
	shared.BaseAggregateRoot
	PatientID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	DoctorID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	ScheduledAt time.Time         `gorm:"not null;index"`
	Reason      string            `gorm:"type:varchar(500)"`
	Status      AppointmentStatus `gorm:"type:varchar(20);not null;default:'SCHEDULED'"`
	Notes       string            `gorm:"type:text"` // Outcome notes, set on completion
}

// TableName returns the table name for GORM
func (Appointment) TableName() string {
	return "appointments"
}

// NewAppointment schedules an appointment
func NewAppointment(patientID, doctorID uuid.UUID, scheduledAt time.Time, reason string) (*Appointment, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Patient ID is required")
	}
	if doctorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Doctor ID is required")
	}
	if scheduledAt.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Scheduled time is required")
	}
	if len(reason) > 500 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Reason cannot exceed 500 characters")
	}

	appointment := &Appointment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PatientID:         patientID,
		DoctorID:          doctorID,
		ScheduledAt:       scheduledAt,
		Reason:            reason,
		Status:            AppointmentStatusScheduled,
	}

	appointment.AddDomainEvent(NewAppointmentScheduledEvent(appointment))

	return appointment, nil
}

// Reschedule moves the appointment to a new slot
func (a *Appointment) Reschedule(scheduledAt time.Time) error {
	if a.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot reschedule a "+string(a.Status)+" appointment")
	}
	if scheduledAt.IsZero() {
		return shared.NewDomainError("VALIDATION_ERROR", "Scheduled time is required")
	}

	a.ScheduledAt = scheduledAt
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// Complete marks the appointment as held and records outcome notes
func (a *Appointment) Complete(notes string) error {
	if a.Status != AppointmentStatusScheduled {
		return shared.NewDomainError("INVALID_STATE", "Only scheduled appointments can be completed")
	}

	a.Status = AppointmentStatusCompleted
	a.Notes = notes
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// Cancel cancels a scheduled appointment
func (a *Appointment) Cancel() error {
	if a.Status != AppointmentStatusScheduled {
		return shared.NewDomainError("INVALID_STATE", "Only scheduled appointments can be cancelled")
	}

	a.Status = AppointmentStatusCancelled
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// MarkNoShow records that the patient did not attend
func (a *Appointment) MarkNoShow() error {
	if a.Status != AppointmentStatusScheduled {
		return shared.NewDomainError("INVALID_STATE", "Only scheduled appointments can be marked as no-show")
	}

	a.Status = AppointmentStatusNoShow
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}
