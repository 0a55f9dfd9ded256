package patient

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
)

// PatientRegisteredEvent is raised when a new patient record is created
type PatientRegisteredEvent struct {
	shared.BaseDomainEvent
	PatientID uuid.UUID `json:"patient_id"`
	MRN       string    `json:"mrn"`
	Name      string    `json:"name"`
}

// EventType returns the event type name
func (e *PatientRegisteredEvent) EventType() string {
	return "PatientRegistered"
}

// NewPatientRegisteredEvent creates a new PatientRegisteredEvent
func NewPatientRegisteredEvent(p *Patient) *PatientRegisteredEvent {
	return &PatientRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PatientRegistered", "Patient", p.ID),
		PatientID:       p.ID,
		MRN:             p.MRN,
		Name:            p.Name,
	}
}

// PatientAdmittedEvent is raised when a patient is admitted
type PatientAdmittedEvent struct {
	shared.BaseDomainEvent
	AdmissionID uuid.UUID `json:"admission_id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	Ward        string    `json:"ward"`
	BedNumber   string    `json:"bed_number"`
	AdmittedAt  time.Time `json:"admitted_at"`
}

// EventType returns the event type name
func (e *PatientAdmittedEvent) EventType() string {
	return "PatientAdmitted"
}

// NewPatientAdmittedEvent creates a new PatientAdmittedEvent
func NewPatientAdmittedEvent(a *Admission) *PatientAdmittedEvent {
	return &PatientAdmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PatientAdmitted", "Admission", a.ID),
		AdmissionID:     a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		Ward:            a.Ward,
		BedNumber:       a.BedNumber,
		AdmittedAt:      a.AdmittedAt,
	}
}

// AdmissionRatesChangedEvent is raised when the bed rate or consultation fee
// changes on an open stay. Consumers re-derive dependent charges.
type AdmissionRatesChangedEvent struct {
	shared.BaseDomainEvent
	AdmissionID     uuid.UUID       `json:"admission_id"`
	BedDailyRate    decimal.Decimal `json:"bed_daily_rate"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
}

// EventType returns the event type name
func (e *AdmissionRatesChangedEvent) EventType() string {
	return "AdmissionRatesChanged"
}

// NewAdmissionRatesChangedEvent creates a new AdmissionRatesChangedEvent
func NewAdmissionRatesChangedEvent(a *Admission) *AdmissionRatesChangedEvent {
	return &AdmissionRatesChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("AdmissionRatesChanged", "Admission", a.ID),
		AdmissionID:     a.ID,
		BedDailyRate:    a.BedDailyRate,
		ConsultationFee: a.ConsultationFee,
	}
}

// PatientDischargedEvent is raised when a stay ends
type PatientDischargedEvent struct {
	shared.BaseDomainEvent
	AdmissionID  uuid.UUID `json:"admission_id"`
	PatientID    uuid.UUID `json:"patient_id"`
	DischargedAt time.Time `json:"discharged_at"`
	StayDays     int64     `json:"stay_days"`
}

// EventType returns the event type name
func (e *PatientDischargedEvent) EventType() string {
	return "PatientDischarged"
}

// NewPatientDischargedEvent creates a new PatientDischargedEvent
func NewPatientDischargedEvent(a *Admission) *PatientDischargedEvent {
	return &PatientDischargedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PatientDischarged", "Admission", a.ID),
		AdmissionID:     a.ID,
		PatientID:       a.PatientID,
		DischargedAt:    *a.DischargedAt,
		StayDays:        a.StayDays(),
	}
}

// AppointmentScheduledEvent is raised when an appointment is booked
type AppointmentScheduledEvent struct {
	shared.BaseDomainEvent
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
}

// EventType returns the event type name
func (e *AppointmentScheduledEvent) EventType() string {
	return "AppointmentScheduled"
}

// NewAppointmentScheduledEvent creates a new AppointmentScheduledEvent
func NewAppointmentScheduledEvent(a *Appointment) *AppointmentScheduledEvent {
	return &AppointmentScheduledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("AppointmentScheduled", "Appointment", a.ID),
		AppointmentID:   a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		ScheduledAt:     a.ScheduledAt,
	}
}
