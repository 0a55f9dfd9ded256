package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
)

// AppointmentService provides application-level appointment scheduling
type AppointmentService struct {
	appointmentRepo patient.AppointmentRepository
	patientRepo     patient.PatientRepository
	doctorRepo      patient.DoctorRepository
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewAppointmentService creates a new AppointmentService
func NewAppointmentService(
	appointmentRepo patient.AppointmentRepository,
	patientRepo patient.PatientRepository,
	doctorRepo patient.DoctorRepository,
	logger *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		doctorRepo:      doctorRepo,
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AppointmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes the pending events of an appointment aggregate
func (s *AppointmentService) publishDomainEvents(ctx context.Context, a *patient.Appointment) {
	if s.eventPublisher == nil {
		return
	}
	events := a.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	a.ClearDomainEvents()
}

// AppointmentResponse represents an appointment in API responses
type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason,omitempty"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAppointmentResponse(a *patient.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:          a.ID,
		PatientID:   a.PatientID,
		DoctorID:    a.DoctorID,
		ScheduledAt: a.ScheduledAt,
		Reason:      a.Reason,
		Status:      string(a.Status),
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
	}
}

// ScheduleAppointmentRequest represents an appointment booking
type ScheduleAppointmentRequest struct {
	PatientID   uuid.UUID `json:"patient_id" binding:"required"`
	DoctorID    uuid.UUID `json:"doctor_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Reason      string    `json:"reason"`
}

// ScheduleAppointment books a consultation slot
func (s *AppointmentService) ScheduleAppointment(ctx context.Context, req ScheduleAppointmentRequest) (*AppointmentResponse, error) {
	p, err := s.patientRepo.FindByID(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Patient not found")
	}

	doctor, err := s.doctorRepo.FindByID(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Doctor not found")
	}
	if !doctor.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Doctor is not currently consulting")
	}

	appointment, err := patient.NewAppointment(req.PatientID, req.DoctorID, req.ScheduledAt, req.Reason)
	if err != nil {
		return nil, err
	}

	if err := s.appointmentRepo.Save(ctx, appointment); err != nil {
		return nil, shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to save appointment")
	}
	s.publishDomainEvents(ctx, appointment)

	s.logger.Info("appointment scheduled",
		zap.String("appointment_id", appointment.ID.String()),
		zap.String("doctor_id", req.DoctorID.String()),
		zap.Time("scheduled_at", req.ScheduledAt))

	return toAppointmentResponse(appointment), nil
}

// GetAppointment gets an appointment by ID
func (s *AppointmentService) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentResponse, error) {
	appointment, err := s.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Appointment not found")
	}
	return toAppointmentResponse(appointment), nil
}

// ListAppointmentsByPatient lists a patient's appointments, newest first
func (s *AppointmentService) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentResponse, error) {
	appointments, err := s.appointmentRepo.FindByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	responses := make([]AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *toAppointmentResponse(&appointments[i])
	}
	return responses, nil
}

// ListDoctorSchedule lists a doctor's appointments in a time window
func (s *AppointmentService) ListDoctorSchedule(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]AppointmentResponse, error) {
	appointments, err := s.appointmentRepo.FindByDoctorAndRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	responses := make([]AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *toAppointmentResponse(&appointments[i])
	}
	return responses, nil
}

// RescheduleAppointment moves an appointment to a new slot
func (s *AppointmentService) RescheduleAppointment(ctx context.Context, id uuid.UUID, scheduledAt time.Time) (*AppointmentResponse, error) {
	appointment, err := s.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Appointment not found")
	}

	if err := appointment.Reschedule(scheduledAt); err != nil {
		return nil, err
	}
	if err := s.appointmentRepo.Save(ctx, appointment); err != nil {
		return nil, err
	}
	return toAppointmentResponse(appointment), nil
}

// CompleteAppointment marks an appointment as held
func (s *AppointmentService) CompleteAppointment(ctx context.Context, id uuid.UUID, notes string) (*AppointmentResponse, error) {
	appointment, err := s.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Appointment not found")
	}

	if err := appointment.Complete(notes); err != nil {
		return nil, err
	}
	if err := s.appointmentRepo.Save(ctx, appointment); err != nil {
		return nil, err
	}
	return toAppointmentResponse(appointment), nil
}

// CancelAppointment cancels a scheduled appointment
func (s *AppointmentService) CancelAppointment(ctx context.Context, id uuid.UUID) (*AppointmentResponse, error) {
	appointment, err := s.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Appointment not found")
	}

	if err := appointment.Cancel(); err != nil {
		return nil, err
	}
	if err := s.appointmentRepo.Save(ctx, appointment); err != nil {
		return nil, err
	}
	return toAppointmentResponse(appointment), nil
}

// MarkNoShow records that the patient did not attend
func (s *AppointmentService) MarkNoShow(ctx context.Context, id uuid.UUID) (*AppointmentResponse, error) {
	appointment, err := s.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Appointment not found")
	}

	if err := appointment.MarkNoShow(); err != nil {
		return nil, err
	}
	if err := s.appointmentRepo.Save(ctx, appointment); err != nil {
		return nil, err
	}
	return toAppointmentResponse(appointment), nil
}
