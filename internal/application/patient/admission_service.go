package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
	"github.com/hms/backend/internal/infrastructure/telemetry"
)

// StayChargeSyncer keeps the derived bed and consultation charge lines of a
// stay aligned with the admission scalars
type StayChargeSyncer interface {
	SyncStayCharges(ctx context.Context, admissionID uuid.UUID) error
}

// AdmissionService provides application-level admission operations. Rate and
// discount edits flow through here; the billing side re-derives the bed and
// consultation subtotals from the admission scalars and keeps the matching
// charge lines in step through the stay charge syncer.
type AdmissionService struct {
	admissionRepo  patient.AdmissionRepository
	patientRepo    patient.PatientRepository
	doctorRepo     patient.DoctorRepository
	eventPublisher shared.EventPublisher
	stayCharges    StayChargeSyncer
	logger         *zap.Logger
}

// NewAdmissionService creates a new AdmissionService
func NewAdmissionService(
	admissionRepo patient.AdmissionRepository,
	patientRepo patient.PatientRepository,
	doctorRepo patient.DoctorRepository,
	logger *zap.Logger,
) *AdmissionService {
	return &AdmissionService{
		admissionRepo: admissionRepo,
		patientRepo:   patientRepo,
		doctorRepo:    doctorRepo,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AdmissionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetStayChargeSyncer sets the billing-side syncer invoked after admission
// scalar changes
func (s *AdmissionService) SetStayChargeSyncer(syncer StayChargeSyncer) {
	s.stayCharges = syncer
}

// syncStayCharges refreshes the derived charge lines after a scalar change.
// The admission write has already committed, so a failed sync is logged and
// the lines catch up on the next billing read.
func (s *AdmissionService) syncStayCharges(ctx context.Context, admissionID uuid.UUID) {
	if s.stayCharges == nil {
		return
	}
	if err := s.stayCharges.SyncStayCharges(ctx, admissionID); err != nil {
		s.logger.Warn("stay charge sync failed",
			zap.String("admission_id", admissionID.String()),
			zap.Error(err))
	}
}

// publishDomainEvents publishes the pending events of an admission aggregate
func (s *AdmissionService) publishDomainEvents(ctx context.Context, a *patient.Admission) {
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

// AdmissionResponse represents an admission in API responses
type AdmissionResponse struct {
	ID              uuid.UUID       `json:"id"`
	PatientID       uuid.UUID       `json:"patient_id"`
	DoctorID        uuid.UUID       `json:"doctor_id"`
	Ward            string          `json:"ward"`
	BedNumber       string          `json:"bed_number"`
	BedDailyRate    decimal.Decimal `json:"bed_daily_rate"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	Discount        decimal.Decimal `json:"discount"`
	Diagnosis       string          `json:"diagnosis,omitempty"`
	AdmittedAt      time.Time       `json:"admitted_at"`
	DischargedAt    *time.Time      `json:"discharged_at,omitempty"`
	StayDays        int64           `json:"stay_days"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

func toAdmissionResponse(a *patient.Admission) *AdmissionResponse {
	return &AdmissionResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		Ward:            a.Ward,
		BedNumber:       a.BedNumber,
		BedDailyRate:    a.BedDailyRate,
		ConsultationFee: a.ConsultationFee,
		Discount:        a.Discount,
		Diagnosis:       a.Diagnosis,
		AdmittedAt:      a.AdmittedAt,
		DischargedAt:    a.DischargedAt,
		StayDays:        a.StayDays(),
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		Version:         a.Version,
	}
}

// AdmitPatientRequest represents an admission request. A zero consultation
// fee falls back to the doctor's default.
type AdmitPatientRequest struct {
	PatientID       uuid.UUID       `json:"patient_id" binding:"required"`
	DoctorID        uuid.UUID       `json:"doctor_id" binding:"required"`
	Ward            string          `json:"ward" binding:"required"`
	BedNumber       string          `json:"bed_number" binding:"required"`
	BedDailyRate    decimal.Decimal `json:"bed_daily_rate" binding:"required"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	Diagnosis       string          `json:"diagnosis"`
	AdmittedAt      *time.Time      `json:"admitted_at"`
}

// AdmitPatient opens a new stay for a patient under a doctor
func (s *AdmissionService) AdmitPatient(ctx context.Context, req AdmitPatientRequest) (*AdmissionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "admission", "admit_patient")
	defer span.End()

	p, err := s.patientRepo.FindByID(ctx, req.PatientID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	if p == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Patient not found")
	}
	if !p.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot admit an inactive patient record")
	}

	doctor, err := s.doctorRepo.FindByID(ctx, req.DoctorID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}
	if doctor == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Doctor not found")
	}
	if !doctor.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Doctor is not currently consulting")
	}

	open, err := s.admissionRepo.FindOpenByPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Patient already has an open stay")
	}

	fee := req.ConsultationFee
	if fee.IsZero() {
		fee = doctor.ConsultationFee
	}

	admittedAt := time.Now()
	if req.AdmittedAt != nil {
		admittedAt = *req.AdmittedAt
	}

	admission, err := patient.NewAdmission(
		req.PatientID,
		req.DoctorID,
		req.Ward,
		req.BedNumber,
		valueobject.NewMoneyINR(req.BedDailyRate),
		valueobject.NewMoneyINR(fee),
		admittedAt,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.Diagnosis != "" {
		admission.SetDiagnosis(req.Diagnosis)
	}

	if err := s.admissionRepo.Save(ctx, admission); err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to save admission")
	}
	s.publishDomainEvents(ctx, admission)
	s.syncStayCharges(ctx, admission.ID)

	s.logger.Info("patient admitted",
		zap.String("admission_id", admission.ID.String()),
		zap.String("patient_id", req.PatientID.String()),
		zap.String("ward", req.Ward),
		zap.String("bed", req.BedNumber))

	return toAdmissionResponse(admission), nil
}

// GetAdmission gets an admission by ID
func (s *AdmissionService) GetAdmission(ctx context.Context, id uuid.UUID) (*AdmissionResponse, error) {
	admission, err := s.admissionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if admission == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Admission not found")
	}
	return toAdmissionResponse(admission), nil
}

// ListAdmissionsByPatient lists a patient's stays, newest first
func (s *AdmissionService) ListAdmissionsByPatient(ctx context.Context, patientID uuid.UUID) ([]AdmissionResponse, error) {
	admissions, err := s.admissionRepo.FindByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	responses := make([]AdmissionResponse, len(admissions))
	for i := range admissions {
		responses[i] = *toAdmissionResponse(&admissions[i])
	}
	return responses, nil
}

// ListAdmitted lists currently open stays
func (s *AdmissionService) ListAdmitted(ctx context.Context, page, pageSize int) ([]AdmissionResponse, int64, error) {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}

	result, err := s.admissionRepo.FindAdmitted(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]AdmissionResponse, len(result.Items))
	for i := range result.Items {
		responses[i] = *toAdmissionResponse(&result.Items[i])
	}
	return responses, result.Total, nil
}

// UpdateRatesRequest represents a rate edit on an open stay
type UpdateRatesRequest struct {
	BedDailyRate    *decimal.Decimal `json:"bed_daily_rate"`
	ConsultationFee *decimal.Decimal `json:"consultation_fee"`
}

// UpdateRates changes the bed rate and/or consultation fee of an open stay.
// Bed and consultation charges derive from these scalars; the summary picks
// the change up on the next read and the payable charge lines are resynced
// to match.
func (s *AdmissionService) UpdateRates(ctx context.Context, id uuid.UUID, req UpdateRatesRequest) (*AdmissionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "admission", "update_rates")
	defer span.End()

	admission, err := s.admissionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if admission == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Admission not found")
	}

	if req.BedDailyRate != nil {
		if err := admission.UpdateBedDailyRate(valueobject.NewMoneyINR(*req.BedDailyRate)); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	if req.ConsultationFee != nil {
		if err := admission.UpdateConsultationFee(valueobject.NewMoneyINR(*req.ConsultationFee)); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.admissionRepo.SaveWithLock(ctx, admission); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishDomainEvents(ctx, admission)
	s.syncStayCharges(ctx, admission.ID)
	return toAdmissionResponse(admission), nil
}

// SetDiscount sets the stay-level discount
func (s *AdmissionService) SetDiscount(ctx context.Context, id uuid.UUID, discount decimal.Decimal) (*AdmissionResponse, error) {
	admission, err := s.admissionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if admission == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Admission not found")
	}

	if err := admission.SetDiscount(valueobject.NewMoneyINR(discount)); err != nil {
		return nil, err
	}
	if err := s.admissionRepo.SaveWithLock(ctx, admission); err != nil {
		return nil, err
	}
	return toAdmissionResponse(admission), nil
}

// TransferRequest represents a ward/bed move
type TransferRequest struct {
	Ward      string `json:"ward" binding:"required"`
	BedNumber string `json:"bed_number" binding:"required"`
}

// Transfer moves the patient to a different ward and bed
func (s *AdmissionService) Transfer(ctx context.Context, id uuid.UUID, req TransferRequest) (*AdmissionResponse, error) {
	admission, err := s.admissionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if admission == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Admission not found")
	}

	if err := admission.Transfer(req.Ward, req.BedNumber); err != nil {
		return nil, err
	}
	if err := s.admissionRepo.SaveWithLock(ctx, admission); err != nil {
		return nil, err
	}
	return toAdmissionResponse(admission), nil
}

// DischargePatient closes a stay. The discharge time freezes the billable
// day count.
func (s *AdmissionService) DischargePatient(ctx context.Context, id uuid.UUID, at *time.Time) (*AdmissionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "admission", "discharge_patient")
	defer span.End()

	admission, err := s.admissionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if admission == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Admission not found")
	}

	dischargeAt := time.Now()
	if at != nil {
		dischargeAt = *at
	}
	if err := admission.Discharge(dischargeAt); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.admissionRepo.SaveWithLock(ctx, admission); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishDomainEvents(ctx, admission)
	s.syncStayCharges(ctx, admission.ID)

	s.logger.Info("patient discharged",
		zap.String("admission_id", admission.ID.String()),
		zap.Int64("stay_days", admission.StayDays()))

	return toAdmissionResponse(admission), nil
}

// DoctorResponse represents a doctor in API responses
type DoctorResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Specialty       string          `json:"specialty"`
	Qualification   string          `json:"qualification,omitempty"`
	RegistrationNo  string          `json:"registration_no,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	Email           string          `json:"email,omitempty"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	Status          string          `json:"status"`
}

func toDoctorResponse(d *patient.Doctor) *DoctorResponse {
	return &DoctorResponse{
		ID:              d.ID,
		Name:            d.Name,
		Specialty:       d.Specialty,
		Qualification:   d.Qualification,
		RegistrationNo:  d.RegistrationNo,
		Phone:           d.Phone,
		Email:           d.Email,
		ConsultationFee: d.ConsultationFee,
		Status:          string(d.Status),
	}
}

// CreateDoctorRequest represents a doctor registration
type CreateDoctorRequest struct {
	Name            string          `json:"name" binding:"required"`
	Specialty       string          `json:"specialty" binding:"required"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	Qualification   string          `json:"qualification"`
	RegistrationNo  string          `json:"registration_no"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
}

// CreateDoctor registers a consulting doctor
func (s *AdmissionService) CreateDoctor(ctx context.Context, req CreateDoctorRequest) (*DoctorResponse, error) {
	doctor, err := patient.NewDoctor(req.Name, req.Specialty, valueobject.NewMoneyINR(req.ConsultationFee))
	if err != nil {
		return nil, err
	}
	if req.Qualification != "" || req.RegistrationNo != "" {
		if err := doctor.SetCredentials(req.Qualification, req.RegistrationNo); err != nil {
			return nil, err
		}
	}
	if req.Phone != "" || req.Email != "" {
		if err := doctor.SetContact(req.Phone, req.Email); err != nil {
			return nil, err
		}
	}

	if err := s.doctorRepo.Save(ctx, doctor); err != nil {
		return nil, shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to save doctor")
	}
	return toDoctorResponse(doctor), nil
}

// ListDoctors lists active doctors, optionally filtered by specialty
func (s *AdmissionService) ListDoctors(ctx context.Context, specialty string) ([]DoctorResponse, error) {
	doctors, err := s.doctorRepo.FindActive(ctx, specialty)
	if err != nil {
		return nil, err
	}
	responses := make([]DoctorResponse, len(doctors))
	for i := range doctors {
		responses[i] = *toDoctorResponse(&doctors[i])
	}
	return responses, nil
}
