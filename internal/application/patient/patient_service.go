package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
)

// PatientService provides application-level patient registry operations
type PatientService struct {
	patientRepo    patient.PatientRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPatientService creates a new PatientService
func NewPatientService(patientRepo patient.PatientRepository, logger *zap.Logger) *PatientService {
	return &PatientService{patientRepo: patientRepo, logger: logger}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PatientService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes the pending events of a patient aggregate
func (s *PatientService) publishDomainEvents(ctx context.Context, p *patient.Patient) {
	if s.eventPublisher == nil {
		return
	}
	events := p.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	p.ClearDomainEvents()
}

// PatientResponse represents a patient in API responses
type PatientResponse struct {
	ID               uuid.UUID  `json:"id"`
	MRN              string     `json:"mrn"`
	Name             string     `json:"name"`
	Gender           string     `json:"gender"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	Age              int        `json:"age"`
	Phone            string     `json:"phone,omitempty"`
	Email            string     `json:"email,omitempty"`
	Address          string     `json:"address,omitempty"`
	BloodGroup       string     `json:"blood_group,omitempty"`
	EmergencyContact string     `json:"emergency_contact,omitempty"`
	EmergencyPhone   string     `json:"emergency_phone,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toPatientResponse(p *patient.Patient) *PatientResponse {
	return &PatientResponse{
		ID:               p.ID,
		MRN:              p.MRN,
		Name:             p.Name,
		Gender:           string(p.Gender),
		DateOfBirth:      p.DateOfBirth,
		Age:              p.Age(),
		Phone:            p.Phone,
		Email:            p.Email,
		Address:          p.Address,
		BloodGroup:       p.BloodGroup,
		EmergencyContact: p.EmergencyContact,
		EmergencyPhone:   p.EmergencyPhone,
		Status:           string(p.Status),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// RegisterPatientRequest represents a patient registration
type RegisterPatientRequest struct {
	MRN              string     `json:"mrn" binding:"required,mrn"`
	Name             string     `json:"name" binding:"required"`
	Gender           string     `json:"gender" binding:"required"`
	DateOfBirth      *time.Time `json:"date_of_birth"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
	Address          string     `json:"address"`
	BloodGroup       string     `json:"blood_group"`
	EmergencyContact string     `json:"emergency_contact"`
	EmergencyPhone   string     `json:"emergency_phone"`
}

// RegisterPatient registers a new patient
func (s *PatientService) RegisterPatient(ctx context.Context, req RegisterPatientRequest) (*PatientResponse, error) {
	exists, err := s.patientRepo.ExistsByMRN(ctx, req.MRN)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A patient with this MRN already exists")
	}

	p, err := patient.NewPatient(req.MRN, req.Name, patient.Gender(req.Gender), req.DateOfBirth)
	if err != nil {
		return nil, err
	}
	if req.Phone != "" || req.Email != "" || req.Address != "" {
		if err := p.SetContact(req.Phone, req.Email, req.Address); err != nil {
			return nil, err
		}
	}
	if req.BloodGroup != "" {
		if err := p.UpdateDetails(p.Name, p.Gender, p.DateOfBirth, req.BloodGroup); err != nil {
			return nil, err
		}
	}
	if req.EmergencyContact != "" || req.EmergencyPhone != "" {
		if err := p.SetEmergencyContact(req.EmergencyContact, req.EmergencyPhone); err != nil {
			return nil, err
		}
	}

	if err := s.patientRepo.Save(ctx, p); err != nil {
		return nil, shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to save patient")
	}
	s.publishDomainEvents(ctx, p)

	s.logger.Info("patient registered",
		zap.String("patient_id", p.ID.String()),
		zap.String("mrn", p.MRN))

	return toPatientResponse(p), nil
}

// GetPatient gets a patient by ID
func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID) (*PatientResponse, error) {
	p, err := s.patientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Patient not found")
	}
	return toPatientResponse(p), nil
}

// SearchPatients lists patients matching a name or MRN fragment
func (s *PatientService) SearchPatients(ctx context.Context, query string, page, pageSize int) ([]PatientResponse, int64, error) {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}

	result, err := s.patientRepo.Search(ctx, query, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PatientResponse, len(result.Items))
	for i := range result.Items {
		responses[i] = *toPatientResponse(&result.Items[i])
	}
	return responses, result.Total, nil
}

// UpdatePatientRequest represents a patient demographics update
type UpdatePatientRequest struct {
	Name             string     `json:"name" binding:"required"`
	Gender           string     `json:"gender" binding:"required"`
	DateOfBirth      *time.Time `json:"date_of_birth"`
	BloodGroup       string     `json:"blood_group"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
	Address          string     `json:"address"`
	EmergencyContact string     `json:"emergency_contact"`
	EmergencyPhone   string     `json:"emergency_phone"`
}

// UpdatePatient updates a patient's demographics and contact details
func (s *PatientService) UpdatePatient(ctx context.Context, id uuid.UUID, req UpdatePatientRequest) (*PatientResponse, error) {
	p, err := s.patientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Patient not found")
	}

	if err := p.UpdateDetails(req.Name, patient.Gender(req.Gender), req.DateOfBirth, req.BloodGroup); err != nil {
		return nil, err
	}
	if err := p.SetContact(req.Phone, req.Email, req.Address); err != nil {
		return nil, err
	}
	if err := p.SetEmergencyContact(req.EmergencyContact, req.EmergencyPhone); err != nil {
		return nil, err
	}

	if err := s.patientRepo.Save(ctx, p); err != nil {
		return nil, shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to save patient")
	}
	return toPatientResponse(p), nil
}

// DeactivatePatient retires a patient record
func (s *PatientService) DeactivatePatient(ctx context.Context, id uuid.UUID) error {
	p, err := s.patientRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return shared.NewDomainError("NOT_FOUND", "Patient not found")
	}

	if err := p.Deactivate(); err != nil {
		return err
	}
	return s.patientRepo.Save(ctx, p)
}
