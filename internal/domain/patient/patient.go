package patient

import (
	"regexp"
	"strings"
	"time"

	"github.com/hms/backend/internal/domain/shared"
)

// PatientStatus represents the status of a patient record
type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "ACTIVE"
	PatientStatusInactive PatientStatus = "INACTIVE" // Record retired, no new admissions
)

// Gender represents the recorded gender of a patient
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// IsValid checks if the gender value is recognised
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Patient represents a registered patient. It is the aggregate root for
// demographic and contact operations; clinical data lives elsewhere.
type Patient struct {
	shared.BaseAggregateRoot
	MRN              string        `gorm:"type:varchar(50);not null;uniqueIndex"` // Medical record number
	Name             string        `gorm:"type:varchar(200);not null"`
	Gender           Gender        `gorm:"type:varchar(10);not null"`
	DateOfBirth      *time.Time    `gorm:"type:date"`
	Phone            string        `gorm:"type:varchar(50);index"`
	Email            string        `gorm:"type:varchar(200)"`
	Address          string        `gorm:"type:text"`
	BloodGroup       string        `gorm:"type:varchar(10)"`
	EmergencyContact string        `gorm:"type:varchar(100)"`
	EmergencyPhone   string        `gorm:"type:varchar(50)"`
	Status           PatientStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
}

// TableName returns the table name for GORM
func (Patient) TableName() string {
	return "patients"
}

// NewPatient registers a new patient
func NewPatient(mrn, name string, gender Gender, dateOfBirth *time.Time) (*Patient, error) {
	if err := validateMRN(mrn); err != nil {
		return nil, err
	}
	if err := validatePersonName(name); err != nil {
		return nil, err
	}
	if !gender.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Gender must be MALE, FEMALE or OTHER")
	}
	if dateOfBirth != nil && dateOfBirth.After(time.Now()) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Date of birth cannot be in the future")
	}

	patient := &Patient{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MRN:               strings.ToUpper(mrn),
		Name:              name,
		Gender:            gender,
		DateOfBirth:       dateOfBirth,
		Status:            PatientStatusActive,
	}

	patient.AddDomainEvent(NewPatientRegisteredEvent(patient))

	return patient, nil
}

// UpdateDetails updates the patient's demographic information
func (p *Patient) UpdateDetails(name string, gender Gender, dateOfBirth *time.Time, bloodGroup string) error {
	if err := validatePersonName(name); err != nil {
		return err
	}
	if !gender.IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", "Gender must be MALE, FEMALE or OTHER")
	}
	if dateOfBirth != nil && dateOfBirth.After(time.Now()) {
		return shared.NewDomainError("VALIDATION_ERROR", "Date of birth cannot be in the future")
	}
	if bloodGroup != "" && len(bloodGroup) > 10 {
		return shared.NewDomainError("VALIDATION_ERROR", "Blood group cannot exceed 10 characters")
	}

	p.Name = name
	p.Gender = gender
	p.DateOfBirth = dateOfBirth
	p.BloodGroup = bloodGroup
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetContact sets the patient's contact information
func (p *Patient) SetContact(phone, email, address string) error {
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	if address != "" && len(address) > 500 {
		return shared.NewDomainError("VALIDATION_ERROR", "Address cannot exceed 500 characters")
	}

	p.Phone = phone
	p.Email = email
	p.Address = address
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetEmergencyContact sets the patient's emergency contact
func (p *Patient) SetEmergencyContact(name, phone string) error {
	if name != "" && len(name) > 100 {
		return shared.NewDomainError("VALIDATION_ERROR", "Emergency contact name cannot exceed 100 characters")
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}

	p.EmergencyContact = name
	p.EmergencyPhone = phone
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// Deactivate retires the patient record
func (p *Patient) Deactivate() error {
	if p.Status == PatientStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Patient record is already inactive")
	}

	p.Status = PatientStatusInactive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// IsActive returns true if the patient record is active
func (p *Patient) IsActive() bool {
	return p.Status == PatientStatusActive
}

// Age returns the patient's age in whole years, or -1 when the date of
// birth is not recorded
func (p *Patient) Age() int {
	if p.DateOfBirth == nil {
		return -1
	}
	now := time.Now()
	age := now.Year() - p.DateOfBirth.Year()
	if now.YearDay() < p.DateOfBirth.YearDay() {
		age--
	}
	return age
}

// Validation functions

func validateMRN(mrn string) error {
	if mrn == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "MRN cannot be empty")
	}
	if len(mrn) > 50 {
		return shared.NewDomainError("VALIDATION_ERROR", "MRN cannot exceed 50 characters")
	}
	for _, r := range mrn {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return shared.NewDomainError("VALIDATION_ERROR", "MRN can only contain letters, numbers and hyphens")
		}
	}
	return nil
}

func validatePersonName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Name cannot exceed 200 characters")
	}
	return nil
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("VALIDATION_ERROR", "Phone number cannot exceed 50 characters")
	}
	validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError("VALIDATION_ERROR", "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("VALIDATION_ERROR", "Invalid email format")
	}
	return nil
}
