package patient

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// DoctorStatus represents the status of a doctor
type DoctorStatus string

const (
	DoctorStatusActive   DoctorStatus = "ACTIVE"
	DoctorStatusInactive DoctorStatus = "INACTIVE"
)

// Doctor represents a consulting doctor. The consultation fee recorded here
// is the default for new admissions; each admission carries its own copy.
type Doctor struct {
	shared.BaseAggregateRoot
	Name            string          `gorm:"type:varchar(200);not null"`
	Specialty       string          `gorm:"type:varchar(100);not null"`
	Qualification   string          `gorm:"type:varchar(200)"`
	RegistrationNo  string          `gorm:"type:varchar(50);index"`
	Phone           string          `gorm:"type:varchar(50)"`
	Email           string          `gorm:"type:varchar(200)"`
	ConsultationFee decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Status          DoctorStatus    `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
}

// TableName returns the table name for GORM
func (Doctor) TableName() string {
	return "doctors"
}

// NewDoctor creates a new doctor
func NewDoctor(name, specialty string, consultationFee valueobject.Money) (*Doctor, error) {
	if err := validatePersonName(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(specialty) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Specialty cannot be empty")
	}
	if len(specialty) > 100 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Specialty cannot exceed 100 characters")
	}
	if consultationFee.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Consultation fee cannot be negative")
	}

	return &Doctor{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Specialty:         specialty,
		ConsultationFee:   consultationFee.Amount().Round(2),
		Status:            DoctorStatusActive,
	}, nil
}

// GetConsultationFeeMoney returns the consultation fee as Money
func (d *Doctor) GetConsultationFeeMoney() valueobject.Money {
	return valueobject.NewMoneyINR(d.ConsultationFee)
}

// SetConsultationFee updates the default consultation fee
func (d *Doctor) SetConsultationFee(fee valueobject.Money) error {
	if fee.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Consultation fee cannot be negative")
	}

	d.ConsultationFee = fee.Amount().Round(2)
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// SetContact sets the doctor's contact information
func (d *Doctor) SetContact(phone, email string) error {
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

	d.Phone = phone
	d.Email = email
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// SetCredentials sets the doctor's qualification and registration number
func (d *Doctor) SetCredentials(qualification, registrationNo string) error {
	if len(qualification) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Qualification cannot exceed 200 characters")
	}
	if len(registrationNo) > 50 {
		return shared.NewDomainError("VALIDATION_ERROR", "Registration number cannot exceed 50 characters")
	}

	d.Qualification = qualification
	d.RegistrationNo = registrationNo
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// Deactivate marks the doctor as no longer consulting
func (d *Doctor) Deactivate() error {
	if d.Status == DoctorStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Doctor is already inactive")
	}

	d.Status = DoctorStatusInactive
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// IsActive returns true if the doctor is active
func (d *Doctor) IsActive() bool {
	return d.Status == DoctorStatusActive
}
