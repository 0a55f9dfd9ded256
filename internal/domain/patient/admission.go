package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// AdmissionStatus represents the status of an inpatient stay
type AdmissionStatus string

const (
	AdmissionStatusAdmitted   AdmissionStatus = "ADMITTED"
	AdmissionStatusDischarged AdmissionStatus = "DISCHARGED"
)

// Admission represents one inpatient stay. It is the billing anchor: bed and
// consultation charges derive from the rate scalars held here, and every bill
// item, advance and payment hangs off the admission.
type Admission struct {
	shared.BaseAggregateRoot
	PatientID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	DoctorID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Ward            string          `gorm:"type:varchar(50);not null"`
	BedNumber       string          `gorm:"type:varchar(20);not null"`
	BedDailyRate    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ConsultationFee decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"` // Per stay day
	Discount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"` // Stay-level discount
	Diagnosis       string          `gorm:"type:text"`
	AdmittedAt      time.Time       `gorm:"not null;index"`
	DischargedAt    *time.Time      `gorm:""`
	Status          AdmissionStatus `gorm:"type:varchar(20);not null;default:'ADMITTED'"`
}

// TableName returns the table name for GORM
func (Admission) TableName() string {
	return "admissions"
}

// NewAdmission admits a patient under a doctor
func NewAdmission(
	patientID, doctorID uuid.UUID,
	ward, bedNumber string,
	bedDailyRate, consultationFee valueobject.Money,
	admittedAt time.Time,
) (*Admission, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Patient ID is required")
	}
	if doctorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Doctor ID is required")
	}
	if strings.TrimSpace(ward) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Ward cannot be empty")
	}
	if len(ward) > 50 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Ward cannot exceed 50 characters")
	}
	if strings.TrimSpace(bedNumber) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Bed number cannot be empty")
	}
	if len(bedNumber) > 20 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Bed number cannot exceed 20 characters")
	}
	if bedDailyRate.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Bed daily rate cannot be negative")
	}
	if consultationFee.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Consultation fee cannot be negative")
	}
	if admittedAt.IsZero() {
		admittedAt = time.Now()
	}
	if admittedAt.After(time.Now()) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Admission time cannot be in the future")
	}

	admission := &Admission{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PatientID:         patientID,
		DoctorID:          doctorID,
		Ward:              ward,
		BedNumber:         bedNumber,
		BedDailyRate:      bedDailyRate.Amount().Round(2),
		ConsultationFee:   consultationFee.Amount().Round(2),
		Discount:          decimal.Zero,
		AdmittedAt:        admittedAt,
		Status:            AdmissionStatusAdmitted,
	}

	admission.AddDomainEvent(NewPatientAdmittedEvent(admission))

	return admission, nil
}

// StayDays returns the number of billable days, counting any started day as a
// full day. A same-day stay bills one day.
func (a *Admission) StayDays() int64 {
	end := time.Now()
	if a.DischargedAt != nil {
		end = *a.DischargedAt
	}
	elapsed := end.Sub(a.AdmittedAt)
	if elapsed <= 0 {
		return 1
	}
	days := int64(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// GetBedDailyRateMoney returns the bed daily rate as Money
func (a *Admission) GetBedDailyRateMoney() valueobject.Money {
	return valueobject.NewMoneyINR(a.BedDailyRate)
}

// GetConsultationFeeMoney returns the per-day consultation fee as Money
func (a *Admission) GetConsultationFeeMoney() valueobject.Money {
	return valueobject.NewMoneyINR(a.ConsultationFee)
}

// GetDiscountMoney returns the stay-level discount as Money
func (a *Admission) GetDiscountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(a.Discount)
}

// UpdateBedDailyRate changes the bed rate for the stay. Dependent bed
// charges are re-derived by the application layer.
func (a *Admission) UpdateBedDailyRate(rate valueobject.Money) error {
	if a.Status == AdmissionStatusDischarged {
		return shared.NewDomainError("INVALID_STATE", "Cannot change rates on a discharged stay")
	}
	if rate.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Bed daily rate cannot be negative")
	}

	a.BedDailyRate = rate.Amount().Round(2)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewAdmissionRatesChangedEvent(a))

	return nil
}

// UpdateConsultationFee changes the per-day consultation fee for the stay
func (a *Admission) UpdateConsultationFee(fee valueobject.Money) error {
	if a.Status == AdmissionStatusDischarged {
		return shared.NewDomainError("INVALID_STATE", "Cannot change rates on a discharged stay")
	}
	if fee.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Consultation fee cannot be negative")
	}

	a.ConsultationFee = fee.Amount().Round(2)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewAdmissionRatesChangedEvent(a))

	return nil
}

// SetDiscount sets the stay-level discount
func (a *Admission) SetDiscount(discount valueobject.Money) error {
	if discount.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Discount cannot be negative")
	}

	a.Discount = discount.Amount().Round(2)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// SetDiagnosis records the admission diagnosis
func (a *Admission) SetDiagnosis(diagnosis string) {
	a.Diagnosis = diagnosis
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// Transfer moves the patient to a different ward and bed
func (a *Admission) Transfer(ward, bedNumber string) error {
	if a.Status == AdmissionStatusDischarged {
		return shared.NewDomainError("INVALID_STATE", "Cannot transfer a discharged stay")
	}
	if strings.TrimSpace(ward) == "" || strings.TrimSpace(bedNumber) == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Ward and bed number are required")
	}
	if len(ward) > 50 || len(bedNumber) > 20 {
		return shared.NewDomainError("VALIDATION_ERROR", "Ward or bed number too long")
	}

	a.Ward = ward
	a.BedNumber = bedNumber
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// Discharge ends the stay. The discharge time freezes StayDays and with it
// the bed and consultation charges.
func (a *Admission) Discharge(at time.Time) error {
	if a.Status == AdmissionStatusDischarged {
		return shared.NewDomainError("INVALID_STATE", "Stay is already discharged")
	}
	if at.IsZero() {
		at = time.Now()
	}
	if at.Before(a.AdmittedAt) {
		return shared.NewDomainError("VALIDATION_ERROR", "Discharge time cannot precede admission time")
	}

	a.DischargedAt = &at
	a.Status = AdmissionStatusDischarged
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewPatientDischargedEvent(a))

	return nil
}

// IsAdmitted returns true if the stay is still open
func (a *Admission) IsAdmitted() bool {
	return a.Status == AdmissionStatusAdmitted
}
