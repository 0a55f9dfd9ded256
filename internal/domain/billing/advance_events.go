package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// AdvanceRecordedEvent is raised when a deposit is collected for an admission
type AdvanceRecordedEvent struct {
	shared.BaseDomainEvent
	AdvanceID     uuid.UUID       `json:"advance_id"`
	AdmissionID   uuid.UUID       `json:"admission_id"`
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
}

// EventType returns the event type name
func (e *AdvanceRecordedEvent) EventType() string {
	return "AdvanceRecorded"
}

// NewAdvanceRecordedEvent creates a new AdvanceRecordedEvent
func NewAdvanceRecordedEvent(adv *Advance) *AdvanceRecordedEvent {
	return &AdvanceRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("AdvanceRecorded", "Advance", adv.ID),
		AdvanceID:       adv.ID,
		AdmissionID:     adv.AdmissionID,
		ReceiptNumber:   adv.ReceiptNumber,
		Amount:          adv.Amount,
		Method:          adv.Method,
	}
}

// AdvanceDrawnEvent is raised when a payment consumes part of an advance
type AdvanceDrawnEvent struct {
	shared.BaseDomainEvent
	AdvanceID       uuid.UUID       `json:"advance_id"`
	AdmissionID     uuid.UUID       `json:"admission_id"`
	DrawnAmount     decimal.Decimal `json:"drawn_amount"`
	UsedAmount      decimal.Decimal `json:"used_amount"`
	AvailableAmount decimal.Decimal `json:"available_amount"`
}

// EventType returns the event type name
func (e *AdvanceDrawnEvent) EventType() string {
	return "AdvanceDrawn"
}

// NewAdvanceDrawnEvent creates a new AdvanceDrawnEvent
func NewAdvanceDrawnEvent(adv *Advance, amount valueobject.Money) *AdvanceDrawnEvent {
	return &AdvanceDrawnEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("AdvanceDrawn", "Advance", adv.ID),
		AdvanceID:       adv.ID,
		AdmissionID:     adv.AdmissionID,
		DrawnAmount:     amount.Amount(),
		UsedAmount:      adv.UsedAmount,
		AvailableAmount: adv.AvailableAmount(),
	}
}

// AdvanceFullyUsedEvent is raised when an advance balance reaches zero
type AdvanceFullyUsedEvent struct {
	shared.BaseDomainEvent
	AdvanceID   uuid.UUID       `json:"advance_id"`
	AdmissionID uuid.UUID       `json:"admission_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *AdvanceFullyUsedEvent) EventType() string {
	return "AdvanceFullyUsed"
}

// NewAdvanceFullyUsedEvent creates a new AdvanceFullyUsedEvent
func NewAdvanceFullyUsedEvent(adv *Advance) *AdvanceFullyUsedEvent {
	return &AdvanceFullyUsedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("AdvanceFullyUsed", "Advance", adv.ID),
		AdvanceID:       adv.ID,
		AdmissionID:     adv.AdmissionID,
		Amount:          adv.Amount,
	}
}
