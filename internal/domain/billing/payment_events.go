package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
)

// PaymentRecordedEvent is raised when a payment transaction enters the ledger
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	TransactionID     uuid.UUID          `json:"transaction_id"`
	TransactionNumber string             `json:"transaction_number"`
	AdmissionID       uuid.UUID          `json:"admission_id"`
	Method            PaymentMethod      `json:"method"`
	Amount            decimal.Decimal    `json:"amount"`
	ReceivedAt        time.Time          `json:"received_at"`
	Allocations       PaymentAllocations `json:"allocations"`
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return "PaymentRecorded"
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(txn *PaymentTransaction) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("PaymentRecorded", "PaymentTransaction", txn.ID),
		TransactionID:     txn.ID,
		TransactionNumber: txn.TransactionNumber,
		AdmissionID:       txn.AdmissionID,
		Method:            txn.Method,
		Amount:            txn.Amount,
		ReceivedAt:        txn.ReceivedAt,
		Allocations:       txn.Allocations,
	}
}
