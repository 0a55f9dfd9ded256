package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// BillItemPostedEvent is raised when a new charge line is posted to a stay
type BillItemPostedEvent struct {
	shared.BaseDomainEvent
	BillItemID  uuid.UUID       `json:"bill_item_id"`
	AdmissionID uuid.UUID       `json:"admission_id"`
	Category    ChargeCategory  `json:"category"`
	Description string          `json:"description"`
	NetAmount   decimal.Decimal `json:"net_amount"`
}

// EventType returns the event type name
func (e *BillItemPostedEvent) EventType() string {
	return "BillItemPosted"
}

// NewBillItemPostedEvent creates a new BillItemPostedEvent
func NewBillItemPostedEvent(item *BillItem) *BillItemPostedEvent {
	return &BillItemPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillItemPosted", "BillItem", item.ID),
		BillItemID:      item.ID,
		AdmissionID:     item.AdmissionID,
		Category:        item.Category,
		Description:     item.Description,
		NetAmount:       item.NetAmount,
	}
}

// BillItemPartiallyPaidEvent is raised when a payment covers part of an item
type BillItemPartiallyPaidEvent struct {
	shared.BaseDomainEvent
	BillItemID    uuid.UUID       `json:"bill_item_id"`
	AdmissionID   uuid.UUID       `json:"admission_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
}

// EventType returns the event type name
func (e *BillItemPartiallyPaidEvent) EventType() string {
	return "BillItemPartiallyPaid"
}

// NewBillItemPartiallyPaidEvent creates a new BillItemPartiallyPaidEvent
func NewBillItemPartiallyPaidEvent(item *BillItem, transactionID uuid.UUID, amount valueobject.Money) *BillItemPartiallyPaidEvent {
	return &BillItemPartiallyPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillItemPartiallyPaid", "BillItem", item.ID),
		BillItemID:      item.ID,
		AdmissionID:     item.AdmissionID,
		TransactionID:   transactionID,
		PaymentAmount:   amount.Amount(),
		PaidAmount:      item.PaidAmount,
		PendingAmount:   item.PendingAmount,
	}
}

// BillItemSettledEvent is raised when an item's pending balance reaches zero
type BillItemSettledEvent struct {
	shared.BaseDomainEvent
	BillItemID      uuid.UUID       `json:"bill_item_id"`
	AdmissionID     uuid.UUID       `json:"admission_id"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	SettledAtSource bool            `json:"settled_at_source"`
}

// EventType returns the event type name
func (e *BillItemSettledEvent) EventType() string {
	return "BillItemSettled"
}

// NewBillItemSettledEvent creates a new BillItemSettledEvent
func NewBillItemSettledEvent(item *BillItem, transactionID uuid.UUID) *BillItemSettledEvent {
	return &BillItemSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillItemSettled", "BillItem", item.ID),
		BillItemID:      item.ID,
		AdmissionID:     item.AdmissionID,
		TransactionID:   transactionID,
		NetAmount:       item.NetAmount,
		SettledAtSource: item.SettledAtSource,
	}
}

// BillItemCancelledEvent is raised when an item is administratively voided
type BillItemCancelledEvent struct {
	shared.BaseDomainEvent
	BillItemID   uuid.UUID       `json:"bill_item_id"`
	AdmissionID  uuid.UUID       `json:"admission_id"`
	Category     ChargeCategory  `json:"category"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	CancelReason string          `json:"cancel_reason"`
}

// EventType returns the event type name
func (e *BillItemCancelledEvent) EventType() string {
	return "BillItemCancelled"
}

// NewBillItemCancelledEvent creates a new BillItemCancelledEvent
func NewBillItemCancelledEvent(item *BillItem) *BillItemCancelledEvent {
	return &BillItemCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillItemCancelled", "BillItem", item.ID),
		BillItemID:      item.ID,
		AdmissionID:     item.AdmissionID,
		Category:        item.Category,
		PaidAmount:      item.PaidAmount,
		CancelReason:    item.CancelReason,
	}
}
