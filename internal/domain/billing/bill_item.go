package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// BillItemStatus represents the settlement status of a bill item
type BillItemStatus string

const (
	BillItemStatusPending   BillItemStatus = "PENDING"   // Unpaid, pending balance = net
	BillItemStatusPartial   BillItemStatus = "PARTIAL"   // Partially paid, 0 < pending < net
	BillItemStatusPaid      BillItemStatus = "PAID"      // Fully settled, pending = 0
	BillItemStatusCancelled BillItemStatus = "CANCELLED" // Administratively voided
)

// IsValid checks if the status is a valid BillItemStatus
func (s BillItemStatus) IsValid() bool {
	switch s {
	case BillItemStatusPending, BillItemStatusPartial, BillItemStatusPaid, BillItemStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of BillItemStatus
func (s BillItemStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the item is in a terminal state
func (s BillItemStatus) IsTerminal() bool {
	return s == BillItemStatusPaid || s == BillItemStatusCancelled
}

// CanApplyPayment returns true if payments can be applied in this status
func (s BillItemStatus) CanApplyPayment() bool {
	return s == BillItemStatusPending || s == BillItemStatusPartial
}

// BillItem represents a single billable line on an inpatient stay.
// Net amount is always derived as quantity x unit price - discount; the paid
// and pending balances partition the net amount.
type BillItem struct {
	shared.BaseAggregateRoot
	AdmissionID     uuid.UUID       `json:"admission_id"`
	Category        ChargeCategory  `json:"category"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	GrossAmount     decimal.Decimal `json:"gross_amount"`   // quantity x unit price
	DiscountAmount  decimal.Decimal `json:"discount_amount"` // flat amount off this line
	NetAmount       decimal.Decimal `json:"net_amount"`      // gross - discount
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	PendingAmount   decimal.Decimal `json:"pending_amount"`
	Status          BillItemStatus  `json:"status"`
	SettledAtSource bool            `json:"settled_at_source"` // Collected at the point of service (e.g., pharmacy counter)
	ServiceDate     time.Time       `json:"service_date"`
	Remark          string          `json:"remark"`
	PaidAt          *time.Time      `json:"paid_at"`
	CancelledAt     *time.Time      `json:"cancelled_at"`
	CancelReason    string          `json:"cancel_reason"`
}

// NewBillItem creates a new bill item for an admission
func NewBillItem(
	admissionID uuid.UUID,
	category ChargeCategory,
	description string,
	quantity valueobject.Quantity,
	unitPrice valueobject.Money,
	discount valueobject.Money,
	serviceDate time.Time,
) (*BillItem, error) {
	if admissionID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Admission ID cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown charge category %q", category))
	}
	if description == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Description cannot be empty")
	}
	if len(description) > 200 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Description cannot exceed 200 characters")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unit price cannot be negative")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Discount cannot be negative")
	}

	gross := unitPrice.Multiply(quantity.Amount()).Round(2)
	if discount.Amount().GreaterThan(gross.Amount()) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Discount cannot exceed the line gross amount")
	}
	if serviceDate.IsZero() {
		serviceDate = time.Now()
	}

	item := &BillItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AdmissionID:       admissionID,
		Category:          category,
		Description:       description,
		Quantity:          quantity.Amount(),
		Unit:              quantity.Unit(),
		UnitPrice:         unitPrice.Amount(),
		DiscountAmount:    discount.Amount(),
		PaidAmount:        decimal.Zero,
		Status:            BillItemStatusPending,
		ServiceDate:       serviceDate,
	}
	item.recalculate()

	item.AddDomainEvent(NewBillItemPostedEvent(item))

	return item, nil
}

// recalculate re-derives gross, net and pending from quantity, price,
// discount and the paid balance, then refreshes the status.
func (b *BillItem) recalculate() {
	b.GrossAmount = b.UnitPrice.Mul(b.Quantity).Round(2)
	b.NetAmount = b.GrossAmount.Sub(b.DiscountAmount).Round(2)
	b.PendingAmount = b.NetAmount.Sub(b.PaidAmount).Round(2)
	if b.PendingAmount.IsNegative() {
		b.PendingAmount = decimal.Zero
	}
	b.refreshStatus()
}

// refreshStatus derives the status from the paid and pending balances.
// Paid wins over partial when the pending balance reaches zero; a zero-net
// item with nothing paid stays pending until money moves or it is cancelled.
func (b *BillItem) refreshStatus() {
	if b.Status == BillItemStatusCancelled {
		return
	}
	switch {
	case b.NetAmount.IsPositive() && !b.PendingAmount.IsPositive():
		if b.Status != BillItemStatusPaid {
			now := time.Now()
			b.Status = BillItemStatusPaid
			b.PaidAt = &now
		}
	case b.PaidAmount.IsPositive():
		b.Status = BillItemStatusPartial
	default:
		b.Status = BillItemStatusPending
	}
}

// ApplyPayment applies a payment to the item's pending balance.
// Amounts within SettlementTolerance of the pending balance settle the item.
func (b *BillItem) ApplyPayment(amount valueobject.Money, transactionID uuid.UUID) error {
	if !b.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to bill item in %s status", b.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}
	if transactionID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Transaction ID cannot be empty")
	}
	if amount.Amount().Sub(b.PendingAmount).GreaterThan(valueobject.SettlementTolerance) {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Payment amount %s exceeds pending balance %s", amount.Amount().StringFixed(2), b.PendingAmount.StringFixed(2)))
	}

	b.PaidAmount = b.PaidAmount.Add(amount.Amount()).Round(2)
	if b.PaidAmount.GreaterThan(b.NetAmount) {
		b.PaidAmount = b.NetAmount
	}
	b.PendingAmount = b.NetAmount.Sub(b.PaidAmount).Round(2)
	b.refreshStatus()

	if b.Status == BillItemStatusPaid {
		b.AddDomainEvent(NewBillItemSettledEvent(b, transactionID))
	} else {
		b.AddDomainEvent(NewBillItemPartiallyPaidEvent(b, transactionID, amount))
	}

	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// UpdateQuantityAndRate edits the quantity and unit price of an unsettled item
// and re-derives the dependent amounts
func (b *BillItem) UpdateQuantityAndRate(quantity valueobject.Quantity, unitPrice valueobject.Money) error {
	if b.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit bill item in %s status", b.Status))
	}
	if !quantity.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Unit price cannot be negative")
	}
	newNet := unitPrice.Multiply(quantity.Amount()).Round(2).Amount().Sub(b.DiscountAmount)
	if newNet.LessThan(b.PaidAmount) {
		return shared.NewDomainError("VALIDATION_ERROR", "Net amount cannot drop below the amount already paid")
	}

	b.Quantity = quantity.Amount()
	b.Unit = quantity.Unit()
	b.UnitPrice = unitPrice.Amount()
	b.recalculate()

	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// SetDiscount replaces the flat discount on the line and re-derives amounts
func (b *BillItem) SetDiscount(discount valueobject.Money) error {
	if b.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit bill item in %s status", b.Status))
	}
	if discount.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Discount cannot be negative")
	}
	if discount.Amount().GreaterThan(b.GrossAmount) {
		return shared.NewDomainError("VALIDATION_ERROR", "Discount cannot exceed the line gross amount")
	}
	if b.GrossAmount.Sub(discount.Amount()).LessThan(b.PaidAmount) {
		return shared.NewDomainError("VALIDATION_ERROR", "Net amount cannot drop below the amount already paid")
	}

	b.DiscountAmount = discount.Amount()
	b.recalculate()

	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// MarkSettledAtSource marks an item as collected at the point of service.
// The full net amount is treated as paid outside the stay's payment ledger.
func (b *BillItem) MarkSettledAtSource() error {
	if !b.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark bill item in %s status as settled at source", b.Status))
	}
	if b.PaidAmount.IsPositive() {
		return shared.NewDomainError("INVALID_STATE", "Cannot mark a partially paid bill item as settled at source")
	}

	now := time.Now()
	b.SettledAtSource = true
	b.PaidAmount = b.NetAmount
	b.PendingAmount = decimal.Zero
	b.Status = BillItemStatusPaid
	b.PaidAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBillItemSettledEvent(b, uuid.Nil))

	return nil
}

// Cancel administratively voids the item. The historical paid amount is
// retained; the pending balance is dropped from aggregation.
func (b *BillItem) Cancel(reason string) error {
	if b.Status == BillItemStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Bill item is already cancelled")
	}
	if reason == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Cancel reason is required")
	}

	now := time.Now()
	b.Status = BillItemStatusCancelled
	b.CancelledAt = &now
	b.CancelReason = reason
	b.PendingAmount = decimal.Zero
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBillItemCancelledEvent(b))

	return nil
}

// SetRemark sets the remark
func (b *BillItem) SetRemark(remark string) {
	b.Remark = remark
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

// Helper methods

// GetNetAmountMoney returns the net amount as Money
func (b *BillItem) GetNetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(b.NetAmount)
}

// GetPaidAmountMoney returns the paid amount as Money
func (b *BillItem) GetPaidAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(b.PaidAmount)
}

// GetPendingAmountMoney returns the pending balance as Money
func (b *BillItem) GetPendingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(b.PendingAmount)
}

// IsCancelled returns true if the item is cancelled
func (b *BillItem) IsCancelled() bool {
	return b.Status == BillItemStatusCancelled
}

// IsPaid returns true if the item is fully settled
func (b *BillItem) IsPaid() bool {
	return b.Status == BillItemStatusPaid
}

// BalancesConsistent verifies paid + pending = net within SettlementTolerance.
// Cancelled items drop their pending balance and are exempt.
func (b *BillItem) BalancesConsistent() bool {
	if b.Status == BillItemStatusCancelled {
		return true
	}
	diff := b.PaidAmount.Add(b.PendingAmount).Sub(b.NetAmount).Abs()
	return diff.LessThanOrEqual(valueobject.SettlementTolerance)
}
