package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// AdvanceStatus represents the lifecycle of an advance deposit
type AdvanceStatus string

const (
	AdvanceStatusActive    AdvanceStatus = "ACTIVE"     // Has a remaining available balance
	AdvanceStatusFullyUsed AdvanceStatus = "FULLY_USED" // Entire amount consumed by payments
)

// IsValid checks if the status is a valid AdvanceStatus
func (s AdvanceStatus) IsValid() bool {
	return s == AdvanceStatusActive || s == AdvanceStatusFullyUsed
}

// String returns the string representation of AdvanceStatus
func (s AdvanceStatus) String() string {
	return string(s)
}

// Advance represents a deposit collected against an admission before or during
// the stay. Advances are consumed oldest-first when payments draw on them and
// are never deleted; a fully consumed advance remains as an audit record.
type Advance struct {
	shared.BaseAggregateRoot
	AdmissionID   uuid.UUID       `json:"admission_id"`
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`      // Original deposit amount
	UsedAmount    decimal.Decimal `json:"used_amount"` // Consumed so far
	Method        PaymentMethod   `json:"method"`      // How the deposit was collected
	Status        AdvanceStatus   `json:"status"`
	Remark        string          `json:"remark"`
	ReceivedAt    time.Time       `json:"received_at"`
}

// NewAdvance records a new advance deposit for an admission
func NewAdvance(
	admissionID uuid.UUID,
	receiptNumber string,
	amount valueobject.Money,
	method PaymentMethod,
	remark string,
) (*Advance, error) {
	if admissionID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Admission ID cannot be empty")
	}
	if receiptNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Receipt number cannot be empty")
	}
	if len(receiptNumber) > 50 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Receipt number cannot exceed 50 characters")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Advance amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown payment method %q", method))
	}
	if method == PaymentMethodAdvance {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "An advance cannot be funded by another advance")
	}

	adv := &Advance{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AdmissionID:       admissionID,
		ReceiptNumber:     receiptNumber,
		Amount:            amount.Amount().Round(2),
		UsedAmount:        decimal.Zero,
		Method:            method,
		Status:            AdvanceStatusActive,
		Remark:            remark,
		ReceivedAt:        time.Now(),
	}

	adv.AddDomainEvent(NewAdvanceRecordedEvent(adv))

	return adv, nil
}

// AvailableAmount returns the remaining balance (amount - used)
func (a *Advance) AvailableAmount() decimal.Decimal {
	return a.Amount.Sub(a.UsedAmount)
}

// GetAvailableAmountMoney returns the remaining balance as Money
func (a *Advance) GetAvailableAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(a.AvailableAmount())
}

// Draw consumes part of the available balance. The draw must not exceed the
// balance; the status flips to FULLY_USED when the balance reaches zero.
func (a *Advance) Draw(amount valueobject.Money) error {
	if a.Status != AdvanceStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot draw on advance in %s status", a.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Draw amount must be positive")
	}
	if amount.Amount().GreaterThan(a.AvailableAmount()) {
		return shared.NewDomainError("INSUFFICIENT_ADVANCE",
			fmt.Sprintf("Draw amount %s exceeds available balance %s", amount.Amount().StringFixed(2), a.AvailableAmount().StringFixed(2)))
	}

	a.UsedAmount = a.UsedAmount.Add(amount.Amount()).Round(2)
	if a.AvailableAmount().IsZero() {
		a.Status = AdvanceStatusFullyUsed
		a.AddDomainEvent(NewAdvanceFullyUsedEvent(a))
	} else {
		a.AddDomainEvent(NewAdvanceDrawnEvent(a, amount))
	}

	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// IsActive returns true if the advance still has an available balance
func (a *Advance) IsActive() bool {
	return a.Status == AdvanceStatusActive
}

// BalancesConsistent verifies used <= amount and the status matches the balance
func (a *Advance) BalancesConsistent() bool {
	if a.UsedAmount.IsNegative() || a.UsedAmount.GreaterThan(a.Amount) {
		return false
	}
	if a.AvailableAmount().IsZero() {
		return a.Status == AdvanceStatusFullyUsed
	}
	return a.Status == AdvanceStatusActive
}
