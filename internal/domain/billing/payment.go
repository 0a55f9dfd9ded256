package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// PaymentMethod represents how a payment was collected
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "CASH"
	PaymentMethodCard       PaymentMethod = "CARD"
	PaymentMethodUPI        PaymentMethod = "UPI"
	PaymentMethodNetBanking PaymentMethod = "NET_BANKING"
	PaymentMethodCheque     PaymentMethod = "CHEQUE"
	PaymentMethodInsurance  PaymentMethod = "INSURANCE"
	PaymentMethodAdvance    PaymentMethod = "ADVANCE" // Funded from the admission's advance deposits
	PaymentMethodOther      PaymentMethod = "OTHER"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodNetBanking,
		PaymentMethodCheque, PaymentMethodInsurance, PaymentMethodAdvance, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// PaymentAllocation records how much of a transaction went to one bill item.
// It is a value object within the PaymentTransaction aggregate, stored as JSONB.
type PaymentAllocation struct {
	BillItemID uuid.UUID       `json:"bill_item_id"`
	Category   ChargeCategory  `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
}

// PaymentAllocations is a slice of PaymentAllocation that implements GORM Scanner/Valuer for JSONB storage
type PaymentAllocations []PaymentAllocation

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p PaymentAllocations) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *PaymentAllocations) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentAllocations{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentAllocations: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentAllocations{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Total returns the sum of all allocation amounts
func (p PaymentAllocations) Total() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p {
		total = total.Add(a.Amount)
	}
	return total
}

// PaymentTransaction is the immutable ledger record of money received against
// an admission. Transactions are never edited or deleted; corrections are
// recorded as new transactions.
type PaymentTransaction struct {
	shared.BaseAggregateRoot
	AdmissionID       uuid.UUID          `json:"admission_id"`
	TransactionNumber string             `json:"transaction_number"`
	Method            PaymentMethod      `json:"method"`
	Amount            decimal.Decimal    `json:"amount"`
	Reference         string             `json:"reference"` // External reference: UPI ID, cheque number, card auth code
	Remark            string             `json:"remark"`
	ReceivedAt        time.Time          `json:"received_at"`
	Allocations       PaymentAllocations `json:"allocations"`
}

// NewPaymentTransaction records a payment against an admission. The
// allocations must sum to the transaction amount within SettlementTolerance.
func NewPaymentTransaction(
	admissionID uuid.UUID,
	transactionNumber string,
	method PaymentMethod,
	amount valueobject.Money,
	reference string,
	remark string,
	allocations PaymentAllocations,
) (*PaymentTransaction, error) {
	if admissionID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Admission ID cannot be empty")
	}
	if transactionNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Transaction number cannot be empty")
	}
	if len(transactionNumber) > 50 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Transaction number cannot exceed 50 characters")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown payment method %q", method))
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}
	if len(allocations) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment must be allocated to at least one bill item")
	}
	for _, alloc := range allocations {
		if alloc.BillItemID == uuid.Nil {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Allocation bill item ID cannot be empty")
		}
		if !alloc.Amount.IsPositive() {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Allocation amount must be positive")
		}
	}
	if allocations.Total().Sub(amount.Amount()).Abs().GreaterThan(valueobject.SettlementTolerance) {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Allocations total %s does not match payment amount %s",
				allocations.Total().StringFixed(2), amount.Amount().StringFixed(2)))
	}

	txn := &PaymentTransaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AdmissionID:       admissionID,
		TransactionNumber: transactionNumber,
		Method:            method,
		Amount:            amount.Amount().Round(2),
		Reference:         reference,
		Remark:            remark,
		ReceivedAt:        time.Now(),
		Allocations:       allocations,
	}

	txn.AddDomainEvent(NewPaymentRecordedEvent(txn))

	return txn, nil
}

// GetAmountMoney returns the transaction amount as Money
func (t *PaymentTransaction) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(t.Amount)
}

// IsAdvanceDraw returns true for transactions funded from advance deposits
func (t *PaymentTransaction) IsAdvanceDraw() bool {
	return t.Method == PaymentMethodAdvance
}
