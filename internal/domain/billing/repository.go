package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillItemRepository defines the persistence interface for bill items
type BillItemRepository interface {
	// FindByID finds a bill item by ID
	FindByID(ctx context.Context, id uuid.UUID) (*BillItem, error)

	// FindByAdmission finds all bill items for an admission, ordered by service date
	FindByAdmission(ctx context.Context, admissionID uuid.UUID) ([]BillItem, error)

	// FindByAdmissionAndCategory finds all bill items of one category for an admission
	FindByAdmissionAndCategory(ctx context.Context, admissionID uuid.UUID, category ChargeCategory) ([]BillItem, error)

	// FindOutstandingByAdmission finds items that can still accept payments,
	// ordered by creation time ascending
	FindOutstandingByAdmission(ctx context.Context, admissionID uuid.UUID) ([]BillItem, error)

	// Save persists a bill item (create or update)
	Save(ctx context.Context, item *BillItem) error

	// SaveWithLock persists a bill item with optimistic locking
	// Returns ErrConcurrencyConflict if the version does not match
	SaveWithLock(ctx context.Context, item *BillItem) error

	// SumPendingByAdmission sums the pending balances of non-cancelled items
	SumPendingByAdmission(ctx context.Context, admissionID uuid.UUID) (decimal.Decimal, error)
}

// AdvanceRepository defines the persistence interface for advance deposits
type AdvanceRepository interface {
	// FindByID finds an advance by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Advance, error)

	// FindByAdmission finds all advances for an admission, oldest first
	FindByAdmission(ctx context.Context, admissionID uuid.UUID) ([]Advance, error)

	// FindActiveByAdmission finds advances with an available balance,
	// ordered by creation time ascending for FIFO consumption
	FindActiveByAdmission(ctx context.Context, admissionID uuid.UUID) ([]Advance, error)

	// Save persists an advance (create or update)
	Save(ctx context.Context, advance *Advance) error

	// SaveWithLock persists an advance with optimistic locking and a balance
	// guard: the update only applies while the stored version matches and the
	// used amount stays within the deposit. Returns ErrConcurrencyConflict
	// when the row was changed by another process.
	SaveWithLock(ctx context.Context, advance *Advance) error

	// SumUsedByAdmission sums the consumed amounts across the admission's advances
	SumUsedByAdmission(ctx context.Context, admissionID uuid.UUID) (decimal.Decimal, error)

	// SumAvailableByAdmission sums the remaining balances across the admission's advances
	SumAvailableByAdmission(ctx context.Context, admissionID uuid.UUID) (decimal.Decimal, error)

	// GenerateReceiptNumber generates the next advance receipt number
	GenerateReceiptNumber(ctx context.Context) (string, error)
}

// PaymentTransactionRepository defines the persistence interface for the
// payment ledger. Transactions are insert-only.
type PaymentTransactionRepository interface {
	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentTransaction, error)

	// FindByAdmission finds all transactions for an admission, newest first
	FindByAdmission(ctx context.Context, admissionID uuid.UUID) ([]PaymentTransaction, error)

	// Save inserts a new transaction
	Save(ctx context.Context, txn *PaymentTransaction) error

	// SumByAdmission sums transaction amounts for an admission, optionally
	// excluding one method
	SumByAdmission(ctx context.Context, admissionID uuid.UUID, excludeMethod PaymentMethod) (decimal.Decimal, error)

	// GenerateTransactionNumber generates the next transaction number
	GenerateTransactionNumber(ctx context.Context) (string, error)
}
