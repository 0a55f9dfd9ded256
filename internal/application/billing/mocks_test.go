package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockBillItemRepository struct {
	mock.Mock
}

func (m *MockBillItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.BillItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.BillItem), args.Error(1)
}

func (m *MockBillItemRepository) FindByAdmission(ctx context.Context, admissionID uuid.UUID) ([]billing.BillItem, error) {
	args := m.Called(ctx, admissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.BillItem), args.Error(1)
}

func (m *MockBillItemRepository) FindByAdmissionAndCategory(ctx context.Context, admissionID uuid.UUID, category billing.ChargeCategory) ([]billing.BillItem, error) {
	args := m.Called(ctx, admissionID, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.BillItem), args.Error(1)
}

func (m *MockBillItemRepository) FindOutstandingByAdmission(ctx context.Context, admissionID uuid.UUID) ([]billing.BillItem, error) {
	args := m.Called(ctx, admissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.BillItem), args.Error(1)
}

func (m *MockBillItemRepository) Save(ctx context.Context, item *billing.BillItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockBillItemRepository) SaveWithLock(ctx context.Context, item *billing.BillItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockBillItemRepository) SumPendingByAdmission(ctx context.Context, admissionID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, admissionID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockAdvanceRepository struct {
	mock.Mock
}

func (m *MockAdvanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Advance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Advance), args.Error(1)
}

func (m *MockAdvanceRepository) FindByAdmission(ctx context.Context, admissionID uuid.UUID) ([]billing.Advance, error) {
	args := m.Called(ctx, admissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Advance), args.Error(1)
}

func (m *MockAdvanceRepository) FindActiveByAdmission(ctx context.Context, admissionID uuid.UUID) ([]billing.Advance, error) {
	args := m.Called(ctx, admissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Advance), args.Error(1)
}

func (m *MockAdvanceRepository) Save(ctx context.Context, advance *billing.Advance) error {
	args := m.Called(ctx, advance)
	return args.Error(0)
}

func (m *MockAdvanceRepository) SaveWithLock(ctx context.Context, advance *billing.Advance) error {
	args := m.Called(ctx, advance)
	return args.Error(0)
}

func (m *MockAdvanceRepository) SumUsedByAdmission(ctx context.Context, admissionID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, admissionID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAdvanceRepository) SumAvailableByAdmission(ctx context.Context, admissionID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, admissionID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAdvanceRepository) GenerateReceiptNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockPaymentTransactionRepository struct {
	mock.Mock
}

func (m *MockPaymentTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentTransactionRepository) FindByAdmission(ctx context.Context, admissionID uuid.UUID) ([]billing.PaymentTransaction, error) {
	args := m.Called(ctx, admissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentTransactionRepository) Save(ctx context.Context, txn *billing.PaymentTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockPaymentTransactionRepository) SumByAdmission(ctx context.Context, admissionID uuid.UUID, excludeMethod billing.PaymentMethod) (decimal.Decimal, error) {
	args := m.Called(ctx, admissionID, excludeMethod)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentTransactionRepository) GenerateTransactionNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockAdmissionRepository struct {
	mock.Mock
}

func (m *MockAdmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Admission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.Admission), args.Error(1)
}

func (m *MockAdmissionRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]patient.Admission, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]patient.Admission), args.Error(1)
}

func (m *MockAdmissionRepository) FindOpenByPatient(ctx context.Context, patientID uuid.UUID) (*patient.Admission, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.Admission), args.Error(1)
}

func (m *MockAdmissionRepository) FindAdmitted(ctx context.Context, filter shared.Filter) (*shared.Paginated[patient.Admission], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[patient.Admission]), args.Error(1)
}

func (m *MockAdmissionRepository) Save(ctx context.Context, admission *patient.Admission) error {
	args := m.Called(ctx, admission)
	return args.Error(0)
}

func (m *MockAdmissionRepository) SaveWithLock(ctx context.Context, admission *patient.Admission) error {
	args := m.Called(ctx, admission)
	return args.Error(0)
}

// =============================================================================
// Transaction manager and idempotency fakes
// =============================================================================

// passthroughTxManager runs the function with the same context, standing in
// for a real database transaction in service tests
type passthroughTxManager struct{}

func (passthroughTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memoryIdempotency is a map-backed idempotency store for tests
type memoryIdempotency struct {
	seen map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{seen: make(map[string]bool)}
}

func (s *memoryIdempotency) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *memoryIdempotency) IsProcessed(ctx context.Context, key string) (bool, error) {
	return s.seen[key], nil
}

func (s *memoryIdempotency) Close() error { return nil }
