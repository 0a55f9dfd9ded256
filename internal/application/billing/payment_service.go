package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
	"github.com/hms/backend/internal/infrastructure/telemetry"
)

// PaymentService executes payment allocation against a stay: it plans the
// split with the allocation domain service, then applies draws, item updates
// and ledger inserts in one database transaction.
type PaymentService struct {
	admissionRepo  patient.AdmissionRepository
	itemRepo       billing.BillItemRepository
	advanceRepo    billing.AdvanceRepository
	txnRepo        billing.PaymentTransactionRepository
	allocationSvc  *billing.AllocationService
	billingSvc     *BillingService
	txManager      shared.TransactionManager
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	admissionRepo patient.AdmissionRepository,
	itemRepo billing.BillItemRepository,
	advanceRepo billing.AdvanceRepository,
	txnRepo billing.PaymentTransactionRepository,
	billingSvc *BillingService,
	txManager shared.TransactionManager,
	idempotency shared.IdempotencyStore,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		admissionRepo:  admissionRepo,
		itemRepo:       itemRepo,
		advanceRepo:    advanceRepo,
		txnRepo:        txnRepo,
		allocationSvc:  billing.NewAllocationService(),
		billingSvc:     billingSvc,
		txManager:      txManager,
		idempotency:    idempotency,
		idempotencyTTL: defaultIdempotencyTTL,
		logger:         logger,
	}
}

// SetIdempotencyTTL overrides how long a submission key blocks duplicates.
// A non-positive ttl keeps the default.
func (s *PaymentService) SetIdempotencyTTL(ttl time.Duration) {
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes the pending events of the given aggregates
func (s *PaymentService) publishDomainEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, agg := range aggregates {
		events := agg.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		// Handler errors are logged by the event bus, not propagated
		_ = s.eventPublisher.Publish(ctx, events...)
		agg.ClearDomainEvents()
	}
}

// PaymentSelectionRequest is one caller-chosen payment target
type PaymentSelectionRequest struct {
	BillItemID uuid.UUID       `json:"bill_item_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// AllocatePaymentRequest represents a payment spread across selected bill items
type AllocatePaymentRequest struct {
	AdmissionID    uuid.UUID                 `json:"admission_id" binding:"required"`
	Selections     []PaymentSelectionRequest `json:"selections" binding:"required"`
	TotalAmount    decimal.Decimal           `json:"total_amount" binding:"required"`
	AdvanceAmount  decimal.Decimal           `json:"advance_amount"`
	Method         string                    `json:"method" binding:"required"`
	Reference      string                    `json:"reference"`
	Remark         string                    `json:"remark"`
	IdempotencyKey string                    `json:"idempotency_key"`
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID                uuid.UUID                  `json:"id"`
	AdmissionID       uuid.UUID                  `json:"admission_id"`
	TransactionNumber string                     `json:"transaction_number"`
	Method            string                     `json:"method"`
	Amount            decimal.Decimal            `json:"amount"`
	Reference         string                     `json:"reference,omitempty"`
	Remark            string                     `json:"remark,omitempty"`
	ReceivedAt        time.Time                  `json:"received_at"`
	Allocations       billing.PaymentAllocations `json:"allocations"`
}

func toTransactionResponse(txn *billing.PaymentTransaction) TransactionResponse {
	return TransactionResponse{
		ID:                txn.ID,
		AdmissionID:       txn.AdmissionID,
		TransactionNumber: txn.TransactionNumber,
		Method:            string(txn.Method),
		Amount:            txn.Amount,
		Reference:         txn.Reference,
		Remark:            txn.Remark,
		ReceivedAt:        txn.ReceivedAt,
		Allocations:       txn.Allocations,
	}
}

// PaymentResult is the outcome of a payment: the recorded transactions and a
// freshly recomputed billing summary
type PaymentResult struct {
	Transactions []TransactionResponse   `json:"transactions"`
	Summary      *billing.BillingSummary `json:"summary"`
}

// defaultIdempotencyTTL bounds how long a submission key blocks duplicates
const defaultIdempotencyTTL = 24 * time.Hour

// AllocatePayment validates and executes a payment across the selected bill
// items. The advance portion is split proportionally per selection and
// consumed from the stay's deposits oldest first; the rest is recorded under
// the caller's payment method. All writes happen in one database transaction,
// so a failure rolls everything back and the client retries the whole
// payment.
func (s *PaymentService) AllocatePayment(ctx context.Context, req AllocatePaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "allocate_payment")
	defer span.End()

	telemetry.SetAttributes(span,
		"admission_id", req.AdmissionID.String(),
		"total_amount", req.TotalAmount.String(),
		"advance_amount", req.AdvanceAmount.String(),
		"method", req.Method,
	)

	method := billing.PaymentMethod(req.Method)
	if !method.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown payment method %q", req.Method))
	}
	if method == billing.PaymentMethodAdvance {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			"ADVANCE is reserved for the ledger; request the advance portion via advance_amount")
	}

	if req.IdempotencyKey != "" {
		processed, err := s.idempotency.IsProcessed(ctx, req.IdempotencyKey)
		if err != nil {
			s.logger.Warn("idempotency check failed, continuing", zap.Error(err))
		} else if processed {
			return nil, shared.NewDomainError("DUPLICATE_SUBMISSION", "This payment was already submitted")
		}
	}

	admission, err := s.admissionRepo.FindByID(ctx, req.AdmissionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load admission: %w", err)
	}
	if admission == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Admission not found")
	}

	items, selections, err := s.loadSelections(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	advances, err := s.advanceRepo.FindActiveByAdmission(ctx, req.AdmissionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to read advance balances")
	}
	advancePtrs := make([]*billing.Advance, len(advances))
	for i := range advances {
		advancePtrs[i] = &advances[i]
	}

	plan, err := s.allocationSvc.PlanAllocation(
		items,
		advancePtrs,
		selections,
		valueobject.NewMoneyINR(req.TotalAmount),
		valueobject.NewMoneyINR(req.AdvanceAmount),
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var transactions []*billing.PaymentTransaction
	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		transactions, err = s.executePlan(txCtx, req, method, plan)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if req.IdempotencyKey != "" {
		if _, err := s.idempotency.MarkProcessed(ctx, req.IdempotencyKey, s.idempotencyTTL); err != nil {
			s.logger.Warn("failed to record idempotency key", zap.Error(err))
		}
	}

	summary, err := s.billingSvc.ComputeSummary(ctx, req.AdmissionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	responses := make([]TransactionResponse, len(transactions))
	for i, txn := range transactions {
		responses[i] = toTransactionResponse(txn)
	}

	telemetry.AddEvent(span, "payment_allocated",
		"transaction_count", fmt.Sprintf("%d", len(transactions)),
		"pending_after", summary.PendingAmount.String(),
	)
	s.logger.Info("payment allocated",
		zap.String("admission_id", req.AdmissionID.String()),
		zap.String("total_amount", req.TotalAmount.String()),
		zap.String("advance_amount", plan.AdvanceTotal.String()),
		zap.Int("transactions", len(transactions)))

	return &PaymentResult{Transactions: responses, Summary: summary}, nil
}

// loadSelections resolves the selection targets and verifies each one
// belongs to the admission being paid
func (s *PaymentService) loadSelections(ctx context.Context, req AllocatePaymentRequest) ([]*billing.BillItem, []billing.PaymentSelection, error) {
	if len(req.Selections) == 0 {
		return nil, nil, shared.NewDomainError("VALIDATION_ERROR", "At least one payment selection is required")
	}

	itemsByID := make(map[uuid.UUID]*billing.BillItem, len(req.Selections))
	items := make([]*billing.BillItem, 0, len(req.Selections))
	selections := make([]billing.PaymentSelection, len(req.Selections))

	for i, sel := range req.Selections {
		selections[i] = billing.PaymentSelection{BillItemID: sel.BillItemID, Amount: sel.Amount}
		if _, seen := itemsByID[sel.BillItemID]; seen {
			continue
		}
		item, err := s.itemRepo.FindByID(ctx, sel.BillItemID)
		if err != nil {
			return nil, nil, err
		}
		if item == nil || item.AdmissionID != req.AdmissionID {
			return nil, nil, shared.NewDomainError("NOT_FOUND",
				fmt.Sprintf("Bill item %s not found on this admission", sel.BillItemID))
		}
		itemsByID[sel.BillItemID] = item
		items = append(items, item)
	}

	return items, selections, nil
}

// executePlan applies a validated allocation plan: advance draws with
// guarded writes, ledger inserts, and per-item payment application. Runs
// inside the caller's database transaction.
func (s *PaymentService) executePlan(
	ctx context.Context,
	req AllocatePaymentRequest,
	method billing.PaymentMethod,
	plan *billing.AllocationPlan,
) ([]*billing.PaymentTransaction, error) {
	// Re-read each drawn advance inside the transaction; the domain Draw
	// re-checks the live balance and the guarded save catches lost races.
	for _, draw := range plan.Draws {
		advance, err := s.advanceRepo.FindByID(ctx, draw.AdvanceID)
		if err != nil {
			return nil, err
		}
		if advance == nil {
			return nil, shared.NewDomainError("INSUFFICIENT_ADVANCE", "Advance deposit no longer available")
		}
		if err := advance.Draw(valueobject.NewMoneyINR(draw.Amount)); err != nil {
			return nil, err
		}
		if err := s.advanceRepo.SaveWithLock(ctx, advance); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				return nil, shared.NewDomainError("CONCURRENCY_CONFLICT",
					"Advance balance changed during payment, retry the payment")
			}
			return nil, err
		}
		s.publishDomainEvents(ctx, advance)
	}

	var transactions []*billing.PaymentTransaction

	var remainderTxnID, advanceTxnID uuid.UUID
	if plan.RemainderTotal.IsPositive() {
		number, err := s.txnRepo.GenerateTransactionNumber(ctx)
		if err != nil {
			return nil, err
		}
		txn, err := billing.NewPaymentTransaction(
			plan.AdmissionID,
			number,
			method,
			valueobject.NewMoneyINR(plan.RemainderTotal),
			req.Reference,
			req.Remark,
			plan.RemainderAllocations(),
		)
		if err != nil {
			return nil, err
		}
		if err := s.txnRepo.Save(ctx, txn); err != nil {
			return nil, err
		}
		remainderTxnID = txn.ID
		transactions = append(transactions, txn)
	}

	if plan.AdvanceTotal.IsPositive() {
		number, err := s.txnRepo.GenerateTransactionNumber(ctx)
		if err != nil {
			return nil, err
		}
		txn, err := billing.NewPaymentTransaction(
			plan.AdmissionID,
			number,
			billing.PaymentMethodAdvance,
			valueobject.NewMoneyINR(plan.AdvanceTotal),
			"",
			req.Remark,
			plan.AdvanceAllocations(),
		)
		if err != nil {
			return nil, err
		}
		if err := s.txnRepo.Save(ctx, txn); err != nil {
			return nil, err
		}
		advanceTxnID = txn.ID
		transactions = append(transactions, txn)
	}

	// Apply the money item by item. Items are re-read inside the
	// transaction so concurrent edits surface as lock conflicts.
	applied := make(map[uuid.UUID]*billing.BillItem)
	for _, split := range plan.Splits {
		item, ok := applied[split.BillItemID]
		if !ok {
			var err error
			item, err = s.itemRepo.FindByID(ctx, split.BillItemID)
			if err != nil {
				return nil, err
			}
			if item == nil {
				return nil, shared.NewDomainError("NOT_FOUND", "Bill item disappeared during payment")
			}
			applied[split.BillItemID] = item
		}
		if split.AdvancePortion.IsPositive() {
			if err := item.ApplyPayment(valueobject.NewMoneyINR(split.AdvancePortion), advanceTxnID); err != nil {
				return nil, err
			}
		}
		if split.RemainderPortion.IsPositive() {
			if err := item.ApplyPayment(valueobject.NewMoneyINR(split.RemainderPortion), remainderTxnID); err != nil {
				return nil, err
			}
		}
	}
	for _, item := range applied {
		if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				return nil, shared.NewDomainError("CONCURRENCY_CONFLICT",
					"Bill item changed during payment, retry the payment")
			}
			return nil, err
		}
		s.publishDomainEvents(ctx, item)
	}
	for _, txn := range transactions {
		s.publishDomainEvents(ctx, txn)
	}

	return transactions, nil
}

// PaySingleBillRequest represents a payment against one bill item
type PaySingleBillRequest struct {
	AdmissionID    uuid.UUID       `json:"admission_id" binding:"required"`
	BillItemID     uuid.UUID       `json:"bill_item_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	AdvanceAmount  decimal.Decimal `json:"advance_amount"`
	Method         string          `json:"method" binding:"required"`
	Reference      string          `json:"reference"`
	Remark         string          `json:"remark"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// PaySingleBill settles money against one bill item. Same guards as
// AllocatePayment with a single selection.
func (s *PaymentService) PaySingleBill(ctx context.Context, req PaySingleBillRequest) (*PaymentResult, error) {
	return s.AllocatePayment(ctx, AllocatePaymentRequest{
		AdmissionID: req.AdmissionID,
		Selections: []PaymentSelectionRequest{
			{BillItemID: req.BillItemID, Amount: req.Amount},
		},
		TotalAmount:    req.Amount,
		AdvanceAmount:  req.AdvanceAmount,
		Method:         req.Method,
		Reference:      req.Reference,
		Remark:         req.Remark,
		IdempotencyKey: req.IdempotencyKey,
	})
}

// RecordAdvanceRequest represents a deposit collected for a stay
type RecordAdvanceRequest struct {
	AdmissionID uuid.UUID       `json:"admission_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Method      string          `json:"method" binding:"required"`
	Remark      string          `json:"remark"`
}

// AdvanceResponse represents an advance deposit in API responses
type AdvanceResponse struct {
	ID              uuid.UUID       `json:"id"`
	AdmissionID     uuid.UUID       `json:"admission_id"`
	ReceiptNumber   string          `json:"receipt_number"`
	Amount          decimal.Decimal `json:"amount"`
	UsedAmount      decimal.Decimal `json:"used_amount"`
	AvailableAmount decimal.Decimal `json:"available_amount"`
	Method          string          `json:"method"`
	Status          string          `json:"status"`
	Remark          string          `json:"remark,omitempty"`
	ReceivedAt      time.Time       `json:"received_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toAdvanceResponse(adv *billing.Advance) *AdvanceResponse {
	return &AdvanceResponse{
		ID:              adv.ID,
		AdmissionID:     adv.AdmissionID,
		ReceiptNumber:   adv.ReceiptNumber,
		Amount:          adv.Amount,
		UsedAmount:      adv.UsedAmount,
		AvailableAmount: adv.AvailableAmount(),
		Method:          string(adv.Method),
		Status:          string(adv.Status),
		Remark:          adv.Remark,
		ReceivedAt:      adv.ReceivedAt,
		CreatedAt:       adv.CreatedAt,
	}
}

// RecordAdvance collects a deposit against an open stay
func (s *PaymentService) RecordAdvance(ctx context.Context, req RecordAdvanceRequest) (*AdvanceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record_advance")
	defer span.End()

	admission, err := s.admissionRepo.FindByID(ctx, req.AdmissionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load admission: %w", err)
	}
	if admission == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Admission not found")
	}
	if !admission.IsAdmitted() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot collect a deposit on a discharged stay")
	}

	receiptNumber, err := s.advanceRepo.GenerateReceiptNumber(ctx)
	if err != nil {
		return nil, err
	}

	advance, err := billing.NewAdvance(
		req.AdmissionID,
		receiptNumber,
		valueobject.NewMoneyINR(req.Amount),
		billing.PaymentMethod(req.Method),
		req.Remark,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.advanceRepo.Save(ctx, advance); err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to save advance")
	}
	s.publishDomainEvents(ctx, advance)

	s.logger.Info("advance recorded",
		zap.String("admission_id", req.AdmissionID.String()),
		zap.String("receipt_number", receiptNumber),
		zap.String("amount", advance.Amount.String()))

	return toAdvanceResponse(advance), nil
}

// ListAdvances lists the deposits collected for a stay, oldest first
func (s *PaymentService) ListAdvances(ctx context.Context, admissionID uuid.UUID) ([]AdvanceResponse, error) {
	advances, err := s.advanceRepo.FindByAdmission(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	responses := make([]AdvanceResponse, len(advances))
	for i := range advances {
		responses[i] = *toAdvanceResponse(&advances[i])
	}
	return responses, nil
}

// ListTransactions lists the payment ledger for a stay, newest first
func (s *PaymentService) ListTransactions(ctx context.Context, admissionID uuid.UUID) ([]TransactionResponse, error) {
	transactions, err := s.txnRepo.FindByAdmission(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	responses := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		responses[i] = toTransactionResponse(&transactions[i])
	}
	return responses, nil
}
