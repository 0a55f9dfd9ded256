package billing

import (
	"context"
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

// BillingService provides application-level billing aggregation and bill
// item operations
type BillingService struct {
	admissionRepo  patient.AdmissionRepository
	itemRepo       billing.BillItemRepository
	advanceRepo    billing.AdvanceRepository
	txnRepo        billing.PaymentTransactionRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewBillingService creates a new BillingService
func NewBillingService(
	admissionRepo patient.AdmissionRepository,
	itemRepo billing.BillItemRepository,
	advanceRepo billing.AdvanceRepository,
	txnRepo billing.PaymentTransactionRepository,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		admissionRepo: admissionRepo,
		itemRepo:      itemRepo,
		advanceRepo:   advanceRepo,
		txnRepo:       txnRepo,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *BillingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes the pending events of a bill item
func (s *BillingService) publishDomainEvents(ctx context.Context, item *billing.BillItem) {
	if s.eventPublisher == nil {
		return
	}
	events := item.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Handler errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
	item.ClearDomainEvents()
}

// BillItemResponse represents a bill item in API responses
type BillItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	AdmissionID     uuid.UUID       `json:"admission_id"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	GrossAmount     decimal.Decimal `json:"gross_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	PendingAmount   decimal.Decimal `json:"pending_amount"`
	Status          string          `json:"status"`
	SettledAtSource bool            `json:"settled_at_source"`
	ServiceDate     time.Time       `json:"service_date"`
	Remark          string          `json:"remark,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

func toBillItemResponse(item *billing.BillItem) *BillItemResponse {
	return &BillItemResponse{
		ID:              item.ID,
		AdmissionID:     item.AdmissionID,
		Category:        string(item.Category),
		Description:     item.Description,
		Quantity:        item.Quantity,
		Unit:            item.Unit,
		UnitPrice:       item.UnitPrice,
		GrossAmount:     item.GrossAmount,
		DiscountAmount:  item.DiscountAmount,
		NetAmount:       item.NetAmount,
		PaidAmount:      item.PaidAmount,
		PendingAmount:   item.PendingAmount,
		Status:          string(item.Status),
		SettledAtSource: item.SettledAtSource,
		ServiceDate:     item.ServiceDate,
		Remark:          item.Remark,
		PaidAt:          item.PaidAt,
		CancelledAt:     item.CancelledAt,
		CancelReason:    item.CancelReason,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
		Version:         item.Version,
	}
}

// ComputeSummary derives the complete billing position of a stay. A failed
// read of one charge category degrades that category to a zero subtotal and
// flags it on the summary instead of failing the whole request.
func (s *BillingService) ComputeSummary(ctx context.Context, admissionID uuid.UUID) (*billing.BillingSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "compute_summary")
	defer span.End()
	telemetry.SetAttribute(span, "admission_id", admissionID.String())

	admission, err := s.admissionRepo.FindByID(ctx, admissionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load admission: %w", err)
	}
	if admission == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Admission not found")
	}

	input, err := s.buildSummaryInput(ctx, admission)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	summary := billing.ComputeSummary(*input)
	if summary.IsDegraded() {
		telemetry.SetAttribute(span, "degraded_categories", fmt.Sprintf("%v", summary.DegradedCategories))
	}
	return summary, nil
}

// buildSummaryInput loads the summary snapshot: admission scalars, bill item
// lines read per category, the consumed advance total and the ledger.
func (s *BillingService) buildSummaryInput(ctx context.Context, admission *patient.Admission) (*billing.SummaryInput, error) {
	input := &billing.SummaryInput{
		AdmissionID:     admission.ID,
		BedDailyRate:    admission.BedDailyRate,
		ConsultationFee: admission.ConsultationFee,
		StayDays:        admission.StayDays(),
		Discount:        admission.Discount,
		GeneratedAt:     time.Now(),
	}

	for _, category := range billing.AllCategories() {
		if category.IsStayDerived() {
			continue
		}
		items, err := s.itemRepo.FindByAdmissionAndCategory(ctx, admission.ID, category)
		if err != nil {
			s.logger.Warn("charge category read failed, degrading to zero",
				zap.String("admission_id", admission.ID.String()),
				zap.String("category", string(category)),
				zap.Error(err))
			input.FailedCategories = append(input.FailedCategories, category)
			continue
		}
		for _, item := range items {
			input.Lines = append(input.Lines, billing.LineSnapshot{
				Category:        item.Category,
				NetAmount:       item.NetAmount,
				PaidAmount:      item.PaidAmount,
				Cancelled:       item.IsCancelled(),
				SettledAtSource: item.SettledAtSource,
			})
		}
	}

	advanceUsed, err := s.advanceRepo.SumUsedByAdmission(ctx, admission.ID)
	if err != nil {
		return nil, shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to read advance balances")
	}
	input.AdvanceApplied = advanceUsed

	transactions, err := s.txnRepo.FindByAdmission(ctx, admission.ID)
	if err != nil {
		return nil, shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to read the payment ledger")
	}
	for _, txn := range transactions {
		input.Payments = append(input.Payments, billing.PaymentSnapshot{
			Method: txn.Method,
			Amount: txn.Amount,
		})
	}

	return input, nil
}

// PostBillItemRequest represents a request to post a charge line
type PostBillItemRequest struct {
	AdmissionID     uuid.UUID       `json:"admission_id" binding:"required"`
	Category        string          `json:"category" binding:"required"`
	Description     string          `json:"description" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price" binding:"required"`
	Discount        decimal.Decimal `json:"discount"`
	ServiceDate     *time.Time      `json:"service_date"`
	SettledAtSource bool            `json:"settled_at_source"`
	Remark          string          `json:"remark"`
}

// PostBillItem creates a charge line on a stay. Charges settled at the point
// of service (e.g. pharmacy counter sales) are posted fully paid.
func (s *BillingService) PostBillItem(ctx context.Context, req PostBillItemRequest) (*BillItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "post_bill_item")
	defer span.End()

	admission, err := s.admissionRepo.FindByID(ctx, req.AdmissionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load admission: %w", err)
	}
	if admission == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Admission not found")
	}

	category := billing.ChargeCategory(req.Category)
	if category.IsStayDerived() {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			"Bed and consultation charges derive from the admission and cannot be posted directly")
	}

	unit := req.Unit
	if unit == "" {
		unit = "UNIT"
	}
	quantity, err := valueobject.NewQuantity(req.Quantity, unit)
	if err != nil {
		return nil, err
	}

	serviceDate := time.Now()
	if req.ServiceDate != nil {
		serviceDate = *req.ServiceDate
	}

	item, err := billing.NewBillItem(
		req.AdmissionID,
		category,
		req.Description,
		quantity,
		valueobject.NewMoneyINR(req.UnitPrice),
		valueobject.NewMoneyINR(req.Discount),
		serviceDate,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.Remark != "" {
		item.SetRemark(req.Remark)
	}
	if req.SettledAtSource {
		if err := item.MarkSettledAtSource(); err != nil {
			return nil, err
		}
	}

	if err := s.itemRepo.Save(ctx, item); err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewDomainError("PERSISTENCE_FAILURE", "Failed to save bill item")
	}
	s.publishDomainEvents(ctx, item)

	s.logger.Info("bill item posted",
		zap.String("admission_id", req.AdmissionID.String()),
		zap.String("bill_item_id", item.ID.String()),
		zap.String("category", string(category)),
		zap.String("net_amount", item.NetAmount.String()))

	return toBillItemResponse(item), nil
}

// GetBillItem gets one bill item
func (s *BillingService) GetBillItem(ctx context.Context, id uuid.UUID) (*BillItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Bill item not found")
	}
	return toBillItemResponse(item), nil
}

// ListBillItems lists all bill items on a stay, ordered by service date
func (s *BillingService) ListBillItems(ctx context.Context, admissionID uuid.UUID) ([]BillItemResponse, error) {
	admission, err := s.admissionRepo.FindByID(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	if admission == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Admission not found")
	}

	// The billable day count moves daily on an open stay, so refresh the
	// derived bed and consultation lines before listing. A failed refresh
	// degrades to the stored lines.
	if err := s.syncStayCharges(ctx, admission); err != nil {
		s.logger.Warn("stay charge sync failed, listing stored lines",
			zap.String("admission_id", admissionID.String()),
			zap.Error(err))
	}

	items, err := s.itemRepo.FindByAdmission(ctx, admissionID)
	if err != nil {
		return nil, err
	}

	responses := make([]BillItemResponse, len(items))
	for i := range items {
		responses[i] = *toBillItemResponse(&items[i])
	}
	return responses, nil
}

// UpdateBillItemRequest represents an edit of a charge line
type UpdateBillItemRequest struct {
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// UpdateBillItem edits the quantity and unit price of an unsettled charge
// line; all derived amounts are recomputed.
func (s *BillingService) UpdateBillItem(ctx context.Context, id uuid.UUID, req UpdateBillItemRequest) (*BillItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "update_bill_item")
	defer span.End()

	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Bill item not found")
	}
	if item.Category.IsStayDerived() {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			"Bed and consultation charges are managed from the admission rates")
	}

	unit := req.Unit
	if unit == "" {
		unit = item.Unit
	}
	quantity, err := valueobject.NewQuantity(req.Quantity, unit)
	if err != nil {
		return nil, err
	}

	if err := item.UpdateQuantityAndRate(quantity, valueobject.NewMoneyINR(req.UnitPrice)); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return toBillItemResponse(item), nil
}

// SetBillItemDiscount replaces the flat discount on a charge line
func (s *BillingService) SetBillItemDiscount(ctx context.Context, id uuid.UUID, discount decimal.Decimal) (*BillItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Bill item not found")
	}
	if item.Category.IsStayDerived() {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			"Bed and consultation charges are managed from the admission rates")
	}

	if err := item.SetDiscount(valueobject.NewMoneyINR(discount)); err != nil {
		return nil, err
	}
	if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
		return nil, err
	}
	return toBillItemResponse(item), nil
}

// CancelBillItem administratively voids a charge line. Money already applied
// stays on record; the pending balance drops out of aggregation.
func (s *BillingService) CancelBillItem(ctx context.Context, id uuid.UUID, reason string) (*BillItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "cancel_bill_item")
	defer span.End()

	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Bill item not found")
	}
	if item.Category.IsStayDerived() {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			"Bed and consultation charges are managed from the admission rates")
	}

	if err := item.Cancel(reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishDomainEvents(ctx, item)

	s.logger.Info("bill item cancelled",
		zap.String("bill_item_id", item.ID.String()),
		zap.String("reason", reason))

	return toBillItemResponse(item), nil
}
