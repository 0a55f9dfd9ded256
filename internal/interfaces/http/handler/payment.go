package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/hms/backend/internal/application/billing"
)

// IdempotencyKeyHeader lets clients pass the submission key out of band;
// a key in the request body wins when both are present.
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler handles payment and advance deposit API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *billingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Allocate godoc
// @ID           allocatePayment
// @Summary      Allocate a payment across selected charge lines
// @Description  Records one payment spread over the caller's selections; the advance portion draws from deposits oldest first
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Duplicate submission guard"
// @Param        request body billingapp.AllocatePaymentRequest true "Payment allocation request"
// @Success      200 {object} APIResponse[billingapp.PaymentResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/allocate [post]
func (h *PaymentHandler) Allocate(c *gin.Context) {
	var req billingapp.AllocatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	}

	result, err := h.paymentService.AllocatePayment(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// PaySingle godoc
// @ID           paySingleBill
// @Summary      Pay a single charge line
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Duplicate submission guard"
// @Param        request body billingapp.PaySingleBillRequest true "Single bill payment request"
// @Success      200 {object} APIResponse[billingapp.PaymentResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/pay [post]
func (h *PaymentHandler) PaySingle(c *gin.Context) {
	var req billingapp.PaySingleBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	}

	result, err := h.paymentService.PaySingleBill(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// RecordAdvance godoc
// @ID           recordAdvance
// @Summary      Record an advance deposit
// @Description  Collects a deposit against a stay and assigns a sequential receipt number
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body billingapp.RecordAdvanceRequest true "Advance deposit request"
// @Success      201 {object} APIResponse[billingapp.AdvanceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/advances [post]
func (h *PaymentHandler) RecordAdvance(c *gin.Context) {
	var req billingapp.RecordAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.paymentService.RecordAdvance(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// ListAdvances godoc
// @ID           listAdvances
// @Summary      List the advance deposits of a stay
// @Tags         payments
// @Produce      json
// @Param        id path string true "Admission ID" format(uuid)
// @Success      200 {object} APIResponse[[]billingapp.AdvanceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admissions/{id}/advances [get]
func (h *PaymentHandler) ListAdvances(c *gin.Context) {
	admissionID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid admission ID format")
		return
	}

	advances, err := h.paymentService.ListAdvances(c.Request.Context(), admissionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, advances)
}

// ListTransactions godoc
// @ID           listTransactions
// @Summary      List the payment ledger of a stay
// @Tags         payments
// @Produce      json
// @Param        id path string true "Admission ID" format(uuid)
// @Success      200 {object} APIResponse[[]billingapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admissions/{id}/transactions [get]
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	admissionID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid admission ID format")
		return
	}

	transactions, err := h.paymentService.ListTransactions(c.Request.Context(), admissionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, transactions)
}
