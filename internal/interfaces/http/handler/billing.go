package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/hms/backend/internal/application/billing"
	"github.com/shopspring/decimal"
)

// BillingHandler handles charge line and billing summary API endpoints
type BillingHandler struct {
	BaseHandler
	billingService *billingapp.BillingService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService *billingapp.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// SetItemDiscountRequest represents a discount applied to one charge line
type SetItemDiscountRequest struct {
	Discount decimal.Decimal `json:"discount" binding:"required"`
}

// CancelBillItemRequest carries the mandatory cancellation reason
type CancelBillItemRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Summary godoc
// @ID           getBillingSummary
// @Summary      Compute the billing summary of a stay
// @Description  Derives category subtotals, advances, payments and the net balance of an admission
// @Tags         billing
// @Produce      json
// @Param        id path string true "Admission ID" format(uuid)
// @Success      200 {object} APIResponse[billing.BillingSummary]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admissions/{id}/billing/summary [get]
func (h *BillingHandler) Summary(c *gin.Context) {
	admissionID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid admission ID format")
		return
	}

	summary, err := h.billingService.ComputeSummary(c.Request.Context(), admissionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// PostItem godoc
// @ID           postBillItem
// @Summary      Post a charge line
// @Description  Add a charge to an open stay; source-settled charges are posted fully paid
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        request body billingapp.PostBillItemRequest true "Charge line request"
// @Success      201 {object} APIResponse[billingapp.BillItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/items [post]
func (h *BillingHandler) PostItem(c *gin.Context) {
	var req billingapp.PostBillItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.billingService.PostBillItem(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetItem godoc
// @ID           getBillItemById
// @Summary      Get a charge line by ID
// @Tags         billing
// @Produce      json
// @Param        id path string true "Bill item ID" format(uuid)
// @Success      200 {object} APIResponse[billingapp.BillItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/items/{id} [get]
func (h *BillingHandler) GetItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid bill item ID format")
		return
	}

	resp, err := h.billingService.GetBillItem(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListItems godoc
// @ID           listBillItems
// @Summary      List the charge lines of a stay
// @Tags         billing
// @Produce      json
// @Param        id path string true "Admission ID" format(uuid)
// @Success      200 {object} APIResponse[[]billingapp.BillItemResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admissions/{id}/billing/items [get]
func (h *BillingHandler) ListItems(c *gin.Context) {
	admissionID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid admission ID format")
		return
	}

	items, err := h.billingService.ListBillItems(c.Request.Context(), admissionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// UpdateItem godoc
// @ID           updateBillItem
// @Summary      Edit quantity and unit price of a charge line
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill item ID" format(uuid)
// @Param        request body billingapp.UpdateBillItemRequest true "Charge edit request"
// @Success      200 {object} APIResponse[billingapp.BillItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/items/{id} [put]
func (h *BillingHandler) UpdateItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid bill item ID format")
		return
	}

	var req billingapp.UpdateBillItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.billingService.UpdateBillItem(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// SetItemDiscount godoc
// @ID           setBillItemDiscount
// @Summary      Set a discount on a charge line
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill item ID" format(uuid)
// @Param        request body SetItemDiscountRequest true "Discount request"
// @Success      200 {object} APIResponse[billingapp.BillItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/items/{id}/discount [put]
func (h *BillingHandler) SetItemDiscount(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid bill item ID format")
		return
	}

	var req SetItemDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.billingService.SetBillItemDiscount(c.Request.Context(), id, req.Discount)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// CancelItem godoc
// @ID           cancelBillItem
// @Summary      Cancel a charge line
// @Description  Void an unpaid charge with a mandatory reason
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill item ID" format(uuid)
// @Param        request body CancelBillItemRequest true "Cancellation request"
// @Success      200 {object} APIResponse[billingapp.BillItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/items/{id}/cancel [post]
func (h *BillingHandler) CancelItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid bill item ID format")
		return
	}

	var req CancelBillItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.billingService.CancelBillItem(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}
