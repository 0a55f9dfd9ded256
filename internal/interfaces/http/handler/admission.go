package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	patientapp "github.com/hms/backend/internal/application/patient"
	"github.com/shopspring/decimal"
)

// AdmissionHandler handles inpatient stay API endpoints
type AdmissionHandler struct {
	BaseHandler
	admissionService *patientapp.AdmissionService
}

// NewAdmissionHandler creates a new AdmissionHandler
func NewAdmissionHandler(admissionService *patientapp.AdmissionService) *AdmissionHandler {
	return &AdmissionHandler{
		admissionService: admissionService,
	}
}

// SetAdmissionDiscountRequest represents a whole-stay discount
type SetAdmissionDiscountRequest struct {
	Discount decimal.Decimal `json:"discount" binding:"required"`
}

// DischargeRequest represents a discharge; an absent timestamp means "now"
type DischargeRequest struct {
	DischargedAt *time.Time `json:"discharged_at"`
}

// ListAdmittedRequest represents the query parameters of an admitted-patients list
type ListAdmittedRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Admit godoc
// @ID           admitPatient
// @Summary      Admit a patient
// @Description  Open an inpatient stay under a consulting doctor
// @Tags         admissions
// @Accept       json
// @Produce      json
// @Param        request body patientapp.AdmitPatientRequest true "Admission request"
// @Success      201 {object} APIResponse[patientapp.AdmissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admissions [post]
func (h *AdmissionHandler) Admit(c *gin.Context) {
	var req patientapp.AdmitPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.admissionService.AdmitPatient(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID godoc
// @ID           getAdmissionById
// @Summary      Get admission by ID
// @Tags         admissions
// @Produce      json
// @Param        id path string true "Admission ID" format(uuid)
// @Success      200 {object} APIResponse[patientapp.AdmissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admissions/{id} [get]
func (h *AdmissionHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid admission ID format")
		return
	}

	resp, err := h.admissionService.GetAdmission(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListAdmitted godoc
// @ID           listAdmitted
// @Summary      List currently admitted patients
// @Tags         admissions
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]patientapp.AdmissionResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admissions [get]
func (h *AdmissionHandler) ListAdmitted(c *gin.Context) {
	var req ListAdmittedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	admissions, total, err := h.admissionService.ListAdmitted(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, admissions, total, req.Page, req.PageSize)
}

// ListByPatient godoc
// @ID           listAdmissionsByPatient
// @Summary      List a patient's admissions
// @Tags         admissions
// @Produce      json
// @Param        id path string true "Patient ID" format(uuid)
// @Success      200 {object} APIResponse[[]patientapp.AdmissionResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patients/{id}/admissions [get]
func (h *AdmissionHandler) ListByPatient(c *gin.Context) {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}

	admissions, err := h.admissionService.ListAdmissionsByPatient(c.Request.Context(), patientID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, admissions)
}

// UpdateRates godoc
// @ID           updateAdmissionRates
// @Summary      Update bed rate and/or consultation fee
// @Description  Change the daily bed rate or consultation fee of an open stay
// @Tags         admissions
// @Accept       json
// @Produce      json
// @Param        id path string true "Admission ID" format(uuid)
// @Param        request body patientapp.UpdateRatesRequest true "Rate update request"
// @Success      200 {object} APIResponse[patientapp.AdmissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admissions/{id}/rates [put]
func (h *AdmissionHandler) UpdateRates(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid admission ID format")
		return
	}

	var req patientapp.UpdateRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.admissionService.UpdateRates(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// SetDiscount godoc
// @ID           setAdmissionDiscount
// @Summary      Set a whole-stay discount
// @Tags         admissions
// @Accept       json
// @Produce      json
// @Param        id path string true "Admission ID" format(uuid)
// @Param        request body SetAdmissionDiscountRequest true "Discount request"
// @Success      200 {object} APIResponse[patientapp.AdmissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admissions/{id}/discount [put]
func (h *AdmissionHandler) SetDiscount(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid admission ID format")
		return
	}

	var req SetAdmissionDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.admissionService.SetDiscount(c.Request.Context(), id, req.Discount)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Transfer godoc
// @ID           transferAdmission
// @Summary      Transfer a patient to a different ward/bed
// @Tags         admissions
// @Accept       json
// @Produce      json
// @Param        id path string true "Admission ID" format(uuid)
// @Param        request body patientapp.TransferRequest true "Transfer request"
// @Success      200 {object} APIResponse[patientapp.AdmissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admissions/{id}/transfer [post]
func (h *AdmissionHandler) Transfer(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid admission ID format")
		return
	}

	var req patientapp.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.admissionService.Transfer(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Discharge godoc
// @ID           dischargePatient
// @Summary      Discharge a patient
// @Description  Close the stay; the discharge timestamp defaults to now
// @Tags         admissions
// @Accept       json
// @Produce      json
// @Param        id path string true "Admission ID" format(uuid)
// @Param        request body DischargeRequest false "Discharge request"
// @Success      200 {object} APIResponse[patientapp.AdmissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admissions/{id}/discharge [post]
func (h *AdmissionHandler) Discharge(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid admission ID format")
		return
	}

	var req DischargeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	resp, err := h.admissionService.DischargePatient(c.Request.Context(), id, req.DischargedAt)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}
