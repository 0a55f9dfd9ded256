package handler

import (
	"github.com/gin-gonic/gin"
	patientapp "github.com/hms/backend/internal/application/patient"
)

// PatientHandler handles patient registry API endpoints
type PatientHandler struct {
	BaseHandler
	patientService *patientapp.PatientService
}

// NewPatientHandler creates a new PatientHandler
func NewPatientHandler(patientService *patientapp.PatientService) *PatientHandler {
	return &PatientHandler{
		patientService: patientService,
	}
}

// SearchPatientsRequest represents the query parameters of a patient search
type SearchPatientsRequest struct {
	Query    string `form:"q"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Register godoc
// @ID           registerPatient
// @Summary      Register a new patient
// @Description  Register a patient with a unique medical record number
// @Tags         patients
// @Accept       json
// @Produce      json
// @Param        request body patientapp.RegisterPatientRequest true "Patient registration request"
// @Success      201 {object} APIResponse[patientapp.PatientResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patients [post]
func (h *PatientHandler) Register(c *gin.Context) {
	var req patientapp.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.patientService.RegisterPatient(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID godoc
// @ID           getPatientById
// @Summary      Get patient by ID
// @Tags         patients
// @Produce      json
// @Param        id path string true "Patient ID" format(uuid)
// @Success      200 {object} APIResponse[patientapp.PatientResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patients/{id} [get]
func (h *PatientHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}

	resp, err := h.patientService.GetPatient(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Search godoc
// @ID           searchPatients
// @Summary      Search patients
// @Description  Search patients by name or MRN fragment with pagination
// @Tags         patients
// @Produce      json
// @Param        q query string false "Name or MRN fragment"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]patientapp.PatientResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patients [get]
func (h *PatientHandler) Search(c *gin.Context) {
	var req SearchPatientsRequest
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

	patients, total, err := h.patientService.SearchPatients(c.Request.Context(), req.Query, req.Page, req.PageSize)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, patients, total, req.Page, req.PageSize)
}

// Update godoc
// @ID           updatePatient
// @Summary      Update patient demographics
// @Tags         patients
// @Accept       json
// @Produce      json
// @Param        id path string true "Patient ID" format(uuid)
// @Param        request body patientapp.UpdatePatientRequest true "Patient update request"
// @Success      200 {object} APIResponse[patientapp.PatientResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patients/{id} [put]
func (h *PatientHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}

	var req patientapp.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.patientService.UpdatePatient(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Deactivate godoc
// @ID           deactivatePatient
// @Summary      Deactivate a patient record
// @Tags         patients
// @Produce      json
// @Param        id path string true "Patient ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patients/{id} [delete]
func (h *PatientHandler) Deactivate(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}

	if err := h.patientService.DeactivatePatient(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
