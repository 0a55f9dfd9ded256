package handler

import (
	"github.com/gin-gonic/gin"
	patientapp "github.com/hms/backend/internal/application/patient"
)

// DoctorHandler handles consulting doctor API endpoints
type DoctorHandler struct {
	BaseHandler
	admissionService *patientapp.AdmissionService
}

// NewDoctorHandler creates a new DoctorHandler
func NewDoctorHandler(admissionService *patientapp.AdmissionService) *DoctorHandler {
	return &DoctorHandler{
		admissionService: admissionService,
	}
}

// Create godoc
// @ID           createDoctor
// @Summary      Register a consulting doctor
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Param        request body patientapp.CreateDoctorRequest true "Doctor registration request"
// @Success      201 {object} APIResponse[patientapp.DoctorResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /doctors [post]
func (h *DoctorHandler) Create(c *gin.Context) {
	var req patientapp.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.admissionService.CreateDoctor(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// List godoc
// @ID           listDoctors
// @Summary      List active doctors
// @Tags         doctors
// @Produce      json
// @Param        specialty query string false "Filter by specialty"
// @Success      200 {object} APIResponse[[]patientapp.DoctorResponse]
// @Security     BearerAuth
// @Router       /doctors [get]
func (h *DoctorHandler) List(c *gin.Context) {
	doctors, err := h.admissionService.ListDoctors(c.Request.Context(), c.Query("specialty"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, doctors)
}
