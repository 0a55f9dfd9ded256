package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	patientapp "github.com/hms/backend/internal/application/patient"
)

// AppointmentHandler handles outpatient appointment API endpoints
type AppointmentHandler struct {
	BaseHandler
	appointmentService *patientapp.AppointmentService
}

// NewAppointmentHandler creates a new AppointmentHandler
func NewAppointmentHandler(appointmentService *patientapp.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentService: appointmentService,
	}
}

// RescheduleRequest represents a new slot for an existing appointment
type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// CompleteAppointmentRequest carries the doctor's notes at completion
type CompleteAppointmentRequest struct {
	Notes string `json:"notes"`
}

// DoctorScheduleRequest represents the time window of a schedule query
type DoctorScheduleRequest struct {
	From time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// Schedule godoc
// @ID           scheduleAppointment
// @Summary      Schedule an appointment
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Param        request body patientapp.ScheduleAppointmentRequest true "Appointment booking request"
// @Success      201 {object} APIResponse[patientapp.AppointmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments [post]
func (h *AppointmentHandler) Schedule(c *gin.Context) {
	var req patientapp.ScheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.appointmentService.ScheduleAppointment(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID godoc
// @ID           getAppointmentById
// @Summary      Get appointment by ID
// @Tags         appointments
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Success      200 {object} APIResponse[patientapp.AppointmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id} [get]
func (h *AppointmentHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid appointment ID format")
		return
	}

	resp, err := h.appointmentService.GetAppointment(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListByPatient godoc
// @ID           listAppointmentsByPatient
// @Summary      List a patient's appointments
// @Tags         appointments
// @Produce      json
// @Param        id path string true "Patient ID" format(uuid)
// @Success      200 {object} APIResponse[[]patientapp.AppointmentResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patients/{id}/appointments [get]
func (h *AppointmentHandler) ListByPatient(c *gin.Context) {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}

	appointments, err := h.appointmentService.ListAppointmentsByPatient(c.Request.Context(), patientID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, appointments)
}

// DoctorSchedule godoc
// @ID           listDoctorSchedule
// @Summary      List a doctor's appointments in a time window
// @Tags         appointments
// @Produce      json
// @Param        id path string true "Doctor ID" format(uuid)
// @Param        from query string true "Window start (RFC 3339)"
// @Param        to query string true "Window end (RFC 3339)"
// @Success      200 {object} APIResponse[[]patientapp.AppointmentResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /doctors/{id}/schedule [get]
func (h *AppointmentHandler) DoctorSchedule(c *gin.Context) {
	doctorID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid doctor ID format")
		return
	}

	var req DoctorScheduleRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appointments, err := h.appointmentService.ListDoctorSchedule(c.Request.Context(), doctorID, req.From, req.To)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, appointments)
}

// Reschedule godoc
// @ID           rescheduleAppointment
// @Summary      Reschedule an appointment
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Param        request body RescheduleRequest true "New slot"
// @Success      200 {object} APIResponse[patientapp.AppointmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id}/reschedule [post]
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid appointment ID format")
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.appointmentService.RescheduleAppointment(c.Request.Context(), id, req.ScheduledAt)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Complete godoc
// @ID           completeAppointment
// @Summary      Mark an appointment completed
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Param        request body CompleteAppointmentRequest false "Completion notes"
// @Success      200 {object} APIResponse[patientapp.AppointmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id}/complete [post]
func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid appointment ID format")
		return
	}

	var req CompleteAppointmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	resp, err := h.appointmentService.CompleteAppointment(c.Request.Context(), id, req.Notes)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Cancel godoc
// @ID           cancelAppointment
// @Summary      Cancel an appointment
// @Tags         appointments
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Success      200 {object} APIResponse[patientapp.AppointmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid appointment ID format")
		return
	}

	resp, err := h.appointmentService.CancelAppointment(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// NoShow godoc
// @ID           markAppointmentNoShow
// @Summary      Mark an appointment as a no-show
// @Tags         appointments
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Success      200 {object} APIResponse[patientapp.AppointmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id}/no-show [post]
func (h *AppointmentHandler) NoShow(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid appointment ID format")
		return
	}

	resp, err := h.appointmentService.MarkNoShow(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}
