package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/service"
	"literacy-hub/backend/pkg/response"
)

const icsContentType = "text/calendar; charset=utf-8"

// CalendarHandler remedial session calendar.
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler creates a CalendarHandler.
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// ListSessions GET /api/calendar/sessions?from=&to=
func (h *CalendarHandler) ListSessions(c *gin.Context) {
	var req dto.SessionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.calendarSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, list)
}

// CreateSession POST /api/calendar/sessions
func (h *CalendarHandler) CreateSession(c *gin.Context) {
	var req dto.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	session, err := h.calendarSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.Created(c, session)
}

// UpdateSession PUT /api/calendar/sessions/:id
func (h *CalendarHandler) UpdateSession(c *gin.Context) {
	var req dto.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	session, err := h.calendarSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, session)
}

// DeleteSession DELETE /api/calendar/sessions/:id
func (h *CalendarHandler) DeleteSession(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.calendarSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, nil)
}

// ExportICS downloads the visible sessions as an iCalendar file.
// GET /api/calendar/sessions.ics
func (h *CalendarHandler) ExportICS(c *gin.Context) {
	var req dto.SessionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	data, err := h.calendarSvc.ExportICS(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.Attachment(c, "remedial-sessions.ics", icsContentType, data)
}

// ImportICS POST /api/calendar/import (multipart: file, optional grade_level)
func (h *CalendarHandler) ImportICS(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.CalendarImportRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	file, ok := formFile(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.calendarSvc.ImportICS(c.Request.Context(), caller, &req, file)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *CalendarHandler) handleCalendarError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 18001, "session not found")
	case errors.Is(err, service.ErrSessionTimeRange):
		response.BadRequest(c, 18002, "session must end after it starts")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 18003, "invalid date range")
	case errors.Is(err, service.ErrICSInvalid):
		response.BadRequest(c, 18004, "file is not a valid iCalendar document")
	case errors.Is(err, service.ErrSessionGradeRequired):
		response.BadRequest(c, 18005, "grade_level is required")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "user not found")
	case errors.Is(err, service.ErrTeacherNotEligible):
		response.BadRequest(c, 15003, "teacher cannot take this session")
	default:
		handleCommonError(c, err)
	}
}
