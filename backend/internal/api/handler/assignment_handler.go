package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/service"
	"literacy-hub/backend/pkg/response"
)

// AssignmentHandler student to teacher assignment.
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler creates an AssignmentHandler.
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// AutoAssign balances unassigned students of a grade across its teachers.
// POST /api/{role}/assignments/auto
func (h *AssignmentHandler) AutoAssign(c *gin.Context) {
	var req dto.AutoAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.assignmentSvc.AutoAssign(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, result)
}

// Assign POST /api/{role}/assignments
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.assignmentSvc.Assign(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.Created(c, result)
}

// Unassign DELETE /api/{role}/assignments/:student_id
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.assignmentSvc.Unassign(c.Request.Context(), caller, c.Param("student_id")); err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListAssignments GET /api/{role}/assignments
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	var req dto.AssignmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.assignmentSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, list)
}

func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentInProgress):
		response.Conflict(c, 15001, "an assignment run for this grade is in progress")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 15002, "student has no teacher")
	case errors.Is(err, service.ErrTeacherNotEligible):
		response.BadRequest(c, 15003, "teacher cannot take this student")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 13001, "student not found")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "user not found")
	default:
		handleCommonError(c, err)
	}
}
