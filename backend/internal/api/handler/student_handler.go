package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/service"
	"literacy-hub/backend/pkg/response"
)

// StudentHandler student records. Scope checks live in the service; the
// same handler serves every role path.
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler creates a StudentHandler.
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// ListStudents GET /api/{role}/students
func (h *StudentHandler) ListStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	students, total, err := h.studentSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OKPage(c, students, total, req.GetPage(), req.GetPageSize())
}

// GetStudent GET /api/{role}/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// CreateStudent POST /api/{role}/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.Created(c, student)
}

// UpdateStudent PUT /api/{role}/students/:id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// ImportStudents POST /api/{role}/students/import
func (h *StudentHandler) ImportStudents(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	file, ok := formFile(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.studentSvc.Import(c.Request.Context(), caller, file)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, result)
}

// ExportStudents GET /api/{role}/students/export
func (h *StudentHandler) ExportStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	data, err := h.studentSvc.Export(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.Attachment(c, "students.xlsx", xlsxContentType, data)
}

// CoordinatorStudents lists a coordinator's grade grouped by teacher.
// GET /api/master_teacher/coordinator/students?coordinator_id=
func (h *StudentHandler) CoordinatorStudents(c *gin.Context) {
	var req dto.CoordinatorStudentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.studentSvc.CoordinatorStudents(c.Request.Context(), req.CoordinatorID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 13001, "student not found")
	case errors.Is(err, service.ErrLRNExists):
		response.Conflict(c, 13002, "LRN is already registered")
	case errors.Is(err, service.ErrInvalidLRN):
		response.BadRequest(c, 13003, "LRN must be exactly 12 digits")
	case errors.Is(err, service.ErrInvalidLevel):
		response.BadRequest(c, 13004, "level is not valid for the subject")
	case errors.Is(err, service.ErrInvalidBirthDate):
		response.BadRequest(c, 13005, "birth date must be YYYY-MM-DD")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "user not found")
	case errors.Is(err, service.ErrNotCoordinator):
		response.BadRequest(c, 13006, "user is not a coordinator")
	case errors.Is(err, service.ErrCoordinatorNoGrade):
		response.BadRequest(c, 13007, "coordinator has no grade level")
	default:
		handleCommonError(c, err)
	}
}
