package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"literacy-hub/backend/internal/api/validator"
	"literacy-hub/backend/internal/service"
	pkgerrors "literacy-hub/backend/pkg/errors"
	"literacy-hub/backend/pkg/response"
)

// Handler aggregates every HTTP handler.
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Profile    *ProfileHandler
	Student    *StudentHandler
	Archive    *ArchiveHandler
	Assignment *AssignmentHandler
	Quiz       *QuizHandler
	Flashcard  *FlashcardHandler
	Calendar   *CalendarHandler
	Dashboard  *DashboardHandler
}

// NewHandler builds the aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Profile:    NewProfileHandler(svc.User),
		Student:    NewStudentHandler(svc.Student),
		Archive:    NewArchiveHandler(svc.Archive),
		Assignment: NewAssignmentHandler(svc.Assignment),
		Quiz:       NewQuizHandler(svc.Quiz),
		Flashcard:  NewFlashcardHandler(svc.Flashcard),
		Calendar:   NewCalendarHandler(svc.Calendar),
		Dashboard:  NewDashboardHandler(svc.Dashboard),
	}
}

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxUploadBytes  = 10 << 20
)

// handleCommonError maps errors shared by every module. Anything unknown is a 500.
func handleCommonError(c *gin.Context, err error) {
	var headerErr *service.ImportHeaderError
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, "permission denied")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10007, err.Error())
	case errors.Is(err, pkgerrors.ErrRedisUnavailable):
		response.ServiceUnavailable(c, 10006, "this feature is temporarily unavailable")
	case errors.As(err, &headerErr):
		response.ErrorWithDetails(c, http.StatusBadRequest, 10008, "spreadsheet header is incomplete", headerErr.Error())
	case errors.Is(err, service.ErrImportBadFile),
		errors.Is(err, service.ErrImportNoData),
		errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 10008, err.Error())
	default:
		response.InternalError(c)
	}
}

// bindError answers a failed ShouldBind with per-field messages as details.
func bindError(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", validator.Describe(err))
}

// formFile opens the multipart upload named "file".
func formFile(c *gin.Context) (multipart.File, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "file is required")
		return nil, false
	}
	if fh.Size > maxUploadBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "file is too large")
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 10001, "file cannot be read")
		return nil, false
	}
	return f, true
}
