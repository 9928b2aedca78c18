package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/service"
	"literacy-hub/backend/pkg/response"
)

// ArchiveHandler archive and restore of deleted accounts and students.
type ArchiveHandler struct {
	archiveSvc service.ArchiveService
}

// NewArchiveHandler creates an ArchiveHandler.
func NewArchiveHandler(archiveSvc service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{archiveSvc: archiveSvc}
}

// ArchiveUser POST /api/super_admin/users/:id/archive
func (h *ArchiveHandler) ArchiveUser(c *gin.Context) {
	h.archive(c, h.archiveSvc.ArchiveUser)
}

// ArchiveStudent POST /api/master_teacher/students/:id/archive
func (h *ArchiveHandler) ArchiveStudent(c *gin.Context) {
	h.archive(c, h.archiveSvc.ArchiveStudent)
}

type archiveFunc func(ctx context.Context, caller service.Caller, id string, req *dto.ArchiveRequest) (*dto.ArchiveEntryResponse, error)

func (h *ArchiveHandler) archive(c *gin.Context, fn archiveFunc) {
	var req dto.ArchiveRequest
	// the reason is optional, an empty body is fine
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	entry, err := fn(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleArchiveError(c, err)
		return
	}

	response.Created(c, entry)
}

// ListArchive GET /api/super_admin/archive?type=users|students
func (h *ArchiveHandler) ListArchive(c *gin.Context) {
	var req dto.ArchiveListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, total, err := h.archiveSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleArchiveError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetArchive GET /api/super_admin/archive/:type/:id
func (h *ArchiveHandler) GetArchive(c *gin.Context) {
	entry, err := h.archiveSvc.Get(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		h.handleArchiveError(c, err)
		return
	}
	response.OK(c, entry)
}

// RestoreArchive POST /api/super_admin/archive/:type/:id/restore
func (h *ArchiveHandler) RestoreArchive(c *gin.Context) {
	result, err := h.archiveSvc.Restore(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		h.handleArchiveError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteArchive DELETE /api/super_admin/archive/:type/:id
func (h *ArchiveHandler) DeleteArchive(c *gin.Context) {
	if err := h.archiveSvc.Delete(c.Request.Context(), c.Param("type"), c.Param("id")); err != nil {
		h.handleArchiveError(c, err)
		return
	}
	response.OK(c, nil)
}

// PurgeArchive POST /api/super_admin/archive/purge
func (h *ArchiveHandler) PurgeArchive(c *gin.Context) {
	result, err := h.archiveSvc.Purge(c.Request.Context())
	if err != nil {
		h.handleArchiveError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *ArchiveHandler) handleArchiveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrArchiveNotFound):
		response.NotFound(c, 14001, "archive entry not found")
	case errors.Is(err, service.ErrArchiveType):
		response.BadRequest(c, 14002, "archive type must be users or students")
	case errors.Is(err, service.ErrArchiveConflict):
		response.Conflict(c, 14003, "an active record already uses this email or LRN")
	case errors.Is(err, service.ErrArchiveSelf):
		response.BadRequest(c, 14004, "cannot archive your own account")
	case errors.Is(err, service.ErrArchivePurgeOff):
		response.BadRequest(c, 14005, "archive retention is disabled")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "user not found")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 13001, "student not found")
	default:
		handleCommonError(c, err)
	}
}
