package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/scoring"
	"literacy-hub/backend/internal/service"
	"literacy-hub/backend/pkg/response"
)

// FlashcardHandler flashcards and pronunciation attempts.
type FlashcardHandler struct {
	flashcardSvc service.FlashcardService
}

// NewFlashcardHandler creates a FlashcardHandler.
func NewFlashcardHandler(flashcardSvc service.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{flashcardSvc: flashcardSvc}
}

// ListFlashcards GET /api/flashcards
func (h *FlashcardHandler) ListFlashcards(c *gin.Context) {
	var req dto.FlashcardListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.flashcardSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleFlashcardError(c, err)
		return
	}

	response.OK(c, list)
}

// CreateFlashcard POST /api/flashcards
func (h *FlashcardHandler) CreateFlashcard(c *gin.Context) {
	var req dto.FlashcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	card, err := h.flashcardSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleFlashcardError(c, err)
		return
	}

	response.Created(c, card)
}

// UpdateFlashcard PUT /api/flashcards/:id
func (h *FlashcardHandler) UpdateFlashcard(c *gin.Context) {
	var req dto.FlashcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	card, err := h.flashcardSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleFlashcardError(c, err)
		return
	}

	response.OK(c, card)
}

// DeleteFlashcard DELETE /api/flashcards/:id
func (h *FlashcardHandler) DeleteFlashcard(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.flashcardSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleFlashcardError(c, err)
		return
	}

	response.OK(c, nil)
}

// Attempt scores one reading of a flashcard.
// POST /api/flashcards/:id/attempts
func (h *FlashcardHandler) Attempt(c *gin.Context) {
	var req dto.AttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.flashcardSvc.Attempt(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleFlashcardError(c, err)
		return
	}

	response.Created(c, result)
}

// History GET /api/students/:id/attempts
func (h *FlashcardHandler) History(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.flashcardSvc.History(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleFlashcardError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *FlashcardHandler) handleFlashcardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFlashcardNotFound):
		response.NotFound(c, 17001, "flashcard not found")
	case errors.Is(err, service.ErrStudentNotAssigned):
		response.Forbidden(c, 17002, "student is not assigned to you")
	case errors.Is(err, scoring.ErrEmptyExpected):
		response.BadRequest(c, 17003, "flashcard has no words")
	case errors.Is(err, service.ErrInvalidSentence):
		response.BadRequest(c, 17004, "sentence has no readable words")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 13001, "student not found")
	case errors.Is(err, service.ErrInvalidLevel):
		response.BadRequest(c, 13004, "level is not valid for the subject")
	default:
		handleCommonError(c, err)
	}
}
