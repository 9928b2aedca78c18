package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/service"
	"literacy-hub/backend/pkg/response"
)

// QuizHandler quiz authoring, publishing and the public join endpoints.
type QuizHandler struct {
	quizSvc service.QuizService
}

// NewQuizHandler creates a QuizHandler.
func NewQuizHandler(quizSvc service.QuizService) *QuizHandler {
	return &QuizHandler{quizSvc: quizSvc}
}

// ────────────────────── Authoring ──────────────────────

// CreateQuiz POST /api/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req dto.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	quiz, err := h.quizSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.Created(c, quiz)
}

// UpdateQuiz replaces a draft quiz.
// PUT /api/quizzes/:id
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	var req dto.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	quiz, err := h.quizSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.OK(c, quiz)
}

// GetQuiz GET /api/quizzes/:id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	quiz, err := h.quizSvc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.OK(c, quiz)
}

// ListQuizzes GET /api/quizzes
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	var req dto.QuizListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.quizSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// DeleteQuiz DELETE /api/quizzes/:id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.quizSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.OK(c, nil)
}

// PublishQuiz assigns a join code and opens the quiz.
// POST /api/quizzes/:id/publish
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	quiz, err := h.quizSvc.Publish(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.OK(c, quiz)
}

// CloseQuiz POST /api/quizzes/:id/close
func (h *QuizHandler) CloseQuiz(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	quiz, err := h.quizSvc.Close(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.OK(c, quiz)
}

// QRCode serves the join link as a PNG.
// GET /api/quizzes/:id/qrcode
func (h *QuizHandler) QRCode(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	png, err := h.quizSvc.QRCode(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// Responses GET /api/quizzes/:id/responses
func (h *QuizHandler) Responses(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.quizSvc.Responses(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.OK(c, list)
}

// ExportResponses GET /api/quizzes/:id/responses/export
func (h *QuizHandler) ExportResponses(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	data, filename, err := h.quizSvc.ExportResponses(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.Attachment(c, filename, xlsxContentType, data)
}

// ────────────────────── Public ──────────────────────

// JoinQuiz returns a published quiz without its answers.
// GET /api/quiz/join/:code
func (h *QuizHandler) JoinQuiz(c *gin.Context) {
	quiz, err := h.quizSvc.GetPublic(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleQuizError(c, err)
		return
	}
	response.OK(c, quiz)
}

// SubmitQuiz grades one student's answers.
// POST /api/quiz/join/:code/submit
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	var req dto.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.quizSvc.Submit(c.Request.Context(), c.Param("code"), &req)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.Created(c, result)
}

// ────────────────────── Drafts ──────────────────────

// SaveDraft stores builder state. POST starts a new draft, PUT overwrites one.
// POST /api/quizzes/drafts
// PUT  /api/quizzes/drafts/:draft_id
func (h *QuizHandler) SaveDraft(c *gin.Context) {
	var req dto.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	draft, err := h.quizSvc.SaveDraft(c.Request.Context(), caller, c.Param("draft_id"), &req)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.OK(c, draft)
}

// GetDraft GET /api/quizzes/drafts/:draft_id
func (h *QuizHandler) GetDraft(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	draft, err := h.quizSvc.GetDraft(c.Request.Context(), caller, c.Param("draft_id"))
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.OK(c, draft)
}

// ListDrafts GET /api/quizzes/drafts
func (h *QuizHandler) ListDrafts(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	drafts, err := h.quizSvc.ListDrafts(c.Request.Context(), caller)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.OK(c, drafts)
}

// DeleteDraft DELETE /api/quizzes/drafts/:draft_id
func (h *QuizHandler) DeleteDraft(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.quizSvc.DeleteDraft(c.Request.Context(), caller, c.Param("draft_id")); err != nil {
		h.handleQuizError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *QuizHandler) handleQuizError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		response.NotFound(c, 16001, "quiz not found")
	case errors.Is(err, service.ErrQuizNotDraft):
		response.Conflict(c, 16002, "only draft quizzes can be changed")
	case errors.Is(err, service.ErrQuizNotPublished):
		response.Conflict(c, 16003, "quiz is not published")
	case errors.Is(err, service.ErrQuizNoQuestions):
		response.BadRequest(c, 16004, "quiz has no questions")
	case errors.Is(err, service.ErrQuizInvalidQuestion):
		response.ErrorWithDetails(c, http.StatusBadRequest, 16005, "quiz has an invalid question", err.Error())
	case errors.Is(err, service.ErrQuizClosed):
		response.Error(c, http.StatusGone, 16006, "quiz is closed")
	case errors.Is(err, service.ErrQuizTimeUp):
		response.BadRequest(c, 16007, "time limit exceeded")
	case errors.Is(err, service.ErrQuizStartRequired):
		response.BadRequest(c, 16012, "open the quiz from its join page before submitting")
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Conflict(c, 16008, "this student already submitted")
	case errors.Is(err, service.ErrQuizCodeExhausted):
		response.ServiceUnavailable(c, 16009, "no free join code, try again")
	case errors.Is(err, service.ErrDraftNotFound):
		response.NotFound(c, 16010, "draft not found")
	case errors.Is(err, service.ErrInvalidDraftID):
		response.BadRequest(c, 16011, "invalid draft id")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 13001, "student not found")
	default:
		handleCommonError(c, err)
	}
}
