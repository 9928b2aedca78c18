package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"literacy-hub/backend/config"
	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/model"
	"literacy-hub/backend/internal/repository"
	"literacy-hub/backend/pkg/jwt"
	"literacy-hub/backend/pkg/metrics"
)

// ── quiz errors ──

var (
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrQuizNotDraft        = errors.New("only draft quizzes can be changed")
	ErrQuizNotPublished    = errors.New("quiz is not published")
	ErrQuizNoQuestions     = errors.New("quiz needs at least one question")
	ErrQuizInvalidQuestion = errors.New("invalid question")
	ErrQuizClosed          = errors.New("quiz is closed")
	ErrQuizTimeUp          = errors.New("time limit exceeded")
	ErrQuizStartRequired   = errors.New("timed quiz needs the start token issued when it was opened")
	ErrAlreadySubmitted    = errors.New("student already submitted this quiz")
	ErrQuizCodeExhausted   = errors.New("could not generate a unique quiz code")
)

// Quiz code alphabet leaves out 0 O 1 I L.
const quizCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	quizCodeAttempts = 10
	qrSize           = 256
	// submissions within this margin past the time limit are still accepted
	timeLimitGrace = time.Minute
)

// QuizService quiz builder, publishing and public submission.
type QuizService interface {
	Create(ctx context.Context, caller Caller, req *dto.QuizRequest) (*dto.QuizResponse, error)
	Update(ctx context.Context, caller Caller, id string, req *dto.QuizRequest) (*dto.QuizResponse, error)
	Get(ctx context.Context, caller Caller, id string) (*dto.QuizResponse, error)
	List(ctx context.Context, caller Caller, req *dto.QuizListRequest) ([]dto.QuizResponse, int64, error)
	Delete(ctx context.Context, caller Caller, id string) error
	Publish(ctx context.Context, caller Caller, id string) (*dto.QuizResponse, error)
	Close(ctx context.Context, caller Caller, id string) (*dto.QuizResponse, error)
	QRCode(ctx context.Context, caller Caller, id string) ([]byte, error)

	GetPublic(ctx context.Context, code string) (*dto.PublicQuizResponse, error)
	Submit(ctx context.Context, code string, req *dto.SubmitQuizRequest) (*dto.SubmitQuizResponse, error)
	Responses(ctx context.Context, caller Caller, id string) ([]dto.QuizResultResponse, error)
	ExportResponses(ctx context.Context, caller Caller, id string) ([]byte, string, error)

	SaveDraft(ctx context.Context, caller Caller, draftID string, req *dto.DraftRequest) (*dto.DraftResponse, error)
	GetDraft(ctx context.Context, caller Caller, draftID string) (*dto.DraftResponse, error)
	ListDrafts(ctx context.Context, caller Caller) ([]dto.DraftResponse, error)
	DeleteDraft(ctx context.Context, caller Caller, draftID string) error
}

type quizService struct {
	cfg    *config.Config
	repo   *repository.Repository
	tokens *jwt.Manager
	cache  Cache
	logger *zap.Logger
	now    func() time.Time
}

// NewQuizService creates a QuizService. cache may be nil; drafts are then
// unavailable. tokens signs the start of timed attempts.
func NewQuizService(cfg *config.Config, repo *repository.Repository, tokens *jwt.Manager, cache Cache, logger *zap.Logger) QuizService {
	return &quizService{cfg: cfg, repo: repo, tokens: tokens, cache: cache, logger: logger, now: time.Now}
}

// ────────────────────── Create / Update ──────────────────────

func (s *quizService) Create(ctx context.Context, caller Caller, req *dto.QuizRequest) (*dto.QuizResponse, error) {
	quiz := &model.Quiz{
		Status:          model.QuizStatusDraft,
		SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.Audit(caller.UserID)},
	}
	applyQuizRequest(quiz, req)

	if err := s.repo.Quiz.Create(ctx, quiz); err != nil {
		s.logger.Error("create quiz failed", zap.Error(err))
		return nil, err
	}
	return s.toQuizResponse(quiz, true), nil
}

func (s *quizService) Update(ctx context.Context, caller Caller, id string, req *dto.QuizRequest) (*dto.QuizResponse, error) {
	quiz, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizStatusDraft {
		return nil, ErrQuizNotDraft
	}

	applyQuizRequest(quiz, req)
	quiz.UpdatedBy = &caller.UserID

	if err := s.repo.Quiz.Update(ctx, quiz); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		s.logger.Error("update quiz failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toQuizResponse(quiz, true), nil
}

func applyQuizRequest(quiz *model.Quiz, req *dto.QuizRequest) {
	quiz.Title = strings.TrimSpace(req.Title)
	quiz.Description = req.Description
	quiz.Subject = req.Subject
	quiz.PhonemicLevel = req.PhonemicLevel
	quiz.GradeLevel = req.GradeLevel
	quiz.TimeLimitMinutes = req.TimeLimitMinutes
	quiz.ClosesAt = req.ClosesAt

	quiz.Questions = make([]model.QuizQuestion, 0, len(req.Questions))
	for i, q := range req.Questions {
		points := q.Points
		if points <= 0 {
			points = 1
		}
		quiz.Questions = append(quiz.Questions, model.QuizQuestion{
			Position: i + 1,
			Kind:     q.Kind,
			Prompt:   strings.TrimSpace(q.Prompt),
			Choices:  datatypes.JSONSlice[string](q.Choices),
			Answer:   strings.TrimSpace(q.Answer),
			Points:   points,
		})
	}
}

// ────────────────────── Get / List / Delete ──────────────────────

func (s *quizService) Get(ctx context.Context, caller Caller, id string) (*dto.QuizResponse, error) {
	quiz, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return s.toQuizResponse(quiz, true), nil
}

func (s *quizService) List(ctx context.Context, caller Caller, req *dto.QuizListRequest) ([]dto.QuizResponse, int64, error) {
	filters := &repository.QuizListFilters{
		Status:     req.Status,
		Subject:    req.Subject,
		GradeLevel: req.GradeLevel,
	}
	if !caller.SchoolWide() {
		filters.CreatedBy = caller.UserID
	}

	quizzes, total, err := s.repo.Quiz.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list quizzes failed", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.QuizResponse, 0, len(quizzes))
	for i := range quizzes {
		result = append(result, *s.toQuizSummary(&quizzes[i]))
	}
	return result, total, nil
}

func (s *quizService) Delete(ctx context.Context, caller Caller, id string) error {
	quiz, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return err
	}
	if quiz.Status != model.QuizStatusDraft {
		return ErrQuizNotDraft
	}
	if err := s.repo.Quiz.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("delete quiz failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// loadOwned loads a quiz the caller authored; school-wide roles may load any.
func (s *quizService) loadOwned(ctx context.Context, caller Caller, id string) (*model.Quiz, error) {
	quiz, err := s.repo.Quiz.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		s.logger.Error("load quiz failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !caller.SchoolWide() && !quiz.OwnedBy(caller.UserID) {
		return nil, ErrForbidden
	}
	return quiz, nil
}

// ────────────────────── Publish / Close ──────────────────────

func (s *quizService) Publish(ctx context.Context, caller Caller, id string) (*dto.QuizResponse, error) {
	quiz, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizStatusDraft {
		return nil, ErrQuizNotDraft
	}
	if err := validateForPublish(quiz); err != nil {
		return nil, err
	}
	if quiz.ClosesAt != nil && !quiz.ClosesAt.After(s.now()) {
		return nil, ErrQuizClosed
	}

	now := s.now()
	var code string
	for attempt := 0; attempt < quizCodeAttempts; attempt++ {
		code, err = generateQuizCode(s.cfg.Quiz.CodeLength)
		if err != nil {
			s.logger.Error("generate quiz code failed", zap.Error(err))
			return nil, err
		}
		exists, err := s.repo.Quiz.CodeExists(ctx, code)
		if err != nil {
			s.logger.Error("check quiz code failed", zap.Error(err))
			return nil, err
		}
		if exists {
			continue
		}

		err = s.repo.Quiz.UpdateFields(ctx, id, map[string]interface{}{
			"status":       model.QuizStatusPublished,
			"quiz_code":    code,
			"published_at": now,
			"updated_by":   caller.UserID,
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race for the same code
			continue
		}
		if err != nil {
			s.logger.Error("publish quiz failed", zap.String("id", id), zap.Error(err))
			return nil, err
		}

		quiz.Status = model.QuizStatusPublished
		quiz.QuizCode = &code
		quiz.PublishedAt = &now
		s.logger.Info("quiz published", zap.String("id", id), zap.String("code", code))
		return s.toQuizResponse(quiz, true), nil
	}

	s.logger.Error("quiz code space exhausted", zap.Int("attempts", quizCodeAttempts))
	return nil, ErrQuizCodeExhausted
}

// validateForPublish checks the quiz can be answered and graded.
func validateForPublish(quiz *model.Quiz) error {
	if len(quiz.Questions) == 0 {
		return ErrQuizNoQuestions
	}
	for _, q := range quiz.Questions {
		switch q.Kind {
		case model.QuestionMultipleChoice:
			if len(q.Choices) < 2 {
				return fmt.Errorf("%w: question %d needs at least two choices", ErrQuizInvalidQuestion, q.Position)
			}
			found := false
			for _, c := range q.Choices {
				if strings.TrimSpace(c) == q.Answer {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%w: answer of question %d is not among its choices", ErrQuizInvalidQuestion, q.Position)
			}
		case model.QuestionTrueFalse:
			a := strings.ToLower(q.Answer)
			if a != "true" && a != "false" {
				return fmt.Errorf("%w: question %d must be answered true or false", ErrQuizInvalidQuestion, q.Position)
			}
		case model.QuestionIdentification:
			if normalizeAnswer(q.Answer) == "" {
				return fmt.Errorf("%w: question %d has an empty answer", ErrQuizInvalidQuestion, q.Position)
			}
		default:
			return fmt.Errorf("%w: question %d has unknown kind %q", ErrQuizInvalidQuestion, q.Position, q.Kind)
		}
	}
	return nil
}

func (s *quizService) Close(ctx context.Context, caller Caller, id string) (*dto.QuizResponse, error) {
	quiz, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizStatusPublished {
		return nil, ErrQuizNotPublished
	}

	err = s.repo.Quiz.UpdateFields(ctx, id, map[string]interface{}{
		"status":     model.QuizStatusClosed,
		"updated_by": caller.UserID,
	})
	if err != nil {
		s.logger.Error("close quiz failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	quiz.Status = model.QuizStatusClosed
	return s.toQuizResponse(quiz, true), nil
}

// generateQuizCode draws length characters from quizCodeAlphabet.
func generateQuizCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	max := big.NewInt(int64(len(quizCodeAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = quizCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// ────────────────────── QRCode ──────────────────────

func (s *quizService) QRCode(ctx context.Context, caller Caller, id string) ([]byte, error) {
	quiz, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if quiz.QuizCode == nil {
		return nil, ErrQuizNotPublished
	}

	png, err := qrcode.Encode(s.joinURL(*quiz.QuizCode), qrcode.Medium, qrSize)
	if err != nil {
		s.logger.Error("encode qr code failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return png, nil
}

// joinURL is the student-facing link carrying the code as a query parameter.
func (s *quizService) joinURL(code string) string {
	base := s.cfg.Server.PublicQuizURL
	u, err := url.Parse(base)
	if err != nil {
		return base + "?code=" + url.QueryEscape(code)
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String()
}

// ────────────────────── Public ──────────────────────

func (s *quizService) GetPublic(ctx context.Context, code string) (*dto.PublicQuizResponse, error) {
	quiz, err := s.openQuiz(ctx, code)
	if err != nil {
		return nil, err
	}

	resp := &dto.PublicQuizResponse{
		Code:             *quiz.QuizCode,
		Title:            quiz.Title,
		Description:      quiz.Description,
		Subject:          quiz.Subject,
		GradeLevel:       quiz.GradeLevel,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		ClosesAt:         formatTimePtr(quiz.ClosesAt),
		MaxScore:         quiz.MaxScore(),
		Questions:        make([]dto.QuestionResponse, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		resp.Questions = append(resp.Questions, toQuestionResponse(&q, false))
	}
	if quiz.TimeLimitMinutes > 0 {
		token, err := s.tokens.GenerateStartToken(quiz.QuizID, s.now(), quizWindow(quiz))
		if err != nil {
			s.logger.Error("sign start token failed", zap.String("quiz_id", quiz.QuizID), zap.Error(err))
			return nil, err
		}
		resp.StartToken = token
	}
	return resp, nil
}

// quizWindow is how long after opening a timed quiz a submission counts.
func quizWindow(quiz *model.Quiz) time.Duration {
	return time.Duration(quiz.TimeLimitMinutes)*time.Minute + timeLimitGrace
}

// openQuiz loads a quiz by code and checks it accepts submissions.
func (s *quizService) openQuiz(ctx context.Context, code string) (*model.Quiz, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	quiz, err := s.repo.Quiz.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		s.logger.Error("load quiz by code failed", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	switch quiz.Status {
	case model.QuizStatusPublished:
	case model.QuizStatusClosed:
		return nil, ErrQuizClosed
	default:
		return nil, ErrQuizNotPublished
	}
	if quiz.ClosesAt != nil && s.now().After(*quiz.ClosesAt) {
		return nil, ErrQuizClosed
	}
	return quiz, nil
}

func (s *quizService) Submit(ctx context.Context, code string, req *dto.SubmitQuizRequest) (*dto.SubmitQuizResponse, error) {
	quiz, err := s.openQuiz(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	startedAt := req.StartedAt
	if startedAt != nil && startedAt.After(now) {
		startedAt = &now
	}
	if quiz.TimeLimitMinutes > 0 {
		if req.StartToken == "" {
			return nil, ErrQuizStartRequired
		}
		started, err := s.tokens.ParseStartToken(req.StartToken, quiz.QuizID)
		if err != nil {
			return nil, ErrQuizStartRequired
		}
		if now.After(started.Add(quizWindow(quiz))) {
			return nil, ErrQuizTimeUp
		}
		startedAt = &started
	}

	student, err := s.repo.Student.GetByLRN(ctx, strings.TrimSpace(req.LRN))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("load student by LRN failed", zap.Error(err))
		return nil, err
	}

	exists, err := s.repo.Response.Exists(ctx, quiz.QuizID, student.StudentID)
	if err != nil {
		s.logger.Error("check submission failed", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrAlreadySubmitted
	}

	score := GradeQuiz(quiz.Questions, req.Answers)
	answers := make(map[string]string, len(quiz.Questions))
	for _, q := range quiz.Questions {
		if a, ok := req.Answers[q.QuestionID]; ok {
			answers[q.QuestionID] = a
		}
	}

	resp := &model.QuizResponse{
		QuizID:      quiz.QuizID,
		StudentID:   student.StudentID,
		Answers:     datatypes.NewJSONType(answers),
		Score:       score,
		MaxScore:    quiz.MaxScore(),
		StartedAt:   startedAt,
		SubmittedAt: now,
	}
	if err := s.repo.Response.Create(ctx, resp); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadySubmitted
		}
		s.logger.Error("save submission failed", zap.String("quiz_id", quiz.QuizID), zap.Error(err))
		return nil, err
	}
	metrics.QuizSubmissions.Inc()

	return &dto.SubmitQuizResponse{
		ResponseID:  resp.ResponseID,
		Score:       resp.Score,
		MaxScore:    resp.MaxScore,
		SubmittedAt: formatTime(resp.SubmittedAt),
	}, nil
}

// GradeQuiz sums the points of correctly answered questions. Identification
// answers compare case-insensitively with whitespace collapsed.
func GradeQuiz(questions []model.QuizQuestion, answers map[string]string) int {
	score := 0
	for _, q := range questions {
		given, ok := answers[q.QuestionID]
		if !ok {
			continue
		}
		var correct bool
		switch q.Kind {
		case model.QuestionIdentification:
			correct = normalizeAnswer(given) == normalizeAnswer(q.Answer)
		case model.QuestionTrueFalse:
			correct = strings.EqualFold(strings.TrimSpace(given), q.Answer)
		default:
			correct = strings.TrimSpace(given) == q.Answer
		}
		if correct {
			score += q.Points
		}
	}
	return score
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ────────────────────── Responses ──────────────────────

func (s *quizService) Responses(ctx context.Context, caller Caller, id string) ([]dto.QuizResultResponse, error) {
	quiz, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	list, err := s.repo.Response.ListByQuiz(ctx, quiz.QuizID)
	if err != nil {
		s.logger.Error("list responses failed", zap.String("quiz_id", id), zap.Error(err))
		return nil, err
	}

	result := make([]dto.QuizResultResponse, 0, len(list))
	for i := range list {
		result = append(result, toQuizResult(&list[i]))
	}
	return result, nil
}

// ExportResponses returns the workbook and a file name for it.
func (s *quizService) ExportResponses(ctx context.Context, caller Caller, id string) ([]byte, string, error) {
	quiz, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, "", err
	}
	list, err := s.repo.Response.ListByQuiz(ctx, quiz.QuizID)
	if err != nil {
		s.logger.Error("list responses failed", zap.String("quiz_id", id), zap.Error(err))
		return nil, "", err
	}

	columns := []sheetColumn{
		{"LRN", 16}, {"Student", 28}, {"Section", 14}, {"Score", 8}, {"Max Score", 10}, {"Percent", 10}, {"Submitted", 22},
	}
	for _, q := range quiz.Questions {
		columns = append(columns, sheetColumn{Title: fmt.Sprintf("Q%d", q.Position), Width: 14})
	}

	rows := make([][]interface{}, 0, len(list))
	for i := range list {
		r := toQuizResult(&list[i])
		row := []interface{}{r.LRN, r.StudentName, r.Section, r.Score, r.MaxScore, r.Percent, r.SubmittedAt}
		for _, q := range quiz.Questions {
			row = append(row, r.Answers[q.QuestionID])
		}
		rows = append(rows, row)
	}

	data, err := writeSheet("Results", columns, rows)
	if err != nil {
		return nil, "", err
	}
	name := "quiz-results.xlsx"
	if quiz.QuizCode != nil {
		name = fmt.Sprintf("quiz-%s-results.xlsx", *quiz.QuizCode)
	}
	return data, name, nil
}

// ── converters ──

func (s *quizService) toQuizResponse(quiz *model.Quiz, withAnswers bool) *dto.QuizResponse {
	resp := &dto.QuizResponse{
		ID:               quiz.QuizID,
		Title:            quiz.Title,
		Description:      quiz.Description,
		Subject:          quiz.Subject,
		PhonemicLevel:    quiz.PhonemicLevel,
		GradeLevel:       quiz.GradeLevel,
		Status:           quiz.Status,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		PublishedAt:      formatTimePtr(quiz.PublishedAt),
		ClosesAt:         formatTimePtr(quiz.ClosesAt),
		MaxScore:         quiz.MaxScore(),
		QuestionCount:    len(quiz.Questions),
		CreatedAt:        formatTime(quiz.CreatedAt),
		Questions:        make([]dto.QuestionResponse, 0, len(quiz.Questions)),
	}
	if quiz.QuizCode != nil {
		resp.Code = *quiz.QuizCode
		resp.JoinURL = s.joinURL(*quiz.QuizCode)
	}
	if quiz.CreatedBy != nil {
		resp.CreatedBy = *quiz.CreatedBy
	}
	for i := range quiz.Questions {
		resp.Questions = append(resp.Questions, toQuestionResponse(&quiz.Questions[i], withAnswers))
	}
	return resp
}

// toQuizSummary list row: totals only, no questions.
func (s *quizService) toQuizSummary(quiz *model.Quiz) *dto.QuizResponse {
	resp := s.toQuizResponse(quiz, false)
	resp.Questions = nil
	return resp
}

func toQuestionResponse(q *model.QuizQuestion, withAnswer bool) dto.QuestionResponse {
	resp := dto.QuestionResponse{
		ID:       q.QuestionID,
		Position: q.Position,
		Kind:     q.Kind,
		Prompt:   q.Prompt,
		Choices:  []string(q.Choices),
		Points:   q.Points,
	}
	if withAnswer {
		resp.Answer = q.Answer
	}
	return resp
}

func toQuizResult(r *model.QuizResponse) dto.QuizResultResponse {
	res := dto.QuizResultResponse{
		ResponseID:  r.ResponseID,
		StudentID:   r.StudentID,
		Score:       r.Score,
		MaxScore:    r.MaxScore,
		Answers:     r.Answers.Data(),
		SubmittedAt: formatTime(r.SubmittedAt),
	}
	res.Percent = percent(int64(r.Score), int64(r.MaxScore))
	if r.Student != nil {
		res.StudentName = r.Student.FullName()
		res.LRN = r.Student.LRN
		res.Section = r.Student.Section
	}
	return res
}
