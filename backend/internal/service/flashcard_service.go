package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/model"
	"literacy-hub/backend/internal/repository"
	"literacy-hub/backend/internal/scoring"
	"literacy-hub/backend/pkg/metrics"
)

// ── flashcard errors ──

var (
	ErrFlashcardNotFound  = errors.New("flashcard not found")
	ErrStudentNotAssigned = errors.New("student is not assigned to you")
	ErrInvalidSentence    = errors.New("sentence has no readable words")
)

// FlashcardService flashcards and scored reading attempts.
type FlashcardService interface {
	List(ctx context.Context, req *dto.FlashcardListRequest) ([]dto.FlashcardResponse, error)
	Create(ctx context.Context, caller Caller, req *dto.FlashcardRequest) (*dto.FlashcardResponse, error)
	Update(ctx context.Context, caller Caller, id string, req *dto.FlashcardRequest) (*dto.FlashcardResponse, error)
	Delete(ctx context.Context, caller Caller, id string) error
	Attempt(ctx context.Context, caller Caller, flashcardID string, req *dto.AttemptRequest) (*dto.AttemptResponse, error)
	History(ctx context.Context, caller Caller, studentID string, req *dto.PaginationRequest) (*dto.AttemptHistoryResponse, error)
}

type flashcardService struct {
	repo   *repository.Repository
	scorer *scoring.Scorer
	logger *zap.Logger
}

// NewFlashcardService creates a FlashcardService with the default scorer.
func NewFlashcardService(repo *repository.Repository, logger *zap.Logger) FlashcardService {
	return &flashcardService{repo: repo, scorer: scoring.NewScorer(), logger: logger}
}

// ────────────────────── CRUD ──────────────────────

func (s *flashcardService) List(ctx context.Context, req *dto.FlashcardListRequest) ([]dto.FlashcardResponse, error) {
	cards, err := s.repo.Flashcard.List(ctx, req.Language, req.Level)
	if err != nil {
		s.logger.Error("list flashcards failed", zap.Error(err))
		return nil, err
	}
	result := make([]dto.FlashcardResponse, 0, len(cards))
	for i := range cards {
		result = append(result, *toFlashcardResponse(&cards[i]))
	}
	return result, nil
}

func (s *flashcardService) Create(ctx context.Context, caller Caller, req *dto.FlashcardRequest) (*dto.FlashcardResponse, error) {
	if !model.IsValidLevel(flashcardSubject(req.Language), req.PhonemicLevel) {
		return nil, ErrInvalidLevel
	}
	if !readableSentence(req.Sentence, req.Language) {
		return nil, ErrInvalidSentence
	}
	card := &model.Flashcard{
		Language:        req.Language,
		PhonemicLevel:   req.PhonemicLevel,
		Sentence:        strings.TrimSpace(req.Sentence),
		Position:        req.Position,
		SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.Audit(caller.UserID)},
	}
	if err := s.repo.Flashcard.Create(ctx, card); err != nil {
		s.logger.Error("create flashcard failed", zap.Error(err))
		return nil, err
	}
	return toFlashcardResponse(card), nil
}

func (s *flashcardService) Update(ctx context.Context, caller Caller, id string, req *dto.FlashcardRequest) (*dto.FlashcardResponse, error) {
	card, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.IsValidLevel(flashcardSubject(req.Language), req.PhonemicLevel) {
		return nil, ErrInvalidLevel
	}
	if !readableSentence(req.Sentence, req.Language) {
		return nil, ErrInvalidSentence
	}

	card.Language = req.Language
	card.PhonemicLevel = req.PhonemicLevel
	card.Sentence = strings.TrimSpace(req.Sentence)
	card.Position = req.Position
	card.UpdatedBy = &caller.UserID

	if err := s.repo.Flashcard.Update(ctx, card); err != nil {
		s.logger.Error("update flashcard failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toFlashcardResponse(card), nil
}

func (s *flashcardService) Delete(ctx context.Context, caller Caller, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Flashcard.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("delete flashcard failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *flashcardService) load(ctx context.Context, id string) (*model.Flashcard, error) {
	card, err := s.repo.Flashcard.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlashcardNotFound
		}
		s.logger.Error("load flashcard failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return card, nil
}

// flashcardSubject maps a card language to the subject whose levels apply.
func flashcardSubject(language string) string {
	if language == string(scoring.Filipino) {
		return model.SubjectFilipino
	}
	return model.SubjectEnglish
}

// readableSentence reports whether the sentence leaves at least one word to
// score after normalization.
func readableSentence(sentence, language string) bool {
	return len(scoring.Normalize(sentence, scoring.Language(language))) > 0
}

// ────────────────────── Attempt ──────────────────────

func (s *flashcardService) Attempt(ctx context.Context, caller Caller, flashcardID string, req *dto.AttemptRequest) (*dto.AttemptResponse, error) {
	card, err := s.load(ctx, flashcardID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Student.GetByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("load student failed", zap.String("id", req.StudentID), zap.Error(err))
		return nil, err
	}
	if !caller.SchoolWide() {
		ok, err := s.repo.Assignment.IsAssigned(ctx, caller.UserID, req.StudentID)
		if err != nil {
			s.logger.Error("check assignment failed", zap.Error(err))
			return nil, err
		}
		if !ok {
			return nil, ErrStudentNotAssigned
		}
	}

	lang := scoring.Language(card.Language)
	result, err := s.scorer.Score(scoring.Input{
		Expected:         card.Sentence,
		Transcript:       req.Transcript,
		Language:         lang,
		Amplitudes:       req.Amplitudes,
		SilenceThreshold: req.SilenceThreshold,
	})
	if err != nil {
		s.logger.Warn("score attempt failed", zap.String("flashcard_id", flashcardID), zap.Error(err))
		return nil, err
	}

	words := make([]model.WordResult, 0, len(result.Words))
	for _, w := range result.Words {
		words = append(words, model.WordResult{
			Expected:   w.Expected,
			Heard:      w.Heard,
			Similarity: w.Similarity,
			Correct:    w.Correct,
		})
	}
	attempt := &model.FlashcardAttempt{
		FlashcardID:        card.FlashcardID,
		StudentID:          req.StudentID,
		RecordedBy:         caller.UserID,
		Language:           card.Language,
		Transcript:         req.Transcript,
		WordAccuracy:       result.WordAccuracy,
		PhonemeScore:       result.PhonemeScore,
		FluencyScore:       result.FluencyScore,
		PronunciationScore: result.PronunciationScore,
		SilenceRatio:       result.SilenceRatio,
		Remark:             result.Remark,
		WordResults:        datatypes.JSONSlice[model.WordResult](words),
	}
	if err := s.repo.Attempt.Create(ctx, attempt); err != nil {
		s.logger.Error("save attempt failed", zap.String("flashcard_id", flashcardID), zap.Error(err))
		return nil, err
	}

	metrics.FlashcardAttempts.WithLabelValues(card.Language, result.Remark).Inc()
	metrics.PronunciationScore.Observe(result.PronunciationScore)

	attempt.Flashcard = card
	return toAttemptResponse(attempt), nil
}

// ────────────────────── History ──────────────────────

func (s *flashcardService) History(ctx context.Context, caller Caller, studentID string, req *dto.PaginationRequest) (*dto.AttemptHistoryResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("load student failed", zap.String("id", studentID), zap.Error(err))
		return nil, err
	}
	if !canSeeStudent(caller, student) {
		return nil, ErrForbidden
	}

	list, total, err := s.repo.Attempt.ListByStudent(ctx, studentID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list attempts failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	averages, err := s.repo.Attempt.AveragesByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("average attempts failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	resp := &dto.AttemptHistoryResponse{
		StudentID: studentID,
		Averages:  make([]dto.LanguageAverageResponse, 0, len(averages)),
		List:      make([]dto.AttemptResponse, 0, len(list)),
		Total:     total,
		Page:      req.GetPage(),
		PageSize:  req.GetPageSize(),
	}
	for _, a := range averages {
		resp.Averages = append(resp.Averages, dto.LanguageAverageResponse{
			Language:           a.Language,
			Attempts:           a.Attempts,
			WordAccuracy:       a.WordAccuracy,
			PhonemeScore:       a.PhonemeScore,
			FluencyScore:       a.FluencyScore,
			PronunciationScore: a.PronunciationScore,
		})
	}
	for i := range list {
		resp.List = append(resp.List, *toAttemptResponse(&list[i]))
	}
	return resp, nil
}

// ── converters ──

func toFlashcardResponse(c *model.Flashcard) *dto.FlashcardResponse {
	return &dto.FlashcardResponse{
		ID:            c.FlashcardID,
		Language:      c.Language,
		PhonemicLevel: c.PhonemicLevel,
		Sentence:      c.Sentence,
		Position:      c.Position,
	}
}

func toAttemptResponse(a *model.FlashcardAttempt) *dto.AttemptResponse {
	resp := &dto.AttemptResponse{
		AttemptID:          a.AttemptID,
		FlashcardID:        a.FlashcardID,
		StudentID:          a.StudentID,
		Language:           a.Language,
		Transcript:         a.Transcript,
		WordAccuracy:       a.WordAccuracy,
		PhonemeScore:       a.PhonemeScore,
		FluencyScore:       a.FluencyScore,
		PronunciationScore: a.PronunciationScore,
		SilenceRatio:       a.SilenceRatio,
		Remark:             a.Remark,
		Words:              make([]dto.WordResultResponse, 0, len(a.WordResults)),
		CreatedAt:          formatTime(a.CreatedAt),
	}
	if a.Flashcard != nil {
		resp.Sentence = a.Flashcard.Sentence
	}
	for _, w := range a.WordResults {
		resp.Words = append(resp.Words, dto.WordResultResponse{
			Expected:   w.Expected,
			Heard:      w.Heard,
			Similarity: w.Similarity,
			Correct:    w.Correct,
		})
	}
	return resp
}
