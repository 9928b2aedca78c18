package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"literacy-hub/backend/internal/model"
)

// FlashcardRepository flashcards access.
type FlashcardRepository interface {
	Create(ctx context.Context, card *model.Flashcard) error
	GetByID(ctx context.Context, id string) (*model.Flashcard, error)
	List(ctx context.Context, language, level string) ([]model.Flashcard, error)
	Update(ctx context.Context, card *model.Flashcard) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type flashcardRepo struct {
	db *gorm.DB
}

// NewFlashcardRepo creates a FlashcardRepository.
func NewFlashcardRepo(db *gorm.DB) FlashcardRepository {
	return &flashcardRepo{db: db}
}

func (r *flashcardRepo) Create(ctx context.Context, card *model.Flashcard) error {
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *flashcardRepo) GetByID(ctx context.Context, id string) (*model.Flashcard, error) {
	var card model.Flashcard
	if err := r.db.WithContext(ctx).Where("flashcard_id = ?", id).First(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *flashcardRepo) List(ctx context.Context, language, level string) ([]model.Flashcard, error) {
	var cards []model.Flashcard
	db := r.db.WithContext(ctx)
	if language != "" {
		db = db.Where("language = ?", language)
	}
	if level != "" {
		db = db.Where("phonemic_level = ?", level)
	}
	err := db.Order("language ASC, phonemic_level ASC, position ASC").Find(&cards).Error
	return cards, err
}

func (r *flashcardRepo) Update(ctx context.Context, card *model.Flashcard) error {
	return r.db.WithContext(ctx).
		Model(&model.Flashcard{}).
		Where("flashcard_id = ?", card.FlashcardID).
		Updates(map[string]interface{}{
			"language":       card.Language,
			"phonemic_level": card.PhonemicLevel,
			"sentence":       card.Sentence,
			"position":       card.Position,
			"updated_by":     card.UpdatedBy,
			"updated_at":     gorm.Expr("NOW()"),
		}).Error
}

func (r *flashcardRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Flashcard{}).
		Where("flashcard_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── attempts ──

// LanguageAverage average scores of a student in one language.
type LanguageAverage struct {
	Language           string  `json:"language"`
	Attempts           int64   `json:"attempts"`
	WordAccuracy       float64 `json:"word_accuracy"`
	PhonemeScore       float64 `json:"phoneme_score"`
	FluencyScore       float64 `json:"fluency_score"`
	PronunciationScore float64 `json:"pronunciation_score"`
}

// AttemptRepository flashcard_attempts access.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *model.FlashcardAttempt) error
	ListByStudent(ctx context.Context, studentID string, offset, limit int) ([]model.FlashcardAttempt, int64, error)
	AveragesByStudent(ctx context.Context, studentID string) ([]LanguageAverage, error)
}

type attemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo creates an AttemptRepository.
func NewAttemptRepo(db *gorm.DB) AttemptRepository {
	return &attemptRepo{db: db}
}

func (r *attemptRepo) Create(ctx context.Context, attempt *model.FlashcardAttempt) error {
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepo) ListByStudent(ctx context.Context, studentID string, offset, limit int) ([]model.FlashcardAttempt, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.FlashcardAttempt{}).Where("student_id = ?", studentID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.FlashcardAttempt
	err := db.Preload("Flashcard", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, total, err
}

func (r *attemptRepo) AveragesByStudent(ctx context.Context, studentID string) ([]LanguageAverage, error) {
	var rows []LanguageAverage
	err := r.db.WithContext(ctx).
		Model(&model.FlashcardAttempt{}).
		Select(`language,
			COUNT(*) AS attempts,
			ROUND(AVG(word_accuracy), 1) AS word_accuracy,
			ROUND(AVG(phoneme_score), 1) AS phoneme_score,
			ROUND(AVG(fluency_score), 1) AS fluency_score,
			ROUND(AVG(pronunciation_score), 1) AS pronunciation_score`).
		Where("student_id = ?", studentID).
		Group("language").
		Order("language ASC").
		Scan(&rows).Error
	return rows, err
}
