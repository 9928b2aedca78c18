package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"literacy-hub/backend/internal/model"
)

// QuizListFilters quiz list filters. An empty CreatedBy lists every author.
type QuizListFilters struct {
	CreatedBy  string
	Status     string
	Subject    string
	GradeLevel int
}

// QuizRepository quizzes and their questions.
type QuizRepository interface {
	Create(ctx context.Context, quiz *model.Quiz) error
	GetByID(ctx context.Context, id string) (*model.Quiz, error)
	GetByCode(ctx context.Context, code string) (*model.Quiz, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, filters *QuizListFilters, offset, limit int) ([]model.Quiz, int64, error)
	Update(ctx context.Context, quiz *model.Quiz) error
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type quizRepo struct {
	db *gorm.DB
}

// NewQuizRepo creates a QuizRepository.
func NewQuizRepo(db *gorm.DB) QuizRepository {
	return &quizRepo{db: db}
}

func (r *quizRepo) Create(ctx context.Context, quiz *model.Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *quizRepo) GetByID(ctx context.Context, id string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		Where("quiz_id = ?", id).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepo) GetByCode(ctx context.Context, code string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		Where("quiz_code = ?", code).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Quiz{}).
		Where("quiz_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (r *quizRepo) List(ctx context.Context, filters *QuizListFilters, offset, limit int) ([]model.Quiz, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Quiz{})
	if filters != nil {
		if filters.CreatedBy != "" {
			db = db.Where("created_by = ?", filters.CreatedBy)
		}
		if filters.Status != "" {
			db = db.Where("status = ?", filters.Status)
		}
		if filters.Subject != "" {
			db = db.Where("subject = ?", filters.Subject)
		}
		if filters.GradeLevel > 0 {
			db = db.Where("grade_level = ?", filters.GradeLevel)
		}
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quizzes []model.Quiz
	if err := db.Preload("Questions", orderedQuestions).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

// Update rewrites the quiz row and replaces its questions.
func (r *quizRepo) Update(ctx context.Context, quiz *model.Quiz) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Quiz{}).
			Where("quiz_id = ?", quiz.QuizID).
			Updates(map[string]interface{}{
				"title":              quiz.Title,
				"description":        quiz.Description,
				"subject":            quiz.Subject,
				"phonemic_level":     quiz.PhonemicLevel,
				"grade_level":        quiz.GradeLevel,
				"time_limit_minutes": quiz.TimeLimitMinutes,
				"closes_at":          quiz.ClosesAt,
				"updated_by":         quiz.UpdatedBy,
				"updated_at":         gorm.Expr("NOW()"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("quiz_id = ?", quiz.QuizID).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		if len(quiz.Questions) == 0 {
			return nil
		}
		for i := range quiz.Questions {
			quiz.Questions[i].QuizID = quiz.QuizID
			quiz.Questions[i].QuestionID = ""
		}
		return tx.Create(&quiz.Questions).Error
	})
}

func (r *quizRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = gorm.Expr("NOW()")
	res := r.db.WithContext(ctx).
		Model(&model.Quiz{}).
		Where("quiz_id = ?", id).
		Updates(fields)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return gorm.ErrDuplicatedKey
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *quizRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Quiz{}).
		Where("quiz_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── quiz responses ──

// QuizResponseRepository quiz_responses access.
type QuizResponseRepository interface {
	Create(ctx context.Context, resp *model.QuizResponse) error
	Exists(ctx context.Context, quizID, studentID string) (bool, error)
	ListByQuiz(ctx context.Context, quizID string) ([]model.QuizResponse, error)
}

type quizResponseRepo struct {
	db *gorm.DB
}

// NewQuizResponseRepo creates a QuizResponseRepository.
func NewQuizResponseRepo(db *gorm.DB) QuizResponseRepository {
	return &quizResponseRepo{db: db}
}

func (r *quizResponseRepo) Create(ctx context.Context, resp *model.QuizResponse) error {
	return r.db.WithContext(ctx).Create(resp).Error
}

func (r *quizResponseRepo) Exists(ctx context.Context, quizID, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.QuizResponse{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *quizResponseRepo) ListByQuiz(ctx context.Context, quizID string) ([]model.QuizResponse, error) {
	var list []model.QuizResponse
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("quiz_id = ?", quizID).
		Order("submitted_at ASC").
		Find(&list).Error
	return list, err
}
