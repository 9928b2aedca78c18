package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"literacy-hub/backend/internal/model"
)

// StatsScope narrows dashboard figures. GradeLevel confines to one grade,
// TeacherID to the students assigned to that teacher.
type StatsScope struct {
	GradeLevel int
	TeacherID  string
}

// AttemptSummary flashcard activity over a period.
type AttemptSummary struct {
	Attempts         int64
	AvgPronunciation float64
	DistinctStudents int64
}

// StatsRepository aggregate queries for dashboards.
type StatsRepository interface {
	UsersPerRole(ctx context.Context) (map[string]int64, error)
	StudentsPerGrade(ctx context.Context, scope StatsScope) (map[int]int64, error)
	LevelDistribution(ctx context.Context, subject string, scope StatsScope) (map[string]int64, error)
	AssignmentCoverage(ctx context.Context, scope StatsScope) (assigned, total int64, err error)
	QuizCountsByStatus(ctx context.Context, createdBy string) (map[string]int64, error)
	AttemptsSince(ctx context.Context, since time.Time, scope StatsScope) (*AttemptSummary, error)
}

type statsRepo struct {
	db *gorm.DB
}

// NewStatsRepo creates a StatsRepository.
func NewStatsRepo(db *gorm.DB) StatsRepository {
	return &statsRepo{db: db}
}

func (r *statsRepo) students(ctx context.Context, scope StatsScope) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.Student{})
	if scope.GradeLevel > 0 {
		db = db.Where("students.grade_level = ?", scope.GradeLevel)
	}
	if scope.TeacherID != "" {
		db = db.Where("EXISTS (SELECT 1 FROM teacher_assignments ta WHERE ta.student_id = students.student_id AND ta.teacher_id = ?)", scope.TeacherID)
	}
	return db
}

func (r *statsRepo) UsersPerRole(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Role  string
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}

func (r *statsRepo) StudentsPerGrade(ctx context.Context, scope StatsScope) (map[int]int64, error) {
	var rows []struct {
		GradeLevel int
		Count      int64
	}
	err := r.students(ctx, scope).
		Select("students.grade_level AS grade_level, COUNT(*) AS count").
		Group("students.grade_level").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int]int64, len(rows))
	for _, row := range rows {
		out[row.GradeLevel] = row.Count
	}
	return out, nil
}

func (r *statsRepo) LevelDistribution(ctx context.Context, subject string, scope StatsScope) (map[string]int64, error) {
	col, ok := levelColumns[subject]
	if !ok {
		return map[string]int64{}, nil
	}
	var rows []struct {
		Level string
		Count int64
	}
	err := r.students(ctx, scope).
		Select("COALESCE(" + col + ", '') AS level, COUNT(*) AS count").
		Group("level").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Level] += row.Count
	}
	return out, nil
}

func (r *statsRepo) AssignmentCoverage(ctx context.Context, scope StatsScope) (int64, int64, error) {
	var total, assigned int64
	if err := r.students(ctx, scope).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err := r.students(ctx, scope).
		Where("EXISTS (SELECT 1 FROM teacher_assignments a WHERE a.student_id = students.student_id)").
		Count(&assigned).Error
	if err != nil {
		return 0, 0, err
	}
	return assigned, total, nil
}

func (r *statsRepo) QuizCountsByStatus(ctx context.Context, createdBy string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	db := r.db.WithContext(ctx).Model(&model.Quiz{})
	if createdBy != "" {
		db = db.Where("created_by = ?", createdBy)
	}
	if err := db.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *statsRepo) AttemptsSince(ctx context.Context, since time.Time, scope StatsScope) (*AttemptSummary, error) {
	var summary AttemptSummary
	db := r.db.WithContext(ctx).
		Table("flashcard_attempts fa").
		Joins("JOIN students ON students.student_id = fa.student_id AND students.deleted_at IS NULL").
		Where("fa.created_at >= ?", since)
	if scope.GradeLevel > 0 {
		db = db.Where("students.grade_level = ?", scope.GradeLevel)
	}
	if scope.TeacherID != "" {
		db = db.Where("EXISTS (SELECT 1 FROM teacher_assignments ta WHERE ta.student_id = students.student_id AND ta.teacher_id = ?)", scope.TeacherID)
	}
	err := db.Select(`COUNT(*) AS attempts,
			COALESCE(ROUND(AVG(fa.pronunciation_score), 1), 0) AS avg_pronunciation,
			COUNT(DISTINCT fa.student_id) AS distinct_students`).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
