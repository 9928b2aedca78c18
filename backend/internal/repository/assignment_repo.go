package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"literacy-hub/backend/internal/model"
)

// AssignmentListFilters assignment list filters.
type AssignmentListFilters struct {
	TeacherID  string
	GradeLevel int
}

// AssignmentRepository teacher_assignments access. A student has at most one row.
type AssignmentRepository interface {
	Upsert(ctx context.Context, assignment *model.TeacherAssignment) error
	InsertMissing(ctx context.Context, assignments []model.TeacherAssignment) (skipped []string, err error)
	GetByStudent(ctx context.Context, studentID string) (*model.TeacherAssignment, error)
	List(ctx context.Context, filters *AssignmentListFilters) ([]model.TeacherAssignment, error)
	CountByTeachers(ctx context.Context, teacherIDs []string) (map[string]int, error)
	IsAssigned(ctx context.Context, teacherID, studentID string) (bool, error)
	DeleteByStudent(ctx context.Context, studentID string) error
	DeleteByTeacher(ctx context.Context, teacherID string) (int64, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo creates an AssignmentRepository.
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

var assignmentConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "student_id"}},
	DoUpdates: clause.AssignmentColumns([]string{"teacher_id", "teacher_role", "grade_level", "method", "assigned_by", "assigned_at"}),
}

func (r *assignmentRepo) Upsert(ctx context.Context, assignment *model.TeacherAssignment) error {
	return r.db.WithContext(ctx).Clauses(assignmentConflict).Create(assignment).Error
}

// InsertMissing inserts rows for students that still have no assignment and
// leaves existing rows untouched. It returns the students whose row already
// existed, e.g. a manual assignment that landed after the unassigned scan.
func (r *assignmentRepo) InsertMissing(ctx context.Context, assignments []model.TeacherAssignment) ([]string, error) {
	if len(assignments) == 0 {
		return nil, nil
	}
	ids := make([]string, len(assignments))
	for i := range assignments {
		if assignments[i].AssignmentID == "" {
			assignments[i].AssignmentID = uuid.NewString()
		}
		ids[i] = assignments[i].AssignmentID
	}

	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}},
		DoNothing: true,
	}).CreateInBatches(assignments, 200).Error
	if err != nil {
		return nil, err
	}

	var inserted []string
	err = db.Model(&model.TeacherAssignment{}).
		Where("assignment_id IN ?", ids).
		Pluck("assignment_id", &inserted).Error
	if err != nil {
		return nil, err
	}
	landed := make(map[string]struct{}, len(inserted))
	for _, id := range inserted {
		landed[id] = struct{}{}
	}
	var skipped []string
	for _, a := range assignments {
		if _, ok := landed[a.AssignmentID]; !ok {
			skipped = append(skipped, a.StudentID)
		}
	}
	return skipped, nil
}

func (r *assignmentRepo) GetByStudent(ctx context.Context, studentID string) (*model.TeacherAssignment, error) {
	var a model.TeacherAssignment
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("student_id = ?", studentID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) List(ctx context.Context, filters *AssignmentListFilters) ([]model.TeacherAssignment, error) {
	var list []model.TeacherAssignment
	db := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Student")
	if filters != nil {
		if filters.TeacherID != "" {
			db = db.Where("teacher_id = ?", filters.TeacherID)
		}
		if filters.GradeLevel > 0 {
			db = db.Where("grade_level = ?", filters.GradeLevel)
		}
	}
	err := db.Order("assigned_at DESC").Find(&list).Error
	return list, err
}

func (r *assignmentRepo) CountByTeachers(ctx context.Context, teacherIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(teacherIDs))
	if len(teacherIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		TeacherID string
		Count     int
	}
	err := r.db.WithContext(ctx).
		Model(&model.TeacherAssignment{}).
		Select("teacher_id, COUNT(*) AS count").
		Where("teacher_id IN ?", teacherIDs).
		Group("teacher_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TeacherID] = row.Count
	}
	return counts, nil
}

func (r *assignmentRepo) IsAssigned(ctx context.Context, teacherID, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TeacherAssignment{}).
		Where("teacher_id = ? AND student_id = ?", teacherID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *assignmentRepo) DeleteByStudent(ctx context.Context, studentID string) error {
	return r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&model.TeacherAssignment{}).Error
}

func (r *assignmentRepo) DeleteByTeacher(ctx context.Context, teacherID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Delete(&model.TeacherAssignment{})
	return result.RowsAffected, result.Error
}
