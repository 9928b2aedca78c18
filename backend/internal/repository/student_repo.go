package repository

import (
	"context"

	"gorm.io/gorm"

	"literacy-hub/backend/internal/model"
	pkgerrors "literacy-hub/backend/pkg/errors"
)

// StudentListFilters student list filters. TeacherID confines the list to
// that teacher's assigned students.
type StudentListFilters struct {
	GradeLevel int
	Section    string
	Subject    string
	Level      string
	Keyword    string
	Unassigned bool
	TeacherID  string
}

// StudentRepository learner record access.
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	BatchCreate(ctx context.Context, students []model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByLRN(ctx context.Context, lrn string) (*model.Student, error)
	ExistingLRNs(ctx context.Context, lrns []string) (map[string]bool, error)
	Update(ctx context.Context, student *model.Student) error
	ListWithFilters(ctx context.Context, filters *StudentListFilters, offset, limit int) ([]model.Student, int64, error)
	ListAll(ctx context.Context, filters *StudentListFilters) ([]model.Student, error)
	ListUnassignedIDs(ctx context.Context, gradeLevel int) ([]string, error)
	HardDelete(ctx context.Context, id string) error
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo creates a StudentRepository.
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) BatchCreate(ctx context.Context, students []model.Student) error {
	if len(students) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(students, 100).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("Assignment").
		Preload("Assignment.Teacher").
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByLRN(ctx context.Context, lrn string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("lrn = ?", lrn).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) ExistingLRNs(ctx context.Context, lrns []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(lrns) == 0 {
		return found, nil
	}
	var rows []string
	if err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("lrn IN ?", lrns).
		Pluck("lrn", &rows).Error; err != nil {
		return nil, err
	}
	for _, l := range rows {
		found[l] = true
	}
	return found, nil
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	oldVersion := student.Version
	result := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ? AND version = ?", student.StudentID, oldVersion).
		Updates(map[string]interface{}{
			"lrn":              student.LRN,
			"first_name":       student.FirstName,
			"middle_name":      student.MiddleName,
			"last_name":        student.LastName,
			"suffix":           student.Suffix,
			"sex":              student.Sex,
			"birth_date":       student.BirthDate,
			"grade_level":      student.GradeLevel,
			"section":          student.Section,
			"guardian_name":    student.GuardianName,
			"guardian_contact": student.GuardianContact,
			"address":          student.Address,
			"english_level":    student.EnglishLevel,
			"filipino_level":   student.FilipinoLevel,
			"math_level":       student.MathLevel,
			"updated_by":       student.UpdatedBy,
			"updated_at":       gorm.Expr("NOW()"),
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	student.Version = oldVersion + 1
	return nil
}

// levelColumns whitelists the per-subject level columns used in filters.
var levelColumns = map[string]string{
	model.SubjectEnglish:  "students.english_level",
	model.SubjectFilipino: "students.filipino_level",
	model.SubjectMath:     "students.math_level",
}

func (r *studentRepo) filtered(ctx context.Context, filters *StudentListFilters) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.Student{})
	if filters == nil {
		return db
	}
	if filters.GradeLevel > 0 {
		db = db.Where("students.grade_level = ?", filters.GradeLevel)
	}
	if filters.Section != "" {
		db = db.Where("students.section = ?", filters.Section)
	}
	if col, ok := levelColumns[filters.Subject]; ok && filters.Level != "" {
		db = db.Where(col+" = ?", filters.Level)
	}
	if filters.Keyword != "" {
		kw := "%" + filters.Keyword + "%"
		db = db.Where("(students.first_name ILIKE ? OR students.last_name ILIKE ? OR students.lrn LIKE ?)", kw, kw, kw)
	}
	if filters.TeacherID != "" {
		db = db.Where("EXISTS (SELECT 1 FROM teacher_assignments ta WHERE ta.student_id = students.student_id AND ta.teacher_id = ?)", filters.TeacherID)
	}
	if filters.Unassigned {
		db = db.Where("NOT EXISTS (SELECT 1 FROM teacher_assignments ta WHERE ta.student_id = students.student_id)")
	}
	return db
}

func (r *studentRepo) ListWithFilters(ctx context.Context, filters *StudentListFilters, offset, limit int) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	if err := r.filtered(ctx, filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.filtered(ctx, filters).
		Preload("Assignment").
		Preload("Assignment.Teacher").
		Offset(offset).Limit(limit).
		Order("students.grade_level ASC, students.last_name ASC, students.first_name ASC").
		Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepo) ListAll(ctx context.Context, filters *StudentListFilters) ([]model.Student, error) {
	var students []model.Student
	err := r.filtered(ctx, filters).
		Preload("Assignment").
		Preload("Assignment.Teacher").
		Order("students.grade_level ASC, students.section ASC, students.last_name ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) ListUnassignedIDs(ctx context.Context, gradeLevel int) ([]string, error) {
	var ids []string
	err := r.filtered(ctx, &StudentListFilters{GradeLevel: gradeLevel, Unassigned: true}).
		Order("students.created_at ASC, students.student_id ASC").
		Pluck("students.student_id", &ids).Error
	return ids, err
}

func (r *studentRepo) HardDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("student_id = ?", id).
		Delete(&model.Student{}).Error
}
