package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"literacy-hub/backend/config"
	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/model"
	"literacy-hub/backend/internal/repository"
	"literacy-hub/backend/pkg/metrics"
	pkgredis "literacy-hub/backend/pkg/redis"
)

// ── assignment errors ──

var (
	ErrAssignmentInProgress = errors.New("auto-assignment for this grade is already running")
	ErrAssignmentNotFound   = errors.New("student has no assigned teacher")
	ErrTeacherNotEligible   = errors.New("teacher is inactive, of another grade, or cannot hold students")
)

// AssignmentService student to teacher assignment.
type AssignmentService interface {
	AutoAssign(ctx context.Context, caller Caller, req *dto.AutoAssignRequest) (*dto.AutoAssignResponse, error)
	Assign(ctx context.Context, caller Caller, req *dto.AssignRequest) (*dto.AssignmentResponse, error)
	Unassign(ctx context.Context, caller Caller, studentID string) error
	List(ctx context.Context, caller Caller, req *dto.AssignmentListRequest) ([]dto.AssignmentResponse, error)
}

type assignmentService struct {
	cfg    *config.AssignmentConfig
	repo   *repository.Repository
	cache  Cache
	logger *zap.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewAssignmentService creates an AssignmentService. cache may be nil, in
// which case auto-assignment runs without the per-grade lock.
func NewAssignmentService(
	cfg *config.AssignmentConfig,
	repo *repository.Repository,
	cache Cache,
	rng *rand.Rand,
	logger *zap.Logger,
) AssignmentService {
	return &assignmentService{cfg: cfg, repo: repo, cache: cache, rng: rng, logger: logger}
}

// ────────────────────── AutoAssign ──────────────────────

func (s *assignmentService) AutoAssign(ctx context.Context, caller Caller, req *dto.AutoAssignRequest) (*dto.AutoAssignResponse, error) {
	grade := req.GradeLevel
	if !canManageGrade(caller, grade) {
		return nil, ErrForbidden
	}

	if !req.DryRun {
		release, err := s.lockGrade(ctx, grade)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	teachers, err := s.repo.User.ListEligibleTeachers(ctx, grade)
	if err != nil {
		s.logger.Error("list eligible teachers failed", zap.Int("grade", grade), zap.Error(err))
		return nil, err
	}
	ids := make([]string, 0, len(teachers))
	for _, t := range teachers {
		ids = append(ids, t.UserID)
	}
	counts, err := s.repo.Assignment.CountByTeachers(ctx, ids)
	if err != nil {
		s.logger.Error("count assignments failed", zap.Int("grade", grade), zap.Error(err))
		return nil, err
	}
	students, err := s.repo.Student.ListUnassignedIDs(ctx, grade)
	if err != nil {
		s.logger.Error("list unassigned students failed", zap.Int("grade", grade), zap.Error(err))
		return nil, err
	}

	loads := make([]TeacherLoad, 0, len(teachers))
	for _, t := range teachers {
		loads = append(loads, TeacherLoad{TeacherID: t.UserID, Existing: counts[t.UserID]})
	}

	s.mu.Lock()
	placements, unplaced := Balance(students, loads, s.rng, s.cfg.MaxStudentsPerTeacher)
	s.mu.Unlock()

	var skipped []string
	if !req.DryRun && len(placements) > 0 {
		byID := make(map[string]*model.User, len(teachers))
		for i := range teachers {
			byID[teachers[i].UserID] = &teachers[i]
		}
		now := time.Now()
		rows := make([]model.TeacherAssignment, 0, len(placements))
		for _, p := range placements {
			rows = append(rows, model.TeacherAssignment{
				StudentID:   p.StudentID,
				TeacherID:   p.TeacherID,
				TeacherRole: byID[p.TeacherID].Role,
				GradeLevel:  grade,
				Method:      model.AssignMethodAuto,
				AssignedBy:  &caller.UserID,
				AssignedAt:  now,
			})
		}
		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			var err error
			skipped, err = tx.Assignment.InsertMissing(ctx, rows)
			return err
		})
		if err != nil {
			s.logger.Error("persist auto-assignment failed", zap.Int("grade", grade), zap.Error(err))
			return nil, err
		}
		if len(skipped) > 0 {
			s.logger.Warn("students assigned concurrently, left untouched",
				zap.Int("grade", grade), zap.Strings("students", skipped))
			placements = dropStudents(placements, skipped)
		}
		metrics.StudentsAutoAssigned.Add(float64(len(placements)))
	}

	added := make(map[string]int, len(teachers))
	for _, p := range placements {
		added[p.TeacherID]++
	}
	resp := &dto.AutoAssignResponse{
		GradeLevel: grade,
		DryRun:     req.DryRun,
		Placed:     len(placements),
		Teachers:   make([]dto.TeacherLoadResponse, 0, len(teachers)),
		Unplaced:   []string{},
		Skipped:    []string{},
	}
	if unplaced != nil {
		resp.Unplaced = unplaced
	}
	if skipped != nil {
		resp.Skipped = skipped
	}
	for i := range teachers {
		t := &teachers[i]
		existing := counts[t.UserID]
		resp.Teachers = append(resp.Teachers, dto.TeacherLoadResponse{
			TeacherID: t.UserID,
			FullName:  t.FullName(),
			Role:      t.Role,
			Existing:  existing,
			Added:     added[t.UserID],
			Total:     existing + added[t.UserID],
		})
	}

	s.logger.Info("auto-assignment finished",
		zap.Int("grade", grade),
		zap.Bool("dry_run", req.DryRun),
		zap.Int("teachers", len(teachers)),
		zap.Int("placed", len(placements)),
		zap.Int("unplaced", len(unplaced)),
		zap.Int("skipped", len(skipped)))
	return resp, nil
}

func dropStudents(placements []Placement, students []string) []Placement {
	gone := make(map[string]struct{}, len(students))
	for _, id := range students {
		gone[id] = struct{}{}
	}
	kept := make([]Placement, 0, len(placements))
	for _, p := range placements {
		if _, ok := gone[p.StudentID]; !ok {
			kept = append(kept, p)
		}
	}
	return kept
}

// lockGrade takes the per-grade redis lock. Without redis, or when redis
// fails, it degrades to running unlocked.
func (s *assignmentService) lockGrade(ctx context.Context, grade int) (func(), error) {
	noop := func() {}
	if s.cache == nil {
		return noop, nil
	}
	ttl := s.cfg.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	release, err := s.cache.AcquireLock(ctx, fmt.Sprintf("assign:grade:%d", grade), ttl)
	if errors.Is(err, pkgredis.ErrLockHeld) {
		return nil, ErrAssignmentInProgress
	}
	if err != nil {
		s.logger.Warn("assignment lock unavailable, running unlocked", zap.Int("grade", grade), zap.Error(err))
		return noop, nil
	}
	return release, nil
}

// ────────────────────── Assign ──────────────────────

func (s *assignmentService) Assign(ctx context.Context, caller Caller, req *dto.AssignRequest) (*dto.AssignmentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("load student failed", zap.String("id", req.StudentID), zap.Error(err))
		return nil, err
	}
	if !canManageGrade(caller, student.GradeLevel) {
		return nil, ErrForbidden
	}

	teacher, err := s.repo.User.GetByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load teacher failed", zap.String("id", req.TeacherID), zap.Error(err))
		return nil, err
	}
	if !eligibleFor(teacher, student.GradeLevel) {
		return nil, ErrTeacherNotEligible
	}

	assignment := &model.TeacherAssignment{
		StudentID:   student.StudentID,
		TeacherID:   teacher.UserID,
		TeacherRole: teacher.Role,
		GradeLevel:  student.GradeLevel,
		Method:      model.AssignMethodManual,
		AssignedBy:  &caller.UserID,
		AssignedAt:  time.Now(),
	}
	if err := s.repo.Assignment.Upsert(ctx, assignment); err != nil {
		s.logger.Error("assign student failed",
			zap.String("student_id", student.StudentID), zap.String("teacher_id", teacher.UserID), zap.Error(err))
		return nil, err
	}
	assignment.Teacher = teacher
	assignment.Student = student

	return toAssignmentResponse(assignment), nil
}

func eligibleFor(teacher *model.User, grade int) bool {
	if !teacher.IsActive || teacher.Grade() != grade {
		return false
	}
	for _, r := range model.AssignableRoles {
		if teacher.Role == r {
			return true
		}
	}
	return false
}

// ────────────────────── Unassign ──────────────────────

func (s *assignmentService) Unassign(ctx context.Context, caller Caller, studentID string) error {
	assignment, err := s.repo.Assignment.GetByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		s.logger.Error("load assignment failed", zap.String("student_id", studentID), zap.Error(err))
		return err
	}
	if !canManageGrade(caller, assignment.GradeLevel) {
		return ErrForbidden
	}

	if err := s.repo.Assignment.DeleteByStudent(ctx, studentID); err != nil {
		s.logger.Error("unassign student failed", zap.String("student_id", studentID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── List ──────────────────────

func (s *assignmentService) List(ctx context.Context, caller Caller, req *dto.AssignmentListRequest) ([]dto.AssignmentResponse, error) {
	filters := &repository.AssignmentListFilters{TeacherID: req.TeacherID, GradeLevel: req.GradeLevel}
	if !caller.SchoolWide() {
		filters.GradeLevel = caller.GradeLevel
	}

	list, err := s.repo.Assignment.List(ctx, filters)
	if err != nil {
		s.logger.Error("list assignments failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, *toAssignmentResponse(&list[i]))
	}
	return result, nil
}

func toAssignmentResponse(a *model.TeacherAssignment) *dto.AssignmentResponse {
	resp := &dto.AssignmentResponse{
		AssignmentID: a.AssignmentID,
		StudentID:    a.StudentID,
		TeacherID:    a.TeacherID,
		TeacherRole:  a.TeacherRole,
		GradeLevel:   a.GradeLevel,
		Method:       a.Method,
		AssignedAt:   formatTime(a.AssignedAt),
	}
	if a.Student != nil {
		resp.StudentName = a.Student.FullName()
		resp.LRN = a.Student.LRN
	}
	if a.Teacher != nil {
		resp.TeacherName = a.Teacher.FullName()
	}
	return resp
}
