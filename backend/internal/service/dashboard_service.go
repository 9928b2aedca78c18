package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/model"
	"literacy-hub/backend/internal/repository"
)

const activityWindow = 30 * 24 * time.Hour

// DashboardService role-scoped summary figures.
type DashboardService interface {
	Get(ctx context.Context, caller Caller) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(repo *repository.Repository, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, logger: logger, now: time.Now}
}

// statsScope narrows figures to what the caller can see.
func statsScope(caller Caller) repository.StatsScope {
	switch {
	case caller.SchoolWide():
		return repository.StatsScope{}
	case caller.Role == model.RoleCoordinator:
		return repository.StatsScope{GradeLevel: caller.GradeLevel}
	default:
		return repository.StatsScope{TeacherID: caller.UserID}
	}
}

func (s *dashboardService) Get(ctx context.Context, caller Caller) (*dto.DashboardResponse, error) {
	scope := statsScope(caller)
	stats := s.repo.Stats

	resp := &dto.DashboardResponse{
		Role:       caller.Role,
		GradeLevel: caller.GradeLevel,
		Levels:     make(map[string]map[string]int64, len(model.Subjects)),
	}

	if caller.Role == model.RoleSuperAdmin {
		perRole, err := stats.UsersPerRole(ctx)
		if err != nil {
			return nil, s.fail("users per role", err)
		}
		resp.UsersPerRole = perRole
	}

	perGrade, err := stats.StudentsPerGrade(ctx, scope)
	if err != nil {
		return nil, s.fail("students per grade", err)
	}
	resp.StudentsPerGrade = perGrade

	for _, subject := range model.Subjects {
		dist, err := stats.LevelDistribution(ctx, subject, scope)
		if err != nil {
			return nil, s.fail("level distribution", err)
		}
		resp.Levels[subject] = dist
	}

	assigned, total, err := stats.AssignmentCoverage(ctx, scope)
	if err != nil {
		return nil, s.fail("assignment coverage", err)
	}
	resp.Coverage = dto.CoverageResponse{Assigned: assigned, Total: total, Percent: percent(assigned, total)}

	createdBy := ""
	if !caller.SchoolWide() {
		createdBy = caller.UserID
	}
	quizzes, err := stats.QuizCountsByStatus(ctx, createdBy)
	if err != nil {
		return nil, s.fail("quiz counts", err)
	}
	resp.Quizzes = quizzes

	activity, err := stats.AttemptsSince(ctx, s.now().Add(-activityWindow), scope)
	if err != nil {
		return nil, s.fail("flashcard activity", err)
	}
	resp.Activity = dto.ActivityResponse{
		Attempts:         activity.Attempts,
		Students:         activity.DistinctStudents,
		AvgPronunciation: activity.AvgPronunciation,
	}

	return resp, nil
}

func (s *dashboardService) fail(what string, err error) error {
	s.logger.Error("dashboard query failed", zap.String("query", what), zap.Error(err))
	return err
}

// percent with one decimal; 0 when total is 0.
func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}
