package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"literacy-hub/backend/config"
	"literacy-hub/backend/internal/model"
	"literacy-hub/backend/internal/repository"
	"literacy-hub/backend/pkg/jwt"
	"literacy-hub/backend/pkg/mail"
)

// ErrForbidden the caller's role or scope does not cover the target.
var ErrForbidden = errors.New("permission denied")

// Caller the authenticated user a request runs as.
type Caller struct {
	UserID     string
	Role       string
	GradeLevel int
}

// SchoolWide reports whether the caller sees every grade.
func (c Caller) SchoolWide() bool { return model.IsSchoolWide(c.Role) }

// AssignedOnly reports whether the caller is confined to their own students.
func (c Caller) AssignedOnly() bool {
	return c.Role == model.RoleTeacher || c.Role == model.RoleRemedialTeacher
}

// Cache is the redis surface services use. A nil Cache means redis is down
// and every feature that depends on it degrades or reports ErrRedisUnavailable.
type Cache interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (func(), error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// Service aggregates every service.
type Service struct {
	Auth       AuthService
	User       UserService
	Student    StudentService
	Archive    ArchiveService
	Assignment AssignmentService
	Quiz       QuizService
	Flashcard  FlashcardService
	Calendar   CalendarService
	Dashboard  DashboardService
}

// NewService builds the aggregate. cache may be nil.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	cache Cache,
	mailer mail.Mailer,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, cache, logger),
		User:       NewUserService(repo, mailer, logger),
		Student:    NewStudentService(repo, logger),
		Archive:    NewArchiveService(&cfg.Archive, repo, logger),
		Assignment: NewAssignmentService(&cfg.Assignment, repo, cache, rand.New(rand.NewSource(time.Now().UnixNano())), logger),
		Quiz:       NewQuizService(cfg, repo, jwtMgr, cache, logger),
		Flashcard:  NewFlashcardService(repo, logger),
		Calendar:   NewCalendarService(repo, logger),
		Dashboard:  NewDashboardService(repo, logger),
	}
}

// ── shared helpers ──

const (
	timeLayout = time.RFC3339
	dateLayout = "2006-01-02"
)

func formatTime(t time.Time) string { return t.Format(timeLayout) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}
