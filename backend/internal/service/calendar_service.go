package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/model"
	"literacy-hub/backend/internal/repository"
)

// ── calendar errors ──

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionTimeRange = errors.New("session must end after it starts")
	ErrInvalidDateRange = errors.New("invalid date range")
	// school-wide accounts have no grade of their own to fall back on
	ErrSessionGradeRequired = errors.New("session needs a grade level")
)

// CalendarService remedial session calendar.
type CalendarService interface {
	List(ctx context.Context, caller Caller, req *dto.SessionListRequest) ([]dto.SessionResponse, error)
	Create(ctx context.Context, caller Caller, req *dto.SessionRequest) (*dto.SessionResponse, error)
	Update(ctx context.Context, caller Caller, id string, req *dto.SessionRequest) (*dto.SessionResponse, error)
	Delete(ctx context.Context, caller Caller, id string) error
	ExportICS(ctx context.Context, caller Caller, req *dto.SessionListRequest) ([]byte, error)
	ImportICS(ctx context.Context, caller Caller, req *dto.CalendarImportRequest, reader io.Reader) (*dto.CalendarImportResponse, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewCalendarService creates a CalendarService. Floating .ics times are read
// in the server's local zone.
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger, loc: time.Local, now: time.Now}
}

// ────────────────────── List ──────────────────────

func (s *calendarService) List(ctx context.Context, caller Caller, req *dto.SessionListRequest) ([]dto.SessionResponse, error) {
	list, err := s.visible(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	result := make([]dto.SessionResponse, 0, len(list))
	for i := range list {
		result = append(result, *toSessionResponse(&list[i]))
	}
	return result, nil
}

// visible lists the sessions the caller may see: everything for school-wide
// roles, the grade for coordinators, their own sessions for everyone else.
func (s *calendarService) visible(ctx context.Context, caller Caller, req *dto.SessionListRequest) ([]model.RemedialSession, error) {
	filters, err := sessionFilters(caller, req, s.loc)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.Session.List(ctx, filters)
	if err != nil {
		s.logger.Error("list sessions failed", zap.Error(err))
		return nil, err
	}
	return list, nil
}

// sessionFilters scopes the list to the caller. Range dates are read in loc.
func sessionFilters(caller Caller, req *dto.SessionListRequest, loc *time.Location) (*repository.SessionListFilters, error) {
	filters := &repository.SessionListFilters{}
	switch {
	case caller.SchoolWide():
	case caller.Role == model.RoleCoordinator:
		filters.GradeLevel = caller.GradeLevel
	default:
		filters.TeacherID = caller.UserID
	}

	if req == nil {
		return filters, nil
	}
	if req.From != "" {
		from, err := time.ParseInLocation(dateLayout, req.From, loc)
		if err != nil {
			return nil, ErrInvalidDateRange
		}
		filters.From = from
	}
	if req.To != "" {
		to, err := time.ParseInLocation(dateLayout, req.To, loc)
		if err != nil {
			return nil, ErrInvalidDateRange
		}
		// inclusive end date
		filters.To = to.AddDate(0, 0, 1)
	}
	if !filters.From.IsZero() && !filters.To.IsZero() && !filters.To.After(filters.From) {
		return nil, ErrInvalidDateRange
	}
	return filters, nil
}

// ────────────────────── Create / Update / Delete ──────────────────────

func (s *calendarService) Create(ctx context.Context, caller Caller, req *dto.SessionRequest) (*dto.SessionResponse, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, ErrSessionTimeRange
	}

	teacher, err := s.resolveTeacher(ctx, caller, req.TeacherID)
	if err != nil {
		return nil, err
	}
	grade := req.GradeLevel
	if grade == 0 {
		grade = teacher.Grade()
	}
	if grade == 0 {
		return nil, ErrSessionGradeRequired
	}
	if !caller.SchoolWide() && caller.Role == model.RoleCoordinator && grade != caller.GradeLevel {
		return nil, ErrForbidden
	}

	session := &model.RemedialSession{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Subject:         req.Subject,
		TeacherID:       teacher.UserID,
		GradeLevel:      grade,
		Location:        req.Location,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.Audit(caller.UserID)},
	}
	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		return nil, err
	}
	session.Teacher = teacher
	return toSessionResponse(session), nil
}

// resolveTeacher returns the caller, or another teacher when the caller may
// schedule for others.
func (s *calendarService) resolveTeacher(ctx context.Context, caller Caller, teacherID string) (*model.User, error) {
	if teacherID == "" {
		teacherID = caller.UserID
	}
	if teacherID != caller.UserID && !caller.SchoolWide() && caller.Role != model.RoleCoordinator {
		return nil, ErrForbidden
	}

	teacher, err := s.repo.User.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load teacher failed", zap.String("id", teacherID), zap.Error(err))
		return nil, err
	}
	if teacherID != caller.UserID && caller.Role == model.RoleCoordinator && teacher.Grade() != caller.GradeLevel {
		return nil, ErrForbidden
	}
	return teacher, nil
}

func (s *calendarService) Update(ctx context.Context, caller Caller, id string, req *dto.SessionRequest) (*dto.SessionResponse, error) {
	session, err := s.loadEditable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, ErrSessionTimeRange
	}

	session.Title = strings.TrimSpace(req.Title)
	session.Description = req.Description
	session.Subject = req.Subject
	session.Location = req.Location
	session.StartsAt = req.StartsAt
	session.EndsAt = req.EndsAt
	if req.GradeLevel != 0 {
		if !caller.SchoolWide() && caller.Role == model.RoleCoordinator && req.GradeLevel != caller.GradeLevel {
			return nil, ErrForbidden
		}
		session.GradeLevel = req.GradeLevel
	}
	session.UpdatedBy = &caller.UserID

	if err := s.repo.Session.Update(ctx, session); err != nil {
		s.logger.Error("update session failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *calendarService) Delete(ctx context.Context, caller Caller, id string) error {
	if _, err := s.loadEditable(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Session.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("delete session failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// loadEditable loads a session the caller owns or manages.
func (s *calendarService) loadEditable(ctx context.Context, caller Caller, id string) (*model.RemedialSession, error) {
	session, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("load session failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if session.TeacherID != caller.UserID && !canManageGrade(caller, session.GradeLevel) {
		return nil, ErrForbidden
	}
	return session, nil
}

// ────────────────────── iCalendar ──────────────────────

func (s *calendarService) ExportICS(ctx context.Context, caller Caller, req *dto.SessionListRequest) ([]byte, error) {
	list, err := s.visible(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	return buildICS(list, s.now().UTC()), nil
}

// ImportICS creates one session per VEVENT for the caller. Invalid events are
// skipped and reported; valid ones are inserted together. Sessions land in
// the requested grade, or the caller's own when none is given.
func (s *calendarService) ImportICS(ctx context.Context, caller Caller, req *dto.CalendarImportRequest, reader io.Reader) (*dto.CalendarImportResponse, error) {
	grade := req.GradeLevel
	if grade == 0 {
		grade = caller.GradeLevel
	}
	if grade == 0 {
		return nil, ErrSessionGradeRequired
	}
	if caller.GradeLevel != 0 && grade != caller.GradeLevel {
		return nil, ErrForbidden
	}

	events, skipped, err := parseICS(reader, s.loc)
	if err != nil {
		s.logger.Warn("parse ics failed", zap.Error(err))
		return nil, err
	}

	sessions := make([]model.RemedialSession, 0, len(events))
	for _, evt := range events {
		title := evt.Summary
		if r := []rune(title); len(r) > 200 {
			title = string(r[:200])
		}
		sessions = append(sessions, model.RemedialSession{
			Title:           title,
			Description:     evt.Description,
			TeacherID:       caller.UserID,
			GradeLevel:      grade,
			Location:        evt.Location,
			StartsAt:        evt.Start,
			EndsAt:          evt.End,
			SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.Audit(caller.UserID)},
		})
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return tx.Session.BatchCreate(ctx, sessions)
	})
	if err != nil {
		s.logger.Error("import sessions failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("calendar imported",
		zap.String("user_id", caller.UserID),
		zap.Int("imported", len(sessions)),
		zap.Int("skipped", len(skipped)))
	return &dto.CalendarImportResponse{
		Imported: len(sessions),
		Skipped:  len(skipped),
		Errors:   skipped,
	}, nil
}

func toSessionResponse(s *model.RemedialSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		ID:          s.SessionID,
		Title:       s.Title,
		Description: s.Description,
		Subject:     s.Subject,
		Teacher:     toUserBrief(s.Teacher),
		TeacherID:   s.TeacherID,
		GradeLevel:  s.GradeLevel,
		Location:    s.Location,
		StartsAt:    formatTime(s.StartsAt),
		EndsAt:      formatTime(s.EndsAt),
	}
}
