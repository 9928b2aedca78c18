package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"literacy-hub/backend/internal/model"
)

// SessionListFilters calendar range and scope. Zero values do not filter.
type SessionListFilters struct {
	TeacherID  string
	GradeLevel int
	From       time.Time
	To         time.Time
}

// SessionRepository remedial_sessions access.
type SessionRepository interface {
	Create(ctx context.Context, session *model.RemedialSession) error
	BatchCreate(ctx context.Context, sessions []model.RemedialSession) error
	GetByID(ctx context.Context, id string) (*model.RemedialSession, error)
	List(ctx context.Context, filters *SessionListFilters) ([]model.RemedialSession, error)
	Update(ctx context.Context, session *model.RemedialSession) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo creates a SessionRepository.
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.RemedialSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) BatchCreate(ctx context.Context, sessions []model.RemedialSession) error {
	if len(sessions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(sessions, 100).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.RemedialSession, error) {
	var s model.RemedialSession
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("session_id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) List(ctx context.Context, filters *SessionListFilters) ([]model.RemedialSession, error) {
	db := r.db.WithContext(ctx).Preload("Teacher")
	if filters != nil {
		if filters.TeacherID != "" {
			db = db.Where("teacher_id = ?", filters.TeacherID)
		}
		if filters.GradeLevel > 0 {
			db = db.Where("grade_level = ?", filters.GradeLevel)
		}
		if !filters.From.IsZero() {
			db = db.Where("ends_at >= ?", filters.From)
		}
		if !filters.To.IsZero() {
			db = db.Where("starts_at < ?", filters.To)
		}
	}
	var list []model.RemedialSession
	err := db.Order("starts_at ASC").Find(&list).Error
	return list, err
}

func (r *sessionRepo) Update(ctx context.Context, session *model.RemedialSession) error {
	return r.db.WithContext(ctx).
		Model(&model.RemedialSession{}).
		Where("session_id = ?", session.SessionID).
		Updates(map[string]interface{}{
			"title":       session.Title,
			"description": session.Description,
			"subject":     session.Subject,
			"grade_level": session.GradeLevel,
			"location":    session.Location,
			"starts_at":   session.StartsAt,
			"ends_at":     session.EndsAt,
			"updated_by":  session.UpdatedBy,
			"updated_at":  gorm.Expr("NOW()"),
		}).Error
}

func (r *sessionRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.RemedialSession{}).
		Where("session_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
