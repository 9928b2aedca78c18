package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"literacy-hub/backend/internal/model"
	pkgerrors "literacy-hub/backend/pkg/errors"
)

// UserListFilters user list filters.
type UserListFilters struct {
	Role       string
	GradeLevel int
	Keyword    string
}

// UserRepository staff account access.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	ListWithFilters(ctx context.Context, filters *UserListFilters, offset, limit int) ([]model.User, int64, error)
	ListAll(ctx context.Context, filters *UserListFilters) ([]model.User, error)
	ListEligibleTeachers(ctx context.Context, gradeLevel int) ([]model.User, error)
	HardDelete(ctx context.Context, id string) error
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a UserRepository.
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	oldVersion := user.Version
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ? AND version = ?", user.UserID, oldVersion).
		Updates(map[string]interface{}{
			"first_name":           user.FirstName,
			"middle_name":          user.MiddleName,
			"last_name":            user.LastName,
			"suffix":               user.Suffix,
			"email":                user.Email,
			"phone":                user.Phone,
			"password_hash":        user.PasswordHash,
			"role":                 user.Role,
			"grade_level":          user.GradeLevel,
			"section":              user.Section,
			"subject":              user.Subject,
			"is_active":            user.IsActive,
			"must_change_password": user.MustChangePassword,
			"updated_by":           user.UpdatedBy,
			"updated_at":           gorm.Expr("NOW()"),
			"version":              oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version = oldVersion + 1
	return nil
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *userRepo) filtered(ctx context.Context, filters *UserListFilters) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.User{})
	if filters == nil {
		return db
	}
	if filters.Role != "" {
		db = db.Where("role = ?", filters.Role)
	}
	if filters.GradeLevel > 0 {
		db = db.Where("grade_level = ?", filters.GradeLevel)
	}
	if filters.Keyword != "" {
		kw := "%" + filters.Keyword + "%"
		db = db.Where("(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)", kw, kw, kw)
	}
	return db
}

func (r *userRepo) ListWithFilters(ctx context.Context, filters *UserListFilters, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	if err := r.filtered(ctx, filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.filtered(ctx, filters).
		Offset(offset).Limit(limit).
		Order("last_name ASC, first_name ASC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) ListAll(ctx context.Context, filters *UserListFilters) ([]model.User, error) {
	var users []model.User
	err := r.filtered(ctx, filters).
		Order("role ASC, last_name ASC, first_name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListEligibleTeachers(ctx context.Context, gradeLevel int) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("grade_level = ? AND is_active = ? AND role IN ?", gradeLevel, true, model.AssignableRoles).
		Order("created_at ASC, user_id ASC").
		Find(&users).Error
	return users, err
}

// HardDelete removes the row permanently; archived accounts keep a snapshot.
func (r *userRepo) HardDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("user_id = ?", id).
		Delete(&model.User{}).Error
}
