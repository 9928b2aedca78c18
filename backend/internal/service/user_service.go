package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/model"
	"literacy-hub/backend/internal/repository"
	"literacy-hub/backend/pkg/mail"
)

// ── user errors ──

var (
	ErrEmailExists        = errors.New("email is already registered")
	ErrGradeRequired      = errors.New("grade level is required for this role")
	ErrUserSelfRoleChange = errors.New("cannot change your own role")
	ErrUserSelfDeactivate = errors.New("cannot deactivate your own account")
)

// UserService staff account management.
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.CreateUserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error)
	ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error)
	Import(ctx context.Context, reader io.Reader, callerID string) (*dto.ImportResult, error)
	Export(ctx context.Context, req *dto.UserListRequest) ([]byte, error)
	GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	mailer mail.Mailer
	logger *zap.Logger
}

// NewUserService creates a UserService. mailer may be nil.
func NewUserService(repo *repository.Repository, mailer mail.Mailer, logger *zap.Logger) UserService {
	return &userService{repo: repo, mailer: mailer, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.CreateUserResponse, error) {
	if model.RequiresGrade(req.Role) && req.GradeLevel == nil {
		return nil, ErrGradeRequired
	}
	if err := s.ensureEmailFree(ctx, req.Email, ""); err != nil {
		return nil, err
	}

	tempPassword, err := generateTempPassword(8)
	if err != nil {
		s.logger.Error("generate temp password failed", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		FirstName:          req.FirstName,
		MiddleName:         req.MiddleName,
		LastName:           req.LastName,
		Suffix:             req.Suffix,
		Email:              strings.ToLower(req.Email),
		Phone:              req.Phone,
		PasswordHash:       string(hash),
		Role:               req.Role,
		Section:            req.Section,
		Subject:            req.Subject,
		IsActive:           true,
		MustChangePassword: true,
		VersionedModel:     model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.Audit(callerID)}},
	}
	if model.RequiresGrade(req.Role) {
		user.GradeLevel = req.GradeLevel
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("create user failed", zap.Error(err))
		return nil, err
	}

	return &dto.CreateUserResponse{
		User:         *toUserResponse(user),
		TempPassword: tempPassword,
		Mailed:       s.mailTempPassword(ctx, user, tempPassword, false),
	}, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filters := &repository.UserListFilters{
		Role:       req.Role,
		GradeLevel: req.GradeLevel,
		Keyword:    req.Keyword,
	}

	users, total, err := s.repo.User.ListWithFilters(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil && *req.Role != user.Role && id == callerID {
		return nil, ErrUserSelfRoleChange
	}
	if req.IsActive != nil && !*req.IsActive && id == callerID {
		return nil, ErrUserSelfDeactivate
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.MiddleName != nil {
		user.MiddleName = *req.MiddleName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Suffix != nil {
		user.Suffix = *req.Suffix
	}
	if req.Email != nil && !strings.EqualFold(*req.Email, user.Email) {
		if err := s.ensureEmailFree(ctx, *req.Email, id); err != nil {
			return nil, err
		}
		user.Email = strings.ToLower(*req.Email)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.GradeLevel != nil {
		user.GradeLevel = req.GradeLevel
	}
	if req.Section != nil {
		user.Section = *req.Section
	}
	if req.Subject != nil {
		user.Subject = *req.Subject
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if model.RequiresGrade(user.Role) && user.GradeLevel == nil {
		return nil, ErrGradeRequired
	}
	if !model.RequiresGrade(user.Role) {
		user.GradeLevel = nil
	}

	user.Version = req.Version
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("update user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toUserResponse(user), nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	tempPassword, err := generateTempPassword(8)
	if err != nil {
		s.logger.Error("generate temp password failed", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = true
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("reset password failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return &dto.ResetPasswordResponse{
		TempPassword: tempPassword,
		Mailed:       s.mailTempPassword(ctx, user, tempPassword, true),
	}, nil
}

// ────────────────────── Import ──────────────────────

var userImportColumns = map[string][]string{
	"first_name":  {"First Name", "Firstname", "Given Name"},
	"middle_name": {"Middle Name", "Middlename"},
	"last_name":   {"Last Name", "Lastname", "Surname"},
	"suffix":      {"Suffix"},
	"email":       {"Email", "Email Address"},
	"phone":       {"Phone", "Contact", "Contact Number"},
	"role":        {"Role"},
	"grade":       {"Grade", "Grade Level"},
	"section":     {"Section"},
	"subject":     {"Subject"},
}

var userImportRequired = []string{"first_name", "last_name", "email", "role"}

type importedUser struct {
	user         model.User
	tempPassword string
}

func (s *userService) Import(ctx context.Context, reader io.Reader, callerID string) (*dto.ImportResult, error) {
	rows, err := readSheet(reader, userImportColumns, userImportRequired)
	if err != nil {
		return nil, err
	}

	result := &dto.ImportResult{Total: len(rows)}
	seen := make(map[string]bool, len(rows))
	var valid []importedUser

	// Validate every row before writing anything.
	for _, row := range rows {
		u, reason := s.parseUserRow(ctx, row, seen)
		if reason != "" {
			result.AddError(row.Row, reason)
			continue
		}

		tempPassword, err := generateTempPassword(8)
		if err != nil {
			s.logger.Error("generate temp password failed", zap.Error(err))
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("hash password failed", zap.Error(err))
			return nil, err
		}
		u.PasswordHash = string(hash)
		u.VersionedModel = model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.Audit(callerID)}}
		valid = append(valid, importedUser{user: u, tempPassword: tempPassword})
	}

	if len(valid) == 0 {
		return result, nil
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for i := range valid {
			if err := tx.User.Create(ctx, &valid[i].user); err != nil {
				return fmt.Errorf("create user %s: %w", valid[i].user.Email, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("import users rolled back", zap.Error(err))
		return nil, err
	}
	result.Success = len(valid)

	for i := range valid {
		s.mailTempPassword(ctx, &valid[i].user, valid[i].tempPassword, false)
	}

	s.logger.Info("users imported",
		zap.Int("total", result.Total), zap.Int("success", result.Success), zap.Int("failed", result.Failed))
	return result, nil
}

// parseUserRow returns a non-empty reason when the row is rejected.
func (s *userService) parseUserRow(ctx context.Context, row sheetRow, seen map[string]bool) (model.User, string) {
	u := model.User{
		FirstName:          row.get("first_name"),
		MiddleName:         row.get("middle_name"),
		LastName:           row.get("last_name"),
		Suffix:             row.get("suffix"),
		Email:              strings.ToLower(row.get("email")),
		Phone:              row.get("phone"),
		Role:               strings.ToLower(strings.ReplaceAll(strings.TrimSpace(row.get("role")), " ", "_")),
		Section:            row.get("section"),
		Subject:            strings.ToLower(row.get("subject")),
		IsActive:           true,
		MustChangePassword: true,
	}

	if u.FirstName == "" || u.LastName == "" || u.Email == "" || u.Role == "" {
		return u, "first name, last name, email and role are required"
	}
	if !strings.Contains(u.Email, "@") {
		return u, fmt.Sprintf("invalid email: %s", u.Email)
	}
	if !model.IsValidRole(u.Role) {
		return u, fmt.Sprintf("unknown role: %s", row.get("role"))
	}
	if u.Subject != "" && model.LevelsFor(u.Subject) == nil {
		return u, fmt.Sprintf("unknown subject: %s", row.get("subject"))
	}
	if g := row.get("grade"); g != "" {
		grade, err := parseGrade(g)
		if err != nil {
			return u, err.Error()
		}
		u.GradeLevel = &grade
	}
	if model.RequiresGrade(u.Role) && u.GradeLevel == nil {
		return u, "grade level is required for role " + u.Role
	}
	if !model.RequiresGrade(u.Role) {
		u.GradeLevel = nil
	}

	if seen[u.Email] {
		return u, fmt.Sprintf("duplicate email in file: %s", u.Email)
	}
	if _, err := s.repo.User.GetByEmail(ctx, u.Email); err == nil {
		return u, fmt.Sprintf("email already registered: %s", u.Email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return u, "email lookup failed"
	}
	seen[u.Email] = true
	return u, ""
}

// ────────────────────── Export ──────────────────────

func (s *userService) Export(ctx context.Context, req *dto.UserListRequest) ([]byte, error) {
	users, err := s.repo.User.ListAll(ctx, &repository.UserListFilters{
		Role:       req.Role,
		GradeLevel: req.GradeLevel,
		Keyword:    req.Keyword,
	})
	if err != nil {
		s.logger.Error("list users for export failed", zap.Error(err))
		return nil, err
	}

	columns := []sheetColumn{
		{"First Name", 16}, {"Middle Name", 14}, {"Last Name", 16}, {"Suffix", 8},
		{"Email", 30}, {"Phone", 16}, {"Role", 18}, {"Grade", 8},
		{"Section", 14}, {"Subject", 12}, {"Active", 8}, {"Last Login", 22},
	}
	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		grade := ""
		if u.GradeLevel != nil {
			grade = strconv.Itoa(*u.GradeLevel)
		}
		lastLogin := ""
		if u.LastLoginAt != nil {
			lastLogin = formatTime(*u.LastLoginAt)
		}
		active := "yes"
		if !u.IsActive {
			active = "no"
		}
		rows = append(rows, []interface{}{
			u.FirstName, u.MiddleName, u.LastName, u.Suffix,
			u.Email, u.Phone, u.Role, grade,
			u.Section, u.Subject, active, lastLogin,
		})
	}

	return writeSheet("Teachers", columns, rows)
}

// ────────────────────── Profile ──────────────────────

func (s *userService) GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	return s.GetByID(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.MiddleName != nil {
		user.MiddleName = *req.MiddleName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Suffix != nil {
		user.Suffix = *req.Suffix
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Section != nil {
		user.Section = *req.Section
	}
	user.UpdatedBy = &userID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("update profile failed", zap.String("id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ── helpers ──

func (s *userService) load(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *userService) ensureEmailFree(ctx context.Context, email, exceptID string) error {
	existing, err := s.repo.User.GetByEmail(ctx, email)
	if err == nil {
		if existing.UserID != exceptID {
			return ErrEmailExists
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("email lookup failed", zap.Error(err))
		return err
	}
	return nil
}

// mailTempPassword reports whether the password reached the mailer.
func (s *userService) mailTempPassword(ctx context.Context, user *model.User, tempPassword string, reset bool) bool {
	if s.mailer == nil {
		return false
	}
	subject := "Your Literacy Hub account"
	intro := "An account has been created for you."
	if reset {
		subject = "Your Literacy Hub password was reset"
		intro = "Your password has been reset by an administrator."
	}
	msg := mail.Message{
		ToName:  user.FullName(),
		ToEmail: user.Email,
		Subject: subject,
		Text: fmt.Sprintf("Hello %s,\n\n%s\n\nEmail: %s\nTemporary password: %s\n\nYou will be asked to change it after signing in.\n",
			user.FirstName, intro, user.Email, tempPassword),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("send temp password mail failed", zap.String("user_id", user.UserID), zap.Error(err))
		return false
	}
	return true
}

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:                 user.UserID,
		FirstName:          user.FirstName,
		MiddleName:         user.MiddleName,
		LastName:           user.LastName,
		Suffix:             user.Suffix,
		FullName:           user.FullName(),
		Email:              user.Email,
		Phone:              user.Phone,
		Role:               user.Role,
		GradeLevel:         user.GradeLevel,
		Section:            user.Section,
		Subject:            user.Subject,
		IsActive:           user.IsActive,
		MustChangePassword: user.MustChangePassword,
		LastLoginAt:        formatTimePtr(user.LastLoginAt),
		CreatedAt:          formatTime(user.CreatedAt),
		Version:            user.Version,
	}
}

func toUserBrief(user *model.User) *dto.UserBrief {
	if user == nil {
		return nil
	}
	return &dto.UserBrief{ID: user.UserID, FullName: user.FullName(), Role: user.Role}
}

// parseGrade accepts "3", "Grade 3" and "G3".
func parseGrade(s string) (int, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	t = strings.TrimPrefix(t, "grade")
	t = strings.TrimPrefix(t, "g")
	t = strings.TrimSpace(t)
	grade, err := strconv.Atoi(t)
	if err != nil || grade < model.MinGrade || grade > model.MaxGrade {
		return 0, fmt.Errorf("invalid grade level: %s", s)
	}
	return grade, nil
}

// generateTempPassword random password with at least one letter and one digit.
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = 8
	}

	result := make([]byte, length)

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	result[0] = letters[n.Int64()]

	n, err = rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
	if err != nil {
		return "", err
	}
	result[1] = digits[n.Int64()]

	for i := 2; i < length; i++ {
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(all))))
		if err != nil {
			return "", err
		}
		result[i] = all[n.Int64()]
	}

	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
