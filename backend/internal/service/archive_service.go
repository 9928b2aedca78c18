package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"literacy-hub/backend/config"
	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/model"
	"literacy-hub/backend/internal/repository"
)

// ── archive errors ──

var (
	ErrArchiveSelf     = errors.New("cannot archive your own account")
	ErrArchiveNotFound = errors.New("archive entry not found")
	ErrArchiveType     = errors.New("archive type must be users or students")
	ErrArchiveConflict = errors.New("an active record already uses this email or LRN")
	ErrArchivePurgeOff = errors.New("archive retention is disabled")
)

// ArchiveService moves deleted accounts and learners into the archive and back.
type ArchiveService interface {
	ArchiveUser(ctx context.Context, caller Caller, id string, req *dto.ArchiveRequest) (*dto.ArchiveEntryResponse, error)
	ArchiveStudent(ctx context.Context, caller Caller, id string, req *dto.ArchiveRequest) (*dto.ArchiveEntryResponse, error)
	List(ctx context.Context, req *dto.ArchiveListRequest) ([]dto.ArchiveEntryResponse, int64, error)
	Get(ctx context.Context, archiveType, archiveID string) (*dto.ArchiveEntryResponse, error)
	Restore(ctx context.Context, archiveType, archiveID string) (*dto.RestoreResponse, error)
	Delete(ctx context.Context, archiveType, archiveID string) error
	Purge(ctx context.Context) (*dto.PurgeResponse, error)
}

type archiveService struct {
	cfg    *config.ArchiveConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewArchiveService creates an ArchiveService.
func NewArchiveService(cfg *config.ArchiveConfig, repo *repository.Repository, logger *zap.Logger) ArchiveService {
	return &archiveService{cfg: cfg, repo: repo, logger: logger}
}

// ────────────────────── ArchiveUser ──────────────────────

func (s *archiveService) ArchiveUser(ctx context.Context, caller Caller, id string, req *dto.ArchiveRequest) (*dto.ArchiveEntryResponse, error) {
	if id == caller.UserID {
		return nil, ErrArchiveSelf
	}

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	entry := &model.ArchivedUser{
		OriginalID: user.UserID,
		FullName:   user.FullName(),
		Email:      user.Email,
		Role:       user.Role,
		Reason:     req.Reason,
		ArchivedBy: &caller.UserID,
		ArchivedAt: time.Now(),
	}

	var released int64
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		snapshot, err := tx.Archive.Snapshot(ctx, model.User{}.TableName(), "user_id", id)
		if err != nil {
			return fmt.Errorf("snapshot user: %w", err)
		}
		entry.Snapshot = datatypes.JSONMap(snapshot)
		if entry.Dependents, err = detachDependents(ctx, tx, model.UserDependents, id); err != nil {
			return err
		}

		if released, err = tx.Assignment.DeleteByTeacher(ctx, id); err != nil {
			return fmt.Errorf("release assignments: %w", err)
		}
		if err := tx.Archive.CreateUser(ctx, entry); err != nil {
			return fmt.Errorf("create archive entry: %w", err)
		}
		return tx.User.HardDelete(ctx, id)
	})
	if err != nil {
		s.logger.Error("archive user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("user archived",
		zap.String("id", id), zap.String("by", caller.UserID), zap.Int64("released_students", released))
	return archivedUserResponse(entry, false), nil
}

// ────────────────────── ArchiveStudent ──────────────────────

func (s *archiveService) ArchiveStudent(ctx context.Context, caller Caller, id string, req *dto.ArchiveRequest) (*dto.ArchiveEntryResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("load student failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !canManageGrade(caller, student.GradeLevel) {
		return nil, ErrForbidden
	}

	entry := &model.ArchivedStudent{
		OriginalID: student.StudentID,
		FullName:   student.FullName(),
		LRN:        student.LRN,
		GradeLevel: student.GradeLevel,
		Reason:     req.Reason,
		ArchivedBy: &caller.UserID,
		ArchivedAt: time.Now(),
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		snapshot, err := tx.Archive.Snapshot(ctx, model.Student{}.TableName(), "student_id", id)
		if err != nil {
			return fmt.Errorf("snapshot student: %w", err)
		}
		entry.Snapshot = datatypes.JSONMap(snapshot)
		if entry.Dependents, err = detachDependents(ctx, tx, model.StudentDependents, id); err != nil {
			return err
		}

		if err := tx.Assignment.DeleteByStudent(ctx, id); err != nil {
			return fmt.Errorf("release assignment: %w", err)
		}
		if err := tx.Archive.CreateStudent(ctx, entry); err != nil {
			return fmt.Errorf("create archive entry: %w", err)
		}
		return tx.Student.HardDelete(ctx, id)
	})
	if err != nil {
		s.logger.Error("archive student failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("student archived", zap.String("id", id), zap.String("by", caller.UserID))
	return archivedStudentResponse(entry, false), nil
}

// ────────────────────── List ──────────────────────

func (s *archiveService) List(ctx context.Context, req *dto.ArchiveListRequest) ([]dto.ArchiveEntryResponse, int64, error) {
	archiveType := req.Type
	if archiveType == "" {
		archiveType = model.ArchiveTypeUsers
	}

	var (
		result []dto.ArchiveEntryResponse
		total  int64
		err    error
	)
	switch archiveType {
	case model.ArchiveTypeUsers:
		var list []model.ArchivedUser
		list, total, err = s.repo.Archive.ListUsers(ctx, req.Keyword, req.GetOffset(), req.GetPageSize())
		for i := range list {
			result = append(result, *archivedUserResponse(&list[i], false))
		}
	case model.ArchiveTypeStudents:
		var list []model.ArchivedStudent
		list, total, err = s.repo.Archive.ListStudents(ctx, req.Keyword, req.GetOffset(), req.GetPageSize())
		for i := range list {
			result = append(result, *archivedStudentResponse(&list[i], false))
		}
	default:
		return nil, 0, ErrArchiveType
	}

	if errors.Is(err, repository.ErrTableMissing) {
		s.logger.Warn("archive table missing, returning empty list", zap.String("type", archiveType))
		return []dto.ArchiveEntryResponse{}, 0, nil
	}
	if err != nil {
		s.logger.Error("list archive failed", zap.String("type", archiveType), zap.Error(err))
		return nil, 0, err
	}
	if result == nil {
		result = []dto.ArchiveEntryResponse{}
	}
	return result, total, nil
}

// ────────────────────── Get ──────────────────────

// Get returns one entry including its snapshot.
func (s *archiveService) Get(ctx context.Context, archiveType, archiveID string) (*dto.ArchiveEntryResponse, error) {
	var (
		resp *dto.ArchiveEntryResponse
		err  error
	)
	switch archiveType {
	case model.ArchiveTypeUsers:
		var a *model.ArchivedUser
		if a, err = s.repo.Archive.GetUser(ctx, archiveID); err == nil {
			resp = archivedUserResponse(a, true)
		}
	case model.ArchiveTypeStudents:
		var a *model.ArchivedStudent
		if a, err = s.repo.Archive.GetStudent(ctx, archiveID); err == nil {
			resp = archivedStudentResponse(a, true)
		}
	default:
		return nil, ErrArchiveType
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArchiveNotFound
	}
	if err != nil {
		s.logger.Error("load archive entry failed", zap.String("archive_id", archiveID), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// ────────────────────── Restore ──────────────────────

func (s *archiveService) Restore(ctx context.Context, archiveType, archiveID string) (*dto.RestoreResponse, error) {
	switch archiveType {
	case model.ArchiveTypeUsers:
		return s.restoreUser(ctx, archiveID)
	case model.ArchiveTypeStudents:
		return s.restoreStudent(ctx, archiveID)
	}
	return nil, ErrArchiveType
}

func (s *archiveService) restoreUser(ctx context.Context, archiveID string) (*dto.RestoreResponse, error) {
	entry, err := s.repo.Archive.GetUser(ctx, archiveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArchiveNotFound
		}
		s.logger.Error("load archive entry failed", zap.String("archive_id", archiveID), zap.Error(err))
		return nil, err
	}

	if _, err := s.repo.User.GetByEmail(ctx, entry.Email); err == nil {
		return nil, ErrArchiveConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("email lookup failed", zap.Error(err))
		return nil, err
	}

	var (
		dropped []string
		counts  dependentCounts
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		if dropped, err = tx.Archive.RestoreRow(ctx, model.User{}.TableName(), restorableRow(entry.Snapshot)); err != nil {
			return err
		}
		if counts, err = reattachDependents(ctx, tx, model.UserDependents, entry.Dependents); err != nil {
			return err
		}
		return tx.Archive.DeleteUser(ctx, archiveID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrArchiveConflict
		}
		s.logger.Error("restore user failed", zap.String("archive_id", archiveID), zap.Error(err))
		return nil, err
	}

	if len(dropped) > 0 {
		s.logger.Warn("restored user without obsolete columns",
			zap.String("id", entry.OriginalID), zap.Strings("dropped", dropped))
	}
	if counts.skipped > 0 {
		s.logger.Warn("restored user without some dependent rows",
			zap.String("id", entry.OriginalID), zap.Int("skipped", counts.skipped))
	}
	return &dto.RestoreResponse{
		Type:               model.ArchiveTypeUsers,
		ID:                 entry.OriginalID,
		DroppedColumns:     dropped,
		RestoredDependents: counts.restored,
		SkippedDependents:  counts.skipped,
	}, nil
}

func (s *archiveService) restoreStudent(ctx context.Context, archiveID string) (*dto.RestoreResponse, error) {
	entry, err := s.repo.Archive.GetStudent(ctx, archiveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArchiveNotFound
		}
		s.logger.Error("load archive entry failed", zap.String("archive_id", archiveID), zap.Error(err))
		return nil, err
	}

	if _, err := s.repo.Student.GetByLRN(ctx, entry.LRN); err == nil {
		return nil, ErrArchiveConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("LRN lookup failed", zap.Error(err))
		return nil, err
	}

	var (
		dropped []string
		counts  dependentCounts
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		if dropped, err = tx.Archive.RestoreRow(ctx, model.Student{}.TableName(), restorableRow(entry.Snapshot)); err != nil {
			return err
		}
		if counts, err = reattachDependents(ctx, tx, model.StudentDependents, entry.Dependents); err != nil {
			return err
		}
		return tx.Archive.DeleteStudent(ctx, archiveID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrArchiveConflict
		}
		s.logger.Error("restore student failed", zap.String("archive_id", archiveID), zap.Error(err))
		return nil, err
	}

	if len(dropped) > 0 {
		s.logger.Warn("restored student without obsolete columns",
			zap.String("id", entry.OriginalID), zap.Strings("dropped", dropped))
	}
	if counts.skipped > 0 {
		s.logger.Warn("restored student without some dependent rows",
			zap.String("id", entry.OriginalID), zap.Int("skipped", counts.skipped))
	}
	return &dto.RestoreResponse{
		Type:               model.ArchiveTypeStudents,
		ID:                 entry.OriginalID,
		DroppedColumns:     dropped,
		RestoredDependents: counts.restored,
		SkippedDependents:  counts.skipped,
	}, nil
}

// restorableRow copies the snapshot, clearing soft-delete markers so the
// restored row is live.
func restorableRow(snapshot datatypes.JSONMap) map[string]interface{} {
	row := make(map[string]interface{}, len(snapshot))
	for k, v := range snapshot {
		row[k] = v
	}
	delete(row, "deleted_at")
	delete(row, "deleted_by")
	return row
}

// ── dependent rows ──

// detachDependents copies the child rows of id into a table -> rows map and
// deletes them so the parent row can go.
func detachDependents(ctx context.Context, tx *repository.Repository, tables []model.DependentTable, id string) (datatypes.JSONMap, error) {
	deps := datatypes.JSONMap{}
	for _, d := range tables {
		rows, err := tx.Archive.SnapshotRows(ctx, d.Table, d.KeyColumn, id)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", d.Table, err)
		}
		if len(rows) == 0 {
			continue
		}
		if _, err := tx.Archive.DeleteRows(ctx, d.Table, d.KeyColumn, id); err != nil {
			return nil, fmt.Errorf("detach %s: %w", d.Table, err)
		}
		deps[d.Table] = rows
	}
	return deps, nil
}

type dependentCounts struct {
	restored map[string]int
	skipped  int
}

// reattachDependents reinserts archived child rows in table order. Rows whose
// other parent (quiz, flashcard) was deleted meanwhile are skipped.
func reattachDependents(ctx context.Context, tx *repository.Repository, tables []model.DependentTable, deps datatypes.JSONMap) (dependentCounts, error) {
	counts := dependentCounts{}
	for _, d := range tables {
		rows := dependentRows(deps[d.Table])
		if len(rows) == 0 {
			continue
		}
		restored, skipped, err := tx.Archive.RestoreRows(ctx, d.Table, rows)
		if err != nil {
			return counts, fmt.Errorf("restore %s: %w", d.Table, err)
		}
		if counts.restored == nil {
			counts.restored = map[string]int{}
		}
		counts.restored[d.Table] = restored
		counts.skipped += skipped
	}
	return counts, nil
}

// dependentRows accepts rows as stored (fresh) or as decoded from jsonb.
func dependentRows(v interface{}) []map[string]interface{} {
	switch rows := v.(type) {
	case []map[string]interface{}:
		return rows
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(rows))
		for _, r := range rows {
			if m, ok := r.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *archiveService) Delete(ctx context.Context, archiveType, archiveID string) error {
	var err error
	switch archiveType {
	case model.ArchiveTypeUsers:
		if _, err = s.repo.Archive.GetUser(ctx, archiveID); err == nil {
			err = s.repo.Archive.DeleteUser(ctx, archiveID)
		}
	case model.ArchiveTypeStudents:
		if _, err = s.repo.Archive.GetStudent(ctx, archiveID); err == nil {
			err = s.repo.Archive.DeleteStudent(ctx, archiveID)
		}
	default:
		return ErrArchiveType
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrArchiveNotFound
	}
	if err != nil {
		s.logger.Error("delete archive entry failed", zap.String("archive_id", archiveID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Purge ──────────────────────

func (s *archiveService) Purge(ctx context.Context) (*dto.PurgeResponse, error) {
	if s.cfg.RetentionDays <= 0 {
		return nil, ErrArchivePurgeOff
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	purged, err := s.repo.Archive.PurgeBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("purge archive failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return nil, err
	}

	s.logger.Info("archive purged", zap.Int64("purged", purged), zap.Time("cutoff", cutoff))
	return &dto.PurgeResponse{Purged: purged, Cutoff: formatTime(cutoff)}, nil
}

// ── converters ──

func archivedUserResponse(a *model.ArchivedUser, withSnapshot bool) *dto.ArchiveEntryResponse {
	resp := &dto.ArchiveEntryResponse{
		ArchiveID:  a.ArchiveID,
		Type:       model.ArchiveTypeUsers,
		OriginalID: a.OriginalID,
		FullName:   a.FullName,
		Email:      a.Email,
		Role:       a.Role,
		Reason:     a.Reason,
		ArchivedBy: a.ArchivedBy,
		ArchivedAt: formatTime(a.ArchivedAt),
	}
	if withSnapshot {
		resp.Snapshot = a.Snapshot
	}
	resp.Dependents = dependentSummary(a.Dependents)
	return resp
}

func archivedStudentResponse(a *model.ArchivedStudent, withSnapshot bool) *dto.ArchiveEntryResponse {
	resp := &dto.ArchiveEntryResponse{
		ArchiveID:  a.ArchiveID,
		Type:       model.ArchiveTypeStudents,
		OriginalID: a.OriginalID,
		FullName:   a.FullName,
		LRN:        a.LRN,
		GradeLevel: a.GradeLevel,
		Reason:     a.Reason,
		ArchivedBy: a.ArchivedBy,
		ArchivedAt: formatTime(a.ArchivedAt),
	}
	if withSnapshot {
		resp.Snapshot = a.Snapshot
	}
	resp.Dependents = dependentSummary(a.Dependents)
	return resp
}

func dependentSummary(deps datatypes.JSONMap) map[string]int {
	if len(deps) == 0 {
		return nil
	}
	out := make(map[string]int, len(deps))
	for table, rows := range deps {
		out[table] = len(dependentRows(rows))
	}
	return out
}
