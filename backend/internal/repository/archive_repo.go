package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"literacy-hub/backend/internal/model"
)

// ArchiveRepository archived_users / archived_students access plus the raw
// row helpers used to snapshot and restore records.
type ArchiveRepository interface {
	CreateUser(ctx context.Context, a *model.ArchivedUser) error
	CreateStudent(ctx context.Context, a *model.ArchivedStudent) error
	GetUser(ctx context.Context, archiveID string) (*model.ArchivedUser, error)
	GetStudent(ctx context.Context, archiveID string) (*model.ArchivedStudent, error)
	ListUsers(ctx context.Context, keyword string, offset, limit int) ([]model.ArchivedUser, int64, error)
	ListStudents(ctx context.Context, keyword string, offset, limit int) ([]model.ArchivedStudent, int64, error)
	DeleteUser(ctx context.Context, archiveID string) error
	DeleteStudent(ctx context.Context, archiveID string) error
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Snapshot(ctx context.Context, table, keyColumn, id string) (map[string]interface{}, error)
	RestoreRow(ctx context.Context, table string, row map[string]interface{}) (dropped []string, err error)

	SnapshotRows(ctx context.Context, table, keyColumn, id string) ([]map[string]interface{}, error)
	DeleteRows(ctx context.Context, table, keyColumn, id string) (int64, error)
	RestoreRows(ctx context.Context, table string, rows []map[string]interface{}) (restored, skipped int, err error)
}

type archiveRepo struct {
	db *gorm.DB
}

// NewArchiveRepo creates an ArchiveRepository.
func NewArchiveRepo(db *gorm.DB) ArchiveRepository {
	return &archiveRepo{db: db}
}

func (r *archiveRepo) CreateUser(ctx context.Context, a *model.ArchivedUser) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *archiveRepo) CreateStudent(ctx context.Context, a *model.ArchivedStudent) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *archiveRepo) GetUser(ctx context.Context, archiveID string) (*model.ArchivedUser, error) {
	var a model.ArchivedUser
	if err := r.db.WithContext(ctx).Where("archive_id = ?", archiveID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *archiveRepo) GetStudent(ctx context.Context, archiveID string) (*model.ArchivedStudent, error) {
	var a model.ArchivedStudent
	if err := r.db.WithContext(ctx).Where("archive_id = ?", archiveID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *archiveRepo) ListUsers(ctx context.Context, keyword string, offset, limit int) ([]model.ArchivedUser, int64, error) {
	if !r.db.WithContext(ctx).Migrator().HasTable(&model.ArchivedUser{}) {
		return nil, 0, ErrTableMissing
	}

	db := r.db.WithContext(ctx).Model(&model.ArchivedUser{})
	if keyword != "" {
		kw := "%" + keyword + "%"
		db = db.Where("(full_name ILIKE ? OR email ILIKE ?)", kw, kw)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.ArchivedUser
	if err := db.Order("archived_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *archiveRepo) ListStudents(ctx context.Context, keyword string, offset, limit int) ([]model.ArchivedStudent, int64, error) {
	if !r.db.WithContext(ctx).Migrator().HasTable(&model.ArchivedStudent{}) {
		return nil, 0, ErrTableMissing
	}

	db := r.db.WithContext(ctx).Model(&model.ArchivedStudent{})
	if keyword != "" {
		kw := "%" + keyword + "%"
		db = db.Where("(full_name ILIKE ? OR lrn LIKE ?)", kw, kw)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.ArchivedStudent
	if err := db.Order("archived_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *archiveRepo) DeleteUser(ctx context.Context, archiveID string) error {
	return r.db.WithContext(ctx).Where("archive_id = ?", archiveID).Delete(&model.ArchivedUser{}).Error
}

func (r *archiveRepo) DeleteStudent(ctx context.Context, archiveID string) error {
	return r.db.WithContext(ctx).Where("archive_id = ?", archiveID).Delete(&model.ArchivedStudent{}).Error
}

func (r *archiveRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("archived_at < ?", cutoff).Delete(&model.ArchivedUser{})
		if res.Error != nil {
			return res.Error
		}
		purged += res.RowsAffected

		res = tx.Where("archived_at < ?", cutoff).Delete(&model.ArchivedStudent{})
		if res.Error != nil {
			return res.Error
		}
		purged += res.RowsAffected
		return nil
	})
	return purged, err
}

// ── raw rows ──

// Snapshot reads one row, soft-deleted or not, as column -> value.
func (r *archiveRepo) Snapshot(ctx context.Context, table, keyColumn, id string) (map[string]interface{}, error) {
	row := map[string]interface{}{}
	err := r.db.WithContext(ctx).
		Table(table).
		Where(quoteIdent(keyColumn)+" = ?", id).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	plainValues(row)
	return row, nil
}

// SnapshotRows reads every row of table whose keyColumn equals id.
func (r *archiveRepo) SnapshotRows(ctx context.Context, table, keyColumn, id string) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	err := r.db.WithContext(ctx).
		Table(table).
		Where(quoteIdent(keyColumn)+" = ?", id).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		plainValues(row)
	}
	return rows, nil
}

// DeleteRows removes every row of table whose keyColumn equals id.
func (r *archiveRepo) DeleteRows(ctx context.Context, table, keyColumn, id string) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quoteIdent(table), quoteIdent(keyColumn)), id)
	return res.RowsAffected, res.Error
}

// plainValues turns driver byte and uuid values into strings so the row
// survives a JSON round trip.
func plainValues(row map[string]interface{}) {
	for k, v := range row {
		switch val := v.(type) {
		case []byte:
			row[k] = string(val)
		case [16]byte:
			row[k] = uuid.UUID(val).String()
		}
	}
}

var typeNamePattern = regexp.MustCompile(`^[A-Za-z0-9_ ]+$`)

// RestoreRow inserts row into table, keeping only the columns the table has
// today. Values are sent as text and cast to the column type in SQL so a
// JSON round-tripped snapshot restores into any column type.
func (r *archiveRepo) RestoreRow(ctx context.Context, table string, row map[string]interface{}) ([]string, error) {
	types, err := r.columnTypes(ctx, table)
	if err != nil {
		return nil, err
	}
	return insertRow(r.db.WithContext(ctx), table, types, row)
}

// RestoreRows inserts rows one savepoint at a time. A row whose parent is gone
// or that collides with a live row is skipped; any other error aborts.
func (r *archiveRepo) RestoreRows(ctx context.Context, table string, rows []map[string]interface{}) (int, int, error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}
	types, err := r.columnTypes(ctx, table)
	if err != nil {
		return 0, 0, err
	}

	var restored, skipped int
	for _, row := range rows {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, err := insertRow(tx, table, types, row)
			return err
		})
		switch {
		case err == nil:
			restored++
		case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrDuplicatedKey):
			skipped++
		default:
			return restored, skipped, err
		}
	}
	return restored, skipped, nil
}

func (r *archiveRepo) columnTypes(ctx context.Context, table string) (map[string]string, error) {
	columnTypes, err := r.db.WithContext(ctx).Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	if len(columnTypes) == 0 {
		return nil, ErrTableMissing
	}

	types := make(map[string]string, len(columnTypes))
	for _, ct := range columnTypes {
		types[ct.Name()] = ct.DatabaseTypeName()
	}
	return types, nil
}

func insertRow(db *gorm.DB, table string, types map[string]string, row map[string]interface{}) ([]string, error) {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		cols    []string
		holders []string
		args    []interface{}
		dropped []string
	)
	for _, k := range keys {
		typ, ok := types[k]
		if !ok || !typeNamePattern.MatchString(typ) {
			dropped = append(dropped, k)
			continue
		}
		arg, err := textValue(row[k])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", k, err)
		}
		cols = append(cols, quoteIdent(k))
		holders = append(holders, "CAST(CAST(? AS TEXT) AS "+typ+")")
		args = append(args, arg)
	}
	if len(cols) == 0 {
		return dropped, fmt.Errorf("restore %s: snapshot shares no columns with the table", table)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(cols, ", "), strings.Join(holders, ", "))
	if err := db.Exec(stmt, args...).Error; err != nil {
		return dropped, err
	}
	return dropped, nil
}

// textValue renders a snapshot value as its PostgreSQL text input form.
func textValue(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val), nil
	case time.Time:
		return val.Format(time.RFC3339Nano), nil
	case json.Number:
		return val.String(), nil
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return fmt.Sprint(val), nil
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
