package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"literacy-hub/backend/config"
	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/model"
)

func setupTestArchiveService(retentionDays int) (ArchiveService, *testEnv) {
	env := newTestEnv()
	svc := NewArchiveService(&config.ArchiveConfig{RetentionDays: retentionDays}, env.repo, zap.NewNop())
	return svc, env
}

func TestArchiveUser_ReleasesStudents(t *testing.T) {
	svc, env := setupTestArchiveService(0)
	env.addUser("teacher-3", "t3@school.ph", model.RoleTeacher, 3)
	env.addStudent("s-1", "100000000001", 3)
	env.addStudent("s-2", "100000000002", 3)
	env.assign("s-1", "teacher-3")
	env.assign("s-2", "teacher-3")

	entry, err := svc.ArchiveUser(context.Background(), adminCaller, "teacher-3", &dto.ArchiveRequest{Reason: "retired"})
	if err != nil {
		t.Fatalf("ArchiveUser failed: %v", err)
	}
	if entry.Email != "t3@school.ph" || entry.Reason != "retired" || entry.Snapshot != nil {
		t.Errorf("unexpected entry %+v", entry)
	}
	if _, ok := env.users.users["teacher-3"]; ok {
		t.Error("user should be removed from the live table")
	}
	if len(env.assignments.byStudent) != 0 {
		t.Errorf("expected assignments released, %d left", len(env.assignments.byStudent))
	}
	stored := env.archive.users[entry.ArchiveID]
	if stored.Snapshot["email"] != "t3@school.ph" {
		t.Errorf("snapshot missing email: %v", stored.Snapshot)
	}
}

func TestArchiveUser_Guards(t *testing.T) {
	svc, _ := setupTestArchiveService(0)
	ctx := context.Background()

	if _, err := svc.ArchiveUser(ctx, adminCaller, adminCaller.UserID, &dto.ArchiveRequest{}); !errors.Is(err, ErrArchiveSelf) {
		t.Errorf("expected ErrArchiveSelf, got %v", err)
	}
	if _, err := svc.ArchiveUser(ctx, adminCaller, "missing", &dto.ArchiveRequest{}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestArchiveStudent_Scope(t *testing.T) {
	svc, env := setupTestArchiveService(0)
	env.addStudent("s-1", "100000000001", 4)
	ctx := context.Background()

	if _, err := svc.ArchiveStudent(ctx, coordCaller, "s-1", &dto.ArchiveRequest{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	entry, err := svc.ArchiveStudent(ctx, masterCaller, "s-1", &dto.ArchiveRequest{})
	if err != nil {
		t.Fatalf("ArchiveStudent failed: %v", err)
	}
	if entry.LRN != "100000000001" || entry.GradeLevel != 4 {
		t.Errorf("unexpected entry %+v", entry)
	}
	if _, ok := env.students.students["s-1"]; ok {
		t.Error("student should be removed from the live table")
	}
}

func TestArchive_RestoreRoundTrip(t *testing.T) {
	svc, env := setupTestArchiveService(0)
	env.addUser("teacher-3", "t3@school.ph", model.RoleTeacher, 3)
	ctx := context.Background()

	entry, err := svc.ArchiveUser(ctx, adminCaller, "teacher-3", &dto.ArchiveRequest{})
	if err != nil {
		t.Fatalf("ArchiveUser failed: %v", err)
	}

	got, err := svc.Get(ctx, model.ArchiveTypeUsers, entry.ArchiveID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Snapshot == nil {
		t.Error("Get should include the snapshot")
	}

	resp, err := svc.Restore(ctx, model.ArchiveTypeUsers, entry.ArchiveID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if resp.ID != "teacher-3" {
		t.Errorf("expected original id, got %s", resp.ID)
	}
	if len(resp.DroppedColumns) != 1 || resp.DroppedColumns[0] != "legacy_column" {
		t.Errorf("expected legacy_column dropped, got %v", resp.DroppedColumns)
	}
	if _, ok := env.users.users["teacher-3"]; !ok {
		t.Error("user not restored")
	}
	if _, ok := env.archive.users[entry.ArchiveID]; ok {
		t.Error("archive entry should be removed after restore")
	}
}

func TestArchive_RestoreConflict(t *testing.T) {
	svc, env := setupTestArchiveService(0)
	env.addStudent("s-1", "100000000001", 3)
	ctx := context.Background()

	entry, err := svc.ArchiveStudent(ctx, adminCaller, "s-1", &dto.ArchiveRequest{})
	if err != nil {
		t.Fatalf("ArchiveStudent failed: %v", err)
	}
	env.addStudent("s-9", "100000000001", 3)

	if _, err := svc.Restore(ctx, model.ArchiveTypeStudents, entry.ArchiveID); !errors.Is(err, ErrArchiveConflict) {
		t.Errorf("expected ErrArchiveConflict, got %v", err)
	}
}

func TestArchive_TypeAndNotFound(t *testing.T) {
	svc, _ := setupTestArchiveService(0)
	ctx := context.Background()

	if _, _, err := svc.List(ctx, &dto.ArchiveListRequest{Type: "quizzes"}); !errors.Is(err, ErrArchiveType) {
		t.Errorf("expected ErrArchiveType, got %v", err)
	}
	if _, err := svc.Restore(ctx, "quizzes", "x"); !errors.Is(err, ErrArchiveType) {
		t.Errorf("expected ErrArchiveType, got %v", err)
	}
	if _, err := svc.Get(ctx, model.ArchiveTypeStudents, "missing"); !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("expected ErrArchiveNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, model.ArchiveTypeUsers, "missing"); !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("expected ErrArchiveNotFound, got %v", err)
	}

	list, total, err := svc.List(ctx, &dto.ArchiveListRequest{})
	if err != nil || total != 0 || list == nil {
		t.Errorf("expected empty non-nil list, got %v %d %v", list, total, err)
	}
}

func TestArchive_Purge(t *testing.T) {
	svc, env := setupTestArchiveService(30)
	env.archive.users["old"] = &model.ArchivedUser{ArchiveID: "old", ArchivedAt: time.Now().AddDate(0, 0, -45)}
	env.archive.users["new"] = &model.ArchivedUser{ArchiveID: "new", ArchivedAt: time.Now().AddDate(0, 0, -5)}
	env.archive.students["old-s"] = &model.ArchivedStudent{ArchiveID: "old-s", ArchivedAt: time.Now().AddDate(0, 0, -31)}

	resp, err := svc.Purge(context.Background())
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if resp.Purged != 2 {
		t.Errorf("expected 2 purged, got %d", resp.Purged)
	}
	if _, ok := env.archive.users["new"]; !ok {
		t.Error("recent entry must survive")
	}

	off, _ := setupTestArchiveService(0)
	if _, err := off.Purge(context.Background()); !errors.Is(err, ErrArchivePurgeOff) {
		t.Errorf("expected ErrArchivePurgeOff, got %v", err)
	}
}

func TestArchiveStudent_KeepsHistory(t *testing.T) {
	svc, env := setupTestArchiveService(0)
	env.addStudent("s-1", "100000000001", 3)
	env.addStudent("s-2", "100000000002", 3)
	env.archive.rows["quiz_responses"] = []map[string]interface{}{
		{"response_id": "r-1", "quiz_id": "q-1", "student_id": "s-1", "score": float64(8)},
		{"response_id": "r-2", "quiz_id": "q-1", "student_id": "s-2", "score": float64(5)},
	}
	env.archive.rows["flashcard_attempts"] = []map[string]interface{}{
		{"attempt_id": "a-1", "flashcard_id": "f-1", "student_id": "s-1"},
		{"attempt_id": "a-2", "flashcard_id": "f-2", "student_id": "s-1"},
	}
	ctx := context.Background()

	entry, err := svc.ArchiveStudent(ctx, masterCaller, "s-1", &dto.ArchiveRequest{})
	if err != nil {
		t.Fatalf("ArchiveStudent failed: %v", err)
	}
	if entry.Dependents["quiz_responses"] != 1 || entry.Dependents["flashcard_attempts"] != 2 {
		t.Errorf("unexpected dependents %v", entry.Dependents)
	}
	if n := len(env.archive.rows["quiz_responses"]); n != 1 {
		t.Errorf("other students' responses must stay, %d left", n)
	}
	if n := len(env.archive.rows["flashcard_attempts"]); n != 0 {
		t.Errorf("attempts should move into the archive, %d left", n)
	}

	// one card was deleted while the student was archived
	env.archive.goneParents["f-2"] = true

	resp, err := svc.Restore(ctx, model.ArchiveTypeStudents, entry.ArchiveID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if resp.RestoredDependents["quiz_responses"] != 1 || resp.RestoredDependents["flashcard_attempts"] != 1 {
		t.Errorf("unexpected restored counts %v", resp.RestoredDependents)
	}
	if resp.SkippedDependents != 1 {
		t.Errorf("expected 1 skipped row, got %d", resp.SkippedDependents)
	}
	if n := len(env.archive.rows["quiz_responses"]); n != 2 {
		t.Errorf("response not restored, %d rows", n)
	}
}

func TestArchiveUser_KeepsSessions(t *testing.T) {
	svc, env := setupTestArchiveService(0)
	env.addUser("teacher-3", "t3@school.ph", model.RoleRemedialTeacher, 3)
	env.archive.rows["remedial_sessions"] = []map[string]interface{}{
		{"session_id": "sess-1", "teacher_id": "teacher-3", "title": "Reading circle"},
	}
	ctx := context.Background()

	entry, err := svc.ArchiveUser(ctx, adminCaller, "teacher-3", &dto.ArchiveRequest{})
	if err != nil {
		t.Fatalf("ArchiveUser failed: %v", err)
	}
	if entry.Dependents["remedial_sessions"] != 1 || len(env.archive.rows["remedial_sessions"]) != 0 {
		t.Errorf("session should move into the archive: %v", entry.Dependents)
	}

	if _, err := svc.Restore(ctx, model.ArchiveTypeUsers, entry.ArchiveID); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if len(env.archive.rows["remedial_sessions"]) != 1 {
		t.Error("session not restored")
	}
}

func TestDependentRows(t *testing.T) {
	decoded := []interface{}{map[string]interface{}{"attempt_id": "a-1"}, "junk"}
	if got := dependentRows(decoded); len(got) != 1 || got[0]["attempt_id"] != "a-1" {
		t.Errorf("decoded rows: %v", got)
	}
	if got := dependentRows(nil); got != nil {
		t.Errorf("nil should give nil, got %v", got)
	}
}
