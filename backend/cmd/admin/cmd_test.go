package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/model"
)

// ── mocks ──

type mockUsers struct {
	byEmail map[string]*model.User
	err     error
}

func (m *mockUsers) Create(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.byEmail[strings.ToLower(email)]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUsers) Update(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	m.byEmail[user.Email] = user
	return nil
}

type mockPurger struct {
	err error
}

func (m *mockPurger) Purge(context.Context) (*dto.PurgeResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.PurgeResponse{Purged: 3, Cutoff: "2026-01-01T00:00:00Z"}, nil
}

func setup(t *testing.T, passwords ...string) (*commandLine, *mockUsers, *bytes.Buffer) {
	t.Helper()
	prompts := append([]string(nil), passwords...)
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) {
		if len(prompts) == 0 {
			return nil, errors.New("no more input")
		}
		p := prompts[0]
		prompts = prompts[1:]
		return []byte(p), nil
	}
	t.Cleanup(func() { readPasswordFunc = orig })

	users := &mockUsers{byEmail: map[string]*model.User{
		"ana@school.ph": {UserID: "u-1", Email: "ana@school.ph", Role: model.RoleTeacher, MustChangePassword: true},
	}}
	out := &bytes.Buffer{}
	return &commandLine{
		users:   users,
		archive: &mockPurger{},
		migrate: func() error { return nil },
		out:     out,
	}, users, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	passwords  []string
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, _, _ := setup(t, tt.passwords...)
			err := cli.run(context.Background(), append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.wantErrStr != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Errorf("expected error containing %q, got %v", tt.wantErrStr, err)
				}
			case err != nil:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	runCLITests(t, []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate", args: []string{"migrate"}},
		{name: "purge", args: []string{"purge-archive"}},
	})
}

func Test_commandLine_createAdmin(t *testing.T) {
	runCLITests(t, []cliTest{
		{name: "missing flags", args: []string{"create-admin", "-email", "x@school.ph"}, wantErr: errHelp},
		{name: "short password", args: []string{"create-admin", "-email", "x@school.ph", "-first", "X", "-last", "Y"}, passwords: []string{"short"}, wantErr: errPasswordShort},
		{name: "mismatch", args: []string{"create-admin", "-email", "x@school.ph", "-first", "X", "-last", "Y"}, passwords: []string{"password123", "password124"}, wantErr: errPasswordMatch},
		{name: "email taken", args: []string{"create-admin", "-email", "ANA@school.ph", "-first", "A", "-last", "B"}, passwords: []string{"password123", "password123"}, wantErr: errEmailTaken},
		{name: "ok", args: []string{"create-admin", "-email", "x@school.ph", "-first", "X", "-last", "Y"}, passwords: []string{"password123", "password123"}},
	})

	cli, users, out := setup(t, "password123", "password123")
	if err := cli.run(context.Background(), []string{"admin", "create-admin", "-email", " Root@School.ph ", "-first", "Root", "-last", "Admin"}); err != nil {
		t.Fatal(err)
	}
	u, ok := users.byEmail["root@school.ph"]
	if !ok {
		t.Fatal("admin not stored under normalized email")
	}
	if u.Role != model.RoleSuperAdmin || !u.IsActive {
		t.Errorf("unexpected admin %+v", u)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) != nil {
		t.Error("password not hashed with bcrypt")
	}
	if !strings.Contains(out.String(), "root@school.ph created") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	runCLITests(t, []cliTest{
		{name: "missing email", args: []string{"reset-password"}, wantErr: errHelp},
		{name: "unknown email", args: []string{"reset-password", "-email", "nobody@school.ph"}, passwords: []string{"password123", "password123"}, wantErrStr: "no account"},
		{name: "no input", args: []string{"reset-password", "-email", "ana@school.ph"}, wantErrStr: "no more input"},
	})

	cli, users, _ := setup(t, "newpassword1", "newpassword1")
	if err := cli.run(context.Background(), []string{"admin", "reset-password", "-email", "ana@school.ph"}); err != nil {
		t.Fatal(err)
	}
	u := users.byEmail["ana@school.ph"]
	if u.MustChangePassword {
		t.Error("forced-change flag should be cleared")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("newpassword1")) != nil {
		t.Error("password not updated")
	}
}

func Test_commandLine_failures(t *testing.T) {
	cli, _, _ := setup(t)
	cli.migrate = func() error { return errors.New("dirty database version 3") }
	if err := cli.run(context.Background(), []string{"admin", "migrate"}); err == nil || !strings.Contains(err.Error(), "dirty") {
		t.Errorf("expected migrate error, got %v", err)
	}

	cli.archive = &mockPurger{err: errors.New("archive retention is disabled")}
	if err := cli.run(context.Background(), []string{"admin", "purge-archive"}); err == nil {
		t.Error("expected purge error")
	}
}
