package database

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"debug": gormlogger.Info,
		"warn":  gormlogger.Warn,
		"error": gormlogger.Error,
		"info":  gormlogger.Silent,
		"":      gormlogger.Silent,
	}
	for in, want := range tests {
		if got := gormLogLevel(in); got != want {
			t.Errorf("gormLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	if len(ups) == 0 {
		t.Fatal("no migrations embedded")
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down script", v)
		}
	}
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newGormLogger(zap.New(core), gormlogger.Warn)
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), sql, nil)
	if logs.Len() != 0 {
		t.Fatalf("fast query logged at warn level: %v", logs.All())
	}

	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	if logs.Len() != 0 {
		t.Fatalf("not found should not be logged: %v", logs.All())
	}

	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	slow := logs.FilterMessage("slow query").All()
	if len(slow) != 1 || slow[0].Level != zapcore.WarnLevel || slow[0].ContextMap()["sql"] != "SELECT 1" {
		t.Errorf("expected one slow query warning, got %v", logs.All())
	}

	l.Trace(ctx, time.Now(), sql, errors.New("relation does not exist"))
	failed := logs.FilterMessage("query failed").All()
	if len(failed) != 1 || failed[0].Level != zapcore.ErrorLevel || failed[0].LoggerName != "gorm" {
		t.Errorf("expected one query failure, got %v", logs.All())
	}
}

func TestGormLogger_LogMode(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	silent := newGormLogger(zap.New(core), gormlogger.Silent)
	verbose := silent.LogMode(gormlogger.Info)
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT 1", 1 }

	silent.Trace(ctx, time.Now(), sql, errors.New("boom"))
	if logs.Len() != 0 {
		t.Fatalf("silent logger wrote %v", logs.All())
	}
	verbose.Trace(ctx, time.Now(), sql, nil)
	if got := logs.FilterMessage("query").All(); len(got) != 1 || got[0].Level != zapcore.DebugLevel {
		t.Errorf("expected one debug trace, got %v", logs.All())
	}
	verbose.Warn(ctx, "pool %s", "low")
	if logs.FilterMessage("pool low").Len() != 1 {
		t.Errorf("expected formatted warning, got %v", logs.All())
	}
}
