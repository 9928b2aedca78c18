package logger

import (
	"testing"

	"literacy-hub/backend/config"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format, Environment: "test"})
		if err != nil {
			t.Fatalf("NewLogger(%s) failed: %v", format, err)
		}
		l.Debug("hello")
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
