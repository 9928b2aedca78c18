package reporter

import (
	"fmt"
	"os"

	"github.com/rollbar/rollbar-go"

	"literacy-hub/backend/config"
)

// Reporter forwards unexpected failures to an error tracker.
type Reporter interface {
	Error(err error, extras map[string]interface{})
	Critical(err error, extras map[string]interface{})
	Close() error
}

// New returns a rollbar reporter, or a no-op one when no token is configured.
func New(cfg *config.LogConfig) Reporter {
	if cfg.RollbarToken == "" {
		return Nop{}
	}
	host, _ := os.Hostname()
	return &RollbarReporter{
		client: rollbar.New(cfg.RollbarToken, cfg.Environment, "", host, ""),
	}
}

// RollbarReporter reports to rollbar.
type RollbarReporter struct {
	client *rollbar.Client
}

// Error reports err at error level.
func (r *RollbarReporter) Error(err error, extras map[string]interface{}) {
	r.client.ErrorWithExtras(rollbar.ERR, err, extras)
}

// Critical reports err at critical level.
func (r *RollbarReporter) Critical(err error, extras map[string]interface{}) {
	r.client.ErrorWithExtras(rollbar.CRIT, err, extras)
}

// Close flushes queued items.
func (r *RollbarReporter) Close() error {
	return r.client.Close()
}

// Nop discards everything.
type Nop struct{}

func (Nop) Error(error, map[string]interface{})    {}
func (Nop) Critical(error, map[string]interface{}) {}
func (Nop) Close() error                           { return nil }

// PanicError turns a recovered value into an error.
func PanicError(v interface{}) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}
