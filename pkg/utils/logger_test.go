package utils

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode returns development logger", func(t *testing.T) {
		logger, err := NewLogger(true)
		if err != nil {
			t.Fatalf("NewLogger(true) error: %v", err)
		}
		if !logger.Core().Enabled(zap.DebugLevel) {
			t.Error("debug logger should enable debug level")
		}
		_ = logger.Sync()
	})

	t.Run("production mode returns production logger", func(t *testing.T) {
		logger, err := NewLogger(false)
		if err != nil {
			t.Fatalf("NewLogger(false) error: %v", err)
		}
		if logger.Core().Enabled(zap.DebugLevel) {
			t.Error("production logger should not enable debug level")
		}
		_ = logger.Sync()
	})
}

func TestNewCLILogger(t *testing.T) {
	quiet, err := NewCLILogger(false)
	if err != nil {
		t.Fatal(err)
	}
	if quiet.Core().Enabled(zap.InfoLevel) || !quiet.Core().Enabled(zap.WarnLevel) {
		t.Error("CLI logger should report warnings only")
	}

	verbose, err := NewCLILogger(true)
	if err != nil {
		t.Fatal(err)
	}
	if !verbose.Core().Enabled(zap.DebugLevel) {
		t.Error("debug CLI logger should enable debug level")
	}
}
