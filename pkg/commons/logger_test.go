// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package commons

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewApplicationLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewApplicationLogger(
		Name("test-service"),
		Path(dir),
		Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	logger.Infof("hello %s", "world")
	logger.Sync()

	payload, err := os.ReadFile(filepath.Join(dir, "test-service.log"))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if len(payload) == 0 {
		t.Error("log file is empty")
	}
}

func TestNewApplicationLoggerRejectsBadLevel(t *testing.T) {
	if _, err := NewApplicationLogger(Level("loud")); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoggerDefaults(t *testing.T) {
	tests := []struct {
		name     string
		opts     []LoggerOption
		expected string
	}{
		{"named", []LoggerOption{Name("svc")}, "svc"},
		{"default name", nil, "application"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := &loggerOptions{name: "application", path: t.TempDir(), level: "info"}
			for _, opt := range tt.opts {
				opt(options)
			}
			if options.name != tt.expected {
				t.Errorf("expected name %q, got %q", tt.expected, options.name)
			}
		})
	}
}
