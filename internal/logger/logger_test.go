package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected logger to be enabled")
	}
}

func TestNewWithLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"warn with spaces", "  WARN ", zerolog.WarnLevel},
		{"unknown falls back to info", "verbose", zerolog.InfoLevel},
		{"empty falls back to info", "", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := NewWithLevel(tt.level)
			if log.GetLevel() != tt.want {
				t.Errorf("NewWithLevel(%q) level = %v, want %v", tt.level, log.GetLevel(), tt.want)
			}
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	output := buf.String()
	if output == "" {
		t.Error("Expected log output, got empty string")
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", output)
	}
}

func TestWithContext(t *testing.T) {
	log := New()
	ctx := context.Background()

	ctxWithLogger := WithContext(ctx, log)

	if ctxWithLogger.Value(LoggerKey) == nil {
		t.Error("Expected logger in context, got nil")
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	testLog := NewWithWriter(buf)
	ctx := WithContext(context.Background(), testLog)

	retrievedLog := FromContext(ctx)
	retrievedLog.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	ctx := context.Background()

	// Should return a default logger when none is in context
	log := FromContext(ctx)

	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

func TestWithComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	componentLog := WithComponent(log, "coach")
	componentLog.Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "component") || !strings.Contains(output, "coach") {
		t.Errorf("Expected output to contain component field, got: %s", output)
	}
}
