package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Logger{Logger: slog.New(handler)}, &buf
}

func TestAuthEventFailureCarriesReason(t *testing.T) {
	log, buf := newBufferLogger()

	log.AuthEvent("login_failed", "agent@example.com", false, "password mismatch")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Fatalf("expected failed auth event at WARN, got %q", out)
	}
	if !strings.Contains(out, `reason="password mismatch"`) {
		t.Fatalf("expected reason attribute, got %q", out)
	}
}

func TestAuthEventSuccessOmitsReason(t *testing.T) {
	log, buf := newBufferLogger()

	log.AuthEvent("login", "agent@example.com", true, "")

	out := buf.String()
	if !strings.Contains(out, "level=INFO") {
		t.Fatalf("expected successful auth event at INFO, got %q", out)
	}
	if strings.Contains(out, "reason=") {
		t.Fatalf("success events should not carry a reason, got %q", out)
	}
}

func TestWithUserIDAnnotatesRecords(t *testing.T) {
	log, buf := newBufferLogger()

	log.WithUserID("u-123").Info("something happened")

	if !strings.Contains(buf.String(), "user_id=u-123") {
		t.Fatalf("expected user_id attribute, got %q", buf.String())
	}
}
