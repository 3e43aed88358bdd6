package instrumentation

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestToolInvocation_Lifecycle(t *testing.T) {
	ti := NewToolInvocation("assistant_handle_intent").
		WithSession("3f2b8c1e-4d5a-4b6c-8d7e-9f0a1b2c3d4e").
		WithAction("move", "suggestions")

	if ti.StartTime.IsZero() {
		t.Error("expected start time to be set")
	}

	ti.Complete(true, nil)
	if ti.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want success", ti.Status())
	}
	if ti.Error != "" {
		t.Errorf("expected no error, got %q", ti.Error)
	}

	ti.Complete(false, errors.New("gateway down"))
	if ti.Status() != StatusError || ti.Error != "gateway down" {
		t.Errorf("unexpected failure state: %q %q", ti.Status(), ti.Error)
	}
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation("assistant_reply").WithSession("3f2b8c1e-4d5a-4b6c")
	ti.Complete(true, nil)

	find := func(attrs []slog.Attr, key string) string {
		for _, a := range attrs {
			if a.Key == key {
				return a.Value.String()
			}
		}
		return ""
	}

	if got := find(ti.LogAttrs(false), "session"); got != "3f2b8c1e" {
		t.Errorf("short session = %q, want 3f2b8c1e", got)
	}
	if got := find(ti.LogAttrs(true), "session"); got != "3f2b8c1e-4d5a-4b6c" {
		t.Errorf("full session = %q", got)
	}
	if got := find(ti.LogAttrs(false), "action"); got != "" {
		t.Errorf("action should be omitted when unset, got %q", got)
	}
}

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	al := NewAuditLogger(logger, AuditLoggingConfig{Enabled: true})
	al.LogToolInvocation(NewToolInvocation("assistant_undo").Complete(true, nil))
	al.LogToolInvocation(NewToolInvocation("assistant_undo").Complete(false, errors.New("boom")))

	out := buf.String()
	if !strings.Contains(out, "tool_executed") || !strings.Contains(out, "tool_failed") {
		t.Errorf("unexpected audit output: %s", out)
	}

	buf.Reset()
	disabled := NewAuditLogger(logger, AuditLoggingConfig{Enabled: false})
	disabled.LogToolInvocation(NewToolInvocation("assistant_undo").Complete(true, nil))
	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote output: %s", buf.String())
	}

	var nilLogger *AuditLogger
	nilLogger.LogToolInvocation(NewToolInvocation("x"))
}

func TestSessionLabel(t *testing.T) {
	tests := map[string]string{
		"":                                     "unknown",
		"abc":                                  "abc",
		"3f2b8c1e-4d5a-4b6c-8d7e-9f0a1b2c3d4e": "3f2b8c1e",
	}
	for in, want := range tests {
		if got := SessionLabel(in); got != want {
			t.Errorf("SessionLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
