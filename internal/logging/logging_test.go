package logging

import (
	"context"
	"testing"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := TraceID(ctx); got != "" {
		t.Errorf("TraceID on empty context = %q, want empty", got)
	}

	ctx = WithTraceID(ctx, "trace_abc123")
	if got := TraceID(ctx); got != "trace_abc123" {
		t.Errorf("TraceID = %q, want trace_abc123", got)
	}
}

func TestFromContext_DefaultWhenUnset(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Error("FromContext should never return nil")
	}
}

func TestWithLoggerRoundTrip(t *testing.T) {
	logger := New("debug", "json")
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("FromContext did not return the stored logger")
	}
}

func TestL_NeverNil(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace_1")
	if L(ctx) == nil {
		t.Error("L returned nil")
	}
	if L(context.Background()) == nil {
		t.Error("L on empty context returned nil")
	}
}

func TestNew_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		if New(level, "json") == nil {
			t.Errorf("New(%q) returned nil", level)
		}
		if New(level, "text") == nil {
			t.Errorf("New(%q, text) returned nil", level)
		}
	}
}
