package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"sales-dashboard/internal/config"
)

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggerConfig{Level: "info", Format: "json"}, &buf)
	logger.Debug("hidden")
	logger.Info("loaded", "rows", 3)

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatal("debug record should be filtered at info level")
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("json handler output not JSON: %v", err)
	}
	if rec["msg"] != "loaded" || rec["service"] != "sales-dashboard" {
		t.Errorf("unexpected record %v", rec)
	}

	buf.Reset()
	text := newLogger(config.LoggerConfig{Level: "debug", Format: "text"}, &buf)
	text.Debug("visible")
	if !strings.Contains(buf.String(), "msg=visible") {
		t.Errorf("text handler output = %q", buf.String())
	}
}

func TestSpan_ParentChild(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "GET /api/summary")
	_, child := StartSpan(ctx, "summary.build")

	if child.TraceID != parent.TraceID {
		t.Error("child should inherit trace id")
	}
	if child.ParentID != parent.SpanID {
		t.Error("child should reference parent span")
	}
	if len(parent.SpanID) != 16 || len(parent.TraceID) != 32 {
		t.Errorf("unexpected id lengths %q %q", parent.SpanID, parent.TraceID)
	}
	if GetSpan(ctx) != parent {
		t.Error("GetSpan should return the span stored in ctx")
	}
}

func TestSpan_EndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggerConfig{Level: "debug", Format: "json"}, &buf)

	_, span := StartSpan(context.Background(), "dashboard.compare")
	span.SetTag("mode", "day_adjacent")
	span.SetError(errors.New("week 9 out of range"))
	span.End(logger)
	first := span.Duration
	span.Finish()

	if span.Duration != first {
		t.Error("Finish after End must not change the duration")
	}
	out := buf.String()
	for _, want := range []string{"span finished", "dashboard.compare", "day_adjacent", "ERROR", "week 9 out of range"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestLoggerFrom(t *testing.T) {
	var buf bytes.Buffer
	base := newLogger(config.LoggerConfig{Level: "info", Format: "json"}, &buf)

	ctx := WithRequestID(context.Background(), "req-42")
	ctx, span := StartSpan(ctx, "op")
	LoggerFrom(ctx, base).Info("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-42"`) || !strings.Contains(out, span.TraceID) {
		t.Errorf("missing request or trace ids: %s", out)
	}
	if GetRequestID(context.Background()) != "" {
		t.Error("empty context should have no request id")
	}
}
