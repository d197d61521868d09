package observe

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useTestTracer installs an in-memory tracer provider as the global one for
// the duration of t. Tests using it must not run in parallel.
func useTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exp
}

// captureLogs routes the default logger into a buffer for the duration of t.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

var traceIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestEndSpan(t *testing.T) {
	exp := useTestTracer(t)

	tests := []struct {
		name       string
		err        error
		wantStatus codes.Code
		wantEvents int
	}{
		{name: "speech.speak", err: nil, wantStatus: codes.Unset, wantEvents: 0},
		{name: "crisis.analyze", err: errors.New("model unavailable"), wantStatus: codes.Error, wantEvents: 1},
	}
	for _, tt := range tests {
		exp.Reset()
		_, span := StartSpan(context.Background(), tt.name)
		EndSpan(span, tt.err)

		spans := exp.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("%s: recorded %d spans, want 1", tt.name, len(spans))
		}
		got := spans[0]
		if got.Name != tt.name {
			t.Errorf("span name = %q, want %q", got.Name, tt.name)
		}
		if got.Status.Code != tt.wantStatus {
			t.Errorf("%s: status = %v, want %v", tt.name, got.Status.Code, tt.wantStatus)
		}
		if len(got.Events) != tt.wantEvents {
			t.Errorf("%s: events = %d, want %d", tt.name, len(got.Events), tt.wantEvents)
		}
	}
}

func TestCorrelationID(t *testing.T) {
	useTestTracer(t)

	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID without span = %q, want empty", got)
	}

	seen := make(map[string]bool)
	for range 50 {
		ctx, span := StartSpan(context.Background(), "http")
		cid := CorrelationID(ctx)
		span.End()
		if !traceIDPattern.MatchString(cid) {
			t.Fatalf("CorrelationID = %q, want 32 hex chars", cid)
		}
		if seen[cid] {
			t.Fatalf("duplicate correlation ID %s", cid)
		}
		seen[cid] = true
	}
}

func TestLogger(t *testing.T) {
	useTestTracer(t)

	t.Run("with span", func(t *testing.T) {
		buf := captureLogs(t)
		ctx, span := StartSpan(context.Background(), "crisis.analyze")
		defer span.End()

		Logger(ctx).Error("check-in not stored", "user", "u1")
		out := buf.String()
		if !strings.Contains(out, "trace_id="+CorrelationID(ctx)) {
			t.Errorf("log missing trace_id: %s", out)
		}
		if !strings.Contains(out, "span_id=") {
			t.Errorf("log missing span_id: %s", out)
		}
	})

	t.Run("without span", func(t *testing.T) {
		buf := captureLogs(t)
		Logger(context.Background()).Info("resolved voice", "voice", "Carla")
		if out := buf.String(); strings.Contains(out, "trace_id") {
			t.Errorf("log should not carry trace_id: %s", out)
		}
	})
}
