// Package observability provides the optional telemetry sink for the AutoAuth
// retrieval core. Sessions emit events at each state transition and a
// span-like record per agent turn. Emission is fire-and-forget: a sink never
// affects control flow and is never required for correctness. Level values
// align with OpenTelemetry SeverityNumbers.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level represents event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8), maps to slog.LevelDebug
	LevelInfo    Level = 9  // OTel INFO (9-12), maps to slog.LevelInfo
	LevelWarning Level = 13 // OTel WARN (13-16), maps to slog.LevelWarn
	LevelError   Level = 17 // OTel ERROR (17-20), maps to slog.LevelError
)

// SlogLevel maps this level to the corresponding slog.Level for log emission.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType identifies the kind of event. Each subsystem defines its own
// constants using this type (e.g., "session.turn.start").
type EventType string

// Event is an observability event emitted by the retrieval core.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// SpanStatus records how a span ended.
type SpanStatus string

const (
	SpanOK    SpanStatus = "ok"
	SpanError SpanStatus = "error"
)

// Span is the per-turn telemetry record: one span covers one agent turn or
// one whole session run.
type Span struct {
	ServiceName string
	Operation   string
	Start       time.Time
	End         time.Time
	Status      SpanStatus
	Attributes  map[string]any
}

// Duration returns the elapsed time the span covers.
func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Observer receives events and spans from the retrieval core for logging,
// tracing, or metrics. Implementations must not block.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
	OnSpan(ctx context.Context, span Span)
}
