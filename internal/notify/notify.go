// Package notify delivers user-facing acknowledgements of store mutations.
package notify

import (
	"context"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// Severity classifies an Event.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
)

// Event is a short user-facing message.
type Event struct {
	Severity Severity
	Summary  string
	Detail   string
}

// Success returns a success Event.
func Success(summary, detail string) Event {
	return Event{Severity: SeveritySuccess, Summary: summary, Detail: detail}
}

// Info returns an informational Event.
func Info(summary, detail string) Event {
	return Event{Severity: SeverityInfo, Summary: summary, Detail: detail}
}

// Encode writes e as a JSON object.
func (e Event) Encode(enc *jx.Encoder) {
	enc.ObjStart()
	enc.FieldStart("severity")
	enc.Str(string(e.Severity))
	enc.FieldStart("summary")
	enc.Str(e.Summary)
	if e.Detail != "" {
		enc.FieldStart("detail")
		enc.Str(e.Detail)
	}
	enc.ObjEnd()
}

// Sink receives events. Notify is fire-and-forget: it must not block on
// slow consumers and its outcome is never reported to the caller.
type Sink interface {
	Notify(ctx context.Context, e Event)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Notify(context.Context, Event) {}

// Multi fans an event out to every sink in order.
type Multi []Sink

// Notify implements Sink.
func (m Multi) Notify(ctx context.Context, e Event) {
	for _, s := range m {
		s.Notify(ctx, e)
	}
}

// LogSink writes events to a zap logger.
type LogSink struct {
	lg *zap.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(lg *zap.Logger) *LogSink {
	return &LogSink{lg: lg}
}

// Notify implements Sink.
func (s *LogSink) Notify(_ context.Context, e Event) {
	s.lg.Info("Notification",
		zap.String("severity", string(e.Severity)),
		zap.String("summary", e.Summary),
		zap.String("detail", e.Detail),
	)
}

var (
	_ Sink = Multi(nil)
	_ Sink = (*LogSink)(nil)
)
