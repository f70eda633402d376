// Package eventlog implements the structured event logger. Every scan
// emits one structured JSON record; the raw message is never persisted,
// only a content hash. Security events need to be machine-parseable, so
// this uses log/slog with a JSON handler rather than plain-text logging.
package eventlog

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	ctxpkg "github.com/TryMightyAI/sentry/internal/context"
	"github.com/TryMightyAI/sentry/internal/sentrytype"
)

// Logger emits structured security events.
type Logger struct {
	log *slog.Logger
}

// New constructs a Logger writing JSON records to w (os.Stdout if nil).
func New(w *os.File) *Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	return &Logger{log: slog.New(handler)}
}

// Event is one emitted record.
type Event struct {
	ID          string
	Timestamp   time.Time
	Level       string
	Type        string
	Intent      sentrytype.Intent
	RiskScore   float64
	Action      sentrytype.Action
	Source      sentrytype.Source
	SenderID    string
	Flags       []string
	MessageHash uint32
	Details     string
}

func levelFor(action sentrytype.Action) string {
	switch action {
	case sentrytype.ActionBlock, sentrytype.ActionQuarantine:
		return "warn"
	case sentrytype.ActionWarn:
		return "info"
	default:
		return "info"
	}
}

// LogDecision emits one event for a completed scan decision.
func (l *Logger) LogDecision(d sentrytype.DecisionResult, msgCtx sentrytype.ScanContext, rawText string) {
	ev := Event{
		ID:          uuid.New().String(),
		Timestamp:   time.Now(),
		Level:       levelFor(d.Action),
		Type:        "scan_decision",
		Intent:      d.Intent,
		RiskScore:   d.RiskScore,
		Action:      d.Action,
		Source:      msgCtx.Source,
		SenderID:    msgCtx.SenderID,
		Flags:       d.Flags,
		MessageHash: Hash32(rawText),
		Details:     d.Reason,
	}
	l.emit(ev)
}

// LogAdmin emits an administrative event (trustSender, blockSender,
// configure).
func (l *Logger) LogAdmin(kind, details string) {
	l.log.Log(context.Background(), slog.LevelInfo, kind,
		slog.String("event_id", uuid.New().String()),
		slog.String("type", "admin"),
		slog.String("details", details),
		slog.Time("timestamp", time.Now()),
	)
}

func (l *Logger) emit(ev Event) {
	lvl := slog.LevelInfo
	if ev.Level == "warn" {
		lvl = slog.LevelWarn
	}
	l.log.Log(context.Background(), lvl, ev.Type,
		slog.String("event_id", ev.ID),
		slog.Time("timestamp", ev.Timestamp),
		slog.String("intent", string(ev.Intent)),
		slog.Float64("risk_score", ev.RiskScore),
		slog.String("action", string(ev.Action)),
		slog.String("source", string(ev.Source)),
		slog.String("sender_id", ev.SenderID),
		slog.Any("flags", ev.Flags),
		slog.Uint64("message_hash", uint64(ev.MessageHash)),
		slog.String("details", ev.Details),
	)
}

// Hash32 re-exports the content hash used for event records so callers
// that only import eventlog don't also need internal/context.
func Hash32(text string) uint32 {
	return ctxpkg.Hash32(text)
}
