package session

import (
	"context"
	"time"
)

// PasteAttempt reports whether the transcript landed in the focused input or
// only on the clipboard.
type PasteAttempt struct {
	Pasted bool
	Reason string
}

// Output applies transcript commit side effects (clipboard write + paste).
type Output interface {
	WriteText(context.Context, string) error
	AttemptPaste(context.Context) PasteAttempt
}

// noopOutput preserves session flow when no output collaborator is wired.
type noopOutput struct{}

func (noopOutput) WriteText(context.Context, string) error { return nil }

func (noopOutput) AttemptPaste(context.Context) PasteAttempt {
	return PasteAttempt{Pasted: false, Reason: "output not wired"}
}

// HistoryEntry is the record appended after a successful dictation.
type HistoryEntry struct {
	Text            string
	DurationSeconds float64
	WordCount       int
	Timestamp       time.Time
}

// HistoryRecorder persists dictation history. Recording is fire-and-forget:
// failures are logged by the caller and never fail the session.
type HistoryRecorder interface {
	Record(context.Context, HistoryEntry) error
}

// RecordFunc adapts a function to the HistoryRecorder interface.
type RecordFunc func(context.Context, HistoryEntry) error

func (f RecordFunc) Record(ctx context.Context, entry HistoryEntry) error {
	return f(ctx, entry)
}
