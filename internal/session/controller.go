// Package session owns the recording lifecycle: begin/end/cancel/toggle
// operations, the transition guard, and the segment submission flow.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dicta-app/dicta/internal/classify"
	"github.com/dicta-app/dicta/internal/fsm"
	"github.com/dicta-app/dicta/internal/notify"
	"github.com/dicta-app/dicta/internal/segment"
	"github.com/dicta-app/dicta/internal/transcript"
)

// Config tunes segmenting and history duration behavior.
type Config struct {
	// MaxSegmentSeconds bounds per-request audio duration (default 59s).
	MaxSegmentSeconds float64
	// MinBackendDuration is the noise floor below which a backend-reported
	// duration is ignored in favor of the sample-derived one. Empirically
	// tuned; keep configurable.
	MinBackendDuration float64
}

// DefaultConfig returns the canonical session tuning values.
func DefaultConfig() Config {
	return Config{
		MaxSegmentSeconds:  segment.DefaultMaxSeconds,
		MinBackendDuration: 0.05,
	}
}

// Result is the complete outcome of one session operation. Accepted is false
// when the trigger was dropped by the transition guard or state check.
type Result struct {
	Accepted        bool
	State           fsm.State
	Transcript      string
	Cancelled       bool
	Err             error
	SegmentCount    int
	DurationSeconds float64
	WordCount       int
	Pasted          bool
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Controller is the session state machine. It owns the RecordingState and the
// transition guard; external callers may only read state and invoke the four
// operations, so the guard discipline cannot be bypassed.
type Controller struct {
	logger  *slog.Logger
	backend Backend
	output  Output
	history HistoryRecorder
	sink    notify.Sink
	cfg     Config

	mu     sync.Mutex
	state  fsm.State
	busy   bool // transition guard: set for the whole of any state-changing operation
	handle string
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	backend Backend,
	output Output,
	history HistoryRecorder,
	sink notify.Sink,
	cfg Config,
) *Controller {
	if backend == nil {
		backend = PlaceholderBackend{}
	}
	if output == nil {
		output = noopOutput{}
	}
	if history == nil {
		history = RecordFunc(func(context.Context, HistoryEntry) error { return nil })
	}
	if sink == nil {
		sink = notify.Discard
	}
	if cfg.MaxSegmentSeconds <= 0 {
		cfg.MaxSegmentSeconds = segment.DefaultMaxSeconds
	}
	if cfg.MinBackendDuration <= 0 {
		cfg.MinBackendDuration = 0.05
	}

	return &Controller{
		logger:  logger,
		backend: backend,
		output:  output,
		history: history,
		sink:    sink,
		cfg:     cfg,
		state:   fsm.StateIdle,
	}
}

// State returns the current recording state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a state-changing operation is currently in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// acquire claims the transition guard when the machine is in the expected
// state. Triggers that lose the race are dropped, not queued.
func (c *Controller) acquire(from fsm.State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy || c.state != from {
		return false
	}
	c.busy = true
	return true
}

// settle applies a final state and clears the guard in one step.
func (c *Controller) settle(state fsm.State) {
	c.mu.Lock()
	c.state = state
	c.busy = false
	c.mu.Unlock()
}

// setState applies an FSM event while the guard is held.
func (c *Controller) setState(event fsm.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		// Unreachable while the guard discipline holds; keep the machine sane.
		c.log("fsm transition rejected", "state", string(c.state), "event", string(event), "error", err.Error())
		return
	}
	c.state = next
}

// Begin starts a new recording session. Valid only from Idle with the guard
// clear; a second Begin racing the first is a silent no-op.
func (c *Controller) Begin(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}
	if !c.acquire(fsm.StateIdle) {
		result.State = c.State()
		result.FinishedAt = time.Now()
		return result
	}
	result.Accepted = true

	handle, err := c.backend.BeginSession(ctx)
	if err != nil {
		c.settle(fsm.StateIdle)
		c.failure(ctx, err)
		result.State = fsm.StateIdle
		result.Err = err
		result.FinishedAt = time.Now()
		return result
	}

	if err := c.backend.StartCapture(ctx); err != nil {
		c.settle(fsm.StateIdle)
		c.failure(ctx, err)
		result.State = fsm.StateIdle
		result.Err = err
		result.FinishedAt = time.Now()
		return result
	}

	c.mu.Lock()
	c.state = fsm.StateRecording
	c.handle = handle
	c.busy = false
	c.mu.Unlock()

	c.log("recording started", "session", handle)
	result.State = fsm.StateRecording
	result.FinishedAt = time.Now()
	return result
}

// End stops capture, submits segments in order, finalizes the session, and
// commits the transcript. State flips to Processing immediately so the UI
// reflects in-progress status; Idle is reached on every exit path.
func (c *Controller) End(ctx context.Context) (result Result) {
	result.StartedAt = time.Now()
	if !c.acquire(fsm.StateRecording) {
		result.State = c.State()
		result.FinishedAt = time.Now()
		return result
	}
	result.Accepted = true

	c.setState(fsm.EventEnd)

	c.mu.Lock()
	handle := c.handle
	c.handle = ""
	c.mu.Unlock()

	defer func() {
		c.settle(fsm.StateIdle)
		result.State = fsm.StateIdle
		result.FinishedAt = time.Now()
	}()

	capture, err := c.backend.StopCapture(ctx)
	if err != nil {
		c.failure(ctx, err)
		result.Err = err
		return result
	}

	if len(capture.Samples) == 0 {
		c.sink.Publish(ctx, notify.Notification{Kind: notify.KindFailure, Message: "No audio captured"})
		result.Err = ErrNoAudioCaptured
		return result
	}

	segments := segment.Split(capture, c.cfg.MaxSegmentSeconds)
	result.SegmentCount = len(segments)

	// Later segments must not be submitted before earlier ones complete: the
	// backend's stitched transcript depends on arrival order.
	providers := make([]string, 0, len(segments))
	for _, seg := range segments {
		ack, err := c.backend.SubmitSegment(ctx, handle, seg)
		if err != nil {
			c.failure(ctx, err)
			result.Err = fmt.Errorf("submit segment %d: %w", seg.Index, err)
			return result
		}
		if ack.ProviderUsed != "" {
			providers = append(providers, ack.ProviderUsed)
		}
	}

	final, err := c.backend.FinalizeSession(ctx, handle)
	if err != nil {
		c.failure(ctx, err)
		result.Err = fmt.Errorf("finalize session: %w", err)
		return result
	}

	text := transcript.Normalize(final.Transcript)
	if strings.TrimSpace(text) == "" {
		c.sink.Publish(ctx, notify.Notification{Kind: notify.KindFailure, Message: "No speech detected"})
		result.Err = ErrNoSpeechDetected
		return result
	}

	duration := capture.DurationSeconds()
	if final.DurationSeconds > c.cfg.MinBackendDuration {
		duration = final.DurationSeconds
	}
	words := transcript.WordCount(text)

	entry := HistoryEntry{
		Text:            text,
		DurationSeconds: duration,
		WordCount:       words,
		Timestamp:       time.Now(),
	}
	if err := c.history.Record(ctx, entry); err != nil {
		c.log("history record failed", "error", err.Error())
	}

	if err := c.output.WriteText(ctx, text); err != nil {
		c.failure(ctx, err)
		result.Err = fmt.Errorf("write clipboard: %w", err)
		return result
	}

	attempt := c.output.AttemptPaste(ctx)
	message := "Copied to clipboard"
	if attempt.Pasted {
		message = "Pasted"
	} else if attempt.Reason != "" {
		c.log("paste fell back to clipboard", "reason", attempt.Reason)
	}
	c.sink.Publish(ctx, notify.Notification{Kind: notify.KindSuccess, Message: message})

	c.log("session complete",
		"session", handle,
		"segments", len(segments),
		"providers", strings.Join(providers, ","),
		"duration_seconds", duration,
		"word_count", words,
		"pasted", attempt.Pasted,
	)

	result.Transcript = text
	result.DurationSeconds = duration
	result.WordCount = words
	result.Pasted = attempt.Pasted
	return result
}

// Cancel discards the active recording. Best-effort: a failed capture stop is
// swallowed, and the machine always returns to Idle. Calling it from Idle or
// Processing is a safe no-op.
func (c *Controller) Cancel(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}
	if !c.acquire(fsm.StateRecording) {
		result.State = c.State()
		result.FinishedAt = time.Now()
		return result
	}
	result.Accepted = true
	result.Cancelled = true

	c.mu.Lock()
	c.handle = ""
	c.mu.Unlock()

	if _, err := c.backend.StopCapture(ctx); err != nil {
		c.log("stop capture during cancel failed", "error", err.Error())
	}

	c.settle(fsm.StateIdle)
	c.sink.Publish(ctx, notify.Notification{Kind: notify.KindSuccess, Message: "Cancelled"})
	c.log("recording cancelled")

	result.State = fsm.StateIdle
	result.FinishedAt = time.Now()
	return result
}

// Toggle maps an external trigger (global hotkey) onto Begin or End based on
// current state. It is accepted only when the guard is clear and is ignored
// while Processing.
func (c *Controller) Toggle(ctx context.Context) Result {
	c.mu.Lock()
	busy := c.busy
	state := c.state
	c.mu.Unlock()

	if busy || state == fsm.StateProcessing {
		return Result{State: state, StartedAt: time.Now(), FinishedAt: time.Now()}
	}

	switch state {
	case fsm.StateIdle:
		return c.Begin(ctx)
	case fsm.StateRecording:
		return c.End(ctx)
	default:
		return Result{State: state, StartedAt: time.Now(), FinishedAt: time.Now()}
	}
}

// failure classifies a backend error and surfaces exactly one notification.
func (c *Controller) failure(ctx context.Context, err error) {
	category := classify.Error(err)
	c.sink.Publish(ctx, notify.Notification{Kind: notify.KindFailure, Message: classify.Message(category)})
	c.log("session operation failed", "category", string(category), "error", err.Error())
}

// log emits info-level logs when a logger is configured.
func (c *Controller) log(message string, fields ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(message, fields...)
}
