package session

import (
	"context"
	"errors"

	"github.com/dicta-app/dicta/internal/segment"
)

var (
	// ErrNoAudioCaptured indicates capture stopped with zero samples.
	ErrNoAudioCaptured = errors.New("no audio captured; check microphone input or mute state")
	// ErrNoSpeechDetected indicates the stitched transcript was empty after trimming.
	ErrNoSpeechDetected = errors.New("no speech detected in captured audio")
	// ErrBackendUnavailable indicates runtime backend wiring is missing.
	ErrBackendUnavailable = errors.New("transcription backend not implemented")
)

// SubmitResult is the acknowledgment for one submitted segment. ProviderUsed
// is advisory telemetry only.
type SubmitResult struct {
	ProviderUsed string
}

// FinalizeResult is the backend's stitched output for a finished session.
type FinalizeResult struct {
	Transcript      string
	DurationSeconds float64
}

// Backend abstracts the transcription service operations the state machine
// orchestrates. The session handle returned by BeginSession is opaque and is
// passed unchanged to every SubmitSegment and the final FinalizeSession call.
type Backend interface {
	BeginSession(context.Context) (string, error)
	StartCapture(context.Context) error
	StopCapture(context.Context) (segment.Capture, error)
	SubmitSegment(ctx context.Context, handle string, seg segment.Segment) (SubmitResult, error)
	FinalizeSession(ctx context.Context, handle string) (FinalizeResult, error)
}

// PlaceholderBackend is a no-op placeholder used in tests/fallback wiring.
type PlaceholderBackend struct{}

func (PlaceholderBackend) BeginSession(context.Context) (string, error) {
	return "", ErrBackendUnavailable
}

func (PlaceholderBackend) StartCapture(context.Context) error {
	return nil
}

func (PlaceholderBackend) StopCapture(context.Context) (segment.Capture, error) {
	return segment.Capture{}, ErrBackendUnavailable
}

func (PlaceholderBackend) SubmitSegment(context.Context, string, segment.Segment) (SubmitResult, error) {
	return SubmitResult{}, ErrBackendUnavailable
}

func (PlaceholderBackend) FinalizeSession(context.Context, string) (FinalizeResult, error) {
	return FinalizeResult{}, ErrBackendUnavailable
}
