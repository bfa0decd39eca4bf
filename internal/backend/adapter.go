// Package backend composes local audio capture with the transcription
// transport into the single collaborator the session controller drives.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dicta-app/dicta/internal/audio"
	"github.com/dicta-app/dicta/internal/segment"
	"github.com/dicta-app/dicta/internal/session"
	"github.com/dicta-app/dicta/internal/stt"
)

// Recorder is the capture half, satisfied by audio.Manager.
type Recorder interface {
	StartCapture(context.Context) error
	StopCapture(context.Context) (segment.Capture, error)
}

// TranscriptionSession is one open exchange with the transcription service.
type TranscriptionSession interface {
	ID() string
	SubmitSegment(ctx context.Context, index int, pcm []byte, sampleRate int) (stt.SegmentAck, error)
	Finalize(ctx context.Context) (stt.Final, error)
	Close()
}

// Transcriber opens transcription sessions.
type Transcriber interface {
	Open(context.Context) (TranscriptionSession, error)
}

// clientTranscriber adapts *stt.Client to the Transcriber interface.
type clientTranscriber struct {
	client *stt.Client
}

func (c clientTranscriber) Open(ctx context.Context) (TranscriptionSession, error) {
	return c.client.Open(ctx)
}

// Adapter implements session.Backend over a Recorder and a Transcriber.
type Adapter struct {
	logger      *slog.Logger
	recorder    Recorder
	transcriber Transcriber

	mu       sync.Mutex
	sessions map[string]TranscriptionSession
}

// NewAdapter builds the production backend from the Pulse recorder and the
// WebSocket transcription client.
func NewAdapter(logger *slog.Logger, recorder Recorder, client *stt.Client) *Adapter {
	return newAdapter(logger, recorder, clientTranscriber{client: client})
}

func newAdapter(logger *slog.Logger, recorder Recorder, transcriber Transcriber) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		logger:      logger,
		recorder:    recorder,
		transcriber: transcriber,
		sessions:    make(map[string]TranscriptionSession),
	}
}

// BeginSession opens a transcription session. Sessions abandoned by a
// cancelled recording are closed here, on the next begin.
func (a *Adapter) BeginSession(ctx context.Context) (string, error) {
	a.mu.Lock()
	for handle, stale := range a.sessions {
		stale.Close()
		delete(a.sessions, handle)
		a.logger.Debug("closed abandoned transcription session", "session", handle)
	}
	a.mu.Unlock()

	sess, err := a.transcriber.Open(ctx)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.sessions[sess.ID()] = sess
	a.mu.Unlock()
	return sess.ID(), nil
}

// StartCapture implements session.Backend.
func (a *Adapter) StartCapture(ctx context.Context) error {
	return a.recorder.StartCapture(ctx)
}

// StopCapture implements session.Backend.
func (a *Adapter) StopCapture(ctx context.Context) (segment.Capture, error) {
	return a.recorder.StopCapture(ctx)
}

// SubmitSegment encodes one segment as little-endian s16 PCM and sends it.
func (a *Adapter) SubmitSegment(ctx context.Context, handle string, seg segment.Segment) (session.SubmitResult, error) {
	sess, err := a.session(handle)
	if err != nil {
		return session.SubmitResult{}, err
	}

	normalized := seg.Normalized()
	ack, err := sess.SubmitSegment(ctx, seg.Index, audio.EncodePCM16(normalized.Samples), normalized.SampleRate)
	if err != nil {
		return session.SubmitResult{}, err
	}
	return session.SubmitResult{ProviderUsed: ack.Provider}, nil
}

// FinalizeSession retrieves the stitched transcript and releases the session.
func (a *Adapter) FinalizeSession(ctx context.Context, handle string) (session.FinalizeResult, error) {
	sess, err := a.session(handle)
	if err != nil {
		return session.FinalizeResult{}, err
	}

	a.mu.Lock()
	delete(a.sessions, handle)
	a.mu.Unlock()

	final, err := sess.Finalize(ctx)
	if err != nil {
		return session.FinalizeResult{}, err
	}
	return session.FinalizeResult{
		Transcript:      final.Transcript,
		DurationSeconds: final.DurationSeconds,
	}, nil
}

func (a *Adapter) session(handle string) (TranscriptionSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, ok := a.sessions[handle]
	if !ok {
		return nil, fmt.Errorf("unknown transcription session %q", handle)
	}
	return sess, nil
}
