// Package stt talks to the transcription service over a per-session
// WebSocket: one JSON start message, binary PCM segments each preceded by a
// JSON header, and an empty text message to request the final transcript.
package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultWriteTimeout   = 10 * time.Second
	defaultReadTimeout    = 60 * time.Second
)

// Config selects the transcription endpoint and model.
type Config struct {
	URL      string
	APIKey   string
	Model    string
	Language string

	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
}

func (c *Config) applyDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
}

// Client opens transcription sessions. Each session owns one connection.
type Client struct {
	config Config
}

func NewClient(config Config) *Client {
	config.applyDefaults()
	return &Client{config: config}
}

// SegmentAck acknowledges one submitted segment.
type SegmentAck struct {
	Index    int
	Provider string
}

// Final carries the stitched transcript for a finished session.
type Final struct {
	Transcript      string
	DurationSeconds float64
}

// Session is one open transcription exchange.
type Session struct {
	id     string
	config Config

	writeMu sync.Mutex
	conn    *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// startMessage configures a new session on the server.
type startMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id"`
	APIKey     string `json:"api_key,omitempty"`
	Model      string `json:"model,omitempty"`
	Language   string `json:"language,omitempty"`
	SampleRate int    `json:"sample_rate"`
	Format     string `json:"format"`
}

// segmentHeader precedes each binary PCM frame.
type segmentHeader struct {
	Type       string `json:"type"`
	Index      int    `json:"index"`
	Samples    int    `json:"samples"`
	SampleRate int    `json:"sample_rate"`
}

// serverMessage is the union of all server replies.
type serverMessage struct {
	Type            string  `json:"type"`
	SessionID       string  `json:"session_id,omitempty"`
	Index           int     `json:"index,omitempty"`
	Provider        string  `json:"provider,omitempty"`
	Transcript      string  `json:"transcript,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	ErrorCode       int     `json:"error_code,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

// Open dials the service and performs the start handshake.
func (c *Client) Open(ctx context.Context) (*Session, error) {
	connCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.ConnectTimeout,
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			d := net.Dialer{}
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if tc, ok := conn.(*net.TCPConn); ok {
				tc.SetNoDelay(true)
			}
			return conn, nil
		},
	}

	conn, _, err := dialer.DialContext(connCtx, c.config.URL, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("connect transcription service: %w", err)
	}

	session := &Session{
		id:     uuid.NewString(),
		config: c.config,
		conn:   conn,
	}

	start := startMessage{
		Type:       "start",
		SessionID:  session.id,
		APIKey:     c.config.APIKey,
		Model:      c.config.Model,
		Language:   c.config.Language,
		SampleRate: 16000,
		Format:     "pcm_s16le",
	}
	if err := session.writeJSON(start); err != nil {
		session.Close()
		return nil, fmt.Errorf("send start message: %w", err)
	}

	reply, err := session.readMessage()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("read start ack: %w", err)
	}
	if reply.Type != "started" {
		session.Close()
		return nil, fmt.Errorf("unexpected start reply %q", reply.Type)
	}

	return session, nil
}

// ID returns the session identifier sent to the server.
func (s *Session) ID() string {
	return s.id
}

// SubmitSegment sends one PCM segment and waits for its acknowledgment.
// Callers submit segments strictly in index order.
func (s *Session) SubmitSegment(ctx context.Context, index int, pcm []byte, sampleRate int) (SegmentAck, error) {
	header := segmentHeader{
		Type:       "segment",
		Index:      index,
		Samples:    len(pcm) / 2,
		SampleRate: sampleRate,
	}
	if err := s.writeJSON(header); err != nil {
		return SegmentAck{}, fmt.Errorf("send segment header: %w", err)
	}
	if err := s.writeRaw(websocket.BinaryMessage, pcm); err != nil {
		return SegmentAck{}, fmt.Errorf("send segment audio: %w", err)
	}

	reply, err := s.readMessage()
	if err != nil {
		return SegmentAck{}, fmt.Errorf("read segment ack: %w", err)
	}
	if reply.Type != "segment_ack" {
		return SegmentAck{}, fmt.Errorf("unexpected segment reply %q", reply.Type)
	}
	if reply.Index != index {
		return SegmentAck{}, fmt.Errorf("segment ack out of order: sent %d, acked %d", index, reply.Index)
	}
	return SegmentAck{Index: reply.Index, Provider: reply.Provider}, nil
}

// Finalize requests the stitched transcript and closes the session.
func (s *Session) Finalize(ctx context.Context) (Final, error) {
	defer s.Close()

	if err := s.writeRaw(websocket.TextMessage, []byte{}); err != nil {
		return Final{}, fmt.Errorf("send finalize: %w", err)
	}

	reply, err := s.readMessage()
	if err != nil {
		return Final{}, fmt.Errorf("read final transcript: %w", err)
	}
	if reply.Type != "final" {
		return Final{}, fmt.Errorf("unexpected finalize reply %q", reply.Type)
	}
	return Final{Transcript: reply.Transcript, DurationSeconds: reply.DurationSeconds}, nil
}

// Close releases the connection. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.conn.Close()
}

func (s *Session) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.writeRaw(websocket.TextMessage, data)
}

func (s *Session) writeRaw(msgType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return s.conn.WriteMessage(msgType, data)
}

// readMessage reads one server reply and surfaces server-reported errors.
func (s *Session) readMessage() (serverMessage, error) {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return serverMessage{}, err
	}

	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return serverMessage{}, fmt.Errorf("parse server message: %w", err)
	}
	if msg.Type == "error" || msg.ErrorMessage != "" {
		return serverMessage{}, fmt.Errorf("transcription service error %d: %s", msg.ErrorCode, msg.ErrorMessage)
	}
	return msg, nil
}
