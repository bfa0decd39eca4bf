package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"

	"github.com/dicta-app/dicta/internal/segment"
)

const (
	captureSampleRate = 16000
	fragmentSizeBytes = 640 // 20ms @ 16kHz mono s16
)

// Capture accumulates PCM from one 16kHz mono s16 Pulse record stream.
type Capture struct {
	device Device

	client *pulse.Client
	stream *pulse.RecordStream

	stopCh chan struct{}

	mu      sync.Mutex
	rawPCM  []byte
	stopped bool

	bytes atomic.Int64
}

// startCapture creates and starts a record stream on the given source.
func startCapture(client *pulse.Client, device Device) (*Capture, error) {
	source, err := client.SourceByID(device.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve source %q: %w", device.ID, err)
	}

	capture := &Capture{
		device: device,
		client: client,
		stopCh: make(chan struct{}),
	}

	writer := pulse.NewWriter(writerFunc(capture.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(captureSampleRate),
		pulse.RecordBufferFragmentSize(fragmentSizeBytes),
		pulse.RecordMediaName("dicta dictation"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	capture.stream = stream
	stream.Start()
	return capture, nil
}

// Device returns capture metadata for logging and diagnostics.
func (c *Capture) Device() Device {
	return c.device
}

// BytesCaptured reports total bytes accepted from Pulse.
func (c *Capture) BytesCaptured() int64 {
	return c.bytes.Load()
}

// Stop halts the stream and returns everything captured so far. Safe to call
// more than once.
func (c *Capture) Stop() segment.Capture {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.stopCh)
	}
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
		c.stream = nil
	}

	c.mu.Lock()
	raw := c.rawPCM
	c.rawPCM = nil
	c.mu.Unlock()

	return segment.Capture{
		Samples:    decodePCM16(raw),
		SampleRate: captureSampleRate,
		Channels:   1,
	}
}

// onPCM receives raw Pulse frames.
func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	select {
	case <-c.stopCh:
		return 0, io.EOF
	default:
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	c.rawPCM = append(c.rawPCM, buffer...)
	c.mu.Unlock()

	c.bytes.Add(int64(len(buffer)))
	return len(buffer), nil
}

// decodePCM16 converts little-endian s16 bytes to samples. A trailing odd
// byte is dropped.
func decodePCM16(raw []byte) []int16 {
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return samples
}

// encodePCM16 converts samples to little-endian s16 bytes for wire transfer.
func encodePCM16(samples []int16) []byte {
	raw := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(sample))
	}
	return raw
}

// EncodePCM16 exposes the wire encoding used by the transcription transport.
func EncodePCM16(samples []int16) []byte {
	return encodePCM16(samples)
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
