package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"

	"github.com/dicta-app/dicta/internal/monitor"
	"github.com/dicta-app/dicta/internal/segment"
)

// Manager owns the Pulse client lifecycle for device selection, level
// monitoring, and dictation capture. It implements monitor.Devices and is the
// capture half of the transcription backend.
type Manager struct {
	logger *slog.Logger

	mu       sync.Mutex
	selected string
	mon      *monitorStream
	capture  *Capture
	client   *pulse.Client
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// ListInputDevices implements monitor.Devices.
func (m *Manager) ListInputDevices(ctx context.Context) (monitor.DeviceList, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return monitor.DeviceList{}, err
	}

	names := make([]string, 0, len(devices))
	for _, dev := range devices {
		names = append(names, dev.Name())
	}

	m.mu.Lock()
	selected := m.selected
	m.mu.Unlock()

	return monitor.DeviceList{Devices: names, Selected: selected}, nil
}

// ProbeDefaultDevice implements monitor.Devices.
func (m *Manager) ProbeDefaultDevice(ctx context.Context) (monitor.Probe, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return monitor.Probe{}, err
	}
	for _, dev := range devices {
		if dev.Default && dev.Available && !dev.Muted {
			return monitor.Probe{Available: true, Name: dev.Name()}, nil
		}
	}
	return monitor.Probe{Available: false}, nil
}

// SelectInputDevice implements monitor.Devices. An empty name reverts to the
// Pulse default source.
func (m *Manager) SelectInputDevice(ctx context.Context, name string) error {
	if name != "" {
		devices, err := ListDevices(ctx)
		if err != nil {
			return err
		}
		if _, err := resolveDevice(devices, name); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.selected = name
	m.mu.Unlock()
	return nil
}

// Selected returns the current device selection term ("" means default).
func (m *Manager) Selected() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// StartMonitor implements monitor.Devices: it opens a record stream on the
// selected source and discards the audio, keeping the source active so level
// and availability changes surface promptly.
func (m *Manager) StartMonitor(ctx context.Context) error {
	m.mu.Lock()
	if m.mon != nil {
		m.mu.Unlock()
		return nil
	}
	selected := m.selected
	m.mu.Unlock()

	device, client, err := m.resolve(ctx, selected)
	if err != nil {
		return err
	}

	mon, err := startMonitorStream(client, device)
	if err != nil {
		client.Close()
		return err
	}

	m.mu.Lock()
	m.mon = mon
	m.mu.Unlock()

	m.logger.Debug("monitor stream started", "device", device.ID)
	return nil
}

// StopMonitor implements monitor.Devices.
func (m *Manager) StopMonitor(context.Context) error {
	m.mu.Lock()
	mon := m.mon
	m.mon = nil
	m.mu.Unlock()

	if mon == nil {
		return nil
	}
	mon.stop()
	m.logger.Debug("monitor stream stopped")
	return nil
}

// StartCapture opens a dictation record stream on the selected source.
func (m *Manager) StartCapture(ctx context.Context) error {
	m.mu.Lock()
	if m.capture != nil {
		m.mu.Unlock()
		return errors.New("capture already in progress")
	}
	selected := m.selected
	m.mu.Unlock()

	device, client, err := m.resolve(ctx, selected)
	if err != nil {
		return err
	}

	capture, err := startCapture(client, device)
	if err != nil {
		client.Close()
		return err
	}

	m.mu.Lock()
	m.capture = capture
	m.client = client
	m.mu.Unlock()

	m.logger.Info("capture started", "device", device.ID)
	return nil
}

// StopCapture stops the active record stream and returns the captured audio.
func (m *Manager) StopCapture(context.Context) (segment.Capture, error) {
	m.mu.Lock()
	capture := m.capture
	client := m.client
	m.capture = nil
	m.client = nil
	m.mu.Unlock()

	if capture == nil {
		return segment.Capture{}, errors.New("no capture in progress")
	}

	result := capture.Stop()
	if client != nil {
		client.Close()
	}

	m.logger.Info("capture stopped",
		"samples", len(result.Samples),
		"duration_seconds", result.DurationSeconds(),
	)
	return result, nil
}

// resolve connects a fresh Pulse client and maps the selection term onto a
// live device. The caller owns the returned client.
func (m *Manager) resolve(ctx context.Context, selected string) (Device, *pulse.Client, error) {
	device, err := Resolve(ctx, selected)
	if err != nil {
		return Device{}, nil, err
	}
	if !device.Available {
		return Device{}, nil, fmt.Errorf("device unavailable: %s", device.ID)
	}

	client, err := newClient()
	if err != nil {
		return Device{}, nil, err
	}
	return device, client, nil
}

// monitorStream is a discard-only record stream used while the device picker
// is open.
type monitorStream struct {
	client *pulse.Client
	stream *pulse.RecordStream
	bytes  atomic.Int64
}

func startMonitorStream(client *pulse.Client, device Device) (*monitorStream, error) {
	source, err := client.SourceByID(device.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve source %q: %w", device.ID, err)
	}

	mon := &monitorStream{client: client}
	writer := pulse.NewWriter(writerFunc(func(b []byte) (int, error) {
		mon.bytes.Add(int64(len(b)))
		return len(b), nil
	}), pulseproto.FormatInt16LE)

	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(captureSampleRate),
		pulse.RecordBufferFragmentSize(fragmentSizeBytes),
		pulse.RecordMediaName("dicta device monitor"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pulse monitor stream: %w", err)
	}

	mon.stream = stream
	stream.Start()
	return mon, nil
}

func (m *monitorStream) stop() {
	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
	}
	if m.client != nil {
		m.client.Close()
	}
}
