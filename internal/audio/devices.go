// Package audio handles Pulse device discovery, selection, level monitoring,
// and PCM capture.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Device describes one Pulse input source.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Name returns the human-facing label used in device lists.
func (d Device) Name() string {
	if strings.TrimSpace(d.Description) != "" {
		return d.Description
	}
	return d.ID
}

func newClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("dicta"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListDevices returns available Pulse input sources with default/availability
// metadata.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var sourceInfos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &sourceInfos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(sourceInfos))
	for _, source := range sourceInfos {
		if source == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          source.SourceName,
			Description: source.Device,
			State:       sourceStateString(source.State),
			Available:   sourceAvailable(source),
			Muted:       source.Mute,
			Default:     source.SourceName == defaultID,
		})
	}
	return devices, nil
}

// Resolve lists live devices and maps a selection term onto them.
func Resolve(ctx context.Context, term string) (Device, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Device{}, err
	}
	return resolveDevice(devices, term)
}

// resolveDevice maps a selection term onto the device list. An empty term
// picks the default source; otherwise the term matches by ID, name, or
// substring.
func resolveDevice(devices []Device, term string) (Device, error) {
	if len(devices) == 0 {
		return Device{}, errors.New("no audio input devices found")
	}

	term = strings.TrimSpace(strings.ToLower(term))
	if term == "" || term == "default" {
		for _, dev := range devices {
			if dev.Default {
				return dev, nil
			}
		}
		return Device{}, errors.New("default audio source is unavailable")
	}

	for _, dev := range devices {
		if strings.ToLower(dev.ID) == term || strings.ToLower(dev.Name()) == term {
			return dev, nil
		}
	}
	for _, dev := range devices {
		if deviceMatches(dev, term) {
			return dev, nil
		}
	}
	return Device{}, fmt.Errorf("input device %q did not match any device", term)
}

// deviceMatches reports whether a search term matches a device id or description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	id := strings.ToLower(device.ID)
	desc := strings.ToLower(device.Description)
	return strings.Contains(id, term) || strings.Contains(desc, term)
}

// sourceStateString maps Pulse source state constants to human-readable values.
func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sourceAvailable maps Pulse source port availability to a simple boolean.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
