// Package monitor drives the microphone preview stream used during setup.
//
// Activation is tied to "the user is on the microphone-test step", which can
// change at arbitrary times. Every long-running sequence captures the
// generation counter at its start and applies its effects only if the
// generation is still current, so an in-flight activation self-cancels the
// instant the user navigates away.
package monitor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dicta-app/dicta/internal/classify"
	"github.com/dicta-app/dicta/internal/notify"
)

// DeviceList is the enumeration result from the device collaborator.
type DeviceList struct {
	Devices  []string
	Selected string
}

// Probe reports default-device availability.
type Probe struct {
	Available bool
	Name      string
}

// Devices abstracts the audio-device operations the controller needs.
type Devices interface {
	ListInputDevices(context.Context) (DeviceList, error)
	ProbeDefaultDevice(context.Context) (Probe, error)
	SelectInputDevice(ctx context.Context, name string) error
	StartMonitor(context.Context) error
	StopMonitor(context.Context) error
}

// Snapshot is the externally observable monitor state.
type Snapshot struct {
	Device     string
	Monitoring bool
	OnStep     bool
	Generation uint64
}

// Controller owns the monitor lifecycle: the generation counter, the selected
// device, and the monitoring flag. No failure escapes its boundary; every
// backend error degrades to "not monitoring" plus a non-fatal notification.
type Controller struct {
	logger  *slog.Logger
	devices Devices
	sink    notify.Sink

	mu         sync.Mutex
	generation uint64
	device     string
	monitoring bool
	onStep     bool
}

// NewController constructs a monitor controller with safe default fallbacks.
func NewController(logger *slog.Logger, devices Devices, sink notify.Sink) *Controller {
	if sink == nil {
		sink = notify.Discard
	}
	return &Controller{logger: logger, devices: devices, sink: sink}
}

// State returns the current monitor state snapshot.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Device:     c.device,
		Monitoring: c.monitoring,
		OnStep:     c.onStep,
		Generation: c.generation,
	}
}

// EnterStep marks the microphone-test step active and starts the probe/monitor
// sequence under a fresh generation.
func (c *Controller) EnterStep(ctx context.Context) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.onStep = true
	c.mu.Unlock()

	c.activate(ctx, gen)
}

// LeaveStep invalidates any in-flight activation and stops monitoring. Local
// state flips immediately; it reflects UI intent, not a backend guarantee.
func (c *Controller) LeaveStep(ctx context.Context) {
	c.mu.Lock()
	c.generation++
	c.onStep = false
	c.monitoring = false
	c.mu.Unlock()

	if c.devices == nil {
		return
	}
	if err := c.devices.StopMonitor(ctx); err != nil {
		c.log("stop monitor on step leave failed", "error", err.Error())
	}
}

// SelectDevice stops the current monitor, records the new selection, and
// restarts the generation-checked activation sequence while still on the step.
// An empty name reverts to default-device auto-selection.
func (c *Controller) SelectDevice(ctx context.Context, name string) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.device = name
	c.monitoring = false
	onStep := c.onStep
	c.mu.Unlock()

	if c.devices == nil {
		return
	}
	if err := c.devices.StopMonitor(ctx); err != nil {
		c.log("stop monitor on device switch failed", "error", err.Error())
	}
	if err := c.devices.SelectInputDevice(ctx, name); err != nil {
		c.degrade(ctx, gen, err)
		return
	}
	if onStep {
		c.activate(ctx, gen)
	}
}

// RetryDetection re-runs listing and probing without advancing the generation;
// it is not a step transition, so concurrent step changes still invalidate it.
func (c *Controller) RetryDetection(ctx context.Context) {
	c.mu.Lock()
	gen := c.generation
	onStep := c.onStep
	c.mu.Unlock()

	if !onStep {
		return
	}
	c.activate(ctx, gen)
}

// activate runs the list/probe/start sequence for one captured generation.
// Effects are applied only while gen is still current; a monitor started for
// a stale generation is compensated with an immediate stop.
func (c *Controller) activate(ctx context.Context, gen uint64) {
	if c.devices == nil {
		return
	}

	list, err := c.devices.ListInputDevices(ctx)
	if err != nil {
		c.degrade(ctx, gen, err)
		return
	}

	probe, err := c.devices.ProbeDefaultDevice(ctx)
	if err != nil {
		c.degrade(ctx, gen, err)
		return
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	if c.device == "" && probe.Available && contains(list.Devices, probe.Name) {
		c.device = probe.Name
	}
	device := c.device
	alreadyMonitoring := c.monitoring
	c.mu.Unlock()

	if device == "" {
		c.ifCurrent(gen, func() {
			c.sink.Publish(ctx, notify.Notification{Kind: notify.KindFailure, Message: "No microphone detected"})
		})
		return
	}
	if alreadyMonitoring {
		return
	}

	if err := c.devices.SelectInputDevice(ctx, device); err != nil {
		c.degrade(ctx, gen, err)
		return
	}

	startErr := c.devices.StartMonitor(ctx)

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		if startErr == nil {
			// The step changed while the start was in flight: the stream is
			// orphaned and must not outlive its generation.
			if stopErr := c.devices.StopMonitor(ctx); stopErr != nil {
				c.log("stop orphaned monitor failed", "error", stopErr.Error())
			}
		}
		return
	}
	c.monitoring = startErr == nil
	c.mu.Unlock()

	if startErr != nil {
		c.failure(ctx, startErr)
	}
}

// degrade clears monitoring for the captured generation and surfaces one
// non-fatal notification.
func (c *Controller) degrade(ctx context.Context, gen uint64, err error) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.monitoring = false
	c.mu.Unlock()

	c.failure(ctx, err)
}

// ifCurrent runs fn only while gen is still the current generation.
func (c *Controller) ifCurrent(gen uint64, fn func()) {
	c.mu.Lock()
	current := c.generation == gen
	c.mu.Unlock()
	if current {
		fn()
	}
}

func (c *Controller) failure(ctx context.Context, err error) {
	category := classify.Error(err)
	c.sink.Publish(ctx, notify.Notification{Kind: notify.KindFailure, Message: classify.Message(category)})
	c.log("monitor operation degraded", "category", string(category), "error", err.Error())
}

func (c *Controller) log(message string, fields ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(message, fields...)
}

func contains(list []string, name string) bool {
	for _, item := range list {
		if item == name {
			return true
		}
	}
	return false
}
