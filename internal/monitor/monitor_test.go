package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dicta-app/dicta/internal/notify"
)

type fakeDevices struct {
	mu sync.Mutex

	devices  []string
	probe    Probe
	listErr  error
	probeErr error
	startErr error

	selectCalls atomic.Int32
	startCalls  atomic.Int32
	stopCalls   atomic.Int32

	selected string

	// probeGate, when set, blocks ProbeDefaultDevice until released. Used to
	// simulate navigation racing an in-flight activation.
	probeGate chan struct{}
	// startGate blocks StartMonitor the same way.
	startGate chan struct{}
}

func (f *fakeDevices) ListInputDevices(context.Context) (DeviceList, error) {
	if f.listErr != nil {
		return DeviceList{}, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return DeviceList{Devices: append([]string(nil), f.devices...), Selected: f.selected}, nil
}

func (f *fakeDevices) ProbeDefaultDevice(context.Context) (Probe, error) {
	if f.probeGate != nil {
		<-f.probeGate
	}
	if f.probeErr != nil {
		return Probe{}, f.probeErr
	}
	return f.probe, nil
}

func (f *fakeDevices) SelectInputDevice(_ context.Context, name string) error {
	f.selectCalls.Add(1)
	f.mu.Lock()
	f.selected = name
	f.mu.Unlock()
	return nil
}

func (f *fakeDevices) StartMonitor(context.Context) error {
	if f.startGate != nil {
		<-f.startGate
	}
	f.startCalls.Add(1)
	return f.startErr
}

func (f *fakeDevices) StopMonitor(context.Context) error {
	f.stopCalls.Add(1)
	return nil
}

func defaultFake() *fakeDevices {
	return &fakeDevices{
		devices: []string{"Built-in Microphone", "USB Headset"},
		probe:   Probe{Available: true, Name: "Built-in Microphone"},
	}
}

func TestEnterStepAutoSelectsDefaultAndMonitors(t *testing.T) {
	devices := defaultFake()
	ctrl := NewController(nil, devices, nil)

	ctrl.EnterStep(context.Background())

	state := ctrl.State()
	require.True(t, state.Monitoring)
	require.True(t, state.OnStep)
	require.Equal(t, "Built-in Microphone", state.Device)
	require.Equal(t, int32(1), devices.startCalls.Load())
	require.Equal(t, "Built-in Microphone", devices.selected)
}

func TestEnterStepKeepsExistingSelection(t *testing.T) {
	devices := defaultFake()
	ctrl := NewController(nil, devices, nil)
	ctrl.SelectDevice(context.Background(), "USB Headset")

	ctrl.EnterStep(context.Background())

	state := ctrl.State()
	require.Equal(t, "USB Headset", state.Device)
	require.True(t, state.Monitoring)
}

func TestEnterStepNoDeviceSurfacesNotification(t *testing.T) {
	stream := notify.NewStream(4)
	devices := &fakeDevices{probe: Probe{Available: false}}
	ctrl := NewController(nil, devices, stream)

	ctrl.EnterStep(context.Background())

	require.False(t, ctrl.State().Monitoring)
	require.Equal(t, int32(0), devices.startCalls.Load())

	n := <-stream.Events()
	require.Equal(t, notify.KindFailure, n.Kind)
	require.Equal(t, "No microphone detected", n.Message)
}

func TestLeaveStepBeforeProbeResolvesDiscardsActivation(t *testing.T) {
	devices := defaultFake()
	devices.probeGate = make(chan struct{})
	ctrl := NewController(nil, devices, nil)

	done := make(chan struct{})
	go func() {
		ctrl.EnterStep(context.Background())
		close(done)
	}()

	waitFor(t, func() bool { return ctrl.State().OnStep })
	ctrl.LeaveStep(context.Background())
	close(devices.probeGate)
	<-done

	state := ctrl.State()
	require.False(t, state.Monitoring)
	require.False(t, state.OnStep)
	// The probe resolved against a stale generation: no monitor start at all.
	require.Equal(t, int32(0), devices.startCalls.Load())
	require.Equal(t, int32(1), devices.stopCalls.Load())
}

func TestLeaveStepDuringStartCompensatesOrphanedMonitor(t *testing.T) {
	devices := defaultFake()
	devices.startGate = make(chan struct{})
	ctrl := NewController(nil, devices, nil)

	done := make(chan struct{})
	go func() {
		ctrl.EnterStep(context.Background())
		close(done)
	}()

	// Wait until the activation is blocked inside StartMonitor.
	waitFor(t, func() bool { return devices.selectCalls.Load() > 0 })
	ctrl.LeaveStep(context.Background())
	close(devices.startGate)
	<-done

	require.False(t, ctrl.State().Monitoring)
	// One stop from LeaveStep itself, one compensating stop for the orphan.
	require.Equal(t, int32(2), devices.stopCalls.Load())
	require.Equal(t, int32(1), devices.startCalls.Load())
}

func TestSelectDeviceRestartsMonitoringOnStep(t *testing.T) {
	devices := defaultFake()
	ctrl := NewController(nil, devices, nil)

	ctrl.EnterStep(context.Background())
	require.True(t, ctrl.State().Monitoring)

	ctrl.SelectDevice(context.Background(), "USB Headset")

	state := ctrl.State()
	require.True(t, state.Monitoring)
	require.Equal(t, "USB Headset", state.Device)
	require.Equal(t, "USB Headset", devices.selected)
	require.Equal(t, int32(2), devices.startCalls.Load())
	require.GreaterOrEqual(t, devices.stopCalls.Load(), int32(1))
}

func TestSelectDeviceOffStepOnlyRecordsSelection(t *testing.T) {
	devices := defaultFake()
	ctrl := NewController(nil, devices, nil)

	ctrl.SelectDevice(context.Background(), "USB Headset")

	state := ctrl.State()
	require.False(t, state.Monitoring)
	require.Equal(t, "USB Headset", state.Device)
	require.Equal(t, int32(0), devices.startCalls.Load())
}

func TestRetryDetectionDoesNotAdvanceGeneration(t *testing.T) {
	devices := &fakeDevices{probe: Probe{Available: false}}
	ctrl := NewController(nil, devices, nil)

	ctrl.EnterStep(context.Background())
	genAfterEnter := ctrl.State().Generation
	require.False(t, ctrl.State().Monitoring)

	// A device shows up; retry picks it up without a step transition.
	devices.mu.Lock()
	devices.devices = []string{"Built-in Microphone"}
	devices.mu.Unlock()
	devices.probe = Probe{Available: true, Name: "Built-in Microphone"}

	ctrl.RetryDetection(context.Background())

	state := ctrl.State()
	require.Equal(t, genAfterEnter, state.Generation)
	require.True(t, state.Monitoring)
	require.Equal(t, "Built-in Microphone", state.Device)
}

func TestRetryDetectionOffStepIsNoOp(t *testing.T) {
	devices := defaultFake()
	ctrl := NewController(nil, devices, nil)

	ctrl.RetryDetection(context.Background())
	require.Equal(t, int32(0), devices.startCalls.Load())
}

func TestListFailureDegradesWithNotification(t *testing.T) {
	stream := notify.NewStream(4)
	devices := &fakeDevices{listErr: errors.New("device unavailable: pulse server gone")}
	ctrl := NewController(nil, devices, stream)

	ctrl.EnterStep(context.Background())

	require.False(t, ctrl.State().Monitoring)
	n := <-stream.Events()
	require.Equal(t, notify.KindFailure, n.Kind)
	require.Equal(t, "Microphone unavailable", n.Message)
}

func TestStartMonitorFailureDegrades(t *testing.T) {
	stream := notify.NewStream(4)
	devices := defaultFake()
	devices.startErr = errors.New("connection timeout")
	ctrl := NewController(nil, devices, stream)

	ctrl.EnterStep(context.Background())

	require.False(t, ctrl.State().Monitoring)
	n := <-stream.Events()
	require.Equal(t, "Transcription request timed out", n.Message)
}

func TestEnterStepTwiceDoesNotDoubleStart(t *testing.T) {
	devices := defaultFake()
	ctrl := NewController(nil, devices, nil)

	ctrl.EnterStep(context.Background())
	ctrl.EnterStep(context.Background())

	require.True(t, ctrl.State().Monitoring)
	require.Equal(t, int32(1), devices.startCalls.Load())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for condition")
}
