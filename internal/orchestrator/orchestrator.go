// Package orchestrator is the daemon-side facade: it owns the session and
// monitor controllers and maps IPC commands onto them.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dicta-app/dicta/internal/ipc"
	"github.com/dicta-app/dicta/internal/monitor"
	"github.com/dicta-app/dicta/internal/session"
)

// Command names accepted over IPC.
const (
	CmdStatus    = "status"
	CmdToggle    = "toggle"
	CmdBegin     = "begin"
	CmdEnd       = "end"
	CmdCancel    = "cancel"
	CmdMicEnter  = "mic-enter"
	CmdMicLeave  = "mic-leave"
	CmdMicSelect = "mic-select"
	CmdMicRetry  = "mic-retry"
)

// Orchestrator routes one IPC request to the controller that owns it.
type Orchestrator struct {
	logger  *slog.Logger
	session *session.Controller
	monitor *monitor.Controller
}

func New(logger *slog.Logger, sess *session.Controller, mon *monitor.Controller) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{logger: logger, session: sess, monitor: mon}
}

// Handle implements ipc.Handler.
func (o *Orchestrator) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	o.logger.Debug("ipc command received", "command", req.Command)

	switch req.Command {
	case CmdStatus:
		return o.status()
	case CmdToggle:
		return o.fromResult(o.session.Toggle(ctx))
	case CmdBegin:
		return o.fromResult(o.session.Begin(ctx))
	case CmdEnd:
		return o.fromResult(o.session.End(ctx))
	case CmdCancel:
		return o.fromResult(o.session.Cancel(ctx))
	case CmdMicEnter:
		o.monitor.EnterStep(ctx)
		return o.monitorStatus("monitoring device selection")
	case CmdMicLeave:
		o.monitor.LeaveStep(ctx)
		return o.monitorStatus("left device selection")
	case CmdMicSelect:
		o.monitor.SelectDevice(ctx, req.Device)
		return o.monitorStatus(fmt.Sprintf("selected %q", req.Device))
	case CmdMicRetry:
		o.monitor.RetryDetection(ctx)
		return o.monitorStatus("retried device detection")
	default:
		return ipc.Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
	}
}

func (o *Orchestrator) status() ipc.Response {
	state := o.session.State()
	resp := ipc.Response{OK: true, State: string(state)}
	if o.monitor != nil {
		resp.Monitoring = o.monitor.State().Monitoring
	}
	return resp
}

func (o *Orchestrator) fromResult(result session.Result) ipc.Response {
	resp := ipc.Response{OK: true, State: string(result.State)}
	switch {
	case !result.Accepted:
		resp.Message = "ignored: another transition is in progress"
	case result.Cancelled:
		resp.Message = "cancelled"
	case result.Err != nil:
		resp.OK = false
		resp.Error = result.Err.Error()
	case result.Transcript != "":
		resp.Message = result.Transcript
	}
	return resp
}

func (o *Orchestrator) monitorStatus(message string) ipc.Response {
	state := o.monitor.State()
	return ipc.Response{
		OK:         true,
		State:      string(o.session.State()),
		Monitoring: state.Monitoring,
		Message:    message,
	}
}
