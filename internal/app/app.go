// Package app wires configuration, logging, the daemon stack, and command
// forwarding into the dicta process entrypoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dicta-app/dicta/internal/audio"
	"github.com/dicta-app/dicta/internal/backend"
	"github.com/dicta-app/dicta/internal/cli"
	"github.com/dicta-app/dicta/internal/config"
	"github.com/dicta-app/dicta/internal/doctor"
	"github.com/dicta-app/dicta/internal/history"
	"github.com/dicta-app/dicta/internal/ipc"
	"github.com/dicta-app/dicta/internal/logging"
	"github.com/dicta-app/dicta/internal/monitor"
	"github.com/dicta-app/dicta/internal/notify"
	"github.com/dicta-app/dicta/internal/orchestrator"
	"github.com/dicta-app/dicta/internal/output"
	"github.com/dicta-app/dicta/internal/session"
	"github.com/dicta-app/dicta/internal/stt"
	"github.com/dicta-app/dicta/internal/version"
)

const (
	// quickTimeout covers status and picker commands.
	quickTimeout = 2 * time.Second
	// sessionTimeout covers end/toggle, which block while segments are
	// submitted and the transcript is finalized.
	sessionTimeout = 2 * time.Minute
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("dicta"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("dicta"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New(parsed.Debug)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandRun:
		return r.runDaemon(ctx, cfgLoaded.Config, logger)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandHistory:
		return r.commandHistory(cfgLoaded.Config)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandToggle, cli.CommandBegin, cli.CommandEnd:
		return r.forward(ctx, ipc.Request{Command: string(parsed.Command)}, sessionTimeout)
	case cli.CommandCancel, cli.CommandMicEnter, cli.CommandMicLeave, cli.CommandMicRetry:
		return r.forward(ctx, ipc.Request{Command: string(parsed.Command)}, quickTimeout)
	case cli.CommandMicSelect:
		return r.forward(ctx, ipc.Request{Command: string(parsed.Command), Device: parsed.Device}, quickTimeout)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// runDaemon owns the IPC socket and the full recording stack until the
// context is cancelled.
func (r Runner) runDaemon(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 200*time.Millisecond, 2)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: dicta daemon already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	manager := audio.NewManager(logger)
	if input := cfg.Audio.Input; input != "" && input != "default" {
		if err := manager.SelectInputDevice(ctx, input); err != nil {
			logger.Warn("configured input device not selected", "input", input, "error", err.Error())
		}
	}

	sttClient := stt.NewClient(stt.Config{
		URL:      cfg.Backend.WebSocketURL,
		APIKey:   cfg.Backend.APIKey,
		Model:    cfg.Backend.Model,
		Language: cfg.Backend.Language,
	})
	adapter := backend.NewAdapter(logger, manager, sttClient)
	committer := output.NewCommitter(cfg.Clipboard.Argv, cfg.PasteCmd.Argv, cfg.Paste.Enable, logger)

	var recorder session.HistoryRecorder
	if cfg.History.Enable {
		path := cfg.History.Path
		if path == "" {
			path, err = history.DefaultPath()
		}
		if err == nil {
			var store *history.Store
			store, err = history.NewStore(path)
			if err == nil {
				recorder = store
			}
		}
		if err != nil {
			logger.Warn("history disabled", "error", err.Error())
		}
	}

	sink := notify.Fanout{notify.SinkFunc(func(_ context.Context, n notify.Notification) {
		logger.Info("notification", "kind", string(n.Kind), "message", n.Message)
	})}
	if cfg.Notify.Enable {
		sink = append(sink, notify.NewDesktop(cfg.Notify.AppName, cfg.Notify.TimeoutMS, logger))
	}

	sessCtl := session.NewController(logger, adapter, committer, recorder, sink, session.Config{
		MaxSegmentSeconds:  cfg.Session.MaxSegmentSeconds,
		MinBackendDuration: cfg.Session.MinBackendDuration,
	})
	monCtl := monitor.NewController(logger, manager, sink)
	orch := orchestrator.New(logger, sessCtl, monCtl)

	logger.Info("daemon started", "socket", socketPath)
	fmt.Fprintf(r.Stdout, "dicta daemon listening on %s\n", socketPath)

	if err := ipc.Serve(ctx, listener, orch); err != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", err)
		logger.Error("ipc server failed", "error", err.Error())
		return 1
	}

	logger.Info("daemon stopped")
	return 0
}

// forward sends one command to the running daemon and prints the outcome.
func (r Runner) forward(ctx context.Context, req ipc.Request, timeout time.Duration) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, err := ipc.Send(ctx, socketPath, req, timeout)
	if err != nil {
		if ipc.IsSocketMissing(err) || ipc.IsConnectionRefused(err) {
			fmt.Fprintln(r.Stderr, "error: dicta daemon is not running (start it with 'dicta run')")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if !resp.OK {
		fmt.Fprintf(r.Stderr, "error: %s\n", resp.Error)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: "status"}, quickTimeout)
	if err != nil {
		if ipc.IsSocketMissing(err) || ipc.IsConnectionRefused(err) {
			fmt.Fprintln(r.Stdout, "idle")
			return 0
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	state := resp.State
	if state == "" {
		state = "idle"
	}
	if resp.Monitoring {
		state += " (monitoring)"
	}
	fmt.Fprintln(r.Stdout, state)
	return 0
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandHistory(cfg config.Config) int {
	path := cfg.History.Path
	if path == "" {
		resolved, err := history.DefaultPath()
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		path = resolved
	}

	store, err := history.NewStore(path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	records, err := store.Recent(10)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(records) == 0 {
		fmt.Fprintln(r.Stdout, "no history yet")
		return 0
	}

	for _, record := range records {
		fmt.Fprintf(r.Stdout, "%s  %5.1fs  %3d words  %s\n",
			record.Timestamp.Format("2006-01-02 15:04:05"),
			record.DurationSeconds,
			record.WordCount,
			record.Text,
		)
	}
	return 0
}
