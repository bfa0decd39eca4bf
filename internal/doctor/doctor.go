// Package doctor runs runtime readiness diagnostics for config, tools, audio,
// and the transcription service.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dicta-app/dicta/internal/audio"
	"github.com/dicta-app/dicta/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))
	if cfg.Config.Paste.Enable && len(cfg.Config.PasteCmd.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Config.PasteCmd.Argv, "paste_cmd"))
	}
	if cfg.Config.Notify.Enable {
		checks = append(checks, checkBinary("busctl", "desktop notifications use busctl"))
	}

	checks = append(checks, checkAudioDevice(ctx, cfg.Config))
	checks = append(checks, checkBackendWS(ctx, cfg.Config))
	checks = append(checks, checkControlGRPC(ctx, cfg.Config))

	return Report{Checks: checks}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioDevice resolves the configured input against live Pulse sources.
func checkAudioDevice(ctx context.Context, cfg config.Config) Check {
	device, err := audio.Resolve(ctx, cfg.Audio.Input)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	if !device.Available {
		return Check{Name: "audio.device", Pass: false, Message: fmt.Sprintf("device %q is not available", device.ID)}
	}
	if device.Muted {
		return Check{Name: "audio.device", Pass: false, Message: fmt.Sprintf("device %q is muted", device.ID)}
	}
	return Check{Name: "audio.device", Pass: true, Message: fmt.Sprintf("selected %q", device.ID)}
}

// checkBackendWS performs a WebSocket handshake against the transcription
// endpoint and closes immediately.
func checkBackendWS(ctx context.Context, cfg config.Config) Check {
	url := strings.TrimSpace(cfg.Backend.WebSocketURL)
	if url == "" {
		return Check{Name: "backend.websocket", Pass: false, Message: "backend.websocket_url is empty"}
	}

	dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.DialContext(dialCtx, url, nil)
	if err != nil {
		return Check{Name: "backend.websocket", Pass: false, Message: fmt.Sprintf("handshake failed: %v", err)}
	}
	_ = conn.Close()
	return Check{Name: "backend.websocket", Pass: true, Message: fmt.Sprintf("reachable at %s", url)}
}
