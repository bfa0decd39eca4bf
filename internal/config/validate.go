package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	url := strings.TrimSpace(cfg.Backend.WebSocketURL)
	if url == "" {
		return nil, fmt.Errorf("backend.websocket_url must not be empty")
	}
	if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
		return nil, fmt.Errorf("backend.websocket_url must use ws:// or wss://")
	}
	if strings.TrimSpace(cfg.Backend.Language) == "" {
		return nil, fmt.Errorf("backend.language must not be empty")
	}

	if cfg.Session.MaxSegmentSeconds <= 0 {
		return nil, fmt.Errorf("session.max_segment_seconds must be > 0")
	}
	if cfg.Session.MinBackendDuration < 0 {
		return nil, fmt.Errorf("session.min_backend_duration must be >= 0")
	}
	if cfg.Session.MaxSegmentSeconds > 59.0 {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("session.max_segment_seconds=%.1f exceeds the service per-request limit of 59s; long recordings may be rejected", cfg.Session.MaxSegmentSeconds),
		})
	}

	if len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}
	if cfg.Paste.Enable && cfg.PasteCmd.Raw != "" && len(cfg.PasteCmd.Argv) == 0 {
		return nil, fmt.Errorf("paste_cmd is configured but empty")
	}
	if cfg.Paste.Enable && len(cfg.PasteCmd.Argv) == 0 {
		warnings = append(warnings, Warning{
			Message: "paste.enable=true but paste_cmd is unset; transcripts will only be copied",
		})
	}

	if cfg.Notify.Enable && strings.TrimSpace(cfg.Notify.AppName) == "" {
		return nil, fmt.Errorf("notify.app_name must not be empty when notify.enable=true")
	}
	if cfg.Notify.TimeoutMS < 0 {
		return nil, fmt.Errorf("notify.timeout_ms must be >= 0")
	}

	return warnings, nil
}
