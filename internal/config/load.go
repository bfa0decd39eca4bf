package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// fileConfig mirrors the on-disk JSON shape. Pointer fields distinguish
// "absent" from zero values so the file only overrides what it names.
type fileConfig struct {
	Backend *struct {
		WebSocketURL *string `json:"websocket_url"`
		ControlGRPC  *string `json:"control_grpc"`
		APIKey       *string `json:"api_key"`
		Model        *string `json:"model"`
		Language     *string `json:"language"`
	} `json:"backend"`
	Audio *struct {
		Input *string `json:"input"`
	} `json:"audio"`
	Session *struct {
		MaxSegmentSeconds  *float64 `json:"max_segment_seconds"`
		MinBackendDuration *float64 `json:"min_backend_duration"`
	} `json:"session"`
	Paste *struct {
		Enable *bool `json:"enable"`
	} `json:"paste"`
	ClipboardCmd *string `json:"clipboard_cmd"`
	PasteCmd     *string `json:"paste_cmd"`
	Notify       *struct {
		Enable    *bool   `json:"enable"`
		AppName   *string `json:"app_name"`
		TimeoutMS *int    `json:"timeout_ms"`
	} `json:"notify"`
	History *struct {
		Enable *bool   `json:"enable"`
		Path   *string `json:"path"`
	} `json:"history"`
}

// Load resolves, reads, parses, and validates the runtime configuration.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	base := Default()
	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{
				Path:   resolvedPath,
				Config: base,
				Warnings: []Warning{{
					Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
				}},
				Exists: false,
			}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, err := Parse(content, base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Loaded{}, fmt.Errorf("validate config %q: %w", resolvedPath, err)
	}

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   true,
	}, nil
}

// Parse overlays the JSON document onto base.
func Parse(content []byte, base Config) (Config, error) {
	var file fileConfig
	if err := json.Unmarshal(content, &file); err != nil {
		return Config{}, err
	}

	cfg := base

	if file.Backend != nil {
		applyString(&cfg.Backend.WebSocketURL, file.Backend.WebSocketURL)
		applyString(&cfg.Backend.ControlGRPC, file.Backend.ControlGRPC)
		applyString(&cfg.Backend.APIKey, file.Backend.APIKey)
		applyString(&cfg.Backend.Model, file.Backend.Model)
		applyString(&cfg.Backend.Language, file.Backend.Language)
	}
	if file.Audio != nil {
		applyString(&cfg.Audio.Input, file.Audio.Input)
	}
	if file.Session != nil {
		applyFloat(&cfg.Session.MaxSegmentSeconds, file.Session.MaxSegmentSeconds)
		applyFloat(&cfg.Session.MinBackendDuration, file.Session.MinBackendDuration)
	}
	if file.Paste != nil && file.Paste.Enable != nil {
		cfg.Paste.Enable = *file.Paste.Enable
	}
	if file.Notify != nil {
		if file.Notify.Enable != nil {
			cfg.Notify.Enable = *file.Notify.Enable
		}
		applyString(&cfg.Notify.AppName, file.Notify.AppName)
		if file.Notify.TimeoutMS != nil {
			cfg.Notify.TimeoutMS = *file.Notify.TimeoutMS
		}
	}
	if file.History != nil {
		if file.History.Enable != nil {
			cfg.History.Enable = *file.History.Enable
		}
		applyString(&cfg.History.Path, file.History.Path)
	}

	if file.ClipboardCmd != nil {
		argv, err := parseArgv(*file.ClipboardCmd)
		if err != nil {
			return Config{}, fmt.Errorf("clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: *file.ClipboardCmd, Argv: argv}
	}
	if file.PasteCmd != nil {
		argv, err := parseArgv(*file.PasteCmd)
		if err != nil {
			return Config{}, fmt.Errorf("paste_cmd: %w", err)
		}
		cfg.PasteCmd = CommandConfig{Raw: *file.PasteCmd, Argv: argv}
	}

	return cfg, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
