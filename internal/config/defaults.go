package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"
	paste := "wtype -M ctrl -k v -m ctrl"

	return Config{
		Backend: BackendConfig{
			WebSocketURL: "ws://127.0.0.1:8090/v1/transcribe",
			ControlGRPC:  "127.0.0.1:50051",
			Language:     "en-US",
		},
		Audio: AudioConfig{Input: "default"},
		Session: SessionConfig{
			MaxSegmentSeconds:  59.0,
			MinBackendDuration: 0.05,
		},
		Paste:     PasteConfig{Enable: true},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		PasteCmd:  CommandConfig{Raw: paste, Argv: mustParseArgv(paste)},
		Notify: NotifyConfig{
			Enable:    true,
			AppName:   "dicta",
			TimeoutMS: 2500,
		},
		History: HistoryConfig{Enable: true},
	}
}
