// Package config resolves, parses, validates, and defaults dicta
// configuration.
package config

// Config is the fully materialized runtime configuration used by dicta.
type Config struct {
	Backend   BackendConfig
	Audio     AudioConfig
	Session   SessionConfig
	Paste     PasteConfig
	Clipboard CommandConfig
	PasteCmd  CommandConfig
	Notify    NotifyConfig
	History   HistoryConfig
}

// BackendConfig selects the transcription service endpoints and model.
type BackendConfig struct {
	WebSocketURL string
	ControlGRPC  string
	APIKey       string
	Model        string
	Language     string
}

// AudioConfig controls preferred input-source selection ("" or "default"
// means the system default source).
type AudioConfig struct {
	Input string
}

// SessionConfig tunes segmenting and duration bookkeeping.
type SessionConfig struct {
	MaxSegmentSeconds  float64
	MinBackendDuration float64
}

// PasteConfig controls post-commit paste behavior.
type PasteConfig struct {
	Enable bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// NotifyConfig controls desktop notification delivery.
type NotifyConfig struct {
	Enable    bool
	AppName   string
	TimeoutMS int
}

// HistoryConfig controls transcript history persistence. An empty Path uses
// the XDG state directory.
type HistoryConfig struct {
	Enable bool
	Path   string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
