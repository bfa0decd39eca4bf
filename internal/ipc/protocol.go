// Package ipc provides the newline-delimited JSON unix-socket command
// transport between the dicta CLI and the running daemon.
package ipc

// Request is one command sent to the daemon. Device carries the argument of
// device-selection commands and is empty otherwise.
type Request struct {
	Command string `json:"command"`
	Device  string `json:"device,omitempty"`
}

// Response is the daemon's reply to one request.
type Response struct {
	OK         bool   `json:"ok"`
	State      string `json:"state,omitempty"`
	Monitoring bool   `json:"monitoring,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}
