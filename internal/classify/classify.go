// Package classify maps raw backend failure text onto user-facing categories.
//
// Centralizing the matching keeps failure-to-notification mapping in one
// independently testable table instead of ad-hoc string checks at call sites.
package classify

import "strings"

// Category is one of the fixed user-facing failure buckets.
type Category string

const (
	InvalidCredential Category = "invalid_credential"
	RateLimited       Category = "rate_limited"
	Timeout           Category = "timeout"
	DeviceUnavailable Category = "device_unavailable"
	Generic           Category = "generic"
)

type rule struct {
	category Category
	phrases  []string
}

// Rules are evaluated in order; the first matching phrase wins.
var rules = []rule{
	{InvalidCredential, []string{
		"authentication",
		"unauthorized",
		"invalid key",
		"invalid api key",
		"api key",
		"credential",
		"401",
		"403",
	}},
	{RateLimited, []string{
		"rate limit",
		"too many requests",
		"quota",
		"429",
	}},
	{Timeout, []string{
		"timeout",
		"timed out",
		"deadline exceeded",
	}},
	{DeviceUnavailable, []string{
		"device unavailable",
		"no such device",
		"no microphone",
		"no audio input",
		"device is busy",
		"device busy",
	}},
}

// Text classifies a raw error string. Unrecognized input maps to Generic;
// the function is total and never fails.
func Text(raw string) Category {
	lowered := strings.ToLower(raw)
	for _, r := range rules {
		for _, phrase := range r.phrases {
			if strings.Contains(lowered, phrase) {
				return r.category
			}
		}
	}
	return Generic
}

// Error classifies an error value by its message. A nil error is Generic.
func Error(err error) Category {
	if err == nil {
		return Generic
	}
	return Text(err.Error())
}

// Message returns the notification text surfaced for a category.
func Message(c Category) string {
	switch c {
	case InvalidCredential:
		return "Invalid API credential"
	case RateLimited:
		return "Rate limited by transcription service"
	case Timeout:
		return "Transcription request timed out"
	case DeviceUnavailable:
		return "Microphone unavailable"
	default:
		return "Transcription failed"
	}
}
