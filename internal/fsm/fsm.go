// Package fsm defines the recording lifecycle states and legal transitions.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
)

const (
	EventBegin  Event = "begin"
	EventEnd    Event = "end"
	EventCancel Event = "cancel"
	EventFinish Event = "finish"
	EventReset  Event = "reset"
)

func Transition(current State, event Event) (State, error) {
	if event == EventReset {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventBegin:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventEnd:
			return StateProcessing, nil
		case EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateProcessing:
		switch event {
		case EventFinish:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
