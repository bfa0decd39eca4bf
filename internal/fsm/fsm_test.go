package fsm

import "testing"

func TestTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    State
		event   Event
		want    State
		wantErr bool
	}{
		{"idle begin", StateIdle, EventBegin, StateRecording, false},
		{"recording end", StateRecording, EventEnd, StateProcessing, false},
		{"recording cancel", StateRecording, EventCancel, StateIdle, false},
		{"processing finish", StateProcessing, EventFinish, StateIdle, false},
		{"idle end invalid", StateIdle, EventEnd, StateIdle, true},
		{"idle cancel invalid", StateIdle, EventCancel, StateIdle, true},
		{"processing begin invalid", StateProcessing, EventBegin, StateProcessing, true},
		{"recording begin invalid", StateRecording, EventBegin, StateRecording, true},
		{"reset from recording", StateRecording, EventReset, StateIdle, false},
		{"reset from processing", StateProcessing, EventReset, StateIdle, false},
		{"reset from idle", StateIdle, EventReset, StateIdle, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.from, tc.event)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s + %s", tc.from, tc.event)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestUnknownStateRejected(t *testing.T) {
	if _, err := Transition(State("bogus"), EventBegin); err == nil {
		t.Fatal("expected error for unknown state")
	}
}
