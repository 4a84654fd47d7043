package throttle

import (
	"testing"
	"time"
)

func TestState_IsBlocked(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{name: "zero state", state: State{}, want: false},
		{
			name:  "window in the future",
			state: State{BlockedUntil: time.Now().Add(30 * time.Second)},
			want:  true,
		},
		{
			name:  "window already passed",
			state: State{BlockedUntil: time.Now().Add(-time.Second)},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsBlocked(); got != tt.want {
				t.Errorf("IsBlocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_TimeUntilUnblocked(t *testing.T) {
	past := State{BlockedUntil: time.Now().Add(-time.Minute)}
	if got := past.TimeUntilUnblocked(); got != 0 {
		t.Errorf("TimeUntilUnblocked() = %v, want 0 for a passed window", got)
	}

	future := State{BlockedUntil: time.Now().Add(time.Minute)}
	got := future.TimeUntilUnblocked()
	if got <= 0 || got > time.Minute {
		t.Errorf("TimeUntilUnblocked() = %v, want (0, 1m]", got)
	}
}

func TestState_IsStale(t *testing.T) {
	fresh := State{LastUpdate: time.Now()}
	if fresh.IsStale(time.Minute) {
		t.Error("fresh state reported stale")
	}

	old := State{LastUpdate: time.Now().Add(-2 * time.Minute)}
	if !old.IsStale(time.Minute) {
		t.Error("old state not reported stale")
	}
}
