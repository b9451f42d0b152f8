package training

import (
	"testing"
	"time"
)

func TestNewSession(t *testing.T) {
	start := time.UnixMilli(1700000000000)
	session := NewSession("device-1", DefaultConfig(ModeBasic), nil, start)

	if session.ID != "device-1-1700000000000" {
		t.Errorf("ID = %s, want device-1-1700000000000", session.ID)
	}
	if session.Status != StatusPending {
		t.Errorf("Status = %s, want %s", session.Status, StatusPending)
	}
	if session.EndTime != nil {
		t.Error("EndTime should be nil for a new session")
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusPaused, false},
		{StatusCompleted, true},
		{StatusAborted, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestSessionDuration(t *testing.T) {
	start := time.Now().Add(-time.Minute)
	session := NewSession("device-1", DefaultConfig(ModeBasic), nil, start)

	if d := session.Duration(); d < time.Minute {
		t.Errorf("Duration() = %s for a running session, want >= 1m", d)
	}

	end := start.Add(30 * time.Second)
	session.EndTime = &end
	if d := session.Duration(); d != 30*time.Second {
		t.Errorf("Duration() = %s, want 30s", d)
	}
}

func TestSessionClone(t *testing.T) {
	start := time.Now()
	end := start.Add(time.Minute)
	session := NewSession("device-1", DefaultConfig(ModeBasic), []Target{
		{ID: 0, X: 1, Y: 2, Size: 2, Duration: 1000},
		{ID: 1, X: 3, Y: 4, Size: 2, Duration: 1000, Movement: &Movement{Pattern: MovementLinear, Speed: 1, Range: 2}},
	}, start)
	session.EndTime = &end

	clone := session.Clone()
	if clone == session {
		t.Fatal("Clone() returned the same pointer")
	}

	clone.Targets[0].X = 99
	clone.Targets[1].Movement.Speed = 99
	*clone.EndTime = end.Add(time.Hour)

	if session.Targets[0].X == 99 {
		t.Error("mutating clone targets changed the original")
	}
	if session.Targets[1].Movement.Speed == 99 {
		t.Error("mutating clone movement changed the original")
	}
	if !session.EndTime.Equal(end) {
		t.Error("mutating clone end time changed the original")
	}
}
