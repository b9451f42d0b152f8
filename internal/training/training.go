// Package training defines the data model shared by the console components:
// devices, training configurations, targets, per-session statistics and the
// session state machine.
package training

import (
	"fmt"
	"time"
)

const (
	DeviceActive   DeviceStatus = "active"
	DeviceInactive DeviceStatus = "inactive"
)

type DeviceStatus string

func (s DeviceStatus) String() string {
	return string(s)
}

// Device is a remote training terminal known to the console. Device records
// are owned by the session registry and updated only from transport events.
type Device struct {
	ID      string       `json:"id"`
	Name    string       `json:"name,omitempty"`
	Address string       `json:"ip,omitempty"`      // network address as reported by the terminal
	RSSI    int          `json:"rssi,omitempty"`    // signal strength in dBm
	Battery int          `json:"battery,omitempty"` // charge in percent
	Status  DeviceStatus `json:"status"`
}

// Movement describes how a target moves while presented.
type Movement struct {
	Pattern MovementPattern `json:"pattern"`
	Speed   int             `json:"speed"`
	Range   int             `json:"range"` // cells of travel on the grid
}

// Target is one point the terminal must present to the trainee. Targets are
// produced once per session and never mutated after creation.
type Target struct {
	ID       int       `json:"id"`
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Size     int       `json:"size"`
	Duration int       `json:"duration"` // milliseconds the target stays lit
	Movement *Movement `json:"movement,omitempty"`
}

// Stats holds the scored performance figures for a session.
type Stats struct {
	Hits            int     `json:"hits"`
	Misses          int     `json:"misses"`
	Accuracy        float64 `json:"accuracy"`        // percent
	AvgReactionTime float64 `json:"avgReactionTime"` // milliseconds
	Score           int     `json:"score"`
}

const (
	// StatusPending is set locally until the terminal confirms the start
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

type Status string

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether the status is final. Terminal sessions are
// immutable and live in the per-device history.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

// Session is one bounded training run for a device, from start command to
// terminal state.
type Session struct {
	ID        string     `json:"id"`
	DeviceID  string     `json:"deviceId"`
	Config    Config     `json:"config"`
	Targets   []Target   `json:"targets,omitempty"`
	Status    Status     `json:"status"`
	Stats     Stats      `json:"stats"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Error     string     `json:"error,omitempty"` // device-reported failure, set on aborted sessions
}

// NewSession creates a pending session for the device. The session ID is
// derived from the device ID and the start timestamp.
func NewSession(deviceID string, config Config, targets []Target, startTime time.Time) *Session {
	return &Session{
		ID:        fmt.Sprintf("%s-%d", deviceID, startTime.UnixMilli()),
		DeviceID:  deviceID,
		Config:    config,
		Targets:   targets,
		Status:    StatusPending,
		StartTime: startTime,
	}
}

// Duration returns the elapsed session time, using the current time for
// sessions that have not ended yet.
func (s *Session) Duration() time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// Clone returns a deep copy of the session. Accessors hand out clones so
// archived sessions stay immutable.
func (s *Session) Clone() *Session {
	clone := *s

	if s.Targets != nil {
		clone.Targets = make([]Target, len(s.Targets))
		copy(clone.Targets, s.Targets)
		for i, t := range s.Targets {
			if t.Movement != nil {
				m := *t.Movement
				clone.Targets[i].Movement = &m
			}
		}
	}

	if s.EndTime != nil {
		end := *s.EndTime
		clone.EndTime = &end
	}

	return &clone
}
