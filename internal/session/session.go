// Package session tracks the per-device training sessions driven by the
// console: it validates and issues training commands, applies
// device-originated progress events, archives finished sessions and fans
// session notifications out to subscribers.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/roman-kulish/range-console/internal/progression"
	"github.com/roman-kulish/range-console/internal/training"
	"github.com/roman-kulish/range-console/internal/training/pattern"
	"github.com/roman-kulish/range-console/internal/training/scoring"
	"github.com/roman-kulish/range-console/internal/transport"
)

const (
	// EventStarted fires twice per session: once when the start command is
	// issued locally (pending) and again when the device confirms it
	// (running)
	EventStarted   Event = "sessionStarted"
	EventUpdated   Event = "sessionUpdated"
	EventPaused    Event = "sessionPaused"
	EventResumed   Event = "sessionResumed"
	EventCompleted Event = "sessionCompleted"
	EventError     Event = "sessionError"
)

var (
	// ErrSessionExists is returned when a device already has a non-terminal
	// session; at most one session may run per device
	ErrSessionExists = errors.New("device already has an active session")

	// ErrNoActiveSession is returned by commands that require an active
	// session for the device
	ErrNoActiveSession = errors.New("no active training session")
)

// Event identifies a session notification kind.
type Event string

func (e Event) String() string {
	return string(e)
}

// Listener receives session notifications synchronously, in subscription
// order. The session is a snapshot; listeners must not retain and mutate it.
type Listener func(*training.Session)

// Recorder is an optional sink for finished sessions and progress snapshots.
// The registry's in-memory history stays authoritative regardless.
type Recorder interface {
	RecordSession(ctx context.Context, session *training.Session) error
	RecordProgress(ctx context.Context, sessionID string, stats training.Stats, at time.Time) error
}

// WithLogger sets the logger for the registry.
func WithLogger(logger *slog.Logger) func(*Registry) {
	return func(r *Registry) {
		r.logger = logger.With(slog.String("component", "session"))
	}
}

// WithGenerator sets the target pattern generator.
func WithGenerator(generator *pattern.Generator) func(*Registry) {
	return func(r *Registry) {
		r.generator = generator
	}
}

// WithRecorder sets the session recorder.
func WithRecorder(recorder Recorder) func(*Registry) {
	return func(r *Registry) {
		r.recorder = recorder
	}
}

type subscription struct {
	event    Event
	listener Listener
}

// Registry holds the active session and session history for every device the
// console drives, plus the device roster reported by the serving side.
type Registry struct {
	channel   *transport.Channel
	generator *pattern.Generator
	recorder  Recorder
	logger    *slog.Logger

	now func() time.Time

	mu      sync.Mutex
	active  map[string]*training.Session
	history map[string][]*training.Session // append order; accessors reverse
	devices map[string]training.Device
	subs    map[Event][]*subscription

	unsubscribe []func()
	closeOnce   sync.Once
}

// New creates a registry wired to the channel. The registry subscribes to
// the training and device roster events immediately; Close detaches it.
func New(channel *transport.Channel, options ...func(*Registry)) *Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	r := Registry{
		channel: channel,
		logger:  logger,
		now:     time.Now,
		active:  make(map[string]*training.Session),
		history: make(map[string][]*training.Session),
		devices: make(map[string]training.Device),
		subs:    make(map[Event][]*subscription),
	}

	for _, option := range options {
		option(&r)
	}

	if r.generator == nil {
		r.generator = pattern.New()
	}

	r.unsubscribe = []func(){
		channel.Subscribe(transport.EventTrainingStarted, r.handleTrainingStarted),
		channel.Subscribe(transport.EventTrainingUpdate, r.handleTrainingUpdate),
		channel.Subscribe(transport.EventTrainingCompleted, r.handleTrainingCompleted),
		channel.Subscribe(transport.EventTrainingError, r.handleTrainingError),
		channel.Subscribe(transport.EventClientList, r.handleClientList),
		channel.Subscribe(transport.EventClientUpdate, r.handleClientUpdate),
		channel.Subscribe(transport.EventClientRemoved, r.handleClientRemoved),
	}

	return &r
}

// Close detaches the registry from the channel and clears all session
// subscriptions. Session state is left intact for final reads.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		for _, cancel := range r.unsubscribe {
			cancel()
		}

		r.mu.Lock()
		r.subs = make(map[Event][]*subscription)
		r.mu.Unlock()
	})
}

// StartTraining validates the configuration, generates the target sequence
// and issues the start command. The session is registered as pending before
// the send and rolled back if the send fails. A device with a non-terminal
// session rejects a second start.
func (r *Registry) StartTraining(ctx context.Context, deviceID string, config training.Config) (*training.Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, ok := r.active[deviceID]; ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: device %s", ErrSessionExists, deviceID)
	}

	targets := r.generator.Targets(config)
	session := training.NewSession(deviceID, config, targets, r.now())
	r.active[deviceID] = session
	r.mu.Unlock()

	command := startCommand{
		ClientID:  deviceID,
		Config:    config,
		Targets:   targets,
		SessionID: session.ID,
	}
	if err := r.channel.Send(ctx, msgStartTraining, command); err != nil {
		r.mu.Lock()
		delete(r.active, deviceID)
		r.mu.Unlock()
		return nil, fmt.Errorf("starting training for device %s: %w", deviceID, err)
	}

	r.logger.Info("training session started",
		slog.String("deviceID", deviceID),
		slog.String("sessionID", session.ID),
		slog.String("mode", config.Mode.String()),
		slog.String("difficulty", config.Difficulty.String()),
	)

	// snapshots are taken under the mutex; the transport read loop may
	// already be mutating the session
	r.mu.Lock()
	snapshot := session.Clone()
	r.mu.Unlock()

	r.notify(EventStarted, snapshot)
	return snapshot, nil
}

// StopTraining issues the stop command and finalizes the session locally:
// the session becomes completed, is scored a final time and moves to the
// device's history. A completion event racing the stop wins; the late
// finalization is then a no-op.
func (r *Registry) StopTraining(ctx context.Context, deviceID string) error {
	r.mu.Lock()
	session, ok := r.active[deviceID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: device %s", ErrNoActiveSession, deviceID)
	}
	sessionID := session.ID
	r.mu.Unlock()

	if err := r.channel.Send(ctx, msgStopTraining, sessionCommand{ClientID: deviceID, SessionID: sessionID}); err != nil {
		return fmt.Errorf("stopping training for device %s: %w", deviceID, err)
	}

	r.mu.Lock()
	session, ok = r.active[deviceID]
	if !ok || session.ID != sessionID {
		r.mu.Unlock()
		return nil // terminal event applied first
	}

	end := r.now()
	session.Status = training.StatusCompleted
	session.EndTime = &end
	session.Stats.Score = scoring.Score(session.Stats, session.Config)
	r.archiveLocked(session)
	r.mu.Unlock()

	r.record(session)
	r.notify(EventCompleted, session.Clone())
	return nil
}

// PauseTraining issues the pause command for the device's active session.
func (r *Registry) PauseTraining(ctx context.Context, deviceID string) error {
	return r.control(ctx, deviceID, msgPauseTraining, training.StatusPaused, EventPaused)
}

// ResumeTraining issues the resume command for the device's active session.
func (r *Registry) ResumeTraining(ctx context.Context, deviceID string) error {
	return r.control(ctx, deviceID, msgResumeTraining, training.StatusRunning, EventResumed)
}

func (r *Registry) control(ctx context.Context, deviceID, msgType string, status training.Status, event Event) error {
	r.mu.Lock()
	session, ok := r.active[deviceID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: device %s", ErrNoActiveSession, deviceID)
	}
	sessionID := session.ID
	r.mu.Unlock()

	if err := r.channel.Send(ctx, msgType, sessionCommand{ClientID: deviceID, SessionID: sessionID}); err != nil {
		return fmt.Errorf("%s for device %s: %w", msgType, deviceID, err)
	}

	r.mu.Lock()
	session, ok = r.active[deviceID]
	if !ok || session.ID != sessionID {
		r.mu.Unlock()
		return nil // session reached a terminal state meanwhile
	}
	session.Status = status
	snapshot := session.Clone()
	r.mu.Unlock()

	r.notify(event, snapshot)
	return nil
}

// Subscribe registers a listener for the session event. The returned
// function removes the subscription.
func (r *Registry) Subscribe(event Event, listener Listener) func() {
	sub := &subscription{event: event, listener: listener}

	r.mu.Lock()
	r.subs[event] = append(r.subs[event], sub)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		listeners := r.subs[sub.event]
		for i, s := range listeners {
			if s == sub {
				r.subs[sub.event] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// ActiveSession returns a snapshot of the device's active session.
func (r *Registry) ActiveSession(deviceID string) (*training.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.active[deviceID]
	if !ok {
		return nil, false
	}
	return session.Clone(), true
}

// ActiveSessions returns snapshots of all active sessions, ordered by
// device ID.
func (r *Registry) ActiveSessions() []*training.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := make([]*training.Session, 0, len(r.active))
	for _, session := range r.active {
		sessions = append(sessions, session.Clone())
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].DeviceID < sessions[j].DeviceID
	})
	return sessions
}

// History returns the device's archived sessions, most recent first.
func (r *Registry) History(deviceID string) []*training.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.historyLocked(deviceID)
}

// Devices returns the current device roster, ordered by ID.
func (r *Registry) Devices() []training.Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices := make([]training.Device, 0, len(r.devices))
	for _, device := range r.devices {
		devices = append(devices, device)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].ID < devices[j].ID
	})
	return devices
}

// Device returns the device record for the given ID.
func (r *Registry) Device(deviceID string) (training.Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[deviceID]
	return device, ok
}

// RecommendNext returns the recommended configuration for the device's next
// session, derived from its history.
func (r *Registry) RecommendNext(deviceID string) training.Config {
	r.mu.Lock()
	history := r.historyLocked(deviceID)
	r.mu.Unlock()

	return progression.Recommend(history)
}

func (r *Registry) historyLocked(deviceID string) []*training.Session {
	archived := r.history[deviceID]
	sessions := make([]*training.Session, len(archived))
	for i, session := range archived {
		sessions[len(archived)-1-i] = session.Clone()
	}
	return sessions
}

// archiveLocked moves a terminal session out of the active set into the
// device's history. Callers must hold the mutex.
func (r *Registry) archiveLocked(session *training.Session) {
	delete(r.active, session.DeviceID)
	r.history[session.DeviceID] = append(r.history[session.DeviceID], session)
}

func (r *Registry) record(session *training.Session) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordSession(context.Background(), session); err != nil {
		r.logger.Error("recording session failed",
			slog.String("sessionID", session.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (r *Registry) handleTrainingStarted(e transport.Event) {
	var event trainingStartedEvent
	if !r.decode(e, &event) {
		return
	}

	r.mu.Lock()
	session, ok := r.active[event.ClientID]
	if !ok {
		r.mu.Unlock()
		return // unknown device, nothing to update
	}
	session.Status = training.StatusRunning
	snapshot := session.Clone()
	r.mu.Unlock()

	r.notify(EventStarted, snapshot)
}

func (r *Registry) handleTrainingUpdate(e transport.Event) {
	var event trainingUpdateEvent
	if !r.decode(e, &event) {
		return
	}

	r.mu.Lock()
	session, ok := r.active[event.ClientID]
	if !ok {
		r.mu.Unlock()
		return
	}

	stats := scoring.CalculateStats(event.Hits, event.Misses, event.ReactionTimes)
	stats.Score = scoring.Score(stats, session.Config)
	session.Stats = stats
	sessionID := session.ID
	snapshot := session.Clone()
	r.mu.Unlock()

	if r.recorder != nil {
		if err := r.recorder.RecordProgress(context.Background(), sessionID, stats, r.now()); err != nil {
			r.logger.Error("recording progress failed",
				slog.String("sessionID", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}

	r.notify(EventUpdated, snapshot)
}

func (r *Registry) handleTrainingCompleted(e transport.Event) {
	var event trainingCompletedEvent
	if !r.decode(e, &event) {
		return
	}

	r.mu.Lock()
	session, ok := r.active[event.ClientID]
	if !ok {
		r.mu.Unlock()
		return // duplicate or stale completion, already archived
	}

	end := r.now()
	stats := scoring.CalculateStats(event.Stats.Hits, event.Stats.Misses, nil)
	stats.AvgReactionTime = event.Stats.AvgReactionTime
	stats.Score = scoring.Score(stats, session.Config)

	session.Status = training.StatusCompleted
	session.EndTime = &end
	session.Stats = stats
	r.archiveLocked(session)
	r.mu.Unlock()

	r.logger.Info("training session completed",
		slog.String("deviceID", session.DeviceID),
		slog.String("sessionID", session.ID),
		slog.Int("score", stats.Score),
	)

	r.record(session)
	r.notify(EventCompleted, session.Clone())
}

func (r *Registry) handleTrainingError(e transport.Event) {
	var event trainingErrorEvent
	if !r.decode(e, &event) {
		return
	}

	r.mu.Lock()
	session, ok := r.active[event.ClientID]
	if !ok {
		r.mu.Unlock()
		return
	}

	end := r.now()
	session.Status = training.StatusAborted
	session.EndTime = &end
	session.Error = event.Error
	r.archiveLocked(session)
	r.mu.Unlock()

	r.logger.Warn("training session aborted",
		slog.String("deviceID", session.DeviceID),
		slog.String("sessionID", session.ID),
		slog.String("error", event.Error),
	)

	r.record(session)
	r.notify(EventError, session.Clone())
}

func (r *Registry) handleClientList(e transport.Event) {
	var event clientListEvent
	if !r.decode(e, &event) {
		return
	}

	r.mu.Lock()
	r.devices = make(map[string]training.Device, len(event.Clients))
	for _, device := range event.Clients {
		r.devices[device.ID] = device
	}
	r.mu.Unlock()
}

func (r *Registry) handleClientUpdate(e transport.Event) {
	var event clientUpdateEvent
	if !r.decode(e, &event) {
		return
	}
	if event.Client.ID == "" {
		return
	}

	r.mu.Lock()
	r.devices[event.Client.ID] = event.Client
	r.mu.Unlock()
}

func (r *Registry) handleClientRemoved(e transport.Event) {
	var event clientRemovedEvent
	if !r.decode(e, &event) {
		return
	}

	r.mu.Lock()
	delete(r.devices, event.ClientID)
	r.mu.Unlock()
}

func (r *Registry) decode(e transport.Event, v any) bool {
	if err := json.Unmarshal(e.Data, v); err != nil {
		r.logger.Warn("dropping malformed event payload", slog.String("event", e.Type.String()))
		return false
	}
	return true
}

// notify fans the event out to listeners synchronously, in subscription
// order. A panicking listener does not suppress delivery to the others.
func (r *Registry) notify(event Event, session *training.Session) {
	r.mu.Lock()
	listeners := make([]*subscription, len(r.subs[event]))
	copy(listeners, r.subs[event])
	r.mu.Unlock()

	for _, sub := range listeners {
		r.invoke(sub, session)
	}
}

func (r *Registry) invoke(sub *subscription, session *training.Session) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("session listener panicked",
				slog.String("event", sub.event.String()),
				slog.Any("panic", rec),
			)
		}
	}()

	sub.listener(session)
}
