// Package transport maintains the persistent connection between the console
// and the serving side. It delivers inbound JSON frames to subscribers keyed
// by message type and recovers from connection drops with exponential
// backoff.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	// EventConnection is emitted locally on connect and disconnect
	EventConnection EventType = "connection"
	// EventError carries transport-level failures, including the terminal
	// reconnect-budget error
	EventError EventType = "error"

	EventClientList        EventType = "clientList"
	EventClientUpdate      EventType = "clientUpdate"
	EventClientRemoved     EventType = "clientRemoved"
	EventTrainingStarted   EventType = "trainingStarted"
	EventTrainingUpdate    EventType = "trainingUpdate"
	EventTrainingCompleted EventType = "trainingCompleted"
	EventTrainingError     EventType = "trainingError"
)

const (
	// DefaultBackoffBase is the delay before the first reconnect attempt;
	// subsequent attempts double it
	DefaultBackoffBase = time.Second

	// DefaultMaxReconnectAttempts caps consecutive reconnect attempts before
	// the channel gives up
	DefaultMaxReconnectAttempts = 5
)

// MaxReconnectMessage is the payload message of the terminal EventError
// emitted when the reconnect budget is exhausted.
const MaxReconnectMessage = "max reconnect attempts reached"

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
)

var (
	// ErrNotConnected is returned by Send while the channel has no open
	// connection
	ErrNotConnected = errors.New("channel is not connected")

	// ErrClosed is returned when the channel has been torn down
	ErrClosed = errors.New("channel is closed")
)

// EventType identifies an inbound message type or a synthetic channel event.
type EventType string

func (t EventType) String() string {
	return string(t)
}

// Event is a single dispatched message. Data holds the raw frame for inbound
// messages, or a synthesized payload for connection and error events.
type Event struct {
	Type EventType
	Data json.RawMessage
}

// Handler receives events synchronously from the dispatch loop. A handler
// must not block; a panicking handler is logged and does not suppress
// delivery to the remaining handlers.
type Handler func(Event)

// ConnectionStatus is the payload of EventConnection.
type ConnectionStatus struct {
	Status string `json:"status"`
}

// ErrorMessage is the payload of EventError.
type ErrorMessage struct {
	Message string `json:"message"`
}

// WithLogger sets the logger for the channel.
func WithLogger(logger *slog.Logger) func(*Channel) {
	return func(c *Channel) {
		c.logger = logger.With(slog.String("component", "transport"))
	}
}

// WithDialer overrides how the channel opens connections.
func WithDialer(dialer Dialer) func(*Channel) {
	return func(c *Channel) {
		c.dialer = dialer
	}
}

// WithBackoffBase sets the base reconnect delay.
func WithBackoffBase(base time.Duration) func(*Channel) {
	return func(c *Channel) {
		c.backoffBase = base
	}
}

// WithMaxReconnectAttempts sets the reconnect budget.
func WithMaxReconnectAttempts(attempts int) func(*Channel) {
	return func(c *Channel) {
		c.maxAttempts = attempts
	}
}

type subscription struct {
	event   EventType
	handler Handler
}

// Channel owns one logical connection to the serving side. It redials with
// exponential backoff after a drop and resets the attempt counter on a
// successful connect. After the reconnect budget is exhausted it emits a
// terminal EventError and stays down until Connect is called again.
type Channel struct {
	url    string
	dialer Dialer
	logger *slog.Logger

	backoffBase time.Duration
	maxAttempts int

	// timer indirection for deterministic backoff tests
	afterFunc func(time.Duration, func()) *time.Timer

	mu        sync.Mutex
	conn      Conn
	connected bool
	dialing   bool
	closed    bool
	attempts  int
	reconnect *time.Timer
	subs      map[EventType][]*subscription
}

// New creates a channel for the given URL. The channel does not connect
// until Connect is called.
func New(url string, options ...func(*Channel)) *Channel {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	c := Channel{
		url:         url,
		dialer:      DialWebSocket,
		logger:      logger,
		backoffBase: DefaultBackoffBase,
		maxAttempts: DefaultMaxReconnectAttempts,
		afterFunc:   time.AfterFunc,
		subs:        make(map[EventType][]*subscription),
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// Connect opens the underlying connection and starts the dispatch loop.
// On success the reconnect attempt counter resets to zero. A failed connect
// schedules a reconnect attempt, so callers only need to re-invoke Connect
// after the channel reported the terminal reconnect error.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	// a concurrent Connect, from the operator or a firing backoff timer,
	// must not race a dial already in flight
	if c.connected || c.dialing {
		c.mu.Unlock()
		return nil
	}
	c.dialing = true
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	c.mu.Unlock()

	conn, err := c.dialer(ctx, c.url)
	if err != nil {
		c.mu.Lock()
		c.dialing = false
		c.mu.Unlock()

		c.logger.Warn("connection failed", slog.String("url", c.url), slog.String("error", err.Error()))
		c.emit(EventError, errorData(err.Error()))
		c.scheduleReconnect(ctx)
		return fmt.Errorf("dialing %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.dialing = false
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.connected = true
	c.attempts = 0
	c.mu.Unlock()

	c.logger.Info("connected", slog.String("url", c.url))
	c.emit(EventConnection, statusData(statusConnected))

	go c.readLoop(ctx, conn)
	return nil
}

// Connected reports whether the channel currently has an open connection.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Send serializes the payload with the message type folded in as a single
// text frame and writes it to the connection. It returns ErrNotConnected
// without touching the payload when the channel is down.
func (c *Channel) Send(ctx context.Context, msgType string, payload any) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return ErrNotConnected
	}

	frame, err := encodeFrame(msgType, payload)
	if err != nil {
		return fmt.Errorf("encoding %s frame: %w", msgType, err)
	}

	if err := conn.Write(ctx, frame); err != nil {
		return fmt.Errorf("sending %s frame: %w", msgType, err)
	}
	return nil
}

// Subscribe registers a handler for the event type. Handlers run
// synchronously in subscription order for every matching event. The returned
// function removes the subscription.
func (c *Channel) Subscribe(event EventType, handler Handler) func() {
	sub := &subscription{event: event, handler: handler}

	c.mu.Lock()
	c.subs[event] = append(c.subs[event], sub)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		handlers := c.subs[sub.event]
		for i, s := range handlers {
			if s == sub {
				c.subs[sub.event] = append(handlers[:i], handlers[i+1:]...)
				break
			}
		}
	}
}

// Close tears the channel down: the connection is closed, pending reconnects
// are cancelled and all subscriptions are cleared. A closed channel cannot
// be reused.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false

	conn := c.conn
	c.conn = nil

	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	c.subs = make(map[EventType][]*subscription)
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Channel) readLoop(ctx context.Context, conn Conn) {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			c.handleDisconnect(ctx, conn, err)
			return
		}
		c.dispatch(data)
	}
}

// dispatch parses the frame envelope and fans the event out. Malformed
// frames are logged and dropped; they never reach handlers.
func (c *Channel) dispatch(data []byte) {
	var envelope struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Type == "" {
		c.logger.Warn("dropping malformed frame", slog.Int("bytes", len(data)))
		return
	}

	c.emit(envelope.Type, data)
}

func (c *Channel) handleDisconnect(ctx context.Context, conn Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return // stale read loop from a previous connection
	}
	c.conn = nil
	c.connected = false
	closed := c.closed
	c.mu.Unlock()

	_ = conn.Close()

	if closed {
		return
	}

	c.logger.Warn("connection lost", slog.String("error", cause.Error()))
	c.emit(EventConnection, statusData(statusDisconnected))
	c.scheduleReconnect(ctx)
}

func (c *Channel) scheduleReconnect(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.attempts++
	attempt := c.attempts
	if attempt > c.maxAttempts {
		c.mu.Unlock()
		c.logger.Error(MaxReconnectMessage)
		c.emit(EventError, errorData(MaxReconnectMessage))
		return
	}

	delay := c.backoffBase << (attempt - 1)
	c.reconnect = c.afterFunc(delay, func() {
		_ = c.Connect(ctx) // failures reschedule through the same path
	})
	c.mu.Unlock()

	c.logger.Info("reconnecting",
		slog.Int("attempt", attempt),
		slog.Int("maxAttempts", c.maxAttempts),
		slog.Duration("delay", delay),
	)
}

// emit delivers the event to every handler subscribed to the type, in
// subscription order. A panicking handler is isolated so the remaining
// handlers still run.
func (c *Channel) emit(event EventType, data []byte) {
	c.mu.Lock()
	handlers := make([]*subscription, len(c.subs[event]))
	copy(handlers, c.subs[event])
	c.mu.Unlock()

	e := Event{Type: event, Data: data}
	for _, sub := range handlers {
		c.invoke(sub, e)
	}
}

func (c *Channel) invoke(sub *subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event handler panicked",
				slog.String("event", e.Type.String()),
				slog.Any("panic", r),
			)
		}
	}()

	sub.handler(e)
}

// encodeFrame folds the message type into the serialized payload, producing
// a flat {"type": ..., <payload fields>} object.
func encodeFrame(msgType string, payload any) ([]byte, error) {
	frame := map[string]any{"type": msgType}

	if payload != nil {
		p, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal(p, &frame); err != nil {
			return nil, err
		}
		frame["type"] = msgType
	}

	return json.Marshal(frame)
}

func statusData(status string) []byte {
	data, _ := json.Marshal(ConnectionStatus{Status: status})
	return data
}

func errorData(message string) []byte {
	data, _ := json.Marshal(ErrorMessage{Message: message})
	return data
}
