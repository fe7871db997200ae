package core

import (
	"sync"
	"sync/atomic"
)

// Buffer sizes for client channels.
const (
	DefaultCommandBuffer = 16
	DefaultEventBuffer   = 256
)

// MaxHistoryLimit bounds the join history so it fits the event buffer with
// room left for live traffic queued while the client drains it.
const MaxHistoryLimit = DefaultEventBuffer - 56

// State is the lifecycle position of a session.
type State int32

const (
	StateConnecting State = iota
	StateAuthorizing
	StateJoined
	StateRejected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthorizing:
		return "authorizing"
	case StateJoined:
		return "joined"
	case StateRejected:
		return "rejected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Client is one connection's session as seen by the core layer.
// Name is the authenticated username; empty means no identity.
type Client struct {
	ID       string
	Name     string
	Commands chan *Command
	Events   chan *Event

	mu    sync.Mutex
	room  string
	state atomic.Int32

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id, name string) *Client {
	return &Client{
		ID:       id,
		Name:     name,
		Commands: make(chan *Command, DefaultCommandBuffer),
		Events:   make(chan *Event, DefaultEventBuffer),
		done:     make(chan struct{}),
	}
}

// Room returns the room resolved at connect time.
func (c *Client) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) setRoom(room string) {
	c.mu.Lock()
	c.room = room
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Done is closed once the session has been terminated.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Terminate asks the transport to close the connection. Safe to call
// repeatedly and from any goroutine; it never blocks.
func (c *Client) Terminate() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Terminated reports whether Terminate has been called.
func (c *Client) Terminated() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// send enqueues ev without blocking. It returns false if the buffer is full
// or the session is already terminated.
func (c *Client) send(ev *Event) bool {
	if c.Terminated() {
		return false
	}
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
