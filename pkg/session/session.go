package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cuemby/moorcore/pkg/types"
)

// Event is one piece of user-visible narrative output: text, a structured
// Var (for clients that render rich output), or both.
type Event struct {
	Text string
	Data types.Var
}

// Session is the narrative-sink contract a connected player's host exposes
// to the scheduler. Every method except the accessors is safe to call from
// the scheduler's control thread only; a Session implementation owns its
// own synchronization for whatever transport it fronts.
type Session interface {
	// SendEvent buffers event for player; it is not visible to the
	// connection until Commit flushes it.
	SendEvent(player types.Obj, event Event)
	// Commit flushes every event buffered since the last Commit or
	// Rollback to the connection and clears the buffer.
	Commit(player types.Obj) error
	// Rollback discards the player's buffered events without delivering
	// them.
	Rollback(player types.Obj)
	// RequestInput asks the connection to solicit a line of free-form
	// input tagged with id, to be returned later via whatever path the
	// host uses to report submit_requested_input.
	RequestInput(player types.Obj, id uuid.UUID) error
	// Disconnect tears down player's connection.
	Disconnect(player types.Obj) error
	// Connected reports whether player currently has a live connection.
	Connected(player types.Obj) bool
	// ConnectionName returns a host-defined description of player's
	// connection (peer address, terminal type, etc.), for @who-style
	// introspection.
	ConnectionName(player types.Obj) (string, bool)
}

// BufferedSession is the in-process Session implementation: events accumulate
// per player in memory until Commit, and delivery is a caller-supplied sink
// function rather than a real network transport. Hosts that front a real
// connection (telnet, websocket) wrap a transport-specific sink the same
// way.
type BufferedSession struct {
	mu      sync.Mutex
	buffers map[types.Obj][]Event
	conns   map[types.Obj]string
	sink    func(player types.Obj, events []Event) error
}

// NewBufferedSession builds a BufferedSession that delivers committed
// events to sink. A nil sink is legal for tests that only care about
// buffering/discard behavior.
func NewBufferedSession(sink func(player types.Obj, events []Event) error) *BufferedSession {
	return &BufferedSession{
		buffers: make(map[types.Obj][]Event),
		conns:   make(map[types.Obj]string),
		sink:    sink,
	}
}

// Connect registers player as having a live connection described by name.
// Hosts call this when a client authenticates; it is outside the Session
// interface because it is a host-driven event, not a scheduler one.
func (s *BufferedSession) Connect(player types.Obj, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[player] = name
}

func (s *BufferedSession) SendEvent(player types.Obj, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers[player] = append(s.buffers[player], event)
}

func (s *BufferedSession) Commit(player types.Obj) error {
	s.mu.Lock()
	events := s.buffers[player]
	delete(s.buffers, player)
	sink := s.sink
	s.mu.Unlock()

	if len(events) == 0 || sink == nil {
		return nil
	}
	return sink(player, events)
}

func (s *BufferedSession) Rollback(player types.Obj) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buffers, player)
}

func (s *BufferedSession) RequestInput(player types.Obj, id uuid.UUID) error {
	s.mu.Lock()
	_, connected := s.conns[player]
	s.mu.Unlock()
	if !connected {
		return fmt.Errorf("session: %s has no connection to request input from", player)
	}
	return nil
}

func (s *BufferedSession) Disconnect(player types.Obj) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, player)
	delete(s.buffers, player)
	return nil
}

func (s *BufferedSession) Connected(player types.Obj) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.conns[player]
	return ok
}

func (s *BufferedSession) ConnectionName(player types.Obj) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.conns[player]
	return name, ok
}
