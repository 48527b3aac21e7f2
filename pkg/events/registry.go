package events

import (
	"context"
	"errors"
	"sync"
)

const sessionQueueSize = 64

var (
	// ErrAlreadyExists is returned when registering a session ID twice.
	ErrAlreadyExists = errors.New("session already registered")
	// ErrNotFound is returned when subscribing to an unknown session.
	ErrNotFound = errors.New("session not found")
	// ErrAlreadySubscribed is returned on a second subscription attempt.
	ErrAlreadySubscribed = errors.New("session already has a subscriber")
)

type session struct {
	ch         chan Event
	cancel     context.CancelFunc
	subscribed bool
}

// Registry tracks live analysis sessions and their event queues. Each session
// carries one bounded queue and admits exactly one subscriber. Publishing to
// a session that no longer exists is a silent no-op so that late pipeline
// writers never fail.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*session)}
}

// Register creates the event queue for a new session ID.
func (r *Registry) Register(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		return ErrAlreadyExists
	}
	r.sessions[id] = &session{ch: make(chan Event, sessionQueueSize)}
	return nil
}

// SetCancel attaches the pipeline cancel function for a session so that
// Cleanup can stop the producer before tearing the queue down.
func (r *Registry) SetCancel(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.cancel = cancel
	}
}

// Publish enqueues one event on the session stream, blocking when the queue
// is full until the consumer drains it or ctx is cancelled. The end event
// additionally removes the session from the registry; the subscriber keeps
// its channel reference and drains the queued tail.
func (r *Registry) Publish(ctx context.Context, id, name string, data any) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case s.ch <- Event{Name: name, Data: data}:
	case <-ctx.Done():
		return ctx.Err()
	}

	if name == EventEnd {
		r.mu.Lock()
		if cur, ok := r.sessions[id]; ok && cur == s {
			delete(r.sessions, id)
		}
		r.mu.Unlock()
	}
	return nil
}

// Subscribe claims the single consumer slot for a session and returns its
// event channel. The channel stays valid after the session ends; the stream
// is over once the end event has been read.
func (r *Registry) Subscribe(id string) (<-chan Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.subscribed {
		return nil, ErrAlreadySubscribed
	}
	s.subscribed = true
	return s.ch, nil
}

// Cleanup force-removes a session, cancelling its pipeline first so a
// producer blocked on a full queue wakes up. Used when the consumer goes
// away before the stream finishes.
func (r *Registry) Cleanup(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok && s.cancel != nil {
		s.cancel()
	}
}
