// Package events fans node activity out to websocket subscribers.
package events

import (
	"fmt"
	"sync"
)

// messageBuffer is how many events a subscriber can fall behind before
// events are dropped for it. Websocket writes can be slow.
const messageBuffer = 100

// Events maintains a mapping of subscriber id to the channel the subscriber
// receives events on.
type Events struct {
	mu     sync.RWMutex
	m      map[string]chan string
	closed bool
}

// New constructs an events value for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan string),
	}
}

// Shutdown closes and removes every subscriber channel. Later calls to
// Acquire return a closed channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
	evt.closed = true
}

// Acquire registers the id and returns the channel events arrive on.
func (evt *Events) Acquire(id string) <-chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.m[id]; exists {
		return ch
	}

	ch := make(chan string, messageBuffer)
	if evt.closed {
		close(ch)
		return ch
	}

	evt.m[id] = ch
	return ch
}

// Release closes and removes the channel registered for the id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Subscribers returns the number of registered channels.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send formats the event and offers it to every subscriber. Send never
// blocks; a subscriber with a full buffer misses the event.
func (evt *Events) Send(v string, args ...any) {
	s := v
	if len(args) > 0 {
		s = fmt.Sprintf(v, args...)
	}

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- s:
		default:
		}
	}
}
