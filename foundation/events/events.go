// Package events fans node activity messages out to any number of
// subscribers, typically websocket clients.
package events

import (
	"fmt"
	"sync"
)

// subscriberBuffer is the number of messages a slow subscriber can lag
// behind before messages are dropped for it.
const subscriberBuffer = 100

// Events maintains the set of subscriber channels keyed by a unique id.
type Events struct {
	subs map[string]chan string
	mu   sync.RWMutex
}

// New constructs an Events value for registering and receiving events.
func New() *Events {
	return &Events{
		subs: make(map[string]chan string),
	}
}

// Acquire registers the specified id and returns the channel events will be
// delivered on. Acquiring an existing id returns the same channel.
func (evt *Events) Acquire(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.subs[id]; exists {
		return ch
	}

	evt.subs[id] = make(chan string, subscriberBuffer)
	return evt.subs[id]
}

// Release closes and removes the channel registered under the specified id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.subs, id)
	close(ch)
	return nil
}

// Send delivers the message to every subscriber without blocking. A
// subscriber with a full buffer misses the message.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Shutdown closes and removes every subscriber channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subs {
		delete(evt.subs, id)
		close(ch)
	}
}
