package contentstore

import (
	"sync"

	"github.com/rpggio/courseflow/internal/domain/content"
)

// DefaultBuffer is the per-subscription event buffer.
const DefaultBuffer = 64

// Feed fans content events out to subscribers keyed by identifier. Publish
// never blocks: a full subscriber loses its oldest buffered event.
type Feed struct {
	mu     sync.Mutex
	buffer int
	subs   map[string]map[*subscription]struct{}
}

// NewFeed creates a feed. A non-positive buffer uses DefaultBuffer.
func NewFeed(buffer int) *Feed {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Feed{buffer: buffer, subs: make(map[string]map[*subscription]struct{})}
}

// Subscribe returns a subscription receiving events for identifier only.
func (f *Feed) Subscribe(identifier string) content.Subscription {
	s := &subscription{feed: f, identifier: identifier, events: make(chan content.Event, f.buffer)}

	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.subs[identifier]
	if !ok {
		set = make(map[*subscription]struct{})
		f.subs[identifier] = set
	}
	set[s] = struct{}{}
	return s
}

// Publish delivers ev to every subscriber of ev.Identifier.
func (f *Feed) Publish(ev content.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs[ev.Identifier] {
		s.offer(ev)
	}
}

// Subscribers returns the number of live subscriptions for identifier.
func (f *Feed) Subscribers(identifier string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[identifier])
}

func (f *Feed) remove(s *subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.subs[s.identifier]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(f.subs, s.identifier)
	}
	close(s.events)
}

type subscription struct {
	feed       *Feed
	identifier string
	events     chan content.Event
	once       sync.Once
}

func (s *subscription) Events() <-chan content.Event {
	return s.events
}

func (s *subscription) Close() {
	s.once.Do(func() { s.feed.remove(s) })
}

// offer is called with the feed lock held.
func (s *subscription) offer(ev content.Event) {
	for {
		select {
		case s.events <- ev:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}
