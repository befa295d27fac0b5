package mocks

import (
	"context"
	"sync"

	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/notice"
	"github.com/stretchr/testify/mock"
)

// ContentStore is a mock for content.Store.
type ContentStore struct {
	mock.Mock
}

func (m *ContentStore) DescribeLocal(ctx context.Context, identifier string) (content.LocalDescriptor, error) {
	args := m.Called(ctx, identifier)
	if desc, ok := args.Get(0).(content.LocalDescriptor); ok {
		return desc, args.Error(1)
	}
	return content.LocalDescriptor{}, args.Error(1)
}

func (m *ContentStore) Import(ctx context.Context, req content.ImportRequest) ([]content.ImportResult, error) {
	args := m.Called(ctx, req)
	if results, ok := args.Get(0).([]content.ImportResult); ok {
		return results, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContentStore) Cancel(ctx context.Context, identifier string) error {
	args := m.Called(ctx, identifier)
	return args.Error(0)
}

func (m *ContentStore) Subscribe(identifier string) content.Subscription {
	args := m.Called(identifier)
	return args.Get(0).(content.Subscription)
}

// Subscription is a channel-backed content.Subscription. Tests push events
// with Emit.
type Subscription struct {
	events chan content.Event

	mu     sync.Mutex
	closed bool
}

// NewSubscription returns a subscription with room for size buffered events.
func NewSubscription(size int) *Subscription {
	return &Subscription{events: make(chan content.Event, size)}
}

func (s *Subscription) Events() <-chan content.Event {
	return s.events
}

// Emit delivers ev unless the subscription was closed.
func (s *Subscription) Emit(ev content.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.events <- ev
}

// Close ends the event stream, as a store feed does.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

// Closed reports whether Close was called.
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ContentNavigator is a mock for content.Navigator.
type ContentNavigator struct {
	mock.Mock
}

func (m *ContentNavigator) OpenContent(ctx context.Context, ref content.Reference) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

// Notifier is a mock for content.Notifier and enrollment.Notifier.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Notify(ctx context.Context, key notice.Key) {
	m.Called(ctx, key)
}

// ImportObserver records every import state it is given.
type ImportObserver struct {
	mu     sync.Mutex
	states []content.ImportState
}

func (o *ImportObserver) ImportStateChanged(_ context.Context, state content.ImportState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, state)
}

// States returns a copy of the recorded states.
func (o *ImportObserver) States() []content.ImportState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]content.ImportState(nil), o.states...)
}
