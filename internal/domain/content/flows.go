package content

import (
	"log/slog"
	"sync"
)

// Flows keeps a Resolver and Tracker per flow key, so flows running side by
// side each follow their own import.
type Flows struct {
	store    Store
	nav      Navigator
	notifier Notifier
	observer Observer
	opts     ResolverOptions
	logger   *slog.Logger

	mu    sync.Mutex
	flows map[string]*flow
}

type flow struct {
	resolver *Resolver
	tracker  *Tracker
}

// NewFlows creates an empty registry over a shared store.
func NewFlows(store Store, nav Navigator, notifier Notifier, observer Observer, opts ResolverOptions, logger *slog.Logger) *Flows {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Flows{
		store:    store,
		nav:      nav,
		notifier: notifier,
		observer: observer,
		opts:     opts,
		logger:   logger,
		flows:    make(map[string]*flow),
	}
}

// Flow returns the resolver and tracker of key, creating them on first use.
func (f *Flows) Flow(key string) (*Resolver, *Tracker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.flows[key]
	if !ok {
		logger := f.logger.With("flow", key)
		tracker := NewTracker(f.store, f.nav, f.notifier, f.observer, logger)
		fl = &flow{
			resolver: NewResolver(f.store, tracker, f.nav, f.notifier, f.opts, logger),
			tracker:  tracker,
		}
		f.flows[key] = fl
	}
	return fl.resolver, fl.tracker
}

// Close detaches every flow's tracker without cancelling imports.
func (f *Flows) Close() {
	f.mu.Lock()
	trackers := make([]*Tracker, 0, len(f.flows))
	for _, fl := range f.flows {
		trackers = append(trackers, fl.tracker)
	}
	f.mu.Unlock()

	for _, t := range trackers {
		t.Close()
	}
}
