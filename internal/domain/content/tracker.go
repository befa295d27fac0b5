package content

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rpggio/courseflow/internal/notice"
)

// Tracker follows one in-flight import through the store's event feed.
type Tracker struct {
	store    Store
	nav      Navigator
	notifier Notifier
	observer Observer
	logger   *slog.Logger

	mu      sync.Mutex
	current *watch
	state   ImportState
}

type watch struct {
	ref  Reference
	id   string
	sub  Subscription
	stop chan TrackOutcome
}

func (w *watch) signal(outcome TrackOutcome) {
	select {
	case w.stop <- outcome:
	default:
	}
}

// NewTracker creates a tracker. observer may be nil.
func NewTracker(store Store, nav Navigator, notifier Notifier, observer Observer, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		store:    store,
		nav:      nav,
		notifier: notifier,
		observer: observer,
		logger:   logger,
	}
}

// Track subscribes to ref's events and blocks until a terminal event for it
// arrives, the user cancels, or ctx ends.
func (t *Tracker) Track(ctx context.Context, ref Reference) (TrackOutcome, error) {
	if ref.Key() == "" {
		return "", ErrInvalidReference
	}
	return t.wait(ctx, t.begin(ctx, ref))
}

// State returns the current import snapshot.
func (t *Tracker) State() ImportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Resumed returns the content currently being imported, if any.
func (t *Tracker) Resumed() (Reference, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Reference{}, false
	}
	return t.current.ref, true
}

// Cancel asks the store to stop the resumed import. The in-progress state is
// cleared whether or not the store call succeeds.
func (t *Tracker) Cancel(ctx context.Context) error {
	t.mu.Lock()
	w := t.current
	t.mu.Unlock()
	if w == nil {
		return ErrNoActiveImport
	}

	err := t.store.Cancel(ctx, w.id)
	if err != nil {
		t.logger.Warn("cancel download failed", "content_id", w.id, "error", err)
	}
	t.release(ctx, w, ImportState{}, TrackCancelled)
	if err != nil {
		return fmt.Errorf("cancelling download: %w", err)
	}
	return nil
}

// Close releases the subscription without cancelling the import in the store.
func (t *Tracker) Close() {
	t.mu.Lock()
	w := t.current
	t.mu.Unlock()
	if w == nil {
		return
	}
	t.release(context.Background(), w, ImportState{}, TrackDetached)
}

// begin makes ref the resumed content and subscribes to its events. A
// previous watch for any identifier is released first.
func (t *Tracker) begin(ctx context.Context, ref Reference) *watch {
	w := &watch{
		ref:  ref,
		id:   ref.Key(),
		sub:  t.store.Subscribe(ref.Key()),
		stop: make(chan TrackOutcome, 1),
	}

	t.mu.Lock()
	previous := t.current
	t.current = w
	t.state = ImportState{ContentID: w.id, Downloading: true, CancelEnabled: true}
	state := t.state
	t.mu.Unlock()

	if previous != nil {
		previous.signal(TrackDetached)
		previous.sub.Close()
		t.logger.Debug("import tracking replaced", "previous", previous.id, "content_id", w.id)
	}
	t.publish(ctx, state)
	return w
}

func (t *Tracker) wait(ctx context.Context, w *watch) (TrackOutcome, error) {
	for {
		select {
		case <-ctx.Done():
			t.release(context.WithoutCancel(ctx), w, ImportState{}, TrackDetached)
			return TrackDetached, ctx.Err()
		case outcome := <-w.stop:
			return outcome, nil
		case ev, ok := <-w.sub.Events():
			if !ok {
				// A release that closed the feed signals its outcome first.
				select {
				case outcome := <-w.stop:
					return outcome, nil
				default:
				}
				t.release(ctx, w, ImportState{}, TrackDetached)
				return TrackDetached, nil
			}
			if outcome, done, err := t.handle(ctx, w, ev); done {
				return outcome, err
			}
		}
	}
}

// drain consumes already-delivered events without blocking. It reports
// whether a completion for w arrived; otherwise w is released.
func (t *Tracker) drain(ctx context.Context, w *watch) bool {
	for {
		select {
		case ev, ok := <-w.sub.Events():
			if !ok {
				t.release(ctx, w, ImportState{}, TrackDetached)
				return false
			}
			if outcome, done, _ := t.handle(ctx, w, ev); done {
				return outcome == TrackImported
			}
		default:
			t.release(ctx, w, ImportState{}, TrackDetached)
			return false
		}
	}
}

func (t *Tracker) handle(ctx context.Context, w *watch, ev Event) (TrackOutcome, bool, error) {
	if ev.Identifier != w.id {
		return "", false, nil
	}

	switch ev.Kind {
	case EventProgress:
		t.progress(ctx, w, ev.Percentage)
		return "", false, nil
	case EventCompleted:
		if !t.release(ctx, w, ImportState{ContentID: w.id, Percentage: 100}, TrackImported) {
			return TrackDetached, true, nil
		}
		t.logger.Info("content imported", "content_id", w.id)
		if err := t.nav.OpenContent(ctx, w.ref); err != nil {
			return TrackImported, true, fmt.Errorf("opening imported content: %w", err)
		}
		return TrackImported, true, nil
	case EventError:
		if !t.release(ctx, w, ImportState{}, TrackFailed) {
			return TrackDetached, true, nil
		}
		t.logger.Warn("content import failed", "content_id", w.id)
		t.notifier.Notify(ctx, notice.ContentNotAvailable)
		return TrackFailed, true, ErrImportFailed
	default:
		return "", false, nil
	}
}

func (t *Tracker) progress(ctx context.Context, w *watch, percentage int) {
	t.mu.Lock()
	if t.current != w {
		t.mu.Unlock()
		return
	}
	t.state.Percentage = percentage
	if percentage >= 100 {
		// Show the finished state before the formal completion event lands.
		t.state.CancelEnabled = false
	}
	state := t.state
	t.mu.Unlock()

	t.publish(ctx, state)
}

// release drops w if it is still current, hands outcome to its waiter and
// publishes final. The outcome is signalled before the subscription closes.
// It reports whether w was current.
func (t *Tracker) release(ctx context.Context, w *watch, final ImportState, outcome TrackOutcome) bool {
	t.mu.Lock()
	if t.current != w {
		t.mu.Unlock()
		return false
	}
	t.current = nil
	t.state = final
	t.mu.Unlock()

	w.signal(outcome)
	w.sub.Close()
	t.publish(ctx, final)
	return true
}

func (t *Tracker) publish(ctx context.Context, state ImportState) {
	if t.observer != nil {
		t.observer.ImportStateChanged(ctx, state)
	}
}
