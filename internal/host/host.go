// Package host implements the collaborators the flows drive for a headless
// host. Instead of rendering, every request records what it would have shown
// or navigated to in a Journal carried by its context.
package host

import (
	"context"
	"log/slog"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"github.com/rpggio/courseflow/internal/notice"
)

// KeyJoinOnboarding is the preference set when a deferred join waits for
// onboarding to finish.
const KeyJoinOnboarding = "join_training_onboarding"

// Host records UI side effects. Calls on a context without a journal are
// only logged.
type Host struct {
	tr     *notice.Translator
	logger *slog.Logger
}

// New creates a host that renders notices with tr.
func New(tr *notice.Translator, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Host{tr: tr, logger: logger}
}

func (h *Host) record(ctx context.Context, a Action) {
	j, ok := JournalFrom(ctx)
	if !ok {
		h.logger.Debug("host action without journal", "kind", a.Kind, "route", a.Route, "notice", a.Notice)
		return
	}
	j.record(a)
}

// Notify shows a localized notice.
func (h *Host) Notify(ctx context.Context, key notice.Key) {
	text := string(key)
	if h.tr != nil {
		text = h.tr.Text(key)
	}
	h.record(ctx, Action{Kind: ActionNotice, Notice: string(key), Text: text})
}

// OpenContent navigates to the content details page.
func (h *Host) OpenContent(ctx context.Context, ref content.Reference) error {
	route := routeFor("content-details", ref.Key())
	if j, ok := JournalFrom(ctx); ok {
		j.push(route)
	}
	h.record(ctx, Action{Kind: ActionNavigate, Route: route})
	return nil
}

// OpenBatchList navigates to the course's batch list page.
func (h *Host) OpenBatchList(ctx context.Context, c batch.Content, layout batch.Layout) error {
	route := routeFor(enrollment.RouteCourseBatches, c.Key(layout))
	if j, ok := JournalFrom(ctx); ok {
		j.push(route)
	}
	h.record(ctx, Action{Kind: ActionNavigate, Route: route})
	return nil
}

// CurrentRoute returns the journal's current route.
func (h *Host) CurrentRoute(ctx context.Context) string {
	if j, ok := JournalFrom(ctx); ok {
		return j.Route()
	}
	return ""
}

// Back pops the journal's route stack.
func (h *Host) Back(ctx context.Context) error {
	route := ""
	if j, ok := JournalFrom(ctx); ok {
		route, _ = j.pop()
	}
	h.record(ctx, Action{Kind: ActionBack, Route: route})
	return nil
}

// PickBatch hands the batches to the caller and returns the dismissal the
// caller reported for this request, if any.
func (h *Host) PickBatch(ctx context.Context, c batch.Content, batches []batch.Batch) (enrollment.Dismissal, error) {
	h.record(ctx, Action{Kind: ActionBatchPicker, Batches: batches})
	if j, ok := JournalFrom(ctx); ok {
		return j.pickerDismissal(), nil
	}
	return enrollment.Dismissal{}, nil
}

// Show records the loader becoming visible.
func (h *Host) Show(ctx context.Context) {
	visible := true
	h.record(ctx, Action{Kind: ActionLoader, Visible: &visible})
}

// Hide records the loader being hidden.
func (h *Host) Hide(ctx context.Context) {
	visible := false
	h.record(ctx, Action{Kind: ActionLoader, Visible: &visible})
}

// ImportStateChanged records a download state snapshot.
func (h *Host) ImportStateChanged(ctx context.Context, state content.ImportState) {
	h.record(ctx, Action{Kind: ActionImportState, State: &state})
}

// CourseEnrolled records the enrolled event for the host to broadcast.
func (h *Host) CourseEnrolled(ctx context.Context, ev enrollment.EnrolledEvent) {
	h.record(ctx, Action{Kind: ActionCourseEnrolled, Event: &ev})
}

// ReturnToCourse records a return to the course the user came from.
func (h *Host) ReturnToCourse(ctx context.Context) {
	h.record(ctx, Action{Kind: ActionReturnToCourse})
}

// MarkJoinPending flags the join-training onboarding flow.
func (h *Host) MarkJoinPending(ctx context.Context) {
	if j, ok := JournalFrom(ctx); ok && j.prefs != nil {
		if err := j.prefs.Put(ctx, KeyJoinOnboarding, "true"); err != nil {
			h.logger.Warn("storing onboarding flag failed", "error", err)
		}
	}
	h.record(ctx, Action{Kind: ActionOnboardingPending})
}
