package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"github.com/rpggio/courseflow/internal/host"
	"github.com/rpggio/courseflow/internal/notice"
	"github.com/rpggio/courseflow/internal/preferences"
)

// ContentResolver opens content, importing it when needed.
type ContentResolver interface {
	Open(ctx context.Context, ref content.Reference) (content.Resolution, error)
}

// DownloadTracker exposes the tracked import.
type DownloadTracker interface {
	State() content.ImportState
	Resumed() (content.Reference, bool)
	Cancel(ctx context.Context) error
}

// ContentFlow is one device's content resolver and the tracker of its import.
type ContentFlow struct {
	Resolver ContentResolver
	Tracker  DownloadTracker
}

// DeviceFlows adapts a content.Flows registry keyed by device id.
func DeviceFlows(flows *content.Flows) func(deviceID string) ContentFlow {
	return func(deviceID string) ContentFlow {
		resolver, tracker := flows.Flow(deviceID)
		return ContentFlow{Resolver: resolver, Tracker: tracker}
	}
}

// Services contains everything the tools drive.
type Services struct {
	// Flows returns the content flow of a device. Devices never share a
	// tracker, so one caller's import cannot replace or cancel another's.
	Flows func(deviceID string) ContentFlow
	// Enrollment is the template for per-call coordinators. Its Preferences
	// and Content are replaced by the caller's device scope.
	Enrollment  enrollment.Collaborators
	Preferences preferences.Store
	Translator  *notice.Translator
}

// Handler implements the tools on top of the domain services.
type Handler struct {
	svc    Services
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{svc: svc, logger: logger, now: time.Now}
}

// call prepares the journal and device preferences of one tool call.
func (h *Handler) call(ctx context.Context, route string) (context.Context, *host.Journal, enrollment.Preferences) {
	prefs := preferences.Scope(h.svc.Preferences, getDeviceID(ctx))
	journal := host.NewJournal(route, prefs)
	return host.WithJournal(ctx, journal), journal, prefs
}

// flow returns the content flow of the caller's device.
func (h *Handler) flow(ctx context.Context) ContentFlow {
	device := getDeviceID(ctx)
	if device == "" {
		device = preferences.DefaultDevice
	}
	return h.svc.Flows(device)
}

func (h *Handler) coordinator(ctx context.Context, prefs enrollment.Preferences) *enrollment.Coordinator {
	deps := h.svc.Enrollment
	deps.Preferences = prefs
	deps.Content = h.flow(ctx).Resolver
	return enrollment.NewCoordinator(deps, h.logger)
}

func (h *Handler) hint(sh batch.SectionHint) *Hint {
	if !sh.Visible() {
		return nil
	}
	out := &Hint{Key: string(sh.Key), Date: sh.Date, Tone: sh.Tone}
	if h.svc.Translator != nil {
		out.Text = sh.Message(h.svc.Translator)
	}
	return out
}

// ResolveContent opens content, waiting for an import to finish when one is
// needed.
func (h *Handler) ResolveContent(ctx context.Context, p ResolveContentParams) (ResolveContentResult, error) {
	ctx, journal, _ := h.call(ctx, p.CurrentRoute)
	res, err := h.flow(ctx).Resolver.Open(ctx, content.Reference{
		Identifier:     p.Identifier,
		ContentID:      p.ContentID,
		PackageVersion: p.PackageVersion,
	})
	return ResolveContentResult{Resolution: res, Actions: journal.Actions()}, mapError(err)
}

// CancelDownload cancels the tracked import.
func (h *Handler) CancelDownload(ctx context.Context, p CancelDownloadParams) (DownloadStateResult, error) {
	ctx, journal, _ := h.call(ctx, p.CurrentRoute)
	tracker := h.flow(ctx).Tracker
	ref, active := tracker.Resumed()
	err := tracker.Cancel(ctx)
	return DownloadStateResult{
		State:     tracker.State(),
		ContentID: ref.Key(),
		Active:    active,
		Actions:   journal.Actions(),
	}, mapError(err)
}

// DownloadState returns the tracked import snapshot of the caller's device.
func (h *Handler) DownloadState(ctx context.Context, _ DownloadStateParams) (DownloadStateResult, error) {
	tracker := h.flow(ctx).Tracker
	ref, active := tracker.Resumed()
	return DownloadStateResult{State: tracker.State(), ContentID: ref.Key(), Active: active}, nil
}

// EvaluateBatch decides where a course card tap leads without acting on it.
func (h *Handler) EvaluateBatch(_ context.Context, p EvaluateBatchParams) (EvaluateBatchResult, error) {
	eval := batch.Evaluate(p.Card, p.details())
	out := EvaluateBatchResult{Evaluation: eval}
	if eval.Record != nil {
		out.Hint = h.hint(batch.EnrolledHint(*eval.Record, h.now()))
	}
	return out, nil
}

// OpenCourse handles a course card tap end to end.
func (h *Handler) OpenCourse(ctx context.Context, p OpenCourseParams) (OpenCourseResult, error) {
	ctx, journal, prefs := h.call(ctx, p.CurrentRoute)
	details := EvaluateBatchParams{EnrolledCourses: p.EnrolledCourses, Layout: p.Layout, GuestUser: p.GuestUser}.details()
	opened, err := h.coordinator(ctx, prefs).Open(ctx, getSession(ctx), p.Card, details)
	return OpenCourseResult{Opened: opened, Actions: journal.Actions()}, mapError(err)
}

// ListBatches shows the open batches of a course.
func (h *Handler) ListBatches(ctx context.Context, p ListBatchesParams) (ListBatchesResult, error) {
	ctx, journal, prefs := h.call(ctx, p.CurrentRoute)
	if p.Dismissal != nil {
		journal.SetDismissal(*p.Dismissal)
	}
	listing, err := h.coordinator(ctx, prefs).ShowBatches(ctx, getSession(ctx), p.Card, batch.ParseLayout(p.Layout))
	return ListBatchesResult{
		Listing: listing,
		Hint:    h.hint(batch.CourseHint(listing.Batches, h.now())),
		Actions: journal.Actions(),
	}, mapError(err)
}

// Enroll joins a batch as the authenticated user.
func (h *Handler) Enroll(ctx context.Context, p EnrollParams) (EnrollResult, error) {
	sess := getSession(ctx)
	if sess == nil {
		return EnrollResult{}, errSignInRequired
	}
	ctx, journal, prefs := h.call(ctx, p.CurrentRoute)
	out, err := h.coordinator(ctx, prefs).JoinBatch(ctx, enrollment.Intent{
		UserID:      sess.UserID,
		Batch:       p.Batch,
		CourseID:    p.CourseID,
		PageID:      p.PageID,
		Object:      p.Object,
		Correlation: p.Correlation,
	})
	return EnrollResult{Outcome: out, Actions: journal.Actions()}, mapError(err)
}

// DeferEnrollment stores a guest's enroll attempt for replay after sign-in.
func (h *Handler) DeferEnrollment(ctx context.Context, p DeferEnrollmentParams) (DeferEnrollmentResult, error) {
	_, _, prefs := h.call(ctx, "")
	if err := h.coordinator(ctx, prefs).DeferEnrollment(ctx, p.Batch, p.Course, p.Correlation); err != nil {
		return DeferEnrollmentResult{}, mapError(err)
	}
	return DeferEnrollmentResult{Deferred: true}, nil
}

// ReplayDeferred replays the device's deferred enrollment for the caller.
func (h *Handler) ReplayDeferred(ctx context.Context, p ReplayDeferredParams) (ReplayDeferredResult, error) {
	ctx, journal, prefs := h.call(ctx, p.CurrentRoute)
	replay, err := h.coordinator(ctx, prefs).ReplayDeferred(ctx, getSession(ctx))
	return ReplayDeferredResult{Replay: replay, Actions: journal.Actions()}, mapError(err)
}

func (p EvaluateBatchParams) details() batch.CourseDetails {
	return batch.CourseDetails{
		EnrolledCourses: p.EnrolledCourses,
		Layout:          batch.ParseLayout(p.Layout),
		GuestUser:       p.GuestUser,
	}
}
