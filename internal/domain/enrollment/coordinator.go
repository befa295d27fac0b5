package enrollment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/failure"
	"github.com/rpggio/courseflow/internal/notice"
)

// Collaborators are the host services a Coordinator drives.
type Collaborators struct {
	Courses     CourseService
	Preferences Preferences
	Network     Network
	Navigator   Navigator
	Picker      BatchPicker
	Loader      Loader
	Notifier    Notifier
	Telemetry   Telemetry
	Cache       EnrolledCache
	Listener    Listener
	Onboarding  Onboarding
	Content     ContentOpener
}

// Coordinator runs batch listing, enrollment and deferred replay.
type Coordinator struct {
	Collaborators
	logger *slog.Logger
}

// NewCoordinator creates a coordinator.
func NewCoordinator(deps Collaborators, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{Collaborators: deps, logger: logger}
}

// Open handles a tap on a course card: an enrollment in an open batch goes
// straight to content resolution, anything else goes to batch listing.
func (c *Coordinator) Open(ctx context.Context, sess *Session, card batch.Content, details batch.CourseDetails) (Opened, error) {
	eval := batch.Evaluate(card, details)
	opened := Opened{Evaluation: eval}

	if eval.Route == batch.RouteContinue {
		ref := content.Reference{ContentID: eval.Record.ContentID, PackageVersion: card.PackageVersion}
		if ref.PackageVersion == 0 {
			ref.PackageVersion = eval.Record.PackageVersion
		}
		res, err := c.Content.Open(ctx, ref)
		opened.Resolution = &res
		return opened, err
	}

	listing, err := c.ShowBatches(ctx, sess, card, details.Layout)
	opened.Listing = &listing
	return opened, err
}

// ShowBatches lists the open batches of a course and lets the user pick one.
func (c *Coordinator) ShowBatches(ctx context.Context, sess *Session, card batch.Content, layout batch.Layout) (Listing, error) {
	courseID := card.Key(layout)
	listing := Listing{CourseID: courseID}

	if !c.Network.Available(ctx) {
		c.Notifier.Notify(ctx, notice.NoInternetTitle)
		listing.Status = ListingOffline
		listing.Failure = failure.KindNetworkAbsent
		return listing, nil
	}

	if sess == nil {
		listing.Status = ListingGuestPage
		if err := c.Navigator.OpenBatchList(ctx, card, layout); err != nil {
			return listing, fmt.Errorf("opening batch list: %w", err)
		}
		return listing, nil
	}

	batches, err := c.Courses.ListBatches(ctx, OpenBatches(courseID))
	if err != nil {
		listing.Status = ListingFailed
		listing.Failure = failure.Classify(err)
		c.Notifier.Notify(ctx, listingNotice(listing.Failure))
		return listing, fmt.Errorf("listing batches: %w", err)
	}
	listing.Batches = batches

	if len(batches) == 0 {
		listing.Status = ListingNoBatches
		if err := c.Navigator.OpenContent(ctx, card.Reference(layout)); err != nil {
			return listing, fmt.Errorf("opening content: %w", err)
		}
		return listing, nil
	}

	listing.Status = ListingPickerShown
	dismissal, err := c.Picker.PickBatch(ctx, card, batches)
	if err != nil {
		return listing, fmt.Errorf("picking batch: %w", err)
	}
	listing.Dismissal = &dismissal
	if dismissal.CanDelete {
		c.Telemetry.Interact(ctx, Interaction{
			Type:    InteractTouch,
			Subtype: SubtypeCancel,
			Env:     EnvHome,
			PageID:  PageCourses,
			Object:  TelemetryObject{ID: courseID, Type: "Course"},
		})
	}
	return listing, nil
}

func listingNotice(kind failure.Kind) notice.Key {
	switch kind {
	case failure.KindNetworkAbsent:
		return notice.NoInternet
	case failure.KindRemoteServer, failure.KindRemoteAuth:
		return notice.FetchingFailed
	default:
		return notice.ContentNotAvailable
	}
}

// Enroll issues the enroll call and records its telemetry. Failures are
// classified and shown to the user. An already-enrolled conflict is reported
// as StatusAlreadyEnrolled together with the error.
func (c *Coordinator) Enroll(ctx context.Context, intent Intent) (Outcome, error) {
	if intent.UserID == "" || intent.Batch.ID == "" {
		return Outcome{Status: StatusFailed}, ErrInvalidIntent
	}

	req := PrepareRequest(intent.UserID, intent.Batch, intent.CourseID)
	out := Outcome{CourseID: req.CourseID, BatchID: req.BatchID}
	values := map[string]any{"enrollReq": req}

	ok, err := c.Courses.Enroll(ctx, req)
	switch {
	case err == nil && ok:
		out.Status = StatusEnrolled
		c.interact(ctx, intent, InteractOther, SubtypeEnrollSuccess, values)
		c.logger.Info("enrolled", "user_id", req.UserID, "batch_id", req.BatchID, "course_id", req.CourseID)
		return out, nil
	case err == nil:
		err = ErrEnrollRejected
	}

	out.Status = StatusFailed
	out.Failure = failure.Classify(err)
	out.Code = failure.Code(err)
	values["error"] = out.Code

	switch {
	case out.Failure == failure.KindNetworkAbsent:
		c.Notifier.Notify(ctx, notice.NoInternetMessage)
	case failure.IsAlreadyEnrolled(err):
		out.Status = StatusAlreadyEnrolled
		c.Notifier.Notify(ctx, notice.AlreadyEnrolled)
	default:
		c.Notifier.Notify(ctx, notice.EnrollFailed)
	}
	c.interact(ctx, intent, InteractOther, SubtypeEnrollFailed, values)
	c.logger.Warn("enroll failed", "user_id", req.UserID, "batch_id", req.BatchID, "kind", out.Failure, "error", err)
	return out, fmt.Errorf("enrolling into batch %s: %w", req.BatchID, err)
}

// JoinBatch enrolls with a loader shown and applies the follow-ups: enrolled
// event, enrolled-list refresh and back-navigation. The deferred slot is
// cleared on every path. Already-enrolled is not an error here.
func (c *Coordinator) JoinBatch(ctx context.Context, intent Intent) (Outcome, error) {
	c.Loader.Show(ctx)
	out, err := c.Enroll(ctx, intent)
	c.Loader.Hide(ctx)

	event := EnrolledEvent{BatchID: out.BatchID, CourseID: out.CourseID}
	switch out.Status {
	case StatusEnrolled:
		c.Notifier.Notify(ctx, notice.CourseEnrolled)
		c.Listener.CourseEnrolled(ctx, event)
		c.refreshEnrolled(ctx, intent.UserID)
	case StatusAlreadyEnrolled:
		c.Listener.CourseEnrolled(ctx, event)
		err = nil
	default:
		if out.Failure == failure.KindNetworkAbsent {
			c.refreshEnrolled(ctx, intent.UserID)
		}
	}

	c.clearDeferred(ctx)
	c.navigateBack(ctx)
	return out, err
}

func (c *Coordinator) interact(ctx context.Context, intent Intent, kind, subtype string, values map[string]any) {
	page := intent.PageID
	if page == "" {
		page = PageCourseBatches
	}
	var rollup []string
	if intent.Object.ID != "" {
		rollup = []string{intent.Object.ID}
	}
	c.Telemetry.Interact(ctx, Interaction{
		Type:        kind,
		Subtype:     subtype,
		Env:         EnvHome,
		PageID:      page,
		Object:      intent.Object,
		Values:      values,
		Rollup:      rollup,
		Correlation: intent.Correlation,
	})
}

func (c *Coordinator) refreshEnrolled(ctx context.Context, userID string) {
	courses, err := c.Courses.ListEnrolled(ctx, userID, true)
	if err != nil {
		c.logger.Warn("refreshing enrolled courses failed", "user_id", userID, "error", err)
		return
	}
	if err := c.Cache.SetEnrolled(ctx, userID, courses); err != nil {
		c.logger.Warn("caching enrolled courses failed", "user_id", userID, "error", err)
	}
}

// navigateBack leaves the batch list for the course, unless the enrolled
// details screen is already showing.
func (c *Coordinator) navigateBack(ctx context.Context) {
	route := c.Navigator.CurrentRoute(ctx)
	if !strings.Contains(route, RouteCourseBatches) || strings.Contains(route, RouteEnrolledCourseDetails) {
		return
	}
	if err := c.Navigator.Back(ctx); err != nil {
		c.logger.Warn("navigating back failed", "route", route, "error", err)
	}
}
