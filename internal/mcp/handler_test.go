package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"github.com/rpggio/courseflow/internal/failure"
	"github.com/rpggio/courseflow/internal/host"
	"github.com/rpggio/courseflow/internal/notice"
	"github.com/rpggio/courseflow/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type resolverStub struct {
	openFn func(context.Context, content.Reference) (content.Resolution, error)
}

func (r resolverStub) Open(ctx context.Context, ref content.Reference) (content.Resolution, error) {
	return r.openFn(ctx, ref)
}

type trackerStub struct {
	state     content.ImportState
	ref       content.Reference
	active    bool
	cancelErr error
	cancelled bool
}

func (t *trackerStub) State() content.ImportState { return t.state }
func (t *trackerStub) Resumed() (content.Reference, bool) {
	return t.ref, t.active
}
func (t *trackerStub) Cancel(context.Context) error {
	t.cancelled = true
	t.state = content.ImportState{}
	return t.cancelErr
}

type fixture struct {
	courses   *mocks.CourseService
	cache     *mocks.EnrolledCache
	telemetry *mocks.Telemetry
	prefs     *mocks.Preferences
	tracker   *trackerStub
	host      *host.Host
	resolver  resolverStub
	flows     func(string) ContentFlow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := notice.Default()
	require.NoError(t, err)
	return &fixture{
		courses:   &mocks.CourseService{},
		cache:     &mocks.EnrolledCache{},
		telemetry: &mocks.Telemetry{},
		prefs:     mocks.NewPreferences(),
		tracker:   &trackerStub{},
		host:      host.New(cat.Translator("en-US"), nil),
	}
}

func (f *fixture) handler() *Handler {
	cat, _ := notice.Default()
	flows := f.flows
	if flows == nil {
		flows = func(string) ContentFlow { return ContentFlow{Resolver: f.resolver, Tracker: f.tracker} }
	}
	h := NewHandler(Services{
		Flows: flows,
		Enrollment: enrollment.Collaborators{
			Courses:    f.courses,
			Network:    mocks.Network(true),
			Navigator:  f.host,
			Picker:     f.host,
			Loader:     f.host,
			Notifier:   f.host,
			Telemetry:  f.telemetry,
			Cache:      f.cache,
			Listener:   f.host,
			Onboarding: f.host,
		},
		Preferences: f.prefs,
		Translator:  cat.Translator("en-US"),
	}, nil)
	h.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return h
}

func signedIn(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, sessionKey, &enrollment.Session{UserID: userID, OnboardingCompleted: true})
}

func onDevice(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deviceIDKey, id)
}

func kinds(actions []host.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Kind)
	}
	return out
}

func TestHandler_ResolveContent(t *testing.T) {
	f := newFixture(t)
	f.resolver.openFn = func(ctx context.Context, ref content.Reference) (content.Resolution, error) {
		require.Equal(t, content.Reference{ContentID: "do_1", PackageVersion: 2}, ref)
		f.host.Notify(ctx, notice.NoInternet)
		return content.Resolution{ContentID: "do_1", Failure: failure.KindNetworkAbsent}, failure.NetworkAbsent(nil)
	}

	out, err := f.handler().ResolveContent(context.Background(), ResolveContentParams{ContentID: "do_1", PackageVersion: 2})
	require.Error(t, err)
	require.Equal(t, "NETWORK_ABSENT", MapError(err).Code)
	require.Equal(t, "do_1", out.Resolution.ContentID)
	require.Equal(t, []string{host.ActionNotice}, kinds(out.Actions))
}

func TestHandler_ListBatchesShowsPicker(t *testing.T) {
	f := newFixture(t)
	batches := []batch.Batch{{ID: "b1", CourseID: "do_1", Status: batch.StatusInProgress, EnrollmentEndDate: "2024-07-01"}}
	f.courses.On("ListBatches", mock.Anything, enrollment.OpenBatches("do_1")).Return(batches, nil)

	ctx := signedIn(context.Background(), "U1")
	out, err := f.handler().ListBatches(ctx, ListBatchesParams{Card: batch.Content{Identifier: "do_1"}})
	require.NoError(t, err)
	require.Equal(t, enrollment.ListingPickerShown, out.Listing.Status)
	require.Equal(t, []string{host.ActionBatchPicker}, kinds(out.Actions))
	require.Equal(t, batches, out.Actions[0].Batches)

	require.NotNil(t, out.Hint)
	require.Equal(t, string(notice.LastDateToJoin), out.Hint.Key)
	require.Equal(t, "01/07/2024", out.Hint.Date)
	require.NotEmpty(t, out.Hint.Text)
}

func TestHandler_ListBatchesDismissalWithDelete(t *testing.T) {
	f := newFixture(t)
	batches := []batch.Batch{{ID: "b1", CourseID: "do_1", Status: batch.StatusInProgress}}
	f.courses.On("ListBatches", mock.Anything, enrollment.OpenBatches("do_1")).Return(batches, nil)

	ctx := signedIn(context.Background(), "U1")
	out, err := f.handler().ListBatches(ctx, ListBatchesParams{
		Card:      batch.Content{Identifier: "do_1"},
		Dismissal: &enrollment.Dismissal{CanDelete: true, BatchID: "b1"},
	})
	require.NoError(t, err)
	require.Equal(t, enrollment.ListingPickerShown, out.Listing.Status)
	require.NotNil(t, out.Listing.Dismissal)
	require.True(t, out.Listing.Dismissal.CanDelete)
	require.Equal(t, []string{enrollment.SubtypeCancel}, f.telemetry.Subtypes())

	again, err := f.handler().ListBatches(ctx, ListBatchesParams{Card: batch.Content{Identifier: "do_1"}})
	require.NoError(t, err)
	require.False(t, again.Listing.Dismissal.CanDelete)
	require.Len(t, f.telemetry.Subtypes(), 1)
}

func TestHandler_ListBatchesGuest(t *testing.T) {
	f := newFixture(t)
	out, err := f.handler().ListBatches(context.Background(), ListBatchesParams{
		Card:   batch.Content{Identifier: "do_1", ContentID: "do_9"},
		Layout: "InProgress",
	})
	require.NoError(t, err)
	require.Equal(t, enrollment.ListingGuestPage, out.Listing.Status)
	require.Equal(t, "/course-batches/do_9", out.Actions[0].Route)
	f.courses.AssertNotCalled(t, "ListBatches", mock.Anything, mock.Anything)
}

func TestHandler_EnrollRequiresSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.handler().Enroll(context.Background(), EnrollParams{Batch: batch.Batch{ID: "b1"}})
	require.Equal(t, "SIGN_IN_REQUIRED", MapError(err).Code)
}

func TestHandler_EnrollNavigatesBack(t *testing.T) {
	f := newFixture(t)
	req := enrollment.Request{BatchID: "b1", CourseID: "do_1", UserID: "U1", BatchStatus: batch.StatusInProgress}
	f.courses.On("Enroll", mock.Anything, req).Return(true, nil)
	f.courses.On("ListEnrolled", mock.Anything, "U1", true).Return([]batch.EnrolledCourse{}, nil)
	f.cache.On("SetEnrolled", mock.Anything, "U1", []batch.EnrolledCourse{}).Return(nil)

	ctx := signedIn(context.Background(), "U1")
	out, err := f.handler().Enroll(ctx, EnrollParams{
		CurrentRoute: "/course-batches/do_1",
		Batch:        batch.Batch{ID: "b1", CourseID: "do_1", Status: batch.StatusInProgress},
	})
	require.NoError(t, err)
	require.Equal(t, enrollment.StatusEnrolled, out.Outcome.Status)
	require.Equal(t, []string{
		host.ActionLoader, host.ActionLoader, host.ActionNotice, host.ActionCourseEnrolled, host.ActionBack,
	}, kinds(out.Actions))
	f.cache.AssertExpectations(t)
}

func TestHandler_DeferredReplayIsPerDevice(t *testing.T) {
	f := newFixture(t)
	h := f.handler()
	phone := onDevice(context.Background(), "phone")

	_, err := h.DeferEnrollment(phone, DeferEnrollmentParams{
		Batch:  batch.Batch{ID: "b1", CourseID: "do_1"},
		Course: enrollment.DeferredCourse{Identifier: "do_1", CreatedBy: "author"},
	})
	require.NoError(t, err)

	tablet := signedIn(onDevice(context.Background(), "tablet"), "U2")
	replay, err := h.ReplayDeferred(tablet, ReplayDeferredParams{})
	require.NoError(t, err)
	require.Equal(t, enrollment.ReplayNothingPending, replay.Replay.Status)

	f.courses.On("Enroll", mock.Anything, mock.MatchedBy(func(r enrollment.Request) bool {
		return r.UserID == "U2" && r.BatchID == "b1"
	})).Return(true, nil)
	f.courses.On("ListEnrolled", mock.Anything, "U2", true).Return([]batch.EnrolledCourse{}, nil)
	f.cache.On("SetEnrolled", mock.Anything, "U2", mock.Anything).Return(nil)

	replay, err = h.ReplayDeferred(signedIn(phone, "U2"), ReplayDeferredParams{})
	require.NoError(t, err)
	require.Equal(t, enrollment.ReplayEnrollAttempted, replay.Replay.Status)
	require.Equal(t, enrollment.StatusEnrolled, replay.Replay.Outcome.Status)
	require.Contains(t, kinds(replay.Actions), host.ActionCourseEnrolled)
	require.Equal(t, []string{enrollment.SubtypeEnrollClicked, enrollment.SubtypeEnrollSuccess}, f.telemetry.Subtypes())
}

func TestHandler_ReplayWaitsForOnboarding(t *testing.T) {
	f := newFixture(t)
	ctx := context.WithValue(context.Background(), sessionKey, &enrollment.Session{UserID: "U3"})

	out, err := f.handler().ReplayDeferred(ctx, ReplayDeferredParams{})
	require.NoError(t, err)
	require.Equal(t, enrollment.ReplayAwaitOnboarding, out.Replay.Status)
	require.Equal(t, []string{host.ActionOnboardingPending}, kinds(out.Actions))

	flag, _ := f.prefs.Get(ctx, "default/"+host.KeyJoinOnboarding)
	require.Equal(t, "true", flag)
}

func TestHandler_CancelDownload(t *testing.T) {
	f := newFixture(t)
	f.tracker.state = content.ImportState{ContentID: "do_1", Percentage: 40, Downloading: true, CancelEnabled: true}
	f.tracker.ref = content.Reference{ContentID: "do_1"}
	f.tracker.active = true

	out, err := f.handler().CancelDownload(context.Background(), CancelDownloadParams{})
	require.NoError(t, err)
	require.True(t, f.tracker.cancelled)
	require.Equal(t, "do_1", out.ContentID)
	require.Equal(t, content.ImportState{}, out.State)
}

func TestHandler_DevicesTrackOwnImports(t *testing.T) {
	f := newFixture(t)
	store := &mocks.ContentStore{}
	subA, subB := mocks.NewSubscription(4), mocks.NewSubscription(4)
	store.On("DescribeLocal", mock.Anything, mock.Anything).Return(content.LocalDescriptor{}, nil)
	store.On("Subscribe", "do_a").Return(subA)
	store.On("Subscribe", "do_b").Return(subB)
	store.On("Import", mock.Anything, mock.Anything).Return([]content.ImportResult{}, nil)
	store.On("Cancel", mock.Anything, "do_b").Return(nil)

	registry := content.NewFlows(store, f.host, f.host, f.host, content.ResolverOptions{}, nil)
	t.Cleanup(registry.Close)
	f.flows = DeviceFlows(registry)
	h := f.handler()

	ctxA := onDevice(context.Background(), "tablet-a")
	ctxB := onDevice(context.Background(), "tablet-b")
	resolve := func(ctx context.Context, id string) <-chan ResolveContentResult {
		done := make(chan ResolveContentResult, 1)
		go func() {
			out, _ := h.ResolveContent(ctx, ResolveContentParams{ContentID: id})
			done <- out
		}()
		return done
	}
	active := func(ctx context.Context, id string) func() bool {
		return func() bool {
			out, _ := h.DownloadState(ctx, DownloadStateParams{})
			return out.Active && out.ContentID == id
		}
	}

	doneA := resolve(ctxA, "do_a")
	require.Eventually(t, active(ctxA, "do_a"), time.Second, 5*time.Millisecond)
	doneB := resolve(ctxB, "do_b")
	require.Eventually(t, active(ctxB, "do_b"), time.Second, 5*time.Millisecond)
	require.True(t, active(ctxA, "do_a")(), "second device must not replace the first device's import")

	out, err := h.CancelDownload(ctxB, CancelDownloadParams{})
	require.NoError(t, err)
	require.Equal(t, "do_b", out.ContentID)

	select {
	case res := <-doneB:
		require.Equal(t, content.TrackCancelled, res.Resolution.Import)
	case <-time.After(time.Second):
		t.Fatal("cancelled resolve did not return")
	}
	require.True(t, active(ctxA, "do_a")(), "cancel on one device must leave the other's import running")

	subA.Emit(content.Event{Kind: content.EventCompleted, Identifier: "do_a"})
	select {
	case res := <-doneA:
		require.Equal(t, content.TrackImported, res.Resolution.Import)
		require.Contains(t, kinds(res.Actions), host.ActionNavigate)
	case <-time.After(time.Second):
		t.Fatal("import on first device did not complete")
	}
	store.AssertNotCalled(t, "Cancel", mock.Anything, "do_a")
}

func TestHandler_EvaluateBatch(t *testing.T) {
	f := newFixture(t)
	record := batch.EnrolledCourse{
		ContentID:            "do_1",
		CourseID:             "do_1",
		BatchID:              "b1",
		Batch:                batch.Batch{ID: "b1", Status: batch.StatusInProgress, EndDate: "2024-01-02"},
		CompletionPercentage: 40,
	}

	out, err := f.handler().EvaluateBatch(context.Background(), EvaluateBatchParams{
		Card:            batch.Content{Identifier: "do_1"},
		EnrolledCourses: []batch.EnrolledCourse{record},
	})
	require.NoError(t, err)
	require.Equal(t, batch.RouteContinue, out.Evaluation.Route)
	require.NotNil(t, out.Hint)
	require.Equal(t, string(notice.CourseEndedOn), out.Hint.Key)
	require.Equal(t, batch.ToneDanger, out.Hint.Tone)
}
