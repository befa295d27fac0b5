package enrollment_test

import (
	"context"
	"testing"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"github.com/rpggio/courseflow/internal/notice"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func deferIntent(t *testing.T, f *fixture, createdBy string) {
	t.Helper()
	c := f.coordinator(true)
	err := c.DeferEnrollment(context.Background(),
		batch.Batch{ID: "b1", CourseID: "do_1", Status: batch.StatusNotStarted},
		enrollment.DeferredCourse{Identifier: "do_1", CreatedBy: createdBy, PackageVersion: 2},
		[]content.Correlation{{ID: "do_1", Type: "CourseBatch"}},
	)
	require.NoError(t, err)
}

func TestReplayDeferred_SelfAuthoredReturnsToCourse(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	deferIntent(t, f, "U1")
	f.listener.On("ReturnToCourse", ctx).Return().Once()

	replay, err := f.coordinator(true).ReplayDeferred(ctx, &enrollment.Session{UserID: "U1", OnboardingCompleted: true})
	require.NoError(t, err)
	require.Equal(t, enrollment.ReplayReturnedToCourse, replay.Status)
	f.courses.AssertNotCalled(t, "Enroll", mock.Anything, mock.Anything)
	f.listener.AssertExpectations(t)

	slot, _ := f.prefs.Get(ctx, enrollment.KeyBatchDetail)
	require.Empty(t, slot)
}

func TestReplayDeferred_GuestReturnsToCourse(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	deferIntent(t, f, "U1")
	f.listener.On("ReturnToCourse", ctx).Return().Once()

	replay, err := f.coordinator(true).ReplayDeferred(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, enrollment.ReplayReturnedToCourse, replay.Status)
	f.courses.AssertNotCalled(t, "Enroll", mock.Anything, mock.Anything)
}

func TestReplayDeferred_EnrollsUnderSessionUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	deferIntent(t, f, "U1")

	want := enrollment.Request{BatchID: "b1", CourseID: "do_1", UserID: "U2", BatchStatus: batch.StatusNotStarted}
	f.courses.On("Enroll", ctx, want).Return(true, nil).Once()
	f.courses.On("ListEnrolled", ctx, "U2", true).Return([]batch.EnrolledCourse{}, nil)
	f.cache.On("SetEnrolled", ctx, "U2", mock.Anything).Return(nil)
	f.notifier.On("Notify", ctx, notice.CourseEnrolled).Return().Once()
	f.listener.On("CourseEnrolled", ctx, enrollment.EnrolledEvent{BatchID: "b1", CourseID: "do_1"}).Return().Once()
	f.nav.On("CurrentRoute", ctx).Return("/home")

	replay, err := f.coordinator(true).ReplayDeferred(ctx, member)
	require.NoError(t, err)
	require.Equal(t, enrollment.ReplayEnrollAttempted, replay.Status)
	require.NotNil(t, replay.Outcome)
	require.Equal(t, enrollment.StatusEnrolled, replay.Outcome.Status)
	require.Equal(t, []string{enrollment.SubtypeEnrollClicked, enrollment.SubtypeEnrollSuccess}, f.telemetry.Subtypes())

	clicked := f.telemetry.Interactions[0]
	require.Equal(t, enrollment.PageCourseBatches, clicked.PageID)
	require.Equal(t, "2", clicked.Object.Version)
	require.Equal(t, []content.Correlation{{ID: "do_1", Type: "CourseBatch"}}, clicked.Correlation)

	for _, key := range []string{enrollment.KeyBatchDetail, enrollment.KeyCourseData, enrollment.KeyCorrelation} {
		v, _ := f.prefs.Get(ctx, key)
		require.Empty(t, v, key)
	}
	f.courses.AssertExpectations(t)
}

func TestReplayDeferred_WaitsForOnboarding(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	deferIntent(t, f, "U1")
	f.onboarding.On("MarkJoinPending", ctx).Return().Once()

	replay, err := f.coordinator(true).ReplayDeferred(ctx, &enrollment.Session{UserID: "U2"})
	require.NoError(t, err)
	require.Equal(t, enrollment.ReplayAwaitOnboarding, replay.Status)

	slot, _ := f.prefs.Get(ctx, enrollment.KeyBatchDetail)
	require.NotEmpty(t, slot)
	f.onboarding.AssertExpectations(t)
}

func TestReplayDeferred_NothingPending(t *testing.T) {
	f := newFixture()
	replay, err := f.coordinator(true).ReplayDeferred(context.Background(), member)
	require.NoError(t, err)
	require.Equal(t, enrollment.ReplayNothingPending, replay.Status)
}

func TestReplayDeferred_Malformed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.prefs.Put(ctx, enrollment.KeyBatchDetail, "{not json"))
	require.NoError(t, f.prefs.Put(ctx, enrollment.KeyCourseData, `{"identifier":"do_1"}`))

	_, err := f.coordinator(true).ReplayDeferred(ctx, member)
	require.ErrorIs(t, err, enrollment.ErrMalformedDeferred)

	slot, _ := f.prefs.Get(ctx, enrollment.KeyCourseData)
	require.Empty(t, slot)
}

func TestDeferEnrollment_RequiresBatch(t *testing.T) {
	f := newFixture()
	err := f.coordinator(true).DeferEnrollment(context.Background(), batch.Batch{}, enrollment.DeferredCourse{}, nil)
	require.ErrorIs(t, err, enrollment.ErrInvalidIntent)
}
