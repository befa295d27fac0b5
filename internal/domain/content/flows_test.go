package content_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFlows_KeysHaveOwnTracker(t *testing.T) {
	flows := content.NewFlows(&mocks.ContentStore{}, &mocks.ContentNavigator{}, &mocks.Notifier{}, nil, content.ResolverOptions{}, nil)

	resolverA, trackerA := flows.Flow("phone")
	resolverB, trackerB := flows.Flow("tablet")
	require.NotSame(t, trackerA, trackerB)
	require.NotSame(t, resolverA, resolverB)

	again, trackerAgain := flows.Flow("phone")
	require.Same(t, resolverA, again)
	require.Same(t, trackerA, trackerAgain)
}

func TestFlows_CloseDetachesEveryFlow(t *testing.T) {
	ctx := context.Background()
	store := &mocks.ContentStore{}
	sub := mocks.NewSubscription(1)
	store.On("Subscribe", "do1").Return(sub)
	flows := content.NewFlows(store, &mocks.ContentNavigator{}, &mocks.Notifier{}, nil, content.ResolverOptions{}, nil)
	_, tracker := flows.Flow("phone")

	done := make(chan content.TrackOutcome, 1)
	go func() {
		outcome, _ := tracker.Track(ctx, content.Reference{Identifier: "do1"})
		done <- outcome
	}()
	require.Eventually(t, func() bool {
		_, ok := tracker.Resumed()
		return ok
	}, time.Second, 5*time.Millisecond)

	flows.Close()
	require.Equal(t, content.TrackDetached, <-done)
	require.True(t, sub.Closed())
	store.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}
