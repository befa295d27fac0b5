package contentstore

import (
	"testing"

	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/stretchr/testify/require"
)

func TestFeed_ScopedByIdentifier(t *testing.T) {
	f := NewFeed(4)
	a := f.Subscribe("do_a")
	b := f.Subscribe("do_b")
	defer a.Close()
	defer b.Close()

	f.Publish(content.Event{Kind: content.EventProgress, Identifier: "do_a", Percentage: 10})

	require.Equal(t, content.Event{Kind: content.EventProgress, Identifier: "do_a", Percentage: 10}, <-a.Events())
	select {
	case ev := <-b.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestFeed_DropsOldestWhenFull(t *testing.T) {
	f := NewFeed(2)
	sub := f.Subscribe("do_a")
	defer sub.Close()

	for pct := 1; pct <= 3; pct++ {
		f.Publish(content.Event{Kind: content.EventProgress, Identifier: "do_a", Percentage: pct})
	}
	f.Publish(content.Event{Kind: content.EventCompleted, Identifier: "do_a"})

	require.Equal(t, 3, (<-sub.Events()).Percentage)
	require.Equal(t, content.EventCompleted, (<-sub.Events()).Kind)
}

func TestFeed_CloseEndsStream(t *testing.T) {
	f := NewFeed(1)
	sub := f.Subscribe("do_a")
	require.Equal(t, 1, f.Subscribers("do_a"))

	sub.Close()
	sub.Close()

	_, ok := <-sub.Events()
	require.False(t, ok)
	require.Zero(t, f.Subscribers("do_a"))

	f.Publish(content.Event{Kind: content.EventCompleted, Identifier: "do_a"})
}
