package content

import (
	"context"

	"github.com/rpggio/courseflow/internal/notice"
)

// Store is the on-device content store.
type Store interface {
	DescribeLocal(ctx context.Context, identifier string) (LocalDescriptor, error)
	Import(ctx context.Context, req ImportRequest) ([]ImportResult, error)
	Cancel(ctx context.Context, identifier string) error
	// Subscribe returns a feed of events for identifier only.
	Subscribe(identifier string) Subscription
}

// Subscription is a scoped, identifier-keyed event feed.
type Subscription interface {
	Events() <-chan Event
	Close()
}

// Navigator opens content once it is usable.
type Navigator interface {
	OpenContent(ctx context.Context, ref Reference) error
}

// Notifier shows a user-visible notice.
type Notifier interface {
	Notify(ctx context.Context, key notice.Key)
}

// Observer receives import state changes, in order, before any navigation
// that depends on them.
type Observer interface {
	ImportStateChanged(ctx context.Context, state ImportState)
}
