package enrollment

import (
	"context"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/notice"
)

// CourseService is the remote course API.
type CourseService interface {
	ListBatches(ctx context.Context, criteria Criteria) ([]batch.Batch, error)
	Enroll(ctx context.Context, req Request) (bool, error)
	ListEnrolled(ctx context.Context, userID string, fresh bool) ([]batch.EnrolledCourse, error)
}

// Preferences is the key/value store holding the deferred-intent slot. A
// missing key reads as the empty string.
type Preferences interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}

// Network reports connectivity.
type Network interface {
	Available(ctx context.Context) bool
}

// Navigator moves the host between screens.
type Navigator interface {
	OpenBatchList(ctx context.Context, c batch.Content, layout batch.Layout) error
	OpenContent(ctx context.Context, ref content.Reference) error
	CurrentRoute(ctx context.Context) string
	Back(ctx context.Context) error
}

// BatchPicker shows the batch chooser and waits for it to close.
type BatchPicker interface {
	PickBatch(ctx context.Context, c batch.Content, batches []batch.Batch) (Dismissal, error)
}

// Loader shows and hides a blocking progress indicator.
type Loader interface {
	Show(ctx context.Context)
	Hide(ctx context.Context)
}

// Notifier shows a user-visible notice.
type Notifier interface {
	Notify(ctx context.Context, key notice.Key)
}

// Telemetry records interactions.
type Telemetry interface {
	Interact(ctx context.Context, in Interaction)
}

// EnrolledCache keeps the user's last known enrollments.
type EnrolledCache interface {
	SetEnrolled(ctx context.Context, userID string, courses []batch.EnrolledCourse) error
}

// Listener receives enrollment events.
type Listener interface {
	CourseEnrolled(ctx context.Context, ev EnrolledEvent)
	ReturnToCourse(ctx context.Context)
}

// Onboarding records that a join attempt is waiting for sign-in onboarding.
type Onboarding interface {
	MarkJoinPending(ctx context.Context)
}

// ContentOpener resolves and opens course content.
type ContentOpener interface {
	Open(ctx context.Context, ref content.Reference) (content.Resolution, error)
}
