package enrollment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/content"
)

// DeferEnrollment stores an enroll attempt made before sign-in so it can be
// replayed once a session exists. The slot holds one intent; the last write
// wins.
func (c *Coordinator) DeferEnrollment(ctx context.Context, b batch.Batch, course DeferredCourse, correlation []content.Correlation) error {
	if b.ID == "" {
		return ErrInvalidIntent
	}
	if correlation == nil {
		correlation = []content.Correlation{}
	}

	entries := []struct {
		key   string
		value any
	}{
		{KeyBatchDetail, b},
		{KeyCourseData, course},
		{KeyCorrelation, correlation},
	}
	for _, e := range entries {
		data, err := json.Marshal(e.value)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", e.key, err)
		}
		if err := c.Preferences.Put(ctx, e.key, string(data)); err != nil {
			return fmt.Errorf("storing %s: %w", e.key, err)
		}
	}
	c.logger.Debug("enrollment deferred", "batch_id", b.ID, "course_id", course.Identifier)
	return nil
}

// ReplayDeferred replays a deferred intent for sess after sign-in. A nil sess
// is a guest. Guests and the course's own author are sent back to the course
// without enrolling; anyone else is enrolled under their own user id.
func (c *Coordinator) ReplayDeferred(ctx context.Context, sess *Session) (Replay, error) {
	if sess != nil && !sess.OnboardingCompleted {
		c.Onboarding.MarkJoinPending(ctx)
		return Replay{Status: ReplayAwaitOnboarding}, nil
	}

	batchJSON, err := c.Preferences.Get(ctx, KeyBatchDetail)
	if err != nil {
		return Replay{}, fmt.Errorf("reading deferred batch: %w", err)
	}
	courseJSON, err := c.Preferences.Get(ctx, KeyCourseData)
	if err != nil {
		return Replay{}, fmt.Errorf("reading deferred course: %w", err)
	}
	if batchJSON == "" || courseJSON == "" {
		return Replay{Status: ReplayNothingPending}, nil
	}

	var (
		b      batch.Batch
		course DeferredCourse
	)
	if err := json.Unmarshal([]byte(batchJSON), &b); err != nil {
		c.clearDeferred(ctx)
		return Replay{}, fmt.Errorf("%w: batch: %w", ErrMalformedDeferred, err)
	}
	if err := json.Unmarshal([]byte(courseJSON), &course); err != nil {
		c.clearDeferred(ctx)
		return Replay{}, fmt.Errorf("%w: course: %w", ErrMalformedDeferred, err)
	}

	replay := Replay{Status: ReplayReturnedToCourse}
	if sess == nil || course.CreatedBy == sess.UserID {
		c.Listener.ReturnToCourse(ctx)
	} else {
		replay.Status = ReplayEnrollAttempted
		out, joinErr := c.replay(ctx, sess.UserID, b, course)
		replay.Outcome = &out
		err = joinErr
	}

	if putErr := c.Preferences.Put(ctx, KeyBatchDetail, ""); putErr != nil {
		err = errors.Join(err, fmt.Errorf("clearing deferred batch: %w", putErr))
	}
	return replay, err
}

func (c *Coordinator) replay(ctx context.Context, userID string, b batch.Batch, course DeferredCourse) (Outcome, error) {
	correlation := c.deferredCorrelation(ctx)
	intent := Intent{
		UserID:      userID,
		Batch:       b,
		CourseID:    course.Identifier,
		PageID:      PageCourseBatches,
		Object:      course.Object(),
		Correlation: correlation,
	}
	c.interact(ctx, intent, InteractTouch, SubtypeEnrollClicked, map[string]any{
		"enrollReq": PrepareRequest(userID, b, course.Identifier),
	})
	return c.JoinBatch(ctx, intent)
}

func (c *Coordinator) deferredCorrelation(ctx context.Context) []content.Correlation {
	raw, err := c.Preferences.Get(ctx, KeyCorrelation)
	if err != nil || raw == "" {
		return nil
	}
	var correlation []content.Correlation
	if err := json.Unmarshal([]byte(raw), &correlation); err != nil {
		c.logger.Warn("ignoring malformed correlation data", "error", err)
		return nil
	}
	return correlation
}

// clearDeferred empties every key of the deferred slot.
func (c *Coordinator) clearDeferred(ctx context.Context) {
	for _, key := range []string{KeyBatchDetail, KeyCourseData, KeyCorrelation} {
		if err := c.Preferences.Put(ctx, key, ""); err != nil {
			c.logger.Warn("clearing deferred enrollment failed", "key", key, "error", err)
		}
	}
}
