package mcp

import (
	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"github.com/rpggio/courseflow/internal/host"
)

// Hint is a rendered card hint.
type Hint struct {
	Key  string     `json:"key"`
	Date string     `json:"date,omitempty"`
	Tone batch.Tone `json:"tone,omitempty"`
	Text string     `json:"text,omitempty"`
}

type ResolveContentParams struct {
	CurrentRoute   string  `json:"current_route,omitempty" jsonschema:"route the host is showing, e.g. /course-batches/do_1"`
	Identifier     string  `json:"identifier,omitempty" jsonschema:"content identifier"`
	ContentID      string  `json:"content_id,omitempty" jsonschema:"content id, preferred over identifier"`
	PackageVersion float64 `json:"pkg_version,omitempty" jsonschema:"package version the caller wants"`
}

type ResolveContentResult struct {
	Resolution content.Resolution `json:"resolution"`
	Actions    []host.Action      `json:"actions"`
}

type CancelDownloadParams struct {
	CurrentRoute string `json:"current_route,omitempty" jsonschema:"route the host is showing, e.g. /course-batches/do_1"`
}

type DownloadStateParams struct{}

type DownloadStateResult struct {
	State     content.ImportState `json:"state"`
	ContentID string              `json:"content_id,omitempty"`
	Active    bool                `json:"active"`
	Actions   []host.Action       `json:"actions,omitempty"`
}

type EvaluateBatchParams struct {
	Card            batch.Content          `json:"card"`
	Layout          string                 `json:"layout,omitempty" jsonschema:"InProgress for the in-progress section, anything else is default"`
	EnrolledCourses []batch.EnrolledCourse `json:"enrolled_courses,omitempty"`
	GuestUser       bool                   `json:"guest_user,omitempty"`
}

type EvaluateBatchResult struct {
	Evaluation batch.Evaluation `json:"evaluation"`
	Hint       *Hint            `json:"hint,omitempty"`
}

type OpenCourseParams struct {
	CurrentRoute    string                 `json:"current_route,omitempty" jsonschema:"route the host is showing, e.g. /course-batches/do_1"`
	Card            batch.Content          `json:"card"`
	Layout          string                 `json:"layout,omitempty"`
	EnrolledCourses []batch.EnrolledCourse `json:"enrolled_courses,omitempty"`
	GuestUser       bool                   `json:"guest_user,omitempty"`
}

type OpenCourseResult struct {
	Opened  enrollment.Opened `json:"opened"`
	Actions []host.Action     `json:"actions"`
}

type ListBatchesParams struct {
	CurrentRoute string                `json:"current_route,omitempty" jsonschema:"route the host is showing, e.g. /course-batches/do_1"`
	Card         batch.Content         `json:"card"`
	Layout       string                `json:"layout,omitempty"`
	Dismissal    *enrollment.Dismissal `json:"dismissal,omitempty" jsonschema:"how the host's batch picker was closed; canDelete records the picker cancel interaction"`
}

type ListBatchesResult struct {
	Listing enrollment.Listing `json:"listing"`
	Hint    *Hint              `json:"hint,omitempty"`
	Actions []host.Action      `json:"actions"`
}

type EnrollParams struct {
	CurrentRoute string                     `json:"current_route,omitempty" jsonschema:"route the host is showing, e.g. /course-batches/do_1"`
	Batch        batch.Batch                `json:"batch"`
	CourseID     string                     `json:"course_id,omitempty"`
	PageID       string                     `json:"page_id,omitempty"`
	Object       enrollment.TelemetryObject `json:"object,omitempty"`
	Correlation  []content.Correlation      `json:"correlation,omitempty"`
}

type EnrollResult struct {
	Outcome enrollment.Outcome `json:"outcome"`
	Actions []host.Action      `json:"actions"`
}

type DeferEnrollmentParams struct {
	Batch       batch.Batch               `json:"batch"`
	Course      enrollment.DeferredCourse `json:"course"`
	Correlation []content.Correlation     `json:"correlation,omitempty"`
}

type DeferEnrollmentResult struct {
	Deferred bool `json:"deferred"`
}

type ReplayDeferredParams struct {
	CurrentRoute string `json:"current_route,omitempty" jsonschema:"route the host is showing, e.g. /course-batches/do_1"`
}

type ReplayDeferredResult struct {
	Replay  enrollment.Replay `json:"replay"`
	Actions []host.Action     `json:"actions"`
}
