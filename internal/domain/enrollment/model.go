package enrollment

import (
	"strconv"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/failure"
)

// Preference keys of the deferred-intent slot.
const (
	KeyBatchDetail = "batch_detail"
	KeyCourseData  = "course_data"
	KeyCorrelation = "cdata"
)

// Route fragments used to guard back-navigation after an enrollment.
const (
	RouteCourseBatches         = "course-batches"
	RouteEnrolledCourseDetails = "enrolled-course-details"
)

// Session is the authenticated user a flow runs for. A nil *Session means a
// guest.
type Session struct {
	UserID              string `json:"user_id"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
}

// BatchFields is the field projection requested when listing batches.
var BatchFields = []string{
	"endDate", "enrollmentEndDate", "enrollmentType", "startDate",
	"status", "name", "identifier", "courseId", "createdBy", "createdDate",
}

// Criteria filters a batch listing.
type Criteria struct {
	CourseID       string         `json:"courseId"`
	EnrollmentType string         `json:"enrollmentType"`
	Statuses       []batch.Status `json:"status"`
	SortBy         string         `json:"-"`
	SortOrder      string         `json:"-"`
	Fields         []string       `json:"-"`
}

// OpenBatches returns the criteria for joinable batches of courseID, newest
// first.
func OpenBatches(courseID string) Criteria {
	return Criteria{
		CourseID:       courseID,
		EnrollmentType: batch.EnrollmentOpen,
		Statuses:       append([]batch.Status(nil), batch.OpenStatuses...),
		SortBy:         "createdDate",
		SortOrder:      "desc",
		Fields:         append([]string(nil), BatchFields...),
	}
}

// Request is the enroll call sent to the course service.
type Request struct {
	BatchID     string       `json:"batchId"`
	CourseID    string       `json:"courseId"`
	UserID      string       `json:"userId"`
	BatchStatus batch.Status `json:"batchStatus"`
}

// PrepareRequest builds the enroll request. The batch's own course id wins
// over courseID.
func PrepareRequest(userID string, b batch.Batch, courseID string) Request {
	id := b.CourseID
	if id == "" {
		id = courseID
	}
	return Request{
		BatchID:     b.ID,
		CourseID:    id,
		UserID:      userID,
		BatchStatus: b.Status,
	}
}

// TelemetryObject identifies the course an interaction is about.
type TelemetryObject struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Version string `json:"version,omitempty"`
}

// Intent is a request to enroll a user into a batch.
type Intent struct {
	UserID      string                `json:"userId"`
	Batch       batch.Batch           `json:"batch"`
	CourseID    string                `json:"courseId,omitempty"`
	PageID      string                `json:"pageId,omitempty"`
	Object      TelemetryObject       `json:"object"`
	Correlation []content.Correlation `json:"correlation,omitempty"`
}

// DeferredCourse is the course half of a deferred intent.
type DeferredCourse struct {
	Identifier     string  `json:"identifier"`
	Name           string  `json:"name,omitempty"`
	CreatedBy      string  `json:"createdBy,omitempty"`
	PackageVersion float64 `json:"pkgVersion,omitempty"`
}

// Object returns the telemetry object for the course.
func (c DeferredCourse) Object() TelemetryObject {
	obj := TelemetryObject{ID: c.Identifier, Type: "Course"}
	if c.PackageVersion > 0 {
		obj.Version = strconv.FormatFloat(c.PackageVersion, 'f', -1, 64)
	}
	return obj
}

// Interaction types and subtypes emitted by the coordinator.
const (
	InteractTouch = "TOUCH"
	InteractOther = "OTHER"

	SubtypeEnrollClicked = "enroll-clicked"
	SubtypeEnrollSuccess = "enrollment-success"
	SubtypeEnrollFailed  = "enrollment-failed"
	SubtypeCancel        = "cancel"

	EnvHome = "home"

	PageCourses       = "courses"
	PageCourseBatches = "course-batches"
)

// Interaction is a telemetry interact record.
type Interaction struct {
	Type        string                `json:"type"`
	Subtype     string                `json:"subtype"`
	Env         string                `json:"env"`
	PageID      string                `json:"pageId"`
	Object      TelemetryObject       `json:"object"`
	Values      map[string]any        `json:"values,omitempty"`
	Rollup      []string              `json:"rollup,omitempty"`
	Correlation []content.Correlation `json:"correlation,omitempty"`
}

// Dismissal is what the batch picker returns when it closes.
type Dismissal struct {
	CanDelete bool   `json:"canDelete"`
	BatchID   string `json:"batchId,omitempty"`
}

// ListingStatus is how a batch listing request ended.
type ListingStatus string

const (
	ListingOffline     ListingStatus = "offline"
	ListingGuestPage   ListingStatus = "guest_batch_page"
	ListingNoBatches   ListingStatus = "opened_content"
	ListingPickerShown ListingStatus = "picker_shown"
	ListingFailed      ListingStatus = "failed"
)

// Listing is the outcome of ShowBatches.
type Listing struct {
	Status    ListingStatus `json:"status"`
	CourseID  string        `json:"course_id"`
	Batches   []batch.Batch `json:"batches,omitempty"`
	Dismissal *Dismissal    `json:"dismissal,omitempty"`
	Failure   failure.Kind  `json:"failure,omitempty"`
}

// Status is the enrollment outcome reported upward.
type Status string

const (
	StatusEnrolled        Status = "enrolled"
	StatusAlreadyEnrolled Status = "already_enrolled"
	StatusFailed          Status = "failed"
)

// Outcome is the result of one enroll attempt.
type Outcome struct {
	Status   Status       `json:"status"`
	CourseID string       `json:"course_id"`
	BatchID  string       `json:"batch_id"`
	Failure  failure.Kind `json:"failure,omitempty"`
	Code     string       `json:"code,omitempty"`
}

// Enrolled reports whether the user ends up enrolled.
func (o Outcome) Enrolled() bool {
	return o.Status == StatusEnrolled || o.Status == StatusAlreadyEnrolled
}

// EnrolledEvent is raised when a user is (or already was) enrolled.
type EnrolledEvent struct {
	BatchID  string `json:"batchId"`
	CourseID string `json:"courseId"`
}

// ReplayStatus is how a deferred replay ended.
type ReplayStatus string

const (
	ReplayNothingPending   ReplayStatus = "nothing_pending"
	ReplayAwaitOnboarding  ReplayStatus = "await_onboarding"
	ReplayReturnedToCourse ReplayStatus = "returned_to_course"
	ReplayEnrollAttempted  ReplayStatus = "enroll_attempted"
)

// Replay is the outcome of ReplayDeferred.
type Replay struct {
	Status  ReplayStatus `json:"status"`
	Outcome *Outcome     `json:"outcome,omitempty"`
}

// Opened is the outcome of Coordinator.Open.
type Opened struct {
	Evaluation batch.Evaluation    `json:"evaluation"`
	Resolution *content.Resolution `json:"resolution,omitempty"`
	Listing    *Listing            `json:"listing,omitempty"`
}
