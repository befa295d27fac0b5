package batch

import "github.com/rpggio/courseflow/internal/domain/content"

// Status is the server-side lifecycle state of a batch.
type Status int

const (
	StatusNotStarted Status = 0
	StatusInProgress Status = 1
	StatusRetired    Status = 2
)

// IsOpen reports whether learners can still take part in the batch. Any value
// other than not-started or in-progress counts as retired.
func (s Status) IsOpen() bool {
	return s == StatusNotStarted || s == StatusInProgress
}

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "NOT_STARTED"
	case StatusInProgress:
		return "IN_PROGRESS"
	default:
		return "RETIRED"
	}
}

// OpenStatuses is the status filter used when listing joinable batches.
var OpenStatuses = []Status{StatusNotStarted, StatusInProgress}

// EnrollmentOpen is the enrollment type of batches anyone may join.
const EnrollmentOpen = "open"

// Batch is a time-bounded cohort offering of a course.
type Batch struct {
	ID                string `json:"identifier"`
	CourseID          string `json:"courseId"`
	Name              string `json:"name,omitempty"`
	Status            Status `json:"status"`
	EnrollmentType    string `json:"enrollmentType,omitempty"`
	StartDate         string `json:"startDate,omitempty"`
	EndDate           string `json:"endDate,omitempty"`
	EnrollmentEndDate string `json:"enrollmentEndDate,omitempty"`
	CreatedBy         string `json:"createdBy,omitempty"`
	CreatedDate       string `json:"createdDate,omitempty"`
}

// EnrolledCourse is a user's enrollment record for one course.
type EnrolledCourse struct {
	ContentID            string  `json:"contentId"`
	CourseID             string  `json:"courseId"`
	BatchID              string  `json:"batchId"`
	Batch                Batch   `json:"batch"`
	CompletionPercentage float64 `json:"completionPercentage"`
	PackageVersion       float64 `json:"pkgVersion,omitempty"`
}

// Layout identifies the screen section a course card was rendered in. It
// selects which of the card's identifiers names the course.
type Layout int

const (
	LayoutDefault Layout = iota
	LayoutInProgress
)

// ParseLayout maps a host layout name to a Layout. Unknown names are default.
func ParseLayout(name string) Layout {
	if name == "InProgress" {
		return LayoutInProgress
	}
	return LayoutDefault
}

func (l Layout) String() string {
	if l == LayoutInProgress {
		return "InProgress"
	}
	return "Default"
}

// Content is the course card the user acted on.
type Content struct {
	Identifier     string  `json:"identifier,omitempty"`
	ContentID      string  `json:"contentId,omitempty"`
	PackageVersion float64 `json:"pkgVersion,omitempty"`
}

// Key returns the course identifier for layout. In-progress cards are keyed by
// contentId, every other layout by identifier.
func (c Content) Key(layout Layout) string {
	if layout == LayoutInProgress {
		return c.ContentID
	}
	return c.Identifier
}

// Reference returns the content reference handed to the resolver.
func (c Content) Reference(layout Layout) content.Reference {
	return content.Reference{Identifier: c.Key(layout), PackageVersion: c.PackageVersion}
}

// CourseDetails is the context a course card is opened from.
type CourseDetails struct {
	EnrolledCourses []EnrolledCourse `json:"enrolledCourses"`
	Layout          Layout           `json:"layout"`
	GuestUser       bool             `json:"guestUser"`
}

// Route is the evaluator's verdict.
type Route string

const (
	RouteContinue  Route = "CONTINUE"
	RoutePickBatch Route = "PICK_BATCH"
)

// Evaluation is the outcome of Evaluate.
type Evaluation struct {
	Route    Route           `json:"route"`
	CourseID string          `json:"course_id"`
	Record   *EnrolledCourse `json:"record,omitempty"`
}
