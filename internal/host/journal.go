package host

import (
	"context"
	"strings"
	"sync"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
)

// Action kinds recorded in a Journal.
const (
	ActionNotice            = "notice"
	ActionNavigate          = "navigate"
	ActionBack              = "back"
	ActionLoader            = "loader"
	ActionBatchPicker       = "batch_picker"
	ActionImportState       = "import_state"
	ActionCourseEnrolled    = "course_enrolled"
	ActionReturnToCourse    = "return_to_course"
	ActionOnboardingPending = "onboarding_pending"
)

// Action is one thing the host was asked to do.
type Action struct {
	Kind    string                    `json:"kind"`
	Notice  string                    `json:"notice,omitempty"`
	Text    string                    `json:"text,omitempty"`
	Route   string                    `json:"route,omitempty"`
	Visible *bool                     `json:"visible,omitempty"`
	Batches []batch.Batch             `json:"batches,omitempty"`
	State   *content.ImportState      `json:"state,omitempty"`
	Event   *enrollment.EnrolledEvent `json:"event,omitempty"`
}

// Journal collects the actions of one request along with its route stack.
type Journal struct {
	mu      sync.Mutex
	routes  []string
	actions   []Action
	prefs     enrollment.Preferences
	dismissal enrollment.Dismissal
}

// NewJournal starts a journal at route. prefs, when set, receives the
// onboarding flag.
func NewJournal(route string, prefs enrollment.Preferences) *Journal {
	j := &Journal{prefs: prefs}
	if route != "" {
		j.routes = append(j.routes, route)
	}
	return j
}

// Actions returns a copy of the recorded actions.
func (j *Journal) Actions() []Action {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Action(nil), j.actions...)
}

// Route returns the current route, or "" at the root.
func (j *Journal) Route() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.routes) == 0 {
		return ""
	}
	return j.routes[len(j.routes)-1]
}

// SetDismissal sets how the batch picker of this request closes.
func (j *Journal) SetDismissal(d enrollment.Dismissal) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.dismissal = d
}

func (j *Journal) pickerDismissal() enrollment.Dismissal {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dismissal
}

func (j *Journal) record(a Action) {
	j.mu.Lock()
	defer j.mu.Unlock()
	// Consecutive progress snapshots collapse into the latest one.
	if a.Kind == ActionImportState && a.State.Downloading && len(j.actions) > 0 {
		last := &j.actions[len(j.actions)-1]
		if last.Kind == ActionImportState && last.State.Downloading && last.State.ContentID == a.State.ContentID {
			*last = a
			return
		}
	}
	j.actions = append(j.actions, a)
}

func (j *Journal) push(route string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.routes = append(j.routes, route)
}

func (j *Journal) pop() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.routes) == 0 {
		return "", false
	}
	j.routes = j.routes[:len(j.routes)-1]
	if len(j.routes) == 0 {
		return "", true
	}
	return j.routes[len(j.routes)-1], true
}

type journalKey struct{}

// WithJournal returns ctx carrying j.
func WithJournal(ctx context.Context, j *Journal) context.Context {
	return context.WithValue(ctx, journalKey{}, j)
}

// JournalFrom returns the journal carried by ctx, if any.
func JournalFrom(ctx context.Context) (*Journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*Journal)
	return j, ok
}

func routeFor(parts ...string) string {
	return "/" + strings.Join(parts, "/")
}
