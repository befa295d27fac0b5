package content

import (
	"time"

	"github.com/rpggio/courseflow/internal/failure"
)

// Reference is a course's pointer to its primary content artifact. Call sites
// populate either Identifier or ContentID.
type Reference struct {
	Identifier     string  `json:"identifier,omitempty"`
	ContentID      string  `json:"content_id,omitempty"`
	PackageVersion float64 `json:"pkg_version,omitempty"`
}

// Key returns the identifier used to address the content in the store.
func (r Reference) Key() string {
	if r.ContentID != "" {
		return r.ContentID
	}
	return r.Identifier
}

// LocalDescriptor is the store's view of a content id at resolution time.
type LocalDescriptor struct {
	Available      bool    `json:"is_available_locally"`
	PackageVersion float64 `json:"pkg_version"`
}

// Correlation tags an import or telemetry record with the flow that caused it.
type Correlation struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ImportRequest asks the store to fetch a content artifact.
type ImportRequest struct {
	Identifier        string        `json:"content_id"`
	PackageVersion    float64       `json:"pkg_version,omitempty"`
	DestinationFolder string        `json:"destination_folder,omitempty"`
	IsChildContent    bool          `json:"is_child_content"`
	Correlation       []Correlation `json:"correlation_data,omitempty"`
}

// ImportStatus is the store's per-identifier answer to an import request.
type ImportStatus string

const (
	ImportEnqueued      ImportStatus = "ENQUEUED"
	ImportAlreadyExists ImportStatus = "ALREADY_EXISTS"
	ImportNotFound      ImportStatus = "NOT_FOUND"
	ImportFailed        ImportStatus = "FAILED"
)

// ImportResult pairs an identifier with its import status.
type ImportResult struct {
	Identifier string       `json:"identifier"`
	Status     ImportStatus `json:"status"`
}

// EventKind classifies content lifecycle events.
type EventKind string

const (
	EventProgress  EventKind = "PROGRESS"
	EventCompleted EventKind = "IMPORT_COMPLETED"
	EventError     EventKind = "ERROR"
)

// Event is a lifecycle update for one content identifier.
type Event struct {
	Kind       EventKind `json:"kind"`
	Identifier string    `json:"identifier"`
	Percentage int       `json:"percentage,omitempty"`
}

// Terminal reports whether the event ends an import.
func (e Event) Terminal() bool {
	return e.Kind == EventCompleted || e.Kind == EventError
}

// Decision is the resolver's verdict for a reference.
type Decision string

const (
	DecisionUseLocal    Decision = "USE_LOCAL"
	DecisionStartImport Decision = "START_IMPORT"
)

// TrackOutcome is the terminal state of a tracked import.
type TrackOutcome string

const (
	TrackImported  TrackOutcome = "imported"
	TrackFailed    TrackOutcome = "failed"
	TrackCancelled TrackOutcome = "cancelled"
	// TrackDetached means tracking was released before a terminal event,
	// either by teardown or because another import replaced it.
	TrackDetached TrackOutcome = "detached"
)

// Resolution is what Resolver.Open reports upward.
type Resolution struct {
	ContentID string         `json:"content_id"`
	Decision  Decision       `json:"decision,omitempty"`
	Import    TrackOutcome   `json:"import,omitempty"`
	Failure   failure.Kind   `json:"failure,omitempty"`
	Statuses  []ImportResult `json:"statuses,omitempty"`
}

// ImportState is the tracker's UI-facing snapshot.
type ImportState struct {
	ContentID     string `json:"content_id,omitempty"`
	Percentage    int    `json:"percentage"`
	Downloading   bool   `json:"downloading"`
	CancelEnabled bool   `json:"cancel_enabled"`
}

// CatalogEntry is the local record of an imported content artifact.
type CatalogEntry struct {
	Identifier     string    `json:"identifier"`
	PackageVersion float64   `json:"pkg_version"`
	Path           string    `json:"path"`
	SizeBytes      int64     `json:"size_bytes"`
	ImportedAt     time.Time `json:"imported_at"`
}
