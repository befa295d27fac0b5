package content

import "errors"

var (
	// ErrInvalidReference indicates a reference with neither identifier nor content id.
	ErrInvalidReference = errors.New("content reference has no identifier")
	// ErrNoActiveImport indicates a cancel was requested with nothing in flight.
	ErrNoActiveImport = errors.New("no active import")
	// ErrImportRejected indicates the store refused the import request.
	ErrImportRejected = errors.New("import rejected by store")
	// ErrImportFailed indicates the event stream reported a failed import.
	ErrImportFailed = errors.New("import failed")
)
