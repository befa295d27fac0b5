// Package failure classifies errors raised by the content store and the course
// service into the small set of kinds the flows react to.
package failure

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the classification of a failure as seen by the flows.
type Kind string

const (
	KindNone          Kind = ""
	KindNetworkAbsent Kind = "network_absent"
	KindConflict      Kind = "remote_conflict"
	KindRemoteServer  Kind = "remote_server"
	KindRemoteAuth    Kind = "remote_auth"
	KindGenericRemote Kind = "generic_remote"
	KindLocalStore    Kind = "local_store"
	KindUnknown       Kind = "unknown"
)

// StatusAlreadyEnrolled is the course service's error-body status for an
// enroll call on a batch the user already belongs to.
const StatusAlreadyEnrolled = "USER_ALREADY_ENROLLED_COURSE"

var (
	// ErrNetworkAbsent indicates the device has no usable network path.
	ErrNetworkAbsent = errors.New("network unavailable")
	// ErrLocalStore indicates the on-device content store failed.
	ErrLocalStore = errors.New("local store failure")
)

// RemoteError is a non-2xx reply from a remote service.
type RemoteError struct {
	StatusCode int
	// Status is the service-level status code from the error body's params.
	Status  string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("remote error: status=%d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("remote error: status=%d: %s", e.StatusCode, e.Message)
}

// NetworkAbsent wraps a transport error so it classifies as KindNetworkAbsent.
func NetworkAbsent(err error) error {
	if err == nil {
		return ErrNetworkAbsent
	}
	return fmt.Errorf("%w: %w", ErrNetworkAbsent, err)
}

// LocalStore wraps a storage error so it classifies as KindLocalStore.
func LocalStore(err error) error {
	if err == nil {
		return ErrLocalStore
	}
	return fmt.Errorf("%w: %w", ErrLocalStore, err)
}

// Classify returns the Kind of err. A nil error is KindNone.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrNetworkAbsent) {
		return KindNetworkAbsent
	}
	if errors.Is(err, ErrLocalStore) {
		return KindLocalStore
	}

	var remote *RemoteError
	if errors.As(err, &remote) {
		switch {
		case remote.Status == StatusAlreadyEnrolled:
			return KindConflict
		case remote.StatusCode == http.StatusUnauthorized || remote.StatusCode == http.StatusForbidden:
			return KindRemoteAuth
		case remote.StatusCode >= 500:
			return KindRemoteServer
		default:
			return KindGenericRemote
		}
	}
	return KindUnknown
}

// IsAlreadyEnrolled reports whether err is the course service's
// already-enrolled conflict.
func IsAlreadyEnrolled(err error) bool {
	return Classify(err) == KindConflict
}

// Code returns the value reported to telemetry for err: the remote status
// when the service supplied one, otherwise the kind.
func Code(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Status != "" {
		return remote.Status
	}
	return string(Classify(err))
}
