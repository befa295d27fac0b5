package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/courseflow/internal/domain/account"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"github.com/rpggio/courseflow/internal/failure"
)

var errSignInRequired = &APIError{Code: "SIGN_IN_REQUIRED", Message: "enrolling requires a signed-in user", RecoveryHint: "Call defer_enrollment and replay_deferred after sign-in"}

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var api *APIError
	if errors.As(err, &api) {
		return api
	}
	switch {
	case errors.Is(err, account.ErrUnauthorized):
		return &APIError{Code: "UNAUTHORIZED", Message: "invalid or revoked API key", RecoveryHint: "Issue a new key with `courseflow apikey create`"}
	case errors.Is(err, content.ErrInvalidReference):
		return &APIError{Code: "INVALID_REFERENCE", Message: "content reference has no identifier", RecoveryHint: "Pass identifier or content_id"}
	case errors.Is(err, content.ErrNoActiveImport):
		return &APIError{Code: "NO_ACTIVE_DOWNLOAD", Message: "no download is in progress"}
	case errors.Is(err, content.ErrImportRejected):
		return &APIError{Code: "IMPORT_REJECTED", Message: "content store refused the import", Details: err.Error()}
	case errors.Is(err, content.ErrImportFailed):
		return &APIError{Code: "IMPORT_FAILED", Message: "content download failed", RecoveryHint: "Retry resolve_content"}
	case errors.Is(err, enrollment.ErrInvalidIntent):
		return &APIError{Code: "INVALID_INTENT", Message: "enrollment needs a user and a batch identifier"}
	case errors.Is(err, enrollment.ErrEnrollRejected):
		return &APIError{Code: "ENROLL_REJECTED", Message: "course service did not confirm the enrollment"}
	case errors.Is(err, enrollment.ErrMalformedDeferred):
		return &APIError{Code: "MALFORMED_DEFERRED", Message: "stored enrollment intent was unreadable and has been cleared"}
	}

	switch failure.Classify(err) {
	case failure.KindNetworkAbsent:
		return &APIError{Code: "NETWORK_ABSENT", Message: "no network connection", RecoveryHint: "Retry once online"}
	case failure.KindConflict:
		return &APIError{Code: "ALREADY_ENROLLED", Message: "user is already enrolled in this course"}
	case failure.KindRemoteAuth:
		return &APIError{Code: "REMOTE_AUTH", Message: "course service rejected the credentials", Details: failure.Code(err)}
	case failure.KindRemoteServer:
		return &APIError{Code: "REMOTE_SERVER", Message: "course service failed", Details: failure.Code(err), RecoveryHint: "Retry later"}
	case failure.KindGenericRemote:
		return &APIError{Code: "REMOTE_ERROR", Message: "course service returned an error", Details: failure.Code(err)}
	case failure.KindLocalStore:
		return &APIError{Code: "LOCAL_STORE", Message: "local content store failed"}
	}
	return nil
}

// mapError returns the APIError for err when one applies, else err.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if api := MapError(err); api != nil {
		return api
	}
	return err
}
