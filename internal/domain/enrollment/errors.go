package enrollment

import "errors"

var (
	// ErrEnrollRejected indicates the course service answered the enroll call with false.
	ErrEnrollRejected = errors.New("enrollment rejected")
	// ErrInvalidIntent indicates an intent without a user or batch.
	ErrInvalidIntent = errors.New("invalid enrollment intent")
	// ErrMalformedDeferred indicates the deferred-intent slot holds unreadable data.
	ErrMalformedDeferred = errors.New("malformed deferred enrollment")
)
