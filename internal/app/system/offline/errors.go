package offline

import "errors"

var (
	// ErrNotFound is returned by Match when no cache holds the request.
	ErrNotFound = errors.New("offline: no cached response")

	// ErrMethodNotCacheable is returned when a non-GET request is stored.
	ErrMethodNotCacheable = errors.New("offline: only GET requests can be cached")

	// ErrBatchFailed wraps the first failure of an AddAll batch.
	ErrBatchFailed = errors.New("offline: batch cache population failed")

	// ErrAlreadyResponded is returned by a second RespondWith on the same event.
	ErrAlreadyResponded = errors.New("offline: event already has a response")

	// ErrNoResponse means a handler overrode a request but produced nothing.
	ErrNoResponse = errors.New("offline: handler produced no response")

	// ErrUnknownStrategy is returned by ParseStrategy.
	ErrUnknownStrategy = errors.New("offline: unknown strategy")
)
