package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores and
// services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Catalog errors
var (
	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrValidation     = errors.New("validation failed")
)

// Runner errors
var (
	// ErrRuntimeUnavailable means the embedded interpreter runtime has not
	// finished loading. Surfaced as output text, never fatal.
	ErrRuntimeUnavailable = errors.New("runtime not ready")

	// ErrRunInFlight means a run was requested while another is running for
	// the same session. Policy is reject, not queue.
	ErrRunInFlight = errors.New("a run is already in progress")

	// ErrExecutionFault means the user's code faulted. The fault text is
	// captured and formatted as output; it never crashes the host.
	ErrExecutionFault = errors.New("execution fault")
)

// Upstream AI service errors
var (
	// ErrUpstreamQuota marks rate-limit/quota-class failures. These are the
	// only failures retried with backoff before degrading.
	ErrUpstreamQuota = errors.New("upstream quota exceeded")

	// ErrUpstream marks any other upstream failure, including malformed
	// response JSON. Never retried.
	ErrUpstream = errors.New("upstream error")
)

// Configuration errors
var (
	ErrConfiguration = errors.New("configuration error")
)

// General errors
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
