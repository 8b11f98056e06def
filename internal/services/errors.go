package services

// ValidationError reports a malformed or incomplete request. Always caller-caused.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// UpstreamError reports a failed call to the completion API. Message carries
// the upstream text unchanged so it can be shown to the end user.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string { return e.Message }

func (e *UpstreamError) Unwrap() error { return e.Err }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

// UnavailableError reports an optional feature that is not configured.
type UnavailableError struct{ Message string }

func (e *UnavailableError) Error() string { return e.Message }
