package transport

import "fmt"

// StatusError reports a transfer rejected by the remote end with an
// HTTP-style status code. 5xx codes are retryable, 4xx codes are not.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote returned status %d", e.Code)
	}
	return fmt.Sprintf("remote returned status %d: %s", e.Code, e.Message)
}

// Retryable classifies server-side failures as transient.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500
}

// ValidationError reports a file the remote or transport refused outright
// (unsupported type, size limit, bad request). Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// Retryable marks validation failures as terminal.
func (e *ValidationError) Retryable() bool { return false }
