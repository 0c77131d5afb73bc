package task

import (
	"errors"
	"fmt"
)

// NotFoundError reports an operation against an unknown task id.
type NotFoundError struct {
	TaskID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.TaskID)
}

// TransitionError reports an operation that is not legal from the task's
// current status. Mutating operations never silently succeed.
type TransitionError struct {
	TaskID string
	From   Status
	Op     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s task %s in status %s", e.Op, e.TaskID, e.From)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInvalidTransition reports whether err wraps a TransitionError.
func IsInvalidTransition(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}
