package quiz

import (
	"errors"
	"fmt"

	"ideogrid/internal/model"
)

var (
	// ErrSkipLimitExceeded matches every *SkipLimitError
	ErrSkipLimitExceeded = errors.New("skip limit exceeded")
	ErrInvalidAnswer     = errors.New("answer must be within [0, 1]")
	ErrUnknownQuestion   = errors.New("question is not scheduled in this session")
	ErrSubmitted         = errors.New("session already submitted")
	ErrEmptySchedule     = errors.New("no questions to schedule")
)

// SkipLimitError reports a rejected skip. Skipped and Ratio describe the
// pool before the rejected request.
type SkipLimitError struct {
	Axis      model.Axis
	Skipped   int
	Scheduled int
	Ratio     float64
}

func (e *SkipLimitError) Error() string {
	return fmt.Sprintf("skip limit exceeded on %s: %d of %d already skipped (%.0f%%)",
		e.Axis, e.Skipped, e.Scheduled, e.Ratio*100)
}

func (e *SkipLimitError) Is(target error) bool {
	return target == ErrSkipLimitExceeded
}

// StateError is returned for an operation the current state does not allow
type StateError struct {
	Op    string
	State model.SessionState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s in state %s", e.Op, e.State)
}
