package media

import (
	"errors"
	"fmt"
)

const (
	OpFetch   = "fetch"
	OpWrite   = "write"
	OpRelease = "release"
)

// ErrEmptyFile is returned when the transport resolves a photo to zero bytes.
var ErrEmptyFile = errors.New("file is empty")

// StageError is a staging failure tagged with the step that failed.
type StageError struct {
	Op  string
	Err error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return "stage " + e.Op
	}

	return fmt.Sprintf("stage %s: %v", e.Op, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// OpFromError returns the failed staging step, or "" when err is not a StageError.
func OpFromError(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Op
	}

	return ""
}
