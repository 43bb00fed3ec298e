package toolexec

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound indicates the executable was not found on PATH.
	ErrToolNotFound = errors.New("tool not found")
	// ErrToolFailed indicates the tool could not be run or exited non-zero.
	ErrToolFailed = errors.New("tool execution failed")
)

// ExitError reports a tool that ran and exited with a non-zero status.
type ExitError struct {
	Tool   string
	Code   int
	Output string // captured stderr, or stdout when stderr was empty
}

func (e *ExitError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.Code, e.Output)
	}
	return fmt.Sprintf("%s exited with status %d", e.Tool, e.Code)
}

func (e *ExitError) Unwrap() error { return ErrToolFailed }

// ExitCode lets the CLI exit with the tool's own status.
func (e *ExitError) ExitCode() int { return e.Code }
