// Package toolexec runs the external programs a book build depends on.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

const (
	// maxOutput bounds the tool output kept in an ExitError.
	maxOutput = 4096
	// waitDelay bounds how long a killed tool's children may hold its pipes.
	waitDelay = 5 * time.Second
)

// Command is one invocation of an external program.
type Command struct {
	Name string
	Args []string
	Dir  string   // working directory, empty for the current one
	Env  []string // KEY=VALUE pairs added to the inherited environment
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes commands. Every external program goes through a Runner so
// tests can substitute it.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command) error

// Run calls f(ctx, cmd).
func (f RunnerFunc) Run(ctx context.Context, cmd Command) error { return f(ctx, cmd) }

// BinaryRunner runs executables found on PATH, capturing their output.
type BinaryRunner struct {
	Logger *slog.Logger
}

// NewBinaryRunner returns a runner logging to logger, or slog.Default when nil.
func NewBinaryRunner(logger *slog.Logger) *BinaryRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &BinaryRunner{Logger: logger}
}

// Run executes cmd and waits for it. Canceling ctx kills the process.
func (r *BinaryRunner) Run(ctx context.Context, c Command) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path, err := exec.LookPath(c.Name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolNotFound, c.Name, err)
	}

	// #nosec G204 -- commands come from the project configuration
	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Running tool", logfields.Tool(c.Name), slog.String("command", c.String()), logfields.Path(c.Dir))
	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	outStr := strings.TrimSpace(stdout.String())
	errStr := strings.TrimSpace(stderr.String())
	if outStr != "" {
		logger.Debug("Tool stdout", logfields.Tool(c.Name), slog.String("output", outStr))
	}
	if errStr != "" {
		logger.Warn("Tool stderr", logfields.Tool(c.Name), slog.String("error_output", errStr))
	}

	if err == nil {
		logger.Debug("Tool finished", logfields.Tool(c.Name), logfields.DurationMS(float64(elapsed.Milliseconds())))
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", c.Name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		output := errStr
		if output == "" {
			output = outStr
		}
		return &ExitError{Tool: c.Name, Code: exitErr.ExitCode(), Output: tail(output, maxOutput)}
	}
	return fmt.Errorf("%w: %s: %w", ErrToolFailed, c.Name, err)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
