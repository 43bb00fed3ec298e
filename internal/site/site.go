// Package site drives the external static site compiler.
package site

import (
	"context"
	"errors"
	"fmt"
	"os"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/toolexec"
)

// ErrOutputMissing indicates the compiler succeeded without producing the
// expected output directory.
var ErrOutputMissing = errors.New("site output directory missing")

// Options configures the site compiler invocation.
type Options struct {
	Command     string
	Args        []string
	ProjectRoot string // working directory of the compiler
	OutputDir   string // absolute directory the compiler must produce
}

// Generator runs the site compiler.
type Generator struct {
	runner toolexec.Runner
	opts   Options
}

// NewGenerator returns a Generator running opts through runner.
func NewGenerator(runner toolexec.Runner, opts Options) *Generator {
	return &Generator{runner: runner, opts: opts}
}

// Generate runs the compiler once and checks its output directory exists.
func (g *Generator) Generate(ctx context.Context) error {
	cmd := toolexec.Command{Name: g.opts.Command, Args: g.opts.Args, Dir: g.opts.ProjectRoot}
	if err := g.runner.Run(ctx, cmd); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return ferrors.WrapError(err, ferrors.CategoryTool, "site generation failed").
			Fatal().
			WithContext("command", cmd.String()).
			Build()
	}

	info, err := os.Stat(g.opts.OutputDir)
	if err != nil || !info.IsDir() {
		cause := fmt.Errorf("%w: %s", ErrOutputMissing, g.opts.OutputDir)
		if err != nil {
			cause = fmt.Errorf("%w: %w", ErrOutputMissing, err)
		}
		return ferrors.WrapError(cause, ferrors.CategoryBuild, "site compiler produced no output").
			Fatal().
			WithContext("path", g.opts.OutputDir).
			Build()
	}
	return nil
}
