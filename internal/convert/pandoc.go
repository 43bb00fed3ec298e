package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/toolexec"
)

// Pandoc converts through the pandoc binary.
type Pandoc struct {
	runner toolexec.Runner
	opts   Options
}

// NewPandoc returns a pandoc converter.
func NewPandoc(runner toolexec.Runner, opts Options) *Pandoc {
	if opts.Command == "" {
		opts.Command = "pandoc"
	}
	return &Pandoc{runner: runner, opts: opts}
}

// Command returns the invocation converting input into output.
func (p *Pandoc) Command(input, output string) toolexec.Command {
	args := []string{"--standalone"}
	if p.opts.DataDir != "" {
		args = append(args, "--data-dir", p.rooted(p.opts.DataDir))
	}
	if p.opts.ReferenceDoc != "" {
		args = append(args, "--reference-doc", p.rooted(p.opts.ReferenceDoc))
	}
	args = append(args, "--output", output, "--from", "markdown", "--to", p.opts.Format, input)
	args = append(args, p.opts.ExtraArgs...)
	return toolexec.Command{Name: p.opts.Command, Args: args, Dir: p.opts.ProjectRoot}
}

func (p *Pandoc) rooted(path string) string {
	if filepath.IsAbs(path) || p.opts.ProjectRoot == "" {
		return path
	}
	return filepath.Join(p.opts.ProjectRoot, path)
}

// Convert runs pandoc once and checks that output was written.
func (p *Pandoc) Convert(ctx context.Context, input, output string) error {
	cmd := p.Command(input, output)
	if err := p.runner.Run(ctx, cmd); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return ferrors.WrapError(err, ferrors.CategoryTool, "document conversion failed").
			Fatal().
			WithContext("command", cmd.String()).
			Build()
	}
	if _, err := os.Stat(output); err != nil {
		return ferrors.WrapError(fmt.Errorf("%w: %w", ErrOutputMissing, err), ferrors.CategoryBuild, "converter produced no output").
			Fatal().
			WithContext("path", output).
			Build()
	}
	return nil
}
