// Package convert turns the combined markdown document into a
// page-formatted file.
package convert

import (
	"context"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/toolexec"
)

// ErrOutputMissing indicates the converter succeeded without writing its output.
var ErrOutputMissing = errors.New("converted document missing")

// Converter converts the markdown file at input into output.
type Converter interface {
	Convert(ctx context.Context, input, output string) error
}

// Options configures the converter engines.
type Options struct {
	Command      string
	Format       string
	ProjectRoot  string
	DataDir      string
	ReferenceDoc string
	ExtraArgs    []string
}

// New returns the converter for engine. ok is false when conversion is
// disabled.
func New(engine config.ConvertEngine, runner toolexec.Runner, opts Options, logger *slog.Logger) (conv Converter, ok bool) {
	if logger == nil {
		logger = slog.Default()
	}
	switch engine {
	case config.ConvertEngineNone:
		return nil, false
	case config.ConvertEngineNative:
		return NewNative(logger), true
	default:
		return NewPandoc(runner, opts), true
	}
}
