// Package commands implements the bookbuilder subcommands.
package commands

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// Global is shared state passed to every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"bookbuilder.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Render the site, archive code samples, merge, convert and publish"`
	Merge   MergeCmd   `cmd:"" help:"Only rebuild the merged markdown document"`
	Publish PublishCmd `cmd:"" help:"Publish the existing output directory"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild the merged document whenever a chapter changes"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := config.NormalizeLogLevel(os.Getenv(config.LogLevelEnv)).SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return nil
}

// loadConfig reads the configuration file. A missing file at the default
// location falls back to defaults rooted at the working directory.
func (c *CLI) loadConfig(logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err == nil {
		return cfg, nil
	}
	if _, statErr := os.Stat(c.Config); errors.Is(statErr, fs.ErrNotExist) && isDefaultConfigPath(c.Config) {
		logger.Debug("No configuration file, using defaults", logfields.Path(c.Config))
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, wdErr
		}
		return config.Default(wd)
	}
	return nil, err
}

func isDefaultConfigPath(path string) bool {
	wd, err := os.Getwd()
	if err != nil {
		return false
	}
	return path == config.DefaultPath || path == wd+string(os.PathSeparator)+config.DefaultPath
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
