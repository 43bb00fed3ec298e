package commands

import (
	"fmt"

	"git.home.luguber.info/inful/bookbuilder/internal/pipeline"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Strict bool `help:"Exit non-zero when the push fails"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g.Logger)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	report, err := pipeline.NewBuilder(cfg, pipeline.WithLogger(g.Logger)).Publish(ctx)
	if err != nil {
		return err
	}
	if p.Strict && len(report.Warnings) > 0 {
		return report.Warnings[0]
	}
	fmt.Println(report.Summary())
	return nil
}
