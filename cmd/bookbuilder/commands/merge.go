package commands

import (
	"fmt"

	"git.home.luguber.info/inful/bookbuilder/internal/pipeline"
)

// MergeCmd implements the 'merge' command.
type MergeCmd struct {
	Convert bool   `help:"Also convert the merged document"`
	Report  string `name:"report" help:"Write a JSON build report to this path" type:"path"`
}

func (m *MergeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g.Logger)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	report, err := pipeline.NewBuilder(cfg, pipeline.WithLogger(g.Logger)).Merge(ctx, m.Convert)
	writeArtifacts(g.Logger, report, m.Report, nil, "")
	if err != nil {
		return err
	}
	fmt.Println(report.CombinedPath)
	return nil
}
