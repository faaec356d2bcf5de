package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/stratum-data/stratum/cli/render"
	"github.com/stratum-data/stratum/graph"
	"github.com/stratum-data/stratum/log"
	"github.com/stratum-data/stratum/plan"
	"github.com/stratum-data/stratum/types"
)

// RunCommand returns the run command. Run recompiles the project with its
// own flags — compile-time and run-time adjustments are independent axes —
// then plans the resulting graph. No statement ever reaches a warehouse:
// executing the plan is an external concern, which is also why --dry-run
// changes nothing in the output.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Generate an ordered, executable run plan for a project",
		ArgsUsage: "<projectDir>",
		Flags: append(append(OutputFlags(), CompileFlags()...),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Produce the plan without marking it for execution (output is identical)",
			},
			&cli.BoolFlag{
				Name:  "full-refresh",
				Usage: "Rebuild incremental tables from scratch",
			},
			&cli.StringSliceFlag{
				Name:  "tags",
				Usage: "Only plan actions carrying at least one of these tags",
			},
			&cli.StringSliceFlag{
				Name:  "actions",
				Usage: "Only plan the named actions (canonical target or bare name)",
			},
			&cli.BoolFlag{
				Name:  "allow-compile-errors",
				Usage: "Plan the unaffected actions of a graph that has compile errors",
			},
		),
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	projectDir, err := projectDirArg(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for run; use compile --tui", exitUsage)
	}

	vars, err := parseVars(c.StringSlice("vars"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	logger := log.NewLogger(log.Invocation{Command: "run", ProjectDir: projectDir}).Sugar()

	g, err := graph.Compile(c.Context, projectDir, graph.Options{
		Vars:            vars,
		SchemaSuffix:    c.String("schema-suffix"),
		DefaultDatabase: c.String("default-database"),
		DefaultLocation: c.String("default-location"),
	})
	if err != nil {
		return cli.Exit(err.Error(), exitFatal)
	}

	p, err := plan.Build(g, types.RunConfig{
		FullRefresh:        c.Bool("full-refresh"),
		Tags:               c.StringSlice("tags"),
		Actions:            c.StringSlice("actions"),
		AllowCompileErrors: c.Bool("allow-compile-errors"),
	})
	if err != nil {
		return cli.Exit(err.Error(), exitFatal)
	}

	logger.Infof("planned %d actions (run %s)", len(p.Actions), p.RunID)
	exportAndNotify(c, logger, projectDir, g, p)

	return r.Plan(p)
}
