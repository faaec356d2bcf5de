package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/stratum-data/stratum/cli/render"
	"github.com/stratum-data/stratum/graph"
	"github.com/stratum-data/stratum/log"
	"github.com/stratum-data/stratum/report"
)

// CompileCommand returns the compile command. Compilation is read-only over
// the project directory except for the graph cache under .stratum/.
func CompileCommand() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "Compile a project into a dependency graph of warehouse actions",
		ArgsUsage: "<projectDir>",
		Flags:     append(OutputFlags(), CompileFlags()...),
		Action:    compileAction,
	}
}

func compileAction(c *cli.Context) error {
	projectDir, err := projectDirArg(c)
	if err != nil {
		return err
	}

	vars, err := parseVars(c.StringSlice("vars"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	logger := log.NewLogger(log.Invocation{Command: "compile", ProjectDir: projectDir}).Sugar()

	g, err := graph.Compile(c.Context, projectDir, graph.Options{
		Vars:            vars,
		SchemaSuffix:    c.String("schema-suffix"),
		DefaultDatabase: c.String("default-database"),
		DefaultLocation: c.String("default-location"),
	})
	if err != nil {
		return cli.Exit(err.Error(), exitFatal)
	}

	if len(g.GraphErrors) > 0 {
		logger.Warnf("compiled with %d graph errors", len(g.GraphErrors))
	}

	// Cache and downstream notifications are best-effort: the compile
	// result on stdout is the contract, everything else degrades to a
	// warning.
	if err := report.WriteCache(projectDir, g); err != nil {
		logger.Warnf("graph cache write failed: %v", err)
	}
	exportAndNotify(c, logger, projectDir, g, nil)

	if c.Bool("tui") {
		return r.GraphTUI(g)
	}
	return r.Graph(g)
}
