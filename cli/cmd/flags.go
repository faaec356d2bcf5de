// Package cmd provides CLI commands for the stratum binary.
package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

// Exit codes. Non-fatal graph errors still exit 0; only settings/resolution
// failures (and a refused plan) are fatal.
const (
	exitSuccess = 0
	exitFatal   = 1
	exitUsage   = 2
)

// Shared output flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// JSONFlag forces json output; shorthand for --format json.
	JSONFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Force JSON output (shorthand for --format json)",
	}

	// NoColorFlag disables colored table output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables the interactive graph inspector (compile only).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (compile only)",
	}
)

// OutputFlags returns the shared output flags. --tui is included everywhere
// so unsupported commands can give an explicit error instead of a generic
// "flag not defined".
func OutputFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		JSONFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// CompileFlags returns the flags shared by every command that compiles a
// project. Compile and run each carry their own copy: their adjustments are
// independent axes, never inherited from one another.
func CompileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "vars",
			Usage: "Variable overrides as key=value (repeatable, comma-separated)",
		},
		&cli.StringFlag{
			Name:  "schema-suffix",
			Usage: "Append _<suffix> to every runtime schema",
		},
		&cli.StringFlag{
			Name:  "default-database",
			Usage: "Override the runtime database (project)",
		},
		&cli.StringFlag{
			Name:  "default-location",
			Usage: "Override the default location (region)",
		},
		&cli.StringFlag{
			Name:  "export",
			Usage: "Export output JSON to a directory or s3://bucket/prefix",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to a stratum.yaml CLI config file",
		},
	}
}

// projectDirArg extracts the required project directory argument.
func projectDirArg(c *cli.Context) (string, error) {
	dir := c.Args().First()
	if dir == "" {
		return "", cli.Exit("project directory argument required", exitUsage)
	}
	if c.Args().Len() > 1 {
		return "", cli.Exit(fmt.Sprintf("unexpected arguments: %s", strings.Join(c.Args().Slice()[1:], " ")), exitUsage)
	}
	return dir, nil
}

// parseVars parses key=value pairs from --vars.
func parseVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid var %q (expected key=value)", pair)
		}
		vars[key] = value
	}
	return vars, nil
}
