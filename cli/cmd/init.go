package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/stratum-data/stratum/cli/render"
	"github.com/stratum-data/stratum/loader"
	"github.com/stratum-data/stratum/settings"
)

// scaffoldCoreVersion is the core version written into new projects.
const scaffoldCoreVersion = "3.0.0"

// InitCommand returns the init command, which scaffolds a minimal project:
// a workflow_settings.yaml with the standard dataset defaults and an empty
// definitions directory.
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Scaffold a new project directory",
		ArgsUsage: "<projectDir>",
		Flags: append(OutputFlags(),
			&cli.StringFlag{
				Name:     "default-database",
				Usage:    "Database (project) the new project compiles into",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "default-location",
				Usage: "Warehouse location (region) for the new project",
			},
		),
		Action: initAction,
	}
}

// InitResponse summarizes what init created.
type InitResponse struct {
	ProjectDir   string   `json:"projectDir"`
	FilesCreated []string `json:"filesCreated"`
}

func initAction(c *cli.Context) error {
	projectDir, err := projectDirArg(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for init", exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	settingsPath := filepath.Join(projectDir, settings.WorkflowSettingsFileName)
	if _, err := os.Stat(settingsPath); err == nil {
		return cli.Exit(fmt.Sprintf("%s already exists in %s", settings.WorkflowSettingsFileName, projectDir), exitFatal)
	}
	manifestPath := filepath.Join(projectDir, settings.PackageManifestFileName)
	if _, err := os.Stat(manifestPath); err == nil {
		return cli.Exit(fmt.Sprintf("%s already exists in %s; refusing to scaffold over a legacy project", settings.PackageManifestFileName, projectDir), exitFatal)
	}

	content := fmt.Sprintf("dataformCoreVersion: %q\ndefaultProject: %s\n", scaffoldCoreVersion, c.String("default-database"))
	if loc := c.String("default-location"); loc != "" {
		content += fmt.Sprintf("defaultLocation: %s\n", loc)
	}
	content += fmt.Sprintf("defaultDataset: %s\ndefaultAssertionDataset: %s\n",
		settings.DefaultDataset, settings.DefaultAssertionDataset)

	definitionsDir := filepath.Join(projectDir, loader.DefinitionsDirName)
	if err := os.MkdirAll(definitionsDir, 0o755); err != nil {
		return cli.Exit(fmt.Sprintf("cannot create %s: %v", definitionsDir, err), exitFatal)
	}
	if err := os.WriteFile(settingsPath, []byte(content), 0o644); err != nil {
		return cli.Exit(fmt.Sprintf("cannot write %s: %v", settingsPath, err), exitFatal)
	}

	return r.Value(InitResponse{
		ProjectDir: projectDir,
		FilesCreated: []string{
			settings.WorkflowSettingsFileName,
			loader.DefinitionsDirName + string(os.PathSeparator),
		},
	})
}
