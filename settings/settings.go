// Package settings resolves the authoritative configuration source for a
// project: either a workflow_settings.yaml file or a legacy package.json
// manifest. The two modes are mutually exclusive; coexistence would make
// version resolution ambiguous and is rejected as a conflict.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stratum-data/stratum/types"
)

// Project file names recognized by the resolver.
const (
	// WorkflowSettingsFileName is the per-project settings file.
	WorkflowSettingsFileName = "workflow_settings.yaml"
	// PackageManifestFileName is the legacy package manifest.
	PackageManifestFileName = "package.json"
	// PackageLockFileName is the legacy package lockfile.
	PackageLockFileName = "package-lock.json"
	// InstalledDependenciesDirName is the legacy installed-dependency directory.
	InstalledDependenciesDirName = "node_modules"
)

// Defaults applied when workflow settings omit the optional dataset keys.
const (
	DefaultDataset          = "dataform"
	DefaultAssertionDataset = "dataform_assertions"
)

// WarehouseKind is the only warehouse this compiler targets.
const WarehouseKind = "bigquery"

// WorkflowSettings mirrors the recognized keys of workflow_settings.yaml.
// Unknown keys are rejected so typos fail loudly instead of silently
// compiling against defaults.
type WorkflowSettings struct {
	// DataformCoreVersion, when set, is the authoritative core version.
	DataformCoreVersion string `yaml:"dataformCoreVersion"`
	// DefaultProject is the warehouse database (required).
	DefaultProject string `yaml:"defaultProject"`
	// DefaultLocation is the warehouse region.
	DefaultLocation string `yaml:"defaultLocation"`
	// DefaultDataset is the schema for tables and views (default "dataform").
	DefaultDataset string `yaml:"defaultDataset"`
	// DefaultAssertionDataset is the schema for assertions
	// (default "dataform_assertions").
	DefaultAssertionDataset string `yaml:"defaultAssertionDataset"`
	// Vars are project-declared variable defaults.
	Vars map[string]string `yaml:"vars"`
}

// LoadWorkflowSettings reads and strictly decodes a workflow settings file.
// Returns os.ErrNotExist (wrapped) when the file is absent so callers can
// distinguish "no settings file" from a malformed one.
func LoadWorkflowSettings(path string) (*WorkflowSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("cannot read %q: %w", path, err)
	}

	var ws WorkflowSettings
	if err := strictUnmarshalYAML(data, &ws); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	ws.applyDefaults()
	return &ws, nil
}

// strictUnmarshalYAML decodes YAML rejecting unknown fields.
func strictUnmarshalYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		// io.EOF means an empty document; leave out at its zero value.
		return err
	}
	return nil
}

func (ws *WorkflowSettings) applyDefaults() {
	if ws.DefaultDataset == "" {
		ws.DefaultDataset = DefaultDataset
	}
	if ws.DefaultAssertionDataset == "" {
		ws.DefaultAssertionDataset = DefaultAssertionDataset
	}
}

// Validate checks required keys.
func (ws *WorkflowSettings) Validate() error {
	if ws.DefaultProject == "" {
		return errors.New("workflow_settings.yaml: defaultProject is required")
	}
	return nil
}

// ProjectConfig maps the settings onto the resolved per-compile config.
// The returned config is independent of the settings struct; compile-time
// adjustments (vars, suffix, overrides) are layered on by the compiler.
func (ws *WorkflowSettings) ProjectConfig() types.ProjectConfig {
	vars := make(map[string]string, len(ws.Vars))
	for k, v := range ws.Vars {
		vars[k] = v
	}
	return types.ProjectConfig{
		Warehouse:       WarehouseKind,
		DefaultDatabase: ws.DefaultProject,
		DefaultSchema:   ws.DefaultDataset,
		AssertionSchema: ws.DefaultAssertionDataset,
		DefaultLocation: ws.DefaultLocation,
		Vars:            vars,
	}
}
