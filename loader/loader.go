// Package loader enumerates project definition files and splits each into
// its embedded configuration block and raw SQL template text.
//
// Loading has partial-failure semantics: a malformed file yields a
// types.GraphError scoped to that file and loading continues, so a single
// bad definition never aborts the whole project.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stratum-data/stratum/types"
)

// DefinitionsDirName is the directory scanned for source files.
const DefinitionsDirName = "definitions"

// FileConfig mirrors the recognized keys of a definition's config block.
// Unknown keys are rejected so typos surface as per-file graph errors.
type FileConfig struct {
	// Type is the action type; defaults to "table" when omitted.
	Type string `yaml:"type"`
	// Name overrides the file-derived action name.
	Name string `yaml:"name"`
	// Schema overrides the default schema for this action.
	Schema string `yaml:"schema"`
	// Database overrides the default database for this action.
	Database string `yaml:"database"`
	// Tags are selection labels.
	Tags []string `yaml:"tags"`
	// Disabled actions compile but are excluded from run plans.
	Disabled bool `yaml:"disabled"`
	// Protected incremental tables are never rebuilt by a full refresh.
	Protected bool `yaml:"protected"`
	// UniqueKey names merge keys for incremental tables.
	UniqueKey []string `yaml:"uniqueKey"`
}

// Definition is one loaded source file, pre-substitution.
type Definition struct {
	// FileName is the project-relative path, slash-separated.
	FileName string
	// Config is the parsed configuration block (defaults applied).
	Config FileConfig
	// Template is the raw SQL template text with the config block removed.
	Template string
}

// ActionType returns the definition's action type.
func (d *Definition) ActionType() types.ActionType {
	return types.ActionType(d.Config.Type)
}

// Name returns the action name: the config override or the file base name
// without extension.
func (d *Definition) Name() string {
	if d.Config.Name != "" {
		return d.Config.Name
	}
	base := filepath.Base(d.FileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load enumerates definition files under projectDir/definitions in
// deterministic (lexicographic) walk order. Per-file parse failures are
// returned as graph errors; the error return covers only file-system
// failures that prevent enumeration itself.
func Load(projectDir string) ([]Definition, []types.GraphError, error) {
	root := filepath.Join(projectDir, DefinitionsDirName)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		// A project without definitions compiles to an empty graph.
		return nil, nil, nil
	}

	var defs []Definition
	var graphErrors []types.GraphError

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".sqlx" && ext != ".sql" {
			return nil
		}

		rel, err := filepath.Rel(projectDir, path)
		if err != nil {
			return err
		}
		fileName := filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			graphErrors = append(graphErrors, types.GraphError{
				Message:  fmt.Sprintf("cannot read file: %v", err),
				FileName: fileName,
			})
			return nil
		}

		def, gerr := parseDefinition(fileName, string(data))
		if gerr != nil {
			graphErrors = append(graphErrors, *gerr)
			return nil
		}
		defs = append(defs, *def)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	return defs, graphErrors, nil
}

// parseDefinition splits source text into config block and template, then
// decodes the block as a strict YAML flow mapping.
func parseDefinition(fileName, source string) (*Definition, *types.GraphError) {
	block, template, err := extractConfigBlock(source)
	if err != nil {
		return nil, &types.GraphError{
			Message:  fmt.Sprintf("invalid config block: %v", err),
			FileName: fileName,
		}
	}

	var cfg FileConfig
	if block != "" {
		if err := decodeConfigBlock(block, &cfg); err != nil {
			return nil, &types.GraphError{
				Message:  fmt.Sprintf("invalid config block: %v", err),
				FileName: fileName,
			}
		}
	}

	if cfg.Type == "" {
		cfg.Type = string(types.ActionTable)
	}
	if !types.ActionType(cfg.Type).Valid() {
		return nil, &types.GraphError{
			Message:  fmt.Sprintf("unknown action type %q", cfg.Type),
			FileName: fileName,
		}
	}

	return &Definition{
		FileName: fileName,
		Config:   cfg,
		Template: strings.TrimSpace(template),
	}, nil
}

// decodeConfigBlock parses the brace-delimited block body as a YAML flow
// mapping, rejecting unknown keys.
func decodeConfigBlock(body string, out *FileConfig) error {
	dec := yaml.NewDecoder(strings.NewReader("{" + body + "}"))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
