// Package types defines the shared data model for stratum.
//
// A compiled project is a CompiledGraph of Actions; a run is a RunPlan of
// ActionExecutions. ProjectConfig and RunConfig are read once per invocation
// and never mutated afterwards.
package types

import "fmt"

// ProjectConfig holds the resolved per-project defaults for a single compile
// invocation. Immutable once resolved.
type ProjectConfig struct {
	// Warehouse is the warehouse kind (currently always "bigquery").
	Warehouse string `json:"warehouse"`
	// DefaultDatabase is the database (project) actions compile into.
	DefaultDatabase string `json:"defaultDatabase"`
	// DefaultSchema is the schema (dataset) for tables and views.
	DefaultSchema string `json:"defaultSchema"`
	// AssertionSchema is the schema assertion views compile into.
	AssertionSchema string `json:"assertionSchema"`
	// DefaultLocation is the warehouse region (e.g. "us-central1").
	DefaultLocation string `json:"defaultLocation,omitempty"`
	// SchemaSuffix, when set, is appended to runtime schemas as "_<suffix>".
	// Canonical targets never carry the suffix.
	SchemaSuffix string `json:"schemaSuffix,omitempty"`
	// Vars maps project variable names to string values.
	Vars map[string]string `json:"vars,omitempty"`
}

// Target is the runtime location an action resolves to, after schema-suffix
// and override adjustments. CanonicalTarget uses the same shape but is
// computed without adjustments.
type Target struct {
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Name     string `json:"name"`
}

// String returns the fully-qualified dotted form used in SQL statements.
func (t Target) String() string {
	return t.Database + "." + t.Schema + "." + t.Name
}

// ActionType discriminates the kinds of compiled actions.
type ActionType string

// Action type constants. The zero value is invalid; loaders default to
// ActionTable when a definition omits the type.
const (
	ActionTable       ActionType = "table"
	ActionView        ActionType = "view"
	ActionIncremental ActionType = "incremental"
	ActionAssertion   ActionType = "assertion"
	ActionOperations  ActionType = "operations"
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionTable, ActionView, ActionIncremental, ActionAssertion, ActionOperations:
		return true
	}
	return false
}

// EnumType returns the uppercase enum form used in serialized graphs.
func (t ActionType) EnumType() string {
	switch t {
	case ActionTable:
		return "TABLE"
	case ActionView:
		return "VIEW"
	case ActionIncremental:
		return "INCREMENTAL"
	case ActionAssertion:
		return "ASSERTION"
	case ActionOperations:
		return "OPERATIONS"
	default:
		return "UNKNOWN"
	}
}

// Action is a single compiled unit of work destined for a warehouse.
//
// Invariant: one CanonicalTarget maps to exactly one Action within a
// compiled graph. Duplicates are a compile error, not a silent overwrite.
type Action struct {
	// Type is the action kind ("table", "view", ...).
	Type ActionType `json:"type"`
	// EnumType is the uppercase form of Type ("TABLE", "VIEW", ...).
	EnumType string `json:"enumType"`
	// Target is the runtime location, with suffix/overrides applied.
	Target Target `json:"target"`
	// CanonicalTarget is the stable identity, suffix/override independent.
	CanonicalTarget Target `json:"canonicalTarget"`
	// Query is the post-substitution SQL text.
	Query string `json:"query"`
	// Disabled actions compile but are excluded from run plans.
	Disabled bool `json:"disabled"`
	// Protected incremental tables keep their data across full refreshes.
	Protected bool `json:"protected,omitempty"`
	// FileName is the project-relative source file path.
	FileName string `json:"fileName"`
	// Tags are selection labels; insertion order is irrelevant.
	Tags []string `json:"tags,omitempty"`
	// Dependencies are canonical target strings captured from ref() calls.
	Dependencies []string `json:"dependencyTargets,omitempty"`
}

// HasTag reports whether the action carries the given tag.
func (a *Action) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// GraphError is a non-fatal compilation problem scoped to a source file.
// Errors accumulate into the graph's error bag; they never abort a compile.
type GraphError struct {
	Message  string `json:"message"`
	FileName string `json:"fileName,omitempty"`
}

func (e GraphError) Error() string {
	if e.FileName != "" {
		return fmt.Sprintf("%s: %s", e.FileName, e.Message)
	}
	return e.Message
}

// CompiledGraph is the output of graph compilation. Actions preserve
// file-discovery order, which governs serialized output order and must be
// stable across runs with unchanged inputs.
type CompiledGraph struct {
	Actions             []Action      `json:"actions"`
	ProjectConfig       ProjectConfig `json:"projectConfig"`
	GraphErrors         []GraphError  `json:"graphErrors,omitempty"`
	DataformCoreVersion string        `json:"dataformCoreVersion"`
}

// ActionByCanonicalTarget returns the action with the given canonical target
// string, or nil if the graph has none.
func (g *CompiledGraph) ActionByCanonicalTarget(target string) *Action {
	for i := range g.Actions {
		if g.Actions[i].CanonicalTarget.String() == target {
			return &g.Actions[i]
		}
	}
	return nil
}
