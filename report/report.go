// Package report produces the serialized forms of compiled graphs and run
// plans: the stable JSON wire shapes written to stdout and the binary graph
// cache kept under the project directory.
package report

import (
	"encoding/json"
	"io"

	"github.com/stratum-data/stratum/types"
)

// Graph is the JSON wire shape for a compiled graph. Actions are grouped by
// kind; within each group the compile's file-discovery order is preserved.
// The shape is a published contract: field additions are fine, renames and
// removals are not.
type Graph struct {
	Tables              []types.Action      `json:"tables"`
	Assertions          []types.Action      `json:"assertions"`
	Operations          []types.Action      `json:"operations"`
	ProjectConfig       types.ProjectConfig `json:"projectConfig"`
	GraphErrors         []types.GraphError  `json:"graphErrors,omitempty"`
	DataformCoreVersion string              `json:"dataformCoreVersion"`
	Targets             []types.Target      `json:"targets"`
}

// NewGraph groups a compiled graph into its wire shape. Tables, views and
// incrementals all land in the tables group; the per-action type field keeps
// them distinguishable.
func NewGraph(g *types.CompiledGraph) *Graph {
	r := &Graph{
		Tables:              []types.Action{},
		Assertions:          []types.Action{},
		Operations:          []types.Action{},
		ProjectConfig:       g.ProjectConfig,
		GraphErrors:         g.GraphErrors,
		DataformCoreVersion: g.DataformCoreVersion,
		Targets:             make([]types.Target, 0, len(g.Actions)),
	}
	for _, a := range g.Actions {
		switch a.Type {
		case types.ActionAssertion:
			r.Assertions = append(r.Assertions, a)
		case types.ActionOperations:
			r.Operations = append(r.Operations, a)
		default:
			r.Tables = append(r.Tables, a)
		}
		r.Targets = append(r.Targets, a.CanonicalTarget)
	}
	return r
}

// Encode writes the graph report as indented JSON.
func (r *Graph) Encode(w io.Writer) error {
	return EncodeJSON(w, r)
}

// EncodePlan writes a run plan as indented JSON. The plan struct already
// carries its wire tags, so no regrouping is needed.
func EncodePlan(w io.Writer, p *types.RunPlan) error {
	return EncodeJSON(w, p)
}

// EncodeJSON writes any payload as indented JSON with a trailing newline.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
