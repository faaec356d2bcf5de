// Package plan converts a compiled graph into an ordered, executable run
// plan. Planning is read-only over the graph: every ActionExecution is a
// pure function of (Action, RunConfig), so no locking is required.
//
// Statement generation is pure; whether statements are ever sent to a
// warehouse is the sole responsibility of an external executor. Dry-run
// therefore changes nothing in the emitted plan.
package plan

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stratum-data/stratum/types"
)

// ErrGraphHasErrors is returned when planning against a graph that carries
// non-fatal compile errors and AllowCompileErrors is off. Refusing is the
// default so partial compiles are never silently executed.
var ErrGraphHasErrors = errors.New("compiled graph has errors")

// Build produces the run plan for a compiled graph under the given run
// configuration. Plan order follows graph (file-discovery) order.
func Build(g *types.CompiledGraph, cfg types.RunConfig) (*types.RunPlan, error) {
	if len(g.GraphErrors) > 0 && !cfg.AllowCompileErrors {
		return nil, fmt.Errorf("%w (%d); fix the compile or allow compile errors explicitly",
			ErrGraphHasErrors, len(g.GraphErrors))
	}

	// With AllowCompileErrors, actions from files that produced errors are
	// excluded: their queries may contain unexpanded placeholders.
	affected := make(map[string]struct{}, len(g.GraphErrors))
	for _, e := range g.GraphErrors {
		if e.FileName != "" {
			affected[e.FileName] = struct{}{}
		}
	}

	known := make(map[string]struct{}, len(g.Actions))
	for i := range g.Actions {
		known[g.Actions[i].CanonicalTarget.String()] = struct{}{}
	}

	selectedTargets := make(map[string]struct{}, len(cfg.Actions))
	for _, t := range cfg.Actions {
		selectedTargets[t] = struct{}{}
	}

	executions := make([]types.ActionExecution, 0, len(g.Actions))
	for i := range g.Actions {
		a := &g.Actions[i]
		if _, bad := affected[a.FileName]; bad {
			continue
		}
		if !selected(a, cfg, selectedTargets) {
			continue
		}
		executions = append(executions, types.ActionExecution{
			FileName:    a.FileName,
			Hermeticity: hermeticity(a, known),
			TableType:   string(a.Type),
			Target:      a.Target,
			Tasks:       tasksFor(a, cfg.FullRefresh),
			Type:        string(a.Type),
		})
	}

	return &types.RunPlan{
		RunID:          uuid.New().String(),
		Actions:        executions,
		ProjectConfig:  g.ProjectConfig,
		RunConfig:      cfg,
		WarehouseState: types.WarehouseState{},
	}, nil
}

// selected applies the run filters: disabled actions never run; tag filters
// require at least one overlapping tag; explicit target selection requires
// the canonical target (or its bare name) to be named.
func selected(a *types.Action, cfg types.RunConfig, targets map[string]struct{}) bool {
	if a.Disabled {
		return false
	}
	if len(cfg.Tags) > 0 {
		match := false
		for _, tag := range cfg.Tags {
			if a.HasTag(tag) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	if len(targets) > 0 {
		if _, ok := targets[a.CanonicalTarget.String()]; ok {
			return true
		}
		if _, ok := targets[a.CanonicalTarget.Name]; ok {
			return true
		}
		return false
	}
	return true
}

// hermeticity is HERMETIC when every dependency resolves inside the graph.
// Operations actions run arbitrary statements and are never hermetic.
func hermeticity(a *types.Action, known map[string]struct{}) types.Hermeticity {
	if a.Type == types.ActionOperations {
		return types.HermeticityNonHermetic
	}
	for _, dep := range a.Dependencies {
		if _, ok := known[dep]; !ok {
			return types.HermeticityNonHermetic
		}
	}
	return types.HermeticityHermetic
}
