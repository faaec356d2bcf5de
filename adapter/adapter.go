// Package adapter defines the notification boundary for compile and run
// events.
//
// Adapters publish lifecycle notifications to downstream systems (CI
// gates, orchestrators, freshness monitors). The CLI owns adapter
// lifecycle; users provide configuration only. Publishing is best-effort:
// a failed notification never fails the compile or run that produced it.
package adapter

import (
	"context"
	"time"

	"github.com/stratum-data/stratum/types"
)

// Event type discriminants.
const (
	// EventGraphCompiled is published after a compile completes.
	EventGraphCompiled = "graph_compiled"
	// EventPlanGenerated is published after a run plan is generated.
	EventPlanGenerated = "plan_generated"
)

// Event is the payload published to downstream systems. One shape covers
// both event types; plan-only fields are empty on compile events.
type Event struct {
	EventType           string `json:"event_type"`
	ProjectDir          string `json:"project_dir"`
	DataformCoreVersion string `json:"dataform_core_version"`
	ActionCount         int    `json:"action_count"`
	ErrorCount          int    `json:"error_count"`
	RunID               string `json:"run_id,omitempty"`
	FullRefresh         bool   `json:"full_refresh,omitempty"`
	// ExportPath is the artifact destination, set when the invocation
	// exported its output.
	ExportPath string `json:"export_path,omitempty"`
	Timestamp  string `json:"timestamp"` // RFC 3339
}

// NewGraphCompiled builds the event for a finished compile.
func NewGraphCompiled(projectDir string, g *types.CompiledGraph) *Event {
	return &Event{
		EventType:           EventGraphCompiled,
		ProjectDir:          projectDir,
		DataformCoreVersion: g.DataformCoreVersion,
		ActionCount:         len(g.Actions),
		ErrorCount:          len(g.GraphErrors),
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
	}
}

// NewPlanGenerated builds the event for a generated run plan.
func NewPlanGenerated(projectDir string, g *types.CompiledGraph, p *types.RunPlan) *Event {
	return &Event{
		EventType:           EventPlanGenerated,
		ProjectDir:          projectDir,
		DataformCoreVersion: g.DataformCoreVersion,
		ActionCount:         len(p.Actions),
		ErrorCount:          len(g.GraphErrors),
		RunID:               p.RunID,
		FullRefresh:         p.RunConfig.FullRefresh,
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
	}
}

// Adapter publishes lifecycle events to a downstream system.
// Implementations must be safe for single-use per invocation.
type Adapter interface {
	// Publish sends one event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *Event) error

	// Close releases adapter resources.
	Close() error
}
