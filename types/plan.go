package types

// Hermeticity states whether an action's execution depends solely on
// statements within the same compiled graph.
type Hermeticity string

const (
	// HermeticityHermetic means the statement set is fully self-contained.
	HermeticityHermetic Hermeticity = "HERMETIC"
	// HermeticityNonHermetic means execution depends on external state.
	HermeticityNonHermetic Hermeticity = "NON_HERMETIC"
)

// RunConfig selects and shapes the actions included in a run plan.
// Used only by the planner.
type RunConfig struct {
	// FullRefresh rebuilds incremental tables from scratch.
	FullRefresh bool `json:"fullRefresh"`
	// Tags restrict the plan to actions carrying at least one of them.
	// Empty means no tag filtering.
	Tags []string `json:"tags,omitempty"`
	// Actions restricts the plan to the named canonical targets.
	// Empty means all actions.
	Actions []string `json:"actions,omitempty"`
	// AllowCompileErrors permits planning against a graph that carries
	// non-fatal graph errors. Off by default: the planner refuses such
	// graphs so stale or partial compiles are not silently executed.
	AllowCompileErrors bool `json:"allowCompileErrors,omitempty"`
}

// TaskTypeStatement is the only task type the planner emits.
const TaskTypeStatement = "statement"

// Task is a single executable SQL statement within an action execution.
type Task struct {
	Type      string `json:"type"`
	Statement string `json:"statement"`
}

// ActionExecution is the ordered task sequence derived for one action.
// Executions are pure functions of (Action, RunConfig); they are never
// persisted back into the graph.
type ActionExecution struct {
	FileName    string      `json:"fileName"`
	Hermeticity Hermeticity `json:"hermeticity"`
	// TableType is the action's type tag ("table", "view", ...), kept under
	// the historical field name consumers expect.
	TableType string `json:"tableType"`
	Target    Target `json:"target"`
	Tasks     []Task `json:"tasks"`
	Type      string `json:"type"`
}

// WarehouseState is a placeholder populated only by the external executor
// that eventually submits statements to a warehouse.
type WarehouseState struct {
	Tables []Target `json:"tables,omitempty"`
}

// RunPlan is the ordered, executable form of a compiled graph, filtered by
// the run configuration and annotated with concrete SQL tasks.
type RunPlan struct {
	RunID          string            `json:"runId"`
	Actions        []ActionExecution `json:"actions"`
	ProjectConfig  ProjectConfig     `json:"projectConfig"`
	RunConfig      RunConfig         `json:"runConfig"`
	WarehouseState WarehouseState    `json:"warehouseState"`
}
