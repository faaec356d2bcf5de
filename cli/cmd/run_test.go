package cmd

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func planActions(t *testing.T, out map[string]any) []any {
	t.Helper()
	actions, ok := out["actions"].([]any)
	if !ok {
		t.Fatalf("plan output missing actions: %v", out)
	}
	return actions
}

func firstStatement(t *testing.T, action any) string {
	t.Helper()
	tasks := action.(map[string]any)["tasks"].([]any)
	if len(tasks) == 0 {
		t.Fatal("action has no tasks")
	}
	return tasks[0].(map[string]any)["statement"].(string)
}

func TestRun_PlanJSON(t *testing.T) {
	dir := newProject(t)
	writeFile(t, dir, "definitions/example.sqlx", "select 1 as one")

	out, err := runApp(t, "run", "--json", dir)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	actions := planActions(t, out)
	if len(actions) != 1 {
		t.Fatalf("actions = %v", actions)
	}
	stmt := firstStatement(t, actions[0])
	want := "create or replace table dataform-database.dataform.example as select 1 as one"
	if stmt != want {
		t.Errorf("statement = %q, want %q", stmt, want)
	}
	if out["runId"] == "" {
		t.Error("runId missing")
	}
}

// Compile-time and run-time target adjustments are independent: a suffixed
// compile does not leak into an unsuffixed run, and vice versa.
func TestRun_AdjustmentsIndependentOfCompile(t *testing.T) {
	dir := newProject(t)
	writeFile(t, dir, "definitions/example.sqlx", "select 1")

	if _, err := runApp(t, "compile", "--json", "--schema-suffix", "ci", dir); err != nil {
		t.Fatal(err)
	}

	out, err := runApp(t, "run", "--json", dir)
	if err != nil {
		t.Fatal(err)
	}
	stmt := firstStatement(t, planActions(t, out)[0])
	if !strings.Contains(stmt, "dataform-database.dataform.example") {
		t.Errorf("unsuffixed run should use unsuffixed schema: %q", stmt)
	}

	out, err = runApp(t, "run", "--json", "--schema-suffix", "staging", dir)
	if err != nil {
		t.Fatal(err)
	}
	stmt = firstStatement(t, planActions(t, out)[0])
	if !strings.Contains(stmt, "dataform-database.dataform_staging.example") {
		t.Errorf("suffixed run should use its own suffix: %q", stmt)
	}
}

// CLI vars override project-declared defaults in the planned statements.
func TestRun_VarsPrecedence(t *testing.T) {
	dir := newProject(t)
	writeFile(t, dir, "definitions/example.sqlx", "select 1 as ${vars.testVar2}")

	out, err := runApp(t, "run", "--json", "--vars", "testVar2=testValue2", dir)
	if err != nil {
		t.Fatal(err)
	}
	stmt := firstStatement(t, planActions(t, out)[0])
	if !strings.Contains(stmt, "select 1 as testValue2") {
		t.Errorf("override lost: %q", stmt)
	}
}

func TestRun_TagFilter(t *testing.T) {
	dir := newProject(t)
	writeFile(t, dir, "definitions/daily.sqlx", `config { tags: ["daily"] }
select 1`)
	writeFile(t, dir, "definitions/hourly.sqlx", `config { tags: ["hourly"] }
select 2`)

	out, err := runApp(t, "run", "--json", "--tags", "daily", dir)
	if err != nil {
		t.Fatal(err)
	}
	actions := planActions(t, out)
	if len(actions) != 1 {
		t.Fatalf("actions = %v", actions)
	}
	target := actions[0].(map[string]any)["target"].(map[string]any)
	if target["name"] != "daily" {
		t.Errorf("target = %v", target)
	}
}

func TestRun_FullRefresh(t *testing.T) {
	dir := newProject(t)
	writeFile(t, dir, "definitions/events.sqlx", `config { type: "incremental" }
select * from raw`)

	out, err := runApp(t, "run", "--json", dir)
	if err != nil {
		t.Fatal(err)
	}
	stmt := firstStatement(t, planActions(t, out)[0])
	if !strings.HasPrefix(stmt, "insert into ") {
		t.Errorf("incremental default should insert: %q", stmt)
	}

	out, err = runApp(t, "run", "--json", "--full-refresh", dir)
	if err != nil {
		t.Fatal(err)
	}
	stmt = firstStatement(t, planActions(t, out)[0])
	if !strings.HasPrefix(stmt, "create or replace table ") {
		t.Errorf("full refresh should rebuild: %q", stmt)
	}
}

func TestRun_RefusesGraphWithErrors(t *testing.T) {
	dir := newProject(t)
	writeFile(t, dir, "definitions/bad.sqlx", "select ${vars.missing}")
	writeFile(t, dir, "definitions/good.sqlx", "select 1")

	var buf bytes.Buffer
	err := newTestApp(&buf).Run([]string{"stratum", "run", "--json", dir})
	if code := exitCode(t, err); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	out, err := runApp(t, "run", "--json", "--allow-compile-errors", dir)
	if err != nil {
		t.Fatalf("allow-compile-errors should proceed: %v", err)
	}
	actions := planActions(t, out)
	if len(actions) != 1 {
		t.Fatalf("only the clean action should be planned: %v", actions)
	}
	if actions[0].(map[string]any)["fileName"] != "definitions/good.sqlx" {
		t.Errorf("planned = %v", actions[0])
	}
}

// Dry run emits the same plan (modulo the generated run id).
func TestRun_DryRunIdentical(t *testing.T) {
	dir := newProject(t)
	writeFile(t, dir, "definitions/example.sqlx", "select 1")

	normal, err := runApp(t, "run", "--json", dir)
	if err != nil {
		t.Fatal(err)
	}
	dry, err := runApp(t, "run", "--json", "--dry-run", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(normal["actions"], dry["actions"]) {
		t.Error("dry run changed the planned actions")
	}
}

func TestRun_TUIRejected(t *testing.T) {
	dir := newProject(t)
	var buf bytes.Buffer
	err := newTestApp(&buf).Run([]string{"stratum", "run", "--tui", dir})
	if code := exitCode(t, err); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}
