package plan

import (
	"fmt"
	"strings"

	"github.com/stratum-data/stratum/types"
)

// operationsSeparator splits an operations file into individual statements.
const operationsSeparator = "\n---\n"

// tasksFor emits the ordered statement tasks for one action. Most action
// types produce a single statement; assertions emit a validation view plus
// a row-count check, and operations emit one task per statement.
func tasksFor(a *types.Action, fullRefresh bool) []types.Task {
	switch a.Type {
	case types.ActionTable:
		return []types.Task{statement(createOrReplace("table", a.Target, a.Query))}

	case types.ActionView:
		return []types.Task{statement(createOrReplace("view", a.Target, a.Query))}

	case types.ActionIncremental:
		// Protected incrementals never lose their data to a full refresh.
		if fullRefresh && !a.Protected {
			return []types.Task{statement(createOrReplace("table", a.Target, a.Query))}
		}
		return []types.Task{statement(
			fmt.Sprintf("insert into %s (select * from (%s))", a.Target, a.Query),
		)}

	case types.ActionAssertion:
		return []types.Task{
			statement(createOrReplace("view", a.Target, a.Query)),
			statement(fmt.Sprintf("select sum(1) as row_count from %s", a.Target)),
		}

	case types.ActionOperations:
		var tasks []types.Task
		for _, stmt := range strings.Split(a.Query, operationsSeparator) {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			tasks = append(tasks, statement(stmt))
		}
		return tasks

	default:
		return nil
	}
}

func createOrReplace(kind string, target types.Target, query string) string {
	return fmt.Sprintf("create or replace %s %s as %s", kind, target, query)
}

func statement(stmt string) types.Task {
	return types.Task{Type: types.TaskTypeStatement, Statement: stmt}
}
