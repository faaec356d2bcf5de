// Package template substitutes ${...} placeholders in raw SQL text.
//
// Substitution is a single deterministic left-to-right pass over the text
// as a string: no recursive re-expansion, no SQL parsing. Values inserted
// by one placeholder are never re-scanned for further placeholders.
//
// Supported forms:
//   - ${vars.NAME} / ${project.vars.NAME} — project variable
//   - ${ref("name")} — another action's runtime target, fully qualified
//   - ${self()} — this action's runtime target, fully qualified
//   - ${database()} / ${schema()} / ${name()} — this action's identity parts
package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stratum-data/stratum/types"
)

// placeholderPattern matches ${ ... } with any inner expression.
var placeholderPattern = regexp.MustCompile(`\$\{\s*([^}]*?)\s*\}`)

// varPattern matches vars.NAME and project.vars.NAME expressions.
var varPattern = regexp.MustCompile(`^(?:project\.)?vars\.([A-Za-z_][A-Za-z0-9_]*)$`)

// refPattern matches ref("name") and ref('name') expressions.
var refPattern = regexp.MustCompile(`^ref\(\s*(?:"([^"]*)"|'([^']*)')\s*\)$`)

// Engine performs placeholder substitution with a fixed variable set.
// Safe for concurrent use: Expand has no mutable engine state.
type Engine struct {
	vars map[string]string
}

// NewEngine builds an engine from project-declared variables overlaid with
// invocation-supplied ones. A variable declared in both resolves to the
// invocation value.
func NewEngine(projectVars, invocationVars map[string]string) *Engine {
	vars := make(map[string]string, len(projectVars)+len(invocationVars))
	for k, v := range projectVars {
		vars[k] = v
	}
	for k, v := range invocationVars {
		vars[k] = v
	}
	return &Engine{vars: vars}
}

// Vars returns the effective variable set (invocation precedence applied).
func (e *Engine) Vars() map[string]string {
	out := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

// FileContext carries the per-file identity used by self-referential
// placeholders and the ref resolver for cross-references.
type FileContext struct {
	// FileName scopes any substitution errors.
	FileName string
	// Target is this file's runtime target (self(), database(), ...).
	Target types.Target
	// ResolveRef maps an action name to its runtime and canonical targets.
	// ok=false means the name is not an action in this project.
	ResolveRef func(name string) (runtime, canonical types.Target, ok bool)
}

// Result is the outcome of one substitution pass.
type Result struct {
	// Query is the post-substitution SQL text.
	Query string
	// Dependencies are canonical target strings captured from ref() calls,
	// in first-reference order, deduplicated.
	Dependencies []string
	// Errors are the non-fatal problems encountered (undeclared variables,
	// unresolved references, unsupported expressions).
	Errors []types.GraphError
}

// Expand substitutes all placeholders in text. Problems never abort the
// pass: the offending placeholder is left in place (or given a best-guess
// target for unresolved refs) and an error is recorded, so compilation can
// continue for unaffected files.
func (e *Engine) Expand(text string, fc FileContext) Result {
	var res Result
	seen := make(map[string]struct{})

	res.Query = placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		expr := strings.TrimSpace(placeholderPattern.FindStringSubmatch(match)[1])

		if groups := varPattern.FindStringSubmatch(expr); groups != nil {
			name := groups[1]
			value, ok := e.vars[name]
			if !ok {
				res.Errors = append(res.Errors, types.GraphError{
					Message:  fmt.Sprintf("undeclared variable %q", name),
					FileName: fc.FileName,
				})
				return match
			}
			return value
		}

		if groups := refPattern.FindStringSubmatch(expr); groups != nil {
			name := groups[1]
			if name == "" {
				name = groups[2]
			}
			runtime, canonical, ok := fc.ResolveRef(name)
			if !ok {
				res.Errors = append(res.Errors, types.GraphError{
					Message:  fmt.Sprintf("unresolved reference to %q", name),
					FileName: fc.FileName,
				})
				return match
			}
			dep := canonical.String()
			if _, dup := seen[dep]; !dup {
				seen[dep] = struct{}{}
				res.Dependencies = append(res.Dependencies, dep)
			}
			return runtime.String()
		}

		switch expr {
		case "self()":
			return fc.Target.String()
		case "database()":
			return fc.Target.Database
		case "schema()":
			return fc.Target.Schema
		case "name()":
			return fc.Target.Name
		}

		res.Errors = append(res.Errors, types.GraphError{
			Message:  fmt.Sprintf("unsupported expression %q", expr),
			FileName: fc.FileName,
		})
		return match
	})

	return res
}
