// Package graph assembles loaded definitions into a compiled dependency
// graph of warehouse actions.
//
// Compilation is a fold that accumulates a graph-error bag alongside
// successfully produced actions: per-file problems (parse failures,
// undeclared variables, unresolved references, duplicate targets) never
// abort the compile. Only settings resolution failures are fatal.
//
// Per-file substitution runs on a bounded worker pool; the merge step is
// the single synchronization point, since duplicate-target detection needs
// global visibility.
package graph

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/stratum-data/stratum/loader"
	"github.com/stratum-data/stratum/settings"
	"github.com/stratum-data/stratum/template"
	"github.com/stratum-data/stratum/types"
)

// Options carries the invocation-level adjustments for one compile.
// All fields are optional.
type Options struct {
	// Vars override project-declared variables of the same name.
	Vars map[string]string
	// SchemaSuffix rewrites runtime schemas to "<schema>_<suffix>".
	// Canonical targets are never suffixed.
	SchemaSuffix string
	// DefaultDatabase overrides the runtime database. Canonical identity
	// keeps the project-declared database.
	DefaultDatabase string
	// DefaultLocation overrides the project's default location.
	DefaultLocation string
}

// Compile resolves settings, loads definitions, substitutes templates and
// merges everything into a compiled graph. Actions preserve file-discovery
// order; compiling unchanged sources yields an identical graph.
func Compile(ctx context.Context, projectDir string, opts Options) (*types.CompiledGraph, error) {
	res, err := settings.Resolve(projectDir)
	if err != nil {
		return nil, err
	}

	defs, graphErrors, err := loader.Load(projectDir)
	if err != nil {
		return nil, err
	}

	cfg := res.Settings.ProjectConfig()
	canonicalDatabase := cfg.DefaultDatabase
	if opts.DefaultDatabase != "" {
		cfg.DefaultDatabase = opts.DefaultDatabase
	}
	if opts.DefaultLocation != "" {
		cfg.DefaultLocation = opts.DefaultLocation
	}
	cfg.SchemaSuffix = opts.SchemaSuffix

	engine := template.NewEngine(cfg.Vars, opts.Vars)
	cfg.Vars = engine.Vars()

	// Targets depend only on file config, so they are computed up front;
	// that gives ref() a complete resolution table before any substitution.
	targets := make([]targetPair, len(defs))
	byName := make(map[string]int, len(defs))
	for i := range defs {
		targets[i] = computeTargets(&defs[i], cfg, canonicalDatabase)
		if _, exists := byName[defs[i].Name()]; !exists {
			byName[defs[i].Name()] = i
		}
	}

	resolveRef := func(name string) (types.Target, types.Target, bool) {
		i, ok := byName[name]
		if !ok {
			return types.Target{}, types.Target{}, false
		}
		return targets[i].runtime, targets[i].canonical, true
	}

	// Per-file substitution has no cross-file mutable state; results land
	// in per-index slots so the pool needs no locking.
	results := make([]template.Result, len(defs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range defs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = engine.Expand(defs[i].Template, template.FileContext{
				FileName:   defs[i].FileName,
				Target:     targets[i].runtime,
				ResolveRef: resolveRef,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge step: duplicate detection and error aggregation need all
	// per-file results, so this runs single-threaded over discovery order.
	actions := make([]types.Action, 0, len(defs))
	seen := make(map[string]string, len(defs))
	for i := range defs {
		def := &defs[i]
		graphErrors = append(graphErrors, results[i].Errors...)

		canonical := targets[i].canonical
		key := canonical.String()
		if firstFile, dup := seen[key]; dup {
			graphErrors = append(graphErrors, types.GraphError{
				Message:  fmt.Sprintf("duplicate canonical target %q (also defined in %s)", key, firstFile),
				FileName: def.FileName,
			})
			continue
		}
		seen[key] = def.FileName

		actionType := def.ActionType()
		actions = append(actions, types.Action{
			Type:            actionType,
			EnumType:        actionType.EnumType(),
			Target:          targets[i].runtime,
			CanonicalTarget: canonical,
			Query:           results[i].Query,
			Disabled:        def.Config.Disabled,
			Protected:       def.Config.Protected,
			FileName:        def.FileName,
			Tags:            def.Config.Tags,
			Dependencies:    results[i].Dependencies,
		})
	}

	return &types.CompiledGraph{
		Actions:             actions,
		ProjectConfig:       cfg,
		GraphErrors:         graphErrors,
		DataformCoreVersion: res.Version,
	}, nil
}

// targetPair holds the two independently-computed identities of an action.
// Keeping both explicit (rather than deriving one from the other at
// serialization time) is what lets graph edges use canonical identity while
// SQL text uses the runtime target.
type targetPair struct {
	canonical types.Target
	runtime   types.Target
}

// computeTargets derives the canonical and runtime targets for a definition.
//
// Canonical identity is built from project-declared defaults and the file's
// own config; it must never change across runs of the same source. Runtime
// adjustments (schema suffix, database override) apply to the runtime
// target only.
func computeTargets(def *loader.Definition, cfg types.ProjectConfig, canonicalDatabase string) targetPair {
	schema := cfg.DefaultSchema
	if def.ActionType() == types.ActionAssertion {
		schema = cfg.AssertionSchema
	}
	if def.Config.Schema != "" {
		schema = def.Config.Schema
	}

	database := canonicalDatabase
	if def.Config.Database != "" {
		database = def.Config.Database
	}

	canonical := types.Target{
		Database: database,
		Schema:   schema,
		Name:     def.Name(),
	}

	rt := canonical
	if def.Config.Database == "" && cfg.DefaultDatabase != "" {
		rt.Database = cfg.DefaultDatabase
	}
	if cfg.SchemaSuffix != "" {
		rt.Schema = rt.Schema + "_" + cfg.SchemaSuffix
	}

	return targetPair{canonical: canonical, runtime: rt}
}
