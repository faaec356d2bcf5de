package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/stratum-data/stratum/adapter"
	redisadapter "github.com/stratum-data/stratum/adapter/redis"
	"github.com/stratum-data/stratum/adapter/webhook"
	"github.com/stratum-data/stratum/artifact"
	cliconfig "github.com/stratum-data/stratum/cli/config"
	"github.com/stratum-data/stratum/log"
	"github.com/stratum-data/stratum/report"
	"github.com/stratum-data/stratum/types"
)

// notifyTimeout bounds the post-output side effects (export upload plus
// adapter publish) so a dead endpoint cannot hang the CLI.
const notifyTimeout = 60 * time.Second

// Exported artifact names.
const (
	graphArtifactName = "graph.json"
	planArtifactName  = "plan.json"
)

// exportAndNotify runs the best-effort side effects of a compile or run:
// exporting the serialized output and publishing a lifecycle event. Errors
// degrade to warnings; they never change the exit code.
func exportAndNotify(c *cli.Context, logger *log.SugaredLogger, projectDir string, g *types.CompiledGraph, p *types.RunPlan) {
	cfg := loadCLIConfig(c, logger)

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	exportPath := exportArtifact(ctx, c, logger, cfg, g, p)
	publishEvent(ctx, logger, cfg, projectDir, g, p, exportPath)
}

func loadCLIConfig(c *cli.Context, logger *log.SugaredLogger) *cliconfig.Config {
	path := c.String("config")
	if path == "" {
		return nil
	}
	cfg, err := cliconfig.Load(path)
	if err != nil {
		logger.Warnf("cli config ignored: %v", err)
		return nil
	}
	return cfg
}

// exportArtifact writes the graph or plan JSON to the export destination,
// if one is configured. Returns the destination for the event payload, or
// empty when nothing was exported.
func exportArtifact(ctx context.Context, c *cli.Context, logger *log.SugaredLogger, cfg *cliconfig.Config, g *types.CompiledGraph, p *types.RunPlan) string {
	dest := c.String("export")
	if dest == "" && cfg != nil {
		dest = cfg.Export.Path
	}
	if dest == "" {
		return ""
	}

	store, err := buildStore(ctx, dest, cfg)
	if err != nil {
		logger.Warnf("export skipped: %v", err)
		return ""
	}

	name := graphArtifactName
	var buf bytes.Buffer
	if p != nil {
		name = planArtifactName
		err = report.EncodePlan(&buf, p)
	} else {
		err = report.NewGraph(g).Encode(&buf)
	}
	if err != nil {
		logger.Warnf("export encode failed: %v", err)
		return ""
	}

	if err := store.Put(ctx, name, "application/json", buf.Bytes()); err != nil {
		logger.Warnf("export failed: %v", err)
		return ""
	}
	return dest
}

// buildStore resolves the export destination, threading S3 options from the
// CLI config file when present.
func buildStore(ctx context.Context, dest string, cfg *cliconfig.Config) (artifact.Store, error) {
	path, isS3 := strings.CutPrefix(dest, artifact.S3Scheme)
	if !isS3 {
		return artifact.NewFSStore(dest), nil
	}

	bucket, prefix := artifact.ParseS3Path(path)
	s3cfg := artifact.S3Config{Bucket: bucket, Prefix: prefix}
	if cfg != nil {
		s3cfg.Region = cfg.Export.Region
		s3cfg.Endpoint = cfg.Export.Endpoint
		s3cfg.UsePathStyle = cfg.Export.S3PathStyle
	}
	return artifact.NewS3Store(ctx, s3cfg)
}

// publishEvent sends a graph_compiled or plan_generated event through the
// configured adapter, if any.
func publishEvent(ctx context.Context, logger *log.SugaredLogger, cfg *cliconfig.Config, projectDir string, g *types.CompiledGraph, p *types.RunPlan, exportPath string) {
	if cfg == nil || cfg.Adapter.Type == "" {
		return
	}

	a, err := buildAdapter(cfg.Adapter)
	if err != nil {
		logger.Warnf("notification skipped: %v", err)
		return
	}
	defer a.Close()

	var event *adapter.Event
	if p != nil {
		event = adapter.NewPlanGenerated(projectDir, g, p)
	} else {
		event = adapter.NewGraphCompiled(projectDir, g)
	}
	event.ExportPath = exportPath

	if err := a.Publish(ctx, event); err != nil {
		logger.Warnf("notification failed: %v", err)
	}
}

func buildAdapter(cfg cliconfig.AdapterConfig) (adapter.Adapter, error) {
	retries := -1
	if cfg.Retries != nil {
		retries = *cfg.Retries
	}

	switch cfg.Type {
	case "webhook":
		wcfg := webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: webhook.DefaultRetries,
		}
		if retries >= 0 {
			wcfg.Retries = retries
		}
		return webhook.New(wcfg)

	case "redis":
		rcfg := redisadapter.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: redisadapter.DefaultRetries,
		}
		if retries >= 0 {
			rcfg.Retries = retries
		}
		return redisadapter.New(rcfg)

	default:
		return nil, fmt.Errorf("unknown adapter type: %s (must be webhook or redis)", cfg.Type)
	}
}
