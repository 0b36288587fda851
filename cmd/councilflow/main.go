// Command councilflow runs the content-production council from the
// command line: initialize the provider roster from configuration,
// execute a workflow (or the quality pipeline) over a prompt, and print
// the structured result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/money3x/councilflow/archive"
	"github.com/money3x/councilflow/config"
	"github.com/money3x/councilflow/council"
	"github.com/money3x/councilflow/internal/cache"
	"github.com/money3x/councilflow/internal/metrics"
	"github.com/money3x/councilflow/internal/telemetry"
	"github.com/money3x/councilflow/provider"
	"github.com/money3x/councilflow/provider/openaicompat"
	"github.com/money3x/councilflow/quality"
	"github.com/money3x/councilflow/seo"
)

func main() {
	var (
		configPath  = flag.String("config", "councilflow.yaml", "path to YAML configuration")
		workflow    = flag.String("workflow", "full", "workflow to run (full, create, review, optimize)")
		prompt      = flag.String("prompt", "", "content request prompt")
		keyword     = flag.String("keyword", "", "target keyword (quality mode)")
		contentType = flag.String("content-type", "article", "content type label (quality mode)")
		qualityMode = flag.Bool("quality", false, "run the quality pipeline with scoring and schema markup")
		statusOnly  = flag.Bool("status", false, "initialize, print detailed status, and exit")
	)
	flag.Parse()

	if err := run(*configPath, *workflow, *prompt, *keyword, *contentType, *qualityMode, *statusOnly); err != nil {
		fmt.Fprintln(os.Stderr, "councilflow:", err)
		os.Exit(1)
	}
}

func run(configPath, workflow, prompt, keyword, contentType string, qualityMode, statusOnly bool) error {
	cfg, err := config.NewLoader().WithConfigPath(configPath).Load()
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer tel.Shutdown(context.Background()) //nolint:errcheck

	collector := metrics.NewCollector("councilflow", logger)

	var cacheMgr *cache.Manager
	if cfg.Cache.Enabled {
		cacheMgr, err = cache.NewManager(ctx, cfg.Cache.Redis, logger)
		if err != nil {
			logger.Warn("cache unavailable, generations will not be cached", zap.Error(err))
			cacheMgr = nil
		} else {
			defer cacheMgr.Close() //nolint:errcheck
		}
	}

	registry := provider.NewRegistry(logger,
		provider.WithConstructTimeout(cfg.Council.ConstructTimeout))
	for _, pc := range cfg.Providers {
		registry.Register(pc.Identifier, buildConstructor(cacheMgr, cfg, logger))
	}

	opts := []council.Option{
		council.WithLogger(logger),
		council.WithMetrics(collector),
		council.WithHealthInterval(cfg.Council.HealthInterval),
		council.WithHealthProbeTimeout(cfg.Council.HealthProbeTimeout),
	}
	if qualityMode {
		opts = append(opts, council.WithPrioritySort())
	}
	c := council.New(registry, cfg.Providers, opts...)
	if err := c.Initialize(ctx); err != nil {
		return err
	}
	defer c.Shutdown(context.Background()) //nolint:errcheck

	if statusOnly {
		return printJSON(c.DetailedStatus())
	}
	if prompt == "" {
		return fmt.Errorf("a -prompt is required (or use -status)")
	}

	if qualityMode {
		return runQuality(ctx, c, cfg, prompt, keyword, contentType, logger)
	}

	run, err := c.ExecuteWorkflow(ctx, prompt, workflow)
	if err != nil {
		return err
	}
	return printJSON(run)
}

// buildConstructor wires the OpenAI-compatible adapter, wrapped with the
// generation cache when one is available.
func buildConstructor(cacheMgr *cache.Manager, cfg *config.Config, logger *zap.Logger) provider.Constructor {
	base := openaicompat.Constructor(logger)
	if cacheMgr == nil {
		return base
	}
	return func(ctx context.Context, pc provider.Config) (provider.Provider, error) {
		inner, err := base(ctx, pc)
		if err != nil {
			return nil, err
		}
		return provider.NewCachedProvider(inner, cacheMgr, cfg.Cache.TTL, logger), nil
	}
}

func runQuality(ctx context.Context, c *council.Council, cfg *config.Config, prompt, keyword, contentType string, logger *zap.Logger) error {
	engineOpts := []quality.Option{
		quality.WithLogger(logger),
		quality.WithOrganization(cfg.Quality.Organization),
		quality.WithCanonicalBaseURL(cfg.Quality.CanonicalBaseURL),
		quality.WithScorer(seo.NewScorer()),
	}
	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive.Path, logger)
		if err != nil {
			logger.Warn("archive unavailable, runs will not be stored", zap.Error(err))
		} else {
			defer store.Close() //nolint:errcheck
			engineOpts = append(engineOpts, quality.WithArchive(store))
		}
	}

	engine := quality.NewEngine(c, engineOpts...)
	result, err := engine.CreateOptimizedContent(ctx, prompt, keyword, contentType)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
