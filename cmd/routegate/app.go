package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zen-systems/routegate/pkg/adapter"
	"github.com/zen-systems/routegate/pkg/chat"
	"github.com/zen-systems/routegate/pkg/config"
	"github.com/zen-systems/routegate/pkg/evaluation"
	"github.com/zen-systems/routegate/pkg/executor"
	"github.com/zen-systems/routegate/pkg/metrics"
	"github.com/zen-systems/routegate/pkg/models"
	"github.com/zen-systems/routegate/pkg/router"
	"github.com/zen-systems/routegate/pkg/scoring"
)

// app holds the wired components for one CLI invocation.
type app struct {
	cfg         *config.Config
	routing     *config.RoutingConfig
	registry    *models.Registry
	store       *evaluation.Store
	importer    *evaluation.Importer
	source      evaluation.Source
	router      *router.Router
	coordinator *executor.Coordinator
	service     *chat.Service
	logger      *zap.Logger
	closers     []func() error
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func newApp(logger *zap.Logger) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	routing := cfg.RoutingConfig
	if tierFlag != "" {
		routing.UserTier = tierFlag
	}
	if policyFlag != "" {
		routing.SelectionPolicy = policyFlag
	}
	if err := routing.Validate(); err != nil {
		return nil, err
	}

	registry := models.DefaultRegistry()
	if routing.RegistryPath != "" {
		registry, err = models.LoadRegistry(routing.RegistryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load model registry: %w", err)
		}
	}
	aliases.Merge(routing.Aliases)
	for _, err := range aliases.Validate(registry) {
		logger.Warn("ignoring alias", zap.Error(err))
	}

	a := &app{
		cfg:      cfg,
		routing:  routing,
		registry: registry,
		store:    evaluation.NewStore(evaluation.WithEntriesGauge(metrics.EvaluationEntries)),
		logger:   logger,
	}
	a.importer = evaluation.NewImporter(a.store, evaluation.WithLogger(logger.Named("evaluation")))
	a.source = a.newSource()

	tier, _ := routing.Tier()
	policy, _ := routing.Policy()
	mode, _ := routing.BlendMode()

	engine := scoring.NewEngine(a.store,
		scoring.WithBlendMode(mode),
		scoring.WithSignals(routing.ScoringSignals()),
	)
	a.router = router.NewRouter(registry, engine,
		router.WithPolicy(policy),
		router.WithBestModel(a.store),
		router.WithLogger(logger.Named("router")),
	)
	logger.Debug("router configured",
		zap.String("policy", string(a.router.Policy())),
		zap.Stringer("blend", engine.Mode()),
		zap.String("tier", string(tier)),
	)

	dispatcher := adapter.NewDispatcher(registry, a.dispatcherOptions()...)
	a.coordinator = executor.NewCoordinator(dispatcher,
		executor.WithRegistry(registry),
		executor.WithAttemptTimeout(routing.AttemptTimeout()),
		executor.WithLogger(logger.Named("executor")),
	)

	opts := []chat.Option{
		chat.WithUserTier(tier),
		chat.WithFallbackCount(routing.Fallbacks()),
		chat.WithImporter(a.importer),
		chat.WithLogger(logger.Named("chat")),
	}
	if routing.Evaluations.Required {
		opts = append(opts, chat.RequireEvaluations())
	}
	a.service = chat.NewService(a.router, a.coordinator, registry, opts...)

	return a, nil
}

func (a *app) newSource() evaluation.Source {
	switch a.routing.Evaluations.Source {
	case config.SourceFile:
		return &evaluation.FileSource{Path: a.routing.Evaluations.Path}
	case config.SourceRedis:
		src := evaluation.NewRedisSource(a.routing.Evaluations.RedisAddr, a.routing.Evaluations.RedisKey)
		a.closers = append(a.closers, src.Close)
		return src
	default:
		return evaluation.NewStaticSource()
	}
}

func (a *app) dispatcherOptions() []adapter.DispatcherOption {
	counter, err := adapter.NewTiktokenCounter()
	if err != nil {
		a.logger.Debug("tiktoken encoding unavailable, estimating tokens from characters", zap.Error(err))
	}
	opts := []adapter.DispatcherOption{
		adapter.WithUsageCounter(counter),
		adapter.WithDispatcherLogger(a.logger.Named("dispatcher")),
	}

	exec := a.routing.Execution
	if !a.routing.Live() {
		simOpts := []adapter.SimulatedOption{adapter.WithTokenCounter(counter)}
		if exec.LatencyScale != nil {
			simOpts = append(simOpts, adapter.WithLatencyScale(*exec.LatencyScale))
		}
		if exec.Seed != 0 {
			simOpts = append(simOpts, adapter.WithSeed(exec.Seed))
		}
		return append(opts, adapter.WithDefaultAdapter(adapter.NewSimulatedAdapter(simOpts...)))
	}

	providers, err := createAdapters(context.Background(), a.cfg)
	if err != nil {
		a.logger.Warn("some providers are unavailable", zap.Error(err))
	}
	for name, p := range providers {
		opts = append(opts, adapter.WithProvider(name, adapter.NewRateLimited(p, exec.RequestsPerSecond)))
	}
	return opts
}

// loadEvaluations imports the configured feed. Import failures are logged
// and leave the store as it was.
func (a *app) loadEvaluations(ctx context.Context) {
	if _, err := a.service.LoadEvaluations(ctx, a.source); err != nil {
		a.logger.Warn("evaluations not loaded", zap.String("source", a.source.Name()), zap.Error(err))
	}
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c()
	}
	_ = a.logger.Sync()
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadWithRoutingFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	aliases, err = config.LoadAliasesWithFallback("configs/aliases.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to load aliases: %w", err)
	}

	return cfg, nil
}

// createAdapters builds one adapter per configured provider, keyed by the
// lowercase provider name used in the registry.
func createAdapters(ctx context.Context, cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := make(map[string]adapter.Adapter)
	var errs []string

	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			errs = append(errs, fmt.Sprintf("anthropic: %v", err))
		} else {
			adapters["anthropic"] = a
		}
	}

	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			errs = append(errs, fmt.Sprintf("openai: %v", err))
		} else {
			adapters["openai"] = a
		}
	}

	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(ctx, cfg.GoogleAPIKey)
		if err != nil {
			errs = append(errs, fmt.Sprintf("google: %v", err))
		} else {
			adapters["google"] = a
		}
	}

	if cfg.DeepSeekAPIKey != "" {
		a, err := adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
		if err != nil {
			errs = append(errs, fmt.Sprintf("deepseek: %v", err))
		} else {
			adapters["deepseek"] = a
		}
	}

	if cfg.LocalBaseURL != "" {
		a, err := adapter.NewCompatAdapter("local", cfg.LocalBaseURL, "")
		if err != nil {
			errs = append(errs, fmt.Sprintf("local: %v", err))
		} else {
			adapters["local"] = a
		}
	}

	if len(errs) > 0 {
		return adapters, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return adapters, nil
}
