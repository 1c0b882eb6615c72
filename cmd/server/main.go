// Package main provides the unified lending reserve daemon:
// - Snapshots (scheduled): sample reserve metrics from every protocol
// - Rules (scheduled): derive APY behavior rules from snapshot history
// - Dynamics (scheduled): analyze pool dynamics and optionally post
// - Positions (scheduled): reconcile wallet positions against the chain
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tinftsol/lenda/internal/config"
	"github.com/tinftsol/lenda/internal/llm"
	"github.com/tinftsol/lenda/internal/market"
	"github.com/tinftsol/lenda/internal/market/kamino"
	"github.com/tinftsol/lenda/internal/observability"
	"github.com/tinftsol/lenda/internal/pipeline"
	"github.com/tinftsol/lenda/internal/scheduler"
	"github.com/tinftsol/lenda/internal/social"
	"github.com/tinftsol/lenda/internal/storage"
	"github.com/tinftsol/lenda/internal/storage/memory"
	"github.com/tinftsol/lenda/internal/storage/migrations"
	pgstore "github.com/tinftsol/lenda/internal/storage/postgres"
)

// allStores holds all storage implementations.
type allStores struct {
	snapshots   storage.SnapshotStore
	positions   storage.PositionStore
	rules       storage.RuleStore
	predictions storage.PredictionStore
	wallets     storage.WalletStore
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides config)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	homeWallet := flag.String("home-wallet", "", "Operator wallet address (overrides config)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}
	if *postgresDSN != "" {
		cfg.Storage.DSN = *postgresDSN
		cfg.Storage.Driver = "postgres"
	}
	if *homeWallet != "" {
		cfg.Wallet.HomeAddress = *homeWallet
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal(err)
	}
	if cfg.LLM.APIKey == "" {
		logger.Fatal("ANTHROPIC_API_KEY is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	registry, err := buildRegistry(cfg)
	if err != nil {
		logger.Fatalf("Failed to build market registry: %v", err)
	}

	generatorOpts := []llm.AnthropicOption{}
	if cfg.LLM.Model != "" {
		generatorOpts = append(generatorOpts, llm.WithModel(cfg.LLM.Model))
	}
	if cfg.LLM.MaxTokens > 0 {
		generatorOpts = append(generatorOpts, llm.WithMaxTokens(cfg.LLM.MaxTokens))
	}
	generator := llm.NewAnthropicGenerator(cfg.LLM.APIKey, generatorOpts...)

	var poster social.Poster = social.NoopPoster{}
	if cfg.Social.WebhookURL != "" {
		poster = social.NewWebhookPoster(cfg.Social.WebhookURL)
	}

	pipelines := pipeline.New(pipeline.Deps{
		Registry:    registry,
		Snapshots:   stores.snapshots,
		Positions:   stores.positions,
		Rules:       stores.rules,
		Predictions: stores.predictions,
		Wallets:     stores.wallets,
		Generator:   generator,
		Poster:      poster,
		HomeWallet:  cfg.Wallet.HomeAddress,
		Logger:      log.New(os.Stdout, "[pipeline] ", log.LstdFlags),
	})

	jobOpts := pipeline.Options{IncludeLogs: true, ShouldPost: cfg.Social.ShouldPost}

	sched := scheduler.New(scheduler.Options{
		Logger: log.New(os.Stdout, "[scheduler] ", log.LstdFlags),
		Jobs: []scheduler.Job{
			{
				Name:     "snapshots",
				Interval: cfg.SnapshotsInterval(),
				Run: func(ctx context.Context) error {
					_, err := pipelines.RunSnapshots(ctx, jobOpts)
					return err
				},
			},
			{
				Name:     "rules",
				Interval: cfg.RulesInterval(),
				Run: func(ctx context.Context) error {
					_, err := pipelines.RunRules(ctx, jobOpts)
					return err
				},
			},
			{
				Name:     "dynamics",
				Interval: cfg.DynamicsInterval(),
				Run: func(ctx context.Context) error {
					_, err := pipelines.RunDynamics(ctx, jobOpts)
					return err
				},
			},
			{
				Name:     "positions",
				Interval: cfg.PositionsInterval(),
				Run: func(ctx context.Context) error {
					_, err := pipelines.RunPositions(ctx, jobOpts)
					return err
				},
			},
		},
	})

	done := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	go startMetricsServer(cfg.Server.MetricsAddr, logger)

	logger.Printf("Storage driver: %s", cfg.Storage.Driver)
	logger.Printf("Protocols: %v", registry.Protocols())
	if cfg.Wallet.HomeAddress != "" {
		logger.Printf("Home wallet: %s", cfg.Wallet.HomeAddress)
	} else {
		logger.Println("No home wallet configured, positions are report-only")
	}

	sched.Start(ctx)
	sched.Wait()
	close(done)

	logger.Println("Shutdown complete")
}

// createStores creates the storage set for the configured driver.
func createStores(ctx context.Context, cfg *config.Config) (*allStores, func(), error) {
	if cfg.Storage.Driver == "memory" {
		stores := &allStores{
			snapshots:   memory.NewSnapshotStore(),
			positions:   memory.NewPositionStore(),
			rules:       memory.NewRuleStore(),
			predictions: memory.NewPredictionStore(),
			wallets:     memory.NewWalletStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	stores := &allStores{
		snapshots:   pgstore.NewSnapshotStore(pool),
		positions:   pgstore.NewPositionStore(pool),
		rules:       pgstore.NewRuleStore(pool),
		predictions: pgstore.NewPredictionStore(pool),
		wallets:     pgstore.NewWalletStore(pool),
	}
	return stores, pool.Close, nil
}

// buildRegistry wires the configured market providers.
func buildRegistry(cfg *config.Config) (*market.Registry, error) {
	var apiOpts []kamino.ClientOption
	if cfg.Market.KaminoBaseURL != "" {
		apiOpts = append(apiOpts, kamino.WithBaseURL(cfg.Market.KaminoBaseURL))
	}

	provider := kamino.NewProvider(kamino.ProviderOptions{
		MarketID:    cfg.Market.KaminoMarket,
		API:         kamino.NewClient(apiOpts...),
		RPCEndpoint: cfg.Market.RPCEndpoint,
		Logger:      log.New(os.Stdout, "[kamino] ", log.LstdFlags),
	})

	return market.NewRegistry(provider)
}

func startMetricsServer(addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	logger.Printf("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Printf("Metrics server stopped: %v", err)
	}
}
