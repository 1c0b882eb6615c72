// Package main provides an operator CLI over the position and prediction
// stores: list reconciled positions for a wallet, show the latest APY
// forecasts per protocol, or request a fresh forecast interactively.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/tinftsol/lenda/internal/config"
	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/llm"
	"github.com/tinftsol/lenda/internal/market"
	"github.com/tinftsol/lenda/internal/market/kamino"
	"github.com/tinftsol/lenda/internal/pipeline"
	"github.com/tinftsol/lenda/internal/storage/migrations"
	pgstore "github.com/tinftsol/lenda/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	wallet := flag.String("wallet", "", "Wallet address to list positions for (default: home wallet)")
	protocol := flag.String("protocol", string(domain.ProtocolKamino), "Protocol name for forecasts")
	predictCoin := flag.String("predict", "", "Coin to forecast now (USDC, USDT, USDS); requires ANTHROPIC_API_KEY")
	hours := flag.Int("hours", 0, "Forecast horizon in hours (default 6)")
	flag.Parse()

	logger := log.New(os.Stderr, "[positions] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if *postgresDSN != "" {
		cfg.Storage.DSN = *postgresDSN
		cfg.Storage.Driver = "postgres"
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.DSN == "" {
		logger.Fatal("A PostgreSQL DSN is required (--postgres-dsn or POSTGRES_DSN)")
	}

	address := *wallet
	if address == "" {
		address = cfg.Wallet.HomeAddress
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.Storage.DSN)
	if err != nil {
		logger.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	positions := pgstore.NewPositionStore(pool)
	predictions := pgstore.NewPredictionStore(pool)

	if *predictCoin != "" {
		if err := runForecast(ctx, cfg, pool, *protocol, *predictCoin, *hours); err != nil {
			logger.Fatalf("Forecast failed: %v", err)
		}
		return
	}

	if address != "" {
		rows, err := positions.GetActive(ctx, address)
		if err != nil {
			logger.Fatalf("Failed to load positions: %v", err)
		}
		printPositions(address, rows)
	} else {
		fmt.Println("No wallet given and no home wallet configured, skipping positions.")
	}

	forecasts, err := predictions.GetAllByProtocol(ctx, *protocol)
	if err != nil {
		logger.Fatalf("Failed to load forecasts: %v", err)
	}
	printForecasts(*protocol, forecasts)
}

func printPositions(address string, rows []*domain.WalletPosition) {
	fmt.Printf("\nPositions for %s\n", address)
	if len(rows) == 0 {
		fmt.Println("  (none)")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Protocol", "Coin", "Amount", "Start APY", "Opened", "Current", "Latest APY")
	for _, p := range rows {
		table.Append(
			p.ProtocolName,
			p.CoinName,
			fmt.Sprintf("%.2f", p.Amount),
			fmt.Sprintf("%.2f%%", p.StartAPY),
			time.UnixMilli(p.StartTime).UTC().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", p.CurrentPosition),
			fmt.Sprintf("%.2f%%", p.LatestAPY),
		)
	}
	table.Render()
}

func printForecasts(protocol string, forecasts []*domain.ProtocolPredictedAPY) {
	fmt.Printf("\nLatest forecasts for %s\n", protocol)
	if len(forecasts) == 0 {
		fmt.Println("  (none)")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Coin", "Generated", "Points", "First", "Last")
	for _, f := range forecasts {
		first, last := "-", "-"
		if len(f.Points) > 0 {
			first = fmt.Sprintf("%.2f%%", f.Points[0].APY)
			last = fmt.Sprintf("%.2f%%", f.Points[len(f.Points)-1].APY)
		}
		table.Append(
			f.CoinName,
			time.UnixMilli(f.Timestamp).UTC().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", len(f.Points)),
			first,
			last,
		)
	}
	table.Render()
}

// runForecast generates and stores a fresh forecast for one pool.
func runForecast(ctx context.Context, cfg *config.Config, pool *pgstore.Pool, protocol, coin string, hours int) error {
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required for forecasting")
	}

	var apiOpts []kamino.ClientOption
	if cfg.Market.KaminoBaseURL != "" {
		apiOpts = append(apiOpts, kamino.WithBaseURL(cfg.Market.KaminoBaseURL))
	}
	provider := kamino.NewProvider(kamino.ProviderOptions{
		MarketID:    cfg.Market.KaminoMarket,
		API:         kamino.NewClient(apiOpts...),
		RPCEndpoint: cfg.Market.RPCEndpoint,
	})
	registry, err := market.NewRegistry(provider)
	if err != nil {
		return err
	}

	pipelines := pipeline.New(pipeline.Deps{
		Registry:    registry,
		Snapshots:   pgstore.NewSnapshotStore(pool),
		Positions:   pgstore.NewPositionStore(pool),
		Rules:       pgstore.NewRuleStore(pool),
		Predictions: pgstore.NewPredictionStore(pool),
		Wallets:     pgstore.NewWalletStore(pool),
		Generator:   llm.NewAnthropicGenerator(cfg.LLM.APIKey),
	})

	res, err := pipelines.RunPredict(ctx, pipeline.PredictRequest{
		Protocol: domain.Protocol(protocol),
		Coin:     coin,
		Options:  pipeline.Options{HoursToPredict: hours},
	})
	if err != nil {
		return err
	}

	fmt.Println(res.Summary)
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Time", "APY")
	for _, p := range res.Forecast.Points {
		table.Append(
			time.UnixMilli(p.Timestamp).UTC().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f%%", p.APY),
		)
	}
	table.Render()
	return nil
}
