// Package pipeline wires the stores, market providers, generator and
// poster into the five entry points the scheduler and interactive callers
// run: snapshots, rules, dynamics, predict and positions.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/tinftsol/lenda/internal/observability"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/llm"
	"github.com/tinftsol/lenda/internal/market"
	"github.com/tinftsol/lenda/internal/social"
	"github.com/tinftsol/lenda/internal/storage"
)

// Options is the options bag every entry point accepts.
type Options struct {
	// IncludeLogs enables per-item progress logging.
	IncludeLogs bool

	// ShouldPost sends derived analysis to the social channel.
	ShouldPost bool

	// HoursToPredict is the forecast horizon for Predict. Zero means the
	// default horizon.
	HoursToPredict int
}

// DefaultHoursToPredict is the forecast horizon when none is requested.
const DefaultHoursToPredict = 6

// Pipelines holds the shared collaborators of all entry points.
type Pipelines struct {
	registry    *market.Registry
	snapshots   storage.SnapshotStore
	positions   storage.PositionStore
	rules       storage.RuleStore
	predictions storage.PredictionStore
	wallets     storage.WalletStore
	generator   llm.Generator
	poster      social.Poster
	coins       []domain.SupportedCoin
	homeWallet  string
	logger      *log.Logger
	clock       func() time.Time
}

// Deps contains the collaborators for creating Pipelines.
type Deps struct {
	Registry    *market.Registry
	Snapshots   storage.SnapshotStore
	Positions   storage.PositionStore
	Rules       storage.RuleStore
	Predictions storage.PredictionStore
	Wallets     storage.WalletStore
	Generator   llm.Generator
	Poster      social.Poster
	Coins       []domain.SupportedCoin

	// HomeWallet is the operator-controlled wallet whose reconciled
	// positions are persisted. Other wallets are reported only.
	HomeWallet string

	Logger *log.Logger
}

// New creates the pipeline set.
func New(deps Deps) *Pipelines {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	poster := deps.Poster
	if poster == nil {
		poster = social.NoopPoster{}
	}

	coins := deps.Coins
	if coins == nil {
		coins = domain.DefaultSupportedCoins
	}

	return &Pipelines{
		registry:    deps.Registry,
		snapshots:   deps.Snapshots,
		positions:   deps.Positions,
		rules:       deps.Rules,
		predictions: deps.Predictions,
		wallets:     deps.Wallets,
		generator:   deps.Generator,
		poster:      poster,
		coins:       coins,
		homeWallet:  deps.HomeWallet,
		logger:      logger,
		clock:       time.Now,
	}
}

// WithClock sets a custom clock for deterministic output.
func (p *Pipelines) WithClock(clock func() time.Time) *Pipelines {
	p.clock = clock
	return p
}

func (p *Pipelines) logf(opts Options, format string, args ...interface{}) {
	if opts.IncludeLogs {
		p.logger.Printf("[pipeline] "+format, args...)
	}
}

// post sends text to the social channel, fire-and-forget. Failures are
// logged and never propagate.
func (p *Pipelines) post(opts Options, text string) {
	if !opts.ShouldPost || text == "" {
		return
	}
	// Posting must not die with a cancelled job iteration; the poster's
	// own timeout bounds it.
	if err := p.poster.Post(context.Background(), text); err != nil {
		p.logger.Printf("[pipeline] social post failed: %v", err)
		return
	}
	observability.RecordAnalysisPosted()
}
