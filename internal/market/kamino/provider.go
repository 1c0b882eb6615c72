// Package kamino implements the market provider for the Kamino lending
// protocol, combining the Kamino REST API for reserve metrics and a Solana
// RPC endpoint for chain state.
package kamino

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/market"
	"github.com/tinftsol/lenda/internal/observability"
)

// MainMarket is the Kamino main lending market address on mainnet.
const MainMarket = "7u3HeHxYDLhnCoErrtycNokbQYbWGzLs6JSDqGAv5PfF"

const (
	defaultCallTimeout = 30 * time.Second
	defaultRateLimit   = rate.Limit(2) // calls per second
	defaultRateBurst   = 4
)

// Provider reads Kamino market state. Safe for concurrent use.
type Provider struct {
	marketID    string
	api         *Client
	rpc         *rpc.Client
	coins       []domain.SupportedCoin
	limiter     *rate.Limiter
	callTimeout time.Duration
	logger      *log.Logger
}

// ProviderOptions contains configuration for creating a Provider.
type ProviderOptions struct {
	MarketID    string
	API         *Client
	RPCEndpoint string
	Coins       []domain.SupportedCoin
	CallTimeout time.Duration
	Logger      *log.Logger
}

// NewProvider creates a Kamino provider.
func NewProvider(opts ProviderOptions) *Provider {
	marketID := opts.MarketID
	if marketID == "" {
		marketID = MainMarket
	}

	api := opts.API
	if api == nil {
		api = NewClient()
	}

	endpoint := opts.RPCEndpoint
	if endpoint == "" {
		endpoint = rpc.MainNetBeta_RPC
	}

	coins := opts.Coins
	if coins == nil {
		coins = domain.SupportedCoinsFor(domain.DefaultSupportedCoins, domain.ProtocolKamino)
	}

	callTimeout := opts.CallTimeout
	if callTimeout == 0 {
		callTimeout = defaultCallTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Provider{
		marketID:    marketID,
		api:         api,
		rpc:         rpc.New(endpoint),
		coins:       coins,
		limiter:     rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Protocol identifies this provider.
func (p *Provider) Protocol() domain.Protocol {
	return domain.ProtocolKamino
}

// GetReserves retrieves current observations for the supported reserves of
// the market. APY is pinned to the current chain slot, matching how Kamino
// computes supply yield.
func (p *Provider) GetReserves(ctx context.Context) ([]*domain.ReserveObservation, error) {
	ctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	slot, err := p.currentSlot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrProviderUnavailable, err)
	}

	start := time.Now()
	metrics, err := p.api.GetReserveMetrics(ctx, p.marketID, slot)
	observability.RecordProviderCall(string(domain.ProtocolKamino), "reserves", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrProviderUnavailable, err)
	}

	byMint := make(map[string]reserveMetrics, len(metrics))
	for _, m := range metrics {
		byMint[m.LiquidityTokenMint] = m
	}

	now := time.Now().UnixMilli()
	var out []*domain.ReserveObservation
	for _, coin := range p.coins {
		m, ok := byMint[coin.Mint]
		if !ok {
			p.logger.Printf("[kamino] no reserve for %s (%s) on market %s", coin.Name, coin.Mint, p.marketID)
			continue
		}

		out = append(out, &domain.ReserveObservation{
			ReserveSnapshot: domain.ReserveSnapshot{
				Protocol:        string(domain.ProtocolKamino),
				CoinName:        coin.Name,
				MintAddress:     coin.Mint,
				APY:             m.SupplyAPY * 100,
				LendLiquidity:   m.LiquidityAvailable,
				BorrowLiquidity: m.TotalBorrowed,
				UtilizationRate: m.UtilizationRatio * 100,
				BorrowCap:       m.BorrowLimit,
				SupplyCap:       m.DepositLimit,
				LTV:             m.LoanToValue,
				UpdateTime:      now,
			},
			Decimals: m.Decimals,
		})
	}

	return out, nil
}

// GetObligations retrieves the wallet's current deposits on the market as
// raw amounts.
func (p *Provider) GetObligations(ctx context.Context, walletAddress string) ([]domain.Deposit, error) {
	if _, err := solana.PublicKeyFromBase58(walletAddress); err != nil {
		return nil, fmt.Errorf("invalid wallet address %q: %w", walletAddress, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	deposits, err := p.api.GetObligations(ctx, p.marketID, walletAddress)
	observability.RecordProviderCall(string(domain.ProtocolKamino), "obligations", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrProviderUnavailable, err)
	}

	out := make([]domain.Deposit, 0, len(deposits))
	for _, d := range deposits {
		out = append(out, domain.Deposit{
			MintAddress: d.MintAddress,
			RawAmount:   d.Amount,
		})
	}
	return out, nil
}

func (p *Provider) currentSlot(ctx context.Context) (uint64, error) {
	start := time.Now()
	slot, err := p.rpc.GetSlot(ctx, rpc.CommitmentConfirmed)
	observability.RecordProviderCall(string(domain.ProtocolKamino), "getSlot", time.Since(start).Seconds(), err)
	if err != nil {
		return 0, fmt.Errorf("get slot: %w", err)
	}
	return slot, nil
}

var _ market.ReserveProvider = (*Provider)(nil)
