package pipeline

import (
	"context"
	"fmt"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/market"
	"github.com/tinftsol/lenda/internal/observability"
	"github.com/tinftsol/lenda/internal/reconcile"
)

// WalletReport is the reconciliation outcome for one wallet.
type WalletReport struct {
	WalletAddress string
	Positions     []*domain.WalletPosition

	// Persisted is true for the home wallet only.
	Persisted bool
}

// PositionsResult reports one position-refresh pass.
type PositionsResult struct {
	Summary string
	Reports []WalletReport
}

// RunPositions refreshes every registered wallet's lending positions,
// sequentially in registration order. Reconciled positions are persisted
// for the home wallet only; other wallets are reported. A provider failure
// for one wallet or protocol skips that slice of work and moves on.
func (p *Pipelines) RunPositions(ctx context.Context, opts Options) (*PositionsResult, error) {
	registered, err := p.wallets.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registered wallets: %w", err)
	}

	addresses := make([]string, 0, len(registered)+1)
	seen := make(map[string]bool, len(registered)+1)
	if p.homeWallet != "" {
		addresses = append(addresses, p.homeWallet)
		seen[p.homeWallet] = true
	}
	for _, w := range registered {
		if !seen[w.WalletAddress] {
			addresses = append(addresses, w.WalletAddress)
			seen[w.WalletAddress] = true
		}
	}

	// Reserves are fetched once per protocol and shared across wallets to
	// bound load on the market collaborator.
	reservesByProtocol := make(map[domain.Protocol]map[string]*domain.ReserveObservation)
	for _, protocol := range p.registry.Protocols() {
		provider, err := p.registry.Get(protocol)
		if err != nil {
			return nil, err
		}
		reserves, err := provider.GetReserves(ctx)
		if err != nil {
			p.logger.Printf("[pipeline] positions: %s reserves unavailable: %v", protocol, err)
			continue
		}
		reservesByProtocol[protocol] = market.LatestByMint(reserves)
	}

	res := &PositionsResult{}
	for _, address := range addresses {
		report := p.refreshWallet(ctx, opts, address, reservesByProtocol)
		res.Reports = append(res.Reports, report)
		observability.RecordWalletProcessed()
	}

	res.Summary = fmt.Sprintf("refreshed %d wallets", len(res.Reports))
	return res, nil
}

func (p *Pipelines) refreshWallet(ctx context.Context, opts Options, address string, reservesByProtocol map[domain.Protocol]map[string]*domain.ReserveObservation) WalletReport {
	report := WalletReport{
		WalletAddress: address,
		Persisted:     address == p.homeWallet,
	}

	stored, err := p.positions.GetActive(ctx, address)
	if err != nil {
		p.logger.Printf("[pipeline] positions: load stored positions for %s: %v", address, err)
		return report
	}
	priorByMint := make(map[string]*domain.WalletPosition, len(stored))
	for _, pos := range stored {
		priorByMint[pos.MintAddress] = pos
	}

	now := p.clock().UnixMilli()
	var allDeposits []domain.Deposit

	for _, protocol := range p.registry.Protocols() {
		reserves, ok := reservesByProtocol[protocol]
		if !ok {
			continue
		}

		provider, err := p.registry.Get(protocol)
		if err != nil {
			continue
		}

		deposits, err := provider.GetObligations(ctx, address)
		if err != nil {
			p.logger.Printf("[pipeline] positions: obligations for %s on %s: %v", address, protocol, err)
			continue
		}
		allDeposits = append(allDeposits, deposits...)

		out := reconcile.Reconcile(reconcile.Input{
			WalletAddress: address,
			ProtocolName:  string(protocol),
			Deposits:      deposits,
			Reserves:      reserves,
			Prior:         priorByMint,
		}, now)

		for _, mint := range out.SkippedMints {
			observability.RecordDepositSkipped("no_reserve")
			p.logger.Printf("[pipeline] positions: no reserve data for mint %s on %s, deposit skipped", mint, protocol)
		}

		for _, pos := range out.Positions {
			report.Positions = append(report.Positions, pos)
			if !report.Persisted {
				continue
			}
			if err := p.positions.Upsert(ctx, pos); err != nil {
				p.logger.Printf("[pipeline] positions: upsert %s/%s: %v", address, pos.MintAddress, err)
				continue
			}
			observability.RecordPositionReconciled()
			p.logf(opts, "positions: %s %s/%s current=%.2f apy=%.2f%%",
				address, pos.ProtocolName, pos.CoinName, pos.CurrentPosition, pos.LatestAPY)
		}
	}

	// Positions whose deposit vanished are reported, never auto-removed.
	for _, mint := range reconcile.Disappeared(stored, allDeposits) {
		p.logger.Printf("[pipeline] positions: stored position for %s mint %s has no matching deposit", address, mint)
	}

	return report
}
