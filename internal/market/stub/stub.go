// Package stub provides an in-memory market provider for tests and local
// runs without chain access.
package stub

import (
	"context"
	"sync"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/market"
)

// Provider serves canned reserves and obligations. Safe for concurrent use.
type Provider struct {
	mu          sync.RWMutex
	protocol    domain.Protocol
	reserves    []*domain.ReserveObservation
	obligations map[string][]domain.Deposit
	reservesErr error
	obligErr    error

	ReserveCalls    int
	ObligationCalls int
}

// NewProvider creates a stub provider for the given protocol.
func NewProvider(protocol domain.Protocol) *Provider {
	return &Provider{
		protocol:    protocol,
		obligations: make(map[string][]domain.Deposit),
	}
}

// SetReserves replaces the canned reserve set.
func (p *Provider) SetReserves(reserves []*domain.ReserveObservation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reserves = reserves
}

// SetObligations replaces the canned deposits for a wallet.
func (p *Provider) SetObligations(walletAddress string, deposits []domain.Deposit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.obligations[walletAddress] = deposits
}

// FailReserves makes GetReserves return err until reset with nil.
func (p *Provider) FailReserves(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reservesErr = err
}

// FailObligations makes GetObligations return err until reset with nil.
func (p *Provider) FailObligations(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.obligErr = err
}

func (p *Provider) Protocol() domain.Protocol {
	return p.protocol
}

func (p *Provider) GetReserves(_ context.Context) ([]*domain.ReserveObservation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReserveCalls++
	if p.reservesErr != nil {
		return nil, p.reservesErr
	}
	out := make([]*domain.ReserveObservation, len(p.reserves))
	copy(out, p.reserves)
	return out, nil
}

func (p *Provider) GetObligations(_ context.Context, walletAddress string) ([]domain.Deposit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ObligationCalls++
	if p.obligErr != nil {
		return nil, p.obligErr
	}
	out := make([]domain.Deposit, len(p.obligations[walletAddress]))
	copy(out, p.obligations[walletAddress])
	return out, nil
}

var _ market.ReserveProvider = (*Provider)(nil)
