// Package market defines the chain data provider contract and the
// protocol registry that dispatches to concrete providers.
package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/tinftsol/lenda/internal/domain"
)

// Sentinel errors for provider and registry failures.
var (
	// ErrProviderUnavailable indicates the remote market collaborator could
	// not be reached or returned no usable data. Jobs treat it as
	// transient and retry on their next interval.
	ErrProviderUnavailable = errors.New("market provider unavailable")

	// ErrNoReserve indicates the requested mint has no current reserve
	// data on the protocol.
	ErrNoReserve = errors.New("no matching reserve")

	// ErrUnknownProtocol indicates no provider is registered for the
	// protocol.
	ErrUnknownProtocol = errors.New("unknown protocol")
)

// ReserveProvider reads lending market state for one protocol.
type ReserveProvider interface {
	// Protocol identifies which protocol this provider serves.
	Protocol() domain.Protocol

	// GetReserves retrieves the current observation for every supported
	// reserve of the protocol's market.
	GetReserves(ctx context.Context) ([]*domain.ReserveObservation, error)

	// GetObligations retrieves the wallet's current deposits on the
	// protocol's market as raw amounts.
	GetObligations(ctx context.Context, walletAddress string) ([]domain.Deposit, error)
}

// Registry maps protocols to providers. It is populated once at startup
// and read-only afterwards, so no locking is needed.
type Registry struct {
	providers map[domain.Protocol]ReserveProvider
	order     []domain.Protocol
}

// NewRegistry creates a registry over the given providers. Registration
// order is preserved for iteration.
func NewRegistry(providers ...ReserveProvider) (*Registry, error) {
	r := &Registry{providers: make(map[domain.Protocol]ReserveProvider, len(providers))}
	for _, p := range providers {
		proto := p.Protocol()
		if _, ok := r.providers[proto]; ok {
			return nil, fmt.Errorf("duplicate provider for protocol %s", proto)
		}
		r.providers[proto] = p
		r.order = append(r.order, proto)
	}
	return r, nil
}

// Get resolves the provider for a protocol.
func (r *Registry) Get(protocol domain.Protocol) (ReserveProvider, error) {
	p, ok := r.providers[protocol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProtocol, protocol)
	}
	return p, nil
}

// Protocols returns the registered protocols in registration order.
func (r *Registry) Protocols() []domain.Protocol {
	out := make([]domain.Protocol, len(r.order))
	copy(out, r.order)
	return out
}

// LatestByMint indexes observations by mint address. Later entries win,
// which matches providers returning one observation per mint.
func LatestByMint(reserves []*domain.ReserveObservation) map[string]*domain.ReserveObservation {
	byMint := make(map[string]*domain.ReserveObservation, len(reserves))
	for _, r := range reserves {
		byMint[r.MintAddress] = r
	}
	return byMint
}
