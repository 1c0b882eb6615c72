package memory

import (
	"context"
	"sync"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

type positionKey struct {
	wallet string
	mint   string
}

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu        sync.RWMutex
	positions map[positionKey]*domain.WalletPosition
	order     []positionKey // insertion order for stable listing
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		positions: make(map[positionKey]*domain.WalletPosition),
	}
}

// Upsert inserts the position or overwrites the existing row for
// (wallet, mint) with the supplied values.
func (s *PositionStore) Upsert(_ context.Context, p *domain.WalletPosition) error {
	if p == nil || p.WalletAddress == "" || p.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := positionKey{wallet: p.WalletAddress, mint: p.MintAddress}
	if _, exists := s.positions[key]; !exists {
		s.order = append(s.order, key)
	}

	posCopy := *p
	s.positions[key] = &posCopy
	return nil
}

// GetActive retrieves all positions for a wallet in insertion order.
func (s *PositionStore) GetActive(_ context.Context, walletAddress string) ([]*domain.WalletPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.WalletPosition
	for _, key := range s.order {
		if key.wallet != walletAddress {
			continue
		}
		posCopy := *s.positions[key]
		out = append(out, &posCopy)
	}
	return out, nil
}

// GetOne retrieves the position for (wallet, mint, protocol).
// Returns ErrNotFound if not exists.
func (s *PositionStore) GetOne(_ context.Context, walletAddress, mintAddress, protocolName string) (*domain.WalletPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.positions[positionKey{wallet: walletAddress, mint: mintAddress}]
	if !exists || p.ProtocolName != protocolName {
		return nil, storage.ErrNotFound
	}

	posCopy := *p
	return &posCopy, nil
}

// Remove deletes the position for (wallet, mint).
func (s *PositionStore) Remove(_ context.Context, walletAddress, mintAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := positionKey{wallet: walletAddress, mint: mintAddress}
	if _, exists := s.positions[key]; !exists {
		return nil
	}

	delete(s.positions, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// RemoveAll deletes every position.
func (s *PositionStore) RemoveAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions = make(map[positionKey]*domain.WalletPosition)
	s.order = nil
	return nil
}

var _ storage.PositionStore = (*PositionStore)(nil)
