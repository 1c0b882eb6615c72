package memory

import (
	"context"
	"sync"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

// WalletStore is an in-memory implementation of storage.WalletStore.
// Wallets are kept in registration order.
type WalletStore struct {
	mu      sync.RWMutex
	wallets []*domain.UserWallet
}

// NewWalletStore creates a new in-memory wallet store.
func NewWalletStore() *WalletStore {
	return &WalletStore{}
}

// Add links a wallet. Uniqueness of (user_id, wallet_address) is the wallet
// service's concern.
func (s *WalletStore) Add(_ context.Context, w *domain.UserWallet) error {
	if w == nil || w.UserID == "" || w.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	walletCopy := *w
	s.wallets = append(s.wallets, &walletCopy)
	return nil
}

// GetAll retrieves every linked wallet in registration order.
func (s *WalletStore) GetAll(_ context.Context) ([]*domain.UserWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(*domain.UserWallet) bool { return true }), nil
}

// GetByUserID retrieves all wallets linked to an internal user ID.
func (s *WalletStore) GetByUserID(_ context.Context, userID string) ([]*domain.UserWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(w *domain.UserWallet) bool { return w.UserID == userID }), nil
}

// GetByTelegramUserID retrieves all wallets linked to a messaging ID.
func (s *WalletStore) GetByTelegramUserID(_ context.Context, telegramUserID string) ([]*domain.UserWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(w *domain.UserWallet) bool { return w.TelegramUserID == telegramUserID }), nil
}

// GetTelegramIDByWallet resolves a wallet address to the messaging ID that
// linked it. Returns ErrNotFound if not exists.
func (s *WalletStore) GetTelegramIDByWallet(_ context.Context, walletAddress string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.wallets {
		if w.WalletAddress == walletAddress {
			return w.TelegramUserID, nil
		}
	}
	return "", storage.ErrNotFound
}

// Remove unlinks one wallet from a user.
func (s *WalletStore) Remove(_ context.Context, userID, walletAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.wallets[:0]
	for _, w := range s.wallets {
		if w.UserID == userID && w.WalletAddress == walletAddress {
			continue
		}
		kept = append(kept, w)
	}
	s.wallets = kept
	return nil
}

// RemoveAll deletes every link.
func (s *WalletStore) RemoveAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wallets = nil
	return nil
}

// filter returns copies of matching wallets in registration order.
// Caller must hold the lock.
func (s *WalletStore) filter(match func(*domain.UserWallet) bool) []*domain.UserWallet {
	var out []*domain.UserWallet
	for _, w := range s.wallets {
		if match(w) {
			walletCopy := *w
			out = append(out, &walletCopy)
		}
	}
	return out
}

var _ storage.WalletStore = (*WalletStore)(nil)
