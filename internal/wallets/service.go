// Package wallets manages the registry of user-linked wallets. The storage
// layer holds no uniqueness constraint for links; this service enforces
// (user, wallet) uniqueness and address validation.
package wallets

import (
	"context"
	"fmt"
	"time"

	"github.com/mr-tron/base58"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

const addressByteLen = 32

// Service links and unlinks wallets.
type Service struct {
	store storage.WalletStore
}

// NewService creates a wallet service over the given store.
func NewService(store storage.WalletStore) *Service {
	return &Service{store: store}
}

// ValidateAddress checks that the address is base58 text decoding to a
// 32-byte public key.
func ValidateAddress(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	if len(raw) != addressByteLen {
		return fmt.Errorf("%w: address decodes to %d bytes, want %d", storage.ErrInvalidInput, len(raw), addressByteLen)
	}
	return nil
}

// Link registers a wallet for a user. Returns ErrDuplicateKey when the
// user already linked the address and ErrInvalidInput when the address is
// not a valid public key.
func (s *Service) Link(ctx context.Context, userID, telegramUserID, walletAddress string) (*domain.UserWallet, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", storage.ErrInvalidInput)
	}
	if err := ValidateAddress(walletAddress); err != nil {
		return nil, err
	}

	existing, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check existing links: %w", err)
	}
	for _, w := range existing {
		if w.WalletAddress == walletAddress {
			return nil, fmt.Errorf("%w: wallet already linked", storage.ErrDuplicateKey)
		}
	}

	wallet := &domain.UserWallet{
		UserID:         userID,
		TelegramUserID: telegramUserID,
		WalletAddress:  walletAddress,
		CreatedAt:      time.Now().UnixMilli(),
	}
	if err := s.store.Add(ctx, wallet); err != nil {
		return nil, fmt.Errorf("store wallet link: %w", err)
	}
	return wallet, nil
}

// Unlink removes one wallet link.
func (s *Service) Unlink(ctx context.Context, userID, walletAddress string) error {
	return s.store.Remove(ctx, userID, walletAddress)
}

// Registered returns every linked wallet in registration order.
func (s *Service) Registered(ctx context.Context) ([]*domain.UserWallet, error) {
	return s.store.GetAll(ctx)
}

// ByTelegramUser returns the wallets linked by a messaging identity.
func (s *Service) ByTelegramUser(ctx context.Context, telegramUserID string) ([]*domain.UserWallet, error) {
	return s.store.GetByTelegramUserID(ctx, telegramUserID)
}

// OwnerTelegramID resolves a wallet address to the messaging identity that
// linked it.
func (s *Service) OwnerTelegramID(ctx context.Context, walletAddress string) (string, error) {
	return s.store.GetTelegramIDByWallet(ctx, walletAddress)
}
