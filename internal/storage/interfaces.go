package storage

import (
	"context"

	"github.com/tinftsol/lenda/internal/domain"
)

// Window caps applied to bounded reads. Reads are window-bounded rather
// than time-bounded so prompt size and query cost stay predictable
// regardless of sampling frequency.
const (
	SnapshotMintWindow     = 10
	SnapshotProtocolWindow = 20
	RuleWindow             = 10
)

// SnapshotStore provides access to reserve_snapshots storage.
// Snapshots are append-only; duplicates are allowed on purpose because the
// time density of sampling is itself informative.
type SnapshotStore interface {
	// Put appends one observation. Never dedups or merges.
	Put(ctx context.Context, s *domain.ReserveSnapshot) error

	// GetByMint retrieves up to SnapshotMintWindow most recent snapshots for
	// (protocol, mint), ordered by update_time descending.
	GetByMint(ctx context.Context, protocol, mint string) ([]*domain.ReserveSnapshot, error)

	// GetByProtocol retrieves up to SnapshotProtocolWindow most recent
	// snapshots across all mints of a protocol, ordered by update_time
	// descending.
	GetByProtocol(ctx context.Context, protocol string) ([]*domain.ReserveSnapshot, error)

	// DeleteByMint removes all snapshots for a mint. Administrative.
	DeleteByMint(ctx context.Context, mint string) error
}

// PositionStore provides access to current_positions storage. Exactly one
// row exists per (wallet_address, mint_address).
type PositionStore interface {
	// Upsert inserts the position or, when a row already exists for
	// (wallet_address, mint_address), overwrites every field with the
	// supplied values. The primitive is intentionally blind: preserving the
	// baseline is the reconciler's job, which reads before it writes.
	// A uniqueness conflict is resolved as an update, never surfaced.
	Upsert(ctx context.Context, p *domain.WalletPosition) error

	// GetActive retrieves all positions for a wallet.
	GetActive(ctx context.Context, walletAddress string) ([]*domain.WalletPosition, error)

	// GetOne retrieves the position for (wallet, mint, protocol).
	// Returns ErrNotFound if not exists.
	GetOne(ctx context.Context, walletAddress, mintAddress, protocolName string) (*domain.WalletPosition, error)

	// Remove deletes the position for (wallet, mint).
	Remove(ctx context.Context, walletAddress, mintAddress string) error

	// RemoveAll deletes every position. Administrative.
	RemoveAll(ctx context.Context) error
}

// RuleStore provides access to protocol_rules storage. Rules accumulate and
// are pruned by confidence only at read time.
type RuleStore interface {
	// Save appends a rule.
	Save(ctx context.Context, r *domain.ProtocolRule) error

	// GetByProtocol retrieves up to RuleWindow most recent rules for a
	// protocol, newest first.
	GetByProtocol(ctx context.Context, protocolName string) ([]*domain.ProtocolRule, error)

	// GetByProtocolWithConfidence retrieves all rules for a protocol with
	// confidence >= minConfidence. No window cap is applied.
	GetByProtocolWithConfidence(ctx context.Context, protocolName string, minConfidence int) ([]*domain.ProtocolRule, error)

	// DropAll deletes every rule. Administrative.
	DropAll(ctx context.Context) error
}

// PredictionStore provides access to protocol_predicted_apy storage.
// Predictions are perishable: saving overwrites the prior forecast for the
// same (protocol_name, mint_address) key and no history is retained.
type PredictionStore interface {
	// Save stores the forecast, replacing any prior one for the same key.
	Save(ctx context.Context, p *domain.ProtocolPredictedAPY) error

	// GetLatest retrieves the stored forecast for (protocol, mint).
	// Returns ErrNotFound if not exists.
	GetLatest(ctx context.Context, protocolName, mintAddress string) (*domain.ProtocolPredictedAPY, error)

	// GetAllByProtocol retrieves all forecasts for a protocol.
	GetAllByProtocol(ctx context.Context, protocolName string) ([]*domain.ProtocolPredictedAPY, error)

	// GetAll retrieves every stored forecast.
	GetAll(ctx context.Context) ([]*domain.ProtocolPredictedAPY, error)
}

// WalletStore provides access to user_wallets storage. The storage layer
// holds no uniqueness constraint; (user_id, wallet_address) uniqueness is
// enforced by the wallet service.
type WalletStore interface {
	// Add links a wallet.
	Add(ctx context.Context, w *domain.UserWallet) error

	// GetAll retrieves every linked wallet in registration order.
	GetAll(ctx context.Context) ([]*domain.UserWallet, error)

	// GetByUserID retrieves all wallets linked to an internal user ID.
	GetByUserID(ctx context.Context, userID string) ([]*domain.UserWallet, error)

	// GetByTelegramUserID retrieves all wallets linked to a messaging ID.
	GetByTelegramUserID(ctx context.Context, telegramUserID string) ([]*domain.UserWallet, error)

	// GetTelegramIDByWallet resolves a wallet address to the messaging ID
	// that linked it. Returns ErrNotFound if not exists.
	GetTelegramIDByWallet(ctx context.Context, walletAddress string) (string, error)

	// Remove unlinks one wallet from a user.
	Remove(ctx context.Context, userID, walletAddress string) error

	// RemoveAll deletes every link. Administrative.
	RemoveAll(ctx context.Context) error
}
