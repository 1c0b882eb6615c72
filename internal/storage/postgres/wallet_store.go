package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

// WalletStore implements storage.WalletStore using PostgreSQL.
type WalletStore struct {
	pool *Pool
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(pool *Pool) *WalletStore {
	return &WalletStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// Add links a wallet. Uniqueness of (user_id, wallet_address) is the wallet
// service's concern, not a storage constraint.
func (s *WalletStore) Add(ctx context.Context, w *domain.UserWallet) error {
	if w == nil || w.UserID == "" || w.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO user_wallets (user_id, telegram_user_id, wallet_address, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, w.UserID, w.TelegramUserID, w.WalletAddress, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetAll retrieves every linked wallet in registration order.
func (s *WalletStore) GetAll(ctx context.Context) ([]*domain.UserWallet, error) {
	return s.query(ctx, `
		SELECT user_id, telegram_user_id, wallet_address, created_at
		FROM user_wallets
		ORDER BY id ASC
	`)
}

// GetByUserID retrieves all wallets linked to an internal user ID.
func (s *WalletStore) GetByUserID(ctx context.Context, userID string) ([]*domain.UserWallet, error) {
	return s.query(ctx, `
		SELECT user_id, telegram_user_id, wallet_address, created_at
		FROM user_wallets
		WHERE user_id = $1
		ORDER BY id ASC
	`, userID)
}

// GetByTelegramUserID retrieves all wallets linked to a messaging ID.
func (s *WalletStore) GetByTelegramUserID(ctx context.Context, telegramUserID string) ([]*domain.UserWallet, error) {
	return s.query(ctx, `
		SELECT user_id, telegram_user_id, wallet_address, created_at
		FROM user_wallets
		WHERE telegram_user_id = $1
		ORDER BY id ASC
	`, telegramUserID)
}

// GetTelegramIDByWallet resolves a wallet address to the messaging ID that
// linked it. Returns ErrNotFound if not exists.
func (s *WalletStore) GetTelegramIDByWallet(ctx context.Context, walletAddress string) (string, error) {
	query := `
		SELECT telegram_user_id FROM user_wallets
		WHERE wallet_address = $1
		LIMIT 1
	`

	var id string
	if err := s.pool.QueryRow(ctx, query, walletAddress).Scan(&id); err != nil {
		if isNotFoundError(err) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get telegram id by wallet: %w", err)
	}
	return id, nil
}

// Remove unlinks one wallet from a user.
func (s *WalletStore) Remove(ctx context.Context, userID, walletAddress string) error {
	query := `
		DELETE FROM user_wallets
		WHERE user_id = $1 AND wallet_address = $2
	`

	if _, err := s.pool.Exec(ctx, query, userID, walletAddress); err != nil {
		return fmt.Errorf("remove wallet: %w", err)
	}
	return nil
}

// RemoveAll deletes every link.
func (s *WalletStore) RemoveAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM user_wallets`); err != nil {
		return fmt.Errorf("remove all wallets: %w", err)
	}
	return nil
}

func (s *WalletStore) query(ctx context.Context, query string, args ...any) ([]*domain.UserWallet, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get wallets: %w", err)
	}
	defer rows.Close()

	return scanWallets(rows)
}

// scanWallets scans multiple rows into a slice of UserWallet.
func scanWallets(rows pgx.Rows) ([]*domain.UserWallet, error) {
	var wallets []*domain.UserWallet

	for rows.Next() {
		var w domain.UserWallet

		err := rows.Scan(&w.UserID, &w.TelegramUserID, &w.WalletAddress, &w.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}

		wallets = append(wallets, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}

	return wallets, nil
}
