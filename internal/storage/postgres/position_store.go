package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `wallet_address, protocol_name, coin_name, mint_address, amount, start_apy, start_time, current_position, latest_apy`

// Upsert inserts the position or overwrites every field of the existing row
// for (wallet_address, mint_address). Conflict resolution happens inside
// the database; concurrent upserts to the same key never surface an error.
func (s *PositionStore) Upsert(ctx context.Context, p *domain.WalletPosition) error {
	if p == nil || p.WalletAddress == "" || p.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO current_positions (` + positionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (wallet_address, mint_address) DO UPDATE SET
			protocol_name    = EXCLUDED.protocol_name,
			coin_name        = EXCLUDED.coin_name,
			amount           = EXCLUDED.amount,
			start_apy        = EXCLUDED.start_apy,
			start_time       = EXCLUDED.start_time,
			current_position = EXCLUDED.current_position,
			latest_apy       = EXCLUDED.latest_apy
	`

	_, err := s.pool.Exec(ctx, query,
		p.WalletAddress,
		p.ProtocolName,
		p.CoinName,
		p.MintAddress,
		p.Amount,
		p.StartAPY,
		p.StartTime,
		p.CurrentPosition,
		p.LatestAPY,
	)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}
	return nil
}

// GetActive retrieves all positions for a wallet.
func (s *PositionStore) GetActive(ctx context.Context, walletAddress string) ([]*domain.WalletPosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM current_positions
		WHERE wallet_address = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("get active positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// GetOne retrieves the position for (wallet, mint, protocol).
// Returns ErrNotFound if not exists.
func (s *PositionStore) GetOne(ctx context.Context, walletAddress, mintAddress, protocolName string) (*domain.WalletPosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM current_positions
		WHERE wallet_address = $1 AND mint_address = $2 AND protocol_name = $3
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, walletAddress, mintAddress, protocolName)
	p, err := scanPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position: %w", err)
	}
	return p, nil
}

// Remove deletes the position for (wallet, mint).
func (s *PositionStore) Remove(ctx context.Context, walletAddress, mintAddress string) error {
	query := `
		DELETE FROM current_positions
		WHERE wallet_address = $1 AND mint_address = $2
	`

	if _, err := s.pool.Exec(ctx, query, walletAddress, mintAddress); err != nil {
		return fmt.Errorf("remove position: %w", err)
	}
	return nil
}

// RemoveAll deletes every position.
func (s *PositionStore) RemoveAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM current_positions`); err != nil {
		return fmt.Errorf("remove all positions: %w", err)
	}
	return nil
}

// scanPosition scans a single row into a WalletPosition.
func scanPosition(row pgx.Row) (*domain.WalletPosition, error) {
	var p domain.WalletPosition

	err := row.Scan(
		&p.WalletAddress,
		&p.ProtocolName,
		&p.CoinName,
		&p.MintAddress,
		&p.Amount,
		&p.StartAPY,
		&p.StartTime,
		&p.CurrentPosition,
		&p.LatestAPY,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// scanPositions scans multiple rows into a slice of WalletPosition.
func scanPositions(rows pgx.Rows) ([]*domain.WalletPosition, error) {
	var positions []*domain.WalletPosition

	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}

	return positions, nil
}
