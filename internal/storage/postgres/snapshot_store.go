package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `protocol, coin_name, mint_address, apy, lend_liquidity, borrow_liquidity, utilization_rate, borrow_cap, supply_cap, ltv, update_time`

// Put appends one observation. Duplicates are allowed.
func (s *SnapshotStore) Put(ctx context.Context, snap *domain.ReserveSnapshot) error {
	if snap == nil || snap.Protocol == "" || snap.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO reserve_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		snap.Protocol,
		snap.CoinName,
		snap.MintAddress,
		snap.APY,
		snap.LendLiquidity,
		snap.BorrowLiquidity,
		snap.UtilizationRate,
		snap.BorrowCap,
		snap.SupplyCap,
		snap.LTV,
		snap.UpdateTime,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// GetByMint retrieves up to SnapshotMintWindow most recent snapshots for
// (protocol, mint), newest first.
func (s *SnapshotStore) GetByMint(ctx context.Context, protocol, mint string) ([]*domain.ReserveSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM reserve_snapshots
		WHERE protocol = $1 AND mint_address = $2
		ORDER BY update_time DESC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, protocol, mint, storage.SnapshotMintWindow)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by mint: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByProtocol retrieves up to SnapshotProtocolWindow most recent snapshots
// for a protocol across all mints, newest first.
func (s *SnapshotStore) GetByProtocol(ctx context.Context, protocol string) ([]*domain.ReserveSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM reserve_snapshots
		WHERE protocol = $1
		ORDER BY update_time DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, protocol, storage.SnapshotProtocolWindow)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by protocol: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// DeleteByMint removes all snapshots for a mint.
func (s *SnapshotStore) DeleteByMint(ctx context.Context, mint string) error {
	query := `DELETE FROM reserve_snapshots WHERE mint_address = $1`

	if _, err := s.pool.Exec(ctx, query, mint); err != nil {
		return fmt.Errorf("delete snapshots by mint: %w", err)
	}
	return nil
}

// scanSnapshots scans multiple rows into a slice of ReserveSnapshot.
func scanSnapshots(rows pgx.Rows) ([]*domain.ReserveSnapshot, error) {
	var snapshots []*domain.ReserveSnapshot

	for rows.Next() {
		var snap domain.ReserveSnapshot

		err := rows.Scan(
			&snap.Protocol,
			&snap.CoinName,
			&snap.MintAddress,
			&snap.APY,
			&snap.LendLiquidity,
			&snap.BorrowLiquidity,
			&snap.UtilizationRate,
			&snap.BorrowCap,
			&snap.SupplyCap,
			&snap.LTV,
			&snap.UpdateTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}
