package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

func snapshotRow(protocol, mint string, updateTime int64) *domain.ReserveSnapshot {
	return &domain.ReserveSnapshot{
		Protocol:        protocol,
		CoinName:        "USDC",
		MintAddress:     mint,
		APY:             3.5,
		LendLiquidity:   1_000_000,
		BorrowLiquidity: 400_000,
		UtilizationRate: 0.4,
		BorrowCap:       2_000_000,
		SupplyCap:       5_000_000,
		LTV:             0.8,
		UpdateTime:      updateTime,
	}
}

func TestSnapshotStore_PutAllowsDuplicates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	snap := snapshotRow("KAMINO", "MintUSDC", 1700000000000)
	require.NoError(t, store.Put(ctx, snap))
	require.NoError(t, store.Put(ctx, snap))

	rows, err := store.GetByMint(ctx, "KAMINO", "MintUSDC")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSnapshotStore_GetByMintWindow(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	base := int64(1700000000000)
	for i := 0; i < storage.SnapshotMintWindow+5; i++ {
		require.NoError(t, store.Put(ctx, snapshotRow("KAMINO", "MintUSDC", base+int64(i))))
	}

	rows, err := store.GetByMint(ctx, "KAMINO", "MintUSDC")
	require.NoError(t, err)
	require.Len(t, rows, storage.SnapshotMintWindow)

	// newest first
	for i, row := range rows {
		assert.Equal(t, base+int64(storage.SnapshotMintWindow+4-i), row.UpdateTime)
	}
}

func TestSnapshotStore_GetByProtocolWindow(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	base := int64(1700000000000)
	for i := 0; i < storage.SnapshotProtocolWindow+5; i++ {
		mint := "MintUSDC"
		if i%2 == 0 {
			mint = "MintUSDT"
		}
		require.NoError(t, store.Put(ctx, snapshotRow("KAMINO", mint, base+int64(i))))
	}
	// different protocol must not leak into the window
	require.NoError(t, store.Put(ctx, snapshotRow("SOLEND", "MintUSDC", base+100)))

	rows, err := store.GetByProtocol(ctx, "KAMINO")
	require.NoError(t, err)
	require.Len(t, rows, storage.SnapshotProtocolWindow)

	for _, row := range rows {
		assert.Equal(t, "KAMINO", row.Protocol)
	}
	assert.Equal(t, base+int64(storage.SnapshotProtocolWindow+4), rows[0].UpdateTime)
}

func TestSnapshotStore_DeleteByMint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, snapshotRow("KAMINO", "MintUSDC", 1700000000000)))
	require.NoError(t, store.Put(ctx, snapshotRow("KAMINO", "MintUSDT", 1700000000000)))

	require.NoError(t, store.DeleteByMint(ctx, "MintUSDC"))

	rows, err := store.GetByMint(ctx, "KAMINO", "MintUSDC")
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = store.GetByMint(ctx, "KAMINO", "MintUSDT")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSnapshotStore_PutInvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	err := store.Put(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.Put(ctx, &domain.ReserveSnapshot{Protocol: "KAMINO"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
