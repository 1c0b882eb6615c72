package memory

import (
	"context"
	"testing"

	"github.com/tinftsol/lenda/internal/domain"
)

func snapshotAt(protocol, mint string, updateTime int64, apy float64) *domain.ReserveSnapshot {
	return &domain.ReserveSnapshot{
		Protocol:    protocol,
		CoinName:    "USDC",
		MintAddress: mint,
		APY:         apy,
		UpdateTime:  updateTime,
	}
}

func TestSnapshotStore_PutAllowsDuplicates(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snap := snapshotAt("KAMINO", "mint1", 1000, 3.5)
	if err := store.Put(ctx, snap); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, snap); err != nil {
		t.Fatalf("duplicate Put failed: %v", err)
	}

	result, err := store.GetByMint(ctx, "KAMINO", "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected 2 rows, got %d", len(result))
	}
}

func TestSnapshotStore_GetByMintWindow(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	// 15 rows; only the 10 most recent must come back, newest first.
	for i := 0; i < 15; i++ {
		snap := snapshotAt("KAMINO", "mint1", int64(1000+i), float64(i))
		if err := store.Put(ctx, snap); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	result, err := store.GetByMint(ctx, "KAMINO", "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}

	if len(result) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(result))
	}
	for i, snap := range result {
		want := int64(1014 - i)
		if snap.UpdateTime != want {
			t.Errorf("row %d: UpdateTime = %d, want %d", i, snap.UpdateTime, want)
		}
	}
}

func TestSnapshotStore_GetByMintFiltersProtocol(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if err := store.Put(ctx, snapshotAt("KAMINO", "mint1", 1000, 3.0)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, snapshotAt("SOLEND", "mint1", 1001, 4.0)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	result, err := store.GetByMint(ctx, "KAMINO", "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(result) != 1 || result[0].Protocol != "KAMINO" {
		t.Errorf("expected only the KAMINO row, got %+v", result)
	}
}

func TestSnapshotStore_GetByProtocolWindow(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	// 25 rows across two mints; the protocol window caps at 20.
	for i := 0; i < 25; i++ {
		mint := "mint1"
		if i%2 == 0 {
			mint = "mint2"
		}
		if err := store.Put(ctx, snapshotAt("KAMINO", mint, int64(1000+i), 3.0)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	result, err := store.GetByProtocol(ctx, "KAMINO")
	if err != nil {
		t.Fatalf("GetByProtocol failed: %v", err)
	}

	if len(result) != 20 {
		t.Fatalf("expected 20 rows, got %d", len(result))
	}
	if result[0].UpdateTime != 1024 {
		t.Errorf("newest row UpdateTime = %d, want 1024", result[0].UpdateTime)
	}
	if result[19].UpdateTime != 1005 {
		t.Errorf("oldest windowed row UpdateTime = %d, want 1005", result[19].UpdateTime)
	}
}

func TestSnapshotStore_DeleteByMint(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if err := store.Put(ctx, snapshotAt("KAMINO", "mint1", 1000, 3.0)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, snapshotAt("KAMINO", "mint2", 1001, 4.0)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := store.DeleteByMint(ctx, "mint1"); err != nil {
		t.Fatalf("DeleteByMint failed: %v", err)
	}

	gone, err := store.GetByMint(ctx, "KAMINO", "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(gone) != 0 {
		t.Errorf("expected mint1 rows gone, got %d", len(gone))
	}

	kept, err := store.GetByMint(ctx, "KAMINO", "mint2")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("expected mint2 row kept, got %d", len(kept))
	}
}
