package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

func walletFor(userID, tgID, address string) *domain.UserWallet {
	return &domain.UserWallet{
		UserID:         userID,
		TelegramUserID: tgID,
		WalletAddress:  address,
		CreatedAt:      1000,
	}
}

func TestWalletStore_RegistrationOrder(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	for _, addr := range []string{"walletC", "walletA", "walletB"} {
		if err := store.Add(ctx, walletFor("user1", "tg1", addr)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 wallets, got %d", len(got))
	}
	for i, want := range []string{"walletC", "walletA", "walletB"} {
		if got[i].WalletAddress != want {
			t.Errorf("wallet %d = %s, want %s", i, got[i].WalletAddress, want)
		}
	}
}

func TestWalletStore_GetByUserID(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	if err := store.Add(ctx, walletFor("user1", "tg1", "wallet1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, walletFor("user2", "tg2", "wallet2")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, walletFor("user1", "tg1", "wallet3")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := store.GetByUserID(ctx, "user1")
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 wallets for user1, got %d", len(got))
	}

	got, err = store.GetByTelegramUserID(ctx, "tg2")
	if err != nil {
		t.Fatalf("GetByTelegramUserID failed: %v", err)
	}
	if len(got) != 1 || got[0].WalletAddress != "wallet2" {
		t.Errorf("expected wallet2 for tg2, got %+v", got)
	}
}

func TestWalletStore_GetTelegramIDByWallet(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	if err := store.Add(ctx, walletFor("user1", "tg1", "wallet1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	tgID, err := store.GetTelegramIDByWallet(ctx, "wallet1")
	if err != nil {
		t.Fatalf("GetTelegramIDByWallet failed: %v", err)
	}
	if tgID != "tg1" {
		t.Errorf("tgID = %s, want tg1", tgID)
	}

	_, err = store.GetTelegramIDByWallet(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWalletStore_Remove(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	if err := store.Add(ctx, walletFor("user1", "tg1", "wallet1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, walletFor("user1", "tg1", "wallet2")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := store.Remove(ctx, "user1", "wallet1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	got, err := store.GetByUserID(ctx, "user1")
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if len(got) != 1 || got[0].WalletAddress != "wallet2" {
		t.Errorf("expected only wallet2 to remain, got %+v", got)
	}

	// removing a link that does not exist is a no-op
	if err := store.Remove(ctx, "user1", "missing"); err != nil {
		t.Fatalf("Remove of missing link failed: %v", err)
	}
}

func TestWalletStore_RemoveAll(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	if err := store.Add(ctx, walletFor("user1", "tg1", "wallet1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.RemoveAll(ctx); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty store, got %d wallets", len(got))
	}
}
