package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

func predictionAt(protocol, mint string, ts int64, apys ...float64) *domain.ProtocolPredictedAPY {
	points := make([]domain.PredictedAPYPoint, 0, len(apys))
	for i, apy := range apys {
		points = append(points, domain.PredictedAPYPoint{Timestamp: ts + int64(i)*3600_000, APY: apy})
	}
	return &domain.ProtocolPredictedAPY{
		ProtocolName: protocol,
		MintAddress:  mint,
		CoinName:     "USDC",
		Points:       points,
		Timestamp:    ts,
	}
}

func TestPredictionStore_SaveOverwrites(t *testing.T) {
	store := NewPredictionStore()
	ctx := context.Background()

	if err := store.Save(ctx, predictionAt("KAMINO", "mint1", 1000, 3.0, 3.1)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, predictionAt("KAMINO", "mint1", 2000, 4.0, 4.2, 4.4)); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly 1 stored forecast, got %d", len(all))
	}

	got := all[0]
	if got.Timestamp != 2000 {
		t.Errorf("Timestamp = %d, want 2000", got.Timestamp)
	}
	if len(got.Points) != 3 || got.Points[0].APY != 4.0 {
		t.Errorf("expected second payload's points, got %+v", got.Points)
	}
}

func TestPredictionStore_GetLatest(t *testing.T) {
	store := NewPredictionStore()
	ctx := context.Background()

	if err := store.Save(ctx, predictionAt("KAMINO", "mint1", 1000, 3.0)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.GetLatest(ctx, "KAMINO", "mint1")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if got.CoinName != "USDC" {
		t.Errorf("CoinName = %s, want USDC", got.CoinName)
	}

	_, err = store.GetLatest(ctx, "KAMINO", "mint2")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPredictionStore_GetAllByProtocol(t *testing.T) {
	store := NewPredictionStore()
	ctx := context.Background()

	if err := store.Save(ctx, predictionAt("KAMINO", "mint2", 1000, 3.0)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, predictionAt("KAMINO", "mint1", 1000, 3.0)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, predictionAt("SOLEND", "mint1", 1000, 3.0)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.GetAllByProtocol(ctx, "KAMINO")
	if err != nil {
		t.Fatalf("GetAllByProtocol failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 forecasts, got %d", len(got))
	}
	if got[0].MintAddress != "mint1" || got[1].MintAddress != "mint2" {
		t.Errorf("expected mint order mint1, mint2; got %s, %s", got[0].MintAddress, got[1].MintAddress)
	}
}

func TestPredictionStore_ReturnedCopyIsolated(t *testing.T) {
	store := NewPredictionStore()
	ctx := context.Background()

	if err := store.Save(ctx, predictionAt("KAMINO", "mint1", 1000, 3.0)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.GetLatest(ctx, "KAMINO", "mint1")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	got.Points[0].APY = 99

	again, err := store.GetLatest(ctx, "KAMINO", "mint1")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if again.Points[0].APY != 3.0 {
		t.Errorf("stored forecast mutated through returned copy: %v", again.Points[0].APY)
	}
}
