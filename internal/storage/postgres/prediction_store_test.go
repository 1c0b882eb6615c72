package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

func forecastFor(protocol, mint string, ts int64, apys ...float64) *domain.ProtocolPredictedAPY {
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

func TestPredictionStore_SaveAndGetLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPredictionStore(pool)
	ctx := context.Background()

	forecast := forecastFor("KAMINO", "MintUSDC", 1700000000000, 3.0, 3.2, 3.4)
	require.NoError(t, store.Save(ctx, forecast))

	retrieved, err := store.GetLatest(ctx, "KAMINO", "MintUSDC")
	require.NoError(t, err)

	assert.Equal(t, forecast.ProtocolName, retrieved.ProtocolName)
	assert.Equal(t, forecast.MintAddress, retrieved.MintAddress)
	assert.Equal(t, forecast.CoinName, retrieved.CoinName)
	assert.Equal(t, forecast.Timestamp, retrieved.Timestamp)
	require.Len(t, retrieved.Points, 3)
	assert.Equal(t, forecast.Points, retrieved.Points)
}

func TestPredictionStore_SaveOverwrites(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPredictionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, forecastFor("KAMINO", "MintUSDC", 1700000000000, 3.0)))
	require.NoError(t, store.Save(ctx, forecastFor("KAMINO", "MintUSDC", 1700000600000, 4.0, 4.1)))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "saving for the same (protocol, mint) must replace, not append")

	assert.Equal(t, int64(1700000600000), all[0].Timestamp)
	require.Len(t, all[0].Points, 2)
	assert.Equal(t, 4.0, all[0].Points[0].APY)
}

func TestPredictionStore_GetLatestNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPredictionStore(pool)
	ctx := context.Background()

	_, err := store.GetLatest(ctx, "KAMINO", "NoSuchMint")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPredictionStore_GetAllByProtocol(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPredictionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, forecastFor("KAMINO", "MintUSDC", 1700000000000, 3.0)))
	require.NoError(t, store.Save(ctx, forecastFor("KAMINO", "MintUSDT", 1700000000000, 3.1)))
	require.NoError(t, store.Save(ctx, forecastFor("SOLEND", "MintUSDC", 1700000000000, 2.9)))

	forecasts, err := store.GetAllByProtocol(ctx, "KAMINO")
	require.NoError(t, err)
	require.Len(t, forecasts, 2)
	for _, f := range forecasts {
		assert.Equal(t, "KAMINO", f.ProtocolName)
	}
}
