package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

// PredictionStore implements storage.PredictionStore using PostgreSQL.
// The forecast series is stored as JSONB; the row key is
// (protocol_name, mint_address) and saving replaces the prior forecast.
type PredictionStore struct {
	pool *Pool
}

// NewPredictionStore creates a new PredictionStore.
func NewPredictionStore(pool *Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PredictionStore = (*PredictionStore)(nil)

// Save stores the forecast, replacing any prior one for the same key.
func (s *PredictionStore) Save(ctx context.Context, p *domain.ProtocolPredictedAPY) error {
	if p == nil || p.ProtocolName == "" || p.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	points, err := json.Marshal(p.Points)
	if err != nil {
		return fmt.Errorf("marshal prediction points: %w", err)
	}

	query := `
		INSERT INTO protocol_predicted_apy (protocol_name, mint_address, coin_name, predicted_apy, time_stamp)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (protocol_name, mint_address) DO UPDATE SET
			coin_name     = EXCLUDED.coin_name,
			predicted_apy = EXCLUDED.predicted_apy,
			time_stamp    = EXCLUDED.time_stamp
	`

	_, err = s.pool.Exec(ctx, query, p.ProtocolName, p.MintAddress, p.CoinName, points, p.Timestamp)
	if err != nil {
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

// GetLatest retrieves the stored forecast for (protocol, mint).
// Returns ErrNotFound if not exists.
func (s *PredictionStore) GetLatest(ctx context.Context, protocolName, mintAddress string) (*domain.ProtocolPredictedAPY, error) {
	query := `
		SELECT protocol_name, mint_address, coin_name, predicted_apy, time_stamp
		FROM protocol_predicted_apy
		WHERE protocol_name = $1 AND mint_address = $2
	`

	row := s.pool.QueryRow(ctx, query, protocolName, mintAddress)
	p, err := scanPrediction(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest prediction: %w", err)
	}
	return p, nil
}

// GetAllByProtocol retrieves all forecasts for a protocol.
func (s *PredictionStore) GetAllByProtocol(ctx context.Context, protocolName string) ([]*domain.ProtocolPredictedAPY, error) {
	query := `
		SELECT protocol_name, mint_address, coin_name, predicted_apy, time_stamp
		FROM protocol_predicted_apy
		WHERE protocol_name = $1
		ORDER BY mint_address ASC
	`

	rows, err := s.pool.Query(ctx, query, protocolName)
	if err != nil {
		return nil, fmt.Errorf("get predictions by protocol: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// GetAll retrieves every stored forecast.
func (s *PredictionStore) GetAll(ctx context.Context) ([]*domain.ProtocolPredictedAPY, error) {
	query := `
		SELECT protocol_name, mint_address, coin_name, predicted_apy, time_stamp
		FROM protocol_predicted_apy
		ORDER BY protocol_name ASC, mint_address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// scanPrediction scans a single row into a ProtocolPredictedAPY.
func scanPrediction(row pgx.Row) (*domain.ProtocolPredictedAPY, error) {
	var p domain.ProtocolPredictedAPY
	var points []byte

	err := row.Scan(&p.ProtocolName, &p.MintAddress, &p.CoinName, &points, &p.Timestamp)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(points, &p.Points); err != nil {
		return nil, fmt.Errorf("unmarshal prediction points: %w", err)
	}
	return &p, nil
}

// scanPredictions scans multiple rows into a slice of ProtocolPredictedAPY.
func scanPredictions(rows pgx.Rows) ([]*domain.ProtocolPredictedAPY, error) {
	var predictions []*domain.ProtocolPredictedAPY

	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction row: %w", err)
		}
		predictions = append(predictions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prediction rows: %w", err)
	}

	return predictions, nil
}
