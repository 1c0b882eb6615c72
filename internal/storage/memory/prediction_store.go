package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

type predictionKey struct {
	protocol string
	mint     string
}

// PredictionStore is an in-memory implementation of
// storage.PredictionStore. Saving overwrites the prior forecast for the
// same key.
type PredictionStore struct {
	mu          sync.RWMutex
	predictions map[predictionKey]*domain.ProtocolPredictedAPY
}

// NewPredictionStore creates a new in-memory prediction store.
func NewPredictionStore() *PredictionStore {
	return &PredictionStore{
		predictions: make(map[predictionKey]*domain.ProtocolPredictedAPY),
	}
}

// Save stores the forecast, replacing any prior one for the same key.
func (s *PredictionStore) Save(_ context.Context, p *domain.ProtocolPredictedAPY) error {
	if p == nil || p.ProtocolName == "" || p.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.predictions[predictionKey{protocol: p.ProtocolName, mint: p.MintAddress}] = copyPrediction(p)
	return nil
}

// GetLatest retrieves the stored forecast for (protocol, mint).
// Returns ErrNotFound if not exists.
func (s *PredictionStore) GetLatest(_ context.Context, protocolName, mintAddress string) (*domain.ProtocolPredictedAPY, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.predictions[predictionKey{protocol: protocolName, mint: mintAddress}]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyPrediction(p), nil
}

// GetAllByProtocol retrieves all forecasts for a protocol, ordered by mint.
func (s *PredictionStore) GetAllByProtocol(_ context.Context, protocolName string) ([]*domain.ProtocolPredictedAPY, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ProtocolPredictedAPY
	for key, p := range s.predictions {
		if key.protocol == protocolName {
			out = append(out, copyPrediction(p))
		}
	}
	sortPredictions(out)
	return out, nil
}

// GetAll retrieves every stored forecast, ordered by protocol then mint.
func (s *PredictionStore) GetAll(_ context.Context) ([]*domain.ProtocolPredictedAPY, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ProtocolPredictedAPY
	for _, p := range s.predictions {
		out = append(out, copyPrediction(p))
	}
	sortPredictions(out)
	return out, nil
}

func copyPrediction(p *domain.ProtocolPredictedAPY) *domain.ProtocolPredictedAPY {
	predCopy := *p
	predCopy.Points = append([]domain.PredictedAPYPoint(nil), p.Points...)
	return &predCopy
}

func sortPredictions(ps []*domain.ProtocolPredictedAPY) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].ProtocolName != ps[j].ProtocolName {
			return ps[i].ProtocolName < ps[j].ProtocolName
		}
		return ps[i].MintAddress < ps[j].MintAddress
	})
}

var _ storage.PredictionStore = (*PredictionStore)(nil)
