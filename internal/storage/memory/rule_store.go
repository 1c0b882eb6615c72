package memory

import (
	"context"
	"sync"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

// RuleStore is an in-memory implementation of storage.RuleStore.
type RuleStore struct {
	mu    sync.RWMutex
	rules []*domain.ProtocolRule // append order
}

// NewRuleStore creates a new in-memory rule store.
func NewRuleStore() *RuleStore {
	return &RuleStore{}
}

// Save appends a rule. Returns ErrDuplicateKey if the rule ID exists.
func (s *RuleStore) Save(_ context.Context, r *domain.ProtocolRule) error {
	if r == nil || r.ID == "" || r.ProtocolName == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.rules {
		if existing.ID == r.ID {
			return storage.ErrDuplicateKey
		}
	}

	ruleCopy := *r
	s.rules = append(s.rules, &ruleCopy)
	return nil
}

// GetByProtocol retrieves up to RuleWindow most recent rules, newest first.
func (s *RuleStore) GetByProtocol(_ context.Context, protocolName string) ([]*domain.ProtocolRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// newest first = reverse append order
	var out []*domain.ProtocolRule
	for i := len(s.rules) - 1; i >= 0 && len(out) < storage.RuleWindow; i-- {
		if s.rules[i].ProtocolName != protocolName {
			continue
		}
		ruleCopy := *s.rules[i]
		out = append(out, &ruleCopy)
	}
	return out, nil
}

// GetByProtocolWithConfidence retrieves all rules with confidence >=
// minConfidence. No window cap is applied.
func (s *RuleStore) GetByProtocolWithConfidence(_ context.Context, protocolName string, minConfidence int) ([]*domain.ProtocolRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ProtocolRule
	for i := len(s.rules) - 1; i >= 0; i-- {
		if s.rules[i].ProtocolName != protocolName || s.rules[i].Confidence < minConfidence {
			continue
		}
		ruleCopy := *s.rules[i]
		out = append(out, &ruleCopy)
	}
	return out, nil
}

// DropAll deletes every rule.
func (s *RuleStore) DropAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules = nil
	return nil
}

var _ storage.RuleStore = (*RuleStore)(nil)
