package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

// RuleStore implements storage.RuleStore using PostgreSQL.
type RuleStore struct {
	pool *Pool
}

// NewRuleStore creates a new RuleStore.
func NewRuleStore(pool *Pool) *RuleStore {
	return &RuleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RuleStore = (*RuleStore)(nil)

// Save appends a rule. Returns ErrDuplicateKey if the rule ID exists.
func (s *RuleStore) Save(ctx context.Context, r *domain.ProtocolRule) error {
	if r == nil || r.ID == "" || r.ProtocolName == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO protocol_rules (id, protocol_name, rule, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query, r.ID, r.ProtocolName, r.Rule, r.Confidence, r.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

// GetByProtocol retrieves up to RuleWindow most recent rules, newest first.
func (s *RuleStore) GetByProtocol(ctx context.Context, protocolName string) ([]*domain.ProtocolRule, error) {
	query := `
		SELECT id, protocol_name, rule, confidence, created_at
		FROM protocol_rules
		WHERE protocol_name = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, protocolName, storage.RuleWindow)
	if err != nil {
		return nil, fmt.Errorf("get rules by protocol: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// GetByProtocolWithConfidence retrieves all rules with confidence >=
// minConfidence. No window cap is applied.
func (s *RuleStore) GetByProtocolWithConfidence(ctx context.Context, protocolName string, minConfidence int) ([]*domain.ProtocolRule, error) {
	query := `
		SELECT id, protocol_name, rule, confidence, created_at
		FROM protocol_rules
		WHERE protocol_name = $1 AND confidence >= $2
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.pool.Query(ctx, query, protocolName, minConfidence)
	if err != nil {
		return nil, fmt.Errorf("get rules by confidence: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// DropAll deletes every rule.
func (s *RuleStore) DropAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM protocol_rules`); err != nil {
		return fmt.Errorf("drop all rules: %w", err)
	}
	return nil
}

// scanRules scans multiple rows into a slice of ProtocolRule.
func scanRules(rows pgx.Rows) ([]*domain.ProtocolRule, error) {
	var rules []*domain.ProtocolRule

	for rows.Next() {
		var r domain.ProtocolRule

		err := rows.Scan(&r.ID, &r.ProtocolName, &r.Rule, &r.Confidence, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan rule row: %w", err)
		}

		rules = append(rules, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule rows: %w", err)
	}

	return rules, nil
}
