package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/llm"
	"github.com/tinftsol/lenda/internal/observability"
)

// RulesResult reports one rule-derivation pass.
type RulesResult struct {
	Summary string
	Created []*domain.ProtocolRule
}

// RunRules derives new behaviour rules per protocol from the recent
// snapshot history. Protocols without history are skipped; malformed
// generation output is discarded whole for that protocol.
func (p *Pipelines) RunRules(ctx context.Context, opts Options) (*RulesResult, error) {
	res := &RulesResult{}

	for _, protocol := range p.registry.Protocols() {
		history, err := p.snapshots.GetByProtocol(ctx, string(protocol))
		if err != nil {
			return nil, fmt.Errorf("load history for %s: %w", protocol, err)
		}
		if len(history) == 0 {
			p.logf(opts, "rules: no history for %s yet, skipping", protocol)
			continue
		}

		existing, err := p.rules.GetByProtocol(ctx, string(protocol))
		if err != nil {
			return nil, fmt.Errorf("load existing rules for %s: %w", protocol, err)
		}

		prompt, err := llm.BuildRulesPrompt(string(protocol), history, existing)
		if err != nil {
			return nil, err
		}

		text, err := p.generator.Generate(ctx, llm.SystemPrompt, prompt)
		if err != nil {
			p.logger.Printf("[pipeline] rules: generation for %s failed: %v", protocol, err)
			continue
		}

		generated, err := llm.ParseRules(text)
		if err != nil {
			if errors.Is(err, llm.ErrMalformedOutput) {
				p.logger.Printf("[pipeline] rules: discarding output for %s: %v", protocol, err)
				continue
			}
			return nil, err
		}

		now := p.clock().UnixMilli()
		for _, g := range generated {
			rule := &domain.ProtocolRule{
				ID:           uuid.NewString(),
				ProtocolName: string(protocol),
				Rule:         g.Rule,
				Confidence:   g.Confidence,
				CreatedAt:    now,
			}
			if err := p.rules.Save(ctx, rule); err != nil {
				p.logger.Printf("[pipeline] rules: save for %s failed: %v", protocol, err)
				continue
			}
			observability.RecordRuleCreated()
			res.Created = append(res.Created, rule)
			p.logf(opts, "rules: %s confidence=%d: %s", protocol, rule.Confidence, rule.Rule)
		}
	}

	if len(res.Created) > 0 {
		p.post(opts, res.Created[0].Rule)
	}

	res.Summary = fmt.Sprintf("created %d rules", len(res.Created))
	return res, nil
}
