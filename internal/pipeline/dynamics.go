package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/llm"
)

// Rules below this confidence are not fed into analysis and forecasting.
const minRuleConfidence = 80

// DynamicsResult reports one pool-dynamics analysis pass. Nothing is
// persisted; the analysis text is the product.
type DynamicsResult struct {
	Summary  string
	Analyses []llm.PoolAnalysis
}

// RunDynamics analyzes the recent history of every (protocol, coin) pool
// and optionally posts the insights.
func (p *Pipelines) RunDynamics(ctx context.Context, opts Options) (*DynamicsResult, error) {
	res := &DynamicsResult{}

	for _, protocol := range p.registry.Protocols() {
		rules, err := p.rules.GetByProtocolWithConfidence(ctx, string(protocol), minRuleConfidence)
		if err != nil {
			return nil, fmt.Errorf("load rules for %s: %w", protocol, err)
		}

		for _, coin := range domain.SupportedCoinsFor(p.coins, protocol) {
			history, err := p.snapshots.GetByMint(ctx, string(protocol), coin.Mint)
			if err != nil {
				return nil, fmt.Errorf("load history for %s/%s: %w", protocol, coin.Name, err)
			}
			if len(history) == 0 {
				p.logf(opts, "dynamics: no history for %s/%s yet, skipping", protocol, coin.Name)
				continue
			}
			current := history[0]

			prompt, err := llm.BuildDynamicsPrompt(string(protocol), coin.Name, history, current, rules)
			if err != nil {
				return nil, err
			}

			text, err := p.generator.Generate(ctx, llm.SystemPrompt, prompt)
			if err != nil {
				p.logger.Printf("[pipeline] dynamics: generation for %s/%s failed: %v", protocol, coin.Name, err)
				continue
			}

			analyses, err := llm.ParsePoolAnalyses(text)
			if err != nil {
				if errors.Is(err, llm.ErrMalformedOutput) {
					p.logger.Printf("[pipeline] dynamics: discarding output for %s/%s: %v", protocol, coin.Name, err)
					continue
				}
				return nil, err
			}

			for _, a := range analyses {
				res.Analyses = append(res.Analyses, a)
				p.post(opts, strings.Join(a.Insights, "\n"))
				p.logf(opts, "dynamics: %s/%s: %s", protocol, coin.Name, a.APYChange)
			}
		}
	}

	res.Summary = fmt.Sprintf("analyzed %d pools", len(res.Analyses))
	return res, nil
}
