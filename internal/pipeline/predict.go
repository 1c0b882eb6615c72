package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/llm"
	"github.com/tinftsol/lenda/internal/market"
	"github.com/tinftsol/lenda/internal/observability"
)

// PredictRequest names the pool to forecast.
type PredictRequest struct {
	Protocol domain.Protocol

	// Coin is the stablecoin name (USDC, USDT, USDS).
	Coin string

	Options
}

// PredictResult carries the stored forecast.
type PredictResult struct {
	Summary  string
	Forecast *domain.ProtocolPredictedAPY
}

// RunPredict generates an hourly APY forecast for one (protocol, coin)
// pool and overwrite-saves it. Returns market.ErrNoReserve when the pool
// has no snapshot history to forecast from.
func (p *Pipelines) RunPredict(ctx context.Context, req PredictRequest) (*PredictResult, error) {
	coin, ok := p.findCoin(req.Coin)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported coin %q", market.ErrNoReserve, req.Coin)
	}

	hours := req.HoursToPredict
	if hours <= 0 {
		hours = DefaultHoursToPredict
	}

	history, err := p.snapshots.GetByMint(ctx, string(req.Protocol), coin.Mint)
	if err != nil {
		return nil, fmt.Errorf("load history for %s/%s: %w", req.Protocol, coin.Name, err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: no data for %s on %s", market.ErrNoReserve, coin.Name, req.Protocol)
	}
	current := history[0]

	rules, err := p.rules.GetByProtocolWithConfidence(ctx, string(req.Protocol), minRuleConfidence)
	if err != nil {
		return nil, fmt.Errorf("load rules for %s: %w", req.Protocol, err)
	}

	now := p.clock().UnixMilli()
	prompt, err := llm.BuildPredictionPrompt(string(req.Protocol), coin.Mint, hours, now, history, current, rules)
	if err != nil {
		return nil, err
	}

	text, err := p.generator.Generate(ctx, llm.SystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate forecast: %w", err)
	}

	points, err := llm.ParsePredictionPoints(text)
	if err != nil {
		if errors.Is(err, llm.ErrMalformedOutput) {
			return nil, err
		}
		return nil, fmt.Errorf("parse forecast: %w", err)
	}

	forecast := &domain.ProtocolPredictedAPY{
		ProtocolName: string(req.Protocol),
		MintAddress:  coin.Mint,
		CoinName:     coin.Name,
		Points:       points,
		Timestamp:    now,
	}
	if err := p.predictions.Save(ctx, forecast); err != nil {
		return nil, fmt.Errorf("save forecast: %w", err)
	}
	observability.RecordPredictionSaved()

	p.logf(req.Options, "predict: %s/%s %d points over %dh", req.Protocol, coin.Name, len(points), hours)

	return &PredictResult{
		Summary:  formatForecastSummary(forecast, hours),
		Forecast: forecast,
	}, nil
}

func (p *Pipelines) findCoin(name string) (domain.SupportedCoin, bool) {
	for _, c := range p.coins {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return domain.SupportedCoin{}, false
}

func formatForecastSummary(f *domain.ProtocolPredictedAPY, hours int) string {
	if len(f.Points) == 0 {
		return fmt.Sprintf("no forecast for %s on %s", f.CoinName, f.ProtocolName)
	}
	first := f.Points[0].APY
	last := f.Points[len(f.Points)-1].APY
	return fmt.Sprintf("%s on %s: %.2f%% -> %.2f%% over the next %dh",
		f.CoinName, f.ProtocolName, first, last, hours)
}
