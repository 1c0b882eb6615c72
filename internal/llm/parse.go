package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tinftsol/lenda/internal/domain"
)

// GeneratedRule is the wire shape of one rule in the generation output.
type GeneratedRule struct {
	ProtocolName string `json:"protocolName"`
	Rule         string `json:"rule"`
	Confidence   int    `json:"confidence"`
}

// PoolAnalysis is the wire shape of one pool entry in the dynamics output.
type PoolAnalysis struct {
	Pool              string   `json:"pool"`
	Protocol          string   `json:"protocol"`
	APY               string   `json:"apy"`
	APYChange         string   `json:"apyChange"`
	UtilizationChange string   `json:"utilizationChange"`
	LiquidityChange   string   `json:"liquidityChange"`
	Insights          []string `json:"insights"`
}

// ParseRules extracts the generated rules. Any malformed payload discards
// the whole output.
func ParseRules(text string) ([]GeneratedRule, error) {
	var rules []GeneratedRule
	if err := unmarshalArray(text, &rules); err != nil {
		return nil, err
	}
	for _, r := range rules {
		if r.ProtocolName == "" || r.Rule == "" {
			return nil, fmt.Errorf("%w: rule missing protocol or text", ErrMalformedOutput)
		}
		if r.Confidence < 0 || r.Confidence > 100 {
			return nil, fmt.Errorf("%w: confidence %d out of range", ErrMalformedOutput, r.Confidence)
		}
	}
	return rules, nil
}

// ParsePoolAnalyses extracts the generated pool dynamics entries.
func ParsePoolAnalyses(text string) ([]PoolAnalysis, error) {
	var analyses []PoolAnalysis
	if err := unmarshalArray(text, &analyses); err != nil {
		return nil, err
	}
	return analyses, nil
}

// ParsePredictionPoints extracts the generated forecast series, sorted by
// timestamp ascending.
func ParsePredictionPoints(text string) ([]domain.PredictedAPYPoint, error) {
	var points []domain.PredictedAPYPoint
	if err := unmarshalArray(text, &points); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: empty forecast", ErrMalformedOutput)
	}
	for _, p := range points {
		if p.Timestamp <= 0 {
			return nil, fmt.Errorf("%w: point without timestamp", ErrMalformedOutput)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp < points[j].Timestamp })
	return points, nil
}

// unmarshalArray parses a JSON array out of generated text, tolerating
// markdown fences and prose around the array.
func unmarshalArray(text string, v interface{}) error {
	payload := extractJSONArray(text)
	if payload == "" {
		return fmt.Errorf("%w: no JSON array found", ErrMalformedOutput)
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

// extractJSONArray returns the outermost bracketed span of the text, with
// any markdown code fences stripped first.
func extractJSONArray(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
