package llm

import (
	"errors"
	"strings"
	"testing"

	"github.com/tinftsol/lenda/internal/domain"
)

func TestParseRules_Valid(t *testing.T) {
	text := `[
		{"protocolName":"KAMINO","rule":"APY rises when utilization crosses 80%","confidence":85},
		{"protocolName":"KAMINO","rule":"Liquidity drops precede APY spikes","confidence":70}
	]`

	rules, err := ParseRules(text)
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].ProtocolName != "KAMINO" || rules[0].Confidence != 85 {
		t.Errorf("wrong first rule: %+v", rules[0])
	}
}

func TestParseRules_MarkdownFences(t *testing.T) {
	text := "```json\n[{\"protocolName\":\"KAMINO\",\"rule\":\"r\",\"confidence\":50}]\n```"

	rules, err := ParseRules(text)
	if err != nil {
		t.Fatalf("ParseRules failed on fenced output: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
}

func TestParseRules_ProseAroundArray(t *testing.T) {
	text := `Here are the rules I derived:
[{"protocolName":"KAMINO","rule":"r","confidence":50}]
Let me know if you need more.`

	rules, err := ParseRules(text)
	if err != nil {
		t.Fatalf("ParseRules failed on prose-wrapped output: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
}

func TestParseRules_MalformedDiscardedWhole(t *testing.T) {
	cases := map[string]string{
		"no json":            "I could not find any patterns.",
		"truncated":          `[{"protocolName":"KAMINO","rule":"r","confidence":`,
		"missing rule text":  `[{"protocolName":"KAMINO","rule":"","confidence":50}]`,
		"confidence too big": `[{"protocolName":"KAMINO","rule":"r","confidence":150}]`,
	}

	for name, text := range cases {
		if _, err := ParseRules(text); !errors.Is(err, ErrMalformedOutput) {
			t.Errorf("%s: expected ErrMalformedOutput, got %v", name, err)
		}
	}
}

func TestParsePredictionPoints_SortedAscending(t *testing.T) {
	text := `[
		{"timestamp": 1698320400000, "apy": 3.7},
		{"timestamp": 1698316800000, "apy": 3.65}
	]`

	points, err := ParsePredictionPoints(text)
	if err != nil {
		t.Fatalf("ParsePredictionPoints failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Timestamp != 1698316800000 || points[1].Timestamp != 1698320400000 {
		t.Errorf("points not sorted ascending: %+v", points)
	}
}

func TestParsePredictionPoints_Empty(t *testing.T) {
	if _, err := ParsePredictionPoints(`[]`); !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("expected ErrMalformedOutput for empty forecast, got %v", err)
	}
}

func TestParsePoolAnalyses(t *testing.T) {
	text := `[{
		"pool":"USDC Pool","protocol":"KAMINO","apy":"3.5%",
		"apyChange":"stable","utilizationChange":"up","liquidityChange":"flat",
		"insights":["first","second"]
	}]`

	analyses, err := ParsePoolAnalyses(text)
	if err != nil {
		t.Fatalf("ParsePoolAnalyses failed: %v", err)
	}
	if len(analyses) != 1 || len(analyses[0].Insights) != 2 {
		t.Errorf("wrong analyses: %+v", analyses)
	}
}

func TestBuildRulesPrompt_EmbedsData(t *testing.T) {
	history := []*domain.ReserveSnapshot{
		{Protocol: "KAMINO", CoinName: "USDC", MintAddress: "mint1", APY: 3.5, UpdateTime: 1000},
	}
	existing := []*domain.ProtocolRule{
		{ID: "id1", ProtocolName: "KAMINO", Rule: "existing rule", Confidence: 60},
	}

	prompt, err := BuildRulesPrompt("KAMINO", history, existing)
	if err != nil {
		t.Fatalf("BuildRulesPrompt failed: %v", err)
	}
	for _, want := range []string{"KAMINO", "mint1", "existing rule", "JSON array"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPredictionPrompt_EmptyHistoryRendersArray(t *testing.T) {
	current := &domain.ReserveSnapshot{Protocol: "KAMINO", MintAddress: "mint1", APY: 3.0}

	prompt, err := BuildPredictionPrompt("KAMINO", "mint1", 6, 1700000000000, nil, current, nil)
	if err != nil {
		t.Fatalf("BuildPredictionPrompt failed: %v", err)
	}
	if strings.Contains(prompt, "null") {
		t.Error("nil history should render as [] in the prompt")
	}
	if !strings.Contains(prompt, "next 6 hours") {
		t.Error("prompt missing hour horizon")
	}
}
