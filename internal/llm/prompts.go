package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tinftsol/lenda/internal/domain"
)

// SystemPrompt frames every generation. Kept short; the task-specific
// instructions live in the per-pipeline prompts.
const SystemPrompt = "You are an analyst of on-chain lending markets. " +
	"You reason only from the data you are given and never invent numbers."

const rulesTemplate = `# Task: Develop rules based on historical data for APY changes in lending protocols.

You are analyzing historical reserve data for the %s protocol to identify
patterns and relationships in APY changes. Rules must be data-driven, clear,
and actionable.

Each observation carries: protocol, coinName, mintAddress, apy,
lendLiquidity, borrowLiquidity, utilizationRate, borrowCap, supplyCap, LTV,
updateTime (unix ms).

## Historical Data:
%s

## Existing Rules:
%s

## Instructions:
1. Identify consistent patterns between utilization rate, liquidity, caps
   and APY changes, using updateTime to track time-based dynamics.
2. Tie each rule to the specific asset it was observed on.
3. Do not repeat existing rules; only add a rule when it offers something new.
4. Base rules on observed data only. No predictions, no speculation.
5. Generate at most two rules.

## Expected Output:
Respond with a valid JSON array only. Do not include markdown or formatting
like ` + "```json" + `:
[
  {
    "protocolName": "PROTOCOL_NAME",
    "rule": "Description of the rule based on observed data.",
    "confidence": 95
  }
]
`

// BuildRulesPrompt renders the rule-derivation prompt for one protocol.
func BuildRulesPrompt(protocol string, history []*domain.ReserveSnapshot, existing []*domain.ProtocolRule) (string, error) {
	historyJSON, err := marshalPromptData(history)
	if err != nil {
		return "", err
	}
	existingJSON, err := marshalPromptData(existing)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(rulesTemplate, protocol, historyJSON, existingJSON), nil
}

const dynamicsTemplate = `# Task: Analyze lending pool trends and provide insights.

Analyze the %s pool on %s using the historical data, the current state and
the existing rules below. The output should be engaging and suitable for a
short social post.

## Historical Data:
%s

## Current Data:
%s

## Existing Rules:
%s

## Instructions:
1. Compare historical with current data over the full interval: APY change,
   utilization change, liquidity change.
2. Produce at most two insights integrating those changes, concise enough
   to post.
3. Validate findings against the existing rules and call out deviations.

## Expected Output:
Respond with a valid JSON array only. Do not include markdown or formatting
like ` + "```json" + `:
[
  {
    "pool": "POOL_NAME",
    "protocol": "PROTOCOL_NAME",
    "apy": "CURRENT_APY",
    "apyChange": "APY change over the interval",
    "utilizationChange": "Utilization change over the interval",
    "liquidityChange": "Liquidity change over the interval",
    "insights": ["First insight.", "Second insight."]
  }
]
`

// BuildDynamicsPrompt renders the pool-dynamics prompt for one
// (protocol, coin) pool.
func BuildDynamicsPrompt(protocol, coin string, history []*domain.ReserveSnapshot, current *domain.ReserveSnapshot, rules []*domain.ProtocolRule) (string, error) {
	historyJSON, err := marshalPromptData(history)
	if err != nil {
		return "", err
	}
	currentJSON, err := marshalPromptData(current)
	if err != nil {
		return "", err
	}
	rulesJSON, err := marshalPromptData(rules)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(dynamicsTemplate, coin, protocol, historyJSON, currentJSON, rulesJSON), nil
}

const predictionTemplate = `# Task: Predict future APY changes for a specific coin in a protocol.

Predict APY changes for the next %d hours for mint %s on the %s protocol,
starting from the current time %d (unix ms). Consider the trends in the
historical data, the current state and the protocol rules.

## Historical Data:
%s

## Current Data:
%s

## Rules:
%s

## Instructions:
1. Identify significant trends in the historical APY series.
2. Apply the protocol rules to keep the forecast consistent.
3. Produce one prediction per hour, each with a future unix-ms timestamp
   incremented by one hour from the current time.

## Expected Output:
Respond with a valid JSON array only. Do not include markdown, backticks,
or extraneous formatting:
[
  {"timestamp": 1698316800000, "apy": 3.65},
  {"timestamp": 1698320400000, "apy": 3.70}
]
`

// BuildPredictionPrompt renders the APY forecast prompt for one
// (protocol, mint) pair.
func BuildPredictionPrompt(protocol, mint string, hours int, now int64, history []*domain.ReserveSnapshot, current *domain.ReserveSnapshot, rules []*domain.ProtocolRule) (string, error) {
	historyJSON, err := marshalPromptData(history)
	if err != nil {
		return "", err
	}
	currentJSON, err := marshalPromptData(current)
	if err != nil {
		return "", err
	}
	rulesJSON, err := marshalPromptData(rules)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(predictionTemplate, hours, mint, protocol, now, historyJSON, currentJSON, rulesJSON), nil
}

func marshalPromptData(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal prompt data: %w", err)
	}
	s := string(data)
	if s == "null" {
		s = "[]"
	}
	return strings.TrimSpace(s), nil
}
