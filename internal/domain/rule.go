package domain

// ProtocolRule is a natural-language heuristic about a protocol's APY
// behaviour with a confidence score. Corresponds to protocol_rules table in
// PostgreSQL. Rules accumulate; retrieval is capped to the most recent
// window unless a confidence filter is applied.
type ProtocolRule struct {
	ID           string `json:"id"`           // rule identifier (UUID)
	ProtocolName string `json:"protocolName"` // protocol the rule applies to
	Rule         string `json:"rule"`         // rule description
	Confidence   int    `json:"confidence"`   // confidence score, 0-100
	CreatedAt    int64  `json:"createdAt"`    // insertion timestamp, Unix ms
}

// PredictedAPYPoint is one forecast sample.
type PredictedAPYPoint struct {
	Timestamp int64   `json:"timestamp"` // forecast time, Unix ms
	APY       float64 `json:"apy"`       // forecast APY, percent
}

// ProtocolPredictedAPY is an APY forecast for one (protocol, mint) pair.
// Corresponds to protocol_predicted_apy table in PostgreSQL, keyed by
// (protocol_name, mint_address); saving a new forecast overwrites the
// previous one.
type ProtocolPredictedAPY struct {
	ProtocolName string              `json:"protocolName"` // protocol identifier
	MintAddress  string              `json:"mintAddress"`  // mint address of the stablecoin
	CoinName     string              `json:"coinName"`     // stablecoin name
	Points       []PredictedAPYPoint `json:"points"`       // ordered forecast series
	Timestamp    int64               `json:"timestamp"`    // generation timestamp, Unix ms
}
