package domain

import "github.com/shopspring/decimal"

// Protocol identifies a supported lending protocol.
type Protocol string

const (
	ProtocolKamino Protocol = "KAMINO"
	ProtocolSolend Protocol = "SOLEND"
)

// ReserveSnapshot is one persisted observation of a lending reserve.
// Corresponds to reserve_snapshots table in PostgreSQL. Rows are immutable;
// multiple rows per (protocol, mint_address) form a time series ordered by
// update_time.
type ReserveSnapshot struct {
	Protocol        string  `json:"protocol"`        // protocol identifier (KAMINO, SOLEND)
	CoinName        string  `json:"coinName"`        // stablecoin name (USDC, USDT, USDS)
	MintAddress     string  `json:"mintAddress"`     // mint address of the stablecoin
	APY             float64 `json:"apy"`             // supply APY in percent
	LendLiquidity   float64 `json:"lendLiquidity"`   // liquidity available for lending, decimal-adjusted
	BorrowLiquidity float64 `json:"borrowLiquidity"` // liquidity borrowed, decimal-adjusted
	UtilizationRate float64 `json:"utilizationRate"` // pool utilization in percent
	BorrowCap       float64 `json:"borrowCap"`       // borrow limit, decimal-adjusted
	SupplyCap       float64 `json:"supplyCap"`       // supply limit, decimal-adjusted
	LTV             float64 `json:"ltv"`             // loan-to-value ratio, 0-1
	UpdateTime      int64   `json:"updateTime"`      // observation timestamp, Unix ms
}

// ReserveObservation is a freshly fetched reserve state as returned by a
// market provider. Decimals is needed downstream to adjust raw deposit
// amounts and is not persisted with the snapshot.
type ReserveObservation struct {
	ReserveSnapshot
	Decimals int32 // token decimals of the reserve mint
}

// Deposit is a wallet's raw on-chain lending claim against one reserve.
type Deposit struct {
	MintAddress string          // mint address of the deposited coin
	RawAmount   decimal.Decimal // raw amount in base units, not decimal-adjusted
}

// AdjustedAmount returns the deposit amount adjusted by the reserve's
// decimals.
func (d Deposit) AdjustedAmount(decimals int32) float64 {
	return d.RawAmount.Shift(-decimals).InexactFloat64()
}

// SupportedCoin describes a stablecoin the system tracks, with the
// protocols that carry a reserve for it.
type SupportedCoin struct {
	Name      string
	Mint      string
	Protocols []Protocol
}

// SupportsProtocol reports whether the coin has a reserve on the given
// protocol.
func (c SupportedCoin) SupportsProtocol(p Protocol) bool {
	for _, sp := range c.Protocols {
		if sp == p {
			return true
		}
	}
	return false
}

// Well-known stablecoin mint addresses on Solana mainnet.
const (
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDSMint = "USDSwr9ApdHk5bvJKMjzff41FfuX8bSxdKcR81vTwcA"
	USDTMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// DefaultSupportedCoins is the stablecoin set sampled by default.
var DefaultSupportedCoins = []SupportedCoin{
	{Name: "USDC", Mint: USDCMint, Protocols: []Protocol{ProtocolKamino, ProtocolSolend}},
	{Name: "USDT", Mint: USDTMint, Protocols: []Protocol{ProtocolKamino, ProtocolSolend}},
	{Name: "USDS", Mint: USDSMint, Protocols: []Protocol{ProtocolKamino, ProtocolSolend}},
}

// SupportedCoinsFor filters coins down to those carried by the given
// protocol.
func SupportedCoinsFor(coins []SupportedCoin, p Protocol) []SupportedCoin {
	var out []SupportedCoin
	for _, c := range coins {
		if c.SupportsProtocol(p) {
			out = append(out, c)
		}
	}
	return out
}
