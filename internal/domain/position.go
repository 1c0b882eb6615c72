package domain

// WalletPosition is the single tracked lending position for a wallet in one
// mint. Corresponds to current_positions table in PostgreSQL with a unique
// constraint on (wallet_address, mint_address).
//
// Amount, StartAPY and StartTime are the baseline recorded when the position
// was first observed; reconciliation carries them forward unchanged.
// CurrentPosition and LatestAPY are overwritten on every refresh.
type WalletPosition struct {
	WalletAddress   string  `json:"walletAddress"`   // wallet holding the position
	ProtocolName    string  `json:"protocolName"`    // lending protocol identifier
	CoinName        string  `json:"coinName"`        // stablecoin name
	MintAddress     string  `json:"mintAddress"`     // mint address of the stablecoin
	Amount          float64 `json:"amount"`          // baseline amount at open, decimal-adjusted
	StartAPY        float64 `json:"startApy"`        // APY at open, percent
	StartTime       int64   `json:"startTime"`       // open timestamp, Unix ms
	CurrentPosition float64 `json:"currentPosition"` // latest observed amount, decimal-adjusted
	LatestAPY       float64 `json:"latestApy"`       // latest observed APY, percent
}

// UserWallet links an internal user and a messaging-platform identity to a
// wallet address. A user may link several wallets; uniqueness of
// (user_id, wallet_address) is enforced by the wallet service, not by the
// store.
type UserWallet struct {
	UserID         string // internal user ID
	TelegramUserID string // messaging-platform user ID
	WalletAddress  string // linked wallet address
	CreatedAt      int64  // link timestamp, Unix ms
}
