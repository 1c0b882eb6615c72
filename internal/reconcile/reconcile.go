// Package reconcile merges freshly observed on-chain deposits with
// previously stored wallet positions. It is pure: the caller fetches the
// inputs and persists the outputs.
package reconcile

import (
	"github.com/tinftsol/lenda/internal/domain"
)

// Input is one wallet's view of a single protocol at observation time.
type Input struct {
	WalletAddress string
	ProtocolName  string

	// Deposits are the wallet's current on-chain deposits.
	Deposits []domain.Deposit

	// Reserves is the latest observation per mint. Deposits whose mint has
	// no entry cannot be priced and are skipped.
	Reserves map[string]*domain.ReserveObservation

	// Prior holds the stored position per mint, if any. Baseline fields of
	// a prior position survive reconciliation untouched.
	Prior map[string]*domain.WalletPosition
}

// Result carries the reconciled positions plus any mints that had to be
// skipped for lack of reserve data.
type Result struct {
	Positions    []*domain.WalletPosition
	SkippedMints []string
}

// Reconcile computes the new position set for a wallet. now is the
// observation time in unix milliseconds and becomes the baseline start time
// for positions seen for the first time.
//
// For each deposit: a missing reserve skips the deposit, a zero adjusted
// amount skips the deposit, an existing prior position keeps its baseline
// (amount, start APY, start time) and refreshes only the current amount and
// latest APY, and a first observation becomes its own baseline.
func Reconcile(in Input, now int64) Result {
	var res Result

	for _, dep := range in.Deposits {
		reserve, ok := in.Reserves[dep.MintAddress]
		if !ok {
			res.SkippedMints = append(res.SkippedMints, dep.MintAddress)
			continue
		}

		amount := dep.AdjustedAmount(reserve.Decimals)
		if amount == 0 {
			continue
		}

		pos := &domain.WalletPosition{
			WalletAddress:   in.WalletAddress,
			ProtocolName:    in.ProtocolName,
			CoinName:        reserve.CoinName,
			MintAddress:     dep.MintAddress,
			CurrentPosition: amount,
			LatestAPY:       reserve.APY,
		}

		if prior, ok := in.Prior[dep.MintAddress]; ok && prior.ProtocolName == in.ProtocolName {
			pos.Amount = prior.Amount
			pos.StartAPY = prior.StartAPY
			pos.StartTime = prior.StartTime
		} else {
			pos.Amount = amount
			pos.StartAPY = reserve.APY
			pos.StartTime = now
		}

		res.Positions = append(res.Positions, pos)
	}

	return res
}

// Disappeared returns the mints of stored positions that have no matching
// current deposit. Callers log these; positions are never removed
// automatically.
func Disappeared(stored []*domain.WalletPosition, deposits []domain.Deposit) []string {
	current := make(map[string]struct{}, len(deposits))
	for _, dep := range deposits {
		current[dep.MintAddress] = struct{}{}
	}

	var gone []string
	for _, pos := range stored {
		if _, ok := current[pos.MintAddress]; !ok {
			gone = append(gone, pos.MintAddress)
		}
	}
	return gone
}
