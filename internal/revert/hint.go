// Package revert turns opaque on-chain failure values into structured
// hints a caller can act on.
package revert

import (
	"fmt"
	"math/big"

	"fyDesk/internal/wad"
)

// HintKind identifies a decoded revert reason.
type HintKind int

const (
	// HintRatioOutOfBounds is a pool mint rejected because the reserve
	// ratio moved outside the requested bounds.
	HintRatioOutOfBounds HintKind = iota
	// HintInsufficientBaseIn is a pool mint rejected because the base
	// amount sent does not cover the fyToken side at current reserves.
	HintInsufficientBaseIn
	// HintNegativeRate is a trade the pool rejects because it would
	// imply a negative interest rate.
	HintNegativeRate
	// HintUndercollateralized is a borrow rejected by the vault router.
	HintUndercollateralized
	// HintUnknownSelector is a revert with a selector the decode table
	// does not know; the selector is preserved for display.
	HintUnknownSelector
)

// Hint is a decoded revert with the operands relevant to remediation.
type Hint struct {
	Kind     HintKind
	Selector string

	// HintRatioOutOfBounds
	NewRatio *big.Int
	MinRatio *big.Int
	MaxRatio *big.Int

	// HintInsufficientBaseIn
	BaseNeeded    *big.Int
	BaseAvailable *big.Int

	// HintNegativeRate
	BaseOut   *big.Int
	FYTokenIn *big.Int

	// HintUndercollateralized
	VaultID [12]byte
	Art     *big.Int
	Ink     *big.Int
}

// Message renders the hint with a remediation suggestion.
func (h *Hint) Message() string {
	switch h.Kind {
	case HintRatioOutOfBounds:
		return fmt.Sprintf(
			"pool ratio %s outside bounds [%s, %s]; retry with a relaxed ratio check or wider slippage",
			wad.Format(h.NewRatio, 6), wad.Format(h.MinRatio, 6), wad.Format(h.MaxRatio, 6),
		)
	case HintInsufficientBaseIn:
		return fmt.Sprintf(
			"pool needs %s base but only %s was provided; increase the base amount",
			h.BaseNeeded, h.BaseAvailable,
		)
	case HintNegativeRate:
		return fmt.Sprintf(
			"pool rejected the trade: %s base out for %s fyToken in implies a negative rate",
			h.BaseOut, h.FYTokenIn,
		)
	case HintUndercollateralized:
		return fmt.Sprintf(
			"vault %x undercollateralized: debt %s against collateral %s; add collateral or borrow less",
			h.VaultID, h.Art, h.Ink,
		)
	default:
		return fmt.Sprintf("reverted with unrecognized selector %s", h.Selector)
	}
}
