package pool

import (
	"fmt"
	"math/big"

	"fyDesk/internal/wad"
)

// MaxRatio is the unconstrained upper ratio bound (2^256 - 1).
var MaxRatio = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Bounds is the accepted base-per-fyToken ratio window for a mint,
// expressed at 18-decimal fixed point.
type Bounds struct {
	Min *big.Int
	Max *big.Int
}

// Relaxed reports whether the bounds accept any ratio.
func (b Bounds) Relaxed() bool {
	return b.Min.Sign() == 0 && b.Max.Cmp(MaxRatio) == 0
}

// RelaxedBounds accepts any reserve ratio.
func RelaxedBounds() Bounds {
	return Bounds{Min: big.NewInt(0), Max: new(big.Int).Set(MaxRatio)}
}

// RatioBounds computes the strict bounds around the reserve-implied
// base-per-fyToken ratio for a slippage tolerance in basis points.
// Zero slippage collapses both bounds to the current ratio.
func RatioBounds(s *Snapshot, slippageBps int64) (Bounds, error) {
	if slippageBps < 0 {
		return Bounds{}, fmt.Errorf("slippage must not be negative: %d", slippageBps)
	}
	ratio, err := ReserveRatio(s)
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{
		Min: wad.ApplyBps(ratio, -slippageBps),
		Max: wad.ApplyBps(ratio, slippageBps),
	}, nil
}

// ReserveRatio returns cached base per cached fyToken at WAD precision.
func ReserveRatio(s *Snapshot) (*big.Int, error) {
	baseWad, err := wad.ToWad(s.BaseCached, s.BaseDecimals)
	if err != nil {
		return nil, fmt.Errorf("base reserve: %w", err)
	}
	fyWad, err := wad.ToWad(s.FYCached, s.FYDecimals)
	if err != nil {
		return nil, fmt.Errorf("fyToken reserve: %w", err)
	}
	ratio := wad.Div(baseWad, fyWad)
	if ratio == nil {
		return nil, fmt.Errorf("fyToken reserve is zero")
	}
	return ratio, nil
}
