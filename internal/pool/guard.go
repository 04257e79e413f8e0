package pool

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Delta is the difference between live balances and the settled cache,
// per asset. Both components exactly zero means the pool is clean.
type Delta struct {
	Base *big.Int
	FY   *big.Int
}

// Clean reports whether no settlement is pending on either side.
func (d Delta) Clean() bool {
	return d.Base.Sign() == 0 && d.FY.Sign() == 0
}

func (d Delta) String() string {
	return fmt.Sprintf("base=%s fy=%s", signedUnits(d.Base), signedUnits(d.FY))
}

func signedUnits(x *big.Int) string {
	if x.Sign() > 0 {
		return "+" + x.String()
	}
	return x.String()
}

// DirtyPoolError reports an unsettled pending delta. Minting against a
// dirty pool donates the stray tokens to the next settler, so callers
// must stop and recover instead.
type DirtyPoolError struct {
	Pool  common.Address
	Delta Delta
}

func (e *DirtyPoolError) Error() string {
	return fmt.Sprintf("pool %s has a pending delta (%s); recover before minting", e.Pool.Hex(), e.Delta)
}

// Guard snapshots the pool and blocks mutating operations while a
// pending delta exists.
type Guard struct {
	pool         common.Address
	reader       Reader
	baseDecimals uint8
	fyDecimals   uint8
	logger       *zap.Logger
}

// NewGuard builds a guard for one pool.
func NewGuard(poolAddr common.Address, reader Reader, baseDecimals, fyDecimals uint8, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		pool:         poolAddr,
		reader:       reader,
		baseDecimals: baseDecimals,
		fyDecimals:   fyDecimals,
		logger:       logger,
	}
}

// Snapshot fetches the current pool snapshot.
func (g *Guard) Snapshot(ctx context.Context) (*Snapshot, error) {
	return Fetch(ctx, g.reader, g.pool, g.baseDecimals, g.fyDecimals)
}

// PendingDelta computes live minus cached per asset.
func PendingDelta(s *Snapshot) Delta {
	return Delta{
		Base: new(big.Int).Sub(s.BaseBalance, s.BaseCached),
		FY:   new(big.Int).Sub(s.FYBalance, s.FYCached),
	}
}

// AssertMintable snapshots the pool and fails with the exact signed
// deltas when it is dirty. Callers re-check immediately before the final
// signed submission: state can change while a wallet prompt is open.
func (g *Guard) AssertMintable(ctx context.Context) (*Snapshot, error) {
	snapshot, err := g.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("guard snapshot: %w", err)
	}
	delta := PendingDelta(snapshot)
	if !delta.Clean() {
		g.logger.Warn("pool dirty",
			zap.String("pool", g.pool.Hex()),
			zap.String("delta", delta.String()),
		)
		return snapshot, &DirtyPoolError{Pool: g.pool, Delta: delta}
	}
	return snapshot, nil
}
