package pool

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fyDesk/internal/contracts"
	"fyDesk/internal/flow"
)

// RecoverResult reports which recovery action settled the pool.
type RecoverResult struct {
	Action string
	TxHash common.Hash
}

// RecoverOrSync settles a pending delta. A clean pool is a no-op. For a
// dirty pool it first attempts the retrieve call matching the dominant
// delta's sign, and falls back to a forced sell if the retrieve reverts.
// Each attempt is one signed transaction, confirmed before deciding.
func (g *Guard) RecoverOrSync(ctx context.Context, fl *flow.Flow, to common.Address) (RecoverResult, error) {
	snapshot, err := g.Snapshot(ctx)
	if err != nil {
		return RecoverResult{}, fmt.Errorf("recover snapshot: %w", err)
	}
	delta := PendingDelta(snapshot)
	if delta.Clean() {
		return RecoverResult{Action: "none"}, nil
	}

	fySide := dominantIsFY(delta)
	retrieve, sell := "retrieveBase", "sellBase"
	if fySide {
		retrieve, sell = "retrieveFYToken", "sellFYToken"
	}

	g.logger.Info("recovering pool",
		zap.String("pool", g.pool.Hex()),
		zap.String("delta", delta.String()),
		zap.String("action", retrieve),
	)

	result, retrieveErr := g.runRecovery(ctx, fl, retrieve, to, false)
	if retrieveErr == nil {
		return result, nil
	}

	g.logger.Warn("retrieve failed, forcing a sell",
		zap.String("action", sell),
		zap.Error(retrieveErr),
	)

	result, sellErr := g.runRecovery(ctx, fl, sell, to, true)
	if sellErr != nil {
		return RecoverResult{}, fmt.Errorf("recovery failed: retrieve: %v; sell: %w", retrieveErr, sellErr)
	}
	return result, nil
}

// dominantIsFY picks the side to recover from the fyToken delta's sign:
// a surplus of fyTokens is retrieved as fyTokens, anything else (a
// deficit, or a base-only delta) is settled on the base side.
func dominantIsFY(delta Delta) bool {
	return delta.FY.Sign() > 0
}

func (g *Guard) runRecovery(ctx context.Context, fl *flow.Flow, method string, to common.Address, withMin bool) (RecoverResult, error) {
	poolABI, err := contracts.PoolABI()
	if err != nil {
		return RecoverResult{}, fmt.Errorf("parse pool abi: %w", err)
	}

	var data []byte
	if withMin {
		data, err = poolABI.Pack(method, to, new(big.Int))
	} else {
		data, err = poolABI.Pack(method, to)
	}
	if err != nil {
		return RecoverResult{}, fmt.Errorf("pack %s: %w", method, err)
	}

	poolAddr := g.pool
	receipt, ferr := fl.Run(ctx, method, flow.TxRequest{To: &poolAddr, Data: data})
	if ferr != nil {
		return RecoverResult{}, ferr
	}
	return RecoverResult{Action: method, TxHash: receipt.TxHash}, nil
}
