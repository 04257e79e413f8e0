// Package position runs the borrow and lend flows: vault management,
// collateral, and slippage-bounded swaps to and from fyTokens.
package position

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"

	"fyDesk/internal/contracts"
	"fyDesk/internal/market"
	"fyDesk/internal/pool"
	"fyDesk/internal/revert"
)

// QuoteFailure says why a conversion between base and fyToken cannot be
// trusted.
type QuoteFailure int

const (
	FailureNone QuoteFailure = iota
	FailureInsufficientLiquidity
	FailurePoolInconsistent
	FailureRateRejected
	FailurePreviewReverted
	FailureUnknown
)

func (f QuoteFailure) String() string {
	switch f {
	case FailureNone:
		return "ok"
	case FailureInsufficientLiquidity:
		return "insufficient pool liquidity"
	case FailurePoolInconsistent:
		return "pool has a pending delta"
	case FailureRateRejected:
		return "pool disallows the implied rate"
	case FailurePreviewReverted:
		return "preview call reverted"
	default:
		return "unknown quote failure"
	}
}

// Quote converts a requested base amount into the fyToken amount the
// pool would need (borrow) or grant (lend).
type Quote struct {
	FYAmount *big.Int
	Failure  QuoteFailure
}

// BorrowQuote previews how many fyTokens of debt a borrow-to-spot of
// baseOut would cost.
func BorrowQuote(ctx context.Context, reader pool.Reader, m market.Market, baseOut *big.Int) Quote {
	return preview(ctx, reader, m, "buyBasePreview", baseOut)
}

// LendQuote previews how many fyTokens selling baseIn would return.
func LendQuote(ctx context.Context, reader pool.Reader, m market.Market, baseIn *big.Int) Quote {
	return preview(ctx, reader, m, "sellBasePreview", baseIn)
}

func preview(ctx context.Context, reader pool.Reader, m market.Market, method string, amount *big.Int) Quote {
	snapshot, err := pool.Fetch(ctx, reader, m.Pool, m.BaseDecimals, m.FYDecimals)
	if err != nil {
		return Quote{Failure: FailureUnknown}
	}
	if !pool.PendingDelta(snapshot).Clean() {
		return Quote{Failure: FailurePoolInconsistent}
	}
	if method == "buyBasePreview" && amount.Cmp(snapshot.BaseCached) >= 0 {
		return Quote{Failure: FailureInsufficientLiquidity}
	}

	poolABI, err := contracts.PoolABI()
	if err != nil {
		return Quote{Failure: FailureUnknown}
	}
	data, err := poolABI.Pack(method, amount)
	if err != nil {
		return Quote{Failure: FailureUnknown}
	}
	to := m.Pool
	resp, err := reader.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		if hint := revert.Classify(err); hint != nil && hint.Kind == revert.HintNegativeRate {
			return Quote{Failure: FailureRateRejected}
		}
		return Quote{Failure: FailurePreviewReverted}
	}
	values, err := poolABI.Unpack(method, resp)
	if err != nil || len(values) != 1 {
		return Quote{Failure: FailureUnknown}
	}
	fyAmount, ok := values[0].(*big.Int)
	if !ok {
		return Quote{Failure: FailureUnknown}
	}
	return Quote{FYAmount: fyAmount}
}

// Err renders a failed quote as an error; nil when the quote is usable.
func (q Quote) Err() error {
	if q.Failure == FailureNone {
		return nil
	}
	return fmt.Errorf("quote unusable: %s", q.Failure)
}
