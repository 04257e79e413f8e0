package mint

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fyDesk/internal/flow"
	"fyDesk/internal/pool"
	"fyDesk/internal/revert"
)

// sizeLadder is the bounded size-reduction schedule tried when the pool
// reports the input-insufficiency signature, each step under relaxed
// bounds, stopping at the first success.
var sizeLadder = []int64{50, 25, 10}

// runWithStrategies executes the requested attempt and at most one
// follow-up strategy chosen from the first outcome. Strategies never
// nest, so the number of signature prompts stays bounded.
func (o *Orchestrator) runWithStrategies(ctx context.Context, fl *flow.Flow, snapshot *pool.Snapshot, req Request) (*Result, *flow.Error) {
	first := attempt{scalePct: 100, relaxed: req.RelaxedRatio}
	result, ferr := o.runAttempt(ctx, fl, snapshot, req, first)

	if ferr == nil {
		if result.LPMinted.Sign() != 0 || first.relaxed {
			return result, nil
		}
		// Strict bounds minted zero LP: retry once with the ratio check
		// relaxed. The zero-LP outcome itself is reported, not failed.
		o.deps.Logger.Info("strict mint produced zero LP, retrying relaxed")
		retryResult, retryErr := o.runAttempt(ctx, fl, snapshot, req, attempt{
			scalePct: 100,
			relaxed:  true,
			note:     "retried with relaxed ratio bounds after zero LP",
		})
		if retryErr != nil {
			result.Note = "zero LP minted; relaxed retry failed: " + retryErr.Error()
			return result, nil
		}
		return retryResult, nil
	}

	hint := ferr.Hint
	if ferr.Kind != flow.KindSimulateReverted || hint == nil {
		return nil, ferr
	}

	switch hint.Kind {
	case revert.HintRatioOutOfBounds:
		if first.relaxed {
			return nil, ferr
		}
		o.deps.Logger.Info("ratio bounds rejected, retrying relaxed", zap.String("hint", hint.Message()))
		return o.runAttempt(ctx, fl, snapshot, req, attempt{
			scalePct: 100,
			relaxed:  true,
			note:     "retried with relaxed ratio bounds",
		})

	case revert.HintInsufficientBaseIn:
		lastErr := ferr
		for _, pct := range sizeLadder {
			o.deps.Logger.Info("input insufficient, retrying smaller",
				zap.Int64("scale_pct", pct),
				zap.String("hint", hint.Message()),
			)
			result, retryErr := o.runAttempt(ctx, fl, snapshot, req, attempt{
				scalePct: pct,
				relaxed:  true,
				note:     fmt.Sprintf("succeeded at %d%% of the requested size", pct),
			})
			if retryErr == nil {
				return result, nil
			}
			lastErr = retryErr
		}
		return nil, lastErr

	default:
		return nil, ferr
	}
}
