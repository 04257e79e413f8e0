// Package mint runs the add-liquidity flow: guard, ratio bounds, helper
// deployment, allowances, simulation, submission and attribution, with
// bounded retry strategies on known failure signatures.
package mint

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fyDesk/internal/contracts"
	"fyDesk/internal/erc20"
	"fyDesk/internal/flow"
	"fyDesk/internal/market"
	"fyDesk/internal/pool"
	"fyDesk/internal/store"
)

// State is the orchestrator's coarse lifecycle.
type State int

const (
	StateIdle State = iota
	StatePending
	StateDone
	StateError
)

// NonceSource provides the wallet's next order number at flow start.
type NonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// Deps are the collaborators a mint flow needs.
type Deps struct {
	Reader  pool.Reader
	Guard   *pool.Guard
	Submit  flow.Submitter
	Confirm flow.Confirmer
	Nonces  NonceSource
	Cache   store.Store
	Journal *flow.Journal
	Logger  *zap.Logger
}

// Orchestrator executes mint flows for one market and one wallet.
type Orchestrator struct {
	market  market.Market
	chainID uint64
	account common.Address
	deps    Deps
	state   State
}

// New builds a mint orchestrator.
func New(m market.Market, chainID uint64, account common.Address, deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Orchestrator{market: m, chainID: chainID, account: account, deps: deps}
}

// State returns the orchestrator's current lifecycle state.
func (o *Orchestrator) State() State {
	return o.state
}

// Request is one add-liquidity intent, amounts in native precision.
type Request struct {
	BaseAmount   *big.Int
	FYAmount     *big.Int
	SlippageBps  int64
	RelaxedRatio bool
}

// Result reports a completed mint with attributed outcomes. A zero
// LPMinted is a reported fact, not an error.
type Result struct {
	Outcome
	TxHash common.Hash
	Note   string
	Steps  []*flow.Step
}

// Mint runs the full flow and applies the retry policy.
func (o *Orchestrator) Mint(ctx context.Context, req Request) (*Result, *flow.Error) {
	o.state = StatePending

	result, ferr := o.run(ctx, req)
	if ferr != nil {
		o.state = StateError
		return nil, ferr
	}
	o.state = StateDone
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, req Request) (*Result, *flow.Error) {
	if ferr := o.validate(ctx, req); ferr != nil {
		return nil, ferr
	}

	snapshot, err := o.deps.Guard.AssertMintable(ctx)
	if err != nil {
		return nil, classifyGuardError(err)
	}

	startNonce, err := o.deps.Nonces.PendingNonceAt(ctx, o.account)
	if err != nil {
		return nil, flow.UnknownError("nonce", err)
	}
	fl := flow.New("mint", startNonce, o.deps.Submit, o.deps.Confirm, o.deps.Journal, o.deps.Logger)

	return o.runWithStrategies(ctx, fl, snapshot, req)
}

// validate fails fast on anything detectable without a signature.
func (o *Orchestrator) validate(ctx context.Context, req Request) *flow.Error {
	if o.account == (common.Address{}) {
		return flow.ValidationError("no wallet connected")
	}
	if req.BaseAmount == nil || req.FYAmount == nil {
		return flow.ValidationError("amounts not set")
	}
	if req.BaseAmount.Sign() < 0 || req.FYAmount.Sign() < 0 {
		return flow.ValidationError("amounts must not be negative")
	}
	if req.BaseAmount.Sign() == 0 && req.FYAmount.Sign() == 0 {
		return flow.ValidationError("nothing to deposit")
	}

	baseBalance, err := erc20.BalanceOf(ctx, o.deps.Reader, o.market.Base, o.account)
	if err != nil {
		return flow.ValidationError("base balance not loaded: %v", err)
	}
	if baseBalance.Cmp(req.BaseAmount) < 0 {
		return flow.ValidationError("insufficient base balance: have %s, need %s", baseBalance, req.BaseAmount)
	}
	fyBalance, err := erc20.BalanceOf(ctx, o.deps.Reader, o.market.FYToken, o.account)
	if err != nil {
		return flow.ValidationError("fyToken balance not loaded: %v", err)
	}
	if fyBalance.Cmp(req.FYAmount) < 0 {
		return flow.ValidationError("insufficient fyToken balance: have %s, need %s", fyBalance, req.FYAmount)
	}
	return nil
}

func classifyGuardError(err error) *flow.Error {
	var dirty *pool.DirtyPoolError
	if errors.As(err, &dirty) {
		return flow.PoolDirtyError(err)
	}
	return flow.UnknownError("guard", err)
}

// attempt is one bounded mint try: a size scale and a bounds mode.
type attempt struct {
	scalePct int64
	relaxed  bool
	note     string
}

// runAttempt executes steps 3-8 of the flow for one attempt:
// bounds, helper, simulate, allowances, re-guard, submit, attribute.
func (o *Orchestrator) runAttempt(ctx context.Context, fl *flow.Flow, snapshot *pool.Snapshot, req Request, att attempt) (*Result, *flow.Error) {
	baseIn := scale(req.BaseAmount, att.scalePct)
	fyIn := scale(req.FYAmount, att.scalePct)

	bounds, ferr := o.computeBounds(snapshot, req, att)
	if ferr != nil {
		return nil, ferr
	}

	helper, ferr := o.ensureHelper(ctx, fl)
	if ferr != nil {
		return nil, ferr
	}

	helperABI, err := contracts.HelperABI()
	if err != nil {
		return nil, flow.UnknownError("mint", fmt.Errorf("parse helper abi: %w", err))
	}
	callData, err := helperABI.Pack("addLiquidity", o.market.Pool, baseIn, fyIn, bounds.Min, bounds.Max)
	if err != nil {
		return nil, flow.UnknownError("mint", fmt.Errorf("pack addLiquidity: %w", err))
	}

	// Dry-run before any allowance signature: never prompt the wallet
	// for an operation guaranteed to fail.
	if ferr := o.simulate(ctx, helper, callData); ferr != nil {
		return nil, ferr
	}

	if ferr := o.ensureAllowance(ctx, fl, "approve-base", o.market.Base, helper, baseIn, o.market.ResetApproval); ferr != nil {
		return nil, ferr
	}
	if ferr := o.ensureAllowance(ctx, fl, "approve-fy", o.market.FYToken, helper, fyIn, false); ferr != nil {
		return nil, ferr
	}

	// State can change while a wallet prompt is open; re-check right
	// before the final signed submission.
	if _, err := o.deps.Guard.AssertMintable(ctx); err != nil {
		return nil, classifyGuardError(err)
	}

	receipt, ferr := fl.Run(ctx, "mint", flow.TxRequest{To: addrPtr(helper), Data: callData})
	if ferr != nil {
		return nil, ferr
	}

	outcome, err := AttributeMint(receipt, o.market, o.account)
	if err != nil {
		return nil, flow.UnknownError("attribute", err)
	}
	o.deps.Logger.Info("mint confirmed",
		zap.String("tx", receipt.TxHash.Hex()),
		zap.String("lp_minted", outcome.LPMinted.String()),
		zap.String("base_used", outcome.BaseUsed.String()),
		zap.String("fy_used", outcome.FYUsed.String()),
	)

	return &Result{
		Outcome: outcome,
		TxHash:  receipt.TxHash,
		Note:    att.note,
		Steps:   fl.Steps(),
	}, nil
}

func (o *Orchestrator) computeBounds(snapshot *pool.Snapshot, req Request, att attempt) (pool.Bounds, *flow.Error) {
	if att.relaxed {
		return pool.RelaxedBounds(), nil
	}
	slippage := req.SlippageBps
	if slippage == 0 {
		slippage = o.market.SlippageBps
	}
	bounds, err := pool.RatioBounds(snapshot, slippage)
	if err != nil {
		return pool.Bounds{}, flow.UnknownError("bounds", err)
	}
	return bounds, nil
}

func (o *Orchestrator) simulate(ctx context.Context, helper common.Address, callData []byte) *flow.Error {
	msg := callMsg(o.account, helper, callData)
	if _, err := o.deps.Reader.CallContract(ctx, msg, nil); err != nil {
		return flow.SimulateError("mint", err)
	}
	return nil
}

// ensureAllowance grants the spender at least amount, resetting to zero
// first for tokens that require it.
func (o *Orchestrator) ensureAllowance(ctx context.Context, fl *flow.Flow, label string, token, spender common.Address, amount *big.Int, resetFirst bool) *flow.Error {
	if amount.Sign() == 0 {
		return nil
	}
	current, err := erc20.Allowance(ctx, o.deps.Reader, token, o.account, spender)
	if err != nil {
		return flow.UnknownError(label, err)
	}
	if current.Cmp(amount) >= 0 {
		return nil
	}

	if resetFirst && current.Sign() > 0 {
		resetData, err := erc20.ApproveData(spender, new(big.Int))
		if err != nil {
			return flow.UnknownError(label, err)
		}
		if _, ferr := fl.Run(ctx, label+"-reset", flow.TxRequest{To: addrPtr(token), Data: resetData}); ferr != nil {
			return ferr
		}
	}

	approveData, err := erc20.ApproveData(spender, amount)
	if err != nil {
		return flow.UnknownError(label, err)
	}
	if _, ferr := fl.Run(ctx, label, flow.TxRequest{To: addrPtr(token), Data: approveData}); ferr != nil {
		return ferr
	}
	return nil
}

func scale(amount *big.Int, pct int64) *big.Int {
	if pct == 100 {
		return new(big.Int).Set(amount)
	}
	scaled := new(big.Int).Mul(amount, big.NewInt(pct))
	return scaled.Quo(scaled, big.NewInt(100))
}

func addrPtr(a common.Address) *common.Address {
	out := a
	return &out
}
