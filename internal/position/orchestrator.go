package position

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"fyDesk/internal/contracts"
	"fyDesk/internal/erc20"
	"fyDesk/internal/flow"
	"fyDesk/internal/market"
	"fyDesk/internal/pool"
	"fyDesk/internal/store"
	"fyDesk/internal/wad"
)

// NonceSource provides the wallet's next order number at flow start.
type NonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// LogReader reads historic logs, used for vault rediscovery.
type LogReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// Deps are the collaborators a position flow needs.
type Deps struct {
	Reader  pool.Reader
	Logs    LogReader
	Submit  flow.Submitter
	Confirm flow.Confirmer
	Nonces  NonceSource
	Cache   store.Store
	Journal *flow.Journal
	Logger  *zap.Logger
}

// Orchestrator executes borrow and lend flows for one market and wallet.
type Orchestrator struct {
	market  market.Market
	chainID uint64
	account common.Address
	deps    Deps
}

// New builds a position orchestrator.
func New(m market.Market, chainID uint64, account common.Address, deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Orchestrator{market: m, chainID: chainID, account: account, deps: deps}
}

// BorrowRequest opens or extends a position. Borrow is denominated in
// base when ToSpot is set (the debt is swapped to the spot asset in the
// same call) and in fyTokens otherwise.
type BorrowRequest struct {
	Collateral  *big.Int
	Borrow      *big.Int
	ToSpot      bool
	SlippageBps int64
}

// BorrowResult reports the vault and debt of a confirmed borrow.
type BorrowResult struct {
	VaultID [12]byte
	Quote   Quote
	TxHash  common.Hash
	Steps   []*flow.Step
}

// Borrow runs the borrow flow: preflight quote, collateral approval,
// vault create-or-reuse, then one combined supply-and-borrow call.
func (o *Orchestrator) Borrow(ctx context.Context, req BorrowRequest) (*BorrowResult, *flow.Error) {
	if ferr := o.validateBorrow(ctx, req); ferr != nil {
		return nil, ferr
	}

	// Preflight the quote so a doomed borrow aborts before any
	// signature is requested.
	var quote Quote
	maxDebt := req.Borrow
	if req.ToSpot {
		quote = BorrowQuote(ctx, o.deps.Reader, o.market, req.Borrow)
		if err := quote.Err(); err != nil {
			return nil, flow.SimulateError("borrow-quote", err)
		}
		maxDebt = wad.ApplyBps(quote.FYAmount, o.slippage(req.SlippageBps))
	}

	startNonce, err := o.deps.Nonces.PendingNonceAt(ctx, o.account)
	if err != nil {
		return nil, flow.UnknownError("nonce", err)
	}
	fl := flow.New("borrow", startNonce, o.deps.Submit, o.deps.Confirm, o.deps.Journal, o.deps.Logger)

	if ferr := o.ensureCollateralAllowance(ctx, fl, req.Collateral); ferr != nil {
		return nil, ferr
	}

	vaultID, ferr := o.ensureVault(ctx, fl)
	if ferr != nil {
		return nil, ferr
	}

	routerABI, abiErr := contracts.RouterABI()
	if abiErr != nil {
		return nil, flow.UnknownError("borrow", abiErr)
	}

	var data []byte
	var packErr error
	if req.ToSpot {
		data, packErr = routerABI.Pack("serve", vaultID, o.account, req.Collateral, req.Borrow, maxDebt)
	} else {
		data, packErr = routerABI.Pack("pour", vaultID, o.account, req.Collateral, req.Borrow)
	}
	if packErr != nil {
		return nil, flow.UnknownError("borrow", packErr)
	}

	router := o.market.Router
	receipt, ferr := fl.Run(ctx, "borrow", flow.TxRequest{To: &router, Data: data})
	if ferr != nil {
		return nil, ferr
	}

	o.deps.Logger.Info("borrow confirmed",
		zap.String("tx", receipt.TxHash.Hex()),
		zap.Bool("to_spot", req.ToSpot),
	)
	return &BorrowResult{
		VaultID: vaultID,
		Quote:   quote,
		TxHash:  receipt.TxHash,
		Steps:   fl.Steps(),
	}, nil
}

func (o *Orchestrator) validateBorrow(ctx context.Context, req BorrowRequest) *flow.Error {
	if o.account == (common.Address{}) {
		return flow.ValidationError("no wallet connected")
	}
	if req.Collateral == nil || req.Collateral.Sign() <= 0 {
		return flow.ValidationError("collateral amount must be positive")
	}
	if req.Borrow == nil || req.Borrow.Sign() <= 0 {
		return flow.ValidationError("borrow amount must be positive")
	}
	balance, err := erc20.BalanceOf(ctx, o.deps.Reader, o.market.Collateral, o.account)
	if err != nil {
		return flow.ValidationError("collateral balance not loaded: %v", err)
	}
	if balance.Cmp(req.Collateral) < 0 {
		return flow.ValidationError("insufficient collateral: have %s, need %s", balance, req.Collateral)
	}
	return nil
}

func (o *Orchestrator) ensureCollateralAllowance(ctx context.Context, fl *flow.Flow, amount *big.Int) *flow.Error {
	current, err := erc20.Allowance(ctx, o.deps.Reader, o.market.Collateral, o.account, o.market.Router)
	if err != nil {
		return flow.UnknownError("approve-collateral", err)
	}
	if current.Cmp(amount) >= 0 {
		return nil
	}
	data, err := erc20.ApproveData(o.market.Router, amount)
	if err != nil {
		return flow.UnknownError("approve-collateral", err)
	}
	collateral := o.market.Collateral
	_, ferr := fl.Run(ctx, "approve-collateral", flow.TxRequest{To: &collateral, Data: data})
	return ferr
}

// LendRequest sells base into the pool for fyTokens at a fixed rate.
type LendRequest struct {
	BaseAmount  *big.Int
	SlippageBps int64
}

// LendResult reports the fyTokens received for the lent base.
type LendResult struct {
	Quote      Quote
	FYReceived *big.Int
	TxHash     common.Hash
	Steps      []*flow.Step
}

// Lend runs the lend flow: preflight quote, transfer base to the pool,
// then swap with a slippage-bounded minimum-out. The transfer's
// transaction id is persisted until the swap confirms, so an
// interrupted flow can be recovered after a reload.
func (o *Orchestrator) Lend(ctx context.Context, req LendRequest) (*LendResult, *flow.Error) {
	if ferr := o.validateLend(ctx, req); ferr != nil {
		return nil, ferr
	}

	// A transfer persisted by an interrupted lend means base may sit in
	// the pool unswapped. Refuse while the pool is unsettled; a settled
	// pool makes the entry stale and it is dropped.
	if txHash, ok, cacheErr := o.InflightTransfer(ctx); cacheErr == nil && ok {
		snapshot, snapErr := pool.Fetch(ctx, o.deps.Reader, o.market.Pool, o.market.BaseDecimals, o.market.FYDecimals)
		if snapErr != nil {
			return nil, flow.UnknownError("lend", snapErr)
		}
		if !pool.PendingDelta(snapshot).Clean() {
			return nil, flow.ValidationError("unfinished lend transfer %s is still pending, run recovery first", txHash.Hex())
		}
		o.deps.Logger.Warn("dropping settled inflight transfer", zap.String("tx", txHash.Hex()))
		if err := o.deps.Cache.Delete(ctx, o.chainID, store.PurposeInflightTransfer); err != nil {
			o.deps.Logger.Warn("inflight transfer cache delete failed", zap.Error(err))
		}
	}

	quote := LendQuote(ctx, o.deps.Reader, o.market, req.BaseAmount)
	if err := quote.Err(); err != nil {
		return nil, flow.SimulateError("lend-quote", err)
	}
	minFYOut := wad.ApplyBps(quote.FYAmount, -o.slippage(req.SlippageBps))

	startNonce, err := o.deps.Nonces.PendingNonceAt(ctx, o.account)
	if err != nil {
		return nil, flow.UnknownError("nonce", err)
	}
	fl := flow.New("lend", startNonce, o.deps.Submit, o.deps.Confirm, o.deps.Journal, o.deps.Logger)

	transferData, err := erc20.TransferData(o.market.Pool, req.BaseAmount)
	if err != nil {
		return nil, flow.UnknownError("transfer", err)
	}
	base := o.market.Base
	transferReceipt, ferr := fl.Run(ctx, "transfer", flow.TxRequest{To: &base, Data: transferData})
	if ferr != nil {
		return nil, ferr
	}
	if err := o.deps.Cache.Put(ctx, o.chainID, store.PurposeInflightTransfer, transferReceipt.TxHash.Hex()); err != nil {
		o.deps.Logger.Warn("inflight transfer cache write failed", zap.Error(err))
	}

	poolABI, abiErr := contracts.PoolABI()
	if abiErr != nil {
		return nil, flow.UnknownError("swap", abiErr)
	}
	swapData, packErr := poolABI.Pack("sellBase", o.account, minFYOut)
	if packErr != nil {
		return nil, flow.UnknownError("swap", packErr)
	}
	poolAddr := o.market.Pool
	swapReceipt, ferr := fl.Run(ctx, "swap", flow.TxRequest{To: &poolAddr, Data: swapData})
	if ferr != nil {
		return nil, ferr
	}
	if err := o.deps.Cache.Delete(ctx, o.chainID, store.PurposeInflightTransfer); err != nil {
		o.deps.Logger.Warn("inflight transfer cache delete failed", zap.Error(err))
	}

	received := fyReceived(swapReceipt, o.market, o.account)
	o.deps.Logger.Info("lend confirmed",
		zap.String("tx", swapReceipt.TxHash.Hex()),
		zap.String("fy_received", received.String()),
	)
	return &LendResult{
		Quote:      quote,
		FYReceived: received,
		TxHash:     swapReceipt.TxHash,
		Steps:      fl.Steps(),
	}, nil
}

// InflightTransfer reports the base transfer persisted by an
// interrupted lend flow, if one lingers in the cache.
func (o *Orchestrator) InflightTransfer(ctx context.Context) (common.Hash, bool, error) {
	value, ok, err := o.deps.Cache.Get(ctx, o.chainID, store.PurposeInflightTransfer)
	if err != nil || !ok {
		return common.Hash{}, false, err
	}
	return common.HexToHash(value), true, nil
}

func (o *Orchestrator) validateLend(ctx context.Context, req LendRequest) *flow.Error {
	if o.account == (common.Address{}) {
		return flow.ValidationError("no wallet connected")
	}
	if req.BaseAmount == nil || req.BaseAmount.Sign() <= 0 {
		return flow.ValidationError("lend amount must be positive")
	}
	balance, err := erc20.BalanceOf(ctx, o.deps.Reader, o.market.Base, o.account)
	if err != nil {
		return flow.ValidationError("base balance not loaded: %v", err)
	}
	if balance.Cmp(req.BaseAmount) < 0 {
		return flow.ValidationError("insufficient base balance: have %s, need %s", balance, req.BaseAmount)
	}
	return nil
}

func (o *Orchestrator) slippage(bps int64) int64 {
	if bps > 0 {
		return bps
	}
	return o.market.SlippageBps
}

// fyReceived sums fyToken transfers to the wallet in a swap receipt.
func fyReceived(receipt *types.Receipt, m market.Market, account common.Address) *big.Int {
	total := new(big.Int)
	transferTopic := common.Hash(contracts.TransferTopic())
	accountTopic := common.BytesToHash(account.Bytes())
	for _, log := range receipt.Logs {
		if log.Address != m.FYToken || len(log.Topics) < 3 || log.Topics[0] != transferTopic {
			continue
		}
		if log.Topics[2] == accountTopic {
			total.Add(total, new(big.Int).SetBytes(log.Data))
		}
	}
	return total
}
