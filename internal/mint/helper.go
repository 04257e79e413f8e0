package mint

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fyDesk/internal/contracts"
	"fyDesk/internal/flow"
	"fyDesk/internal/store"
)

// ensureHelper returns the wallet's deposit helper contract, deploying
// it once and caching the address across runs.
func (o *Orchestrator) ensureHelper(ctx context.Context, fl *flow.Flow) (common.Address, *flow.Error) {
	cached, ok, err := o.deps.Cache.Get(ctx, o.chainID, store.PurposeHelperAddress)
	if err != nil {
		return common.Address{}, flow.UnknownError("helper", err)
	}
	if ok && common.IsHexAddress(cached) {
		return common.HexToAddress(cached), nil
	}

	if len(o.market.HelperInitCode) == 0 {
		return common.Address{}, flow.ValidationError("helper init code not configured for market %s", o.market.Name)
	}

	helperABI, err := contracts.HelperABI()
	if err != nil {
		return common.Address{}, flow.UnknownError("deploy-helper", fmt.Errorf("parse helper abi: %w", err))
	}
	ctorArgs, err := helperABI.Pack("", o.account)
	if err != nil {
		return common.Address{}, flow.UnknownError("deploy-helper", fmt.Errorf("pack constructor: %w", err))
	}
	initCode := append(append([]byte{}, o.market.HelperInitCode...), ctorArgs...)

	receipt, ferr := fl.Run(ctx, "deploy-helper", flow.TxRequest{Data: initCode})
	if ferr != nil {
		return common.Address{}, ferr
	}
	helper := receipt.ContractAddress
	o.deps.Logger.Info("deposit helper deployed",
		zap.String("helper", helper.Hex()),
		zap.String("tx", receipt.TxHash.Hex()),
	)

	if err := o.deps.Cache.Put(ctx, o.chainID, store.PurposeHelperAddress, helper.Hex()); err != nil {
		o.deps.Logger.Warn("helper address cache write failed", zap.Error(err))
	}
	return helper, nil
}

func callMsg(from, to common.Address, data []byte) ethereum.CallMsg {
	target := to
	return ethereum.CallMsg{From: from, To: &target, Data: data, Value: new(big.Int)}
}
