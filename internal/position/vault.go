package position

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fyDesk/internal/contracts"
	"fyDesk/internal/flow"
	"fyDesk/internal/store"
)

// ensureVault returns the wallet's vault for this series, in order of
// preference: the locally cached id (verified on-chain), a rediscovered
// id from VaultBuilt logs, or a freshly built vault.
func (o *Orchestrator) ensureVault(ctx context.Context, fl *flow.Flow) ([12]byte, *flow.Error) {
	purpose := store.PurposeVaultPrefix + hex.EncodeToString(o.market.SeriesID[:])

	cached, ok, err := o.deps.Cache.Get(ctx, o.chainID, purpose)
	if err == nil && ok {
		if vaultID, parseErr := parseVaultID(cached); parseErr == nil {
			if o.vaultOwnedByAccount(ctx, vaultID) {
				return vaultID, nil
			}
			// Stale cache entry; forget it and rediscover.
			_ = o.deps.Cache.Delete(ctx, o.chainID, purpose)
		}
	}

	if vaultID, found := o.rediscoverVault(ctx); found {
		o.cacheVault(ctx, purpose, vaultID)
		return vaultID, nil
	}

	vaultID, ferr := o.buildVault(ctx, fl)
	if ferr != nil {
		return [12]byte{}, ferr
	}
	o.cacheVault(ctx, purpose, vaultID)
	return vaultID, nil
}

func (o *Orchestrator) cacheVault(ctx context.Context, purpose string, vaultID [12]byte) {
	if err := o.deps.Cache.Put(ctx, o.chainID, purpose, "0x"+hex.EncodeToString(vaultID[:])); err != nil {
		o.deps.Logger.Warn("vault cache write failed", zap.Error(err))
	}
}

// vaultOwnedByAccount verifies a cached vault still belongs to the wallet.
func (o *Orchestrator) vaultOwnedByAccount(ctx context.Context, vaultID [12]byte) bool {
	routerABI, err := contracts.RouterABI()
	if err != nil {
		return false
	}
	data, err := routerABI.Pack("vaults", vaultID)
	if err != nil {
		return false
	}
	to := o.market.Router
	resp, err := o.deps.Reader.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return false
	}
	values, err := routerABI.Unpack("vaults", resp)
	if err != nil || len(values) < 2 {
		return false
	}
	owner, ok := values[0].(common.Address)
	if !ok || owner != o.account {
		return false
	}
	seriesID, ok := values[1].([6]byte)
	return ok && seriesID == o.market.SeriesID
}

// rediscoverVault scans VaultBuilt logs for a vault this wallet built
// for this series; the cache may have been lost across reloads.
func (o *Orchestrator) rediscoverVault(ctx context.Context) ([12]byte, bool) {
	if o.deps.Logs == nil {
		return [12]byte{}, false
	}
	routerABI, err := contracts.RouterABI()
	if err != nil {
		return [12]byte{}, false
	}
	builtEvent, ok := routerABI.Events["VaultBuilt"]
	if !ok {
		return [12]byte{}, false
	}
	latest, err := o.deps.Logs.LatestBlockNumber(ctx)
	if err != nil {
		return [12]byte{}, false
	}

	logs, err := o.deps.Logs.FilterLogs(ctx, 0, latest, []common.Address{o.market.Router}, []common.Hash{builtEvent.ID})
	if err != nil {
		o.deps.Logger.Debug("vault rediscovery failed", zap.Error(err))
		return [12]byte{}, false
	}

	ownerTopic := common.BytesToHash(o.account.Bytes())
	var seriesTopic common.Hash
	copy(seriesTopic[:6], o.market.SeriesID[:])

	// Latest build wins.
	for i := len(logs) - 1; i >= 0; i-- {
		log := logs[i]
		if len(log.Topics) < 4 || log.Topics[2] != ownerTopic || log.Topics[3] != seriesTopic {
			continue
		}
		var vaultID [12]byte
		copy(vaultID[:], log.Topics[1][:12])
		return vaultID, true
	}
	return [12]byte{}, false
}

// buildVault creates a new vault for the market's series and collateral.
func (o *Orchestrator) buildVault(ctx context.Context, fl *flow.Flow) ([12]byte, *flow.Error) {
	routerABI, err := contracts.RouterABI()
	if err != nil {
		return [12]byte{}, flow.UnknownError("build-vault", fmt.Errorf("parse router abi: %w", err))
	}
	data, err := routerABI.Pack("build", o.market.SeriesID, o.market.IlkID)
	if err != nil {
		return [12]byte{}, flow.UnknownError("build-vault", fmt.Errorf("pack build: %w", err))
	}

	router := o.market.Router
	receipt, ferr := fl.Run(ctx, "build-vault", flow.TxRequest{To: &router, Data: data})
	if ferr != nil {
		return [12]byte{}, ferr
	}

	builtEvent := routerABI.Events["VaultBuilt"]
	for _, log := range receipt.Logs {
		if log.Address != o.market.Router || len(log.Topics) < 2 || log.Topics[0] != builtEvent.ID {
			continue
		}
		var vaultID [12]byte
		copy(vaultID[:], log.Topics[1][:12])
		o.deps.Logger.Info("vault built", zap.String("vault", "0x"+hex.EncodeToString(vaultID[:])))
		return vaultID, nil
	}
	return [12]byte{}, flow.UnknownError("build-vault", fmt.Errorf("no VaultBuilt event in receipt %s", receipt.TxHash.Hex()))
}

func parseVaultID(value string) ([12]byte, error) {
	var vaultID [12]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
	if err != nil {
		return vaultID, err
	}
	if len(raw) != 12 {
		return vaultID, fmt.Errorf("vault id must be 12 bytes, got %d", len(raw))
	}
	copy(vaultID[:], raw)
	return vaultID, nil
}
