package mint

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"fyDesk/internal/contracts"
	"fyDesk/internal/market"
)

// Outcome attributes what a confirmed mint actually did: LP minted,
// amounts consumed per asset, and anything refunded to the wallet.
type Outcome struct {
	LPMinted   *big.Int
	BaseUsed   *big.Int
	FYUsed     *big.Int
	BaseRefund *big.Int
	FYRefund   *big.Int
}

// AttributeMint decodes the pool's Liquidity event and the token
// Transfer events out of a confirmed receipt.
func AttributeMint(receipt *types.Receipt, m market.Market, account common.Address) (Outcome, error) {
	out := Outcome{
		LPMinted:   new(big.Int),
		BaseUsed:   new(big.Int),
		FYUsed:     new(big.Int),
		BaseRefund: new(big.Int),
		FYRefund:   new(big.Int),
	}
	if receipt == nil {
		return out, fmt.Errorf("receipt is nil")
	}

	poolABI, err := contracts.PoolABI()
	if err != nil {
		return out, fmt.Errorf("parse pool abi: %w", err)
	}
	liquidityEvent, ok := poolABI.Events["Liquidity"]
	if !ok {
		return out, fmt.Errorf("pool abi has no Liquidity event")
	}
	transferTopic := common.Hash(contracts.TransferTopic())
	accountTopic := common.BytesToHash(account.Bytes())
	zeroTopic := common.Hash{}

	for _, log := range receipt.Logs {
		if len(log.Topics) == 0 {
			continue
		}

		if log.Address == m.Pool && log.Topics[0] == liquidityEvent.ID {
			values, err := poolABI.Unpack("Liquidity", log.Data)
			if err != nil {
				return out, fmt.Errorf("unpack Liquidity: %w", err)
			}
			if len(values) != 3 {
				return out, fmt.Errorf("Liquidity event has %d values", len(values))
			}
			bases, _ := values[0].(*big.Int)
			fyTokens, _ := values[1].(*big.Int)
			poolTokens, _ := values[2].(*big.Int)
			if bases != nil {
				out.BaseUsed = new(big.Int).Abs(bases)
			}
			if fyTokens != nil {
				out.FYUsed = new(big.Int).Abs(fyTokens)
			}
			if poolTokens != nil && poolTokens.Sign() > 0 {
				out.LPMinted = new(big.Int).Set(poolTokens)
			}
			continue
		}

		if log.Topics[0] != transferTopic || len(log.Topics) < 3 {
			continue
		}
		from, to := log.Topics[1], log.Topics[2]
		value := new(big.Int).SetBytes(log.Data)

		switch log.Address {
		case m.Base:
			if to == accountTopic {
				out.BaseRefund.Add(out.BaseRefund, value)
			}
		case m.FYToken:
			if to == accountTopic {
				out.FYRefund.Add(out.FYRefund, value)
			}
		case m.Pool:
			// LP token mint: fallback when no Liquidity event decoded.
			if from == zeroTopic && to == accountTopic && out.LPMinted.Sign() == 0 {
				out.LPMinted = value
			}
		}
	}

	return out, nil
}
