package market

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fyDesk/internal/contracts"
	"fyDesk/internal/pool"
)

// EnsureDecimals fills in any missing token precisions by calling
// decimals() on the tokens, so market config may omit them.
func EnsureDecimals(ctx context.Context, reader pool.Reader, m *Market, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m.BaseDecimals == 0 {
		decimals, err := fetchDecimals(ctx, reader, m.Base)
		if err != nil {
			return fmt.Errorf("base decimals: %w", err)
		}
		m.BaseDecimals = decimals
		logger.Debug("discovered base decimals", zap.String("token", m.Base.Hex()), zap.Uint8("decimals", decimals))
	}
	if m.FYDecimals == 0 {
		decimals, err := fetchDecimals(ctx, reader, m.FYToken)
		if err != nil {
			return fmt.Errorf("fyToken decimals: %w", err)
		}
		m.FYDecimals = decimals
		logger.Debug("discovered fyToken decimals", zap.String("token", m.FYToken.Hex()), zap.Uint8("decimals", decimals))
	}
	if m.CollateralDecimals == 0 && m.Collateral != (common.Address{}) {
		decimals, err := fetchDecimals(ctx, reader, m.Collateral)
		if err != nil {
			return fmt.Errorf("collateral decimals: %w", err)
		}
		m.CollateralDecimals = decimals
	}
	return nil
}

func fetchDecimals(ctx context.Context, reader pool.Reader, token common.Address) (uint8, error) {
	erc20, err := contracts.ERC20ABI()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := erc20.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("pack decimals: %w", err)
	}
	resp, err := reader.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("call decimals: %w", err)
	}
	values, err := erc20.Unpack("decimals", resp)
	if err != nil {
		return 0, fmt.Errorf("unpack decimals: %w", err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("decimals returned %d values", len(values))
	}
	switch typed := values[0].(type) {
	case uint8:
		return typed, nil
	case *big.Int:
		return uint8(typed.Uint64()), nil
	default:
		return 0, fmt.Errorf("decimals unexpected type %T", values[0])
	}
}
