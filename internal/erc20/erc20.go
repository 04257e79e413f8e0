// Package erc20 packs and reads the ERC-20 surface the flows touch.
package erc20

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"fyDesk/internal/contracts"
	"fyDesk/internal/pool"
)

// BalanceOf reads a token balance.
func BalanceOf(ctx context.Context, reader pool.Reader, token, account common.Address) (*big.Int, error) {
	return readUint(ctx, reader, token, "balanceOf", account)
}

// Allowance reads a spender allowance.
func Allowance(ctx context.Context, reader pool.Reader, token, owner, spender common.Address) (*big.Int, error) {
	return readUint(ctx, reader, token, "allowance", owner, spender)
}

// ApproveData packs approve(spender, amount) calldata.
func ApproveData(spender common.Address, amount *big.Int) ([]byte, error) {
	abi, err := contracts.ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := abi.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("pack approve: %w", err)
	}
	return data, nil
}

// TransferData packs transfer(to, amount) calldata.
func TransferData(to common.Address, amount *big.Int) ([]byte, error) {
	abi, err := contracts.ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := abi.Pack("transfer", to, amount)
	if err != nil {
		return nil, fmt.Errorf("pack transfer: %w", err)
	}
	return data, nil
}

func readUint(ctx context.Context, reader pool.Reader, token common.Address, method string, args ...interface{}) (*big.Int, error) {
	abi, err := contracts.ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := reader.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := abi.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s returned %d values", method, len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s unexpected type %T", method, values[0])
	}
	return value, nil
}
