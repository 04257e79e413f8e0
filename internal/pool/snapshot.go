// Package pool reads base/fyToken pool state and guards liquidity
// operations against unsettled reserves.
package pool

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"fyDesk/internal/contracts"
)

// Reader is the slice of the chain client the pool package needs.
type Reader interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BatchCallContract(ctx context.Context, msgs []ethereum.CallMsg) ([][]byte, error)
}

// Snapshot is one consistent view of the pool: the last-settled cache,
// the live token balances, LP supply and maturity. Amounts are in native
// token precision.
type Snapshot struct {
	BaseCached  *big.Int
	FYCached    *big.Int
	BaseBalance *big.Int
	FYBalance   *big.Int
	LPSupply    *big.Int
	Maturity    uint64

	BaseDecimals uint8
	FYDecimals   uint8
}

// Fetch reads the full snapshot in one batched call.
func Fetch(ctx context.Context, reader Reader, poolAddr common.Address, baseDecimals, fyDecimals uint8) (*Snapshot, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader is nil")
	}
	poolABI, err := contracts.PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	methods := []string{"getCache", "getBaseBalance", "getFYTokenBalance", "totalSupply", "maturity"}
	msgs := make([]ethereum.CallMsg, 0, len(methods))
	for _, method := range methods {
		data, err := poolABI.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		to := poolAddr
		msgs = append(msgs, ethereum.CallMsg{To: &to, Data: data})
	}

	results, err := reader.BatchCallContract(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("snapshot batch read: %w", err)
	}
	if len(results) != len(methods) {
		return nil, fmt.Errorf("snapshot batch returned %d results, want %d", len(results), len(methods))
	}

	cacheValues, err := poolABI.Unpack("getCache", results[0])
	if err != nil {
		return nil, fmt.Errorf("unpack getCache: %w", err)
	}
	if len(cacheValues) < 2 {
		return nil, fmt.Errorf("getCache returned %d values", len(cacheValues))
	}

	snapshot := &Snapshot{
		BaseDecimals: baseDecimals,
		FYDecimals:   fyDecimals,
	}
	if snapshot.BaseCached, err = asBigInt(cacheValues[0]); err != nil {
		return nil, fmt.Errorf("base cache: %w", err)
	}
	if snapshot.FYCached, err = asBigInt(cacheValues[1]); err != nil {
		return nil, fmt.Errorf("fyToken cache: %w", err)
	}
	if snapshot.BaseBalance, err = unpackBigInt(poolABI, "getBaseBalance", results[1]); err != nil {
		return nil, err
	}
	if snapshot.FYBalance, err = unpackBigInt(poolABI, "getFYTokenBalance", results[2]); err != nil {
		return nil, err
	}
	if snapshot.LPSupply, err = unpackBigInt(poolABI, "totalSupply", results[3]); err != nil {
		return nil, err
	}
	maturity, err := unpackBigInt(poolABI, "maturity", results[4])
	if err != nil {
		return nil, err
	}
	snapshot.Maturity = maturity.Uint64()

	return snapshot, nil
}

func unpackBigInt(poolABI abi.ABI, method string, data []byte) (*big.Int, error) {
	values, err := poolABI.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s returned %d values", method, len(values))
	}
	return asBigInt(values[0])
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch typed := value.(type) {
	case *big.Int:
		return typed, nil
	case uint32:
		return new(big.Int).SetUint64(uint64(typed)), nil
	case uint64:
		return new(big.Int).SetUint64(typed), nil
	default:
		return nil, fmt.Errorf("unexpected numeric type %T", value)
	}
}
