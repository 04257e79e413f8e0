package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"fyDesk/internal/flow"
)

// Wallet signs and submits transactions with a local key. It implements
// flow.Submitter; the explicit nonce always comes from the flow's
// sequencer, never from the node's own accounting.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	client  *Client
}

// NewWallet builds a wallet from a hex-encoded private key.
func NewWallet(privateKeyHex string, chainID *big.Int, client *Client) (*Wallet, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Wallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		client:  client,
	}, nil
}

// Address returns the wallet's account address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// SignAndSend signs one transaction under the given order number and
// submits it. A nil To in the request is a contract deployment.
func (w *Wallet) SignAndSend(ctx context.Context, req flow.TxRequest, nonce uint64) (common.Hash, error) {
	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		estimate, err := w.client.EstimateGas(ctx, ethereum.CallMsg{
			From:  w.address,
			To:    req.To,
			Data:  req.Data,
			Value: req.Value,
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
		}
		// Headroom for state drift between estimate and inclusion.
		gasLimit = estimate + estimate/5
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       req.To,
		Value:    req.Value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     req.Data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}
	return signed.Hash(), nil
}
