package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fyDesk/internal/chain"
	"fyDesk/internal/config"
	"fyDesk/internal/flow"
	"fyDesk/internal/market"
	"fyDesk/internal/pool"
	"fyDesk/internal/rates"
	"fyDesk/internal/store"
	"fyDesk/internal/store/postgres"
	"fyDesk/internal/wad"
)

// desk bundles the wiring every subcommand needs.
type desk struct {
	cfg     config.Config
	logger  *zap.Logger
	client  *chain.Client
	chainID uint64
	market  market.Market
	guard   *pool.Guard
	calc    *rates.Calculator
	cache   store.Store
	journal *flow.Journal
	wallet  *chain.Wallet

	pgStore *postgres.Store
}

// newDesk loads config and connects the chain client; needsWallet also
// requires a signing key.
func newDesk(ctx context.Context, cmd *cobra.Command, needsWallet bool) (*desk, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	m, err := cfg.SelectMarket()
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("get chain id: %w", err)
	}

	if err := market.EnsureDecimals(ctx, client, &m, logger); err != nil {
		client.Close()
		return nil, err
	}

	d := &desk{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		chainID: chainID.Uint64(),
		market:  m,
		guard:   pool.NewGuard(m.Pool, client, m.BaseDecimals, m.FYDecimals, logger),
		calc:    rates.NewCalculator(m.Pool, client, logger),
		journal: flow.NewJournal(cfg.Journal),
	}

	if cfg.PgDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("connect cache db: %w", err)
		}
		d.pgStore = pgStore
		d.cache = pgStore
	} else {
		d.cache = store.NewFileStore(cfg.CacheFile)
	}

	if needsWallet {
		if cfg.PrivateKey == "" {
			d.Close()
			return nil, fmt.Errorf("private key is required for signing commands")
		}
		wallet, err := chain.NewWallet(cfg.PrivateKey, chainID, client)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.wallet = wallet
		logger.Info("wallet ready", zap.String("account", wallet.Address().Hex()))
	}

	return d, nil
}

// newFlow seeds a fresh flow from the wallet's pending nonce.
func (d *desk) newFlow(ctx context.Context, name string) (*flow.Flow, error) {
	nonce, err := d.client.PendingNonceAt(ctx, d.wallet.Address())
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}
	return flow.New(name, nonce, d.wallet, d.client, d.journal, d.logger), nil
}

func (d *desk) Close() {
	if d.pgStore != nil {
		d.pgStore.Close()
	}
	if d.client != nil {
		d.client.Close()
	}
	if d.logger != nil {
		_ = d.logger.Sync()
	}
}

func formatPrice(price *big.Int) string {
	return wad.Format(price, 6)
}
