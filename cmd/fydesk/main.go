package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fyDesk/internal/metrics"
	"fyDesk/internal/pool"
	"fyDesk/internal/rates"
	"fyDesk/internal/store"
	"fyDesk/internal/watch"
)

func main() {
	root := &cobra.Command{
		Use:          "fydesk",
		Short:        "Fixed-rate base/fyToken market client",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "chain RPC URL")
	root.PersistentFlags().String("market", "", "market name from the config")
	root.PersistentFlags().String("private-key", "", "hex signing key (env FYDESK_PRIVATE_KEY)")
	root.PersistentFlags().String("cache-file", "./data/cache.json", "local cache path")
	root.PersistentFlags().String("pg-dsn", "", "optional Postgres DSN for the cache")
	root.PersistentFlags().String("journal", "./data/journal.jsonl", "transaction journal path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	ratesCmd := &cobra.Command{
		Use:   "rates",
		Short: "Show the spot price and annualized rate",
		RunE:  runRates,
	}
	root.AddCommand(ratesCmd)

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Show the pool snapshot and guard status",
		RunE:  runPool,
	}
	root.AddCommand(poolCmd)

	recoverCmd := &cobra.Command{
		Use:   "recover",
		Short: "Settle a pending pool delta",
		RunE:  runRecover,
	}
	root.AddCommand(recoverCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh pool state periodically and serve metrics",
		RunE:  runWatch,
	}
	watchCmd.Flags().Duration("interval", 30*time.Second, "refresh interval")
	watchCmd.Flags().String("metrics-addr", ":9090", "metrics listen address")
	watchCmd.Flags().Int("max-retries", 5, "maximum read retry attempts")
	watchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	root.AddCommand(watchCmd)

	root.AddCommand(newMintCmd(), newBorrowCmd(), newLendCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRates(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	desk, err := newDesk(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer desk.Close()

	snapshot, err := desk.guard.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	quote := desk.calc.Quote(ctx, snapshot)

	if quote.Disabled() {
		fmt.Printf("market %s: rate unavailable (%s)\n", desk.market.Name, quote.Status)
		return nil
	}
	fmt.Printf("market %s: price %s base/fy, rate %s\n",
		desk.market.Name,
		formatPrice(quote.Price),
		rates.PercentString(quote.Rate),
	)
	return nil
}

func runPool(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	desk, err := newDesk(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer desk.Close()

	snapshot, err := desk.guard.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	delta := pool.PendingDelta(snapshot)

	fmt.Printf("pool %s\n", desk.market.Pool.Hex())
	fmt.Printf("  cached: base=%s fy=%s\n", snapshot.BaseCached, snapshot.FYCached)
	fmt.Printf("  live:   base=%s fy=%s\n", snapshot.BaseBalance, snapshot.FYBalance)
	fmt.Printf("  supply: %s, maturity: %d\n", snapshot.LPSupply, snapshot.Maturity)
	if delta.Clean() {
		fmt.Println("  status: clean")
	} else {
		fmt.Printf("  status: dirty (%s), run `fydesk recover`\n", delta)
	}
	if tx, ok, err := desk.cache.Get(ctx, desk.chainID, store.PurposeInflightTransfer); err == nil && ok {
		fmt.Printf("  inflight: lend transfer %s awaiting swap\n", tx)
	}
	return nil
}

func runRecover(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	desk, err := newDesk(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer desk.Close()

	fl, err := desk.newFlow(ctx, "recover")
	if err != nil {
		return err
	}
	result, err := desk.guard.RecoverOrSync(ctx, fl, desk.wallet.Address())
	if err != nil {
		return err
	}
	if result.Action == "none" {
		fmt.Println("pool is clean, nothing to recover")
		return nil
	}
	fmt.Printf("recovered via %s (tx %s)\n", result.Action, result.TxHash.Hex())
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	desk, err := newDesk(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer desk.Close()

	m := metrics.New()
	server := &http.Server{Addr: desk.cfg.MetricsAddr, Handler: m.Handler()}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			desk.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	defer server.Close()

	watcher := watch.New(watch.Config{
		Market:       desk.market.Name,
		Interval:     desk.cfg.Interval,
		MaxRetries:   desk.cfg.MaxRetries,
		RetryBackoff: desk.cfg.RetryBackoff,
	}, desk.guard, desk.calc, m, desk.logger)

	desk.logger.Info("watch start",
		zap.String("market", desk.market.Name),
		zap.Duration("interval", desk.cfg.Interval),
		zap.String("metrics_addr", desk.cfg.MetricsAddr),
	)
	err = watcher.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
