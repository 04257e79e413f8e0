package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"fyDesk/internal/position"
)

func newBorrowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "borrow",
		Short: "Deposit collateral and borrow against a vault",
		RunE:  runBorrow,
	}
	cmd.Flags().String("collateral", "0", "collateral amount to deposit")
	cmd.Flags().String("amount", "0", "amount to borrow (base with --to-spot, fyTokens otherwise)")
	cmd.Flags().Bool("to-spot", false, "swap the borrowed fyTokens to the spot asset in the same call")
	cmd.Flags().Int64("slippage-bps", 0, "price tolerance in basis points (0 uses the market default)")
	return cmd
}

func runBorrow(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	desk, err := newDesk(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer desk.Close()

	collateralStr, _ := cmd.Flags().GetString("collateral")
	amountStr, _ := cmd.Flags().GetString("amount")
	toSpot, _ := cmd.Flags().GetBool("to-spot")
	slippage, _ := cmd.Flags().GetInt64("slippage-bps")

	collateral, err := parseAmount(collateralStr, desk.market.CollateralDecimals)
	if err != nil {
		return fmt.Errorf("collateral amount: %w", err)
	}
	borrowDecimals := desk.market.FYDecimals
	if toSpot {
		borrowDecimals = desk.market.BaseDecimals
	}
	amount, err := parseAmount(amountStr, borrowDecimals)
	if err != nil {
		return fmt.Errorf("borrow amount: %w", err)
	}

	orchestrator := position.New(desk.market, desk.chainID, desk.wallet.Address(), positionDeps(desk))

	result, ferr := orchestrator.Borrow(ctx, position.BorrowRequest{
		Collateral:  collateral,
		Borrow:      amount,
		ToSpot:      toSpot,
		SlippageBps: slippage,
	})
	if ferr != nil {
		return ferr
	}

	fmt.Printf("borrow confirmed (tx %s)\n", result.TxHash.Hex())
	fmt.Printf("  vault: 0x%s\n", hex.EncodeToString(result.VaultID[:]))
	if result.Quote.FYAmount != nil {
		fmt.Printf("  quoted debt: %s fyTokens\n", result.Quote.FYAmount)
	}
	return nil
}

func newLendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lend",
		Short: "Lend base into the pool at the current fixed rate",
		RunE:  runLend,
	}
	cmd.Flags().String("amount", "0", "base amount to lend")
	cmd.Flags().Int64("slippage-bps", 0, "price tolerance in basis points (0 uses the market default)")
	return cmd
}

func runLend(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	desk, err := newDesk(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer desk.Close()

	amountStr, _ := cmd.Flags().GetString("amount")
	slippage, _ := cmd.Flags().GetInt64("slippage-bps")

	amount, err := parseAmount(amountStr, desk.market.BaseDecimals)
	if err != nil {
		return fmt.Errorf("lend amount: %w", err)
	}

	orchestrator := position.New(desk.market, desk.chainID, desk.wallet.Address(), positionDeps(desk))

	result, ferr := orchestrator.Lend(ctx, position.LendRequest{
		BaseAmount:  amount,
		SlippageBps: slippage,
	})
	if ferr != nil {
		return ferr
	}

	fmt.Printf("lend confirmed (tx %s)\n", result.TxHash.Hex())
	fmt.Printf("  fyTokens received: %s (quoted %s)\n", result.FYReceived, result.Quote.FYAmount)
	return nil
}

func positionDeps(d *desk) position.Deps {
	return position.Deps{
		Reader:  d.client,
		Logs:    d.client,
		Submit:  d.wallet,
		Confirm: d.client,
		Nonces:  d.client,
		Cache:   d.cache,
		Journal: d.journal,
		Logger:  d.logger,
	}
}
