package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"fyDesk/internal/mint"
)

func newMintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Add liquidity to the pool",
		RunE:  runMint,
	}
	cmd.Flags().String("base", "0", "base amount to deposit")
	cmd.Flags().String("fy", "0", "fyToken amount to deposit")
	cmd.Flags().Int64("slippage-bps", 0, "ratio tolerance in basis points (0 uses the market default)")
	cmd.Flags().Bool("relaxed", false, "skip the ratio bounds check")
	return cmd
}

func runMint(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	desk, err := newDesk(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer desk.Close()

	baseStr, _ := cmd.Flags().GetString("base")
	fyStr, _ := cmd.Flags().GetString("fy")
	slippage, _ := cmd.Flags().GetInt64("slippage-bps")
	relaxed, _ := cmd.Flags().GetBool("relaxed")

	baseAmount, err := parseAmount(baseStr, desk.market.BaseDecimals)
	if err != nil {
		return fmt.Errorf("base amount: %w", err)
	}
	fyAmount, err := parseAmount(fyStr, desk.market.FYDecimals)
	if err != nil {
		return fmt.Errorf("fy amount: %w", err)
	}

	orchestrator := mint.New(desk.market, desk.chainID, desk.wallet.Address(), mint.Deps{
		Reader:  desk.client,
		Guard:   desk.guard,
		Submit:  desk.wallet,
		Confirm: desk.client,
		Nonces:  desk.client,
		Cache:   desk.cache,
		Journal: desk.journal,
		Logger:  desk.logger,
	})

	result, ferr := orchestrator.Mint(ctx, mint.Request{
		BaseAmount:   baseAmount,
		FYAmount:     fyAmount,
		SlippageBps:  slippage,
		RelaxedRatio: relaxed,
	})
	if ferr != nil {
		return ferr
	}

	fmt.Printf("mint confirmed (tx %s)\n", result.TxHash.Hex())
	fmt.Printf("  LP minted: %s\n", result.LPMinted)
	fmt.Printf("  base used: %s (refunded %s)\n", result.BaseUsed, result.BaseRefund)
	fmt.Printf("  fy used:   %s (refunded %s)\n", result.FYUsed, result.FYRefund)
	if result.Note != "" {
		fmt.Printf("  note: %s\n", result.Note)
	}
	return nil
}

// parseAmount converts a decimal string into native token units,
// truncating digits beyond the token's precision.
func parseAmount(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty amount")
	}
	parts := strings.SplitN(value, ".", 2)
	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if len(frac) > int(decimals) {
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	combined := whole + frac
	amount, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("unparseable amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}
