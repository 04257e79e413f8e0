// Package market holds the per-series configuration the orchestrators
// run against: contract addresses, token precisions and flow policy.
package market

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Market describes one base/fyToken series and its surrounding contracts.
type Market struct {
	Name string

	Pool       common.Address
	Base       common.Address
	FYToken    common.Address
	Router     common.Address
	Collateral common.Address

	SeriesID [6]byte
	IlkID    [6]byte

	BaseDecimals       uint8
	FYDecimals         uint8
	CollateralDecimals uint8

	// ResetApproval marks base tokens whose approve() reverts unless the
	// current allowance is first reset to zero.
	ResetApproval bool

	// SlippageBps is the default ratio/price tolerance in basis points.
	SlippageBps int64

	// HelperInitCode is the deposit helper's deployment bytecode,
	// deployed once per wallet and cached.
	HelperInitCode []byte
}

// Definition is the raw config-file shape of a market.
type Definition struct {
	Name               string `mapstructure:"name"`
	Pool               string `mapstructure:"pool"`
	Base               string `mapstructure:"base"`
	FYToken            string `mapstructure:"fytoken"`
	Router             string `mapstructure:"router"`
	Collateral         string `mapstructure:"collateral"`
	SeriesID           string `mapstructure:"series-id"`
	IlkID              string `mapstructure:"ilk-id"`
	BaseDecimals       uint8  `mapstructure:"base-decimals"`
	FYDecimals         uint8  `mapstructure:"fy-decimals"`
	CollateralDecimals uint8  `mapstructure:"collateral-decimals"`
	ResetApproval      bool   `mapstructure:"reset-approval"`
	SlippageBps        int64  `mapstructure:"slippage-bps"`
	HelperInitCode     string `mapstructure:"helper-init-code"`
}

// Parse validates and converts a definition into a Market.
func Parse(def Definition) (Market, error) {
	m := Market{
		Name:               def.Name,
		BaseDecimals:       def.BaseDecimals,
		FYDecimals:         def.FYDecimals,
		CollateralDecimals: def.CollateralDecimals,
		ResetApproval:      def.ResetApproval,
		SlippageBps:        def.SlippageBps,
	}
	if m.Name == "" {
		return Market{}, fmt.Errorf("market name is required")
	}
	var err error
	if m.Pool, err = parseAddress("pool", def.Pool); err != nil {
		return Market{}, err
	}
	if m.Base, err = parseAddress("base", def.Base); err != nil {
		return Market{}, err
	}
	if m.FYToken, err = parseAddress("fytoken", def.FYToken); err != nil {
		return Market{}, err
	}
	if def.Router != "" {
		if m.Router, err = parseAddress("router", def.Router); err != nil {
			return Market{}, err
		}
	}
	if def.Collateral != "" {
		if m.Collateral, err = parseAddress("collateral", def.Collateral); err != nil {
			return Market{}, err
		}
	}
	if def.SeriesID != "" {
		if m.SeriesID, err = parseBytes6("series-id", def.SeriesID); err != nil {
			return Market{}, err
		}
	}
	if def.IlkID != "" {
		if m.IlkID, err = parseBytes6("ilk-id", def.IlkID); err != nil {
			return Market{}, err
		}
	}
	if def.HelperInitCode != "" {
		code, err := hexutil.Decode(def.HelperInitCode)
		if err != nil {
			return Market{}, fmt.Errorf("helper-init-code: %w", err)
		}
		m.HelperInitCode = code
	}
	if m.SlippageBps == 0 {
		m.SlippageBps = 100
	}
	return m, nil
}

func parseAddress(field, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, value)
	}
	return common.HexToAddress(value), nil
}

func parseBytes6(field, value string) ([6]byte, error) {
	var out [6]byte
	data, err := hexutil.Decode(value)
	if err != nil {
		return out, fmt.Errorf("%s: %w", field, err)
	}
	if len(data) != 6 {
		return out, fmt.Errorf("%s: want 6 bytes, got %d", field, len(data))
	}
	copy(out[:], data)
	return out, nil
}
