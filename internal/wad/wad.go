// Package wad provides 18-decimal fixed-point arithmetic over big.Int.
package wad

import (
	"fmt"
	"math/big"
)

// Decimals is the implied decimal count of a WAD value.
const Decimals = 18

// MaxDecimals is the largest token precision the conversions accept.
const MaxDecimals = 24

// One is 10^18, the WAD unit.
var One = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// BpsDenominator is the basis-point scale (1 bps = 1/10000).
var BpsDenominator = big.NewInt(10000)

// ToWad scales value from the given token precision to 18 decimals.
// Scaling up is exact; scaling down from precisions above 18 truncates
// toward zero, matching on-chain integer division.
func ToWad(value *big.Int, decimals uint8) (*big.Int, error) {
	if value == nil {
		return nil, fmt.Errorf("value is nil")
	}
	if decimals > MaxDecimals {
		return nil, fmt.Errorf("decimals %d out of range [0, %d]", decimals, MaxDecimals)
	}
	if decimals == Decimals {
		return new(big.Int).Set(value), nil
	}
	if decimals < Decimals {
		factor := pow10(Decimals - int(decimals))
		return new(big.Int).Mul(value, factor), nil
	}
	factor := pow10(int(decimals) - Decimals)
	return new(big.Int).Quo(new(big.Int).Set(value), factor), nil
}

// FromWad scales a WAD value back to the given token precision,
// truncating toward zero on the way down. Never rounds up.
func FromWad(value *big.Int, decimals uint8) (*big.Int, error) {
	if value == nil {
		return nil, fmt.Errorf("value is nil")
	}
	if decimals > MaxDecimals {
		return nil, fmt.Errorf("decimals %d out of range [0, %d]", decimals, MaxDecimals)
	}
	if decimals == Decimals {
		return new(big.Int).Set(value), nil
	}
	if decimals < Decimals {
		factor := pow10(Decimals - int(decimals))
		return new(big.Int).Quo(new(big.Int).Set(value), factor), nil
	}
	factor := pow10(int(decimals) - Decimals)
	return new(big.Int).Mul(value, factor), nil
}

// Mul multiplies two WAD values, truncating the result to WAD.
func Mul(a, b *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, One)
}

// Div divides a by b at WAD precision, truncating toward zero.
// Returns nil when b is zero.
func Div(a, b *big.Int) *big.Int {
	if b == nil || b.Sign() == 0 {
		return nil
	}
	scaled := new(big.Int).Mul(a, One)
	return scaled.Quo(scaled, b)
}

// ApplyBps scales value by (10000+bps)/10000; bps may be negative.
func ApplyBps(value *big.Int, bps int64) *big.Int {
	numerator := new(big.Int).Add(BpsDenominator, big.NewInt(bps))
	scaled := new(big.Int).Mul(value, numerator)
	return scaled.Quo(scaled, BpsDenominator)
}

// Format renders a WAD value as a decimal string with the given number
// of fractional digits, truncating the remainder.
func Format(value *big.Int, places int) string {
	if value == nil {
		return "0"
	}
	if places < 0 {
		places = 0
	}
	sign := ""
	abs := new(big.Int).Abs(value)
	if value.Sign() < 0 {
		sign = "-"
	}
	whole := new(big.Int)
	frac := new(big.Int)
	whole.QuoRem(abs, One, frac)
	if places == 0 {
		return fmt.Sprintf("%s%s", sign, whole)
	}
	fracScaled := new(big.Int).Quo(new(big.Int).Mul(frac, pow10(places)), One)
	return fmt.Sprintf("%s%s.%0*d", sign, whole, places, fracScaled)
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
