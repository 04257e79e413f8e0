package wad

import (
	"math/big"
	"testing"
)

func TestToWadScalesUp(t *testing.T) {
	got, err := ToWad(big.NewInt(1_234_567), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := new(big.Int).SetString("1234567000000000000", 10)
	if got.Cmp(want) != 0 {
		t.Fatalf("ToWad = %s, want %s", got, want)
	}
}

func TestToWadIdentityAt18(t *testing.T) {
	value := big.NewInt(42)
	got, err := ToWad(value, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(value) != 0 {
		t.Fatalf("ToWad = %s, want %s", got, value)
	}
	if got == value {
		t.Fatal("ToWad must copy, not alias")
	}
}

func TestToWadTruncatesDown(t *testing.T) {
	// 24-decimal value with a sub-WAD remainder: the remainder is floored.
	value, _ := new(big.Int).SetString("1000000999999", 10)
	got, err := ToWad(value, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(big.NewInt(1000000)) != 0 {
		t.Fatalf("ToWad = %s, want 1000000", got)
	}
}

func TestRoundTripNeverExceedsInput(t *testing.T) {
	values := []int64{0, 1, 999, 1_234_567, 10_000_000_000}
	for _, decimals := range []uint8{0, 6, 8, 18, 24} {
		for _, v := range values {
			value := big.NewInt(v)
			up, err := ToWad(value, decimals)
			if err != nil {
				t.Fatalf("ToWad(%d, %d): %v", v, decimals, err)
			}
			down, err := FromWad(up, decimals)
			if err != nil {
				t.Fatalf("FromWad(%s, %d): %v", up, decimals, err)
			}
			if down.Cmp(value) > 0 {
				t.Fatalf("round trip grew: %d decimals, %d -> %s", decimals, v, down)
			}
		}
	}
}

func TestToWadRejectsOutOfRangeDecimals(t *testing.T) {
	if _, err := ToWad(big.NewInt(1), 25); err == nil {
		t.Fatal("expected error for decimals above 24")
	}
}

func TestApplyBps(t *testing.T) {
	value := big.NewInt(10000)
	if got := ApplyBps(value, 100); got.Cmp(big.NewInt(10100)) != 0 {
		t.Fatalf("ApplyBps(+100) = %s, want 10100", got)
	}
	if got := ApplyBps(value, -100); got.Cmp(big.NewInt(9900)) != 0 {
		t.Fatalf("ApplyBps(-100) = %s, want 9900", got)
	}
	if got := ApplyBps(value, 0); got.Cmp(value) != 0 {
		t.Fatalf("ApplyBps(0) = %s, want %s", got, value)
	}
}

func TestDivByZeroIsNil(t *testing.T) {
	if got := Div(big.NewInt(1), big.NewInt(0)); got != nil {
		t.Fatalf("Div by zero = %s, want nil", got)
	}
}

func TestFormat(t *testing.T) {
	price, _ := new(big.Int).SetString("952380952380952380", 10)
	if got := Format(price, 6); got != "0.952380" {
		t.Fatalf("Format = %q, want 0.952380", got)
	}
	negative, _ := new(big.Int).SetString("-1500000000000000000", 10)
	if got := Format(negative, 2); got != "-1.50" {
		t.Fatalf("Format = %q, want -1.50", got)
	}
}
