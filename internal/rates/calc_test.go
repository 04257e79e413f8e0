package rates

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"fyDesk/internal/contracts"
	"fyDesk/internal/pool"
)

var testPool = common.HexToAddress("0x2222222222222222222222222222222222222222")

func wadFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad big.Int literal %q", s)
	}
	return v
}

func snapshot(baseCached, fyCached int64) *pool.Snapshot {
	return &pool.Snapshot{
		BaseCached:   big.NewInt(baseCached),
		FYCached:     big.NewInt(fyCached),
		BaseBalance:  big.NewInt(baseCached),
		FYBalance:    big.NewInt(fyCached),
		LPSupply:     big.NewInt(1_000_000),
		Maturity:     2_000_000_000,
		BaseDecimals: 6,
		FYDecimals:   6,
	}
}

// previewReader answers sellFYTokenPreview with a canned result or error.
type previewReader struct {
	baseOut *big.Int
	err     error
}

func (r *previewReader) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	poolABI, err := contracts.PoolABI()
	if err != nil {
		return nil, err
	}
	return poolABI.Methods["sellFYTokenPreview"].Outputs.Pack(r.baseOut)
}

func (r *previewReader) BatchCallContract(_ context.Context, _ []ethereum.CallMsg) ([][]byte, error) {
	return nil, fmt.Errorf("unexpected batch call")
}

// revertWithData mimics go-ethereum's rpc.DataError.
type revertWithData struct {
	msg  string
	data interface{}
}

func (e *revertWithData) Error() string          { return e.msg }
func (e *revertWithData) ErrorData() interface{} { return e.data }

func negativeRatePayload(t *testing.T) []byte {
	t.Helper()
	spec := contracts.ErrorSpecs()[contracts.Selector(contracts.ErrSigNegativeRate)]
	args, err := spec.Arguments.Pack(big.NewInt(0), big.NewInt(1))
	if err != nil {
		t.Fatalf("pack operands: %v", err)
	}
	sel := contracts.Selector(contracts.ErrSigNegativeRate)
	return append(sel[:], args...)
}

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func TestAnnualRateThirtyDayDiscount(t *testing.T) {
	// 1000 base against 1050 fyTokens, 30 days out: price 0.952380...,
	// a 5% discount annualized to 60.83%.
	price := wadFromString(t, "952380952380952380")
	now := uint64(1_700_000_000)
	maturity := now + 30*24*60*60

	quote := AnnualRate(price, maturity, now)
	if quote.Status != StatusOK {
		t.Fatalf("status = %s, want ok", quote.Status)
	}
	wantRate := wadFromString(t, "608333333333333345")
	if quote.Rate.Cmp(wantRate) != 0 {
		t.Fatalf("rate = %s, want %s", quote.Rate, wantRate)
	}
	if got := PercentString(quote.Rate); got != "60.83%" {
		t.Fatalf("percent = %q, want 60.83%%", got)
	}
}

func TestAnnualRateMatured(t *testing.T) {
	price := wadFromString(t, "990000000000000000")
	quote := AnnualRate(price, 1_700_000_000, 1_700_000_000)
	if quote.Status != StatusMatured {
		t.Fatalf("status = %s, want matured", quote.Status)
	}
	if quote.Rate != nil {
		t.Fatalf("rate = %s, want nil", quote.Rate)
	}
	if !quote.Disabled() {
		t.Fatal("matured quote must be disabled")
	}
}

func TestAnnualRateAnomalousAboveCeiling(t *testing.T) {
	// Price 0.05 implies a 1900% discount; the quote is kept but flagged.
	price := wadFromString(t, "50000000000000000")
	now := uint64(1_700_000_000)
	quote := AnnualRate(price, now+30*24*60*60, now)
	if quote.Status != StatusAnomalous {
		t.Fatalf("status = %s, want anomalous", quote.Status)
	}
	if quote.Rate == nil {
		t.Fatal("anomalous quote must keep the computed rate")
	}
	if !quote.Disabled() {
		t.Fatal("anomalous quote must be disabled")
	}
}

func TestQuoteNotBootstrapped(t *testing.T) {
	calc := NewCalculator(testPool, nil, nil)

	s := snapshot(1_000_000_000, 0)
	if got := calc.Quote(context.Background(), s); got.Status != StatusNotBootstrapped {
		t.Fatalf("zero fy reserves: status = %s, want not bootstrapped", got.Status)
	}

	s = snapshot(1_000_000_000, 1_050_000_000)
	s.LPSupply = big.NewInt(0)
	if got := calc.Quote(context.Background(), s); got.Status != StatusNotBootstrapped {
		t.Fatalf("zero LP supply: status = %s, want not bootstrapped", got.Status)
	}
}

func TestQuoteNegativeRatePreview(t *testing.T) {
	reader := &previewReader{err: &revertWithData{
		msg:  "execution reverted",
		data: negativeRatePayload(t),
	}}
	calc := NewCalculator(testPool, reader, nil)
	calc.now = fixedClock(1_700_000_000)

	quote := calc.Quote(context.Background(), snapshot(1_000_000_000, 1_050_000_000))
	if quote.Status != StatusRateRejected {
		t.Fatalf("status = %s, want rate rejected", quote.Status)
	}
	if quote.Price == nil {
		t.Fatal("rejected quote must still carry the reserve price")
	}
}

func TestQuoteTrialSellPreferredWithinBand(t *testing.T) {
	// Preview of one fyToken returns 0.940000 base; close enough to the
	// reserve price that the curve-aware quote wins.
	reader := &previewReader{baseOut: big.NewInt(940_000)}
	calc := NewCalculator(testPool, reader, nil)
	calc.now = fixedClock(1_700_000_000)

	s := snapshot(1_000_000_000, 1_050_000_000)
	s.Maturity = 1_700_000_000 + 30*24*60*60
	quote := calc.Quote(context.Background(), s)
	if quote.Status != StatusOK {
		t.Fatalf("status = %s, want ok", quote.Status)
	}
	want := wadFromString(t, "940000000000000000")
	if quote.Price.Cmp(want) != 0 {
		t.Fatalf("price = %s, want trial price %s", quote.Price, want)
	}
}

func TestQuoteTrialSellDiscardedOutOfBand(t *testing.T) {
	// A 10x outlier from a thin pool is ignored in favor of reserves.
	reader := &previewReader{baseOut: big.NewInt(9_500_000)}
	calc := NewCalculator(testPool, reader, nil)
	calc.now = fixedClock(1_700_000_000)

	s := snapshot(1_000_000_000, 1_050_000_000)
	s.Maturity = 1_700_000_000 + 30*24*60*60
	quote := calc.Quote(context.Background(), s)
	if quote.Status != StatusOK {
		t.Fatalf("status = %s, want ok", quote.Status)
	}
	want := wadFromString(t, "952380952380952380")
	if quote.Price.Cmp(want) != 0 {
		t.Fatalf("price = %s, want reserve price %s", quote.Price, want)
	}
}

func TestPercentStringNil(t *testing.T) {
	if got := PercentString(nil); got != "n/a" {
		t.Fatalf("got %q, want n/a", got)
	}
}
