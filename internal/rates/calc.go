// Package rates derives spot prices and annualized fixed rates from
// pool reserves and time to maturity.
package rates

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fyDesk/internal/contracts"
	"fyDesk/internal/pool"
	"fyDesk/internal/revert"
	"fyDesk/internal/wad"
)

// SecondsPerYear is the annualization base (365 days).
const SecondsPerYear = 365 * 24 * 60 * 60

// Heuristic display constants. Neither has a principled derivation, so
// both stay adjustable rather than baked into the math.
var (
	// RateCeiling suppresses computed rates above 1000% from display.
	RateCeiling = new(big.Int).Mul(big.NewInt(10), wad.One)
	// QuoteBandFactor discards a trial-sell quote further than 4x from
	// the reserve price in either direction (thin-liquidity outliers).
	QuoteBandFactor = big.NewInt(4)
)

// Status says whether a rate can be shown, and if not, why.
type Status int

const (
	StatusOK Status = iota
	// StatusMatured: the series has matured; a fixed rate no longer exists.
	StatusMatured
	// StatusNotBootstrapped: the pool has no real fyToken reserves.
	StatusNotBootstrapped
	// StatusRateRejected: the pool rejects trades implying a negative rate.
	StatusRateRejected
	// StatusAnomalous: the computed rate exceeds the display ceiling.
	StatusAnomalous
	// StatusUnavailable: any other failure to produce a trustworthy rate.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMatured:
		return "matured"
	case StatusNotBootstrapped:
		return "pool not bootstrapped"
	case StatusRateRejected:
		return "pool disallows negative rates"
	case StatusAnomalous:
		return "rate anomalous"
	default:
		return "unavailable"
	}
}

// Quote is the price/rate surface consumed by display layers.
type Quote struct {
	// Price is base per fyToken at WAD precision; nil when unavailable.
	Price *big.Int
	// Rate is the annualized rate at WAD precision; nil when the status
	// is not OK, except StatusAnomalous where the computed value is kept
	// but must not be displayed.
	Rate   *big.Int
	Status Status
}

// Disabled reports whether the display layer should show "unavailable".
func (q Quote) Disabled() bool {
	return q.Status != StatusOK
}

// Calculator derives quotes for one pool.
type Calculator struct {
	pool   common.Address
	reader pool.Reader
	logger *zap.Logger
	now    func() time.Time
}

// NewCalculator builds a calculator. The now function defaults to
// time.Now and exists for tests.
func NewCalculator(poolAddr common.Address, reader pool.Reader, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{pool: poolAddr, reader: reader, logger: logger, now: time.Now}
}

// SpotPrice is the reserve-implied base-per-fyToken price at WAD.
func SpotPrice(s *pool.Snapshot) (*big.Int, error) {
	return pool.ReserveRatio(s)
}

// Quote computes the full price/rate surface from a snapshot, preferring
// a curve-aware trial-sell quote when one is available and sane.
func (c *Calculator) Quote(ctx context.Context, s *pool.Snapshot) Quote {
	if s.FYCached.Sign() <= 0 || s.LPSupply.Sign() == 0 {
		return Quote{Status: StatusNotBootstrapped}
	}

	price, err := SpotPrice(s)
	if err != nil {
		c.logger.Warn("spot price unavailable", zap.Error(err))
		return Quote{Status: StatusUnavailable}
	}

	trial, trialStatus := c.trialSellPrice(ctx, s)
	if trialStatus == StatusRateRejected {
		return Quote{Price: price, Status: StatusRateRejected}
	}
	if trial != nil && withinBand(trial, price) {
		price = trial
	}

	return AnnualRate(price, s.Maturity, uint64(c.now().Unix()))
}

// AnnualRate derives the annualized rate from a WAD price and the time
// remaining to maturity using simple linear annualization.
func AnnualRate(price *big.Int, maturity, now uint64) Quote {
	if price == nil || price.Sign() <= 0 {
		return Quote{Status: StatusUnavailable}
	}
	if maturity <= now {
		return Quote{Price: price, Status: StatusMatured}
	}
	secondsRemaining := maturity - now

	// One fyToken redeems for one base unit at maturity, so the rate is
	// the discount against the spot price, annualized linearly.
	discount := wad.Div(new(big.Int).Sub(wad.One, price), price)
	if discount == nil {
		return Quote{Price: price, Status: StatusUnavailable}
	}

	rate := new(big.Int).Mul(discount, big.NewInt(SecondsPerYear))
	rate.Quo(rate, new(big.Int).SetUint64(secondsRemaining))

	if rate.Cmp(RateCeiling) > 0 {
		return Quote{Price: price, Rate: rate, Status: StatusAnomalous}
	}
	return Quote{Price: price, Rate: rate, Status: StatusOK}
}

// trialSellPrice previews selling one fyToken and converts the result to
// a WAD price. Returns a nil price when the preview cannot be used.
func (c *Calculator) trialSellPrice(ctx context.Context, s *pool.Snapshot) (*big.Int, Status) {
	if c.reader == nil {
		return nil, StatusOK
	}
	poolABI, err := contracts.PoolABI()
	if err != nil {
		return nil, StatusOK
	}
	oneFY := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(s.FYDecimals)), nil)
	data, err := poolABI.Pack("sellFYTokenPreview", oneFY)
	if err != nil {
		return nil, StatusOK
	}
	to := c.pool
	resp, err := c.reader.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		if hint := revert.Classify(err); hint != nil && hint.Kind == revert.HintNegativeRate {
			return nil, StatusRateRejected
		}
		c.logger.Debug("trial sell preview failed", zap.Error(err))
		return nil, StatusOK
	}
	values, err := poolABI.Unpack("sellFYTokenPreview", resp)
	if err != nil || len(values) != 1 {
		return nil, StatusOK
	}
	baseOut, ok := values[0].(*big.Int)
	if !ok {
		return nil, StatusOK
	}
	priceWad, err := wad.ToWad(baseOut, s.BaseDecimals)
	if err != nil {
		return nil, StatusOK
	}
	return priceWad, StatusOK
}

// withinBand accepts a trial quote only inside [reserve/4, reserve*4].
func withinBand(trial, reserve *big.Int) bool {
	low := new(big.Int).Quo(reserve, QuoteBandFactor)
	high := new(big.Int).Mul(reserve, QuoteBandFactor)
	return trial.Cmp(low) >= 0 && trial.Cmp(high) <= 0
}

// PercentString formats a WAD rate as a percentage with two decimals.
func PercentString(rate *big.Int) string {
	if rate == nil {
		return "n/a"
	}
	return fmt.Sprintf("%s%%", wad.Format(new(big.Int).Mul(rate, big.NewInt(100)), 2))
}
