package watch

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"fyDesk/internal/contracts"
	"fyDesk/internal/metrics"
	"fyDesk/internal/pool"
	"fyDesk/internal/rates"

	"github.com/ethereum/go-ethereum/common"
)

var watchPool = common.HexToAddress("0x00000000000000000000000000000000000000F1")

// snapshotReader serves the batched pool read, optionally failing a fixed
// number of times first.
type snapshotReader struct {
	dirty     bool
	failures  int
	batchCall int
}

func (r *snapshotReader) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	return nil, fmt.Errorf("preview disabled")
}

func (r *snapshotReader) BatchCallContract(_ context.Context, msgs []ethereum.CallMsg) ([][]byte, error) {
	r.batchCall++
	if r.batchCall <= r.failures {
		return nil, fmt.Errorf("rpc unavailable")
	}
	poolABI, err := contracts.PoolABI()
	if err != nil {
		return nil, err
	}
	baseCached, fyCached := big.NewInt(1_000_000_000), big.NewInt(1_050_000_000)
	baseLive := new(big.Int).Set(baseCached)
	if r.dirty {
		baseLive.Add(baseLive, big.NewInt(1))
	}
	out := make([][]byte, 0, len(msgs))
	for _, msg := range msgs {
		method, err := poolABI.MethodById(msg.Data[:4])
		if err != nil {
			return nil, err
		}
		var encoded []byte
		switch method.Name {
		case "getCache":
			encoded, err = method.Outputs.Pack(baseCached, fyCached, uint32(0))
		case "getBaseBalance":
			encoded, err = method.Outputs.Pack(baseLive)
		case "getFYTokenBalance":
			encoded, err = method.Outputs.Pack(fyCached)
		case "totalSupply":
			encoded, err = method.Outputs.Pack(big.NewInt(1_000_000_000))
		case "maturity":
			encoded, err = method.Outputs.Pack(uint32(2_000_000_000))
		default:
			return nil, fmt.Errorf("unexpected batch method %s", method.Name)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, encoded)
	}
	return out, nil
}

func newWatcher(reader pool.Reader, m *metrics.Metrics) *Watcher {
	guard := pool.NewGuard(watchPool, reader, 6, 6, nil)
	calc := rates.NewCalculator(watchPool, nil, nil)
	return New(Config{Market: "usdc-dec", Interval: time.Hour, MaxRetries: 2, RetryBackoff: time.Millisecond}, guard, calc, m, nil)
}

func TestRefreshUpdatesGauges(t *testing.T) {
	m := metrics.New()
	w := newWatcher(&snapshotReader{}, m)

	w.refresh(context.Background())

	if got := testutil.ToFloat64(m.PoolDirty.WithLabelValues("usdc-dec")); got != 0 {
		t.Fatalf("pool dirty = %v, want 0", got)
	}
	price := testutil.ToFloat64(m.SpotPrice.WithLabelValues("usdc-dec"))
	if price < 0.95 || price > 0.96 {
		t.Fatalf("spot price = %v, want ~0.9524", price)
	}
	if got := testutil.ToFloat64(m.RateAvailable.WithLabelValues("usdc-dec")); got != 1 {
		t.Fatalf("rate available = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Refreshes.WithLabelValues("usdc-dec")); got != 1 {
		t.Fatalf("refreshes = %v, want 1", got)
	}
}

func TestRefreshMarksDirtyPool(t *testing.T) {
	m := metrics.New()
	w := newWatcher(&snapshotReader{dirty: true}, m)

	w.refresh(context.Background())

	if got := testutil.ToFloat64(m.PoolDirty.WithLabelValues("usdc-dec")); got != 1 {
		t.Fatalf("pool dirty = %v, want 1", got)
	}
}

func TestRefreshRetriesTransientFailures(t *testing.T) {
	m := metrics.New()
	reader := &snapshotReader{failures: 2}
	w := newWatcher(reader, m)

	w.refresh(context.Background())

	if reader.batchCall != 3 {
		t.Fatalf("%d batch calls, want 3 (two failures then success)", reader.batchCall)
	}
	if got := testutil.ToFloat64(m.RefreshErrors.WithLabelValues("usdc-dec")); got != 0 {
		t.Fatalf("refresh errors = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.Refreshes.WithLabelValues("usdc-dec")); got != 1 {
		t.Fatalf("refreshes = %v, want 1", got)
	}
}

func TestRefreshCountsExhaustedRetries(t *testing.T) {
	m := metrics.New()
	reader := &snapshotReader{failures: 10}
	w := newWatcher(reader, m)

	w.refresh(context.Background())

	if got := testutil.ToFloat64(m.RefreshErrors.WithLabelValues("usdc-dec")); got != 1 {
		t.Fatalf("refresh errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Refreshes.WithLabelValues("usdc-dec")); got != 0 {
		t.Fatalf("refreshes = %v, want 0", got)
	}
}

func TestReadRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := newWatcher(&snapshotReader{}, metrics.New())
	calls := 0
	err := w.readWithRetry(ctx, "snapshot", func(context.Context) error {
		calls++
		return fmt.Errorf("always failing")
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Fatalf("%d calls after cancellation, want 1", calls)
	}
}

func TestReadRetryBacksOffPerAttempt(t *testing.T) {
	w := newWatcher(&snapshotReader{}, metrics.New())
	calls := 0
	err := w.readWithRetry(context.Background(), "preview", func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("flaky read")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("%d calls, want 3", calls)
	}
}
