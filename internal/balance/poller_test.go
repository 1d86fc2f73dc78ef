package balance

import (
	"context"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestBatchFetchAllOrNothing(t *testing.T) {
	fetch := BatchFetch(
		Leg{Name: "margin", Fetch: func(context.Context) (*big.Int, error) {
			return big.NewInt(100), nil
		}},
		Leg{Name: "vault", Fetch: func(context.Context) (*big.Int, error) {
			return nil, errors.New("boom")
		}},
	)
	if _, err := fetch(context.Background()); err == nil {
		t.Fatal("expected batch error when one leg fails")
	}
}

func TestPollerFailedTickKeepsValues(t *testing.T) {
	var fail atomic.Bool
	fetch := func(context.Context) (Batch, error) {
		if fail.Load() {
			return nil, errors.New("down")
		}
		return Batch{"margin": big.NewInt(42)}, nil
	}
	p := NewPoller(fetch, time.Hour, nil)
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	fail.Store(true)
	p.tickOnce(context.Background())

	if got := p.Get("margin"); got.Int64() != 42 {
		t.Fatalf("value lost on failed tick: %s", got)
	}
}

func TestPollerInactiveZeroesValues(t *testing.T) {
	var active atomic.Bool
	active.Store(true)
	p := NewPoller(func(context.Context) (Batch, error) {
		return Batch{"margin": big.NewInt(7)}, nil
	}, time.Hour, active.Load)

	p.tickOnce(context.Background())
	if got := p.Get("margin"); got.Int64() != 7 {
		t.Fatalf("expected 7, got %s", got)
	}

	active.Store(false)
	p.tickOnce(context.Background())
	if got := p.Get("margin"); got.Sign() != 0 {
		t.Fatalf("stale balance visible after deactivation: %s", got)
	}
}

func TestPollerStopNoFurtherFetches(t *testing.T) {
	var calls atomic.Int64
	p := NewPoller(func(context.Context) (Batch, error) {
		calls.Add(1)
		return Batch{"margin": big.NewInt(1)}, nil
	}, 5*time.Millisecond, nil)

	p.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	n := calls.Load()
	if n == 0 {
		t.Fatal("expected at least the immediate fetch")
	}
	// zero further fetch calls across multiple interval periods
	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != n {
		t.Fatalf("fetches after Stop: %d -> %d", n, got)
	}
	if got := p.Get("margin"); got.Sign() != 0 {
		t.Fatalf("cache not zeroed on Stop: %s", got)
	}
}
