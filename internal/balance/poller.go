package balance

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/riverrfinance/riverr-go/internal/common"
	"github.com/riverrfinance/riverr-go/pkg/logger"
)

// Batch is a named set of scaled balances that belong to one point in
// time. A batch updates the cache atomically or not at all, so a pair of
// related balances is never shown from two different ticks.
type Batch map[string]*big.Int

// FetchFunc returns all tracked balances for one tick.
type FetchFunc func(ctx context.Context) (Batch, error)

// Leg is one balance inside a fan-out batch.
type Leg struct {
	Name  string
	Fetch func(ctx context.Context) (*big.Int, error)
}

// BatchFetch fans the legs out concurrently and fans the results back in.
// Any leg failing fails the whole batch.
func BatchFetch(legs ...Leg) FetchFunc {
	return func(ctx context.Context) (Batch, error) {
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			out  = make(Batch, len(legs))
			errs = make(chan error, len(legs))
		)
		wg.Add(len(legs))
		for _, leg := range legs {
			leg := leg
			go func() {
				defer wg.Done()
				v, err := leg.Fetch(ctx)
				if err != nil {
					errs <- err
					return
				}
				mu.Lock()
				out[leg.Name] = v
				mu.Unlock()
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	}
}

// Poller keeps a transient cache of remote balances, refreshed on an
// interval while its activation condition holds. The cache's staleness
// window is the poll interval; it is zeroed, not left stale, whenever the
// poller deactivates or stops.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration
	active   func() bool

	mu     sync.RWMutex
	values Batch

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   <-chan struct{}
}

// NewPoller builds a poller. active may be nil (always active).
func NewPoller(fetch FetchFunc, interval time.Duration, active func() bool) *Poller {
	if active == nil {
		active = func() bool { return true }
	}
	return &Poller{
		fetch:    fetch,
		interval: interval,
		active:   active,
		values:   Batch{},
	}
}

// Start launches the poll loop: an immediate refresh, then one per
// interval. Calling Start on a running poller restarts it.
func (p *Poller) Start(ctx context.Context) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	p.stopLocked()

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = common.Repeat(loopCtx, p.interval, p.tickOnce)
}

// Stop cancels the loop, waits for it to exit and zeroes the cache.
func (p *Poller) Stop() {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil

	p.mu.Lock()
	p.values = Batch{}
	p.mu.Unlock()
}

func (p *Poller) tickOnce(ctx context.Context) {
	if !p.active() {
		p.mu.Lock()
		p.values = Batch{}
		p.mu.Unlock()
		return
	}
	if err := p.Refresh(ctx); err != nil {
		// retried next tick, last-known values kept
		logger.Warnf("[balance] refresh failed: %v", err)
	}
}

// Refresh fetches one batch immediately and, on success, replaces the
// cache wholesale. Used by the transaction views after a modal closes so
// the UI reflects post-transaction state.
func (p *Poller) Refresh(ctx context.Context) error {
	batch, err := p.fetch(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.values = batch
	p.mu.Unlock()
	return nil
}

// Get returns the cached balance for name; zero when unknown.
func (p *Poller) Get(name string) *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[name]; ok {
		return new(big.Int).Set(v)
	}
	return big.NewInt(0)
}
