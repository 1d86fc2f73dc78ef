package pricefeed

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/riverrfinance/riverr-go/internal/common"
	"github.com/riverrfinance/riverr-go/internal/ports"
	"github.com/riverrfinance/riverr-go/pkg/logger"
)

// CrossRate is the derived base/quote price and its recombined 24h change.
// Recomputed wholesale every tick; it carries no identity between ticks.
type CrossRate struct {
	Price     float64
	Change24h float64
	UpdatedAt time.Time
}

// changeDenominatorFloor guards the recombination formula: as the quote
// leg's 24h change approaches -100% the denominator approaches zero and
// the output diverges. Below this floor the previous change is retained.
const changeDenominatorFloor = 1e-9

// Engine polls two single-asset quotes and derives the cross rate.
// Fetch failures keep the previous value; nothing is surfaced to the user.
type Engine struct {
	source   ports.PriceSource
	baseID   string
	quoteID  string
	interval time.Duration

	mu      sync.RWMutex
	current CrossRate
	hasRate bool
}

func NewEngine(source ports.PriceSource, baseID, quoteID string, interval time.Duration) *Engine {
	return &Engine{
		source:   source,
		baseID:   baseID,
		quoteID:  quoteID,
		interval: interval,
	}
}

// Start begins polling until ctx is cancelled. The returned channel is
// closed once the loop (and its ticker) is gone.
func (e *Engine) Start(ctx context.Context) <-chan struct{} {
	return common.Repeat(ctx, e.interval, e.refresh)
}

// Current returns the latest cross rate; false until the first
// successful refresh.
func (e *Engine) Current() (CrossRate, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current, e.hasRate
}

// refresh fetches both legs concurrently and recomputes the rate.
// Either leg failing leaves the previous value in place.
func (e *Engine) refresh(ctx context.Context) {
	var (
		wg          sync.WaitGroup
		base, quote ports.Quote
		baseErr     error
		quoteErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		base, baseErr = e.source.GetQuote(ctx, e.baseID)
	}()
	go func() {
		defer wg.Done()
		quote, quoteErr = e.source.GetQuote(ctx, e.quoteID)
	}()
	wg.Wait()

	if baseErr != nil || quoteErr != nil {
		logger.Warnf("[pricefeed] refresh %s/%s failed (base=%v quote=%v), keeping previous rate",
			e.baseID, e.quoteID, baseErr, quoteErr)
		return
	}
	if quote.Price == 0 {
		logger.Warnf("[pricefeed] quote leg %s returned zero price, keeping previous rate", e.quoteID)
		return
	}

	price := base.Price / quote.Price
	change, ok := DeriveChange(base.Change24h, quote.Change24h)

	e.mu.Lock()
	if !ok {
		// keep the previous change; still publish the fresh price
		change = e.current.Change24h
		logger.Warnf("[pricefeed] %s/%s change denominator near zero (quote change=%.6f), retaining previous change",
			e.baseID, e.quoteID, quote.Change24h)
	}
	e.current = CrossRate{Price: price, Change24h: change, UpdatedAt: time.Now()}
	e.hasRate = true
	e.mu.Unlock()
}

// DeriveChange recombines two 24h percent changes into the pair's change:
// ((base - quote) * 100) / (quote + 100). Returns false when the
// denominator is too close to zero for the result to mean anything.
func DeriveChange(baseChange, quoteChange float64) (float64, bool) {
	den := quoteChange + 100
	if math.Abs(den) < changeDenominatorFloor {
		return 0, false
	}
	return (baseChange - quoteChange) * 100 / den, true
}
