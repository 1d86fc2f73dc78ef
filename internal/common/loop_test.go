package common

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRepeatRunsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var n atomic.Int64
	done := Repeat(ctx, time.Hour, func(context.Context) { n.Add(1) })

	time.Sleep(20 * time.Millisecond)
	if got := n.Load(); got != 1 {
		t.Fatalf("expected exactly the immediate run, got %d", got)
	}
	cancel()
	<-done
}

func TestRepeatStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var n atomic.Int64
	done := Repeat(ctx, 5*time.Millisecond, func(context.Context) { n.Add(1) })

	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done
	after := n.Load()

	// No further runs are observed once the loop reports done, even across
	// multiple interval periods.
	time.Sleep(30 * time.Millisecond)
	if got := n.Load(); got != after {
		t.Fatalf("loop fired after stop: %d -> %d", after, got)
	}
}
