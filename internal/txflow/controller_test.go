package txflow

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"

	"github.com/riverrfinance/riverr-go/internal/execution"
	"github.com/riverrfinance/riverr-go/pkg/fixedpoint"
)

func succeedRun(_ context.Context, onState func(execution.State)) execution.Run {
	onState(execution.Executing)
	return execution.Run{State: execution.Done, Result: "tx-1"}
}

func failRun(msg string) RunFunc {
	return func(_ context.Context, onState func(execution.State)) execution.Run {
		onState(execution.Approving)
		return execution.Run{State: execution.Failed, Err: &execution.ExecutionError{Message: msg}}
	}
}

func TestSubmitGuardedByValidation(t *testing.T) {
	c := New(false, nil)
	if c.Submit(fixedpoint.InsufficientBalance) {
		t.Fatal("submit must be inert on invalid amount")
	}
	if c.View() != Input {
		t.Fatalf("view=%v", c.View())
	}
	if !c.Submit(fixedpoint.Ok) {
		t.Fatal("submit should pass with Ok")
	}
	if c.View() != Preview {
		t.Fatalf("view=%v", c.View())
	}
}

func TestSubmitGuardedByTerms(t *testing.T) {
	c := New(true, nil)
	if c.Submit(fixedpoint.Ok) {
		t.Fatal("submit must be inert until terms accepted")
	}
	c.AcceptTerms(true)
	if !c.Submit(fixedpoint.Ok) {
		t.Fatal("submit should pass once terms accepted")
	}
}

func TestConfirmSuccess(t *testing.T) {
	c := New(false, nil)
	c.SetAmount("70")
	c.Submit(fixedpoint.Ok)

	if !c.Confirm(context.Background(), succeedRun) {
		t.Fatal("confirm rejected from Preview")
	}
	if c.View() != Result {
		t.Fatalf("view=%v", c.View())
	}
	if c.Error() != "" {
		t.Fatalf("unexpected error %q", c.Error())
	}
	if c.CurrentAction() != "" {
		t.Fatalf("action not cleared: %q", c.CurrentAction())
	}
}

func TestConfirmSurfacesServiceMessage(t *testing.T) {
	c := New(false, nil)
	c.Submit(fixedpoint.Ok)
	c.Confirm(context.Background(), failRun("insufficient vault liquidity"))

	if c.View() != Result {
		t.Fatalf("view=%v", c.View())
	}
	if c.Error() != "insufficient vault liquidity" {
		t.Fatalf("error got=%q", c.Error())
	}
}

func TestConfirmIsInertOutsidePreview(t *testing.T) {
	c := New(false, nil)
	if c.Confirm(context.Background(), succeedRun) {
		t.Fatal("confirm must be inert in Input")
	}
	// from a failed Result only Input is reachable, never Executing again
	c.Submit(fixedpoint.Ok)
	c.Confirm(context.Background(), failRun("nope"))
	if c.Confirm(context.Background(), succeedRun) {
		t.Fatal("confirm must be inert in Result")
	}
}

func TestTryAgainPreservesAmount(t *testing.T) {
	c := New(false, nil)
	c.SetAmount("12.5")
	c.Submit(fixedpoint.Ok)
	c.Confirm(context.Background(), failRun("nope"))

	if !c.TryAgain() {
		t.Fatal("try again rejected")
	}
	if c.View() != Input {
		t.Fatalf("view=%v", c.View())
	}
	if c.Error() != "" || c.CurrentAction() != "" {
		t.Fatal("error/action must be cleared on TryAgain")
	}
	if c.Amount() != "12.5" {
		t.Fatalf("amount not preserved: %q", c.Amount())
	}
}

func TestCloseResetsAndRefreshes(t *testing.T) {
	var refreshed atomic.Int64
	c := New(false, func(context.Context) { refreshed.Add(1) })
	c.SetAmount("5")
	c.Submit(fixedpoint.Ok)
	c.Confirm(context.Background(), failRun("x"))

	c.Close(context.Background())
	if c.View() != Input || c.Amount() != "" || c.Error() != "" {
		t.Fatal("close must fully reset the controller")
	}
	if refreshed.Load() != 1 {
		t.Fatalf("refresh calls got=%d want=1", refreshed.Load())
	}
}

func TestCloseDuringRunDropsLateOutcome(t *testing.T) {
	c := New(false, nil)
	c.Submit(fixedpoint.Ok)

	started := make(chan struct{})
	release := make(chan struct{})
	confirmed := make(chan struct{})
	go func() {
		defer close(confirmed)
		c.Confirm(context.Background(), func(_ context.Context, onState func(execution.State)) execution.Run {
			close(started)
			<-release
			onState(execution.Approving)
			return execution.Run{State: execution.Failed, Err: &execution.ExecutionError{Message: "late failure"}}
		})
	}()

	<-started
	c.Close(context.Background())
	close(release)
	<-confirmed

	if c.View() != Input {
		t.Fatalf("view=%v, want Input after close", c.View())
	}
	if c.Error() != "" {
		t.Fatalf("stale error %q leaked past Close", c.Error())
	}
	if c.CurrentAction() != "" {
		t.Fatalf("stale action %q leaked past Close", c.CurrentAction())
	}
}

func TestErrorFallbackWhenMessageEmpty(t *testing.T) {
	c := New(false, nil)
	c.Submit(fixedpoint.Ok)
	c.Confirm(context.Background(), func(context.Context, func(execution.State)) execution.Run {
		return execution.Run{State: execution.Failed, Err: errors.New("")}
	})
	if c.Error() != FallbackError {
		t.Fatalf("error got=%q want fallback", c.Error())
	}
}
