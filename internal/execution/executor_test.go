package execution

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
)

type mockLedger struct {
	allowance    *big.Int
	allowanceErr error
	approveOK    bool
	approveErr   error

	approveCalls  int
	approvedDelta *big.Int
}

func (m *mockLedger) Decimals(context.Context) (uint8, error) { return 6, nil }
func (m *mockLedger) Name(context.Context) (string, error)    { return "Mock", nil }
func (m *mockLedger) Balance(context.Context, string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (m *mockLedger) Allowance(context.Context, string, string) (*big.Int, error) {
	if m.allowanceErr != nil {
		return nil, m.allowanceErr
	}
	return new(big.Int).Set(m.allowance), nil
}

func (m *mockLedger) ApproveSpending(_ context.Context, _ string, delta *big.Int) (bool, error) {
	m.approveCalls++
	m.approvedDelta = new(big.Int).Set(delta)
	return m.approveOK, m.approveErr
}

func req(ledger *mockLedger, amount int64, op Operation) Request {
	return Request{
		Action:  "deposit",
		Owner:   "0xowner",
		Asset:   "USDT",
		Spender: "0xvault",
		Amount:  big.NewInt(amount),
		Ledger:  ledger,
		Execute: op,
	}
}

func TestRunApprovesExactDeficit(t *testing.T) {
	// balance 100 USDT, allowance 40, deposit 70 -> approve 30, fund 70
	ledger := &mockLedger{allowance: big.NewInt(40_000000), approveOK: true}
	var executed *big.Int
	e := NewExecutor(nil)

	run := e.Run(context.Background(), req(ledger, 70_000000, func(_ context.Context, amount *big.Int) (string, error) {
		executed = amount
		return "tx-1", nil
	}))

	if run.State != Done || run.Err != nil {
		t.Fatalf("run not done: state=%v err=%v", run.State, run.Err)
	}
	if ledger.approveCalls != 1 {
		t.Fatalf("approve calls got=%d want=1", ledger.approveCalls)
	}
	if ledger.approvedDelta.Int64() != 30_000000 {
		t.Fatalf("approved delta got=%s want=30000000", ledger.approvedDelta)
	}
	if executed.Int64() != 70_000000 {
		t.Fatalf("executed amount got=%s want=70000000", executed)
	}
	if run.Result != "tx-1" {
		t.Fatalf("result got=%q", run.Result)
	}
}

func TestRunSkipsApprovalWhenCovered(t *testing.T) {
	ledger := &mockLedger{allowance: big.NewInt(100), approveOK: true}
	e := NewExecutor(nil)

	run := e.Run(context.Background(), req(ledger, 100, func(context.Context, *big.Int) (string, error) {
		return "ok", nil
	}))

	if run.State != Done {
		t.Fatalf("state=%v", run.State)
	}
	if ledger.approveCalls != 0 {
		t.Fatalf("approve should not be called, got %d calls", ledger.approveCalls)
	}
	if run.ApprovedDelta != nil {
		t.Fatalf("unexpected approved delta %s", run.ApprovedDelta)
	}
}

func TestRunAllowanceReadFailureApprovesFullAmount(t *testing.T) {
	ledger := &mockLedger{allowanceErr: errors.New("ledger down"), approveOK: true}
	e := NewExecutor(nil)

	run := e.Run(context.Background(), req(ledger, 500, func(context.Context, *big.Int) (string, error) {
		return "ok", nil
	}))

	if run.State != Done {
		t.Fatalf("state=%v err=%v", run.State, run.Err)
	}
	// read failure counts as allowance 0, never as "already approved"
	if ledger.approvedDelta.Int64() != 500 {
		t.Fatalf("approved delta got=%s want=500", ledger.approvedDelta)
	}
}

func TestRunApprovalFailureSkipsExecution(t *testing.T) {
	ledger := &mockLedger{allowance: big.NewInt(0), approveOK: false}
	var executed atomic.Bool
	e := NewExecutor(nil)

	run := e.Run(context.Background(), req(ledger, 100, func(context.Context, *big.Int) (string, error) {
		executed.Store(true)
		return "ok", nil
	}))

	if run.State != Failed {
		t.Fatalf("state=%v", run.State)
	}
	var allowanceErr *AllowanceError
	if !errors.As(run.Err, &allowanceErr) {
		t.Fatalf("expected AllowanceError, got %T", run.Err)
	}
	if run.Err.Error() != "Approval failed" {
		t.Fatalf("message got=%q", run.Err.Error())
	}
	if executed.Load() {
		t.Fatal("execution must not run after a failed approval")
	}
}

func TestRunExecutionErrorSurfacedVerbatim(t *testing.T) {
	ledger := &mockLedger{allowance: big.NewInt(1000), approveOK: true}
	e := NewExecutor(nil)

	run := e.Run(context.Background(), req(ledger, 100, func(context.Context, *big.Int) (string, error) {
		return "", errors.New("market is paused")
	}))

	if run.State != Failed {
		t.Fatalf("state=%v", run.State)
	}
	var execErr *ExecutionError
	if !errors.As(run.Err, &execErr) {
		t.Fatalf("expected ExecutionError, got %T", run.Err)
	}
	if execErr.Message != "market is paused" {
		t.Fatalf("message got=%q", execErr.Message)
	}
}

func TestRunSerializesPerOwnerAsset(t *testing.T) {
	ledger := &mockLedger{allowance: big.NewInt(0), approveOK: true}
	e := NewExecutor(nil)

	var inFlight, maxInFlight atomic.Int64
	op := func(context.Context, *big.Int) (string, error) {
		cur := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		inFlight.Add(-1)
		return "ok", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Run(context.Background(), req(ledger, 10, op))
		}()
	}
	wg.Wait()

	if maxInFlight.Load() > 1 {
		t.Fatalf("concurrent runs for one (owner, asset): max in flight = %d", maxInFlight.Load())
	}
}

type captureRecorder struct {
	runs []Run
}

func (c *captureRecorder) Record(_ context.Context, run Run) { c.runs = append(c.runs, run) }

func TestRunJournalsOutcome(t *testing.T) {
	rec := &captureRecorder{}
	ledger := &mockLedger{allowance: big.NewInt(0), approveOK: true}
	e := NewExecutor(rec)

	e.Run(context.Background(), req(ledger, 10, func(context.Context, *big.Int) (string, error) {
		return "tx", nil
	}))

	if len(rec.runs) != 1 {
		t.Fatalf("journal rows got=%d want=1", len(rec.runs))
	}
	if rec.runs[0].State != Done || rec.runs[0].ID == "" {
		t.Fatalf("bad journal row: %+v", rec.runs[0])
	}
}
