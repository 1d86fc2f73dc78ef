package execution

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/riverrfinance/riverr-go/internal/ports"
	"github.com/riverrfinance/riverr-go/pkg/logger"
)

// State of one gated run. The sequence is strictly
// Idle -> CheckingAllowance -> [Approving] -> Executing -> Done | Failed;
// approval always completes before execution begins.
type State int

const (
	Idle State = iota
	CheckingAllowance
	Approving
	Executing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case CheckingAllowance:
		return "checking allowance"
	case Approving:
		return "approving"
	case Executing:
		return "executing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Operation is the target vault/market call, invoked with the validated
// scaled amount once the allowance covers it. Adapters translate the
// service's falsy/err payloads into errors before this layer sees them.
type Operation func(ctx context.Context, amount *big.Int) (result string, err error)

// Request describes one gated run.
type Request struct {
	Action  string // deposit, withdraw, stake, ... (journal/log label)
	Owner   string
	Asset   string // catalog symbol
	Spender string // vault address pulling the funds
	Amount  *big.Int
	Ledger  ports.Ledger
	Execute Operation
	// OnState, when set, observes each state transition (drives the
	// "Approving"/"Processing" indicator in the views).
	OnState func(State)
}

// Run is the journalled outcome of one request.
type Run struct {
	ID            string
	Action        string
	Owner         string
	Asset         string
	Amount        *big.Int
	ApprovedDelta *big.Int // nil when no approval was needed
	State         State
	Result        string
	Err           error
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Recorder persists finished runs (the dashboard's activity journal).
type Recorder interface {
	Record(ctx context.Context, run Run)
}

// Executor performs the approve-then-commit sequence against the ledger
// and vault. It never retries: a Failed run is terminal until the user
// starts a fresh one.
type Executor struct {
	locks    *OwnerLocks
	recorder Recorder // optional
}

func NewExecutor(recorder Recorder) *Executor {
	return &Executor{locks: NewOwnerLocks(), recorder: recorder}
}

// Run executes one gated request, holding the (owner, asset) lock for the
// whole check -> approve -> execute sequence.
func (e *Executor) Run(ctx context.Context, req Request) (run Run) {
	release := e.locks.Acquire(req.Owner, req.Asset)
	defer release()

	run = Run{
		ID:        uuid.NewString(),
		Action:    req.Action,
		Owner:     req.Owner,
		Asset:     req.Asset,
		Amount:    new(big.Int).Set(req.Amount),
		StartedAt: time.Now(),
	}
	log := logger.WithFields(map[string]interface{}{
		"run":    run.ID,
		"action": req.Action,
		"asset":  req.Asset,
	})
	defer func() {
		run.FinishedAt = time.Now()
		if e.recorder != nil {
			e.recorder.Record(ctx, run)
		}
	}()

	setState := func(s State) {
		run.State = s
		if req.OnState != nil {
			req.OnState(s)
		}
	}

	setState(CheckingAllowance)
	allowance, err := req.Ledger.Allowance(ctx, req.Owner, req.Spender)
	if err != nil {
		// fail safe toward requiring approval, never toward skipping it
		log.Warnf("allowance read failed, treating as zero: %v", err)
		allowance = big.NewInt(0)
	}

	if allowance.Cmp(req.Amount) < 0 {
		setState(Approving)
		deficit := new(big.Int).Sub(req.Amount, allowance)
		run.ApprovedDelta = deficit
		log.Infof("approving deficit %s (allowance %s < amount %s)", deficit, allowance, req.Amount)

		ok, err := req.Ledger.ApproveSpending(ctx, req.Spender, deficit)
		if err != nil || !ok {
			setState(Failed)
			run.Err = &AllowanceError{Err: err}
			log.Errorf("approval failed: %v", err)
			return run
		}
	}

	setState(Executing)
	result, err := req.Execute(ctx, req.Amount)
	if err != nil {
		setState(Failed)
		run.Err = &ExecutionError{Message: err.Error(), Err: err}
		log.Errorf("execution failed: %v", err)
		return run
	}

	setState(Done)
	run.Result = result
	log.Infof("done: %s", result)
	return run
}
