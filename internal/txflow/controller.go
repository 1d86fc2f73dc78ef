// Package txflow sequences the Input -> Preview -> Result modal flow
// shared by the deposit, withdraw, leverage, stake and order views. Legal
// transitions are encoded as data; an illegal event is inert, never a
// panic or an exception.
package txflow

import (
	"context"
	"sync"

	"github.com/riverrfinance/riverr-go/internal/execution"
	"github.com/riverrfinance/riverr-go/pkg/fixedpoint"
)

type View int

const (
	Input View = iota
	Preview
	Result
)

func (v View) String() string {
	switch v {
	case Input:
		return "input"
	case Preview:
		return "preview"
	case Result:
		return "result"
	default:
		return "unknown"
	}
}

type Event int

const (
	EventSubmit Event = iota // Input -> Preview (guarded)
	EventConfirm             // Preview -> Result (runs the executor)
	EventBack                // Preview -> Input
	EventTryAgain            // Result -> Input
)

// transitions is the full set of legal moves. Anything absent is inert.
var transitions = map[View]map[Event]View{
	Input:   {EventSubmit: Preview},
	Preview: {EventConfirm: Result, EventBack: Input},
	Result:  {EventTryAgain: Input},
}

// Progress labels shown while the executor is mid-flight.
const (
	ActionApproving  = "Approving"
	ActionProcessing = "Processing"
)

// FallbackError is shown when the executor failed without a service
// message to repeat.
const FallbackError = "Something went wrong. Please try again."

// RunFunc performs the flow's gated operation, reporting progress through
// onState. It blocks until the run reaches a terminal state.
type RunFunc func(ctx context.Context, onState func(execution.State)) execution.Run

// Controller is created when a modal opens and reset when it closes.
type Controller struct {
	requireTerms bool
	refresh      func(context.Context) // balance re-sync on close

	mu            sync.Mutex
	view          View
	amount        string
	termsAccepted bool
	errText       string
	currentAction string
	// gen is bumped on every reset; a run started under an older gen
	// must not write its outcome onto the reset controller.
	gen uint64
}

func New(requireTerms bool, refresh func(context.Context)) *Controller {
	return &Controller{requireTerms: requireTerms, refresh: refresh}
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errText
}

// CurrentAction is non-empty only while a run is in flight; the UI
// disables its trigger button while it is set.
func (c *Controller) CurrentAction() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentAction
}

func (c *Controller) Amount() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.amount
}

// SetAmount records the raw input; only meaningful in the Input view.
func (c *Controller) SetAmount(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == Input {
		c.amount = raw
	}
}

func (c *Controller) AcceptTerms(accepted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.termsAccepted = accepted
}

// CanSubmit is the Preview button's enabled state.
func (c *Controller) CanSubmit(outcome fixedpoint.Outcome) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked(outcome)
}

func (c *Controller) canSubmitLocked(outcome fixedpoint.Outcome) bool {
	if outcome != fixedpoint.Ok {
		return false
	}
	if c.requireTerms && !c.termsAccepted {
		return false
	}
	return true
}

// Submit attempts Input -> Preview. Returns false (inert) when the guard
// or the transition table rejects it.
func (c *Controller) Submit(outcome fixedpoint.Outcome) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canSubmitLocked(outcome) {
		return false
	}
	return c.stepLocked(EventSubmit)
}

// Back returns from Preview to Input, keeping the amount.
func (c *Controller) Back() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepLocked(EventBack)
}

// Confirm runs the gated operation and lands on Result. The view blocks
// on the executor's terminal state; a failure's message is surfaced
// verbatim when the service supplied one.
func (c *Controller) Confirm(ctx context.Context, run RunFunc) bool {
	c.mu.Lock()
	if !c.stepLocked(EventConfirm) {
		c.mu.Unlock()
		return false
	}
	c.currentAction = ActionProcessing
	gen := c.gen
	c.mu.Unlock()

	outcome := run(ctx, func(s execution.State) {
		c.mu.Lock()
		if c.gen == gen {
			switch s {
			case execution.Approving:
				c.currentAction = ActionApproving
			case execution.Executing:
				c.currentAction = ActionProcessing
			}
		}
		c.mu.Unlock()
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		// reset while the run was in flight; drop the late outcome
		return true
	}
	c.currentAction = ""
	if outcome.Err != nil {
		if msg := outcome.Err.Error(); msg != "" {
			c.errText = msg
		} else {
			c.errText = FallbackError
		}
	}
	return true
}

// TryAgain leaves a failed Result for a fresh attempt. Error and action
// are cleared; the entered amount is preserved for the retry.
func (c *Controller) TryAgain() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stepLocked(EventTryAgain) {
		return false
	}
	c.errText = ""
	c.currentAction = ""
	c.gen++
	return true
}

// Close resets the controller from any state and triggers a balance
// refresh so the UI shows post-transaction values, not stale ones.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	c.view = Input
	c.amount = ""
	c.termsAccepted = false
	c.errText = ""
	c.currentAction = ""
	c.gen++
	refresh := c.refresh
	c.mu.Unlock()

	if refresh != nil {
		refresh(ctx)
	}
}

func (c *Controller) stepLocked(ev Event) bool {
	next, ok := transitions[c.view][ev]
	if !ok {
		return false
	}
	c.view = next
	return true
}
