// Package engine implements the DATEX execution engine: a stack machine
// that runs a decoded DXB instruction stream against a flat slot table and
// the shared reference memory, suspending to an external Interrupt whenever
// it needs something only the driving runtime can resolve (a remote
// pointer, a cross-realm slot, a function call, an embedded remote-execution
// body) and resuming once the driver supplies the answer.
package engine

import (
	"context"

	"github.com/unyt-org/datex-core-go/value"
)

// Outcome is the value an Execute/Run call settles on.
type Outcome struct {
	Value value.ValueContainer
}

type resumeMsg struct {
	result value.ValueContainer
	err    error
}

type doneMsg struct {
	outcome Outcome
	err     error
}

// Engine runs one instruction stream at a time. It is not safe for
// concurrent Run/Resume calls on the same instance; the goroutine started by
// Run owns the engine's state until that execution settles or is abandoned.
type Engine struct {
	opts Options
	mem  Memory

	interruptCh chan Interrupt
	resumeCh    chan resumeMsg
	doneCh      chan doneMsg
}

// New constructs an Engine. With a nil opts.Memory, every Run call starts
// from a fresh ephemeral store.
func New(opts Options) *Engine {
	mem := opts.Memory
	if mem == nil {
		mem = newEphemeralMemory()
	}
	return &Engine{opts: opts, mem: mem}
}

// Run starts executing body in its own goroutine and blocks until the run
// either settles (an Outcome) or needs driver input (an Interrupt). Exactly
// one of the three return values is meaningful: (Outcome, nil, nil) for a
// finished run, (zero, *Interrupt, nil) for a suspension, or (zero, nil,
// err) for a fatal failure. A successful run's final value is reported
// once as a Result interrupt — the same handshake as every other kind —
// and the run settles after the driver acknowledges it with Resume.
func (e *Engine) Run(ctx context.Context, body []byte) (Outcome, *Interrupt, error) {
	e.interruptCh = make(chan Interrupt)
	e.resumeCh = make(chan resumeMsg)
	e.doneCh = make(chan doneMsg, 1)
	if e.opts.Memory == nil {
		e.mem = newEphemeralMemory()
	}

	vm := newVMState(e)
	go func() {
		out, err := vm.run(ctx, body)
		if err == nil {
			_, ackErr := e.suspend(ctx, Interrupt{Kind: Result, Final: out.Value})
			err = ackErr
		}
		e.doneCh <- doneMsg{outcome: out, err: err}
	}()

	return e.wait()
}

// Resume supplies the result of the most recently reported Interrupt — pass
// a non-nil err to make the suspended call itself return that error instead
// of a value (a RemoteExecution interrupt wraps it as a RemoteError; every
// other kind returns it unchanged).
func (e *Engine) Resume(result value.ValueContainer, err error) (Outcome, *Interrupt, error) {
	e.resumeCh <- resumeMsg{result: result, err: err}
	return e.wait()
}

func (e *Engine) wait() (Outcome, *Interrupt, error) {
	select {
	case it := <-e.interruptCh:
		return Outcome{}, &it, nil
	case d := <-e.doneCh:
		return d.outcome, nil, d.err
	}
}

// suspend reports it to whichever goroutine called Run/Resume and blocks
// until that goroutine supplies a result via the next Resume call. Called
// only from inside the vm's own goroutine.
func (e *Engine) suspend(ctx context.Context, it Interrupt) (value.ValueContainer, error) {
	if e.opts.Verbose {
		e.opts.logger().Debug("engine suspended", "kind", it.Kind.String())
	}
	select {
	case e.interruptCh <- it:
	case <-ctx.Done():
		return nil, wrapErr(Cancelled, ctx.Err(), "suspended on %s", it.Kind)
	}
	select {
	case msg := <-e.resumeCh:
		return msg.result, msg.err
	case <-ctx.Done():
		return nil, wrapErr(Cancelled, ctx.Err(), "waiting for resume of %s", it.Kind)
	}
}
