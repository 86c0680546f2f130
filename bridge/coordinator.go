package bridge

import (
	"context"
	"log"
	"time"
)

// Emitter delivers keepalive events for a running invocation. The server
// package implements it over the session's JSON-RPC notifier.
type Emitter interface {
	Keepalive(ctx context.Context, invocation *Invocation, tick int) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, invocation *Invocation, tick int) error

func (f EmitterFunc) Keepalive(ctx context.Context, invocation *Invocation, tick int) error {
	return f(ctx, invocation, tick)
}

// Outcome is the single terminal result of an invocation: completed with a
// payload, or failed/cancelled with a normalized fault.
type Outcome struct {
	State   State
	Payload map[string]interface{}
	Fault   *Fault
}

const (
	// DefaultKeepaliveInterval keeps intermediary and client idle timeouts
	// from firing while a long-running handler executes.
	DefaultKeepaliveInterval = 10 * time.Second
	// DefaultCeiling is the absolute per-invocation bound guarding against a
	// permanently hung host call. It deliberately exceeds the single-call
	// timeout so a hung call surfaces as a host timeout first.
	DefaultCeiling = 10 * time.Minute
)

// CoordinatorOption configures a coordinator.
type CoordinatorOption func(c *Coordinator)

// WithKeepaliveInterval overrides the keepalive clock interval.
func WithKeepaliveInterval(interval time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.keepaliveInterval = interval
	}
}

// WithCeiling overrides the absolute per-invocation timeout ceiling.
func WithCeiling(ceiling time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.ceiling = ceiling
	}
}

// WithLogf overrides the process log sink used for internal consistency
// errors and keepalive delivery failures.
func WithLogf(logf func(format string, args ...interface{})) CoordinatorOption {
	return func(c *Coordinator) {
		c.logf = logf
	}
}

// Coordinator executes resolved handlers as cancellable units of work and
// keeps the outer connection alive for their entire duration. Fast
// invocations run inline on the serving goroutine; long-running invocations
// run on a worker goroutine paced by the keepalive clock and bounded by the
// ceiling.
type Coordinator struct {
	session           *Session
	keepaliveInterval time.Duration
	ceiling           time.Duration
	logf              func(format string, args ...interface{})
}

// Session exposes the invocation table the coordinator transitions.
func (c *Coordinator) Session() *Session {
	return c.session
}

// KeepaliveInterval returns the configured keepalive clock interval.
func (c *Coordinator) KeepaliveInterval() time.Duration {
	return c.keepaliveInterval
}

// Run executes one invocation end to end and returns its single terminal
// outcome. The outcome is produced exactly once; a worker abandoned at the
// ceiling hands its result to a buffered channel nobody reads and exits.
func (c *Coordinator) Run(ctx context.Context, invocation *Invocation, handler Handler, emitter Emitter) *Outcome {
	if err := invocation.transition(StateRunning, nil); err != nil {
		c.logf("coordinator: %v", err)
		return &Outcome{State: StateFailed, Fault: NewFault(FaultHostError, "internal error")}
	}
	if invocation.Duration == DurationFast {
		return c.runInline(ctx, invocation, handler)
	}
	return c.runWorker(ctx, invocation, handler, emitter)
}

// runInline serves a fast invocation synchronously, with no keepalive clock.
func (c *Coordinator) runInline(ctx context.Context, invocation *Invocation, handler Handler) *Outcome {
	runCtx, cancel := context.WithTimeout(ctx, c.ceiling)
	defer cancel()
	payload, err := c.invoke(runCtx, invocation, handler)
	return c.finish(invocation, outcomeOf(payload, err))
}

type handlerResult struct {
	payload map[string]interface{}
	err     error
}

func (c *Coordinator) runWorker(ctx context.Context, invocation *Invocation, handler Handler, emitter Emitter) *Outcome {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan handlerResult, 1)
	go func() {
		payload, err := c.invoke(runCtx, invocation, handler)
		done <- handlerResult{payload: payload, err: err}
	}()

	ticker := time.NewTicker(c.keepaliveInterval)
	defer ticker.Stop()
	ceiling := time.NewTimer(c.ceiling)
	defer ceiling.Stop()

	cancelled := ctx.Done()
	for {
		select {
		case result := <-done:
			return c.finish(invocation, outcomeOf(result.payload, result.err))
		case <-ticker.C:
			tick := invocation.markKeepalive()
			if err := emitter.Keepalive(ctx, invocation, tick); err != nil {
				c.logf("coordinator: keepalive %v/%v: %v", invocation.Tool, invocation.UID, err)
			}
		case <-cancelled:
			// Cooperative cancellation: stop the keepalive clock and wait for
			// the worker to observe it between host calls. An in-flight host
			// call is allowed to finish so the host document is never left in
			// an undefined intermediate state.
			ticker.Stop()
			cancelled = nil
		case <-ceiling.C:
			cancel()
			return c.finish(invocation, &Outcome{
				State: StateFailed,
				Fault: NewFault(FaultTimeout, "invocation exceeded the %s ceiling", c.ceiling),
			})
		}
	}
}

// invoke runs the handler, converting a panic into a normalized fault so no
// internal failure detail crosses the boundary.
func (c *Coordinator) invoke(ctx context.Context, invocation *Invocation, handler Handler) (payload map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logf("coordinator: handler panic in %v/%v: %v", invocation.Tool, invocation.UID, r)
			payload, err = nil, NewFault(FaultHostError, "internal error")
		}
	}()
	return handler(ctx, invocation.Args)
}

// finish applies the terminal transition and schedules removal from the
// session table. A duplicate terminal transition is an internal consistency
// error: it is logged and the first outcome stands.
func (c *Coordinator) finish(invocation *Invocation, outcome *Outcome) *Outcome {
	if err := invocation.transition(outcome.State, outcome.Fault); err != nil {
		c.logf("coordinator: %v", err)
		return outcome
	}
	c.session.Retire(invocation)
	return outcome
}

func outcomeOf(payload map[string]interface{}, err error) *Outcome {
	if err == nil {
		return &Outcome{State: StateCompleted, Payload: payload}
	}
	fault := AsFault(err)
	state := StateFailed
	if fault.Kind == FaultCancelled {
		state = StateCancelled
	}
	return &Outcome{State: state, Fault: fault}
}

// NewCoordinator creates a coordinator over the given session table.
func NewCoordinator(session *Session, options ...CoordinatorOption) *Coordinator {
	ret := &Coordinator{
		session:           session,
		keepaliveInterval: DefaultKeepaliveInterval,
		ceiling:           DefaultCeiling,
		logf:              log.Printf,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}
