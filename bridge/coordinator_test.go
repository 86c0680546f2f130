package bridge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type logRecorder struct {
	mux   sync.Mutex
	lines []string
}

func (r *logRecorder) logf(format string, args ...interface{}) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func (r *logRecorder) Lines() []string {
	r.mux.Lock()
	defer r.mux.Unlock()
	return append([]string(nil), r.lines...)
}

var discardEmitter = EmitterFunc(func(ctx context.Context, invocation *Invocation, tick int) error {
	return nil
})

func TestCoordinatorFastCompletes(t *testing.T) {
	session := NewSession(0)
	coordinator := NewCoordinator(session)
	invocation, err := session.Begin(1, "fusion360_document_info", nil, DurationFast)
	assert.Nil(t, err)

	outcome := coordinator.Run(context.Background(), invocation, func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"name": "bracket_v3"}, nil
	}, discardEmitter)

	assert.Equal(t, StateCompleted, outcome.State)
	assert.Equal(t, "bracket_v3", outcome.Payload["name"])
	assert.Nil(t, outcome.Fault)
	assert.Equal(t, StateCompleted, invocation.State())
	assert.Equal(t, 0, invocation.Keepalives())
	assert.Equal(t, 0, session.Size())
}

func TestCoordinatorFastFault(t *testing.T) {
	session := NewSession(0)
	coordinator := NewCoordinator(session)
	invocation, err := session.Begin(2, "fusion360_parameters", nil, DurationFast)
	assert.Nil(t, err)

	outcome := coordinator.Run(context.Background(), invocation, func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		return nil, NewFault(FaultHostUnreachable, "Fusion 360 not running or add-in not loaded")
	}, discardEmitter)

	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, FaultHostUnreachable, outcome.Fault.Kind)
	assert.Equal(t, StateFailed, invocation.State())
}

func TestCoordinatorKeepalives(t *testing.T) {
	session := NewSession(0)
	recorder := &logRecorder{}
	coordinator := NewCoordinator(session, WithKeepaliveInterval(15*time.Millisecond), WithLogf(recorder.logf))
	invocation, err := session.Begin(3, "fusion360_run_script", map[string]interface{}{"code": "pass"}, DurationLong)
	assert.Nil(t, err)

	ticks := make(chan int, 32)
	release := make(chan struct{})
	emitter := EmitterFunc(func(ctx context.Context, invocation *Invocation, tick int) error {
		ticks <- tick
		return nil
	})

	outcomeCh := make(chan *Outcome, 1)
	go func() {
		outcomeCh <- coordinator.Run(context.Background(), invocation, func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			<-release
			return map[string]interface{}{"status": "success"}, nil
		}, emitter)
	}()

	// The clock keeps ticking for as long as the handler runs
	for expected := 1; expected <= 3; expected++ {
		select {
		case tick := <-ticks:
			assert.Equal(t, expected, tick)
		case <-time.After(time.Second):
			t.Fatalf("keepalive %d never arrived", expected)
		}
	}
	close(release)

	select {
	case outcome := <-outcomeCh:
		assert.Equal(t, StateCompleted, outcome.State)
		assert.Equal(t, "success", outcome.Payload["status"])
	case <-time.After(time.Second):
		t.Fatal("invocation never finished")
	}
	assert.GreaterOrEqual(t, invocation.Keepalives(), 3)
	assert.Empty(t, recorder.Lines())
}

func TestCoordinatorCancelBetweenCalls(t *testing.T) {
	session := NewSession(0)
	coordinator := NewCoordinator(session, WithKeepaliveInterval(10*time.Millisecond))
	invocation, err := session.Begin(4, "fusion360_extrude", nil, DurationLong)
	assert.Nil(t, err)

	started := make(chan struct{})
	resume := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outcomeCh := make(chan *Outcome, 1)
	go func() {
		outcomeCh <- coordinator.Run(ctx, invocation, func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			close(started)
			// First host call completed; observe cancellation before the next one
			<-resume
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return map[string]interface{}{"status": "success"}, nil
		}, discardEmitter)
	}()

	<-started
	cancel()
	close(resume)

	select {
	case outcome := <-outcomeCh:
		assert.Equal(t, StateCancelled, outcome.State)
		assert.Equal(t, FaultCancelled, outcome.Fault.Kind)
	case <-time.After(time.Second):
		t.Fatal("invocation never finished")
	}
	assert.Equal(t, StateCancelled, invocation.State())
	assert.Equal(t, 0, session.Size())
}

func TestCoordinatorCancelAfterWorkCompletes(t *testing.T) {
	session := NewSession(0)
	coordinator := NewCoordinator(session, WithKeepaliveInterval(10*time.Millisecond))
	invocation, err := session.Begin(5, "fusion360_create_sketch", nil, DurationLong)
	assert.Nil(t, err)

	started := make(chan struct{})
	resume := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outcomeCh := make(chan *Outcome, 1)
	go func() {
		outcomeCh <- coordinator.Run(ctx, invocation, func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			close(started)
			// An in-flight host call is never interrupted; it runs to the end
			<-resume
			return map[string]interface{}{"status": "success", "sketch_name": "Sketch1"}, nil
		}, discardEmitter)
	}()

	<-started
	cancel()
	close(resume)

	select {
	case outcome := <-outcomeCh:
		// The work finished, so the terminal event reports success
		assert.Equal(t, StateCompleted, outcome.State)
		assert.Equal(t, "Sketch1", outcome.Payload["sketch_name"])
	case <-time.After(time.Second):
		t.Fatal("invocation never finished")
	}
}

func TestCoordinatorCeiling(t *testing.T) {
	session := NewSession(0)
	recorder := &logRecorder{}
	coordinator := NewCoordinator(session,
		WithKeepaliveInterval(10*time.Millisecond),
		WithCeiling(40*time.Millisecond),
		WithLogf(recorder.logf))
	invocation, err := session.Begin(6, "fusion360_run_script", map[string]interface{}{"code": "while True: pass"}, DurationLong)
	assert.Nil(t, err)

	outcome := coordinator.Run(context.Background(), invocation, func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, discardEmitter)

	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, FaultTimeout, outcome.Fault.Kind)
	assert.Contains(t, outcome.Fault.Detail, "ceiling")
	assert.Equal(t, StateFailed, invocation.State())
	assert.Equal(t, 0, session.Size())

	// The abandoned worker's late result is discarded, never a second terminal
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, StateFailed, invocation.State())
	for _, line := range recorder.Lines() {
		assert.False(t, strings.Contains(line, "duplicate terminal"), line)
	}
}

func TestCoordinatorPanicRecovery(t *testing.T) {
	session := NewSession(0)
	recorder := &logRecorder{}
	coordinator := NewCoordinator(session, WithLogf(recorder.logf))
	invocation, err := session.Begin(7, "fusion360_body_details", nil, DurationFast)
	assert.Nil(t, err)

	outcome := coordinator.Run(context.Background(), invocation, func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		panic("index out of range")
	}, discardEmitter)

	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, FaultHostError, outcome.Fault.Kind)
	assert.Equal(t, "internal error", outcome.Fault.Detail)
	lines := recorder.Lines()
	assert.Equal(t, 1, len(lines))
	assert.Contains(t, lines[0], "panic")
}

func TestCoordinatorDuplicateTerminalGuard(t *testing.T) {
	session := NewSession(0)
	recorder := &logRecorder{}
	coordinator := NewCoordinator(session, WithLogf(recorder.logf))
	invocation, err := session.Begin(8, "fusion360_health", nil, DurationFast)
	assert.Nil(t, err)
	assert.Nil(t, invocation.transition(StateRunning, nil))

	coordinator.finish(invocation, &Outcome{State: StateCompleted, Payload: map[string]interface{}{}})
	coordinator.finish(invocation, &Outcome{State: StateFailed, Fault: NewFault(FaultHostError, "late")})

	assert.Equal(t, StateCompleted, invocation.State())
	lines := recorder.Lines()
	assert.Equal(t, 1, len(lines))
	assert.Contains(t, lines[0], "duplicate terminal")
}
