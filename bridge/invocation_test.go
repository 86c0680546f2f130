package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvocationLifecycle(t *testing.T) {
	session := NewSession(0)
	invocation, err := session.Begin(7, "fusion360_document_info", nil, DurationFast)
	assert.Nil(t, err)
	assert.Equal(t, StateReceived, invocation.State())
	assert.Equal(t, uint64(1), invocation.Seq)
	assert.NotEmpty(t, invocation.UID)

	assert.Nil(t, invocation.transition(StateRunning, nil))
	assert.Equal(t, StateRunning, invocation.State())

	assert.Nil(t, invocation.transition(StateCompleted, nil))
	assert.True(t, invocation.State().Terminal())

	// A second terminal transition must be rejected
	err = invocation.transition(StateFailed, NewFault(FaultHostError, "late"))
	assert.NotNil(t, err)
	assert.Equal(t, StateCompleted, invocation.State())

	// Backward transitions must be rejected
	err = invocation.transition(StateRunning, nil)
	assert.NotNil(t, err)
}

func TestInvocationSnapshot(t *testing.T) {
	session := NewSession(0)
	invocation, err := session.Begin(3, "fusion360_run_script", map[string]interface{}{"code": "pass"}, DurationLong)
	assert.Nil(t, err)
	assert.Nil(t, invocation.transition(StateRunning, nil))
	invocation.markKeepalive()
	invocation.markKeepalive()
	assert.Nil(t, invocation.transition(StateFailed, NewFault(FaultTimeout, "too slow")))

	status := invocation.Snapshot()
	assert.Equal(t, invocation.UID, status.UID)
	assert.Equal(t, 3, status.RequestID)
	assert.Equal(t, "fusion360_run_script", status.Tool)
	assert.Equal(t, StateFailed, status.State)
	assert.Equal(t, 2, status.Keepalives)
	assert.Equal(t, FaultTimeout, status.Fault.Kind)
	assert.NotNil(t, status.EndedAt)
}

func TestSessionMonotonicSeq(t *testing.T) {
	session := NewSession(0)
	first, err := session.Begin(1, "fusion360_components", nil, DurationFast)
	assert.Nil(t, err)
	second, err := session.Begin(2, "fusion360_sketches", nil, DurationFast)
	assert.Nil(t, err)
	third, err := session.Begin(3, "fusion360_bodies", nil, DurationFast)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, uint64(3), third.Seq)
	assert.NotEqual(t, first.UID, second.UID)
}

func TestSessionDuplicateRequestID(t *testing.T) {
	session := NewSession(0)
	_, err := session.Begin(11, "fusion360_parameters", nil, DurationFast)
	assert.Nil(t, err)
	_, err = session.Begin(11, "fusion360_parameters", nil, DurationFast)
	assert.NotNil(t, err)
}

func TestSessionReusesTerminalRequestID(t *testing.T) {
	session := NewSession(time.Hour)
	first, err := session.Begin(3, "fusion360_extrude", nil, DurationLong)
	assert.Nil(t, err)
	assert.Nil(t, first.transition(StateRunning, nil))
	assert.Nil(t, first.transition(StateCompleted, nil))
	session.Retire(first)

	// A terminal invocation lingers for inspection but does not block id reuse
	assert.Equal(t, 1, session.Size())
	second, err := session.Begin(3, "fusion360_extrude", nil, DurationLong)
	assert.Nil(t, err)
	assert.NotEqual(t, first.UID, second.UID)
	assert.Equal(t, 1, session.Size())
}

func TestSessionRetire(t *testing.T) {
	session := NewSession(10 * time.Millisecond)
	invocation, err := session.Begin(5, "fusion360_health", nil, DurationFast)
	assert.Nil(t, err)
	assert.Equal(t, 1, session.Size())

	session.Retire(invocation)
	assert.Eventually(t, func() bool { return session.Size() == 0 }, time.Second, 5*time.Millisecond)

	// Once retired, the request id is free for a fresh invocation
	again, err := session.Begin(5, "fusion360_health", nil, DurationFast)
	assert.Nil(t, err)
	assert.NotEqual(t, invocation.UID, again.UID)
}

func TestSessionRetireIgnoresReplacement(t *testing.T) {
	session := NewSession(10 * time.Millisecond)
	stale, err := session.Begin(9, "fusion360_screenshot", nil, DurationLong)
	assert.Nil(t, err)
	session.Retire(stale)

	assert.Eventually(t, func() bool { return session.Size() == 0 }, time.Second, 5*time.Millisecond)
	fresh, err := session.Begin(9, "fusion360_screenshot", nil, DurationLong)
	assert.Nil(t, err)

	// The stale retirement timer must not remove the fresh invocation
	time.Sleep(30 * time.Millisecond)
	current, ok := session.Get(9)
	assert.True(t, ok)
	assert.Equal(t, fresh.UID, current.UID)
}

func TestSessionActive(t *testing.T) {
	session := NewSession(0)
	_, err := session.Begin(1, "fusion360_document_info", nil, DurationFast)
	assert.Nil(t, err)
	_, err = session.Begin(2, "fusion360_run_script", map[string]interface{}{"code": "x"}, DurationLong)
	assert.Nil(t, err)

	active := session.Active()
	assert.Equal(t, 2, len(active))
	byTool := map[string]Status{}
	for _, status := range active {
		byTool[status.Tool] = status
	}
	assert.Equal(t, StateReceived, byTool["fusion360_run_script"].State)
	assert.Equal(t, DurationLong, byTool["fusion360_run_script"].Duration)
}
