package bridge

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fusionbridge/fusionbridge/internal/collection"
	"github.com/google/uuid"
)

// State is an invocation lifecycle state. Transitions are monotonic:
// received -> running -> (completed | failed | cancelled).
type State string

const (
	StateReceived  State = "received"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state ends an invocation.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

func (s State) rank() int {
	switch s {
	case StateReceived:
		return 0
	case StateRunning:
		return 1
	default:
		return 2
	}
}

// Invocation tracks one tool call end to end. Identity fields are immutable;
// lifecycle fields mutate only through coordinator transitions.
type Invocation struct {
	UID       string
	RequestID int
	Seq       uint64
	Tool      string
	Args      map[string]interface{}
	Duration  DurationClass
	StartedAt time.Time

	mux        sync.Mutex
	state      State
	fault      *Fault
	endedAt    time.Time
	keepalives int
}

// State returns the current lifecycle state.
func (i *Invocation) State() State {
	i.mux.Lock()
	defer i.mux.Unlock()
	return i.state
}

// Keepalives returns the number of keepalive events emitted so far.
func (i *Invocation) Keepalives() int {
	i.mux.Lock()
	defer i.mux.Unlock()
	return i.keepalives
}

func (i *Invocation) markKeepalive() int {
	i.mux.Lock()
	defer i.mux.Unlock()
	i.keepalives++
	return i.keepalives
}

// transition moves the invocation forward, rejecting backward moves and a
// second terminal transition so exactly one terminal event can ever be
// produced per invocation.
func (i *Invocation) transition(to State, fault *Fault) error {
	i.mux.Lock()
	defer i.mux.Unlock()
	if i.state.Terminal() {
		return fmt.Errorf("invocation %v: duplicate terminal transition %v -> %v", i.UID, i.state, to)
	}
	if to.rank() < i.state.rank() {
		return fmt.Errorf("invocation %v: backward transition %v -> %v", i.UID, i.state, to)
	}
	i.state = to
	if to.Terminal() {
		i.fault = fault
		i.endedAt = time.Now()
	}
	return nil
}

// Status is a copy-out snapshot of an invocation for inspection.
type Status struct {
	UID        string        `json:"uid"`
	RequestID  int           `json:"requestId"`
	Seq        uint64        `json:"seq"`
	Tool       string        `json:"tool"`
	Duration   DurationClass `json:"duration"`
	State      State         `json:"state"`
	Fault      *Fault        `json:"fault,omitempty"`
	Keepalives int           `json:"keepalives"`
	StartedAt  time.Time     `json:"startedAt"`
	EndedAt    *time.Time    `json:"endedAt,omitempty"`
}

// Snapshot returns a point-in-time copy of the invocation state.
func (i *Invocation) Snapshot() Status {
	i.mux.Lock()
	defer i.mux.Unlock()
	status := Status{
		UID:        i.UID,
		RequestID:  i.RequestID,
		Seq:        i.Seq,
		Tool:       i.Tool,
		Duration:   i.Duration,
		State:      i.state,
		Keepalives: i.keepalives,
		StartedAt:  i.StartedAt,
	}
	if i.fault != nil {
		fault := *i.fault
		status.Fault = &fault
	}
	if !i.endedAt.IsZero() {
		endedAt := i.endedAt
		status.EndedAt = &endedAt
	}
	return status
}

// Session is the process-wide table of active invocations keyed by request
// id, with a monotonic counter for sequence generation. Terminal invocations
// stay readable for a retention window before they are removed.
type Session struct {
	active    *collection.SyncMap[int, *Invocation]
	beginMux  sync.Mutex
	seq       atomic.Uint64
	retention time.Duration
}

// Begin creates and registers an invocation. A request id colliding with a
// live invocation is rejected; a terminal one lingering for inspection is
// retired early so clients may reuse ids. UIDs are never reused within a
// process lifetime.
func (s *Session) Begin(requestID int, tool string, args map[string]interface{}, duration DurationClass) (*Invocation, error) {
	s.beginMux.Lock()
	defer s.beginMux.Unlock()
	if current, ok := s.active.Get(requestID); ok {
		if !current.State().Terminal() {
			return nil, fmt.Errorf("invocation id %v is already active", requestID)
		}
		s.active.Delete(requestID)
	}
	invocation := &Invocation{
		UID:       uuid.NewString(),
		RequestID: requestID,
		Seq:       s.seq.Add(1),
		Tool:      tool,
		Args:      args,
		Duration:  duration,
		StartedAt: time.Now(),
		state:     StateReceived,
	}
	s.active.Put(requestID, invocation)
	return invocation, nil
}

// Get returns the invocation registered under requestID.
func (s *Session) Get(requestID int) (*Invocation, bool) {
	return s.active.Get(requestID)
}

// Retire schedules removal of a terminal invocation after the retention
// window elapses, leaving a slow client time to read the terminal event.
func (s *Session) Retire(invocation *Invocation) {
	if s.retention <= 0 {
		s.active.Delete(invocation.RequestID)
		return
	}
	requestID := invocation.RequestID
	uid := invocation.UID
	time.AfterFunc(s.retention, func() {
		if current, ok := s.active.Get(requestID); ok && current.UID == uid {
			s.active.Delete(requestID)
		}
	})
}

// Active returns snapshots of every tracked invocation.
func (s *Session) Active() []Status {
	var result []Status
	s.active.Range(func(_ int, invocation *Invocation) bool {
		result = append(result, invocation.Snapshot())
		return true
	})
	return result
}

// Size returns the number of tracked invocations.
func (s *Session) Size() int {
	return s.active.Size()
}

// Close clears the invocation table on server shutdown.
func (s *Session) Close() {
	s.active.Range(func(requestID int, _ *Invocation) bool {
		s.active.Delete(requestID)
		return true
	})
}

// NewSession creates a session table with the given retention window for
// terminal invocations.
func NewSession(retention time.Duration) *Session {
	return &Session{
		active:    collection.NewSyncMap[int, *Invocation](),
		retention: retention,
	}
}
