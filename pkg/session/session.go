// Package session tracks the lifecycle of design analyses where only the most recent
// upload matters. Results of superseded requests are dropped.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the phase of the tracked analysis.
type State int

const (
	Idle State = iota
	Analyzing
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Analyzing:
		return "analyzing"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of a Tracker.
type Snapshot[T any] struct {
	State     State
	RequestID string // current request, empty while Idle
	Result    T      // set only when State is Complete
	UpdatedAt time.Time
}

// Tracker holds the state of "one analysis at a time, latest wins".
// The zero value is not usable; create one with NewTracker.
type Tracker[T any] struct {
	mu        sync.Mutex
	state     State
	requestID string
	result    T
	updatedAt time.Time

	now func() time.Time
}

// NewTracker returns an Idle tracker.
func NewTracker[T any]() *Tracker[T] {
	return &Tracker[T]{now: time.Now, updatedAt: time.Now()}
}

// Begin starts a new analysis and returns its request ID. Any in-flight or completed
// analysis is superseded.
func (t *Tracker[T]) Begin() string {
	id := uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	t.state = Analyzing
	t.requestID = id
	t.result = zero
	t.updatedAt = t.now()

	return id
}

// Finish records the result of the analysis identified by id. It reports false, and
// drops the result, when id is not the current analysis.
func (t *Tracker[T]) Finish(id string, result T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Analyzing || t.requestID != id {
		return false
	}

	t.state = Complete
	t.result = result
	t.updatedAt = t.now()
	return true
}

// Fail abandons the analysis identified by id and returns to Idle. It reports false when
// id is not the current analysis.
func (t *Tracker[T]) Fail(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Analyzing || t.requestID != id {
		return false
	}

	var zero T
	t.state = Idle
	t.requestID = ""
	t.result = zero
	t.updatedAt = t.now()
	return true
}

// IsCurrent reports whether id identifies the latest analysis.
func (t *Tracker[T]) IsCurrent(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state != Idle && t.requestID == id
}

// Snapshot returns a copy of the current state.
func (t *Tracker[T]) Snapshot() Snapshot[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot[T]{
		State:     t.state,
		RequestID: t.requestID,
		Result:    t.result,
		UpdatedAt: t.updatedAt,
	}
}
