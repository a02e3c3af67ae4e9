package eviction

import (
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
)

// State is a position in the eviction state machine.
type State string

const (
	StateIdle                State = "idle"
	StateDisabled            State = "disabled"
	StateEvaluating          State = "evaluating"
	StateNoCandidates        State = "no_candidates"
	StatePendingNotification State = "pending_notification"
	StatePendingImmediate    State = "pending_immediate"
	StateEvicted             State = "evicted"
)

// CycleResult reports where a cycle ended.
// Resolved is closed once the cycle no longer holds a pending batch.
type CycleResult struct {
	State      State                    `json:"state"`
	Candidates []domain.ScoredCandidate `json:"candidates,omitempty"`
	Eviction   *EvictionResult          `json:"eviction,omitempty"`
	Resolved   <-chan struct{}          `json:"-"`
}

// EvictionResult is the outcome of one executed batch.
// Records are written for every attempted tab, closed or not.
type EvictionResult struct {
	ClosedAt time.Time               `json:"closed_at"`
	Records  []domain.EvictionRecord `json:"records"`
	Closed   []int                   `json:"closed"`
	Failed   []int                   `json:"failed,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// PendingInfo describes the batch waiting for its notification delay
type PendingInfo struct {
	ID         string                   `json:"id"`
	Deadline   time.Time                `json:"deadline"`
	Candidates []domain.ScoredCandidate `json:"candidates"`
}

type pendingBatch struct {
	id         string
	candidates []domain.ScoredCandidate
	deadline   time.Time
	stop       stopFunc
	done       chan struct{}
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// resolved returns an already closed channel
func resolved() <-chan struct{} {
	return closedChan
}
