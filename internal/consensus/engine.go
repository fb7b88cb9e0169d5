// Package consensus implements the threshold consensus engine: a stateful
// vote accumulator over subject keys that fires exactly one downstream
// action per confirmed threshold crossing.
package consensus

import (
	"sync"
	"time"

	"github.com/rawelabs/rawe/internal/domain"
)

// DefaultThreshold is the number of corroborating votes required before a
// subject becomes actionable.
const DefaultThreshold = 3

// Config controls the engine.
type Config struct {
	// Threshold is the minimum vote count that triggers consensus.
	Threshold int

	// VoteTTL evicts vote sets that never reach threshold. Uncompleted vote
	// sets otherwise accumulate forever; the sweep keeps the map bounded.
	// Zero disables eviction.
	VoteTTL time.Duration
}

type voteSet struct {
	votes     []domain.SignalType
	firstVote time.Time
}

// Engine accumulates signal votes per subject key. All access serializes
// through one mutex: the append, threshold check, and clear form a single
// critical section, so no vote is ever counted into two events and no event
// fires twice for the same accumulated set.
type Engine struct {
	mu    sync.Mutex
	votes map[string]*voteSet
	cfg   Config
	now   func() time.Time
}

// New creates an engine. A non-positive threshold falls back to
// DefaultThreshold.
func New(cfg Config) *Engine {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	return &Engine{
		votes: make(map[string]*voteSet),
		cfg:   cfg,
		now:   time.Now,
	}
}

// Receive appends one vote for the subject. When the vote count reaches the
// threshold the set is cleared atomically and the consensus event is
// returned with ok=true; otherwise ok=false.
func (e *Engine) Receive(subjectKey string, vote domain.SignalType) (domain.ConsensusEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	set := e.votes[subjectKey]
	if set != nil && e.expired(set) {
		// Stale votes must not corroborate a fresh signal.
		set = nil
	}
	if set == nil {
		set = &voteSet{firstVote: e.now()}
		e.votes[subjectKey] = set
	}
	set.votes = append(set.votes, vote)

	if len(set.votes) < e.cfg.Threshold {
		return domain.ConsensusEvent{}, false
	}

	delete(e.votes, subjectKey)
	return domain.ConsensusEvent{SubjectKey: subjectKey, Votes: set.votes}, true
}

// PendingVotes returns how many votes are accumulated for a subject.
func (e *Engine) PendingVotes(subjectKey string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if set := e.votes[subjectKey]; set != nil {
		return len(set.votes)
	}
	return 0
}

// PendingSubjects returns the number of subjects with unfinished vote sets.
func (e *Engine) PendingSubjects() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.votes)
}

// expired reports whether a vote set has outlived the TTL.
func (e *Engine) expired(set *voteSet) bool {
	return e.cfg.VoteTTL > 0 && set.firstVote.Before(e.now().Add(-e.cfg.VoteTTL))
}

// Sweep evicts vote sets whose first vote is older than VoteTTL and returns
// how many were dropped. A no-op when eviction is disabled.
func (e *Engine) Sweep() int {
	if e.cfg.VoteTTL <= 0 {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	dropped := 0
	for key, set := range e.votes {
		if e.expired(set) {
			delete(e.votes, key)
			dropped++
		}
	}
	return dropped
}
