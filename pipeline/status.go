package pipeline

import (
	"sync"
	"time"
)

// Stage identifies where an ingestion pass currently is. A pass moves
// through the stages in order; Failed can be entered from any of them.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageFetching      Stage = "fetching"
	StageValidating    Stage = "validating"
	StageDeduplicating Stage = "deduplicating"
	StageClassifying   Stage = "classifying"
	StagePersisting    Stage = "persisting"
	StageDone          Stage = "done"
	StageFailed        Stage = "failed"
)

// Status is a point-in-time snapshot of the pipeline, safe to serialize.
type Status struct {
	Stage         Stage     `json:"stage"`
	Running       bool      `json:"running"`
	LastRun       time.Time `json:"last_run,omitempty"`
	ItemsFound    int       `json:"items_found"`
	ItemsAccepted int       `json:"items_accepted"`
	LastError     string    `json:"last_error,omitempty"`
}

// tracker holds the mutable pass state with thread-safe access.
type tracker struct {
	mu sync.RWMutex

	stage         Stage
	running       bool
	lastRun       time.Time
	itemsFound    int
	itemsAccepted int
	lastErr       error
}

func newTracker() *tracker {
	return &tracker{stage: StageIdle}
}

// begin resets the per-pass counters and marks the pass as running.
func (t *tracker) begin() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = true
	t.stage = StageFetching
	t.lastRun = time.Now()
	t.itemsFound = 0
	t.itemsAccepted = 0
	t.lastErr = nil
}

func (t *tracker) setStage(s Stage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stage = s
}

func (t *tracker) setCounts(found, accepted int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.itemsFound = found
	t.itemsAccepted = accepted
}

// finish records the terminal stage for the pass. A nil error lands on
// Done, anything else on Failed.
func (t *tracker) finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = false
	if err != nil {
		t.stage = StageFailed
		t.lastErr = err
		return
	}
	t.stage = StageDone
}

// snapshot returns a copy of the current state (thread-safe).
func (t *tracker) snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Status{
		Stage:         t.stage,
		Running:       t.running,
		LastRun:       t.lastRun,
		ItemsFound:    t.itemsFound,
		ItemsAccepted: t.itemsAccepted,
	}
	if t.lastErr != nil {
		s.LastError = t.lastErr.Error()
	}
	return s
}
