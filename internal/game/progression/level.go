package progression

import (
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/choiceman/internal/observability"
)

// Observation is the outcome of one total-level observation.
type Observation struct {
	// Baseline is true when this observation only established the baseline.
	Baseline bool
	// Gained is the number of choices queued by this observation.
	Gained int
	// Milestones is the number of milestones crossed by this observation.
	Milestones int
	// Pending is the queue length after the observation.
	Pending int
	// Hint is the threshold chat line to show, empty when nothing changed.
	Hint string
}

// LevelTracker converts total-level increases into pending choices.
// A session's first observation sets the baseline and awards nothing, so a
// reconnect never double-awards.
type LevelTracker struct {
	mu         sync.Mutex
	ready      bool
	last       int
	pending    int
	milestones int
	logger     *zap.Logger
}

// NewLevelTracker returns a tracker awaiting its baseline.
func NewLevelTracker(logger *zap.Logger) *LevelTracker {
	return &LevelTracker{logger: observability.Component(logger, "progression")}
}

// ResetBaseline makes the next observation a baseline. Queued choices stay.
func (t *LevelTracker) ResetBaseline() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ready = false
}

// Clear drops the baseline and every queued choice.
func (t *LevelTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ready = false
	t.last = 0
	t.pending = 0
	t.milestones = 0
}

// Observe records the current total level.
//
// Postcondition: on a non-baseline observation with total above the previous
// one, Pending grows by the difference and one milestone flag is queued per
// milestone crossed. Decreases only move the baseline.
func (t *LevelTracker) Observe(total int) Observation {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ready {
		t.ready = true
		t.last = total
		return Observation{Baseline: true, Pending: t.pending, Hint: ThresholdHint(total)}
	}
	if total <= t.last {
		t.last = total
		return Observation{Pending: t.pending}
	}

	gained := total - t.last
	crossed := MilestonesCrossed(t.last, total)
	t.pending += gained
	t.milestones += crossed
	t.last = total
	t.logger.Info("choices queued",
		zap.Int("total", total),
		zap.Int("gained", gained),
		zap.Int("milestones", crossed),
		zap.Int("pending", t.pending),
	)
	return Observation{Gained: gained, Milestones: crossed, Pending: t.pending, Hint: ThresholdHint(total)}
}

// Total returns the last observed total level and whether a baseline exists.
func (t *LevelTracker) Total() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.ready
}

// Pending returns the number of queued choices.
func (t *LevelTracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// PendingMilestones returns the number of queued milestone flags.
func (t *LevelTracker) PendingMilestones() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.milestones
}

// takeMilestone consumes one milestone flag if any is queued.
func (t *LevelTracker) takeMilestone() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.milestones == 0 {
		return false
	}
	t.milestones--
	return true
}

// consumeChoice removes one pending choice and returns the remainder.
func (t *LevelTracker) consumeChoice() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending > 0 {
		t.pending--
	}
	return t.pending
}

// drain empties the queue.
func (t *LevelTracker) drain() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = 0
	t.milestones = 0
}
