package workflow

import (
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunBuilder is the step ledger for one Run: every state transition the
// Interpreter makes is recorded here as a Step before it is applied to the
// live WorkflowContext, so the ledger is always a faithful, ordered replay
// log of the run.
type RunBuilder struct {
	mu    sync.Mutex
	runID string
	next  int
	steps []Step
}

// NewRunBuilder creates a RunBuilder for runID.
func NewRunBuilder(runID string) *RunBuilder {
	return &RunBuilder{runID: runID}
}

// Steps returns a copy of the ledger recorded so far.
func (b *RunBuilder) Steps() []Step {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Step, len(b.steps))
	copy(out, b.steps)
	return out
}

func (b *RunBuilder) nextOrder() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	order := b.next
	b.next++
	return order
}

func (b *RunBuilder) append(step Step) Step {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps = append(b.steps, step)
	return step
}

// CreateStep records the start of execution for blockID and returns the
// allocated Step, not yet marked complete.
func (b *RunBuilder) CreateStep(blockID string) Step {
	step := Step{
		ID:             newStepID(),
		RunID:          b.runID,
		BlockID:        blockID,
		ExecutionOrder: b.nextOrder(),
		StartedAt:      time.Now(),
	}
	return b.append(step)
}

// CompleteStep finalizes step as successful, attaching the deltas computed
// from before/after state snapshots.
func (b *RunBuilder) CompleteStep(step Step, before, after *WorkflowContext) Step {
	now := time.Now()
	step.Status = StepCompleted
	step.StateDelta = calculateDelta(before.State, after.State)
	step.CacheDelta = calculateDelta(before.Cache.Snapshot(), after.Cache.Snapshot())
	step.ArtifactsDelta = calculateArtifactsDelta(before.Artifacts, after.Artifacts)
	step.EventDelta = after.Event
	step.CompletedAt = &now
	return b.replace(step)
}

// FailStep finalizes step as failed with stepErr.
func (b *RunBuilder) FailStep(step Step, stepErr *StepError) Step {
	now := time.Now()
	step.Status = StepFailed
	step.Error = stepErr
	step.CompletedAt = &now
	return b.replace(step)
}

// SkipStep finalizes step as skipped (its condition evaluated false).
func (b *RunBuilder) SkipStep(step Step) Step {
	now := time.Now()
	step.Status = StepSkipped
	step.CompletedAt = &now
	return b.replace(step)
}

// CreateDeferredStep records a step for a block executed inside a deferred
// iteration. Its ExecutionOrder still comes from the same monotonic
// counter as top-level steps — ordering across concurrent iterations is
// intentionally not guaranteed, but order within a single
// iteration, and the existence of a unique order number, both are.
func (b *RunBuilder) CreateDeferredStep(blockID string) Step {
	return b.CreateStep(blockID)
}

func (b *RunBuilder) replace(step Step) Step {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.steps {
		if b.steps[i].ID == step.ID {
			b.steps[i] = step
			break
		}
	}
	return step
}

// calculateDelta deep-compares before and after and returns only the keys
// that are new or changed. Deletions are not represented in a normal
// delta — a key removed from after simply stops being mentioned, matching
// here (only the Code Sandbox's post-execution diff tracks deletions
// explicitly, see sandbox.Diff).
func calculateDelta(before, after map[string]any) map[string]any {
	if len(after) == 0 {
		return nil
	}
	delta := make(map[string]any)
	for k, av := range after {
		bv, existed := before[k]
		if !existed || !reflect.DeepEqual(bv, av) {
			delta[k] = av
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// calculateArtifactsDelta returns the artifacts appended to the sequence
// since before — artifacts is append-only, so the delta is simply the
// suffix of after beyond before's length.
func calculateArtifactsDelta(before, after []any) []any {
	if len(after) <= len(before) {
		return nil
	}
	delta := make([]any, len(after)-len(before))
	copy(delta, after[len(before):])
	return delta
}

// ApplyDeltas merges step's recorded deltas into ctx. Used when replaying a
// ledger to reconstruct context state (e.g. for debugging/inspection tools)
// independent of live execution.
func ApplyDeltas(ctx *WorkflowContext, step Step) {
	ctx.ApplyResult(BlockResult{
		StateDelta:     step.StateDelta,
		CacheDelta:     step.CacheDelta,
		ArtifactsDelta: step.ArtifactsDelta,
		EventDelta:     step.EventDelta,
	})
}

// newStepID generates a globally-unique step identifier.
func newStepID() string {
	return uuid.NewString()
}
