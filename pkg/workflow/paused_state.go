package workflow

import (
	"time"

	"github.com/blockrun/blockrun/pkg/workflow/expression"
)

// ContextSnapshot is the rehydratable portion of a WorkflowContext captured
// inside a PausedRunState. Cache is an ordered slice, not a map, so that
// insertion order survives the round trip; artifacts are likewise a slice
// since they're an ordered sequence, not a keyed map.
type ContextSnapshot struct {
	State     map[string]any             `json:"state"`
	Cache     []CacheEntry               `json:"cache"`
	Artifacts []any                       `json:"artifacts"`
	Event     any                         `json:"event,omitempty"`
	Loops     map[string]PausedLoopScope  `json:"loops,omitempty"`
}

// PausedRunState is the serialized snapshot a Run is frozen into when it
// hits a UI block and is waiting for an external action, and the shape it
// is thawed from on resume.
type PausedRunState struct {
	RunID             string          `json:"runId"`
	CurrentBlockIndex int             `json:"currentBlockIndex"`
	ContextSnapshot   ContextSnapshot `json:"contextSnapshot"`
	PausedBlockID     string          `json:"pausedBlockId"`
	// PausedUIConfig is the paused UI block's own Logic, so a resumed run
	// (or a client polling for the pending action) can re-render the same
	// form/prompt without needing the workflow definition on hand.
	PausedUIConfig map[string]any `json:"pausedUiConfig,omitempty"`
	PausedAt       time.Time      `json:"pausedAt"`
}

// PausedLoopScope is the persisted form of expression.LoopScope.
type PausedLoopScope struct {
	Index int `json:"index"`
	Item  any `json:"item"`
	Row   any `json:"row"`
}

// Freeze captures ctx into a PausedRunState at the given block/index,
// recording uiConfig (the paused block's own Logic) alongside it.
func Freeze(ctx *WorkflowContext, blockID string, blockIndex int, uiConfig map[string]any, now time.Time) PausedRunState {
	loops := make(map[string]PausedLoopScope, len(ctx.Loops))
	for id, l := range ctx.Loops {
		loops[id] = PausedLoopScope{Index: l.Index, Item: l.Item, Row: l.Row}
	}

	return PausedRunState{
		RunID:             ctx.Run.ID,
		CurrentBlockIndex: blockIndex,
		ContextSnapshot: ContextSnapshot{
			State:     copyMap(ctx.State),
			Cache:     ctx.Cache.Entries(),
			Artifacts: copySlice(ctx.Artifacts),
			Event:     ctx.Event,
			Loops:     loops,
		},
		PausedBlockID:  blockID,
		PausedUIConfig: uiConfig,
		PausedAt:       now,
	}
}

// Thaw rebuilds a WorkflowContext from a PausedRunState for resume.
func Thaw(run *Run, ps PausedRunState) *WorkflowContext {
	ctx := NewWorkflowContext(run)
	ctx.State = copyMap(ps.ContextSnapshot.State)
	ctx.Cache = NewOrderedCacheFromEntries(ps.ContextSnapshot.Cache)
	ctx.Artifacts = copySlice(ps.ContextSnapshot.Artifacts)
	ctx.Event = ps.ContextSnapshot.Event
	for id, l := range ps.ContextSnapshot.Loops {
		ctx.Loops[id] = expression.LoopScope{Index: l.Index, Item: l.Item, Row: l.Row}
	}
	return ctx
}
