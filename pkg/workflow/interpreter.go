package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blockrun/blockrun/pkg/workflow/expression"
)

// Budget bounds how long, how many steps, and how many concurrent deferred
// iterations a single Interpreter.Run call may take before it is forced to
// stop or throttle. Zero MaxSteps/MaxDuration means unbounded; zero
// DeferConcurrency falls back to NewInterpreter's default of 3.
type Budget struct {
	MaxSteps         int
	MaxDuration      time.Duration
	DeferConcurrency int
}

// CancelFunc reports whether the calling Run has been asked to cancel.
// The Run Orchestration Service supplies this from its shared
// cancellation-flag map.
type CancelFunc func(runID string) bool

// Interpreter runs a WorkflowVersion's block graph against a
// WorkflowContext, one block at a time, honoring conditions, goto jumps,
// UI-block pausing, and error handling.
type Interpreter struct {
	Registry    *Registry
	Resolver    *expression.Resolver
	Budget      Budget
	IsCancelled CancelFunc

	// SkipUIBlocks, when true, makes UI blocks skip (record a skipped
	// Step and fall through) instead of pausing the run. Set by the
	// defer package for the Interpreter instances it uses to run
	// deferred iterations, which can never pause.
	SkipUIBlocks bool
}

// NewInterpreter creates an Interpreter bound to registry.
func NewInterpreter(registry *Registry) *Interpreter {
	return &Interpreter{
		Registry: registry,
		Resolver: expression.NewResolver(time.Now),
		Budget:   Budget{DeferConcurrency: 3},
	}
}

// Outcome is the terminal result of an Interpreter.Run call.
type Outcome struct {
	Status RunStatus
	Error  *StepError
	// PausedBlockID/PausedBlockIndex/PausedUIConfig are set when
	// Status == RunAwaitingAction: the block that triggered the pause, its
	// index in the block list (resume re-enters at PausedBlockIndex+1),
	// and that block's own Logic (so a client can re-render the same UI).
	PausedBlockID    string
	PausedBlockIndex int
	PausedUIConfig   map[string]any
	// PausedOrder is the step ledger's execution order for the pausing
	// step, used for step-count telemetry.
	PausedOrder int
}

// Run executes version's blocks in order starting at startIndex (0 for a
// fresh run, pausedIndex+1 on resume), recording every transition via
// builder, until the run completes, fails, is cancelled, hits a UI block,
// or exhausts its Budget.
func (in *Interpreter) Run(ctx context.Context, version *WorkflowVersion, wctx *WorkflowContext, builder *RunBuilder, startIndex int) Outcome {
	blocks := version.Blocks
	nameIndex := make(map[string]int, len(blocks))
	for i, b := range blocks {
		if b.Name != "" {
			nameIndex[b.Name] = i
		}
	}

	deferConcurrency := in.Budget.DeferConcurrency
	if deferConcurrency <= 0 {
		deferConcurrency = 3
	}

	current := startIndex
	started := time.Now()
	stepsRun := 0

	for current >= 0 && current < len(blocks) {
		if in.IsCancelled != nil && in.IsCancelled(wctx.Run.ID) {
			return Outcome{Status: RunCancelled}
		}

		if in.Budget.MaxSteps > 0 && stepsRun >= in.Budget.MaxSteps {
			return Outcome{Status: RunFailed, Error: &StepError{Message: fmt.Sprintf("exceeded max step budget of %d", in.Budget.MaxSteps)}}
		}
		if in.Budget.MaxDuration > 0 && time.Since(started) >= in.Budget.MaxDuration {
			return Outcome{Status: RunFailed, Error: &StepError{Message: fmt.Sprintf("exceeded max duration budget of %s", in.Budget.MaxDuration)}}
		}

		block := blocks[current]
		nextIndex := current + 1

		matched, err := expression.EvaluateGroup(in.Resolver, block.Condition, wctx.Scopes())
		if err != nil {
			return Outcome{Status: RunFailed, Error: &StepError{Message: err.Error(), BlockID: block.ID, BlockName: block.Name}}
		}
		if !matched {
			step := builder.CreateStep(block.ID)
			builder.SkipStep(step)
			current = nextIndex
			continue
		}

		if block.IsUIBlock() {
			if in.SkipUIBlocks {
				step := builder.CreateStep(block.ID)
				builder.SkipStep(step)
				current = nextIndex
				continue
			}
			step := builder.CreateStep(block.ID)
			builder.CompleteStep(step, wctx, wctx)
			return Outcome{
				Status:           RunAwaitingAction,
				PausedBlockID:    block.ID,
				PausedBlockIndex: current,
				PausedUIConfig:   block.Logic,
				PausedOrder:      step.ExecutionOrder,
			}
		}

		if block.Type == "goto" {
			step := builder.CreateStep(block.ID)
			stepsRun++

			targetIndex, deferred, gotoErr := in.resolveGoto(wctx, block, nameIndex)
			if gotoErr != nil {
				builder.FailStep(step, gotoErr)
				wctx.Error = gotoErr
				if block.OnError == "continue" {
					builder.CompleteStep(step, wctx, wctx)
					current = nextIndex
					continue
				}
				return Outcome{Status: RunFailed, Error: gotoErr}
			}

			if !deferred {
				builder.CompleteStep(step, wctx, wctx)
				current = targetIndex
				continue
			}

			before := wctx.Clone()
			in.runDeferred(ctx, version, wctx, builder, block, targetIndex, deferConcurrency)
			builder.CompleteStep(step, before, wctx)
			current = nextIndex
			continue
		}

		handler, ok := in.Registry.Lookup(block.Type)
		if !ok {
			return Outcome{Status: RunFailed, Error: &StepError{
				Message:   fmt.Sprintf("no handler registered for block type %q", block.Type),
				BlockID:   block.ID,
				BlockName: block.Name,
			}}
		}

		before := wctx.Clone()
		step := builder.CreateStep(block.ID)

		result, handlerErr := handler.Handle(ctx, block, wctx)
		stepsRun++

		if handlerErr != nil {
			stepErr := &StepError{Message: handlerErr.Error(), BlockID: block.ID, BlockName: block.Name}
			if se, ok := handlerErr.(*StepError); ok {
				stepErr = se
			}
			builder.FailStep(step, stepErr)
			wctx.Error = stepErr

			if block.OnError == "continue" {
				current = nextIndex
				continue
			}
			return Outcome{Status: RunFailed, Error: stepErr}
		}

		wctx.ApplyResult(result)
		builder.CompleteStep(step, before, wctx)

		current = nextIndex
	}

	return Outcome{Status: RunCompleted}
}

// resolveGoto reads goto_target/goto_defer off block's Logic, resolving
// goto_target once (it may itself be a $-path or {{...}} template) and
// looking the resolved name up by block name — never by id. A missing or
// unresolved target is fatal, matching "target-not-found is fatal" as a
// name-resolution failure rather than an id-lookup miss.
func (in *Interpreter) resolveGoto(wctx *WorkflowContext, block Block, nameIndex map[string]int) (targetIndex int, deferred bool, err *StepError) {
	raw, _ := block.Logic["goto_target"]
	resolved := wctx.ResolveInputs(map[string]any{"goto_target": raw})["goto_target"]
	targetName, _ := resolved.(string)
	targetName = strings.TrimSpace(targetName)
	if targetName == "" {
		return 0, false, &StepError{Message: "goto block has no goto_target", BlockID: block.ID, BlockName: block.Name}
	}

	idx, ok := nameIndex[targetName]
	if !ok {
		return 0, false, &StepError{Message: fmt.Sprintf("goto target block %q not found", targetName), BlockID: block.ID, BlockName: block.Name}
	}

	return idx, toBool(block.Logic["goto_defer"]), nil
}

// runDeferred performs a single isolated pass starting at targetIndex (see
// defer.go), optionally fanning out over an array named by goto_defer_over
// (a $-path) so multiple isolated passes run concurrently, bounded by
// concurrency — the concurrency knob the spec reserves for this case, left
// unexercised by a single-iteration dispatch.
func (in *Interpreter) runDeferred(ctx context.Context, version *WorkflowVersion, wctx *WorkflowContext, builder *RunBuilder, block Block, targetIndex int, concurrency int) {
	runner := &DeferredRunner{Interpreter: in}

	var items []any
	if over, ok := block.Logic["goto_defer_over"].(string); ok && over != "" {
		if arr, ok := wctx.Resolve(over).([]any); ok {
			items = arr
		}
	}

	var iterations []Iteration
	if len(items) == 0 {
		iterations = []Iteration{{ID: block.ID + "-0"}}
	} else {
		iterations = make([]Iteration, len(items))
		for i, item := range items {
			iterations[i] = Iteration{ID: fmt.Sprintf("%s-%d", block.ID, i), Index: i, Item: item, Row: item}
		}
	}

	runner.RunIterations(ctx, version, wctx, builder, block.ID, targetIndex, iterations, concurrency)
}

// NewFatalError builds a *StepError suitable for returning from a Handler
// when the error should be treated as a hard failure regardless of
// block-level on_error policy (e.g. sandbox setup failures). Handlers
// generally should just return a plain error; this helper exists for
// callers that want to attach BlockID/BlockName context the Interpreter
// would otherwise have to guess at.
func NewFatalError(msg string, blockID, blockName string) error {
	return &StepError{Message: msg, BlockID: blockID, BlockName: blockName}
}

// toBool coerces common JSON-decoded shapes (and literal bool) to bool.
func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "1" || b == "yes"
	default:
		return false
	}
}
