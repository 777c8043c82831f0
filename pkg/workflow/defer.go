package workflow

import (
	"context"
	"sync"

	"github.com/blockrun/blockrun/pkg/workflow/expression"
)

// DeferredRunner executes one block's set of deferred iterations: each
// iteration gets its own shallow-copied child WorkflowContext (fresh
// state/cache/artifacts, a fresh iteration id), runs independently, and then
// has its resulting state merged back into the parent key-wise. UI blocks
// encountered inside a deferred iteration are skipped entirely — a deferred
// iteration can never pause the parent run.
type DeferredRunner struct {
	Interpreter *Interpreter
}

// Iteration is one item to run the deferred block sequence against.
type Iteration struct {
	ID    string
	Index int
	Item  any
	Row   any
}

// IterationResult is what one deferred iteration produced.
type IterationResult struct {
	IterationID string
	State       map[string]any
	Error       *StepError
}

// RunIterations executes iterations of version starting at startIndex,
// bounded to concurrency simultaneous goroutines (unbounded if
// concurrency <= 0), and merges each iteration's resulting state back into
// parent key-wise once all iterations complete.
func (d *DeferredRunner) RunIterations(ctx context.Context, version *WorkflowVersion, parent *WorkflowContext, builder *RunBuilder, loopID string, startIndex int, iterations []Iteration, concurrency int) []IterationResult {
	results := make([]IterationResult, len(iterations))

	var sem chan struct{}
	if concurrency > 0 {
		sem = make(chan struct{}, concurrency)
	}

	var wg sync.WaitGroup
	for i, iter := range iterations {
		wg.Add(1)
		go func(i int, iter Iteration) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			results[i] = d.runOne(ctx, version, parent, builder, loopID, startIndex, iter)
		}(i, iter)
	}
	wg.Wait()

	d.mergeResults(parent, results)
	return results
}

func (d *DeferredRunner) runOne(ctx context.Context, version *WorkflowVersion, parent *WorkflowContext, builder *RunBuilder, loopID string, startIndex int, iter Iteration) IterationResult {
	child := parent.Clone()
	child.Loops[loopID] = expression.LoopScope{Index: iter.Index, Item: iter.Item, Row: iter.Row}
	child.CurrentLoopID = loopID

	interp := deferredInterpreter(d.Interpreter)
	outcome := interp.Run(ctx, version, child, builder, startIndex)

	return IterationResult{
		IterationID: iter.ID,
		State:       child.State,
		Error:       outcome.Error,
	}
}

// deferredInterpreter returns a copy of base configured to skip rather than
// pause on UI blocks, since a deferred iteration can never pause the parent
// run.
func deferredInterpreter(base *Interpreter) *Interpreter {
	return &Interpreter{
		Registry:     base.Registry,
		Resolver:     base.Resolver,
		Budget:       base.Budget,
		IsCancelled:  base.IsCancelled,
		SkipUIBlocks: true,
	}
}

// mergeResults merges each iteration's resulting state into parent,
// key-wise: last iteration to touch a key wins when deferred iterations ran
// concurrently and modified the same key; ordering across concurrent
// writes is intentionally undefined.
func (d *DeferredRunner) mergeResults(parent *WorkflowContext, results []IterationResult) {
	for _, r := range results {
		for k, v := range r.State {
			parent.State[k] = v
		}
	}
}
