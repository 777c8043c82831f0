package workflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockrun/blockrun/pkg/workflow"
)

func copyItemHandler() workflow.Handler {
	return workflow.HandlerFunc(func(_ context.Context, _ workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
		item := wctx.Loops["row"].Item
		return workflow.BlockResult{StateDelta: map[string]any{"last_item": item}}, nil
	})
}

func TestDeferredRunner_MergesStateBackIntoParent(t *testing.T) {
	registry := workflow.NewRegistry()
	registry.Register("echo", copyItemHandler())

	version := &workflow.WorkflowVersion{Blocks: []workflow.Block{{ID: "1", Type: "echo"}}}

	run := &workflow.Run{ID: "run_1"}
	parent := workflow.NewWorkflowContext(run)
	parent.State["shared"] = "untouched"
	builder := workflow.NewRunBuilder(run.ID)

	runner := &workflow.DeferredRunner{Interpreter: workflow.NewInterpreter(registry)}

	iterations := []workflow.Iteration{
		{ID: "it1", Item: "a"},
		{ID: "it2", Item: "b"},
		{ID: "it3", Item: "c"},
	}

	results := runner.RunIterations(context.Background(), version, parent, builder, "row", 0, iterations, 2)
	require.Len(t, results, 3)
	require.Equal(t, "untouched", parent.State["shared"])
	require.Contains(t, []any{"a", "b", "c"}, parent.State["last_item"])

	for _, r := range results {
		require.NotEmpty(t, r.IterationID)
		require.Contains(t, []any{"a", "b", "c"}, r.State["last_item"])
	}
}

func TestDeferredRunner_SkipsUIBlocksInsteadOfPausing(t *testing.T) {
	registry := workflow.NewRegistry()
	version := &workflow.WorkflowVersion{Blocks: []workflow.Block{
		{ID: "1", Type: "ui_confirm"},
	}}

	run := &workflow.Run{ID: "run_1"}
	parent := workflow.NewWorkflowContext(run)
	builder := workflow.NewRunBuilder(run.ID)

	runner := &workflow.DeferredRunner{Interpreter: workflow.NewInterpreter(registry)}
	results := runner.RunIterations(context.Background(), version, parent, builder, "row", 0, []workflow.Iteration{{ID: "it1", Item: "a"}}, 0)

	require.Len(t, results, 1)
	require.Nil(t, results[0].Error)
}
