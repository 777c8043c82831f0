package workflow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blockrun/blockrun/pkg/workflow"
)

func TestFreezeThaw_RoundTrip(t *testing.T) {
	run := &workflow.Run{ID: "run_1"}
	ctx := workflow.NewWorkflowContext(run)
	ctx.State["name"] = "ada"
	ctx.Cache.Set("z", 1)
	ctx.Cache.Set("a", 2)
	ctx.Artifacts = append(ctx.Artifacts, "s3://x")

	ps := workflow.Freeze(ctx, "block_5", 3, map[string]any{"prompt": "confirm?"}, time.Now())
	require.Equal(t, "run_1", ps.RunID)
	require.Equal(t, "block_5", ps.PausedBlockID)
	require.Equal(t, 3, ps.CurrentBlockIndex)
	require.Equal(t, map[string]any{"prompt": "confirm?"}, ps.PausedUIConfig)
	require.Equal(t, []workflow.CacheEntry{{Key: "z", Value: 1}, {Key: "a", Value: 2}}, ps.ContextSnapshot.Cache)
	require.Equal(t, []any{"s3://x"}, ps.ContextSnapshot.Artifacts)

	thawed := workflow.Thaw(run, ps)
	require.Equal(t, "ada", thawed.State["name"])
	require.Equal(t, ps.ContextSnapshot.Cache, thawed.Cache.Entries())
	require.Equal(t, []any{"s3://x"}, thawed.Artifacts)
}
