package orchestration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blockrun/blockrun/pkg/events"
	"github.com/blockrun/blockrun/pkg/orchestration"
	"github.com/blockrun/blockrun/pkg/workflow"
)

func waitForStatus(t *testing.T, store workflow.Store, runID string, want workflow.RunStatus) *workflow.Run {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		run, err := store.GetRun(context.Background(), runID)
		require.NoError(t, err)
		if run.Status == want {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run never reached status %s", want)
	return nil
}

func TestService_Trigger_RunsToCompletion(t *testing.T) {
	store := workflow.NewMemoryStore()
	registry := workflow.NewRegistry()
	registry.Register("set", workflow.HandlerFunc(func(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
		return workflow.BlockResult{StateDelta: map[string]any{"done": true}}, nil
	}))
	broadcaster := events.NewBroadcaster()
	svc := orchestration.NewService(store, registry, broadcaster)

	version := &workflow.WorkflowVersion{
		ID:         "v1",
		WorkflowID: "wf1",
		Blocks:     []workflow.Block{{ID: "b1", Type: "set"}},
	}

	run, err := svc.Trigger(context.Background(), version, "org1", nil)
	require.NoError(t, err)

	final := waitForStatus(t, store, run.ID, workflow.RunCompleted)
	require.Nil(t, final.Error)
}

func TestService_Trigger_PausesOnUIBlock(t *testing.T) {
	store := workflow.NewMemoryStore()
	registry := workflow.NewRegistry()
	svc := orchestration.NewService(store, registry, nil)

	version := &workflow.WorkflowVersion{
		ID:         "v1",
		WorkflowID: "wf1",
		Blocks:     []workflow.Block{{ID: "b1", Type: "ui_form"}},
	}

	run, err := svc.Trigger(context.Background(), version, "org1", nil)
	require.NoError(t, err)

	waitForStatus(t, store, run.ID, workflow.RunAwaitingAction)

	ps, err := store.LoadPausedState(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, "b1", ps.PausedBlockID)
}

func TestService_Resume_ContinuesFromPause(t *testing.T) {
	store := workflow.NewMemoryStore()
	registry := workflow.NewRegistry()
	registry.Register("set", workflow.HandlerFunc(func(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
		return workflow.BlockResult{StateDelta: map[string]any{"afterResume": true}}, nil
	}))
	svc := orchestration.NewService(store, registry, nil)

	version := &workflow.WorkflowVersion{
		ID:         "v1",
		WorkflowID: "wf1",
		Blocks: []workflow.Block{
			{ID: "b1", Type: "ui_form"},
			{ID: "b2", Type: "set"},
		},
	}

	run, err := svc.Trigger(context.Background(), version, "org1", nil)
	require.NoError(t, err)
	waitForStatus(t, store, run.ID, workflow.RunAwaitingAction)

	_, err = svc.Resume(context.Background(), run.ID, map[string]any{"userInput": "yes"})
	require.NoError(t, err)

	final := waitForStatus(t, store, run.ID, workflow.RunCompleted)
	require.Equal(t, workflow.RunCompleted, final.Status)
}

func TestService_Cancel_StopsRunAtNextBlock(t *testing.T) {
	store := workflow.NewMemoryStore()
	registry := workflow.NewRegistry()
	started := make(chan struct{})
	registry.Register("slow", workflow.HandlerFunc(func(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
		close(started)
		return workflow.BlockResult{}, nil
	}))
	svc := orchestration.NewService(store, registry, nil)

	version := &workflow.WorkflowVersion{
		ID:         "v1",
		WorkflowID: "wf1",
		Blocks: []workflow.Block{
			{ID: "b1", Type: "slow"},
			{ID: "b2", Type: "slow"},
		},
	}

	run, err := svc.Trigger(context.Background(), version, "org1", nil)
	require.NoError(t, err)

	<-started
	svc.Cancel(run.ID)

	waitForStatus(t, store, run.ID, workflow.RunCancelled)
}
