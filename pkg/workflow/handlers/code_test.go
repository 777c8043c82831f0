package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockrun/blockrun/pkg/workflow"
	"github.com/blockrun/blockrun/pkg/workflow/handlers"
)

type stubKeyResolver struct {
	values map[string]string
}

func (s stubKeyResolver) Resolve(_ *workflow.WorkflowContext, name string) (string, error) {
	v, ok := s.values[name]
	if !ok {
		return "", &notFoundErr{name}
	}
	return v, nil
}

type notFoundErr struct{ name string }

func (e *notFoundErr) Error() string { return "secret not found: " + e.name }

func TestCodeHandler_Handle_MutatesState(t *testing.T) {
	h := handlers.NewCodeHandler(nil)
	block := workflow.Block{
		ID:   "b1",
		Type: "code",
		Logic: map[string]any{
			"code_source": `state.total = (state.total || 0) + state.amount; return state.total;`,
		},
	}
	wctx := workflow.NewWorkflowContext(&workflow.Run{ID: "run_1"})
	wctx.State["amount"] = float64(5)

	result, err := h.Handle(context.Background(), block, wctx)
	require.NoError(t, err)
	require.Equal(t, float64(5), result.StateDelta["total"])

	wctx.ApplyResult(result)
	require.Equal(t, float64(5), wctx.State["total"])
}

func TestCodeHandler_Handle_RequiresScript(t *testing.T) {
	h := handlers.NewCodeHandler(nil)
	block := workflow.Block{ID: "b1", Type: "code"}
	wctx := workflow.NewWorkflowContext(&workflow.Run{ID: "run_1"})

	_, err := h.Handle(context.Background(), block, wctx)
	require.Error(t, err)
}

func TestCodeHandler_Handle_ResolvesNamedSecrets(t *testing.T) {
	h := handlers.NewCodeHandler(nil)
	block := workflow.Block{
		ID:   "b1",
		Type: "code",
		Logic: map[string]any{
			"code_source":     `return secrets.apiKey;`,
			"code_secrets":    []any{"apiKey"},
			"code_bind_value": "result",
		},
	}
	wctx := workflow.NewWorkflowContext(&workflow.Run{ID: "run_1"})
	wctx.KeyResolver = stubKeyResolver{values: map[string]string{"apiKey": "sk-test"}}

	result, err := h.Handle(context.Background(), block, wctx)
	require.NoError(t, err)
	require.Equal(t, "sk-test", result.StateDelta["result"])
}

func TestCodeHandler_Handle_DeletedStateKeysApplied(t *testing.T) {
	h := handlers.NewCodeHandler(nil)
	block := workflow.Block{
		ID:   "b1",
		Type: "code",
		Logic: map[string]any{
			"code_source": `delete state.stale; return null;`,
		},
	}
	wctx := workflow.NewWorkflowContext(&workflow.Run{ID: "run_1"})
	wctx.State["stale"] = "gone"

	result, err := h.Handle(context.Background(), block, wctx)
	require.NoError(t, err)
	require.Contains(t, result.StateDeleted, "stale")

	wctx.ApplyResult(result)
	_, exists := wctx.State["stale"]
	require.False(t, exists)
}
