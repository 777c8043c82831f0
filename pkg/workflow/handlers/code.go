package handlers

import (
	"context"
	"fmt"

	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/security/codesandbox"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// CodeHandler implements the "code" block type: an in-process sandboxed
// script run against the block's live state, cache, artifacts, and any
// secrets the block explicitly names.
type CodeHandler struct {
	Runner *codesandbox.Runner
}

// NewCodeHandler builds a CodeHandler whose sandbox's fetch() binding is
// backed by fetch, an SSRF-filtered caller (see FetchHandler).
func NewCodeHandler(fetch codesandbox.FetchFunc) *CodeHandler {
	cfg := codesandbox.DefaultConfig()
	cfg.Fetch = fetch
	return &CodeHandler{Runner: codesandbox.NewRunner(cfg)}
}

func (h *CodeHandler) Handle(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
	// code_source is deliberately read straight off block.Logic rather than
	// through wctx.ResolveInputs: script bodies routinely contain literal
	// "{{" / "$"-prefixed text that must not be mistaken for a reference
	// template.
	script, _ := block.Logic["code_source"].(string)
	if script == "" {
		return workflow.BlockResult{}, &errors.ValidationError{Field: "code_source", Message: "code block requires a code_source input"}
	}

	secrets, err := h.resolveSecrets(wctx, block.Logic["code_secrets"])
	if err != nil {
		return workflow.BlockResult{}, err
	}

	res, err := h.Runner.Run(ctx, script, wctx.State, wctx.Cache, wctx.Artifacts, secrets)
	if err != nil {
		return workflow.BlockResult{}, fmt.Errorf("code block %s: %w", block.ID, err)
	}

	stateDelta := make(map[string]any, len(res.Diff.Added)+len(res.Diff.Changed)+1)
	for k, v := range res.Diff.Added {
		stateDelta[k] = v
	}
	for k, v := range res.Diff.Changed {
		stateDelta[k] = v
	}

	if bindKey, ok := block.Logic["code_bind_value"].(string); ok && bindKey != "" && res.ReturnValue != nil {
		stateDelta[bindKey] = res.ReturnValue
	}

	var eventDelta any
	if len(res.Console) > 0 {
		eventDelta = map[string]any{"__consoleOutput": res.Console}
	}

	return workflow.BlockResult{
		StateDelta:   stateDelta,
		StateDeleted: res.Diff.Deleted,
		EventDelta:   eventDelta,
	}, nil
}

// resolveSecrets resolves the named secrets (block.Logic["code_secrets"], a
// list of key names) through the run's KeyResolver, so actual secret
// material only ever materializes for the duration of one script
// execution.
func (h *CodeHandler) resolveSecrets(wctx *workflow.WorkflowContext, raw any) (map[string]string, error) {
	names, ok := raw.([]any)
	if !ok || len(names) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(names))
	for _, n := range names {
		name, _ := n.(string)
		if name == "" {
			continue
		}
		if wctx.KeyResolver == nil {
			return nil, &errors.ConfigError{Key: name, Reason: "no key resolver configured for this run"}
		}
		val, err := wctx.KeyResolver.Resolve(wctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve secret %q: %w", name, err)
		}
		out[name] = val
	}
	return out, nil
}
