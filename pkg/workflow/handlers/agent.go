package handlers

import (
	"context"

	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/llm"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// AgentHandler implements the "agent" block type: a single LLM completion
// call, resolved through pkg/llm's provider registry so a workflow can
// target any configured provider (or the org's default) by name.
type AgentHandler struct {
	Registry *llm.Registry
}

func NewAgentHandler(registry *llm.Registry) *AgentHandler {
	return &AgentHandler{Registry: registry}
}

func (h *AgentHandler) Handle(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
	inputs := wctx.ResolveInputs(block.Logic)

	prompt, _ := inputs["agent_prompt"].(string)
	if prompt == "" {
		return workflow.BlockResult{}, &errors.ValidationError{Field: "agent_prompt", Message: "agent block requires an agent_prompt input"}
	}

	provider, err := h.resolveProvider(inputs)
	if err != nil {
		return workflow.BlockResult{}, err
	}

	req := llm.CompletionRequest{
		Messages: h.buildMessages(inputs, prompt),
	}
	if model, ok := inputs["agent_model"].(string); ok && model != "" {
		req.Model = model
	}
	if temp, ok := inputs["agent_temperature"].(float64); ok {
		req.Temperature = &temp
	}

	resp, err := provider.Complete(ctx, req)
	if err != nil {
		return workflow.BlockResult{}, err
	}

	return bindResult(block, inputs, "agent", map[string]any{
		"text":  resp.Content,
		"model": resp.Model,
	}), nil
}

func (h *AgentHandler) resolveProvider(inputs map[string]any) (llm.Provider, error) {
	if h.Registry == nil {
		return nil, &errors.ConfigError{Key: "llm", Reason: "no provider registry configured for this run"}
	}
	if name, ok := inputs["agent_provider"].(string); ok && name != "" {
		return h.Registry.Get(name)
	}
	return h.Registry.GetDefault()
}

func (h *AgentHandler) buildMessages(inputs map[string]any, prompt string) []llm.Message {
	var messages []llm.Message
	if sys, ok := inputs["agent_system"].(string); ok && sys != "" {
		messages = append(messages, llm.Message{Role: llm.MessageRoleSystem, Content: sys})
	}
	messages = append(messages, llm.Message{Role: llm.MessageRoleUser, Content: prompt})
	return messages
}
