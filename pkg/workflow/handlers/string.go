package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// StringHandler implements the "string" block type: common string
// transforms (concat, split, replace, case conversion, trim, template).
// Supports either a single string_operation or a string_operations chain,
// each step defaulting string_value to the previous step's result when
// omitted.
type StringHandler struct{}

func NewStringHandler() *StringHandler { return &StringHandler{} }

func (h *StringHandler) Handle(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
	inputs := wctx.ResolveInputs(block.Logic)

	ops, err := parseOperations(inputs, "string")
	if err != nil {
		return workflow.BlockResult{}, err
	}

	var result any
	for _, op := range ops {
		result, err = h.apply(op.Name, op.Params, inputs, result, wctx)
		if err != nil {
			return workflow.BlockResult{}, err
		}
	}

	return bindResult(block, inputs, "string", result), nil
}

func (h *StringHandler) apply(op string, params, inputs map[string]any, prev any, wctx *workflow.WorkflowContext) (any, error) {
	value := func() (string, error) {
		if v := paramOrInput(params, inputs, "string_value"); v != nil {
			s, ok := v.(string)
			if !ok {
				return "", &errors.ValidationError{Field: "string_value", Message: "string_value must be a string"}
			}
			return s, nil
		}
		if s, ok := prev.(string); ok {
			return s, nil
		}
		return "", &errors.ValidationError{Field: "string_value", Message: "string_value is required"}
	}

	switch op {
	case "concat":
		parts, ok := paramOrInput(params, inputs, "string_values").([]any)
		if !ok {
			return nil, &errors.ValidationError{Field: "string_values", Message: "concat requires an array of values"}
		}
		sep, _ := paramOrInput(params, inputs, "string_separator").(string)
		strs := make([]string, len(parts))
		for i, p := range parts {
			strs[i] = fmt.Sprintf("%v", p)
		}
		return strings.Join(strs, sep), nil
	case "split":
		s, err := value()
		if err != nil {
			return nil, err
		}
		sep, _ := paramOrInput(params, inputs, "string_separator").(string)
		if sep == "" {
			sep = ","
		}
		parts := strings.Split(s, sep)
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, nil
	case "replace":
		s, err := value()
		if err != nil {
			return nil, err
		}
		old, _ := paramOrInput(params, inputs, "string_find").(string)
		newStr, _ := paramOrInput(params, inputs, "string_replace").(string)
		return strings.ReplaceAll(s, old, newStr), nil
	case "upper":
		s, err := value()
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(s), nil
	case "lower":
		s, err := value()
		if err != nil {
			return nil, err
		}
		return strings.ToLower(s), nil
	case "trim":
		s, err := value()
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(s), nil
	case "contains":
		s, err := value()
		if err != nil {
			return nil, err
		}
		substr, _ := paramOrInput(params, inputs, "string_substring").(string)
		return strings.Contains(s, substr), nil
	case "length":
		s, err := value()
		if err != nil {
			return nil, err
		}
		return len(s), nil
	case "template":
		s, err := value()
		if err != nil {
			return nil, err
		}
		return wctx.Interpolate(s), nil
	default:
		return nil, &errors.ValidationError{Field: "string_operation", Message: "unknown string operation: " + op}
	}
}
