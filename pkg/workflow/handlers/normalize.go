package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// NormalizeHandler implements the "normalize" block type: best-effort
// coercion of a loosely-typed value (as commonly arrives from a webhook
// payload or a fetch response body) into a specific Go/JSON type. Supports
// either a single normalize_type or a normalize_operations chain, each step
// normalizing the previous step's output.
type NormalizeHandler struct{}

func NewNormalizeHandler() *NormalizeHandler { return &NormalizeHandler{} }

func (h *NormalizeHandler) Handle(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
	inputs := wctx.ResolveInputs(block.Logic)

	targets, err := parseNormalizeChain(inputs)
	if err != nil {
		return workflow.BlockResult{}, err
	}

	value := inputs["normalize_value"]
	for _, target := range targets {
		value, err = normalize(value, target)
		if err != nil {
			return workflow.BlockResult{}, err
		}
	}

	return bindResult(block, inputs, "normalize", value), nil
}

// parseNormalizeChain reads "normalize_operations" (a list of target-type
// strings, or {type: "..."} objects) or falls back to a single
// "normalize_type".
func parseNormalizeChain(inputs map[string]any) ([]string, error) {
	if raw, ok := inputs["normalize_operations"].([]any); ok {
		if len(raw) == 0 {
			return nil, &errors.ValidationError{Field: "normalize_operations", Message: "operations sequence must not be empty"}
		}
		targets := make([]string, 0, len(raw))
		for i, r := range raw {
			switch v := r.(type) {
			case string:
				targets = append(targets, v)
			case map[string]any:
				t, _ := v["type"].(string)
				if t == "" {
					return nil, &errors.ValidationError{Field: "normalize_operations", Message: fmt.Sprintf("entry %d requires a type field", i)}
				}
				targets = append(targets, t)
			default:
				return nil, &errors.ValidationError{Field: "normalize_operations", Message: fmt.Sprintf("entry %d must be a type string or object", i)}
			}
		}
		return targets, nil
	}

	target, _ := inputs["normalize_type"].(string)
	if target == "" {
		return nil, &errors.ValidationError{Field: "normalize_type", Message: "normalize block requires a target type or an operations sequence"}
	}
	return []string{target}, nil
}

func normalize(value any, target string) (any, error) {
	switch target {
	case "string":
		return normalizeString(value), nil
	case "number":
		return normalizeNumber(value)
	case "boolean":
		return normalizeBoolean(value)
	case "array":
		if arr, ok := value.([]any); ok {
			return arr, nil
		}
		if value == nil {
			return []any{}, nil
		}
		return []any{value}, nil
	default:
		return nil, &errors.ValidationError{Field: "normalize_type", Message: "unknown normalize target type: " + target}
	}
}

func normalizeString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func normalizeNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, &errors.ValidationError{Field: "normalize_value", Message: "could not normalize to a number: " + v}
		}
		return f, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, &errors.ValidationError{Field: "normalize_value", Message: "value cannot be normalized to a number"}
	}
}

func normalizeBoolean(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "y":
			return true, nil
		case "false", "0", "no", "n", "":
			return false, nil
		default:
			return false, &errors.ValidationError{Field: "normalize_value", Message: "could not normalize to a boolean: " + v}
		}
	case float64:
		return v != 0, nil
	case nil:
		return false, nil
	default:
		return false, &errors.ValidationError{Field: "normalize_value", Message: "value cannot be normalized to a boolean"}
	}
}
