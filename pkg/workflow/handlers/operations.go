package handlers

import (
	"fmt"

	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// Operation is one step of a math/string/array/object/date/normalize
// block's transform: a named operation plus the parameters it reads, which
// fall back to the block's top-level inputs when a chained step omits them
// (letting later steps reuse values set earlier in the block without
// repeating them).
type Operation struct {
	Name   string
	Params map[string]any
}

// parseOperations reads either a "<prefix>_operations" sequence (a list of
// {operation, ...params} objects, each chained in order) or, when that key
// is absent, falls back to a single "<prefix>_operation" read against the
// block's own inputs.
func parseOperations(inputs map[string]any, prefix string) ([]Operation, error) {
	if raw, ok := inputs[prefix+"_operations"].([]any); ok {
		if len(raw) == 0 {
			return nil, &errors.ValidationError{Field: prefix + "_operations", Message: "operations sequence must not be empty"}
		}
		ops := make([]Operation, 0, len(raw))
		for i, r := range raw {
			m, ok := r.(map[string]any)
			if !ok {
				return nil, &errors.ValidationError{Field: prefix + "_operations", Message: fmt.Sprintf("entry %d must be an object", i)}
			}
			name, _ := m["operation"].(string)
			if name == "" {
				return nil, &errors.ValidationError{Field: prefix + "_operations", Message: fmt.Sprintf("entry %d requires an operation field", i)}
			}
			ops = append(ops, Operation{Name: name, Params: m})
		}
		return ops, nil
	}

	name, _ := inputs[prefix+"_operation"].(string)
	if name == "" {
		return nil, &errors.ValidationError{Field: prefix + "_operation", Message: prefix + " block requires an operation or an operations sequence"}
	}
	return []Operation{{Name: name, Params: inputs}}, nil
}

// bindResult packages value as a BlockResult, binding it under
// "<prefix>_bind_value" when that's configured in inputs, falling back to
// the block's own id otherwise.
func bindResult(block workflow.Block, inputs map[string]any, prefix string, value any) workflow.BlockResult {
	key := block.ID
	if bv, ok := inputs[prefix+"_bind_value"].(string); ok && bv != "" {
		key = bv
	}
	return workflow.BlockResult{StateDelta: map[string]any{key: value}}
}

// paramOrInput reads key from a chained operation's own params first,
// falling back to the block's top-level inputs — so a chain step can omit
// a parameter that was already supplied once at the top level.
func paramOrInput(params, inputs map[string]any, key string) any {
	if v, ok := params[key]; ok {
		return v
	}
	return inputs[key]
}
