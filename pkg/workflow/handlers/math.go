package handlers

import (
	"context"
	"math"

	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// MathHandler implements the "math" block type: a fixed set of arithmetic
// and rounding operations over numeric inputs, mirroring the shape of
// internal/action/transform's operation-per-block-type handlers. Supports
// either a single math_operation or a math_operations chain, each step
// defaulting math_a to the previous step's result when omitted.
type MathHandler struct{}

func NewMathHandler() *MathHandler { return &MathHandler{} }

func (h *MathHandler) Handle(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
	inputs := wctx.ResolveInputs(block.Logic)

	ops, err := parseOperations(inputs, "math")
	if err != nil {
		return workflow.BlockResult{}, err
	}

	var result float64
	havePrev := false

	for _, op := range ops {
		var a float64
		if av := paramOrInput(op.Params, inputs, "math_a"); av != nil {
			a, err = toFloat(av)
			if err != nil {
				return workflow.BlockResult{}, &errors.ValidationError{Field: "math_a", Message: err.Error()}
			}
		} else if havePrev {
			a = result
		}

		result, havePrev, err = h.apply(op.Name, a, op.Params, inputs)
		if err != nil {
			return workflow.BlockResult{}, err
		}
	}

	return bindResult(block, inputs, "math", result), nil
}

func (h *MathHandler) apply(op string, a float64, params, inputs map[string]any) (float64, bool, error) {
	switch op {
	case "add", "subtract", "multiply", "divide", "modulo", "power":
		bv := paramOrInput(params, inputs, "math_b")
		b, err := toFloat(bv)
		if err != nil {
			return 0, false, &errors.ValidationError{Field: "math_b", Message: err.Error()}
		}
		switch op {
		case "add":
			return a + b, true, nil
		case "subtract":
			return a - b, true, nil
		case "multiply":
			return a * b, true, nil
		case "divide":
			if b == 0 {
				return 0, false, &errors.ValidationError{Field: "math_b", Message: "division by zero"}
			}
			return a / b, true, nil
		case "modulo":
			if b == 0 {
				return 0, false, &errors.ValidationError{Field: "math_b", Message: "modulo by zero"}
			}
			return math.Mod(a, b), true, nil
		case "power":
			return math.Pow(a, b), true, nil
		}
	case "round", "floor", "ceil", "abs", "sqrt":
		switch op {
		case "round":
			return math.Round(a), true, nil
		case "floor":
			return math.Floor(a), true, nil
		case "ceil":
			return math.Ceil(a), true, nil
		case "abs":
			return math.Abs(a), true, nil
		case "sqrt":
			if a < 0 {
				return 0, false, &errors.ValidationError{Field: "math_a", Message: "sqrt of a negative number"}
			}
			return math.Sqrt(a), true, nil
		}
	case "min", "max":
		values, ok := paramOrInput(params, inputs, "math_values").([]any)
		if !ok || len(values) == 0 {
			return 0, false, &errors.ValidationError{Field: "math_values", Message: "min/max requires a non-empty array of numbers"}
		}
		result, err := toFloat(values[0])
		if err != nil {
			return 0, false, &errors.ValidationError{Field: "math_values", Message: err.Error()}
		}
		for _, v := range values[1:] {
			f, err := toFloat(v)
			if err != nil {
				return 0, false, &errors.ValidationError{Field: "math_values", Message: err.Error()}
			}
			if op == "min" && f < result {
				result = f
			}
			if op == "max" && f > result {
				result = f
			}
		}
		return result, true, nil
	case "sum":
		values, ok := paramOrInput(params, inputs, "math_input").([]any)
		if !ok {
			return 0, false, &errors.ValidationError{Field: "math_input", Message: "sum requires an array of numbers"}
		}
		var total float64
		for _, v := range values {
			f, err := toFloat(v)
			if err != nil {
				return 0, false, &errors.ValidationError{Field: "math_input", Message: err.Error()}
			}
			total += f
		}
		return total, true, nil
	}
	return 0, false, &errors.ValidationError{Field: "math_operation", Message: "unknown math operation: " + op}
}
