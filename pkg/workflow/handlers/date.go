package handlers

import (
	"context"
	"time"

	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// DateHandler implements the "date" block type: parsing, formatting, and
// arithmetic over timestamps. Supports either a single date_operation or a
// date_operations chain, each step defaulting date_value to the previous
// step's result when omitted.
type DateHandler struct {
	Now func() time.Time
}

func NewDateHandler() *DateHandler {
	return &DateHandler{Now: time.Now}
}

func (h *DateHandler) Handle(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
	inputs := wctx.ResolveInputs(block.Logic)

	ops, err := parseOperations(inputs, "date")
	if err != nil {
		return workflow.BlockResult{}, err
	}

	var result any
	for _, op := range ops {
		result, err = h.apply(op.Name, op.Params, inputs, result)
		if err != nil {
			return workflow.BlockResult{}, err
		}
	}

	return bindResult(block, inputs, "date", result), nil
}

func (h *DateHandler) apply(op string, params, inputs map[string]any, prev any) (any, error) {
	valueTime := func() (time.Time, error) {
		if v := paramOrInput(params, inputs, "date_value"); v != nil {
			return asTime(v, "date_value")
		}
		if prev != nil {
			return asTime(prev, "date_value")
		}
		return time.Time{}, &errors.ValidationError{Field: "date_value", Message: "date_value is required"}
	}

	switch op {
	case "now":
		return h.Now().Format(time.RFC3339), nil
	case "parse":
		v := paramOrInput(params, inputs, "date_value")
		s, ok := v.(string)
		if !ok {
			return nil, &errors.ValidationError{Field: "date_value", Message: "date_value must be a string"}
		}
		layout, _ := paramOrInput(params, inputs, "date_layout").(string)
		if layout == "" {
			layout = time.RFC3339
		}
		t, parseErr := time.Parse(layout, s)
		if parseErr != nil {
			return nil, &errors.ValidationError{Field: "date_value", Message: "could not parse date: " + parseErr.Error()}
		}
		return t.Format(time.RFC3339), nil
	case "format":
		t, err := valueTime()
		if err != nil {
			return nil, err
		}
		layout, _ := paramOrInput(params, inputs, "date_layout").(string)
		if layout == "" {
			layout = time.RFC3339
		}
		return t.Format(layout), nil
	case "add":
		t, err := valueTime()
		if err != nil {
			return nil, err
		}
		amount, err := toFloat(paramOrInput(params, inputs, "date_amount"))
		if err != nil {
			return nil, &errors.ValidationError{Field: "date_amount", Message: err.Error()}
		}
		unit, _ := paramOrInput(params, inputs, "date_unit").(string)
		d, derr := unitDuration(unit, amount)
		if derr != nil {
			return nil, derr
		}
		return t.Add(d).Format(time.RFC3339), nil
	case "diff":
		a, err := asTime(paramOrInput(params, inputs, "date_a"), "date_a")
		if err != nil {
			return nil, err
		}
		b, err := asTime(paramOrInput(params, inputs, "date_b"), "date_b")
		if err != nil {
			return nil, err
		}
		unit, _ := paramOrInput(params, inputs, "date_unit").(string)
		return diffInUnit(a.Sub(b), unit), nil
	default:
		return nil, &errors.ValidationError{Field: "date_operation", Message: "unknown date operation: " + op}
	}
}

func asTime(v any, field string) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, &errors.ValidationError{Field: field, Message: "expected an RFC3339 timestamp string"}
		}
		return parsed, nil
	default:
		return time.Time{}, &errors.ValidationError{Field: field, Message: field + " must be a timestamp"}
	}
}

func unitDuration(unit string, amount float64) (time.Duration, error) {
	switch unit {
	case "milliseconds", "ms":
		return time.Duration(amount) * time.Millisecond, nil
	case "seconds", "s", "":
		return time.Duration(amount * float64(time.Second)), nil
	case "minutes", "m":
		return time.Duration(amount * float64(time.Minute)), nil
	case "hours", "h":
		return time.Duration(amount * float64(time.Hour)), nil
	case "days", "d":
		return time.Duration(amount * 24 * float64(time.Hour)), nil
	default:
		return 0, &errors.ValidationError{Field: "date_unit", Message: "unknown time unit: " + unit}
	}
}

func diffInUnit(d time.Duration, unit string) float64 {
	switch unit {
	case "milliseconds", "ms":
		return float64(d.Milliseconds())
	case "minutes", "m":
		return d.Minutes()
	case "hours", "h":
		return d.Hours()
	case "days", "d":
		return d.Hours() / 24
	default:
		return d.Seconds()
	}
}
