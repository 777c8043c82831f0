package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// MaxSleepDuration caps how long a sleep block may pause a run, so an
// author typo (or a deliberately hostile workflow) can't park a run
// indefinitely.
const MaxSleepDuration = 5 * time.Minute

// SleepHandler implements the "sleep" block type: pause the run's own
// goroutine for a bounded duration.
type SleepHandler struct{}

func NewSleepHandler() *SleepHandler { return &SleepHandler{} }

func (h *SleepHandler) Handle(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
	inputs := wctx.ResolveInputs(block.Logic)

	var d time.Duration
	switch {
	case inputs["sleep_duration"] != nil:
		s, ok := inputs["sleep_duration"].(string)
		if !ok {
			return workflow.BlockResult{}, &errors.ValidationError{Field: "sleep_duration", Message: "sleep_duration must be a string (e.g. \"5s\")"}
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return workflow.BlockResult{}, &errors.ValidationError{Field: "sleep_duration", Message: fmt.Sprintf("invalid duration: %s", s)}
		}
		d = parsed
	case inputs["sleep_milliseconds"] != nil:
		ms, err := toFloat(inputs["sleep_milliseconds"])
		if err != nil {
			return workflow.BlockResult{}, &errors.ValidationError{Field: "sleep_milliseconds", Message: "sleep_milliseconds must be a number"}
		}
		d = time.Duration(ms) * time.Millisecond
	default:
		return workflow.BlockResult{}, &errors.ValidationError{Field: "sleep_duration", Message: "sleep block requires a sleep_duration or sleep_milliseconds input"}
	}

	if d <= 0 {
		return workflow.BlockResult{}, &errors.ValidationError{Field: "sleep_duration", Message: "duration must be positive"}
	}
	if d > MaxSleepDuration {
		return workflow.BlockResult{}, &errors.ValidationError{Field: "sleep_duration", Message: fmt.Sprintf("duration %s exceeds maximum of %s", d, MaxSleepDuration)}
	}

	start := time.Now()
	select {
	case <-time.After(d):
	case <-ctx.Done():
		return workflow.BlockResult{}, ctx.Err()
	}

	return bindResult(block, inputs, "sleep", map[string]any{
		"sleptMs": time.Since(start).Milliseconds(),
	}), nil
}
