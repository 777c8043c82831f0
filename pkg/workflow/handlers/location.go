package handlers

import (
	"context"

	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// LocationHandler implements the "location" block type: geocoding/reverse
// geocoding lookups. No geolocation provider exists anywhere in this
// module's dependency set, so this handler deliberately fails closed with a
// ConfigError rather than silently returning fabricated coordinates; wiring
// a real provider here is future work, not a default-on feature.
type LocationHandler struct{}

func NewLocationHandler() *LocationHandler { return &LocationHandler{} }

func (h *LocationHandler) Handle(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
	return workflow.BlockResult{}, &errors.ConfigError{
		Key:    "location",
		Reason: "no geolocation provider is configured for this deployment",
	}
}
