// Package workflow implements the workflow execution engine: the block
// interpreter, the reference resolver it delegates to, the run ledger, and
// the persisted shapes run state is serialized through.
package workflow

import (
	"time"

	"github.com/blockrun/blockrun/pkg/workflow/expression"
)

// Workflow is the mutable envelope an author edits. Execution always runs
// against a WorkflowVersion, never the mutable Workflow itself.
type Workflow struct {
	ID             string    `json:"id"`
	OrgID          string    `json:"orgId"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	CurrentVersion int       `json:"currentVersion"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// WorkflowVersion is an immutable snapshot of a Workflow's block graph.
// Runs always reference a specific version so that in-flight executions are
// unaffected by later edits.
type WorkflowVersion struct {
	ID         string    `json:"id"`
	WorkflowID string    `json:"workflowId"`
	Version    int       `json:"version"`
	Blocks     []Block   `json:"blocks"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Block is a single step in a workflow's block graph.
type Block struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`

	// Condition gates whether this block executes at all. A zero-value
	// (empty Conditions slice) always executes.
	Condition expression.ConditionGroup `json:"condition,omitempty"`

	// Logic holds the block-type-specific parameters, keyed by names
	// prefixed with the block's own type (e.g. "fetch_url", "code_source").
	// Each string value may itself be a $-path or a {{...}} template,
	// resolved by the handler before use. A "goto" block reads its target
	// from here too ("goto_target", "goto_defer") rather than through a
	// dedicated field, since goto is just another block type.
	Logic map[string]any `json:"logic,omitempty"`

	// OnError selects error-handling behavior: "abort" (default) halts the
	// run, "continue" records the failure as a step and proceeds.
	OnError string `json:"onError,omitempty"`
}

// IsUIBlock reports whether a block type is a UI block, per the lexical
// "ui_" prefix rule: any block whose Type begins with "ui_" pauses the run
// awaiting external action instead of running to completion unattended.
func (b Block) IsUIBlock() bool {
	return len(b.Type) >= 3 && b.Type[:3] == "ui_"
}

// RunStatus is the lifecycle state of a Run.
type RunStatus string

const (
	RunPending        RunStatus = "pending"
	RunRunning        RunStatus = "running"
	RunCompleted      RunStatus = "completed"
	RunFailed         RunStatus = "failed"
	RunCancelled      RunStatus = "cancelled"
	RunAwaitingAction RunStatus = "awaiting_action"
)

// StepStatus is the lifecycle state of a single Step within a Run.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// Run is one execution of a WorkflowVersion.
type Run struct {
	ID                string     `json:"id"`
	WorkflowID        string     `json:"workflowId"`
	WorkflowVersionID string     `json:"workflowVersionId"`
	OrgID             string     `json:"orgId"`
	Status            RunStatus  `json:"status"`
	TriggerEvent      any        `json:"triggerEvent,omitempty"`
	Error             *StepError `json:"error,omitempty"`
	StartedAt         time.Time  `json:"startedAt"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	CurrentBlockID    string     `json:"currentBlockId,omitempty"`
}

// Step is a single ledger entry recording one block's execution within a
// Run. ExecutionOrder is monotonically increasing within a Run and is the
// sole ordering authority — steps may be created, completed, and failed out
// of block-sequence order (e.g. deferred iterations).
type Step struct {
	ID             string         `json:"id"`
	RunID          string         `json:"runId"`
	BlockID        string         `json:"blockId"`
	ExecutionOrder int            `json:"executionOrder"`
	Status         StepStatus     `json:"status"`
	StateDelta     map[string]any `json:"stateDelta,omitempty"`
	CacheDelta     map[string]any `json:"cacheDelta,omitempty"`
	ArtifactsDelta []any          `json:"artifactsDelta,omitempty"`
	EventDelta     any            `json:"eventDelta,omitempty"`
	Error          *StepError     `json:"error,omitempty"`
	StartedAt      time.Time      `json:"startedAt"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
}

// StepError is the normalized error shape attached to a failed Step or Run,
// and exposed to condition/resolver logic as $error.
type StepError struct {
	Message   string `json:"message"`
	Stack     string `json:"stack,omitempty"`
	BlockID   string `json:"blockId,omitempty"`
	BlockName string `json:"blockName,omitempty"`
}

func (e *StepError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// BlockResult is what a Handler returns after executing one Block: the
// deltas to merge into the run's state/cache/artifacts, and an optional
// event payload to broadcast.
//
// StateDeleted is the one case where a handler removes rather than adds or
// changes a state key — currently only the code block surfaces this, since
// a sandboxed script may `delete state.x` outright.
type BlockResult struct {
	StateDelta     map[string]any
	StateDeleted   []string
	CacheDelta     map[string]any
	ArtifactsDelta []any
	EventDelta     any
}
