// Package orchestration implements the Run Orchestration Service: the
// entry points that start, resume, and cancel workflow runs, each one
// driven by one pkg/workflow.Interpreter invocation on its own goroutine.
package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/events"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// Service runs workflow versions to completion (or to a pause point) against
// a Store, broadcasting lifecycle events as it goes. One Service instance is
// shared across every run in a process; it hands each run its own goroutine
// and tracks cancellation per run-ID rather than per-goroutine, so Cancel
// can be called before the run's goroutine has even been scheduled.
type Service struct {
	Store       workflow.Store
	Registry    *workflow.Registry
	Broadcaster *events.Broadcaster
	Budget      workflow.Budget

	mu        sync.Mutex
	cancelled map[string]bool
}

// NewService builds a Service. registry must already have every block type
// the workflows it runs will need — an unregistered block type is a fatal
// error raised mid-run, not at construction time.
func NewService(store workflow.Store, registry *workflow.Registry, broadcaster *events.Broadcaster) *Service {
	return &Service{
		Store:       store,
		Registry:    registry,
		Broadcaster: broadcaster,
		Budget:      workflow.Budget{MaxSteps: 10000, MaxDuration: 30 * time.Minute},
		cancelled:   make(map[string]bool),
	}
}

// Trigger creates a new Run of version and starts executing it in the
// background from the version's first block. It returns as soon as the Run
// row exists in the Store — callers observe progress via the Broadcaster or
// by polling GetRun.
func (s *Service) Trigger(ctx context.Context, version *workflow.WorkflowVersion, orgID string, triggerEvent any) (*workflow.Run, error) {
	if len(version.Blocks) == 0 {
		return nil, &errors.ValidationError{Field: "version", Message: "workflow version has no blocks"}
	}

	run := &workflow.Run{
		ID:                "run_" + uuid.NewString(),
		WorkflowID:        version.WorkflowID,
		WorkflowVersionID: version.ID,
		OrgID:             orgID,
		Status:            workflow.RunPending,
		TriggerEvent:      triggerEvent,
		StartedAt:         time.Now(),
	}
	if err := s.Store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	wctx := workflow.NewWorkflowContext(run)
	wctx.Event = triggerEvent

	go s.execute(version, wctx, 0)

	return run, nil
}

// Resume continues a paused Run from its PausedRunState, merging resumeInput
// into state before execution picks back up at the paused block.
func (s *Service) Resume(ctx context.Context, runID string, resumeInput map[string]any) (*workflow.Run, error) {
	run, err := s.Store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != workflow.RunAwaitingAction {
		return nil, &errors.ValidationError{Field: "status", Message: fmt.Sprintf("run %s is not awaiting action (status: %s)", runID, run.Status)}
	}

	paused, err := s.Store.LoadPausedState(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load paused state: %w", err)
	}

	version, err := s.Store.GetVersion(ctx, run.WorkflowVersionID)
	if err != nil {
		return nil, fmt.Errorf("load workflow version: %w", err)
	}

	wctx := workflow.Thaw(run, *paused)
	for k, v := range resumeInput {
		wctx.State[k] = v
	}

	run.Status = workflow.RunRunning
	if err := s.Store.UpdateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("update run: %w", err)
	}
	if err := s.Store.DeletePausedState(ctx, runID); err != nil {
		return nil, fmt.Errorf("clear paused state: %w", err)
	}

	go s.execute(version, wctx, paused.CurrentBlockIndex+1)

	return run, nil
}

// Cancel marks runID for cancellation. The Interpreter checks this flag
// between blocks, so cancellation takes effect at the next block boundary
// rather than interrupting a handler already in flight.
func (s *Service) Cancel(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled[runID] = true
}

func (s *Service) isCancelled(runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled[runID]
}

func (s *Service) clearCancelled(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cancelled, runID)
}

func (s *Service) execute(version *workflow.WorkflowVersion, wctx *workflow.WorkflowContext, startIndex int) {
	defer s.clearCancelled(wctx.Run.ID)

	ctx := context.Background()
	run := wctx.Run
	run.Status = workflow.RunRunning
	if startIndex < len(version.Blocks) {
		run.CurrentBlockID = version.Blocks[startIndex].ID
	}
	_ = s.Store.UpdateRun(ctx, run)
	s.publish(events.TypeRunStarted, run, "")

	builder := workflow.NewRunBuilder(run.ID)
	interp := workflow.NewInterpreter(s.Registry)
	interp.Budget = s.Budget
	interp.IsCancelled = s.isCancelled

	outcome := interp.Run(ctx, version, wctx, builder, startIndex)

	if err := s.Store.AppendSteps(ctx, run.ID, builder.Steps()); err != nil {
		outcome.Status = workflow.RunFailed
		outcome.Error = &workflow.StepError{Message: fmt.Sprintf("persist steps: %v", err)}
	}

	now := time.Now()
	run.Status = outcome.Status
	run.Error = outcome.Error
	run.CurrentBlockID = outcome.PausedBlockID

	switch outcome.Status {
	case workflow.RunAwaitingAction:
		ps := workflow.Freeze(wctx, outcome.PausedBlockID, outcome.PausedBlockIndex, outcome.PausedUIConfig, now)
		if err := s.Store.SavePausedState(ctx, ps); err != nil {
			run.Status = workflow.RunFailed
			run.Error = &workflow.StepError{Message: fmt.Sprintf("persist paused state: %v", err)}
		}
	default:
		run.CompletedAt = &now
	}

	_ = s.Store.UpdateRun(ctx, run)
	s.publishOutcome(run, outcome)
}

func (s *Service) publishOutcome(run *workflow.Run, outcome workflow.Outcome) {
	switch outcome.Status {
	case workflow.RunCompleted:
		s.publish(events.TypeRunCompleted, run, "")
	case workflow.RunFailed:
		s.publish(events.TypeRunFailed, run, "")
	case workflow.RunCancelled:
		s.publish(events.TypeRunCancelled, run, "")
	case workflow.RunAwaitingAction:
		s.publish(events.TypeRunAwaitingAction, run, outcome.PausedBlockID)
	}
}

func (s *Service) publish(t events.Type, run *workflow.Run, blockID string) {
	if s.Broadcaster == nil {
		return
	}
	s.Broadcaster.Publish(events.Event{
		Type:       t,
		RunID:      run.ID,
		OrgID:      run.OrgID,
		WorkflowID: run.WorkflowID,
		BlockID:    blockID,
		Timestamp:  time.Now(),
	})
}
