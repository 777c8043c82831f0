// Package events implements the run-level event broadcaster: a per-run and
// per-org channel-based pub/sub, generalized from the listener-registration
// shape of pkg/workflow's original EventEmitter into channel subscriptions
// so HTTP/websocket handlers can range over a run's events without a
// callback.
package events

import (
	"context"
	"sync"
	"time"
)

// Type identifies the kind of event broadcast for a run.
type Type string

const (
	TypeRunStarted         Type = "run_started"
	TypeRunCompleted       Type = "run_completed"
	TypeRunFailed          Type = "run_failed"
	TypeRunCancelled       Type = "run_cancelled"
	TypeRunAwaitingAction  Type = "run_awaiting_action"
	TypeStepCompleted      Type = "step_completed"
	TypeStepFailed         Type = "step_failed"
	TypeIterationStarted   Type = "iteration_started"
	TypeIterationCompleted Type = "iteration_completed"
)

// Event is one broadcast notification about a run.
type Event struct {
	Type       Type           `json:"type"`
	RunID      string         `json:"runId"`
	OrgID      string         `json:"orgId"`
	WorkflowID string         `json:"workflowId,omitempty"`
	BlockID    string         `json:"blockId,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Data       map[string]any `json:"data,omitempty"`
}

// subscriberBufferSize bounds each subscriber's channel. A slow subscriber
// that falls behind has its oldest-pending events dropped rather than
// blocking the run that's producing them.
const subscriberBufferSize = 64

type subscriber struct {
	ch     chan Event
	runID  string
	orgID  string
	closed bool
}

// Broadcaster fans run events out to per-run and per-org subscribers. Event
// order within a single run is preserved: Publish holds the broadcaster
// lock for the duration of one fan-out pass, so two Publish calls for the
// same run are never interleaved across subscribers.
type Broadcaster struct {
	mu          sync.Mutex
	byRun       map[string][]*subscriber
	byOrg       map[string][]*subscriber
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		byRun: make(map[string][]*subscriber),
		byOrg: make(map[string][]*subscriber),
	}
}

// SubscribeRun returns a channel of events for one run, plus an unsubscribe
// function the caller must invoke when done reading.
func (b *Broadcaster) SubscribeRun(ctx context.Context, runID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBufferSize), runID: runID}

	b.mu.Lock()
	b.byRun[runID] = append(b.byRun[runID], sub)
	b.mu.Unlock()

	unsubscribe := func() { b.removeRunSub(runID, sub) }

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return sub.ch, unsubscribe
}

// SubscribeOrg returns a channel of every event across an org's runs.
func (b *Broadcaster) SubscribeOrg(ctx context.Context, orgID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBufferSize), orgID: orgID}

	b.mu.Lock()
	b.byOrg[orgID] = append(b.byOrg[orgID], sub)
	b.mu.Unlock()

	unsubscribe := func() { b.removeOrgSub(orgID, sub) }

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return sub.ch, unsubscribe
}

// Publish delivers evt to every subscriber of evt.RunID and evt.OrgID. A
// subscriber whose channel is full has this event dropped rather than
// blocking the publisher — a broadcaster exists to notify observers, not to
// gate run execution on slow consumers.
func (b *Broadcaster) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.byRun[evt.RunID] {
		deliver(sub, evt)
	}
	for _, sub := range b.byOrg[evt.OrgID] {
		deliver(sub, evt)
	}
}

func deliver(sub *subscriber, evt Event) {
	if sub.closed {
		return
	}
	select {
	case sub.ch <- evt:
	default:
	}
}

func (b *Broadcaster) removeRunSub(runID string, target *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.byRun[runID]
	for i, s := range subs {
		if s == target {
			b.byRun[runID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.byRun[runID]) == 0 {
		delete(b.byRun, runID)
	}
	closeSub(target)
}

func (b *Broadcaster) removeOrgSub(orgID string, target *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.byOrg[orgID]
	for i, s := range subs {
		if s == target {
			b.byOrg[orgID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.byOrg[orgID]) == 0 {
		delete(b.byOrg, orgID)
	}
	closeSub(target)
}

func closeSub(sub *subscriber) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
}
