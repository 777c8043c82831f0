package workflow

import (
	"time"

	"github.com/blockrun/blockrun/pkg/workflow/expression"
)

// KeyResolver resolves a named secret/credential on demand, keeping actual
// secret material out of persisted run state until a block actually needs
// it. See DESIGN.md for the resolution to the "createKeyResolver" open
// question.
type KeyResolver interface {
	Resolve(ctx *WorkflowContext, name string) (string, error)
}

// WorkflowContext is the live, mutable state a Run executes against. One
// WorkflowContext exists per Run (plus one shallow-copied child per
// deferred iteration — see defer.go).
type WorkflowContext struct {
	State     map[string]any
	Cache     *OrderedCache
	Artifacts []any
	Secrets   map[string]any
	Paths     map[string]any
	Event     any
	Run       *Run
	Error     *StepError
	Loops     map[string]expression.LoopScope

	// CurrentLoopID names the entry in Loops that $row/$item/$index
	// resolve against: the most recently opened loop. Set by the
	// interpreter/defer package whenever a deferred iteration is entered;
	// empty outside of one.
	CurrentLoopID string

	KeyResolver KeyResolver

	resolver *expression.Resolver
}

// NewWorkflowContext builds an empty WorkflowContext for run.
func NewWorkflowContext(run *Run) *WorkflowContext {
	return &WorkflowContext{
		State:     make(map[string]any),
		Cache:     NewOrderedCache(),
		Artifacts: nil,
		Secrets:   make(map[string]any),
		Paths:     make(map[string]any),
		Run:       run,
		Loops:     make(map[string]expression.LoopScope),
		resolver:  expression.NewResolver(time.Now),
	}
}

// Scopes snapshots the context into the value the expression package
// resolves against.
func (c *WorkflowContext) Scopes() expression.Scopes {
	var errVal any
	if c.Error != nil {
		errVal = c.Error
	}

	var runVal map[string]any
	if c.Run != nil {
		runVal = map[string]any{
			"id":         c.Run.ID,
			"workflowId": c.Run.WorkflowID,
			"orgId":      c.Run.OrgID,
			"status":     string(c.Run.Status),
		}
	}

	var row, item, index any
	if loop, ok := c.Loops[c.CurrentLoopID]; ok {
		row, item, index = loop.Row, loop.Row, loop.Index
	}

	var keyResolverFn func(string) any
	if c.KeyResolver != nil {
		keyResolverFn = func(name string) any {
			val, err := c.KeyResolver.Resolve(c, name)
			if err != nil {
				return nil
			}
			return val
		}
	}

	return expression.Scopes{
		State:         c.State,
		Cache:         c.Cache.Snapshot(),
		Artifacts:     c.Artifacts,
		Secrets:       c.Secrets,
		Paths:         c.Paths,
		Event:         c.Event,
		Run:           runVal,
		Error:         errVal,
		Loops:         c.Loops,
		Row:           row,
		Item:          item,
		Index:         index,
		KeyResolverFn: keyResolverFn,
	}
}

// Resolve resolves a single $-path expression against the context's current
// scopes.
func (c *WorkflowContext) Resolve(expr string) any {
	return c.resolver.Resolve(expr, c.Scopes())
}

// Interpolate expands {{...}} placeholders against the context's current
// scopes.
func (c *WorkflowContext) Interpolate(s string) any {
	return c.resolver.Interpolate(s, c.Scopes())
}

// ResolveInputs walks a handler's input map, resolving any string value that
// looks like a $-path or contains a {{...}} template, recursing into nested
// maps/slices. Non-string, non-container values pass through unchanged.
func (c *WorkflowContext) ResolveInputs(inputs map[string]any) map[string]any {
	out := make(map[string]any, len(inputs))
	for k, v := range inputs {
		out[k] = c.resolveValue(v)
	}
	return out
}

func (c *WorkflowContext) resolveValue(v any) any {
	switch t := v.(type) {
	case string:
		trimmed := t
		if len(trimmed) > 0 && trimmed[0] == '$' {
			return c.Resolve(trimmed)
		}
		if containsTemplate(trimmed) {
			return c.Interpolate(trimmed)
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = c.resolveValue(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = c.resolveValue(v)
		}
		return out
	default:
		return v
	}
}

func containsTemplate(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '{' && s[i+1] == '{' {
			return true
		}
	}
	return false
}

// ApplyResult merges a BlockResult's deltas into the context in place.
func (c *WorkflowContext) ApplyResult(res BlockResult) {
	for k, v := range res.StateDelta {
		c.State[k] = v
	}
	for _, k := range res.StateDeleted {
		delete(c.State, k)
	}
	for k, v := range res.CacheDelta {
		c.Cache.Set(k, v)
	}
	c.Artifacts = append(c.Artifacts, res.ArtifactsDelta...)
	if res.EventDelta != nil {
		c.Event = res.EventDelta
	}
}

// Clone produces a shallow-copied child context for a deferred iteration:
// fresh State/Cache/Artifacts maps seeded with copies of the parent's
// current values, so mutations inside the iteration don't alias the
// parent's maps, while Secrets/Paths/Run/KeyResolver are shared by
// reference.
func (c *WorkflowContext) Clone() *WorkflowContext {
	child := &WorkflowContext{
		State:         copyMap(c.State),
		Cache:         c.Cache.Clone(),
		Artifacts:     copySlice(c.Artifacts),
		Secrets:       c.Secrets,
		Paths:         c.Paths,
		Event:         c.Event,
		Run:           c.Run,
		Error:         c.Error,
		Loops:         copyLoops(c.Loops),
		CurrentLoopID: c.CurrentLoopID,
		KeyResolver:   c.KeyResolver,
		resolver:      c.resolver,
	}
	return child
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copySlice(s []any) []any {
	out := make([]any, len(s))
	copy(out, s)
	return out
}

func copyLoops(m map[string]expression.LoopScope) map[string]expression.LoopScope {
	out := make(map[string]expression.LoopScope, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
