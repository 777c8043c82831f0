package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/itchyny/gojq"

	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// QueryTimeout and QueryMaxInputBytes mirror internal/jq.Executor's
// defaults: jq expressions run under a hard timeout against size-capped
// input, since a pathological query or a huge payload shouldn't be able to
// stall a run.
const (
	QueryTimeout       = 1 * time.Second
	QueryMaxInputBytes = 10 * 1024 * 1024
)

// ArrayHandler and ObjectHandler both implement jq-expression-driven
// querying/transformation over array and object state respectively, using
// github.com/itchyny/gojq the same way internal/jq.Executor does: parse,
// compile, run under a timeout, collect into a single value or a slice.
// Each supports either a single "<prefix>_query" or a
// "<prefix>_operations" chain of queries, piping each query's result into
// the next as its $input.
type ArrayHandler struct{}
type ObjectHandler struct{}

func NewArrayHandler() *ArrayHandler   { return &ArrayHandler{} }
func NewObjectHandler() *ObjectHandler { return &ObjectHandler{} }

func (h *ArrayHandler) Handle(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
	return runQuery(ctx, block, wctx, "array")
}

func (h *ObjectHandler) Handle(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
	return runQuery(ctx, block, wctx, "object")
}

func runQuery(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext, prefix string) (workflow.BlockResult, error) {
	inputs := wctx.ResolveInputs(block.Logic)

	queries, err := parseQueryChain(inputs, prefix)
	if err != nil {
		return workflow.BlockResult{}, err
	}

	data := inputs[prefix+"_data"]
	value := data
	for _, expr := range queries {
		value, err = runJQ(ctx, expr, value)
		if err != nil {
			return workflow.BlockResult{}, err
		}
	}

	return bindResult(block, inputs, prefix, value), nil
}

// parseQueryChain reads "<prefix>_operations" (a list of jq expression
// strings, or {query: "..."} objects) or falls back to a single
// "<prefix>_query" expression.
func parseQueryChain(inputs map[string]any, prefix string) ([]string, error) {
	if raw, ok := inputs[prefix+"_operations"].([]any); ok {
		if len(raw) == 0 {
			return nil, &errors.ValidationError{Field: prefix + "_operations", Message: "operations sequence must not be empty"}
		}
		exprs := make([]string, 0, len(raw))
		for i, r := range raw {
			switch v := r.(type) {
			case string:
				exprs = append(exprs, v)
			case map[string]any:
				q, _ := v["query"].(string)
				if q == "" {
					return nil, &errors.ValidationError{Field: prefix + "_operations", Message: fmt.Sprintf("entry %d requires a query field", i)}
				}
				exprs = append(exprs, q)
			default:
				return nil, &errors.ValidationError{Field: prefix + "_operations", Message: fmt.Sprintf("entry %d must be a query string or object", i)}
			}
		}
		return exprs, nil
	}

	expr, _ := inputs[prefix+"_query"].(string)
	if expr == "" {
		return nil, &errors.ValidationError{Field: prefix + "_query", Message: prefix + " block requires a query or an operations sequence"}
	}
	return []string{expr}, nil
}

func runJQ(ctx context.Context, expr string, data any) (any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, &errors.ValidationError{Field: "query", Message: fmt.Sprintf("invalid jq expression: %v", err)}
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, &errors.ValidationError{Field: "query", Message: fmt.Sprintf("jq compilation failed: %v", err)}
	}

	runCtx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	type outcome struct {
		value any
		err   error
	}
	ch := make(chan outcome, 1)

	go func() {
		iter := code.Run(data)
		var results []any
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if e, isErr := v.(error); isErr {
				ch <- outcome{err: e}
				return
			}
			results = append(results, v)
		}
		switch len(results) {
		case 0:
			ch <- outcome{value: nil}
		case 1:
			ch <- outcome{value: results[0]}
		default:
			ch <- outcome{value: results}
		}
	}()

	select {
	case out := <-ch:
		return out.value, out.err
	case <-runCtx.Done():
		return nil, &errors.TimeoutError{Operation: "jq query", Duration: QueryTimeout}
	}
}
