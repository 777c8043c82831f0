package expression_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blockrun/blockrun/pkg/workflow/expression"
)

func TestEvaluate_Operators(t *testing.T) {
	r := fixedResolver(time.Now())
	sc := expression.Scopes{
		State: map[string]any{
			"count": 5,
			"name":  "Alice",
			"tags":  []any{"a", "b", "c"},
			"empty": "",
		},
	}

	tests := []struct {
		name string
		cond expression.Condition
		want bool
	}{
		{"equals numeric", expression.Condition{Left: "$state.count", Operator: expression.OpEquals, Right: 5}, true},
		{"equals numeric string rhs", expression.Condition{Left: "$state.count", Operator: expression.OpEquals, Right: "5"}, true},
		{"not equals", expression.Condition{Left: "$state.count", Operator: expression.OpNotEquals, Right: 6}, true},
		{"less than", expression.Condition{Left: "$state.count", Operator: expression.OpLessThan, Right: 10}, true},
		{"greater than", expression.Condition{Left: "$state.count", Operator: expression.OpGreaterThan, Right: 10}, false},
		{"contains slice", expression.Condition{Left: "$state.tags", Operator: expression.OpContains, Right: "b"}, true},
		{"starts with", expression.Condition{Left: "$state.name", Operator: expression.OpStartsWith, Right: "Al"}, true},
		{"ends with", expression.Condition{Left: "$state.name", Operator: expression.OpEndsWith, Right: "ce"}, true},
		{"in", expression.Condition{Left: "$state.name", Operator: expression.OpIn, Right: []any{"Alice", "Bob"}}, true},
		{"isEmpty true", expression.Condition{Left: "$state.empty", Operator: expression.OpIsEmpty}, true},
		{"isEmpty false", expression.Condition{Left: "$state.name", Operator: expression.OpIsEmpty}, false},
		{"isFalsy zero", expression.Condition{Left: "$state.missing", Operator: expression.OpIsFalsy}, true},
		{"isNull true", expression.Condition{Left: "$state.missing", Operator: expression.OpIsNull}, true},
		{"isNull false", expression.Condition{Left: "$state.count", Operator: expression.OpIsNull}, false},
		{"regex match", expression.Condition{Left: "$state.name", Operator: expression.OpRegex, Right: "^Al"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expression.Evaluate(r, tt.cond, sc)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateGroup_AndOr(t *testing.T) {
	r := fixedResolver(time.Now())
	sc := expression.Scopes{State: map[string]any{"a": 1, "b": 2}}

	and := expression.ConditionGroup{
		Logic: "and",
		Conditions: []expression.Condition{
			{Left: "$state.a", Operator: expression.OpEquals, Right: 1},
			{Left: "$state.b", Operator: expression.OpEquals, Right: 2},
		},
	}
	ok, err := expression.EvaluateGroup(r, and, sc)
	require.NoError(t, err)
	require.True(t, ok)

	or := expression.ConditionGroup{
		Logic: "or",
		Conditions: []expression.Condition{
			{Left: "$state.a", Operator: expression.OpEquals, Right: 99},
			{Left: "$state.b", Operator: expression.OpEquals, Right: 2},
		},
	}
	ok, err = expression.EvaluateGroup(r, or, sc)
	require.NoError(t, err)
	require.True(t, ok)

	empty := expression.ConditionGroup{}
	ok, err = expression.EvaluateGroup(r, empty, sc)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEvaluate_RegexInvalidPattern(t *testing.T) {
	r := fixedResolver(time.Now())
	sc := expression.Scopes{State: map[string]any{"name": "Alice"}}
	_, err := expression.Evaluate(r, expression.Condition{Left: "$state.name", Operator: expression.OpRegex, Right: "("}, sc)
	require.Error(t, err)
}
