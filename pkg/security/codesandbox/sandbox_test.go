package codesandbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blockrun/blockrun/pkg/security/codesandbox"
	"github.com/blockrun/blockrun/pkg/workflow"
)

func TestRunner_Run_StateMutationAndReturn(t *testing.T) {
	r := codesandbox.NewRunner(codesandbox.DefaultConfig())
	cache := workflow.NewOrderedCache()

	script := `
state.count = (state.count || 0) + 1;
delete state.stale;
return state.count;
`
	state := map[string]any{"count": float64(1), "stale": "gone"}

	res, err := r.Run(context.Background(), script, state, cache, nil, nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, res.ReturnValue)
	require.Equal(t, map[string]any{"count": float64(2)}, res.Diff.Changed)
	require.Equal(t, []string{"stale"}, res.Diff.Deleted)
}

func TestRunner_Run_DenylistBlocksProcessAccess(t *testing.T) {
	r := codesandbox.NewRunner(codesandbox.DefaultConfig())
	_, err := r.Run(context.Background(), `return process.env.SECRET;`, nil, workflow.NewOrderedCache(), nil, nil)
	require.Error(t, err)
	var denyErr *codesandbox.DenylistError
	require.ErrorAs(t, err, &denyErr)
}

func TestRunner_Run_DenylistReportsAllViolations(t *testing.T) {
	violations := codesandbox.ScanDenylist(`eval("x"); require("fs"); process.exit(1);`)
	require.Len(t, violations, 3)
}

func TestRunner_Run_DenylistIgnoresTypeAnnotations(t *testing.T) {
	stripped := codesandbox.StripTypeAnnotations(`function f(x: process) { return x; }`)
	violations := codesandbox.ScanDenylist(stripped)
	require.Empty(t, violations)
}

func TestRunner_Run_Timeout(t *testing.T) {
	r := codesandbox.NewRunner(codesandbox.Config{Timeout: 50 * time.Millisecond, MaxConsoleEntries: 10, MaxConsoleBytes: 1024})
	_, err := r.Run(context.Background(), `while (true) {}`, nil, workflow.NewOrderedCache(), nil, nil)
	require.Error(t, err)
	var timeoutErr *codesandbox.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestRunner_Run_ConsoleCaptureCapped(t *testing.T) {
	r := codesandbox.NewRunner(codesandbox.Config{Timeout: time.Second, MaxConsoleEntries: 2, MaxConsoleBytes: 1024})
	res, err := r.Run(context.Background(), `
console.log("one");
console.log("two");
console.log("three");
`, nil, workflow.NewOrderedCache(), nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Console, 2)
}

func TestRunner_Run_CacheFacadeRoundTrip(t *testing.T) {
	r := codesandbox.NewRunner(codesandbox.DefaultConfig())
	cache := workflow.NewOrderedCache()
	cache.Set("existing", "value")

	script := `
cache.set("added", 42);
var existing = cache.get("existing");
cache.delete("existing");
return existing;
`
	res, err := r.Run(context.Background(), script, nil, cache, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "value", res.ReturnValue)

	v, ok := cache.Get("added")
	require.True(t, ok)
	require.EqualValues(t, 42, v)

	_, ok = cache.Get("existing")
	require.False(t, ok)
}

func TestRunner_Run_SecretsNotEnumerable(t *testing.T) {
	r := codesandbox.NewRunner(codesandbox.DefaultConfig())
	secrets := map[string]string{"apiKey": "sk-test"}

	script := `
var keys = Object.keys(secrets);
return { keys: keys, value: secrets.apiKey };
`
	res, err := r.Run(context.Background(), script, nil, workflow.NewOrderedCache(), nil, secrets)
	require.NoError(t, err)
	out, ok := res.ReturnValue.(map[string]interface{})
	require.True(t, ok)
	require.Empty(t, out["keys"])
	require.Equal(t, "sk-test", out["value"])
}

func TestRunner_Run_ArtifactsReadOnly(t *testing.T) {
	r := codesandbox.NewRunner(codesandbox.DefaultConfig())
	artifacts := []any{"original"}

	script := `
artifacts[0] = "mutated";
return artifacts[0];
`
	res, err := r.Run(context.Background(), script, nil, workflow.NewOrderedCache(), artifacts, nil)
	require.NoError(t, err)
	require.Equal(t, "original", res.ReturnValue)
}

func TestRunner_Run_FetchUsesInjectedFunc(t *testing.T) {
	cfg := codesandbox.DefaultConfig()
	cfg.Fetch = func(ctx context.Context, url string, opts map[string]any) (map[string]any, error) {
		return map[string]any{"status": 200, "url": url}, nil
	}
	r := codesandbox.NewRunner(cfg)

	script := `
var res = fetch("https://example.com/api");
return res.status;
`
	res, err := r.Run(context.Background(), script, nil, workflow.NewOrderedCache(), nil, nil)
	require.NoError(t, err)
	require.EqualValues(t, 200, res.ReturnValue)
}

func TestRunner_Run_SyntaxErrorSanitized(t *testing.T) {
	r := codesandbox.NewRunner(codesandbox.DefaultConfig())
	_, err := r.Run(context.Background(), `this is not valid javascript(`, nil, workflow.NewOrderedCache(), nil, nil)
	require.Error(t, err)
}
