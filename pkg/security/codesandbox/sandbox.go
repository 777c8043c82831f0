// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package codesandbox provides in-process script isolation for workflow
// "code" blocks.
//
// Unlike pkg/security/sandbox (process/container isolation for shelled-out
// tools), codesandbox runs author-supplied JavaScript-like code in-process
// against github.com/dop251/goja, a pure-Go ECMAScript VM. Isolation here
// comes from a static source denylist plus a deliberately narrow set of
// runtime bindings (state, cache, artifacts, secrets, console, fetch,
// setTimeout) rather than OS-level sandboxing — there is no process to
// contain.
package codesandbox

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/dop251/goja"
)

// Config configures one Runner.
type Config struct {
	// Timeout bounds total script execution, combining a goja interrupt
	// (for tight synchronous loops) and a wall-clock deadline (for
	// dangling promises/timers).
	Timeout time.Duration

	// MaxConsoleEntries and MaxConsoleBytes cap what console.log/warn/
	// error accumulate before further calls are dropped silently.
	MaxConsoleEntries int
	MaxConsoleBytes   int

	// Fetch, if set, backs the in-sandbox fetch() binding. Callers wire
	// this to an SSRF-filtered HTTP client (see handlers.FetchHandler).
	Fetch FetchFunc
}

// FetchFunc performs a sandboxed HTTP fetch and returns a JSON-serializable
// response description.
type FetchFunc func(ctx context.Context, url string, opts map[string]any) (map[string]any, error)

// DefaultConfig returns sane sandbox defaults: a 5-second timeout and a
// modest console cap.
func DefaultConfig() Config {
	return Config{
		Timeout:           5 * time.Second,
		MaxConsoleEntries: 100,
		MaxConsoleBytes:   10240,
	}
}

// Runner executes one code block's script against a Config. A Runner is not
// safe for concurrent Run calls — construct one per execution.
type Runner struct {
	cfg Config
}

// NewRunner creates a Runner bound to cfg.
func NewRunner(cfg Config) *Runner {
	if cfg.Timeout <= 0 {
		cfg = DefaultConfig()
	}
	return &Runner{cfg: cfg}
}

// Result is what a sandboxed script execution produces.
type Result struct {
	ReturnValue any
	Console     []ConsoleEntry
	Diff        Diff
}

// ConsoleEntry is one captured console.* call.
type ConsoleEntry struct {
	Level string
	Text  string
}

// Run statically analyzes script for denylisted constructs, then executes
// it against a fresh VM bound to the given state/cache/artifacts/secrets,
// returning the script's return value, captured console output, and a diff
// of state before vs. after.
func (r *Runner) Run(ctx context.Context, script string, state map[string]any, cache CacheFacade, artifacts []any, secrets map[string]string) (Result, error) {
	if violations := ScanDenylist(StripTypeAnnotations(script)); len(violations) > 0 {
		return Result{}, &DenylistError{Violations: violations}
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	before := deepCopyMap(state)
	live := deepCopyMap(state)

	console := newConsoleSink(r.cfg.MaxConsoleEntries, r.cfg.MaxConsoleBytes)
	bindings := newBindings(vm, live, cache, artifacts, secrets, console, r.cfg.Fetch)
	if err := bindings.install(ctx); err != nil {
		return Result{}, fmt.Errorf("install sandbox bindings: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	// Dual timeout: goja's Interrupt handles a synchronous infinite loop
	// that never yields back to Go; the wall-clock select below catches
	// everything else (e.g. a fetch() promise that never settles).
	timer := time.AfterFunc(r.cfg.Timeout, func() {
		vm.Interrupt("execution timed out")
	})
	defer timer.Stop()

	resultCh := make(chan vmResult, 1)
	go func() {
		v, err := vm.RunString(wrapIIFE(script))
		resultCh <- vmResult{value: v, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return Result{Console: console.entries}, sanitizeError(res.err)
		}
		return Result{
			ReturnValue: exportValue(res.value),
			Console:     console.entries,
			Diff:        computeDiff(before, live),
		}, nil
	case <-runCtx.Done():
		vm.Interrupt("execution timed out")
		return Result{Console: console.entries}, &TimeoutError{Timeout: r.cfg.Timeout}
	}
}

type vmResult struct {
	value goja.Value
	err   error
}

// wrapIIFE wraps script in an immediately-invoked function expression so a
// top-level return statement is valid, matching how block authors write
// code blocks. The wrapper adds exactly two lines before the user's first
// line; sanitizeError subtracts that offset from reported line numbers.
func wrapIIFE(script string) string {
	return "(function() {\n" + script + "\n})()"
}

const iifeLineOffset = 1

func exportValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// TimeoutError is returned when a script exceeds its Config.Timeout.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("script execution timed out after %s", e.Timeout)
}

// DenylistError is returned when ScanDenylist finds one or more disallowed
// constructs; it reports every match, not just the first.
type DenylistError struct {
	Violations []Violation
}

func (e *DenylistError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("disallowed construct: %s", e.Violations[0].Rule)
	}
	return fmt.Sprintf("%d disallowed constructs found, first: %s", len(e.Violations), e.Violations[0].Rule)
}

var typeAnnotationStripper = regexp.MustCompile(`:\s*[A-Za-z_$][A-Za-z0-9_$<>\[\]., ]*(?=[,)=;{])`)

// StripTypeAnnotations removes TypeScript-style type annotations from
// script before denylist analysis, so a typed script can't smuggle a
// disallowed construct past the scanner inside a type position. Scripts
// are analyzed after being stripped to plain script.
func StripTypeAnnotations(script string) string {
	return typeAnnotationStripper.ReplaceAllString(script, "")
}
