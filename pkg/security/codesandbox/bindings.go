package codesandbox

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dop251/goja"
)

// CacheFacade is the subset of pkg/workflow.OrderedCache exposed to
// sandboxed scripts via the $cache binding. *workflow.OrderedCache satisfies
// this directly.
type CacheFacade interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
}

const maxSetTimeoutDelay = 5 * time.Second

// bindings wires a goja VM's global scope to a code block's execution
// context: a mutable $state, a $cache facade, read-only $artifacts and
// $secrets, a capped console, a filtered fetch(), and a bounded setTimeout.
type bindings struct {
	vm        *goja.Runtime
	state     map[string]any
	cache     CacheFacade
	artifacts []any
	secrets   map[string]string
	console   *consoleSink
	fetch     FetchFunc
}

func newBindings(vm *goja.Runtime, state map[string]any, cache CacheFacade, artifacts []any, secrets map[string]string, console *consoleSink, fetch FetchFunc) *bindings {
	return &bindings{
		vm:        vm,
		state:     state,
		cache:     cache,
		artifacts: artifacts,
		secrets:   secrets,
		console:   console,
		fetch:     fetch,
	}
}

func (b *bindings) install(ctx context.Context) error {
	if err := b.vm.Set("state", b.state); err != nil {
		return err
	}
	if err := b.vm.Set("artifacts", freezeSlice(b.vm, b.artifacts)); err != nil {
		return err
	}
	if err := b.installSecrets(); err != nil {
		return err
	}
	if err := b.installCache(); err != nil {
		return err
	}
	if err := b.installConsole(); err != nil {
		return err
	}
	if err := b.installFetch(ctx); err != nil {
		return err
	}
	if err := b.installSetTimeout(); err != nil {
		return err
	}
	return nil
}

// installSecrets exposes secrets as plain values a script can read but
// cannot enumerate or mutate: Object.keys/for-in over the binding yields
// nothing, and assignment is a silent no-op rather than a script-visible
// error, matching how a frozen host object behaves under goja.
func (b *bindings) installSecrets() error {
	obj := b.vm.NewObject()
	for k, v := range b.secrets {
		if err := obj.DefineDataProperty(k, b.vm.ToValue(v), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE); err != nil {
			return err
		}
	}
	return b.vm.Set("secrets", obj)
}

func (b *bindings) installCache() error {
	obj := b.vm.NewObject()
	get := func(call goja.FunctionCall) goja.Value {
		key := call.Argument(0).String()
		v, ok := b.cache.Get(key)
		if !ok {
			return goja.Undefined()
		}
		return b.vm.ToValue(v)
	}
	set := func(call goja.FunctionCall) goja.Value {
		key := call.Argument(0).String()
		b.cache.Set(key, exportValue(call.Argument(1)))
		return goja.Undefined()
	}
	del := func(call goja.FunctionCall) goja.Value {
		b.cache.Delete(call.Argument(0).String())
		return goja.Undefined()
	}
	if err := obj.Set("get", get); err != nil {
		return err
	}
	if err := obj.Set("set", set); err != nil {
		return err
	}
	if err := obj.Set("delete", del); err != nil {
		return err
	}
	return b.vm.Set("cache", obj)
}

func (b *bindings) installConsole() error {
	obj := b.vm.NewObject()
	logger := func(level string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				args[i] = a.String()
			}
			b.console.record(level, args)
			return goja.Undefined()
		}
	}
	if err := obj.Set("log", logger("log")); err != nil {
		return err
	}
	if err := obj.Set("warn", logger("warn")); err != nil {
		return err
	}
	if err := obj.Set("error", logger("error")); err != nil {
		return err
	}
	return b.vm.Set("console", obj)
}

// installFetch exposes fetch(url, opts) backed by an SSRF-filtered caller
// (handlers.FetchHandler in practice), capped to 10 seconds regardless of
// the sandbox's own overall timeout.
func (b *bindings) installFetch(ctx context.Context) error {
	fetch := func(call goja.FunctionCall) goja.Value {
		if b.fetch == nil {
			panic(b.vm.NewTypeError("fetch is not available in this sandbox"))
		}
		url := call.Argument(0).String()
		var opts map[string]any
		if len(call.Arguments) > 1 {
			if m, ok := call.Argument(1).Export().(map[string]any); ok {
				opts = m
			}
		}
		fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		res, err := b.fetch(fetchCtx, url, opts)
		if err != nil {
			panic(b.vm.NewGoError(fmt.Errorf("fetch: %w", err)))
		}
		return b.vm.ToValue(res)
	}
	return b.vm.Set("fetch", fetch)
}

// installSetTimeout provides a bounded, synchronous-ish setTimeout: the
// callback runs inline once the requested delay elapses, capped at 5
// seconds so a script can't use it to outlive the sandbox's own timeout.
func (b *bindings) installSetTimeout() error {
	setTimeout := func(call goja.FunctionCall) goja.Value {
		cb, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			return goja.Undefined()
		}
		delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
		if delay > maxSetTimeoutDelay {
			delay = maxSetTimeoutDelay
		}
		if delay > 0 {
			time.Sleep(delay)
		}
		if _, err := cb(goja.Undefined()); err != nil {
			panic(err)
		}
		return goja.Undefined()
	}
	return b.vm.Set("setTimeout", setTimeout)
}

// freezeCopy copies m into a new goja object with every property
// non-writable and non-configurable, giving scripts a read-only view of a
// keyed value.
func freezeCopy(vm *goja.Runtime, m map[string]any) *goja.Object {
	obj := vm.NewObject()
	for k, v := range m {
		obj.DefineDataProperty(k, vm.ToValue(v), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}
	return obj
}

// freezeSlice copies s into a new goja array-like object with every index
// (and length) non-writable and non-configurable, giving scripts a
// read-only view of the artifacts sequence.
func freezeSlice(vm *goja.Runtime, s []any) *goja.Object {
	obj := vm.NewArray()
	for i, v := range s {
		obj.DefineDataProperty(strconv.Itoa(i), vm.ToValue(v), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}
	obj.DefineDataProperty("length", vm.ToValue(len(s)), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
	return obj
}
