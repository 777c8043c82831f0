// Package expression provides two distinct evaluation facilities used by the
// workflow engine.
//
// Resolver (resolver.go) implements the engine's reference-resolution
// grammar: the fixed set of $-prefixed scopes ($state, $cache, $artifacts,
// $secrets, $paths, $event, $run, $error, $now, $keys, $loop.<id>, $row,
// $item, $index), dot/bracket path access, and {{...}} string interpolation.
// Every block input and condition operand goes through the Resolver.
//
// Evaluator (evaluator.go) wraps expr-lang/expr with a compiled-program
// cache. It is not used for the fixed 14-operator Condition grammar (see
// conditions.go) — it backs the optional "evaluate" math/string operation,
// where a workflow author supplies an arbitrary boolean or arithmetic
// expression string that isn't expressible as a single $-path comparison.
package expression
