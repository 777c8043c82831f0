package codesandbox

import "reflect"

// Diff is the state mutation a code block produced, split by kind. Unlike
// the delta computed for ordinary blocks (pkg/workflow.RunBuilder, which
// only ever tracks additions and changes), a code block's diff also tracks
// deletions: a script is free to delete a key from state outright, and
// that's the one place in the system where a deletion needs to be recorded
// so resume/replay can reproduce it.
type Diff struct {
	Added   map[string]any
	Changed map[string]any
	Deleted []string
}

func (d Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Deleted) == 0
}

// computeDiff compares before and after snapshots of sandbox state and
// classifies every key as added, changed, or deleted.
func computeDiff(before, after map[string]any) Diff {
	diff := Diff{
		Added:   map[string]any{},
		Changed: map[string]any{},
	}
	for k, av := range after {
		bv, existed := before[k]
		if !existed {
			diff.Added[k] = av
			continue
		}
		if !reflect.DeepEqual(bv, av) {
			diff.Changed[k] = av
		}
	}
	for k := range before {
		if _, stillPresent := after[k]; !stillPresent {
			diff.Deleted = append(diff.Deleted, k)
		}
	}
	if len(diff.Added) == 0 {
		diff.Added = nil
	}
	if len(diff.Changed) == 0 {
		diff.Changed = nil
	}
	return diff
}
