package secrets

import "github.com/blockrun/blockrun/pkg/workflow"

// Resolver adapts a Store into a workflow.KeyResolver, the capability
// $secrets references and code-block "secrets" inputs resolve through.
type Resolver struct {
	Store Store
}

// NewResolver builds a Resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{Store: store}
}

// Resolve implements workflow.KeyResolver.
func (r *Resolver) Resolve(_ *workflow.WorkflowContext, name string) (string, error) {
	return r.Store.Get(name)
}
