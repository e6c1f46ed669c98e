// Package complexity scores and bounds parsed queries before execution.
//
// The cost estimator and depth limiter are pure functions over a neutral
// selection tree, so the core logic has no dependency on any particular
// GraphQL engine; FromOperation is the one adapter that knows about the
// gqlparser AST.
package complexity

// Node is a single selection in a query's selection tree. Fragments are
// inlined before a Node tree is built, so consumers only ever see fields.
type Node interface {
	// Name is the schema field name being selected.
	Name() string
	// Alias is the response key, equal to Name when no alias was written.
	// Aliased selections are distinct selections: each contributes cost
	// independently, so budgets cannot be evaded by aliasing.
	Alias() string
	// List reports whether the field resolves to a list, which multiplies
	// the cost of its children.
	List() bool
	// Children returns the nested selections, empty for leaf fields.
	Children() []Node
}

// field is the concrete Node used by the adapters and tests.
type field struct {
	name     string
	alias    string
	list     bool
	children []Node
}

func (f *field) Name() string     { return f.name }
func (f *field) Alias() string    { return f.alias }
func (f *field) List() bool       { return f.list }
func (f *field) Children() []Node { return f.children }

// NewNode builds a tree node directly; used by tests and non-GraphQL
// adapters.
func NewNode(name, alias string, list bool, children ...Node) Node {
	if alias == "" {
		alias = name
	}
	return &field{name: name, alias: alias, list: list, children: children}
}
