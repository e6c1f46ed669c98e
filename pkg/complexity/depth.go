package complexity

import "github.com/pulsefit/gateway/pkg/domain"

// DefaultMaxDepth bounds selection-set nesting when no explicit limit is
// configured.
const DefaultMaxDepth = 6

// Depth computes the maximum nesting depth of a selection tree. A flat list
// of leaf fields has depth 1; an empty selection has depth 0.
func Depth(selections []Node) int {
	max := 0
	for _, node := range selections {
		d := 1 + Depth(node.Children())
		if d > max {
			max = d
		}
	}
	return max
}

// CheckDepth rejects trees nested strictly deeper than maxDepth. A query at
// exactly the bound is accepted. This is a structural, schema-independent
// check and runs before any resolver executes.
func CheckDepth(selections []Node, maxDepth int) (int, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	depth := Depth(selections)
	if depth > maxDepth {
		return depth, &domain.LimitError{
			Kind:     domain.KindDepthExceeded,
			Computed: depth,
			Limit:    maxDepth,
		}
	}
	return depth, nil
}
