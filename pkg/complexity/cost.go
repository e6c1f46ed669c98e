package complexity

import "github.com/pulsefit/gateway/pkg/domain"

// DefaultMaxComplexity bounds total query cost when no explicit budget is
// configured.
const DefaultMaxComplexity = 100

// CostTable assigns per-field costs by schema field name. Fields absent
// from the table cost DefaultFieldCost.
type CostTable map[string]int

// DefaultFieldCost is charged for every selection without an override.
const DefaultFieldCost = 1

// Estimator computes the total cost of a selection tree bottom-up.
// Aliased duplicates of the same field each pay full price, and list fields
// multiply the cost of their children by ListFactor.
type Estimator struct {
	Costs CostTable
	// ListFactor approximates fan-out for list-valued fields. Zero or one
	// leaves child costs unmultiplied.
	ListFactor int
}

// Estimate returns the total cost of the selection tree.
func (e Estimator) Estimate(selections []Node) int {
	total := 0
	for _, node := range selections {
		cost := e.fieldCost(node.Name())
		childCost := e.Estimate(node.Children())
		if node.List() && e.ListFactor > 1 {
			childCost *= e.ListFactor
		}
		total += cost + childCost
	}
	return total
}

// Check estimates the tree and rejects when the total exceeds maxComplexity.
// The computed total is returned either way so callers can attach it to the
// response envelope.
func (e Estimator) Check(selections []Node, maxComplexity int) (int, error) {
	if maxComplexity <= 0 {
		maxComplexity = DefaultMaxComplexity
	}
	total := e.Estimate(selections)
	if total > maxComplexity {
		return total, &domain.LimitError{
			Kind:     domain.KindComplexityExceeded,
			Computed: total,
			Limit:    maxComplexity,
		}
	}
	return total, nil
}

func (e Estimator) fieldCost(name string) int {
	if c, ok := e.Costs[name]; ok {
		return c
	}
	return DefaultFieldCost
}
