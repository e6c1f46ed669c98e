package complexity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pulsefit/gateway/pkg/domain"
	"pgregory.net/rapid"
)

func leaf(name string) Node { return NewNode(name, "", false) }

func fourFieldSelection(alias string) Node {
	return NewNode("exercises", alias, false,
		leaf("id"), leaf("exerciseType"), leaf("duration"), leaf("date"))
}

func TestEstimateFlatSelection(t *testing.T) {
	est := Estimator{}
	got := est.Estimate([]Node{leaf("a"), leaf("b"), leaf("c")})
	if got != 3 {
		t.Fatalf("Estimate = %d, want 3", got)
	}
}

func TestEstimateCostTableOverride(t *testing.T) {
	est := Estimator{Costs: CostTable{"stats": 5}}
	got := est.Estimate([]Node{leaf("stats"), leaf("id")})
	if got != 6 {
		t.Fatalf("Estimate = %d, want 6", got)
	}
}

func TestEstimateListMultiplier(t *testing.T) {
	est := Estimator{ListFactor: 10}
	tree := []Node{NewNode("exercises", "", true, leaf("id"), leaf("duration"))}
	// 1 for the list field, 2 children x factor 10
	if got := est.Estimate(tree); got != 21 {
		t.Fatalf("Estimate = %d, want 21", got)
	}
}

// Twelve aliased copies of a four-field selection cost 12x one copy and
// blow a budget of 10.
func TestAliasedSelectionsEachPayFullCost(t *testing.T) {
	var tree []Node
	for i := 0; i < 12; i++ {
		tree = append(tree, fourFieldSelection(fmt.Sprintf("e%d", i)))
	}

	est := Estimator{}
	single := est.Estimate([]Node{fourFieldSelection("")})
	total, err := est.Check(tree, 10)

	if total != 12*single {
		t.Fatalf("aliased total = %d, want %d", total, 12*single)
	}

	var le *domain.LimitError
	if !errors.As(err, &le) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if le.Kind != domain.KindComplexityExceeded || le.Computed != total || le.Limit != 10 {
		t.Fatalf("unexpected limit error: %+v", le)
	}
}

func TestCheckWithinBudget(t *testing.T) {
	est := Estimator{}
	total, err := est.Check([]Node{fourFieldSelection("")}, 10)
	if err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
}

// Adding a selection anywhere never decreases total cost.
func TestEstimateMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tree := genTree(t, 0)
		est := Estimator{ListFactor: rapid.IntRange(1, 4).Draw(t, "factor")}

		before := est.Estimate(tree)
		grown := append(append([]Node{}, tree...), leaf("extra"))
		after := est.Estimate(grown)

		if after < before {
			t.Fatalf("cost decreased after adding a field: %d -> %d", before, after)
		}
		if after != before+DefaultFieldCost {
			t.Fatalf("top-level leaf should add exactly %d: %d -> %d", DefaultFieldCost, before, after)
		}
	})
}

func genTree(t *rapid.T, depth int) []Node {
	n := rapid.IntRange(0, 4).Draw(t, fmt.Sprintf("width%d", depth))
	nodes := make([]Node, 0, n)
	for i := 0; i < n; i++ {
		name := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, fmt.Sprintf("name%d_%d", depth, i))
		var children []Node
		if depth < 3 && rapid.Bool().Draw(t, fmt.Sprintf("nest%d_%d", depth, i)) {
			children = genTree(t, depth+1)
		}
		list := rapid.Bool().Draw(t, fmt.Sprintf("list%d_%d", depth, i))
		nodes = append(nodes, NewNode(name, "", list, children...))
	}
	return nodes
}
