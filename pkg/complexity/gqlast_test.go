package complexity

import (
	"testing"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func parse(t *testing.T, query string) (*ast.OperationDefinition, *ast.QueryDocument) {
	t.Helper()
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Operations) == 0 {
		t.Fatal("no operations parsed")
	}
	return doc.Operations[0], doc
}

func TestFromOperationFields(t *testing.T) {
	op, doc := parse(t, `query { exercises { id duration } stats }`)
	tree := FromOperation(op, doc, map[string]bool{"exercises": true})

	if len(tree) != 2 {
		t.Fatalf("expected 2 top-level selections, got %d", len(tree))
	}
	if tree[0].Name() != "exercises" || !tree[0].List() {
		t.Fatalf("unexpected first node: %s list=%v", tree[0].Name(), tree[0].List())
	}
	if len(tree[0].Children()) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tree[0].Children()))
	}
	if Depth(tree) != 2 {
		t.Fatalf("depth = %d, want 2", Depth(tree))
	}
}

func TestFromOperationAliases(t *testing.T) {
	op, doc := parse(t, `query { a: stats b: stats c: stats }`)
	tree := FromOperation(op, doc, nil)

	if len(tree) != 3 {
		t.Fatalf("aliased selections must stay distinct, got %d", len(tree))
	}
	if tree[0].Alias() != "a" || tree[0].Name() != "stats" {
		t.Fatalf("alias lost: %s/%s", tree[0].Alias(), tree[0].Name())
	}
	if got := (Estimator{}).Estimate(tree); got != 3 {
		t.Fatalf("aliased cost = %d, want 3", got)
	}
}

func TestFromOperationInlinesFragments(t *testing.T) {
	op, doc := parse(t, `
		query {
			exercises { ...fields }
		}
		fragment fields on Exercise { id duration date }
	`)
	tree := FromOperation(op, doc, nil)

	if len(tree) != 1 {
		t.Fatalf("expected 1 top-level selection, got %d", len(tree))
	}
	// the spread splices selections without adding a nesting level
	if len(tree[0].Children()) != 3 {
		t.Fatalf("fragment fields not inlined: %d children", len(tree[0].Children()))
	}
	if Depth(tree) != 2 {
		t.Fatalf("depth = %d, want 2", Depth(tree))
	}
}

func TestFromOperationInlineFragment(t *testing.T) {
	op, doc := parse(t, `query { exercises { ... on Exercise { id } duration } }`)
	tree := FromOperation(op, doc, nil)

	if len(tree[0].Children()) != 2 {
		t.Fatalf("inline fragment not spliced: %d children", len(tree[0].Children()))
	}
}

func TestFromOperationFragmentCycleTerminates(t *testing.T) {
	op, doc := parse(t, `
		query { exercises { ...a } }
		fragment a on Exercise { id ...b }
		fragment b on Exercise { duration ...a }
	`)
	tree := FromOperation(op, doc, nil)
	if len(tree) != 1 {
		t.Fatalf("expected 1 selection, got %d", len(tree))
	}
	// id, duration from b, and the cycle back to a stops
	if len(tree[0].Children()) != 2 {
		t.Fatalf("cycle handling produced %d children", len(tree[0].Children()))
	}
}
