package complexity

import (
	"github.com/vektah/gqlparser/v2/ast"
)

// FromOperation converts a parsed operation's selection set into the neutral
// Node tree. Fragment spreads and inline fragments are spliced into their
// enclosing selection set, so they add selections but never nesting levels.
// listFields names fields known to resolve to lists when no schema-attached
// field definition is available on the AST.
func FromOperation(op *ast.OperationDefinition, doc *ast.QueryDocument, listFields map[string]bool) []Node {
	return fromSelectionSet(op.SelectionSet, doc, listFields, nil)
}

func fromSelectionSet(set ast.SelectionSet, doc *ast.QueryDocument, listFields map[string]bool, seen map[string]bool) []Node {
	var nodes []Node
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			alias := s.Alias
			if alias == "" {
				alias = s.Name
			}
			nodes = append(nodes, &field{
				name:     s.Name,
				alias:    alias,
				list:     isList(s, listFields),
				children: fromSelectionSet(s.SelectionSet, doc, listFields, seen),
			})
		case *ast.InlineFragment:
			nodes = append(nodes, fromSelectionSet(s.SelectionSet, doc, listFields, seen)...)
		case *ast.FragmentSpread:
			if seen[s.Name] {
				// fragment cycle; malformed documents must not recurse forever
				continue
			}
			frag := s.Definition
			if frag == nil && doc != nil {
				frag = doc.Fragments.ForName(s.Name)
			}
			if frag == nil {
				continue
			}
			next := withSeen(seen, s.Name)
			nodes = append(nodes, fromSelectionSet(frag.SelectionSet, doc, listFields, next)...)
		}
	}
	return nodes
}

func isList(f *ast.Field, listFields map[string]bool) bool {
	if f.Definition != nil && f.Definition.Type != nil {
		t := f.Definition.Type
		return t.NamedType == "" && t.Elem != nil
	}
	return listFields[f.Name]
}

func withSeen(seen map[string]bool, name string) map[string]bool {
	next := make(map[string]bool, len(seen)+1)
	for k := range seen {
		next[k] = true
	}
	next[name] = true
	return next
}
