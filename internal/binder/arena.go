package binder

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/surface/internal/symtab"
)

// syntaxNode is one node of an owned syntax arena. Arenas are converted from
// tree-sitter trees at parse time and outlive them, so node pointers stay
// stable for the whole analysis run and can serve as map keys. Each node keeps
// its byte span into the file source instead of text.
type syntaxNode struct {
	kind     symtab.NodeKind
	start    uint32
	end      uint32
	parent   *syntaxNode
	children []*syntaxNode
	file     *moduleFile
}

func (n *syntaxNode) Kind() symtab.NodeKind { return n.kind }

// text returns the source text this node spans.
func (n *syntaxNode) text() string {
	return string(n.file.src[n.start:n.end])
}

// funcBodyParents are the node kinds whose statement_block child is an
// executable function body. Those blocks are dropped during conversion;
// namespace bodies share the statement_block kind but their parents are not
// listed here, so they survive.
var funcBodyParents = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,
}

// nameRemapParents are the node kinds whose first type_identifier child is
// the declared (or qualifying) name rather than a type reference. The grammar
// gives both positions the same kind; the arena renames the name position to
// plain identifier so the analysis walk does not read a declaration's own
// name as a reference to itself.
var nameRemapParents = map[string]bool{
	"class_declaration":          true,
	"abstract_class_declaration": true,
	"interface_declaration":      true,
	"type_alias_declaration":     true,
	"nested_type_identifier":     true,
	"generic_type":               true,
}

// convertTree builds the owned arena for mf from a parsed tree-sitter root.
// The caller closes the tree afterwards; nothing retains tree-sitter state.
func convertTree(root *sitter.Node, mf *moduleFile) *syntaxNode {
	out := &syntaxNode{
		kind:  symtab.NodeKind(root.Type()),
		start: root.StartByte(),
		end:   root.EndByte(),
		file:  mf,
	}
	convertChildren(root, out, mf)
	return out
}

func convertChildren(src *sitter.Node, dst *syntaxNode, mf *moduleFile) {
	parentKind := string(dst.kind)
	renamed := false
	for i := 0; i < int(src.ChildCount()); i++ {
		child := src.Child(i)
		kind := child.Type()
		if funcBodyParents[parentKind] && kind == "statement_block" {
			continue
		}
		if !renamed && kind == "type_identifier" && nameRemapParents[parentKind] {
			kind = "identifier"
			renamed = true
		}
		node := &syntaxNode{
			kind:   symtab.NodeKind(kind),
			start:  child.StartByte(),
			end:    child.EndByte(),
			parent: dst,
			file:   mf,
		}
		dst.children = append(dst.children, node)
		convertChildren(child, node, mf)
	}
}

// childOfKind returns the first direct child of n with any of the given
// kinds.
func childOfKind(n *syntaxNode, kinds ...symtab.NodeKind) *syntaxNode {
	for _, c := range n.children {
		for _, k := range kinds {
			if c.kind == k {
				return c
			}
		}
	}
	return nil
}

// hasTokenChild reports whether n has a direct child spanning the literal
// token text (keywords and punctuation keep their text as kind).
func hasTokenChild(n *syntaxNode, token symtab.NodeKind) bool {
	return childOfKind(n, token) != nil
}

// identifierLeafKinds are the kinds a reference chain can bottom out at.
var identifierLeafKinds = map[symtab.NodeKind]bool{
	"identifier":      true,
	"type_identifier": true,
}

// leftmostIdentifier finds the first identifier-like leaf of n in source
// order, which for qualified chains is the root-most segment.
func leftmostIdentifier(n *syntaxNode) (*syntaxNode, bool) {
	if identifierLeafKinds[n.kind] {
		return n, true
	}
	for _, c := range n.children {
		if leaf, ok := leftmostIdentifier(c); ok {
			return leaf, true
		}
	}
	return nil, false
}

// specifierText extracts the module specifier of an import or export
// statement: the unquoted text of its string child.
func specifierText(n *syntaxNode) (string, bool) {
	str := childOfKind(n, "string")
	if str == nil {
		return "", false
	}
	if frag := childOfKind(str, "string_fragment"); frag != nil {
		return frag.text(), true
	}
	// Empty string literal has no fragment child.
	return strings.Trim(str.text(), "\"'`"), true
}
