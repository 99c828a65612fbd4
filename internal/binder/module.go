package binder

import (
	"path"

	"github.com/jward/surface/internal/symtab"
)

// moduleFile is one bound source file. It owns the syntax arena plus the name
// tables built over it: a scope tree for lexical lookup, the declaration-site
// index, and the ordered export table. moduleFile implements symtab.Module;
// pointers are stable per binder, so the same file is always the same handle.
type moduleFile struct {
	relPath string // project-root-relative, slash-separated
	absPath string
	src     []byte
	root    *syntaxNode

	scopes   map[*syntaxNode]*scope
	declSite map[*syntaxNode]*binding

	exports     []exportEntry
	exportTable map[string]*binding
	starAgg     *binding      // aggregate identity for all `export * from` statements
	starTargets []*moduleFile // resolved star targets, statement order, deduplicated

	// imports are the specifiers of the file's binding import statements, in
	// statement order.
	imports []string

	// placeholder stands for the module as a whole; namespace imports alias
	// to it.
	placeholder *binding

	// isModule is false for script files (no top-level import/export), whose
	// declarations live in the global scope.
	isModule bool
}

func (m *moduleFile) Path() string { return m.relPath }

// dir returns the absolute directory the file lives in, for resolving its
// relative import specifiers.
func (m *moduleFile) dir() string {
	return path.Dir(m.absPath)
}

// exportEntry is one slot of a module's own export table in source order.
// Star entries carry the aggregate binding instead of a name.
type exportEntry struct {
	name string
	b    *binding
	star bool
}

// scope is one level of the scope tree. Scopes hang off the syntax node that
// introduces them (program, declarations, namespace bodies); lexical lookup
// walks node parents and consults each attached lexical scope. Class,
// interface, and enum member tables are non-lexical: member names register
// declaration sites but never capture references the way an enclosing
// namespace's names do.
type scope struct {
	names   map[string]*binding
	lexical bool
}

// scopeFor returns the lexical scope attached at node, creating it on first
// use.
func (m *moduleFile) scopeFor(node *syntaxNode) *scope {
	return m.attachScope(node, true)
}

// memberScopeFor returns the non-lexical member table attached at node.
func (m *moduleFile) memberScopeFor(node *syntaxNode) *scope {
	return m.attachScope(node, false)
}

func (m *moduleFile) attachScope(node *syntaxNode, lexical bool) *scope {
	if s, ok := m.scopes[node]; ok {
		return s
	}
	s := &scope{names: make(map[string]*binding), lexical: lexical}
	m.scopes[node] = s
	return s
}

// resolveName resolves name lexically from the position of node: the nearest
// enclosing lexical scope that binds it wins.
func (m *moduleFile) resolveName(node *syntaxNode, name string) (*binding, bool) {
	for n := node; n != nil; n = n.parent {
		s, ok := m.scopes[n]
		if !ok || !s.lexical {
			continue
		}
		if b, ok := s.names[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// moduleScope is the scope attached to the program node.
func (m *moduleFile) moduleScope() *scope {
	return m.scopeFor(m.root)
}

// ownExports materializes the export table as the oracle's ModuleExport
// slice.
func (m *moduleFile) ownExports() []symtab.ModuleExport {
	out := make([]symtab.ModuleExport, 0, len(m.exports))
	for _, e := range m.exports {
		if e.star {
			out = append(out, symtab.ModuleExport{Name: "*", Ident: e.b, Star: true})
			continue
		}
		out = append(out, symtab.ModuleExport{Name: e.name, Ident: e.b})
	}
	return out
}
