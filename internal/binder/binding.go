package binder

import (
	"strings"

	"github.com/jward/surface/internal/symtab"
)

// binding is one named identity of a bound module: a declaration (possibly
// merged across several sites), an import, a re-export clause, or a synthetic
// placeholder. binding implements symtab.Ident; pointers are stable per
// binder run.
type binding struct {
	name  string
	from  *moduleFile
	decls []*syntaxNode

	alias  symtab.AliasInfo
	target *binding    // memoized one-step alias target
	imp    *importEdge // pending alias resolution, cleared once resolved

	ambient   bool
	synthetic bool
}

func (b *binding) Name() string { return b.name }

// importEdge defers alias resolution until the identity is first followed.
// name is the exported name in the target module ("default" for default
// imports, "" for namespace imports).
type importEdge struct {
	specifier string
	name      string
}

// declarationKinds are the named module- and namespace-level declarations.
var declarationKinds = map[symtab.NodeKind]bool{
	"class_declaration":              true,
	"abstract_class_declaration":     true,
	"interface_declaration":          true,
	"enum_declaration":               true,
	"function_declaration":           true,
	"generator_function_declaration": true,
	"type_alias_declaration":         true,
	"internal_module":                true,
}

// memberKinds are the named members nested inside declaration bodies.
var memberKinds = map[symtab.NodeKind]bool{
	"method_definition":         true,
	"method_signature":          true,
	"abstract_method_signature": true,
	"public_field_definition":   true,
	"property_signature":        true,
	"enum_assignment":           true,
}

// bindDeclarations runs the first binding phase over a freshly parsed file:
// every named declaration site gets a binding in its lexical scope, merged by
// name per scope, and the declaration-site index is filled. Exports are built
// in a second phase once every name exists.
func (mf *moduleFile) bindDeclarations() {
	mf.scopes = make(map[*syntaxNode]*scope)
	mf.declSite = make(map[*syntaxNode]*binding)
	mf.exportTable = make(map[string]*binding)

	for _, c := range mf.root.children {
		if c.kind == "import_statement" || c.kind == "export_statement" {
			mf.isModule = true
			break
		}
	}

	mf.placeholder = &binding{name: moduleStem(mf.relPath), from: mf, decls: []*syntaxNode{mf.root}}

	// Script files have no module scope; everything they declare is global.
	mf.bindScope(mf.root, mf.moduleScope(), !mf.isModule)
}

// bindScope binds the declarations directly reachable from container into sc,
// recursing through transparent statement wrappers.
func (mf *moduleFile) bindScope(container *syntaxNode, sc *scope, ambient bool) {
	for _, node := range container.children {
		switch {
		case declarationKinds[node.kind] || memberKinds[node.kind] || node.kind == "variable_declarator":
			mf.bindDecl(node, sc, ambient)

		case node.kind == "module":
			// `declare module "spec"` augments an external module; its
			// contents stay outside the local graph. `module Foo` is
			// namespace syntax.
			if childOfKind(node, "string") != nil {
				if body := childOfKind(node, "statement_block"); body != nil {
					mf.bindScope(body, sc, true)
				}
				continue
			}
			mf.bindDecl(node, sc, ambient)

		case node.kind == "ambient_declaration":
			if hasTokenChild(node, "global") {
				if body := childOfKind(node, "statement_block"); body != nil {
					mf.bindScope(body, sc, true)
				}
				continue
			}
			mf.bindScope(node, sc, ambient)

		case node.kind == "import_statement":
			mf.bindImport(node, sc)

		default:
			mf.bindScope(node, sc, ambient)
		}
	}
}

// bindDecl registers one named declaration site, merging with an existing
// binding of the same name in the same scope, then binds the declaration's
// own type parameters and members.
func (mf *moduleFile) bindDecl(node *syntaxNode, sc *scope, ambient bool) {
	name := declName(node)
	if name == "" {
		return
	}

	b, ok := sc.names[name]
	if !ok || b.imp != nil || b.alias.Kind != symtab.AliasNone {
		b = &binding{name: name, from: mf, ambient: ambient}
		sc.names[name] = b
	}
	b.decls = append(b.decls, node)
	mf.declSite[node] = b

	declScope := mf.scopeFor(node)
	if params := childOfKind(node, "type_parameters"); params != nil {
		for _, p := range params.children {
			if p.kind != "type_parameter" {
				continue
			}
			if id := childOfKind(p, "type_identifier", "identifier"); id != nil {
				declScope.names[id.text()] = &binding{name: id.text(), from: mf, synthetic: true}
			}
		}
	}

	if node.kind == "variable_declarator" {
		return
	}
	if body := childOfKind(node, "class_body", "interface_body", "object_type", "enum_body", "statement_block"); body != nil {
		bodyScope := mf.memberScopeFor(body)
		if node.kind == "internal_module" || node.kind == "module" {
			// Namespace bodies are real lexical scopes; their declarations
			// are visible to references inside them.
			bodyScope = mf.scopeFor(body)
		}
		mf.bindScope(body, bodyScope, ambient)
	}
}

// bindImport turns one import statement into alias bindings in the module
// scope. Side-effect imports bind nothing.
func (mf *moduleFile) bindImport(node *syntaxNode, sc *scope) {
	spec, ok := specifierText(node)
	if !ok {
		return
	}
	clause := childOfKind(node, "import_clause")
	if clause == nil {
		return
	}
	mf.imports = append(mf.imports, spec)

	addAlias := func(local, original string) {
		sc.names[local] = &binding{
			name:  local,
			from:  mf,
			alias: symtab.AliasInfo{Kind: symtab.AliasImport},
			imp:   &importEdge{specifier: spec, name: original},
		}
	}

	for _, c := range clause.children {
		switch c.kind {
		case "identifier":
			addAlias(c.text(), "default")
		case "namespace_import":
			if id := childOfKind(c, "identifier"); id != nil {
				addAlias(id.text(), "")
			}
		case "named_imports":
			for _, s := range c.children {
				if s.kind != "import_specifier" {
					continue
				}
				ids := identifierChildren(s)
				if len(ids) == 0 {
					continue
				}
				original := ids[0]
				local := ids[len(ids)-1]
				addAlias(local, original)
			}
		}
	}
}

// identifierChildren returns the texts of the direct identifier-like children
// of n in order, unquoting string names.
func identifierChildren(n *syntaxNode) []string {
	var out []string
	for _, c := range n.children {
		switch c.kind {
		case "identifier", "type_identifier", "property_identifier":
			out = append(out, c.text())
		case "string":
			if frag := childOfKind(c, "string_fragment"); frag != nil {
				out = append(out, frag.text())
			}
		}
	}
	return out
}

// moduleStem derives the human-facing name a whole module goes by: the file
// stem, or the directory name for index files.
func moduleStem(relPath string) string {
	segments := strings.Split(relPath, "/")
	stem := segments[len(segments)-1]
	if i := strings.IndexByte(stem, '.'); i > 0 {
		stem = stem[:i]
	}
	if stem == "index" && len(segments) > 1 {
		stem = segments[len(segments)-2]
	}
	return stem
}

// declName extracts the declared name of a declaration node, or "" when the
// declaration is anonymous or computed.
func declName(node *syntaxNode) string {
	switch node.kind {
	case "class_declaration", "abstract_class_declaration", "interface_declaration",
		"enum_declaration", "function_declaration", "generator_function_declaration",
		"type_alias_declaration", "variable_declarator":
		if id := childOfKind(node, "identifier"); id != nil {
			return id.text()
		}
	case "internal_module", "module":
		if id := childOfKind(node, "identifier", "nested_identifier"); id != nil {
			return id.text()
		}
		if str := childOfKind(node, "string"); str != nil {
			if frag := childOfKind(str, "string_fragment"); frag != nil {
				return frag.text()
			}
		}
	case "method_definition", "method_signature", "abstract_method_signature",
		"public_field_definition", "property_signature", "enum_assignment":
		if id := childOfKind(node, "property_identifier"); id != nil {
			return id.text()
		}
		if str := childOfKind(node, "string"); str != nil {
			if frag := childOfKind(str, "string_fragment"); frag != nil {
				return frag.text()
			}
		}
	}
	return ""
}
