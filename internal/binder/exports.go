package binder

import (
	"strings"

	"github.com/jward/surface/internal/symtab"
)

// buildExports runs the second binding phase: the module's own export table
// in statement order. Re-export and star targets are resolved eagerly, so a
// specifier that does not resolve degrades to an unbound name here instead of
// failing later deep inside symbol resolution.
func (b *Binder) buildExports(mf *moduleFile) {
	for _, stmt := range mf.root.children {
		if stmt.kind == "export_statement" {
			b.bindExportStatement(mf, stmt)
		}
	}
}

func (b *Binder) bindExportStatement(mf *moduleFile, stmt *syntaxNode) {
	spec, hasSource := specifierText(stmt)

	if ns := childOfKind(stmt, "namespace_export"); ns != nil {
		name := "*"
		if id := childOfKind(ns, "identifier"); id != nil {
			name = id.text()
		}
		addExport(mf, name, unsupportedBinding(mf, stmt))
		return
	}
	if hasTokenChild(stmt, "=") {
		addExport(mf, "export=", unsupportedBinding(mf, stmt))
		return
	}

	if clause := childOfKind(stmt, "export_clause"); clause != nil {
		for _, s := range clause.children {
			if s.kind != "export_specifier" {
				continue
			}
			ids := identifierChildren(s)
			if len(ids) == 0 {
				continue
			}
			original, exported := ids[0], ids[len(ids)-1]
			switch {
			case hasSource:
				addExport(mf, exported, b.reexportBinding(mf, original, spec))
			default:
				if lb, ok := mf.moduleScope().names[original]; ok {
					addExport(mf, exported, lb)
				} else {
					addExport(mf, exported, degradedBinding(mf, exported))
				}
			}
		}
		return
	}

	if hasSource {
		// export * from "..."
		b.addStarExport(mf, stmt, spec)
		return
	}

	if hasTokenChild(stmt, "default") {
		if decl := exportedDeclaration(stmt); decl != nil {
			if db, ok := mf.declSite[decl]; ok {
				addExport(mf, "default", db)
			} else {
				addExport(mf, "default", anonymousBinding(mf))
			}
			return
		}
		if id := childOfKind(stmt, "identifier"); id != nil {
			if lb, ok := mf.moduleScope().names[id.text()]; ok {
				addExport(mf, "default", lb)
				return
			}
		}
		addExport(mf, "default", anonymousBinding(mf))
		return
	}

	if decl := exportedDeclaration(stmt); decl != nil {
		if decl.kind == "lexical_declaration" || decl.kind == "variable_declaration" {
			for _, d := range decl.children {
				if d.kind != "variable_declarator" {
					continue
				}
				if db, ok := mf.declSite[d]; ok {
					addExport(mf, db.name, db)
				}
			}
			return
		}
		if db, ok := mf.declSite[decl]; ok {
			addExport(mf, db.name, db)
		}
	}
}

// exportedDeclaration finds the declaration carried by an export statement,
// unwrapping a `declare` prefix.
func exportedDeclaration(stmt *syntaxNode) *syntaxNode {
	for _, c := range stmt.children {
		if declarationKinds[c.kind] || c.kind == "lexical_declaration" ||
			c.kind == "variable_declaration" || c.kind == "module" {
			return c
		}
		if c.kind == "ambient_declaration" {
			if inner := exportedDeclaration(c); inner != nil {
				return inner
			}
		}
	}
	return nil
}

// addStarExport records one `export * from ...` statement on the module's
// star aggregate, dropping statements whose target does not resolve.
func (b *Binder) addStarExport(mf *moduleFile, stmt *syntaxNode, spec string) {
	target, err := b.loadForSpecifier(mf, spec)
	if err != nil {
		return
	}
	if mf.starAgg == nil {
		mf.starAgg = &binding{name: "*", from: mf}
		mf.exports = append(mf.exports, exportEntry{star: true, b: mf.starAgg})
	}
	mf.starAgg.decls = append(mf.starAgg.decls, stmt)
	for _, t := range mf.starTargets {
		if t == target {
			return
		}
	}
	mf.starTargets = append(mf.starTargets, target)
}

// reexportBinding builds the alias identity for `export { original } from
// spec`, pre-resolving the target module.
func (b *Binder) reexportBinding(mf *moduleFile, original, spec string) *binding {
	if _, err := b.loadForSpecifier(mf, spec); err != nil {
		return degradedBinding(mf, original)
	}
	return &binding{
		name: original,
		from: mf,
		alias: symtab.AliasInfo{
			Kind:       symtab.AliasReexport,
			ExportName: original,
			Specifier:  spec,
			From:       mf,
		},
		imp: &importEdge{specifier: spec, name: original},
	}
}

func addExport(mf *moduleFile, name string, bind *binding) {
	mf.exports = append(mf.exports, exportEntry{name: name, b: bind})
	if _, exists := mf.exportTable[name]; !exists {
		mf.exportTable[name] = bind
	}
}

// unsupportedBinding stands in for an export-declaration form the analyzer
// does not handle. The ambient flag keeps it filterable where alias
// classification is not consulted, such as flattened external surfaces.
func unsupportedBinding(mf *moduleFile, stmt *syntaxNode) *binding {
	text := strings.TrimSuffix(strings.TrimSpace(stmt.text()), ";")
	return &binding{
		name:    text,
		from:    mf,
		ambient: true,
		alias: symtab.AliasInfo{
			Kind: symtab.AliasUnsupported,
			From: mf,
			Text: text,
		},
	}
}

// degradedBinding stands in for a name whose target cannot be resolved; the
// ambient flag keeps it out of the analyzed surface without aborting binding.
func degradedBinding(mf *moduleFile, name string) *binding {
	return &binding{name: name, from: mf, ambient: true}
}

// anonymousBinding stands in for a default export with no name of its own.
func anonymousBinding(mf *moduleFile) *binding {
	return &binding{name: "default", from: mf, synthetic: true}
}

// aliasTarget resolves one alias step of b, loading the target module on
// first use. Unresolvable targets degrade the binding to ambient and make it
// terminal.
func (bd *Binder) aliasTarget(b *binding) *binding {
	if b.target != nil {
		return b.target
	}
	if b.imp == nil {
		return b
	}
	edge := b.imp
	b.imp = nil

	tm, err := bd.loadForSpecifier(b.from, edge.specifier)
	if err != nil {
		b.ambient = true
		return b
	}
	if edge.name == "" {
		b.target = tm.placeholder
		return b.target
	}
	tb, ok := bd.exportedBinding(tm, edge.name, nil)
	if !ok {
		b.ambient = true
		return b
	}
	b.target = tb
	return b.target
}

// exportedBinding looks up name in mf's export surface: its own table first,
// then each star target depth-first, with a visited set bounding cyclic star
// graphs.
func (bd *Binder) exportedBinding(mf *moduleFile, name string, visited map[*moduleFile]bool) (*binding, bool) {
	if visited == nil {
		visited = make(map[*moduleFile]bool)
	}
	if visited[mf] {
		return nil, false
	}
	visited[mf] = true

	if b, ok := mf.exportTable[name]; ok {
		return b, true
	}
	for _, t := range mf.starTargets {
		if b, ok := bd.exportedBinding(t, name, visited); ok {
			return b, true
		}
	}
	return nil, false
}
