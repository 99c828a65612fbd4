// Package binder implements the type resolution oracle over tree-sitter
// parse trees. It parses TypeScript, TSX, and JavaScript sources into owned
// syntax arenas, builds per-module name tables (scopes, imports, exports,
// alias edges), and resolves import specifiers Node-style. The symbol table
// consumes it through the symtab.Oracle interface and never sees tree-sitter
// types.
package binder

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/surface/internal/symtab"
)

// parseCacheSize bounds the arena cache; a project rarely touches more files
// than this in one run, and eviction only costs a re-parse.
const parseCacheSize = 512

// Binder binds source files on demand and answers the oracle queries of one
// analysis run. It is not safe for concurrent use; the symbol table driving
// it is single-threaded by contract.
type Binder struct {
	root string
	ctx  context.Context

	cache    *lru.Cache[string, *moduleFile]
	pinned   map[string]*moduleFile
	resolved map[string]resolveResult

	externals    []ExternalModule
	externalSeen map[*moduleFile]bool
}

// ExternalModule pairs a module loaded from a package with the bare specifier
// that first reached it.
type ExternalModule struct {
	Module    symtab.Module
	Specifier string
}

// NewBinder creates a binder rooted at projectRoot. Relative entry paths and
// reported module paths are anchored there.
func NewBinder(projectRoot string) (*Binder, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	cache, err := lru.New[string, *moduleFile](parseCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating parse cache: %w", err)
	}
	return &Binder{
		root:         abs,
		cache:        cache,
		pinned:       make(map[string]*moduleFile),
		resolved:     make(map[string]resolveResult),
		externalSeen: make(map[*moduleFile]bool),
	}, nil
}

// Bind parses and binds file (absolute, or relative to the project root),
// loads every module reachable through its import and export graph, and
// returns its module handle.
func (b *Binder) Bind(ctx context.Context, file string) (symtab.Module, error) {
	b.ctx = ctx
	abs := file
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(b.root, abs)
	}
	return b.loadFile(filepath.Clean(abs))
}

func (b *Binder) context() context.Context {
	if b.ctx != nil {
		return b.ctx
	}
	return context.Background()
}

// loadFile returns the bound module for an absolute path, parsing and binding
// it on first access. Within one binder the same path always yields the same
// *moduleFile, so module handles stay stable for the run.
func (b *Binder) loadFile(abs string) (*moduleFile, error) {
	if mf, ok := b.pinned[abs]; ok {
		return mf, nil
	}
	if mf, ok := b.cache.Get(abs); ok {
		b.pinned[abs] = mf
		return mf, nil
	}

	lang, ok := languageForFile(abs)
	if !ok {
		return nil, fmt.Errorf("unsupported source file %s", abs)
	}
	grammar, ok := grammarForLanguage(lang)
	if !ok {
		return nil, fmt.Errorf("no grammar for language %q", lang)
	}

	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading module: %w", err)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(b.context(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", abs, err)
	}

	mf := &moduleFile{relPath: b.relPath(abs), absPath: abs, src: src}
	mf.root = convertTree(tree.RootNode(), mf)
	tree.Close()

	// Pin before building exports: export binding loads other modules, and
	// import cycles must come back to this instance.
	b.pinned[abs] = mf
	b.cache.Add(abs, mf)

	mf.bindDeclarations()
	b.buildExports(mf)

	// Load import targets eagerly: once binding returns, the reachable
	// module graph and its package entry points are complete. Targets that
	// do not resolve are left to degrade when their aliases are followed.
	for _, spec := range mf.imports {
		_, _ = b.loadForSpecifier(mf, spec)
	}
	return mf, nil
}

// loadForSpecifier resolves and loads the module that spec denotes from
// within from.
func (b *Binder) loadForSpecifier(from *moduleFile, spec string) (*moduleFile, error) {
	abs, ok := b.resolvePath(from.dir(), spec)
	if !ok {
		return nil, fmt.Errorf("cannot resolve %q from %s", spec, from.relPath)
	}
	mf, err := b.loadFile(abs)
	if err != nil {
		return nil, err
	}
	if isBareImport(spec) && !b.externalSeen[mf] {
		b.externalSeen[mf] = true
		b.externals = append(b.externals, ExternalModule{Module: mf, Specifier: spec})
	}
	return mf, nil
}

// ExternalModules returns the modules reached through bare specifiers so far,
// in load order. Callers register these with the symbol table before
// analysis, so the exports of external packages resolve with their import
// identities.
func (b *Binder) ExternalModules() []ExternalModule {
	return b.externals
}

// isBareImport reports whether spec names a package rather than a relative or
// rooted path.
func isBareImport(spec string) bool {
	return spec != "" && !strings.HasPrefix(spec, ".") && !path.IsAbs(spec)
}

// relPath renders an absolute path project-root-relative with forward
// slashes, the form module paths take in reports and metadata lookups.
func (b *Binder) relPath(abs string) string {
	rel, err := filepath.Rel(b.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// ---- symtab.Oracle ----

var _ symtab.Oracle = (*Binder)(nil)

// bearingKinds are the node kinds that introduce a declaration the analysis
// tracks as a symbol of its own.
var bearingKinds = func() map[symtab.NodeKind]bool {
	m := map[symtab.NodeKind]bool{
		"module":              true,
		"variable_declarator": true,
	}
	for k := range declarationKinds {
		m[k] = true
	}
	for k := range memberKinds {
		m[k] = true
	}
	return m
}()

// typeReferenceKinds are the node kinds whose leading identifier names a
// referenced type or value: plain and qualified type references, generic
// heads, heritage clauses (whose targets parse as expressions), typeof
// queries, and computed member names.
var typeReferenceKinds = map[symtab.NodeKind]bool{
	"type_identifier":        true,
	"nested_type_identifier": true,
	"generic_type":           true,
	"extends_clause":         true,
	"type_query":             true,
	"computed_property_name": true,
}

func (b *Binder) IdentOf(n symtab.Node) (symtab.Ident, bool) {
	sn := n.(*syntaxNode)
	if bind, ok := sn.file.declSite[sn]; ok {
		return bind, true
	}
	if identifierLeafKinds[sn.kind] {
		if bind, ok := sn.file.resolveName(sn, sn.text()); ok {
			return bind, true
		}
	}
	return nil, false
}

func (b *Binder) AliasTarget(id symtab.Ident) symtab.Ident {
	return b.aliasTarget(id.(*binding))
}

func (b *Binder) AliasOf(id symtab.Ident) symtab.AliasInfo {
	return id.(*binding).alias
}

func (b *Binder) DeclarationsOf(id symtab.Ident) []symtab.Node {
	decls := id.(*binding).decls
	out := make([]symtab.Node, len(decls))
	for i, d := range decls {
		out[i] = d
	}
	return out
}

func (b *Binder) IsAmbient(id symtab.Ident) bool   { return id.(*binding).ambient }
func (b *Binder) IsSynthetic(id symtab.Ident) bool { return id.(*binding).synthetic }

func (b *Binder) Exports(m symtab.Module) []symtab.ModuleExport {
	return m.(*moduleFile).ownExports()
}

func (b *Binder) FlattenedExports(m symtab.Module) []symtab.ModuleExport {
	var out []symtab.ModuleExport
	b.flattenExports(m.(*moduleFile), &out, make(map[string]bool), make(map[*moduleFile]bool), 0)
	return out
}

func (b *Binder) flattenExports(mf *moduleFile, out *[]symtab.ModuleExport, seen map[string]bool, visited map[*moduleFile]bool, depth int) {
	if visited[mf] {
		return
	}
	visited[mf] = true
	for _, e := range mf.exports {
		if e.star || seen[e.name] {
			continue
		}
		// A star re-export never forwards the default export.
		if depth > 0 && e.name == "default" {
			continue
		}
		seen[e.name] = true
		*out = append(*out, symtab.ModuleExport{Name: e.name, Ident: e.b})
	}
	for _, t := range mf.starTargets {
		b.flattenExports(t, out, seen, visited, depth+1)
	}
}

func (b *Binder) ResolveSpecifier(base symtab.Module, specifier string) (symtab.Module, bool) {
	mf, err := b.loadForSpecifier(base.(*moduleFile), specifier)
	if err != nil {
		return nil, false
	}
	return mf, true
}

func (b *Binder) ChildrenOf(n symtab.Node) []symtab.Node {
	children := n.(*syntaxNode).children
	out := make([]symtab.Node, len(children))
	for i, c := range children {
		out[i] = c
	}
	return out
}

func (b *Binder) ParentOf(n symtab.Node) (symtab.Node, bool) {
	p := n.(*syntaxNode).parent
	if p == nil {
		return nil, false
	}
	return p, true
}

func (b *Binder) ModuleOf(n symtab.Node) symtab.Module {
	return n.(*syntaxNode).file
}

func (b *Binder) SpecifierOf(n symtab.Node) (string, bool) {
	sn := n.(*syntaxNode)
	if sn.kind != "export_statement" && sn.kind != "import_statement" {
		return "", false
	}
	return specifierText(sn)
}

func (b *Binder) FirstIdentifier(n symtab.Node) (symtab.Node, bool) {
	leaf, ok := leftmostIdentifier(n.(*syntaxNode))
	if !ok {
		return nil, false
	}
	return leaf, true
}

func (b *Binder) IsDeclarationBearing(k symtab.NodeKind) bool { return bearingKinds[k] }
func (b *Binder) IsTypeReference(k symtab.NodeKind) bool      { return typeReferenceKinds[k] }
func (b *Binder) IsDocComment(k symtab.NodeKind) bool         { return k == "comment" }
func (b *Binder) IsModuleLike(k symtab.NodeKind) bool         { return k == "program" }
