// Package symtab builds a canonical, deduplicated declaration graph over the
// exported surface of a module graph. Given an entry-point module it resolves
// every exported name — following aliases, renames, and wildcard re-export
// chains — to a single canonical symbol, and on demand expands each symbol
// into its declaration tree and reference edges. Parsing and name resolution
// belong to the Oracle; the table owns only the graph and its caches.
package symtab

import (
	"fmt"
	"path"
	"strings"
)

// SymbolTable is the cache-and-resolution engine. It holds exactly four
// caches — identity to symbol, syntax node to declaration, import identity to
// symbol, and module to registry entry — all of which grow monotonically for
// the lifetime of one analysis run. A table is bound to one oracle, is not
// safe for concurrent use, and is discarded at the end of the run.
type SymbolTable struct {
	oracle   Oracle
	metadata PackageMetadata
	external func(specifier string) bool

	symbolsByIdent  map[Ident]*Symbol
	declsByNode     map[Node]*Declaration
	symbolsByImport map[ImportRef]*Symbol
	modules         map[Module]*ModuleEntry
}

// Option configures a SymbolTable.
type Option func(*SymbolTable)

// WithExternalSpecifiers overrides the predicate deciding which import
// specifiers denote external packages. The default treats every bare
// (non-relative, non-rooted) specifier as external; callers use this to keep
// bundled packages inside the local analysis.
func WithExternalSpecifiers(pred func(specifier string) bool) Option {
	return func(t *SymbolTable) {
		t.external = pred
	}
}

// NewSymbolTable creates a table bound to one oracle instance. metadata may
// be nil, in which case every package is assumed to support documentation
// metadata.
func NewSymbolTable(oracle Oracle, metadata PackageMetadata, opts ...Option) *SymbolTable {
	if metadata == nil {
		metadata = allSupported{}
	}
	t := &SymbolTable{
		oracle:          oracle,
		metadata:        metadata,
		external:        isBareSpecifier,
		symbolsByIdent:  make(map[Ident]*Symbol),
		declsByNode:     make(map[Node]*Declaration),
		symbolsByImport: make(map[ImportRef]*Symbol),
		modules:         make(map[Module]*ModuleEntry),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// isBareSpecifier reports whether specifier names a package rather than a
// relative or rooted file path.
func isBareSpecifier(specifier string) bool {
	return specifier != "" && !strings.HasPrefix(specifier, ".") && !path.IsAbs(specifier)
}

// ResolveModule returns the registry entry for m, building and memoizing it
// on first call. importSpecifier is the specifier text that reached m, or ""
// when m is the working entry point. Safe to call repeatedly and for
// overlapping module graphs; the same module always yields the same entry.
func (t *SymbolTable) ResolveModule(m Module, importSpecifier string) (*ModuleEntry, error) {
	if entry, ok := t.modules[m]; ok {
		return entry, nil
	}

	entry := newModuleEntry(m)
	if importSpecifier != "" && t.external(importSpecifier) {
		entry.externalPath = importSpecifier
	}
	// Memoize before populating so wildcard re-export cycles land on the
	// partially built entry instead of recursing forever.
	t.modules[m] = entry

	if entry.IsExternal() {
		if err := t.populateExternal(entry); err != nil {
			return nil, err
		}
		return entry, nil
	}
	if err := t.populateLocal(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// populateExternal registers the consumer-visible surface of an external
// package entry point. Each exported name becomes a symbol tagged with the
// import identity {name, package path}; the shape behind those names belongs
// to the external package and is never expanded here.
func (t *SymbolTable) populateExternal(entry *ModuleEntry) error {
	for _, exp := range t.oracle.FlattenedExports(entry.module) {
		followed := t.followAliases(exp.Ident)
		ref := &ImportRef{ExportName: exp.Name, ModulePath: entry.externalPath}
		sym, err := t.fetchSymbol(followed, true, ref)
		if err != nil {
			return err
		}
		if sym == nil {
			return fmt.Errorf("%w: export %q of package %q", ErrUnsupported, exp.Name, entry.externalPath)
		}
		entry.exportedSymbols[exp.Name] = sym
	}
	return nil
}

// populateLocal resolves a local module's own export table. The wildcard
// aggregate contributes star-exported module entries; every named export is
// resolved individually. Names whose identities the filters reject are left
// unbound — entry-point callers treat a missing declared export as fatal.
func (t *SymbolTable) populateLocal(entry *ModuleEntry) error {
	for _, exp := range t.oracle.Exports(entry.module) {
		if exp.Star {
			if err := t.collectStarTargets(entry, exp.Ident); err != nil {
				return err
			}
			continue
		}
		sym, err := t.resolveExport(exp.Name, exp.Ident)
		if err != nil {
			return err
		}
		if sym != nil {
			entry.exportedSymbols[exp.Name] = sym
		}
	}
	return nil
}

// collectStarTargets resolves the target module of every `export * from ...`
// declaration carried by the wildcard aggregate identity.
func (t *SymbolTable) collectStarTargets(entry *ModuleEntry, aggregate Ident) error {
	for _, decl := range t.oracle.DeclarationsOf(aggregate) {
		specifier, ok := t.oracle.SpecifierOf(decl)
		if !ok {
			return fmt.Errorf("%w: wildcard export in %s carries no module specifier",
				ErrInternal, entry.module.Path())
		}
		target, err := t.resolveSpecifierEntry(t.oracle.ModuleOf(decl), specifier)
		if err != nil {
			return err
		}
		entry.addStarExport(target)
	}
	return nil
}

// resolveSpecifierEntry resolves specifier against its declaring module and
// returns the memoized entry for the target. The oracle already surfaced the
// specifier once, so failure to resolve it now means the oracle and the table
// have diverged.
func (t *SymbolTable) resolveSpecifierEntry(base Module, specifier string) (*ModuleEntry, error) {
	target, ok := t.oracle.ResolveSpecifier(base, specifier)
	if !ok {
		return nil, fmt.Errorf("%w: specifier %q in %s no longer resolves",
			ErrInternal, specifier, base.Path())
	}
	return t.ResolveModule(target, specifier)
}

// resolveExport resolves one exported name bound to a raw identity:
//  1. A re-export clause resolves through the target module's export
//     surface, under the name as originally written.
//  2. A plain alias follows one step and is reconsidered.
//  3. A terminal identity (or an alias that resolves to itself) is fetched
//     as an ordinary declaration.
//
// Identities the oracle filters out yield (nil, nil).
func (t *SymbolTable) resolveExport(name string, raw Ident) (*Symbol, error) {
	current := raw
	seen := map[Ident]struct{}{current: {}}
	for {
		info := t.oracle.AliasOf(current)
		switch info.Kind {
		case AliasReexport:
			target, err := t.resolveSpecifierEntry(info.From, info.Specifier)
			if err != nil {
				return nil, err
			}
			sym, ok := t.TryGetExport(info.ExportName, target)
			if !ok {
				return nil, fmt.Errorf("%w: %q (re-exported as %q in %s) is not exported by %s",
					ErrInternal, info.ExportName, name, info.From.Path(), target.module.Path())
			}
			return sym, nil

		case AliasUnsupported:
			return nil, fmt.Errorf("%w: export declaration %q in %s",
				ErrUnsupported, info.Text, info.From.Path())

		case AliasImport:
			next := t.oracle.AliasTarget(current)
			if next == current {
				return t.fetchSymbol(current, true, nil)
			}
			if _, ok := seen[next]; ok {
				return t.fetchSymbol(current, true, nil)
			}
			seen[next] = struct{}{}
			current = next

		default:
			return t.fetchSymbol(current, true, nil)
		}
	}
}

// TryGetExport looks up name in entry's export surface: a direct hit first,
// then each wildcard-re-exported module depth-first in declaration order,
// short-circuiting on the first match. A fresh visited set bounds each
// top-level call, so cyclic wildcard graphs terminate with "not found". A
// miss is an ordinary outcome internally; only an entry point's own declared
// exports are required to resolve.
func (t *SymbolTable) TryGetExport(name string, entry *ModuleEntry) (*Symbol, bool) {
	return t.lookupExport(name, entry, make(map[*ModuleEntry]struct{}))
}

func (t *SymbolTable) lookupExport(name string, entry *ModuleEntry, visited map[*ModuleEntry]struct{}) (*Symbol, bool) {
	if _, ok := visited[entry]; ok {
		return nil, false
	}
	visited[entry] = struct{}{}

	if sym, ok := entry.exportedSymbols[name]; ok {
		return sym, true
	}
	for _, star := range entry.starExports {
		if sym, ok := t.lookupExport(name, star, visited); ok {
			return sym, true
		}
	}
	return nil, false
}

// TryGetSymbol returns the symbol already registered for id's terminal
// identity, or nil when none exists. The same filters apply as during
// resolution, so synthetic and ambient identities always yield nil.
func (t *SymbolTable) TryGetSymbol(id Ident) *Symbol {
	sym, _ := t.fetchSymbol(t.followAliases(id), false, nil)
	return sym
}

// followAliases walks id to its terminal identity one oracle step at a time,
// stopping when a step makes no progress or revisits an identity (malformed
// alias cycles terminate on whatever identity they loop through).
func (t *SymbolTable) followAliases(id Ident) Ident {
	if id == nil {
		return nil
	}
	seen := map[Ident]struct{}{id: {}}
	for {
		next := t.oracle.AliasTarget(id)
		if next == id || next == nil {
			return id
		}
		if _, ok := seen[next]; ok {
			return id
		}
		seen[next] = struct{}{}
		id = next
	}
}

// fetchSymbol returns the canonical symbol for a terminal identity:
//  1. Synthetic and ambient identities are never represented — nil, no error.
//  2. Identity cache hit returns the existing symbol.
//  3. On a miss with import context, an existing symbol for the same
//     ImportRef (reached through a different local alias) is bound to this
//     identity and reused.
//  4. Otherwise, when addIfMissing is set, a new symbol is built.
//
// Import consistency: a symbol that was first registered without import
// context can never later be claimed by an import — that is an integrity
// violation, because imported only ever transitions false to true at
// construction time.
func (t *SymbolTable) fetchSymbol(followed Ident, addIfMissing bool, ref *ImportRef) (*Symbol, error) {
	if followed == nil || t.oracle.IsSynthetic(followed) || t.oracle.IsAmbient(followed) {
		return nil, nil
	}

	sym := t.symbolsByIdent[followed]
	if sym == nil && ref != nil {
		if existing, ok := t.symbolsByImport[*ref]; ok {
			t.symbolsByIdent[followed] = existing
			sym = existing
		}
	}
	if sym == nil {
		if !addIfMissing {
			return nil, nil
		}
		var err error
		sym, err = t.buildSymbol(followed, ref)
		if err != nil {
			return nil, err
		}
	}

	if ref != nil && !sym.imported {
		return nil, fmt.Errorf("%w: symbol %q was registered without import context, later claimed by %s",
			ErrInternal, sym.localName, ref)
	}
	return sym, nil
}

// buildSymbol constructs a symbol and its declaration nodes for a terminal
// identity that passed the filters and missed every cache.
func (t *SymbolTable) buildSymbol(followed Ident, ref *ImportRef) (*Symbol, error) {
	decls := t.oracle.DeclarationsOf(followed)
	if len(decls) == 0 {
		return nil, fmt.Errorf("%w: identity %q has no declarations", ErrInternal, followed.Name())
	}
	first := decls[0]

	// A symbol is nominal — an opaque reference that analysis never expands —
	// when it stands for a whole module or namespace, or when it is imported
	// from a package that does not support documentation metadata.
	nominal := len(decls) == 1 && t.oracle.IsModuleLike(first.Kind())
	if !nominal && ref != nil && !t.metadata.SupportsDocMetadata(t.oracle.ModuleOf(first).Path()) {
		nominal = true
	}

	var parent *Symbol
	if !nominal {
		for _, d := range decls {
			if !t.oracle.IsDeclarationBearing(d.Kind()) {
				return nil, fmt.Errorf("%w: declaration kind %q of %q is not declaration-bearing",
					ErrInternal, d.Kind(), followed.Name())
			}
		}

		// Parents resolve before children, so the parent's declarations are
		// registered by the time this symbol's declarations link to them.
		if ancestor, ok := t.bearingAncestor(first); ok {
			parentIdent, ok := t.oracle.IdentOf(ancestor)
			if !ok {
				return nil, fmt.Errorf("%w: no identity for enclosing %s of %q",
					ErrInternal, ancestor.Kind(), followed.Name())
			}
			var err error
			parent, err = t.fetchSymbol(t.followAliases(parentIdent), true, nil)
			if err != nil {
				return nil, err
			}
			if parent == nil {
				return nil, fmt.Errorf("%w: enclosing declaration of %q resolves to no symbol",
					ErrInternal, followed.Name())
			}
		}
	}

	sym := &Symbol{
		localName: followed.Name(),
		ident:     followed,
		importRef: ref,
		parent:    parent,
		nominal:   nominal,
		imported:  ref != nil,
	}
	t.symbolsByIdent[followed] = sym
	if ref != nil {
		t.symbolsByImport[*ref] = sym
	}

	for _, d := range decls {
		if err := t.createDeclaration(d, sym); err != nil {
			return nil, err
		}
	}

	if nominal {
		if err := sym.markAnalyzed(); err != nil {
			return nil, err
		}
	}
	return sym, nil
}

// createDeclaration records the declaration node for sym, linked to the
// declaration previously registered for its nearest declaration-bearing
// ancestor.
func (t *SymbolTable) createDeclaration(n Node, sym *Symbol) error {
	if _, ok := t.declsByNode[n]; ok {
		return fmt.Errorf("%w: declaration already registered for %s %q", ErrInternal, n.Kind(), sym.localName)
	}

	var parentDecl *Declaration
	if !sym.nominal {
		if ancestor, ok := t.bearingAncestor(n); ok {
			parentDecl = t.declsByNode[ancestor]
			if parentDecl == nil {
				return fmt.Errorf("%w: no declaration registered for enclosing %s of %q",
					ErrInternal, ancestor.Kind(), sym.localName)
			}
		}
	}
	t.declsByNode[n] = newDeclaration(n, sym, parentDecl)
	return nil
}

// bearingAncestor walks up from n to the nearest strictly enclosing
// declaration-bearing node.
func (t *SymbolTable) bearingAncestor(n Node) (Node, bool) {
	p, ok := t.oracle.ParentOf(n)
	for ok {
		if t.oracle.IsDeclarationBearing(p.Kind()) {
			return p, true
		}
		p, ok = t.oracle.ParentOf(p)
	}
	return nil, false
}

// Analyze expands sym into its full shape: child declarations and reference
// edges for every declaration of its root family. Idempotent per symbol.
// Nominal symbols are marked analyzed with no expansion. After the walk,
// every locally declared symbol referenced anywhere in the subtree is itself
// analyzed, so a helper type that leaks into a public signature is fully
// expanded even though it was never exported ("forgotten export"). Imported
// referenced symbols are never auto-expanded; their shape belongs to their
// own package.
func (t *SymbolTable) Analyze(sym *Symbol) error {
	if sym.Analyzed() {
		return nil
	}
	if sym.nominal {
		return sym.markAnalyzed()
	}

	root := sym.Root()
	for _, d := range root.declarations {
		if err := t.walkChildren(d.node, d); err != nil {
			return err
		}
	}
	if err := root.markAnalyzed(); err != nil {
		return err
	}

	if sym.importRef != nil {
		return nil
	}
	for _, ref := range collectReferences(root) {
		if ref.imported {
			continue
		}
		if err := t.Analyze(ref); err != nil {
			return err
		}
	}
	return nil
}

// collectReferences gathers every symbol referenced anywhere in root's
// declaration tree, deduplicated, in first-recorded order.
func collectReferences(root *Symbol) []*Symbol {
	var out []*Symbol
	seen := make(map[*Symbol]struct{})
	for _, d := range root.declarations {
		d.Walk(func(dd *Declaration) {
			for _, ref := range dd.referenced {
				if _, ok := seen[ref]; ok {
					continue
				}
				seen[ref] = struct{}{}
				out = append(out, ref)
			}
		})
	}
	return out
}

// walkChildren performs the analysis walk under node. governing is the
// nearest enclosing declaration; it switches whenever a visited node
// introduces a declaration of its own, which is what grows the declaration
// tree to mirror the syntax nesting.
func (t *SymbolTable) walkChildren(node Node, governing *Declaration) error {
	for _, child := range t.oracle.ChildrenOf(node) {
		if err := t.visitNode(child, governing); err != nil {
			return err
		}
	}
	return nil
}

func (t *SymbolTable) visitNode(node Node, governing *Declaration) error {
	kind := node.Kind()
	if t.oracle.IsDocComment(kind) {
		return nil
	}

	if t.oracle.IsTypeReference(kind) {
		if err := t.recordReference(node, governing); err != nil {
			return err
		}
	}

	next := governing
	if t.oracle.IsDeclarationBearing(kind) {
		if id, ok := t.oracle.IdentOf(node); ok {
			sym, err := t.fetchSymbol(t.followAliases(id), true, nil)
			if err != nil {
				return err
			}
			if sym != nil {
				d, ok := t.declsByNode[node]
				if !ok {
					return fmt.Errorf("%w: no declaration registered for %s %q during analysis",
						ErrInternal, kind, sym.localName)
				}
				next = d
			}
		}
	}
	return t.walkChildren(node, next)
}

// recordReference resolves a type-reference-like node to a symbol (without
// import context) and records it on the governing declaration.
func (t *SymbolTable) recordReference(node Node, governing *Declaration) error {
	identNode, ok := t.oracle.FirstIdentifier(node)
	if !ok {
		return nil
	}
	id, ok := t.oracle.IdentOf(identNode)
	if !ok {
		return nil
	}
	sym, err := t.fetchSymbol(t.followAliases(id), true, nil)
	if err != nil {
		return err
	}
	if sym != nil {
		governing.addReference(sym)
	}
	return nil
}

// ChildDeclaration returns the declaration previously recorded for node as a
// child of parent. The parent's symbol must already be analyzed; a missing
// declaration or a mismatched parent means the caller's assumed tree shape
// disagrees with the constructed one.
func (t *SymbolTable) ChildDeclaration(node Node, parent *Declaration) (*Declaration, error) {
	if !parent.symbol.Analyzed() {
		return nil, fmt.Errorf("%w: symbol %q has not been analyzed", ErrInternal, parent.symbol.localName)
	}
	d, ok := t.declsByNode[node]
	if !ok {
		return nil, fmt.Errorf("%w: no declaration recorded for %s under %q",
			ErrInternal, node.Kind(), parent.symbol.localName)
	}
	if d.parent != parent {
		return nil, fmt.Errorf("%w: declaration for %s is not a child of %q",
			ErrInternal, node.Kind(), parent.symbol.localName)
	}
	return d, nil
}
