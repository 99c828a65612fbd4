package symtab

// The table does not parse source text or resolve names itself. Everything it
// knows about the program under analysis comes through the Oracle, which it
// treats as ground truth and never second-guesses. All oracle methods are
// queries; the table never mutates oracle state.

// Ident is an opaque handle to the oracle's notion of a declared name, after
// merging declarations that co-declare one name. Implementations must be
// comparable; the table uses Ident values as map keys.
type Ident interface {
	// Name returns the name as declared, for messages and reports.
	Name() string
}

// Node is an opaque handle to one syntax node. Implementations must be
// comparable; the table uses Node values as map keys.
type Node interface {
	Kind() NodeKind
}

// Module is an opaque handle to one source module. Implementations must be
// comparable; the table uses Module values as map keys.
type Module interface {
	// Path returns a file-identifying path for the module.
	Path() string
}

// NodeKind names a syntax node's grammatical kind. The tree-sitter binder
// uses grammar node type strings directly.
type NodeKind string

// AliasKind classifies how an alias identity was introduced.
type AliasKind int

const (
	// AliasNone marks a terminal identity (not an alias).
	AliasNone AliasKind = iota
	// AliasImport marks an alias introduced by a plain import or a local
	// export clause; it is followed one step at a time.
	AliasImport
	// AliasReexport marks an alias introduced by a named re-export clause
	// (`export { X } from "..."`), which resolves through the target
	// module's export surface rather than through alias steps.
	AliasReexport
	// AliasUnsupported marks an export-declaration form the analyzer does
	// not handle (for example `export * as ns from "..."`).
	AliasUnsupported
)

// AliasInfo describes the clause that introduced an alias identity.
// For AliasReexport, ExportName is the name as written on the clause — the
// original name when the clause renames (`propertyName as name`) — Specifier
// is the clause's module specifier, and From is the module declaring the
// clause (the resolution base). For AliasUnsupported, Text carries the
// offending source text and From the declaring module.
type AliasInfo struct {
	Kind       AliasKind
	ExportName string
	Specifier  string
	From       Module
	Text       string
}

// ModuleExport is one entry of a module's export surface. When Star is set,
// the entry is the single aggregate standing in for every `export * from ...`
// declaration of the module; its Ident's declarations are those statements.
type ModuleExport struct {
	Name  string
	Ident Ident
	Star  bool
}

// Oracle is the type-resolution service the table consumes.
type Oracle interface {
	// IdentOf returns the identity a node declares or references.
	IdentOf(n Node) (Ident, bool)

	// AliasTarget follows one alias step, returning id itself when id is
	// terminal or the target cannot be determined.
	AliasTarget(id Ident) Ident

	// AliasOf classifies how id was introduced. Terminal identities report
	// AliasNone.
	AliasOf(id Ident) AliasInfo

	// DeclarationsOf returns every merged declaration of id in source order.
	DeclarationsOf(id Ident) []Node

	// IsAmbient reports whether id is declared without a defining body
	// (global or foreign declarations). Ambient identities are never
	// represented in the graph.
	IsAmbient(id Ident) bool

	// IsSynthetic reports whether id is a type parameter, an anonymous
	// structural type, or a compiler-synthesized construct. Synthetic
	// identities are never represented in the graph.
	IsSynthetic(id Ident) bool

	// Exports returns m's own export table in source order, with one Star
	// aggregate entry when the module has wildcard re-exports.
	Exports(m Module) []ModuleExport

	// FlattenedExports returns the export surface an importing consumer
	// sees: wildcard chains expanded first-wins, cycle-safe, no aggregate
	// entries. The table uses this view for external entry points only.
	FlattenedExports(m Module) []ModuleExport

	// ResolveSpecifier resolves an import/export specifier against the
	// module that declares it.
	ResolveSpecifier(base Module, specifier string) (Module, bool)

	// ChildrenOf returns n's child nodes in source order.
	ChildrenOf(n Node) []Node

	// ParentOf returns n's enclosing node, if any.
	ParentOf(n Node) (Node, bool)

	// ModuleOf returns the module declaring n.
	ModuleOf(n Node) Module

	// SpecifierOf returns the module specifier attached to a declaration,
	// such as the source string of an export-from statement.
	SpecifierOf(n Node) (string, bool)

	// FirstIdentifier returns the leading identifier inside a
	// type-reference-like node (the `A` of `A.B.C<T>`).
	FirstIdentifier(n Node) (Node, bool)

	// IsDeclarationBearing reports whether nodes of kind k introduce a
	// declaration the graph represents.
	IsDeclarationBearing(k NodeKind) bool

	// IsTypeReference reports whether kind k is a type-reference-like
	// construct: a type reference, an extends/implements-style
	// type-argument expression, or a computed member name.
	IsTypeReference(k NodeKind) bool

	// IsDocComment reports whether kind k begins a documentation-comment
	// subtree, which analysis skips entirely.
	IsDocComment(k NodeKind) bool

	// IsModuleLike reports whether kind k is a whole-module or namespace
	// placeholder declaration.
	IsModuleLike(k NodeKind) bool
}

// PackageMetadata reports whether the package that owns a given file declares
// support for the documentation-metadata convention. Symbols imported from
// packages without it are kept nominal: opaque references, never expanded.
type PackageMetadata interface {
	SupportsDocMetadata(path string) bool
}

// allSupported is the default PackageMetadata when none is supplied.
type allSupported struct{}

func (allSupported) SupportsDocMetadata(string) bool { return true }
