package symtab

// A hand-scripted Oracle for exercising the table without a real parser.
// Tests assemble modules, declarations, and alias edges with the builder
// helpers below; node kinds reuse the grammar names the binder emits so the
// scenarios read like real source trees.

type fakeIdent struct {
	name      string
	decls     []*fakeNode
	alias     AliasInfo
	target    *fakeIdent
	ambient   bool
	synthetic bool
}

func (f *fakeIdent) Name() string { return f.name }

type fakeNode struct {
	kind     NodeKind
	parent   *fakeNode
	children []*fakeNode
	module   *fakeModule
	spec     string
	ident    *fakeIdent
	firstID  *fakeNode
}

func (f *fakeNode) Kind() NodeKind { return f.kind }

type fakeModule struct {
	path      string
	root      *fakeNode
	exports   []ModuleExport
	flattened []ModuleExport
	aggregate *fakeIdent
}

func (m *fakeModule) Path() string { return m.path }

type fakeOracle struct {
	specifiers map[string]*fakeModule
	bearing    map[NodeKind]bool
	typeRefs   map[NodeKind]bool
	docs       map[NodeKind]bool
	moduleLike map[NodeKind]bool
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		specifiers: make(map[string]*fakeModule),
		bearing: map[NodeKind]bool{
			"class_declaration":      true,
			"interface_declaration":  true,
			"function_declaration":   true,
			"type_alias_declaration": true,
			"method_definition":      true,
			"property_signature":     true,
			"variable_declarator":    true,
			"internal_module":        true,
		},
		typeRefs:   map[NodeKind]bool{"type_reference": true},
		docs:       map[NodeKind]bool{"comment": true},
		moduleLike: map[NodeKind]bool{"program": true},
	}
}

// ---- builders ----

func (o *fakeOracle) newModule(path string) *fakeModule {
	m := &fakeModule{path: path}
	m.root = &fakeNode{kind: "program", module: m}
	return m
}

// declare adds a top-level declaration of the given kind to m and returns its
// identity.
func (o *fakeOracle) declare(m *fakeModule, kind NodeKind, name string) *fakeIdent {
	n := &fakeNode{kind: kind, parent: m.root, module: m}
	m.root.children = append(m.root.children, n)
	id := &fakeIdent{name: name, decls: []*fakeNode{n}}
	n.ident = id
	return id
}

// mergeDeclaration adds another top-level declaration site to an existing
// identity (declaration merging).
func (o *fakeOracle) mergeDeclaration(m *fakeModule, id *fakeIdent, kind NodeKind) *fakeNode {
	n := &fakeNode{kind: kind, parent: m.root, module: m, ident: id}
	m.root.children = append(m.root.children, n)
	id.decls = append(id.decls, n)
	return n
}

// child nests a declaration of the given kind under parent and returns its
// identity.
func (o *fakeOracle) child(parent *fakeNode, kind NodeKind, name string) *fakeIdent {
	n := &fakeNode{kind: kind, parent: parent, module: parent.module}
	parent.children = append(parent.children, n)
	id := &fakeIdent{name: name, decls: []*fakeNode{n}}
	n.ident = id
	return id
}

// typeRef hangs a type-reference node under parent whose leading identifier
// resolves to target.
func (o *fakeOracle) typeRef(parent *fakeNode, target *fakeIdent) *fakeNode {
	ref := &fakeNode{kind: "type_reference", parent: parent, module: parent.module}
	identifier := &fakeNode{kind: "type_identifier", parent: ref, module: parent.module, ident: target}
	ref.children = append(ref.children, identifier)
	ref.firstID = identifier
	parent.children = append(parent.children, ref)
	return ref
}

// docComment hangs a documentation-comment subtree under parent; anything
// inside it must be ignored by analysis.
func (o *fakeOracle) docComment(parent *fakeNode, target *fakeIdent) *fakeNode {
	c := &fakeNode{kind: "comment", parent: parent, module: parent.module}
	parent.children = append(parent.children, c)
	if target != nil {
		o.typeRef(c, target)
	}
	return c
}

func (o *fakeOracle) export(m *fakeModule, name string, id *fakeIdent) {
	m.exports = append(m.exports, ModuleExport{Name: name, Ident: id})
}

// exportStar records an `export * from specifier` declaration on m, creating
// the single aggregate export entry on first use.
func (o *fakeOracle) exportStar(m *fakeModule, specifier string) {
	n := &fakeNode{kind: "export_statement", parent: m.root, module: m, spec: specifier}
	m.root.children = append(m.root.children, n)
	if m.aggregate == nil {
		m.aggregate = &fakeIdent{name: "*"}
		m.exports = append(m.exports, ModuleExport{Name: "*", Ident: m.aggregate, Star: true})
	}
	m.aggregate.decls = append(m.aggregate.decls, n)
}

// importAlias returns an identity that aliases target through a plain import.
func (o *fakeOracle) importAlias(name string, target *fakeIdent) *fakeIdent {
	return &fakeIdent{
		name:   name,
		alias:  AliasInfo{Kind: AliasImport},
		target: target,
	}
}

// reexport returns an identity introduced by `export { exportName } from
// specifier` declared in from.
func (o *fakeOracle) reexport(from *fakeModule, exportName, specifier string) *fakeIdent {
	return &fakeIdent{
		name: exportName,
		alias: AliasInfo{
			Kind:       AliasReexport,
			ExportName: exportName,
			Specifier:  specifier,
			From:       from,
		},
	}
}

// unsupportedExport returns an identity introduced by an export form the
// analyzer rejects.
func (o *fakeOracle) unsupportedExport(from *fakeModule, text string) *fakeIdent {
	return &fakeIdent{
		name:  text,
		alias: AliasInfo{Kind: AliasUnsupported, From: from, Text: text},
	}
}

func (o *fakeOracle) linkSpecifier(specifier string, target *fakeModule) {
	o.specifiers[specifier] = target
}

// ---- Oracle implementation ----

func (o *fakeOracle) IdentOf(n Node) (Ident, bool) {
	fn := n.(*fakeNode)
	if fn.ident == nil {
		return nil, false
	}
	return fn.ident, true
}

func (o *fakeOracle) AliasTarget(id Ident) Ident {
	f := id.(*fakeIdent)
	if f.target == nil {
		return id
	}
	return f.target
}

func (o *fakeOracle) AliasOf(id Ident) AliasInfo {
	return id.(*fakeIdent).alias
}

func (o *fakeOracle) DeclarationsOf(id Ident) []Node {
	f := id.(*fakeIdent)
	out := make([]Node, len(f.decls))
	for i, d := range f.decls {
		out[i] = d
	}
	return out
}

func (o *fakeOracle) IsAmbient(id Ident) bool   { return id.(*fakeIdent).ambient }
func (o *fakeOracle) IsSynthetic(id Ident) bool { return id.(*fakeIdent).synthetic }

func (o *fakeOracle) Exports(m Module) []ModuleExport {
	return m.(*fakeModule).exports
}

func (o *fakeOracle) FlattenedExports(m Module) []ModuleExport {
	fm := m.(*fakeModule)
	if fm.flattened != nil {
		return fm.flattened
	}
	var out []ModuleExport
	for _, exp := range fm.exports {
		if !exp.Star {
			out = append(out, exp)
		}
	}
	return out
}

func (o *fakeOracle) ResolveSpecifier(base Module, specifier string) (Module, bool) {
	m, ok := o.specifiers[specifier]
	if !ok {
		return nil, false
	}
	return m, true
}

func (o *fakeOracle) ChildrenOf(n Node) []Node {
	fn := n.(*fakeNode)
	out := make([]Node, len(fn.children))
	for i, c := range fn.children {
		out[i] = c
	}
	return out
}

func (o *fakeOracle) ParentOf(n Node) (Node, bool) {
	fn := n.(*fakeNode)
	if fn.parent == nil {
		return nil, false
	}
	return fn.parent, true
}

func (o *fakeOracle) ModuleOf(n Node) Module {
	return n.(*fakeNode).module
}

func (o *fakeOracle) SpecifierOf(n Node) (string, bool) {
	fn := n.(*fakeNode)
	if fn.spec == "" {
		return "", false
	}
	return fn.spec, true
}

func (o *fakeOracle) FirstIdentifier(n Node) (Node, bool) {
	fn := n.(*fakeNode)
	if fn.firstID == nil {
		return nil, false
	}
	return fn.firstID, true
}

func (o *fakeOracle) IsDeclarationBearing(k NodeKind) bool { return o.bearing[k] }
func (o *fakeOracle) IsTypeReference(k NodeKind) bool      { return o.typeRefs[k] }
func (o *fakeOracle) IsDocComment(k NodeKind) bool         { return o.docs[k] }
func (o *fakeOracle) IsModuleLike(k NodeKind) bool         { return o.moduleLike[k] }

// fakeMetadata maps file paths to doc-metadata support; unlisted paths
// default to supported.
type fakeMetadata map[string]bool

func (m fakeMetadata) SupportsDocMetadata(path string) bool {
	if v, ok := m[path]; ok {
		return v
	}
	return true
}
