package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/surface/internal/symtab"
)

// A miniature oracle: one module, top-level declarations with optional
// members and type references, enough to drive the table into producing real
// symbols for rendering.

type miniIdent struct {
	name  string
	decls []*miniNode
}

func (i *miniIdent) Name() string { return i.name }

type miniNode struct {
	kind     symtab.NodeKind
	parent   *miniNode
	children []*miniNode
	ident    *miniIdent
	firstID  *miniNode
}

func (n *miniNode) Kind() symtab.NodeKind { return n.kind }

type miniModule struct {
	path    string
	root    *miniNode
	exports []symtab.ModuleExport
}

func (m *miniModule) Path() string { return m.path }

type miniOracle struct{ mod *miniModule }

func newMiniOracle() *miniOracle {
	mod := &miniModule{path: "src/api.ts"}
	mod.root = &miniNode{kind: "program"}
	return &miniOracle{mod: mod}
}

func (o *miniOracle) declare(kind symtab.NodeKind, name string) *miniIdent {
	n := &miniNode{kind: kind, parent: o.mod.root}
	o.mod.root.children = append(o.mod.root.children, n)
	id := &miniIdent{name: name, decls: []*miniNode{n}}
	n.ident = id
	o.mod.exports = append(o.mod.exports, symtab.ModuleExport{Name: name, Ident: id})
	return id
}

func (o *miniOracle) member(parent *miniIdent, kind symtab.NodeKind, name string) *miniIdent {
	p := parent.decls[0]
	n := &miniNode{kind: kind, parent: p}
	p.children = append(p.children, n)
	id := &miniIdent{name: name, decls: []*miniNode{n}}
	n.ident = id
	return id
}

func (o *miniOracle) typeRef(on *miniIdent, target *miniIdent) {
	p := on.decls[0]
	ref := &miniNode{kind: "type_reference", parent: p}
	leaf := &miniNode{kind: "type_identifier", parent: ref, ident: target}
	ref.children = append(ref.children, leaf)
	ref.firstID = leaf
	p.children = append(p.children, ref)
}

func (o *miniOracle) IdentOf(n symtab.Node) (symtab.Ident, bool) {
	mn := n.(*miniNode)
	if mn.ident == nil {
		return nil, false
	}
	return mn.ident, true
}

func (o *miniOracle) AliasTarget(id symtab.Ident) symtab.Ident      { return id }
func (o *miniOracle) AliasOf(symtab.Ident) symtab.AliasInfo         { return symtab.AliasInfo{} }
func (o *miniOracle) IsAmbient(symtab.Ident) bool                   { return false }
func (o *miniOracle) IsSynthetic(symtab.Ident) bool                 { return false }
func (o *miniOracle) Exports(symtab.Module) []symtab.ModuleExport   { return o.mod.exports }
func (o *miniOracle) FlattenedExports(m symtab.Module) []symtab.ModuleExport {
	return o.Exports(m)
}

func (o *miniOracle) DeclarationsOf(id symtab.Ident) []symtab.Node {
	decls := id.(*miniIdent).decls
	out := make([]symtab.Node, len(decls))
	for i, d := range decls {
		out[i] = d
	}
	return out
}

func (o *miniOracle) ResolveSpecifier(symtab.Module, string) (symtab.Module, bool) {
	return nil, false
}

func (o *miniOracle) ChildrenOf(n symtab.Node) []symtab.Node {
	children := n.(*miniNode).children
	out := make([]symtab.Node, len(children))
	for i, c := range children {
		out[i] = c
	}
	return out
}

func (o *miniOracle) ParentOf(n symtab.Node) (symtab.Node, bool) {
	p := n.(*miniNode).parent
	if p == nil {
		return nil, false
	}
	return p, true
}

func (o *miniOracle) ModuleOf(symtab.Node) symtab.Module { return o.mod }

func (o *miniOracle) SpecifierOf(symtab.Node) (string, bool) { return "", false }

func (o *miniOracle) FirstIdentifier(n symtab.Node) (symtab.Node, bool) {
	f := n.(*miniNode).firstID
	if f == nil {
		return nil, false
	}
	return f, true
}

func (o *miniOracle) IsDeclarationBearing(k symtab.NodeKind) bool {
	switch k {
	case "class_declaration", "interface_declaration", "property_signature", "method_definition":
		return true
	}
	return false
}

func (o *miniOracle) IsTypeReference(k symtab.NodeKind) bool { return k == "type_reference" }
func (o *miniOracle) IsDocComment(k symtab.NodeKind) bool    { return k == "comment" }
func (o *miniOracle) IsModuleLike(k symtab.NodeKind) bool    { return k == "program" }

// buildSurface resolves and analyzes the fake module, returning report inputs
// sorted the way the engine hands them over.
func buildSurface(t *testing.T, o *miniOracle) []Input {
	t.Helper()
	table := symtab.NewSymbolTable(o, nil)
	entry, err := table.ResolveModule(o.mod, "")
	require.NoError(t, err)

	var inputs []Input
	for _, name := range entry.ExportNames() {
		sym, ok := entry.Export(name)
		require.True(t, ok)
		require.NoError(t, table.Analyze(sym))
		inputs = append(inputs, Input{Name: name, Symbol: sym})
	}
	return inputs
}

func moduleOf(o *miniOracle) func(symtab.Node) string {
	return func(n symtab.Node) string { return o.ModuleOf(n).Path() }
}

func TestBuildSortsAndLabels(t *testing.T) {
	t.Parallel()
	o := newMiniOracle()
	widget := o.declare("class_declaration", "Widget")
	size := o.declare("interface_declaration", "Size")
	o.member(widget, "property_signature", "area")
	o.typeRef(widget, size)

	rep := Build("src/api.ts", buildSurface(t, o), moduleOf(o))

	require.Len(t, rep.Exports, 2)
	assert.Equal(t, "Size", rep.Exports[0].Name)
	assert.Equal(t, "Widget", rep.Exports[1].Name)
	assert.Equal(t, "interface", rep.Exports[0].Kind)
	assert.Equal(t, "class", rep.Exports[1].Kind)
	assert.Equal(t, "src/api.ts", rep.Exports[1].Module)

	w := rep.Exports[1]
	require.Len(t, w.Declarations, 1)
	assert.Equal(t, "class_declaration", w.Declarations[0].Kind)
	assert.Equal(t, []string{"Size"}, w.Declarations[0].References)
	require.Len(t, w.Declarations[0].Children, 1)
	assert.Equal(t, "area", w.Declarations[0].Children[0].Name)
}

func TestFingerprintsStableAndDistinct(t *testing.T) {
	t.Parallel()
	o := newMiniOracle()
	o.declare("class_declaration", "Widget")
	o.declare("interface_declaration", "Size")

	inputs := buildSurface(t, o)
	first := Build("src/api.ts", inputs, moduleOf(o))
	second := Build("src/api.ts", inputs, moduleOf(o))

	assert.Equal(t, first.Fingerprints(), second.Fingerprints())
	assert.Len(t, first.Exports[0].Fingerprint, 16)
	assert.NotEqual(t, first.Exports[0].Fingerprint, first.Exports[1].Fingerprint)
}

func TestTextRendering(t *testing.T) {
	t.Parallel()
	o := newMiniOracle()
	widget := o.declare("class_declaration", "Widget")
	o.member(widget, "method_definition", "render")

	rep := Build("src/api.ts", buildSurface(t, o), moduleOf(o))
	text := rep.Text()

	assert.Contains(t, text, "surface report for src/api.ts")
	assert.Contains(t, text, "1 exports")
	assert.Contains(t, text, "export Widget (class) src/api.ts")
	assert.Contains(t, text, "  class_declaration Widget\n")
	assert.Contains(t, text, "    method_definition render\n")
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()
	o := newMiniOracle()
	o.declare("function_declaration", "compute")

	rep := Build("src/api.ts", buildSurface(t, o), moduleOf(o))
	data, err := rep.JSON()
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rep.Entry, decoded.Entry)
	require.Len(t, decoded.Exports, 1)
	assert.Equal(t, "compute", decoded.Exports[0].Name)
}

func TestDiffFingerprints(t *testing.T) {
	t.Parallel()
	prev := map[string]string{"A": "1", "B": "2", "C": "3"}
	cur := map[string]string{"A": "1", "B": "9", "D": "4"}

	d := DiffFingerprints(prev, cur)

	assert.Equal(t, []string{"D"}, d.Added)
	assert.Equal(t, []string{"C"}, d.Removed)
	assert.Equal(t, []string{"B"}, d.Changed)
	assert.True(t, d.Breaking())
	assert.False(t, d.Empty())
}

func TestDiffAdditionsAreCompatible(t *testing.T) {
	t.Parallel()
	d := DiffFingerprints(map[string]string{"A": "1"}, map[string]string{"A": "1", "B": "2"})

	assert.False(t, d.Breaking())
	assert.Equal(t, "+ B\n", d.Text())
}

func TestDiffEmpty(t *testing.T) {
	t.Parallel()
	d := DiffFingerprints(map[string]string{"A": "1"}, map[string]string{"A": "1"})

	assert.True(t, d.Empty())
	assert.False(t, d.Breaking())
	assert.Equal(t, "no changes\n", d.Text())
}
