// Package report renders an analyzed export surface into a deterministic
// report: one block per exported name, its declaration tree, and the symbols
// each declaration references. Every export carries a fingerprint so
// snapshots of different runs can be diffed cheaply.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jward/surface/internal/symtab"
)

// Input is one exported name paired with its resolved symbol.
type Input struct {
	Name   string
	Symbol *symtab.Symbol
}

// Report is the rendered API surface of one entry point.
type Report struct {
	Entry   string   `json:"entry"`
	Exports []Export `json:"exports"`
}

// Export is one exported name of the surface.
type Export struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Module       string `json:"module"`
	ImportedFrom string `json:"importedFrom,omitempty"`
	Nominal      bool   `json:"nominal,omitempty"`
	Fingerprint  string `json:"fingerprint"`
	Declarations []Decl `json:"declarations,omitempty"`
}

// Decl is one declaration node of an export, mirroring the analyzed tree.
type Decl struct {
	Kind       string   `json:"kind"`
	Name       string   `json:"name"`
	References []string `json:"references,omitempty"`
	Children   []Decl   `json:"children,omitempty"`
}

// Build renders exports into a report, sorted by name. moduleOf maps a
// declaration's syntax node to the path of the module declaring it.
func Build(entry string, exports []Input, moduleOf func(symtab.Node) string) *Report {
	r := &Report{Entry: entry}
	for _, in := range exports {
		r.Exports = append(r.Exports, buildExport(in, moduleOf))
	}
	sort.Slice(r.Exports, func(i, j int) bool { return r.Exports[i].Name < r.Exports[j].Name })
	for i := range r.Exports {
		r.Exports[i].Fingerprint = fingerprint(r.Exports[i])
	}
	return r
}

func buildExport(in Input, moduleOf func(symtab.Node) string) Export {
	sym := in.Symbol
	e := Export{
		Name:    in.Name,
		Nominal: sym.Nominal(),
	}
	if ref := sym.ImportRef(); ref != nil {
		e.ImportedFrom = ref.ModulePath
	}
	decls := sym.Declarations()
	if len(decls) > 0 {
		e.Kind = KindLabel(decls[0].Node().Kind())
		e.Module = moduleOf(decls[0].Node())
	}
	for _, d := range decls {
		e.Declarations = append(e.Declarations, buildDecl(d))
	}
	return e
}

func buildDecl(d *symtab.Declaration) Decl {
	out := Decl{
		Kind: string(d.Node().Kind()),
		Name: d.Symbol().LocalName(),
	}
	for _, ref := range d.ReferencedSymbols() {
		out.References = append(out.References, refLabel(ref))
	}
	for _, c := range d.Children() {
		out.Children = append(out.Children, buildDecl(c))
	}
	return out
}

// refLabel names a referenced symbol: the bare local name for local
// declarations, "package:name" for imported ones.
func refLabel(sym *symtab.Symbol) string {
	if ref := sym.ImportRef(); ref != nil {
		return ref.String()
	}
	return sym.LocalName()
}

// KindLabel maps a grammar declaration kind to the label reports use.
var kindLabels = map[symtab.NodeKind]string{
	"class_declaration":              "class",
	"abstract_class_declaration":     "class",
	"interface_declaration":          "interface",
	"enum_declaration":               "enum",
	"function_declaration":           "function",
	"generator_function_declaration": "function",
	"type_alias_declaration":         "type",
	"variable_declarator":            "variable",
	"internal_module":                "namespace",
	"module":                         "namespace",
	"program":                        "module",
	"method_definition":              "method",
	"method_signature":               "method",
	"abstract_method_signature":      "method",
	"public_field_definition":        "property",
	"property_signature":             "property",
	"enum_assignment":                "member",
}

func KindLabel(k symtab.NodeKind) string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return string(k)
}

// fingerprint hashes an export's rendered block (without the fingerprint
// itself) and keeps the first 8 bytes as hex, the unit of change detection
// across snapshots.
func fingerprint(e Export) string {
	var sb strings.Builder
	e.Fingerprint = ""
	writeExportText(&sb, e, false)
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:8])
}

// Text renders the report in the stable line-oriented format written to
// surface report files.
func (r *Report) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "surface report for %s\n", r.Entry)
	fmt.Fprintf(&sb, "%d exports\n\n", len(r.Exports))
	for _, e := range r.Exports {
		writeExportText(&sb, e, true)
	}
	return sb.String()
}

func writeExportText(sb *strings.Builder, e Export, withFingerprint bool) {
	fmt.Fprintf(sb, "export %s (%s) %s", e.Name, e.Kind, e.Module)
	if e.ImportedFrom != "" {
		fmt.Fprintf(sb, " imported:%s", e.ImportedFrom)
	}
	if e.Nominal {
		sb.WriteString(" nominal")
	}
	if withFingerprint {
		fmt.Fprintf(sb, " %s", e.Fingerprint)
	}
	sb.WriteByte('\n')
	for _, d := range e.Declarations {
		writeDeclText(sb, d, 1)
	}
}

func writeDeclText(sb *strings.Builder, d Decl, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s%s %s\n", indent, d.Kind, d.Name)
	if len(d.References) > 0 {
		fmt.Fprintf(sb, "%s  refs: %s\n", indent, strings.Join(d.References, ", "))
	}
	for _, c := range d.Children {
		writeDeclText(sb, c, depth+1)
	}
}

// JSON renders the report as indented JSON, the CLI's machine format.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Fingerprints returns the name-to-fingerprint map used for diffing.
func (r *Report) Fingerprints() map[string]string {
	out := make(map[string]string, len(r.Exports))
	for _, e := range r.Exports {
		out[e.Name] = e.Fingerprint
	}
	return out
}
