package surface

import (
	"github.com/jward/surface/internal/report"
	"github.com/jward/surface/internal/symtab"
)

// Public type aliases for internal types reachable through the Engine API.
// These are Go type aliases (=) — identical to the internal types at compile
// time. External consumers use these names; no conversion is needed.

type Symbol = symtab.Symbol
type Declaration = symtab.Declaration
type ModuleEntry = symtab.ModuleEntry
type ImportRef = symtab.ImportRef
type SymbolTable = symtab.SymbolTable
type Module = symtab.Module
type Node = symtab.Node

type Report = report.Report
type Export = report.Export
type Decl = report.Decl
type Diff = report.Diff

// The two failure classes of the analysis core, for errors.Is checks.
var (
	ErrUnsupported = symtab.ErrUnsupported
	ErrInternal    = symtab.ErrInternal
)
