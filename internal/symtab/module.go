package symtab

import "sort"

// ModuleEntry is the registry entry for one source module: its resolved
// export table and the modules it wildcard-re-exports. Entries are created
// once per module, memoized for the lifetime of the table, and populated
// eagerly on creation; names reached only through wildcard re-exports are
// bound lazily as lookups traverse starExports.
type ModuleEntry struct {
	module       Module
	externalPath string

	exportedSymbols map[string]*Symbol
	starExports     []*ModuleEntry
	starSeen        map[*ModuleEntry]struct{}
}

func newModuleEntry(m Module) *ModuleEntry {
	return &ModuleEntry{
		module:          m,
		exportedSymbols: make(map[string]*Symbol),
	}
}

// Module returns the underlying source module handle.
func (e *ModuleEntry) Module() Module { return e.module }

// ExternalPath returns the bare import specifier this entry was reached
// through, or "" for local modules.
func (e *ModuleEntry) ExternalPath() string { return e.externalPath }

// IsExternal reports whether this entry represents an external package's
// entry point.
func (e *ModuleEntry) IsExternal() bool { return e.externalPath != "" }

// Export returns the symbol bound to name in this entry's own export table.
// It does not traverse wildcard re-exports; use SymbolTable.TryGetExport for
// the full surface.
func (e *ModuleEntry) Export(name string) (*Symbol, bool) {
	sym, ok := e.exportedSymbols[name]
	return sym, ok
}

// ExportNames returns the directly bound export names, sorted.
func (e *ModuleEntry) ExportNames() []string {
	names := make([]string, 0, len(e.exportedSymbols))
	for name := range e.exportedSymbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StarExportedModules returns the entries reached via wildcard re-export, in
// declaration order.
func (e *ModuleEntry) StarExportedModules() []*ModuleEntry {
	out := make([]*ModuleEntry, len(e.starExports))
	copy(out, e.starExports)
	return out
}

// addStarExport appends target to the ordered wildcard set, once.
func (e *ModuleEntry) addStarExport(target *ModuleEntry) {
	if e.starSeen == nil {
		e.starSeen = make(map[*ModuleEntry]struct{})
	}
	if _, ok := e.starSeen[target]; ok {
		return
	}
	e.starSeen[target] = struct{}{}
	e.starExports = append(e.starExports, target)
}
