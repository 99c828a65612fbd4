package symtab

import "fmt"

// ImportRef identifies one export of one external package. Every local alias
// that ultimately imports the same {name, package} pair collapses onto a
// single symbol, keyed by this value.
type ImportRef struct {
	// ExportName is the name as exported by the external package.
	ExportName string
	// ModulePath is the bare import specifier that reached the package.
	ModulePath string
}

func (r ImportRef) String() string {
	return fmt.Sprintf("%s:%s", r.ModulePath, r.ExportName)
}
