// Package policy evaluates a user-supplied Risor script against each
// exported symbol to decide whether it stays in the report. The script sees
// one global, `export`, and its result is taken as truthy-keeps.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/risor-io/risor"
)

// Filter is one compiled-on-demand policy script.
type Filter struct {
	source string
	label  string
}

// Load reads a .risor policy script from disk.
func Load(path string) (*Filter, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: reading script: %w", err)
	}
	return &Filter{source: string(src), label: path}, nil
}

// FromSource builds a filter from inline Risor source. Useful for testing
// without script files.
func FromSource(source string) *Filter {
	return &Filter{source: source, label: "<inline>"}
}

// Export is the view of one exported symbol a policy script receives.
type Export struct {
	Name       string
	Kind       string
	Module     string
	Imported   bool
	Nominal    bool
	References int
}

// Keep evaluates the script for one export. A script error aborts the run;
// the oracle-backed pipeline upstream is deterministic, so retrying cannot
// help.
func (f *Filter) Keep(ctx context.Context, e Export) (bool, error) {
	global := map[string]any{
		"name":       e.Name,
		"kind":       e.Kind,
		"module":     e.Module,
		"imported":   e.Imported,
		"nominal":    e.Nominal,
		"references": e.References,
	}
	result, err := risor.Eval(ctx, f.source, risor.WithGlobal("export", global))
	if err != nil {
		return false, fmt.Errorf("policy: script %s: %w", f.label, err)
	}
	return result.IsTruthy(), nil
}
