package surface

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/jward/surface/internal/binder"
	"github.com/jward/surface/internal/metadata"
	"github.com/jward/surface/internal/policy"
	"github.com/jward/surface/internal/report"
	"github.com/jward/surface/internal/store"
	"github.com/jward/surface/internal/symtab"
)

// Engine orchestrates the surface pipeline: binding the entry module graph,
// resolving and analyzing the export surface, policy filtering, report
// rendering, and snapshot persistence.
type Engine struct {
	root string

	binder *binder.Binder
	table  *symtab.SymbolTable
	store  *store.Store
	filter *policy.Filter

	// option state, consumed by New while wiring.
	dbPath     string
	bundled    []string
	policyPath string
	metadata   symtab.PackageMetadata
}

// Option configures an Engine.
type Option func(*Engine)

// WithDB enables snapshot persistence at the given SQLite path. Relative
// paths are anchored at the project root.
func WithDB(path string) Option {
	return func(e *Engine) {
		e.dbPath = path
	}
}

// WithBundledPackages marks bare import specifiers matching any of the glob
// patterns as part of the local project: their declarations are analyzed in
// full instead of being treated as external imports.
func WithBundledPackages(patterns ...string) Option {
	return func(e *Engine) {
		e.bundled = append(e.bundled, patterns...)
	}
}

// WithPolicyScript applies a Risor filter script to the report.
func WithPolicyScript(path string) Option {
	return func(e *Engine) {
		e.policyPath = path
	}
}

// WithMetadataChecker overrides the package-metadata collaborator. The
// default walks package.json manifests under the project root.
func WithMetadataChecker(m symtab.PackageMetadata) Option {
	return func(e *Engine) {
		e.metadata = m
	}
}

// New creates an Engine for the project at projectRoot.
func New(projectRoot string, opts ...Option) (*Engine, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	e := &Engine{root: abs}
	for _, opt := range opts {
		opt(e)
	}

	e.binder, err = binder.NewBinder(abs)
	if err != nil {
		return nil, err
	}

	meta := e.metadata
	if meta == nil {
		meta = metadata.NewChecker(abs)
	}

	var tableOpts []symtab.Option
	if len(e.bundled) > 0 {
		pred, err := externalPredicate(e.bundled)
		if err != nil {
			return nil, err
		}
		tableOpts = append(tableOpts, symtab.WithExternalSpecifiers(pred))
	}
	e.table = symtab.NewSymbolTable(e.binder, meta, tableOpts...)

	if e.dbPath != "" {
		dbPath := e.dbPath
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(abs, dbPath)
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating snapshot directory: %w", err)
		}
		e.store, err = store.NewStore(dbPath)
		if err != nil {
			return nil, err
		}
		if err := e.store.Migrate(); err != nil {
			e.store.Close()
			return nil, err
		}
	}

	if e.policyPath != "" {
		scriptPath := e.policyPath
		if !filepath.IsAbs(scriptPath) {
			scriptPath = filepath.Join(abs, scriptPath)
		}
		e.filter, err = policy.Load(scriptPath)
		if err != nil {
			if e.store != nil {
				e.store.Close()
			}
			return nil, err
		}
	}
	return e, nil
}

// externalPredicate builds the externality test: bare specifiers are
// external unless they match a bundled pattern.
func externalPredicate(patterns []string) (func(string) bool, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("bundled package pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return func(specifier string) bool {
		if specifier == "" || strings.HasPrefix(specifier, ".") || path.IsAbs(specifier) {
			return false
		}
		for _, g := range globs {
			if g.Match(specifier) {
				return false
			}
		}
		return true
	}, nil
}

// Close releases the snapshot store, if one is configured.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Table exposes the symbol table for callers that need direct graph access.
func (e *Engine) Table() *symtab.SymbolTable {
	return e.table
}

// Surface is the resolved, analyzed export surface of one entry point.
type Surface struct {
	// EntryPath is the entry module's project-root-relative path.
	EntryPath string
	// Entry is the entry module's registry entry.
	Entry *symtab.ModuleEntry
	// Exports pairs each exported name with its canonical symbol, sorted by
	// name.
	Exports []ExportedSymbol
}

// ExportedSymbol is one name of an analyzed surface.
type ExportedSymbol struct {
	Name   string
	Symbol *symtab.Symbol
}

// AnalyzeEntryPoint binds entryFile, resolves its full export surface, and
// deep-analyzes every export. External packages reached through bare imports
// are registered first so their exports carry import identities and are
// never expanded beyond a reference. An entry-point export that cannot be
// resolved is fatal.
func (e *Engine) AnalyzeEntryPoint(ctx context.Context, entryFile string) (*Surface, error) {
	mod, err := e.binder.Bind(ctx, entryFile)
	if err != nil {
		return nil, err
	}

	for _, ext := range e.binder.ExternalModules() {
		if _, err := e.table.ResolveModule(ext.Module, ext.Specifier); err != nil {
			return nil, err
		}
	}

	entry, err := e.table.ResolveModule(mod, "")
	if err != nil {
		return nil, err
	}

	var exports []ExportedSymbol
	for _, exp := range e.binder.FlattenedExports(mod) {
		sym, ok := e.table.TryGetExport(exp.Name, entry)
		if !ok {
			return nil, fmt.Errorf("%w: entry point export %q of %s cannot be resolved",
				symtab.ErrUnsupported, exp.Name, mod.Path())
		}
		if err := e.table.Analyze(sym); err != nil {
			return nil, err
		}
		exports = append(exports, ExportedSymbol{Name: exp.Name, Symbol: sym})
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].Name < exports[j].Name })

	return &Surface{EntryPath: mod.Path(), Entry: entry, Exports: exports}, nil
}

// Report renders surf after policy filtering.
func (e *Engine) Report(ctx context.Context, surf *Surface) (*report.Report, error) {
	inputs := make([]report.Input, 0, len(surf.Exports))
	for _, exp := range surf.Exports {
		if e.filter != nil {
			keep, err := e.filter.Keep(ctx, policyView(e, exp))
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}
		inputs = append(inputs, report.Input{Name: exp.Name, Symbol: exp.Symbol})
	}
	rep := report.Build(surf.EntryPath, inputs, func(n symtab.Node) string {
		return e.binder.ModuleOf(n).Path()
	})
	return rep, nil
}

// policyView projects one export into the map a policy script receives.
func policyView(e *Engine, exp ExportedSymbol) policy.Export {
	view := policy.Export{
		Name:       exp.Name,
		Imported:   exp.Symbol.Imported(),
		Nominal:    exp.Symbol.Nominal(),
		References: countReferences(exp.Symbol),
	}
	if decls := exp.Symbol.Declarations(); len(decls) > 0 {
		view.Kind = report.KindLabel(decls[0].Node().Kind())
		view.Module = e.binder.ModuleOf(decls[0].Node()).Path()
	}
	return view
}

func countReferences(sym *symtab.Symbol) int {
	total := 0
	for _, d := range sym.Declarations() {
		d.Walk(func(dd *symtab.Declaration) {
			total += len(dd.ReferencedSymbols())
		})
	}
	return total
}

// Snapshot records rep as a run in the snapshot store, returning the run ID.
func (e *Engine) Snapshot(surf *Surface, rep *report.Report) (int64, error) {
	if e.store == nil {
		return 0, fmt.Errorf("no snapshot database configured")
	}
	rows := make([]store.ExportRow, len(rep.Exports))
	for i, exp := range rep.Exports {
		rows[i] = store.ExportRow{
			Name:         exp.Name,
			Kind:         exp.Kind,
			ModulePath:   exp.Module,
			ExternalPath: exp.ImportedFrom,
			Imported:     exp.ImportedFrom != "",
			Nominal:      exp.Nominal,
			Fingerprint:  exp.Fingerprint,
		}
	}
	return e.store.RecordRun(surf.EntryPath, rows)
}

// Diff renders surf and compares it to the latest recorded run for the same
// entry point. With no prior run, every export reports as added.
func (e *Engine) Diff(ctx context.Context, surf *Surface) (report.Diff, error) {
	if e.store == nil {
		return report.Diff{}, fmt.Errorf("no snapshot database configured")
	}
	rep, err := e.Report(ctx, surf)
	if err != nil {
		return report.Diff{}, err
	}

	prev := make(map[string]string)
	run, err := e.store.LatestRun(surf.EntryPath)
	if err != nil {
		return report.Diff{}, err
	}
	if run != nil {
		rows, err := e.store.RunExports(run.ID)
		if err != nil {
			return report.Diff{}, err
		}
		for _, row := range rows {
			prev[row.Name] = row.Fingerprint
		}
	}
	return report.DiffFingerprints(prev, rep.Fingerprints()), nil
}
