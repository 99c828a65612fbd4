package binder

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// resolveResult memoizes one (base dir, specifier) resolution, including
// misses.
type resolveResult struct {
	path string
	ok   bool
}

// resolveExts is the probe order for extensionless specifiers.
var resolveExts = []string{".ts", ".tsx", ".d.ts", ".js", ".jsx"}

// resolvePath resolves an import specifier against the directory of the
// importing file, Node-style: relative and rooted specifiers probe the file
// system directly, bare specifiers walk up through node_modules.
func (b *Binder) resolvePath(baseDir, spec string) (string, bool) {
	key := baseDir + "\x00" + spec
	if r, ok := b.resolved[key]; ok {
		return r.path, r.ok
	}

	var path string
	var ok bool
	switch {
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || spec == "." || spec == "..":
		path, ok = resolveFile(filepath.Join(baseDir, filepath.FromSlash(spec)))
	case filepath.IsAbs(spec):
		path, ok = resolveFile(filepath.Clean(spec))
	default:
		path, ok = b.resolveBare(baseDir, spec)
	}

	b.resolved[key] = resolveResult{path: path, ok: ok}
	return path, ok
}

// resolveFile probes p as a source file: the literal path, then with each
// known extension, then as a directory with an index file.
func resolveFile(p string) (string, bool) {
	if isSourceFile(p) {
		return p, true
	}
	for _, ext := range resolveExts {
		if cand := p + ext; isSourceFile(cand) {
			return cand, true
		}
	}
	for _, ext := range resolveExts {
		if cand := filepath.Join(p, "index"+ext); isSourceFile(cand) {
			return cand, true
		}
	}
	return "", false
}

func isSourceFile(p string) bool {
	if _, ok := languageForFile(p); !ok {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

// resolveBare resolves a package specifier by walking up from baseDir to the
// nearest node_modules directory containing the package. Deep imports probe
// the subpath; package roots enter through package.json.
func (b *Binder) resolveBare(baseDir, spec string) (string, bool) {
	pkg, sub := splitPackageSpecifier(spec)
	for dir := baseDir; ; {
		pkgDir := filepath.Join(dir, "node_modules", filepath.FromSlash(pkg))
		if st, err := os.Stat(pkgDir); err == nil && st.IsDir() {
			if sub != "" {
				return resolveFile(filepath.Join(pkgDir, filepath.FromSlash(sub)))
			}
			return packageEntry(pkgDir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// splitPackageSpecifier splits a bare specifier into the package name (two
// segments for scoped packages) and the optional subpath.
func splitPackageSpecifier(spec string) (pkg, sub string) {
	segments := 1
	if strings.HasPrefix(spec, "@") {
		segments = 2
	}
	rest := spec
	for i := 0; i < segments; i++ {
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return spec, ""
		}
		rest = rest[slash+1:]
	}
	return strings.TrimSuffix(spec, "/"+rest), rest
}

// packageJSON is the slice of package.json the resolver reads.
type packageJSON struct {
	Types   string `json:"types"`
	Typings string `json:"typings"`
	Main    string `json:"main"`
}

// packageEntry finds the entry-point source file of a package directory:
// package.json types/typings/main in that order, then index files.
func packageEntry(pkgDir string) (string, bool) {
	var pj packageJSON
	if data, err := os.ReadFile(filepath.Join(pkgDir, "package.json")); err == nil {
		// A malformed package.json falls through to the index probe.
		_ = json.Unmarshal(data, &pj)
	}
	for _, entry := range []string{pj.Types, pj.Typings, pj.Main} {
		if entry == "" {
			continue
		}
		if p, ok := resolveFile(filepath.Join(pkgDir, filepath.FromSlash(entry))); ok {
			return p, true
		}
	}
	return resolveFile(filepath.Join(pkgDir, "index"))
}
