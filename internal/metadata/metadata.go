// Package metadata answers the package-metadata question the symbol table
// asks about imported declarations: does the owning package declare support
// for the documentation-metadata convention? Symbols imported from packages
// without it stay nominal and are never expanded.
package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Checker resolves module paths to their owning package.json and reports
// whether that package declares doc-metadata support. The local project is
// always considered supporting; only files under node_modules consult a
// manifest. Results are memoized per directory.
type Checker struct {
	root string

	// dirSupport caches the verdict for each directory a lookup started from.
	dirSupport map[string]bool
}

// NewChecker creates a checker anchored at projectRoot. Relative module
// paths, the form the binder reports, are resolved against it.
func NewChecker(projectRoot string) *Checker {
	return &Checker{
		root:       projectRoot,
		dirSupport: make(map[string]bool),
	}
}

// SupportsDocMetadata reports whether the package owning path declares the
// doc-metadata convention: a truthy top-level "docModel" field or a
// "tsdocMetadata" entry in its package.json. Files outside node_modules
// belong to the local project and always support it. A missing or
// unparsable manifest means no support.
func (c *Checker) SupportsDocMetadata(path string) bool {
	if !inNodeModules(path) {
		return true
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(c.root, filepath.FromSlash(path))
	}
	dir := filepath.Dir(abs)
	if verdict, ok := c.dirSupport[dir]; ok {
		return verdict
	}
	verdict := c.manifestSupports(dir)
	c.dirSupport[dir] = verdict
	return verdict
}

// inNodeModules reports whether path has a node_modules segment.
func inNodeModules(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == "node_modules" {
			return true
		}
	}
	return false
}

// manifestSupports walks up from dir to the nearest package.json and reads
// its doc-metadata fields.
func (c *Checker) manifestSupports(dir string) bool {
	for d := dir; ; {
		data, err := os.ReadFile(filepath.Join(d, "package.json"))
		if err == nil {
			return manifestDeclaresSupport(data)
		}
		parent := filepath.Dir(d)
		if parent == d || filepath.Base(d) == "node_modules" {
			return false
		}
		d = parent
	}
}

// manifest is the slice of package.json the checker reads.
type manifest struct {
	DocModel      json.RawMessage `json:"docModel"`
	TsdocMetadata json.RawMessage `json:"tsdocMetadata"`
}

func manifestDeclaresSupport(data []byte) bool {
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return false
	}
	if len(m.TsdocMetadata) > 0 && string(m.TsdocMetadata) != "null" {
		return true
	}
	docModel := string(m.DocModel)
	return len(m.DocModel) > 0 && docModel != "false" && docModel != "null"
}
