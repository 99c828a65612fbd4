package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/surface/internal/config"
	"github.com/jward/surface/internal/report"
)

func TestValidateFormat(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateFormat("text"))
	assert.NoError(t, validateFormat("json"))

	err := validateFormat("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yaml")
}

func TestFindProjectRootPackageJSON(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o644))
	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, findProjectRoot(nested))
}

func TestFindProjectRootGitDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, findProjectRoot(nested))
}

func TestFindProjectRootInnerPackageWins(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o644))
	inner := filepath.Join(root, "packages", "widgets")
	require.NoError(t, os.MkdirAll(inner, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inner, "package.json"), []byte("{}"), 0o644))

	assert.Equal(t, inner, findProjectRoot(inner))
}

func TestFindProjectRootNoMarker(t *testing.T) {
	t.Parallel()

	start := t.TempDir()
	got := findProjectRoot(start)
	// Walks to the filesystem root without a marker and falls back to the
	// starting directory, unless some ancestor happens to carry one.
	if got != start {
		_, errPkg := os.Stat(filepath.Join(got, "package.json"))
		info, errGit := os.Stat(filepath.Join(got, ".git"))
		hasMarker := errPkg == nil || (errGit == nil && info.IsDir())
		assert.True(t, hasMarker, "unexpected root %s", got)
	}
}

func TestResolveEntryPrecedence(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Entry: "src/index.ts"}

	entry, err := resolveEntry([]string{"src/other.ts"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "src/other.ts", entry)

	entry, err = resolveEntry(nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, "src/index.ts", entry)

	_, err = resolveEntry(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry point")
}

func TestFormatExportsText(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	formatExportsText(&sb, []report.Export{
		{Name: "Widget", Kind: "class", Module: "src/widgets.ts", Fingerprint: "aabbccdd00112233"},
		{Name: "Quote", Kind: "class", Module: "", ImportedFrom: "quantlib", Fingerprint: "1122334455667788"},
	})

	out := sb.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "Widget")
	assert.Contains(t, lines[1], "src/widgets.ts")
	assert.Contains(t, lines[2], "quantlib")
}
