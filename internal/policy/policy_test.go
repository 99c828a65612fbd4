package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepTruthy(t *testing.T) {
	t.Parallel()
	f := FromSource(`export["kind"] != "variable"`)

	keep, err := f.Keep(context.Background(), Export{Name: "Widget", Kind: "class"})
	require.NoError(t, err)
	assert.True(t, keep)

	keep, err = f.Keep(context.Background(), Export{Name: "flag", Kind: "variable"})
	require.NoError(t, err)
	assert.False(t, keep)
}

func TestKeepSeesAllFields(t *testing.T) {
	t.Parallel()
	f := FromSource(`!export["imported"] && !export["nominal"] && export["references"] < 10`)

	keep, err := f.Keep(context.Background(), Export{Name: "Local", Kind: "interface", References: 2})
	require.NoError(t, err)
	assert.True(t, keep)

	keep, err = f.Keep(context.Background(), Export{Name: "Markdown", Imported: true, Nominal: true})
	require.NoError(t, err)
	assert.False(t, keep)
}

func TestScriptErrorAborts(t *testing.T) {
	t.Parallel()
	f := FromSource(`no_such_function(export)`)

	_, err := f.Keep(context.Background(), Export{Name: "Widget"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy")
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "keep.risor")
	require.NoError(t, os.WriteFile(path, []byte(`export["name"] != "hidden"`), 0o644))

	f, err := Load(path)
	require.NoError(t, err)

	keep, err := f.Keep(context.Background(), Export{Name: "hidden"})
	require.NoError(t, err)
	assert.False(t, keep)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "nope.risor"))
	require.Error(t, err)
}
