package surface

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/surface/internal/report"
)

// Golden expectations format.
type goldenFile struct {
	Entry       string         `json:"entry"`
	Exports     []goldenExport `json:"exports"`
	AbsentNames []string       `json:"absentNames"`
}

type goldenExport struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Module     string   `json:"module"`
	References []string `json:"references,omitempty"`
}

// collectReferences flattens every reference label in an export's
// declaration tree.
func collectReferences(e report.Export) []string {
	var out []string
	var walk func(d report.Decl)
	walk = func(d report.Decl) {
		out = append(out, d.References...)
		for _, c := range d.Children {
			walk(c)
		}
	}
	for _, d := range e.Declarations {
		walk(d)
	}
	return out
}

// TestGolden checks the analyzed webapp surface against the expectations
// checked in next to the fixture.
func TestGolden(t *testing.T) {
	t.Parallel()
	data, err := os.ReadFile(filepath.Join("testdata", "webapp", "expected.json"))
	require.NoError(t, err)
	var golden goldenFile
	require.NoError(t, json.Unmarshal(data, &golden))

	e := newWebappEngine(t)
	surf := analyzeWebapp(t, e)
	rep, err := e.Report(context.Background(), surf)
	require.NoError(t, err)

	assert.Equal(t, golden.Entry, rep.Entry)
	require.Len(t, rep.Exports, len(golden.Exports))

	byName := make(map[string]report.Export, len(rep.Exports))
	for _, exp := range rep.Exports {
		byName[exp.Name] = exp
	}

	for _, want := range golden.Exports {
		got, ok := byName[want.Name]
		require.True(t, ok, "missing export %q", want.Name)
		assert.Equal(t, want.Kind, got.Kind, "kind of %s", want.Name)
		assert.Equal(t, want.Module, got.Module, "module of %s", want.Name)

		refs := collectReferences(got)
		for _, ref := range want.References {
			assert.Contains(t, refs, ref, "references of %s", want.Name)
		}
	}

	for _, name := range golden.AbsentNames {
		_, ok := byName[name]
		assert.False(t, ok, "%q should not be on the surface", name)
	}
}

// TestGoldenReportDeterminism renders the fixture twice through independent
// engines and requires byte-identical output.
func TestGoldenReportDeterminism(t *testing.T) {
	t.Parallel()
	render := func() string {
		e := newWebappEngine(t)
		surf := analyzeWebapp(t, e)
		rep, err := e.Report(context.Background(), surf)
		require.NoError(t, err)
		return rep.Text()
	}

	assert.Equal(t, render(), render())
}
