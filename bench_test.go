package surface

import (
	"context"
	"path/filepath"
	"testing"
)

func BenchmarkAnalyzeEntryPoint(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e, err := New(filepath.Join("testdata", "webapp"))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := e.AnalyzeEntryPoint(context.Background(), filepath.Join("src", "index.ts")); err != nil {
			b.Fatal(err)
		}
		e.Close()
	}
}

func BenchmarkReport(b *testing.B) {
	e, err := New(filepath.Join("testdata", "webapp"))
	if err != nil {
		b.Fatal(err)
	}
	defer e.Close()
	surf, err := e.AnalyzeEntryPoint(context.Background(), filepath.Join("src", "index.ts"))
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Report(context.Background(), surf); err != nil {
			b.Fatal(err)
		}
	}
}
