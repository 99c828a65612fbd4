package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jward/surface/internal/report"
)

func validateFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid format %q (expected text or json)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatExportsText renders a tabular listing of the surface, one export per
// row.
func formatExportsText(w io.Writer, exports []report.Export) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tMODULE\tFINGERPRINT")
	for _, e := range exports {
		module := e.Module
		if e.ImportedFrom != "" {
			module = e.ImportedFrom
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, e.Kind, module, e.Fingerprint)
	}
	tw.Flush()
}
