package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagOut      string
	flagSnapshot bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [entry]",
	Short: "Analyze an entry point and print its API report",
	Long:  "Resolves every export of the entry point, expands each into its declaration tree, and renders the API surface report.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&flagOut, "out", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().BoolVar(&flagSnapshot, "snapshot", false, "record the surface in the snapshot database")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root, err := projectRootFromCwd()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	entry, err := resolveEntry(args, cfg)
	if err != nil {
		return err
	}

	engine, err := buildEngine(root, cfg)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	ctx := context.Background()
	surf, err := engine.AnalyzeEntryPoint(ctx, entry)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", entry, err)
	}
	rep, err := engine.Report(ctx, surf)
	if err != nil {
		return err
	}

	var out []byte
	if flagFormat == "json" {
		out, err = rep.JSON()
		if err != nil {
			return err
		}
		out = append(out, '\n')
	} else {
		out = []byte(rep.Text())
	}

	outPath := flagOut
	if outPath == "" && cfg != nil {
		outPath = cfg.ReportPath
	}
	if outPath != "" {
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report: %s\n", outPath)
	} else {
		os.Stdout.Write(out)
	}

	if flagSnapshot {
		runID, err := engine.Snapshot(surf, rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Recorded snapshot run %d (%d exports)\n", runID, len(rep.Exports))
	}
	return nil
}
