package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff [entry]",
	Short: "Compare the current surface against the last snapshot",
	Long:  "Analyzes the entry point and diffs its export fingerprints against the most recent recorded run. Exits 1 when exports were removed or changed.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
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
	d, err := engine.Diff(ctx, surf)
	if err != nil {
		return err
	}

	if flagFormat == "json" {
		if err := writeJSON(os.Stdout, d); err != nil {
			return err
		}
	} else {
		fmt.Print(d.Text())
	}

	if d.Breaking() {
		return errBreaking
	}
	return nil
}
