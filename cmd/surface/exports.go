package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportsCmd = &cobra.Command{
	Use:   "exports [entry]",
	Short: "List the exported surface of an entry point",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExports,
}

func runExports(cmd *cobra.Command, args []string) error {
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

	if flagFormat == "json" {
		return writeJSON(os.Stdout, rep.Exports)
	}
	formatExportsText(os.Stdout, rep.Exports)
	return nil
}
