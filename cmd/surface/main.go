package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/surface"
	"github.com/jward/surface/internal/config"
)

var (
	flagConfig string
	flagDB     string
	flagFormat string
)

// errBreaking signals a breaking diff; main maps it to exit code 1 without
// the Error: prefix, since the diff itself was already printed.
var errBreaking = errors.New("breaking changes detected")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errBreaking) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "surface",
	Short:         "Public API surface analysis for TypeScript and JavaScript modules",
	Long:          "Surface resolves every export of an entry point to its canonical declaration, expands each into its full shape, and renders a deterministic, diffable API report.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: surface.yaml at the project root)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "snapshot database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: text|json")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(exportsCmd)
}

// findProjectRoot walks up from startDir looking for a package.json file or
// a .git directory. Returns startDir if neither is found.
func findProjectRoot(startDir string) string {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
			return dir
		}
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// loadConfig loads --config, or the project's surface.yaml when present.
// With no explicit flag and no file, configuration is simply absent.
func loadConfig(projectRoot string) (*config.Config, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	path := filepath.Join(projectRoot, "surface.yaml")
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	return config.Load(path)
}

// resolveEntry picks the entry point: the positional argument wins over the
// config file.
func resolveEntry(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg != nil && cfg.Entry != "" {
		return cfg.Entry, nil
	}
	return "", fmt.Errorf("no entry point: pass one as an argument or set entry in surface.yaml")
}

// buildEngine assembles engine options from flags and config.
func buildEngine(projectRoot string, cfg *config.Config) (*surface.Engine, error) {
	var opts []surface.Option
	switch {
	case flagDB != "":
		opts = append(opts, surface.WithDB(flagDB))
	case cfg != nil && cfg.DBPath != "":
		opts = append(opts, surface.WithDB(cfg.DBPath))
	}
	if cfg != nil {
		if len(cfg.BundledPackages) > 0 {
			opts = append(opts, surface.WithBundledPackages(cfg.BundledPackages...))
		}
		if cfg.PolicyScript != "" {
			opts = append(opts, surface.WithPolicyScript(cfg.PolicyScript))
		}
	}
	return surface.New(projectRoot, opts...)
}

// projectRootFromCwd resolves the project root relative to the working
// directory.
func projectRootFromCwd() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	return findProjectRoot(cwd), nil
}
