// Package main provides the devscholar CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// verbose enables debug logging on stderr
var verbose bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "devscholar",
	Short: "Detect and resolve paper references in source comments",
	Long: `devscholar scans source-comment text for paper references
(arXiv, DOI, IEEE, Semantic Scholar, Google Scholar) and resolves
them to bibliographic metadata.

Results are cached so repeated scans of unchanged files are cheap.
All commands output JSON by default for editor and agent integration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging on stderr")
	rootCmd.Version = Version
}
