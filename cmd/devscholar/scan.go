package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devscholar/reference-engine/internal/domain"
)

var (
	scanCachePath string
	scanNoResolve bool
)

func init() {
	scanCmd.Flags().StringVar(&scanCachePath, "cache-path", "", "SQLite cache file for persistent resolutions")
	scanCmd.Flags().BoolVar(&scanNoResolve, "no-resolve", false, "Detect references without fetching metadata")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Scan files for paper references and resolve them",
	Long: `Scan reads the given files (or stdin when no files are given),
detects paper references and resolves each to bibliographic metadata.
Duplicate citations of the same paper collapse into one reference.`,
	RunE: runScan,
}

// fileResult is the scan output for one input file.
type fileResult struct {
	File       string            `json:"file"`
	References []referenceResult `json:"references"`
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newCLILogger()
	eng, cleanup, err := newEngine(ctx, scanCachePath, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	results := make([]fileResult, 0, len(inputs))
	for _, name := range inputs {
		text, err := readInput(name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		blocks := []domain.TextBlock{{Text: text, Offset: 0}}

		var refs []referenceResult
		if scanNoResolve {
			for _, ref := range eng.Scan(blocks) {
				refs = append(refs, referenceFromRef(ref))
			}
		} else {
			resolved, err := eng.ScanAndResolve(ctx, blocks)
			if err != nil {
				return err
			}
			for _, res := range resolved {
				refs = append(refs, referenceFromResolved(res))
			}
		}
		results = append(results, fileResult{File: name, References: refs})
	}

	return printResults(results)
}

// readInput reads a file, or stdin when name is "-".
func readInput(name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(name)
	return string(data), err
}
