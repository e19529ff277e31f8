package main

import (
	"fmt"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devscholar/reference-engine/internal/domain"
)

var resolveCachePath string

func init() {
	resolveCmd.Flags().StringVar(&resolveCachePath, "cache-path", "", "SQLite cache file for persistent resolutions")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <scheme:id> [scheme:id...]",
	Short: "Resolve reference keys to metadata",
	Long: `Resolve looks up one or more canonical reference keys, for example
"arxiv:1706.03762" or "doi:10.1038/nature14539", and prints the
metadata for each.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refs := make([]domain.PaperRef, 0, len(args))
	for _, key := range args {
		ref, err := parseKey(key)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}

	logger := newCLILogger()
	eng, cleanup, err := newEngine(ctx, resolveCachePath, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	results := make([]referenceResult, 0, len(refs))
	for _, res := range eng.Resolve(ctx, refs) {
		results = append(results, referenceFromResolved(res))
	}
	return printResults(results)
}

// parseKey splits a "scheme:id" key. Identifiers may themselves contain
// colons (Semantic Scholar corpus IDs), so only the first colon separates.
func parseKey(key string) (domain.PaperRef, error) {
	scheme, id, ok := strings.Cut(key, ":")
	if !ok || id == "" {
		return domain.PaperRef{}, fmt.Errorf("invalid reference key %q: expected scheme:id", key)
	}
	if !slices.Contains(domain.AllSchemes(), domain.Scheme(scheme)) {
		return domain.PaperRef{}, fmt.Errorf("unknown scheme %q", scheme)
	}
	return domain.PaperRef{Scheme: domain.Scheme(scheme), ID: id}, nil
}
