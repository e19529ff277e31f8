package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/devscholar/reference-engine/internal/domain"
)

// referenceResult is the CLI output for one canonical reference.
type referenceResult struct {
	Key         string   `json:"key"`
	Scheme      string   `json:"scheme"`
	ID          string   `json:"id"`
	Occurrences int      `json:"occurrences"`
	Title       string   `json:"title,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Year        int      `json:"year,omitempty"`
	Venue       string   `json:"venue,omitempty"`
	Landing     string   `json:"landing,omitempty"`
	PDFURL      string   `json:"pdf_url,omitempty"`
	Failure     string   `json:"failure,omitempty"`
	FromCache   bool     `json:"from_cache,omitempty"`
}

func referenceFromRef(ref domain.PaperRef) referenceResult {
	return referenceResult{
		Key:         ref.Key(),
		Scheme:      string(ref.Scheme),
		ID:          ref.ID,
		Occurrences: len(ref.Matches),
	}
}

func referenceFromResolved(res domain.ResolvedReference) referenceResult {
	out := referenceFromRef(res.Ref)
	out.FromCache = res.FromCache
	if res.Metadata != nil {
		out.Title = res.Metadata.Title
		out.Authors = res.Metadata.Authors
		out.Year = res.Metadata.Year
		out.Venue = res.Metadata.Venue
		out.Landing = res.Metadata.Landing
		out.PDFURL = res.Metadata.PDFURL
	}
	if res.Failure != nil {
		out.Failure = res.Failure.Error()
	}
	return out
}

// printResults writes results as JSON, or as readable text with --human.
func printResults(v interface{}) error {
	if !humanOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	switch results := v.(type) {
	case []fileResult:
		for _, fr := range results {
			fmt.Printf("%s: %d reference(s)\n", fr.File, len(fr.References))
			for _, ref := range fr.References {
				printHumanReference(ref)
			}
		}
	case []referenceResult:
		for _, ref := range results {
			printHumanReference(ref)
		}
	default:
		return fmt.Errorf("unsupported output type %T", v)
	}
	return nil
}

func printHumanReference(ref referenceResult) {
	fmt.Printf("  %s", ref.Key)
	if ref.Occurrences > 1 {
		fmt.Printf(" (%d occurrences)", ref.Occurrences)
	}
	fmt.Println()
	if ref.Title != "" {
		fmt.Printf("    %s", ref.Title)
		if ref.Year > 0 {
			fmt.Printf(" (%d)", ref.Year)
		}
		fmt.Println()
	}
	if len(ref.Authors) > 0 {
		fmt.Printf("    %s\n", strings.Join(ref.Authors, ", "))
	}
	if ref.Landing != "" {
		fmt.Printf("    %s\n", ref.Landing)
	}
	if ref.Failure != "" {
		fmt.Printf("    unresolved: %s\n", ref.Failure)
	}
}
