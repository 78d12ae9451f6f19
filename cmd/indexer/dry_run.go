package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"site-rag/internal/domain"
	"site-rag/internal/infra/config"
)

type dryRunSummary struct {
	Pages   int
	Skipped int
	Chunks  int
}

func summarize(pages []domain.Page, chunker domain.Chunker) dryRunSummary {
	var s dryRunSummary
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			s.Skipped++
			continue
		}
		s.Pages++
		s.Chunks += len(chunker.Chunk(p.Text))
	}
	return s
}

func printDryRun(cmd *cobra.Command, cfg *config.Config, pages []domain.Page) error {
	chunker := domain.NewWindowChunker(cfg.Indexer.WindowSize, cfg.Indexer.WindowOverlap)
	s := summarize(pages, chunker)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Dry run: nothing was embedded or written")
	fmt.Fprintf(out, "Pages:    %d (%d skipped)\n", s.Pages, s.Skipped)
	fmt.Fprintf(out, "Chunks:   %d\n", s.Chunks)
	fmt.Fprintf(out, "Window:   %d/%d (%s)\n", cfg.Indexer.WindowSize, cfg.Indexer.WindowOverlap, chunker.Version())
	fmt.Fprintf(out, "Backend:  %s\n", cfg.Index.Backend)
	return nil
}
