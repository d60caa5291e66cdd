// Package runcmder provides the gloss run cobra command: the full
// demonstration workflow in one shot.
package runcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	seedcmder "github.com/ctava-msft/gloss/cmd/gloss/seed"
	"github.com/ctava-msft/gloss/cmd/gloss/wire"
	"github.com/ctava-msft/gloss/pkg/cliui"
	"github.com/ctava-msft/gloss/pkg/search"
)

const runLongDesc string = `Run the full demonstration workflow: ensure the collection exists,
embed and upsert the sample glossary, then perform three lookups -
a plain similarity search, a category-filtered similarity search,
and an exact lookup by url.

The command exits non-zero on the first failed stage.`

const runShortDesc string = "Seed the corpus and run the demo lookups"

const (
	demoQuery    = "What is Retrieval Augmented Generation"
	demoCategory = "External Definitions"
	demoURL      = "https://example.com/2"
)

type runCommander struct {
	workers int
}

func NewRunCmd() *cobra.Command {
	cmder := &runCommander{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: runShortDesc,
		Long:  runLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().IntVarP(&cmder.workers, "workers", "w", 4, "Concurrent embed/upsert calls")

	return cmd
}

func (c *runCommander) run(cmd *cobra.Command) error {
	components, err := wire.Setup(cmd)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx := cmd.Context()

	if err := seedcmder.Seed(ctx, components, c.workers); err != nil {
		return err
	}

	searcher, err := search.NewSearcher(components.Embedder, components.Collection, components.Logger)
	if err != nil {
		return err
	}

	// Plain nearest-neighbor.
	results, err := searcher.Similar(ctx, demoQuery, 1)
	if err != nil {
		return fmt.Errorf("similarity search: %w", err)
	}
	printResults(fmt.Sprintf("Similar to %q", demoQuery), results)

	// Nearest-neighbor restricted to one category.
	results, err = searcher.SimilarInCategory(ctx, demoQuery, demoCategory, 1)
	if err != nil {
		return fmt.Errorf("filtered similarity search: %w", err)
	}
	printResults(fmt.Sprintf("Similar to %q in %q", demoQuery, demoCategory), results)

	// Exact lookup by a unique non-key field.
	result, err := searcher.ByURL(ctx, demoURL)
	if err != nil {
		return fmt.Errorf("url lookup: %w", err)
	}
	fmt.Printf("  Record for %s\n\n", cliui.DimStyle.Render(demoURL))
	fmt.Println(cliui.Hit(result.Record.Term, result.Record.Definition, -1))
	fmt.Println()

	return nil
}

func printResults(heading string, results []search.Result) {
	fmt.Printf("  %s\n\n", cliui.NameStyle.Render(heading))
	if len(results) == 0 {
		fmt.Printf("    %s no matches\n\n", cliui.FailMark)
		return
	}
	for _, result := range results {
		fmt.Println(cliui.Hit(result.Record.Term, result.Record.Definition, result.Score))
	}
	fmt.Println()
}
