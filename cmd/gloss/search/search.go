// Package searchcmder provides the gloss search cobra command.
package searchcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctava-msft/gloss/cmd/gloss/wire"
	"github.com/ctava-msft/gloss/pkg/cliui"
	"github.com/ctava-msft/gloss/pkg/search"
)

const searchLongDesc string = `Similarity search over the stored glossary.

Examples:
  gloss search "What is Retrieval Augmented Generation"
  gloss search "What is an API" --category "External Definitions"
  gloss search "language models" --top 3`

const searchShortDesc string = "Similarity search over stored records"

type searchCommander struct {
	category string
	top      int
}

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.category, "category", "g", "", "Restrict results to one category")
	cmd.Flags().IntVarP(&cmder.top, "top", "t", 5, "Maximum number of results")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command, query string) error {
	components, err := wire.Setup(cmd)
	if err != nil {
		return err
	}
	defer components.Close()

	searcher, err := search.NewSearcher(components.Embedder, components.Collection, components.Logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var results []search.Result
	if c.category != "" {
		results, err = searcher.SimilarInCategory(ctx, query, c.category, c.top)
	} else {
		results, err = searcher.Similar(ctx, query, c.top)
	}
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Printf("\n  %s No matches for %q\n\n", cliui.FailMark, query)
		return nil
	}

	fmt.Printf("\n  Results for %s\n\n", cliui.NameStyle.Render(query))
	for _, result := range results {
		fmt.Println(cliui.Hit(result.Record.Term, result.Record.Definition, result.Score))
	}
	fmt.Println()

	return nil
}
