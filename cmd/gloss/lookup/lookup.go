// Package lookupcmder provides the gloss lookup cobra command.
package lookupcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctava-msft/gloss/cmd/gloss/wire"
	"github.com/ctava-msft/gloss/pkg/cliui"
	"github.com/ctava-msft/gloss/pkg/search"
)

const lookupLongDesc string = `Exact lookup of one glossary record by its url field.

The default strategy queries the store by filter alone. The vector
strategy is a fallback for stores without a pure-filter endpoint: it
issues a filtered similarity search with a neutral query vector and
ignores the scores.

Examples:
  gloss lookup --url https://example.com/2
  gloss lookup --url https://example.com/2 --strategy vector`

const lookupShortDesc string = "Exact lookup by url"

type lookupCommander struct {
	url      string
	strategy string
}

func NewLookupCmd() *cobra.Command {
	cmder := &lookupCommander{}

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: lookupShortDesc,
		Long:  lookupLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.url, "url", "u", "", "URL of the record to look up")
	cmd.Flags().StringVarP(&cmder.strategy, "strategy", "s", "filter", "Lookup strategy: filter or vector")
	cmd.MarkFlagRequired("url")

	return cmd
}

func (c *lookupCommander) run(cmd *cobra.Command) error {
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

	var result search.Result
	switch c.strategy {
	case "filter":
		result, err = searcher.ByURL(ctx, c.url)
	case "vector":
		result, err = searcher.ByURLVector(ctx, c.url)
	default:
		return fmt.Errorf("unsupported lookup strategy: %q", c.strategy)
	}
	if err != nil {
		return err
	}

	fmt.Printf("\n  Record %s for %s\n\n", cliui.NameStyle.Render(result.Record.Key), cliui.DimStyle.Render(c.url))
	fmt.Println(cliui.Hit(result.Record.Term, result.Record.Definition, -1))
	fmt.Println()

	return nil
}
