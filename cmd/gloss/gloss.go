// Package glosscmder
package glosscmder

import (
	"github.com/spf13/cobra"

	lookupcmder "github.com/ctava-msft/gloss/cmd/gloss/lookup"
	runcmder "github.com/ctava-msft/gloss/cmd/gloss/run"
	searchcmder "github.com/ctava-msft/gloss/cmd/gloss/search"
	seedcmder "github.com/ctava-msft/gloss/cmd/gloss/seed"
	versioncmder "github.com/ctava-msft/gloss/cmd/gloss/version"
)

const glossLongDesc string = `Gloss upserts a glossary into a vector collection and retrieves
records by similarity and by metadata filter.

Run workflows using:
  gloss run       Seed the sample corpus and run the demo lookups
  gloss seed      Embed and upsert the sample corpus
  gloss search    Similarity search over stored records
  gloss lookup    Exact lookup by url`

const glossShortDesc string = "Gloss - Glossary Vector Search"

func NewGlossCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gloss",
		Short: glossShortDesc,
		Long:  glossLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Directory containing config.toml")

	// Add subcommands
	cmd.AddCommand(runcmder.NewRunCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(lookupcmder.NewLookupCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
