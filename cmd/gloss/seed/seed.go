// Package seedcmder provides the gloss seed cobra command.
package seedcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctava-msft/gloss/cmd/gloss/wire"
	"github.com/ctava-msft/gloss/pkg/cliui"
	"github.com/ctava-msft/gloss/pkg/glossary"
	"github.com/ctava-msft/gloss/pkg/ingest"
)

const seedLongDesc string = `Embed the sample glossary and upsert it into the vector collection.

Each record is deleted before its upsert, so re-running seed replaces
records instead of duplicating them.

Examples:
  gloss seed
  gloss seed --workers 8`

const seedShortDesc string = "Embed and upsert the sample glossary"

type seedCommander struct {
	workers int
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().IntVarP(&cmder.workers, "workers", "w", 4, "Concurrent embed/upsert calls")

	return cmd
}

func (c *seedCommander) run(cmd *cobra.Command) error {
	components, err := wire.Setup(cmd)
	if err != nil {
		return err
	}
	defer components.Close()

	return Seed(cmd.Context(), components, c.workers)
}

// Seed ensures the collection exists and loads the sample corpus. It is
// shared with the run command.
func Seed(ctx context.Context, components *wire.Components, workers int) error {
	if err := cliui.Step(os.Stdout, "Ensuring collection", func() error {
		return components.Collection.Ensure(ctx)
	}); err != nil {
		return err
	}

	pipeline, err := ingest.NewPipeline(&ingest.Config{
		Embedder:   components.Embedder,
		Collection: components.Collection,
		Workers:    workers,
		Logger:     components.Logger,
	})
	if err != nil {
		return err
	}

	records := glossary.SampleRecords()

	if err := cliui.Step(os.Stdout, "Embedding and upserting records", func() error {
		return pipeline.Run(ctx, records)
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Seeded %s records into %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(fmt.Sprintf("%d", len(records))),
		cliui.DimStyle.Render(components.Config.VectorStore.Collection),
	)

	return nil
}
