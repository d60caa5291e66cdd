// Package versioncmder provides the gloss version cobra command.
package versioncmder

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gloss version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			version := Version
			if version == "dev" {
				if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
					version = info.Main.Version
				}
			}
			fmt.Println(version)
		},
	}
}
