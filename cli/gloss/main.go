package main

import (
	"os"

	glosscmder "github.com/ctava-msft/gloss/cmd/gloss"
)

func main() {
	cmd := glosscmder.NewGlossCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
