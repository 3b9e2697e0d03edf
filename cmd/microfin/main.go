package main

import (
	"os"

	"github.com/microfin-dev/microfin/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
