package main

import (
	"os"

	"github.com/aussiebroadwan/quill/internal/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
