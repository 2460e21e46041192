package main

import (
	"os"

	"github.com/wealthtrack-dev/wealthtrack/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
