package main

import (
	"os"

	"github.com/mr1hm/civic-eye/cmd/civicctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
