package main

import (
	"os"

	"github.com/wonny/pesowatch/cmd/pesowatch/commands"
)

// main is the entry point for the pesowatch CLI:
// go run ./cmd/pesowatch [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
