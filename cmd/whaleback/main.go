package main

import (
	"os"

	"github.com/wonny/whaleback/cmd/whaleback/commands"
)

// main is the entry point for the whaleback CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/whaleback [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
