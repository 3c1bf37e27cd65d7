package main

import (
	"fmt"
	"os"

	"github.com/bookowl/bookowl/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// Best-effort .env load; API keys usually live there in development
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
