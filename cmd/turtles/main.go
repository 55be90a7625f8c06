package main

import (
	"log"
	"os"

	"github.com/Conceptual-Machines/magda-turtles-go/cli"
	"github.com/Conceptual-Machines/magda-turtles-go/metrics"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (TURTLES_* overrides, TURTLES_SENTRY_DSN)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️  Warning: Could not load .env file: %v", err)
	}

	err := cli.Execute()
	metrics.Flush()
	if err != nil {
		os.Exit(1)
	}
}
