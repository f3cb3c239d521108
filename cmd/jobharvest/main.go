// Package main provides the entry point for the jobharvest CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobharvest",
	Short: "Avature career-site discovery and job harvesting",
	Long:  "jobharvest discovers Avature-hosted career sites, validates them, and extracts structured job postings into a deduplicated JSON document.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
