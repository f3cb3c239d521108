package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobharvest/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a job records document against the output schema",
	RunE:  runValidate,
}

var validateFile string

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "Path to the job records JSON document (required)")

	validateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(validateFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", validateFile, err)
	}

	if err := schemas.ValidateJobsDocument(data); err != nil {
		return fmt.Errorf("%s is invalid: %w", validateFile, err)
	}

	fmt.Fprintf(os.Stdout, "%s is valid\n", validateFile)
	return nil
}
