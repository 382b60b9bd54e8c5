// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/batch"
)

var statusCmd = &cobra.Command{
	Use:   "status <batch-id>",
	Short: "Print the state of a batch evaluation job",
	Long: `Status retrieves a batch job by ID and prints its state and request
counts. With --wait it polls until the job reaches a terminal state and
prints the parsed evaluation records as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipelineConfig()
		if err != nil {
			return err
		}
		if err := validateForBatch(cfg); err != nil {
			return err
		}

		client := batch.NewClient(cfg.Batch)
		batchID := args[0]

		wait, _ := cmd.Flags().GetBool("wait")
		if !wait {
			job, err := client.GetBatch(cmd.Context(), batchID)
			if err != nil {
				return err
			}
			fmt.Printf("batch %s: %s (%d/%d completed, %d failed)\n",
				job.ID, job.Status, job.RequestCounts.Completed, job.RequestCounts.Total, job.RequestCounts.Failed)
			return nil
		}

		records, err := client.Poll(cmd.Context(), batchID, cfg.Batch.PollInterval, cfg.Batch.MaxWait, os.Stderr)
		if err != nil {
			return err
		}
		if records == nil {
			return fmt.Errorf("batch %s ended without results", batchID)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}

func init() {
	statusCmd.Flags().Bool("wait", false, "poll until the job finishes and print the parsed records")

	rootCmd.AddCommand(statusCmd)
}
