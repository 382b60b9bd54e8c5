// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/batch"
	"github.com/pdiddy/paper-digest/internal/digest"
	"github.com/pdiddy/paper-digest/internal/fetch"
	"github.com/pdiddy/paper-digest/internal/pipeline"
	"github.com/pdiddy/paper-digest/internal/profile"
	"github.com/pdiddy/paper-digest/internal/seen"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daily digest pipeline once",
	Long: `Run fetches new papers from arXiv, filters the ones already delivered,
submits one scoring request per paper to the batch API, waits for the job
to finish, posts the top-ranked papers to Slack, and records every
evaluated paper so it is never surfaced again.

With --dry-run the scoring requests are printed as JSONL instead of being
submitted; nothing is sent and no state is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipelineConfig()
		if err != nil {
			return err
		}

		if v, _ := cmd.Flags().GetDuration("interval"); v > 0 {
			cfg.Batch.PollInterval = v
		}
		if v, _ := cmd.Flags().GetDuration("max-wait"); v > 0 {
			cfg.Batch.MaxWait = v
		}
		if v, _ := cmd.Flags().GetInt("top"); v > 0 {
			cfg.Digest.TopN = v
		}

		team, err := profile.Load(cfg.ProfilePath)
		if err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			return dryRunRequests(cmd.Context(), cfg, team)
		}

		if err := validateForRun(cfg); err != nil {
			return err
		}

		p := &pipeline.Pipeline{
			Config:    cfg,
			Profile:   team,
			Fetcher:   &fetch.ArxivFetcher{Client: &http.Client{Timeout: cfg.Fetch.Timeout}},
			Evaluator: batch.NewClient(cfg.Batch),
			Publisher: digest.NewPublisher(cfg.Digest),
			Seen:      seen.NewStore(cfg.StatePath, os.Stdout),
			Log:       os.Stdout,
		}

		_, err = p.Run(cmd.Context())
		return err
	},
}

// dryRunRequests fetches and filters papers, then prints the scoring
// requests that a real run would submit.
func dryRunRequests(ctx context.Context, cfg types.PipelineConfig, team types.TeamProfile) error {
	lookback := fetch.LookbackDays(time.Now(), cfg.Fetch.CatchupWeekday)

	fetcher := &fetch.ArxivFetcher{Client: &http.Client{Timeout: cfg.Fetch.Timeout}}
	papers, err := fetcher.Search(ctx, cfg.Fetch, lookback)
	if err != nil {
		return err
	}

	store := seen.NewStore(cfg.StatePath, os.Stderr)
	seenSet, err := store.Load()
	if err != nil {
		return err
	}
	unseen := fetch.FilterUnseen(papers, seenSet)
	fmt.Fprintf(os.Stderr, "dry run: %d fetched, %d new\n", len(papers), len(unseen))

	if len(unseen) == 0 {
		return nil
	}

	requests, err := batch.BuildRequests(unseen, team, cfg.Batch.Model)
	if err != nil {
		return err
	}
	payload, err := batch.EncodeJSONL(requests)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(payload)
	return err
}

func init() {
	runCmd.Flags().Duration("interval", 0, "poll interval while waiting for the batch (default 30s)")
	runCmd.Flags().Duration("max-wait", 0, "abandon the batch if not finished within this duration (default 24h)")
	runCmd.Flags().Int("top", 0, "maximum papers in the digest (default 10)")
	runCmd.Flags().Bool("dry-run", false, "print the scoring requests as JSONL without submitting")

	rootCmd.AddCommand(runCmd)
}
