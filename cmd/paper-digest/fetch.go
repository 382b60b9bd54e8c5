// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/fetch"
	"github.com/pdiddy/paper-digest/internal/seen"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "List new unseen papers without evaluating them",
	Long: `Fetch queries arXiv with the configured keywords and prints the papers
that have not been delivered in a previous digest. Nothing is submitted
for evaluation and no state is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipelineConfig()
		if err != nil {
			return err
		}

		lookback := fetch.LookbackDays(time.Now(), cfg.Fetch.CatchupWeekday)

		fetcher := &fetch.ArxivFetcher{Client: &http.Client{Timeout: cfg.Fetch.Timeout}}
		papers, err := fetcher.Search(cmd.Context(), cfg.Fetch, lookback)
		if err != nil {
			return err
		}

		store := seen.NewStore(cfg.StatePath, os.Stderr)
		seenSet, err := store.Load()
		if err != nil {
			return err
		}
		unseen := fetch.FilterUnseen(papers, seenSet)

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(unseen)
		}

		fmt.Printf("%d new papers (%d fetched, lookback %dd)\n", len(unseen), len(papers), lookback)
		for i, p := range unseen {
			fmt.Printf("  %d. %s  %s (%s)\n", i+1, p.ID, p.Title, p.Published.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().Bool("json", false, "print papers as JSON")

	rootCmd.AddCommand(fetchCmd)
}
