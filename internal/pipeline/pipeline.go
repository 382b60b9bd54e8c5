// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires one daily digest run: fetch, dedup, batch
// evaluation, ranking, delivery, and state update.
//
// Failure handling follows three tiers. Per-item problems (one result
// line, one missing join) are logged and skipped inside the stage that
// hits them. A batch that ends without results is reported and the run
// stops with the seen-set untouched, so the same papers are retried next
// run. Submit, delivery, and state-write failures abort the run: a paper
// is only marked seen after a run that actually evaluated it and
// delivered (or legitimately skipped) the digest.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/paper-digest/internal/batch"
	"github.com/pdiddy/paper-digest/internal/digest"
	"github.com/pdiddy/paper-digest/internal/fetch"
	"github.com/pdiddy/paper-digest/internal/seen"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Evaluator submits scoring requests and polls the job to completion.
// *batch.Client is the production implementation.
type Evaluator interface {
	Submit(ctx context.Context, requests []batch.Request) (string, error)
	Poll(ctx context.Context, batchID string, interval, maxWait time.Duration, w io.Writer) ([]types.EvaluationRecord, error)
}

// Publisher delivers the ranked digest. *digest.Publisher is the
// production implementation.
type Publisher interface {
	Send(ctx context.Context, records []types.EvaluationRecord, papers []types.Paper, w io.Writer) error
}

// Pipeline holds the collaborators for one run.
type Pipeline struct {
	Config    types.PipelineConfig
	Profile   types.TeamProfile
	Fetcher   fetch.Fetcher
	Evaluator Evaluator
	Publisher Publisher
	Seen      *seen.Store
	Log       io.Writer

	// Now supplies the run start time; tests pin it to control the
	// lookback weekday. Defaults to time.Now.
	Now func() time.Time
}

// Summary holds the counts from one run.
type Summary struct {
	Fetched   int
	New       int
	Evaluated int
	Relevant  int
	Delivered bool
}

const (
	defaultTopN    = 10
	defaultMaxWait = 24 * time.Hour
)

// Run executes the daily pipeline once.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	var summary Summary

	lookback := fetch.LookbackDays(now(), p.Config.Fetch.CatchupWeekday)
	fmt.Fprintf(p.Log, "fetching papers (lookback %dd)...\n", lookback)

	papers, err := p.Fetcher.Search(ctx, p.Config.Fetch, lookback)
	if err != nil {
		return summary, fmt.Errorf("fetching papers: %w", err)
	}
	summary.Fetched = len(papers)

	seenSet, err := p.Seen.Load()
	if err != nil {
		return summary, err
	}

	unseen := fetch.FilterUnseen(papers, seenSet)
	summary.New = len(unseen)
	if len(unseen) == 0 {
		fmt.Fprintln(p.Log, "no new papers today")
		return summary, nil
	}
	fmt.Fprintf(p.Log, "found %d new papers\n", len(unseen))

	requests, err := batch.BuildRequests(unseen, p.Profile, p.Config.Batch.Model)
	if err != nil {
		return summary, err
	}

	batchID, err := p.Evaluator.Submit(ctx, requests)
	if err != nil {
		return summary, fmt.Errorf("submitting batch: %w", err)
	}
	fmt.Fprintf(p.Log, "batch submitted: %s\n", batchID)

	maxWait := p.Config.Batch.MaxWait
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	records, err := p.Evaluator.Poll(ctx, batchID, p.Config.Batch.PollInterval, maxWait, p.Log)
	if err != nil {
		return summary, err
	}
	if records == nil {
		// Terminal batch failure. Nothing was evaluated, so nothing is
		// marked seen; the same papers are picked up next run.
		fmt.Fprintln(p.Log, "batch ended without results; papers will be retried next run")
		return summary, nil
	}
	summary.Evaluated = len(records)

	topN := p.Config.Digest.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	top := digest.Top(records, topN, p.Log)
	summary.Relevant = len(top)

	if err := p.Publisher.Send(ctx, top, unseen, p.Log); err != nil {
		// Delivery failed: leave the seen-set alone so the digest for
		// these papers is attempted again next run.
		return summary, fmt.Errorf("sending digest: %w", err)
	}
	summary.Delivered = len(top) > 0

	// Track every evaluated paper, not just the delivered ones; a low
	// score is still a verdict.
	ids := make(map[string]struct{}, len(unseen))
	for _, paper := range unseen {
		ids[paper.ID] = struct{}{}
	}
	if err := p.Seen.Save(ids); err != nil {
		return summary, err
	}

	fmt.Fprintf(p.Log, "run complete: %d fetched, %d new, %d evaluated, %d relevant\n",
		summary.Fetched, summary.New, summary.Evaluated, summary.Relevant)
	return summary, nil
}
