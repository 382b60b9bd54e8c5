// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// ErrPollTimeout is returned when a job does not reach a terminal state
// within the configured maximum wait.
var ErrPollTimeout = errors.New("batch did not finish within the maximum wait")

// Poll blocks until the job reaches a terminal state, checking at the
// given interval. On completed it fetches the output file and returns the
// parsed records; the slice is non-nil even when every line was dropped.
// On failed, expired, or cancelled it returns nil records and no error;
// the caller reports the condition and skips delivery.
//
// maxWait bounds the total wait; zero means no local bound (the external
// system still enforces the completion window). Status is printed to w on
// every check.
func (c *Client) Poll(ctx context.Context, batchID string, interval, maxWait time.Duration, w io.Writer) ([]types.EvaluationRecord, error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	var deadline time.Time
	if maxWait > 0 {
		deadline = time.Now().Add(maxWait)
	}

	for {
		job, err := c.GetBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}

		fmt.Fprintf(w, "batch %s: %s (%d/%d completed)\n",
			job.ID, job.Status, job.RequestCounts.Completed, job.RequestCounts.Total)

		switch {
		case job.Status == types.BatchCompleted:
			return c.fetchResults(ctx, job, w)
		case job.Status.Terminal():
			fmt.Fprintf(w, "batch %s ended without results: %s\n", job.ID, job.Status)
			return nil, nil
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: batch %s still %s after %v", ErrPollTimeout, job.ID, job.Status, maxWait)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// fetchResults retrieves and parses the output file of a completed job.
func (c *Client) fetchResults(ctx context.Context, job types.BatchJob, w io.Writer) ([]types.EvaluationRecord, error) {
	if job.OutputFileID == "" {
		return nil, fmt.Errorf("batch %s completed without an output file", job.ID)
	}

	body, err := c.FileContent(ctx, job.OutputFileID)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return ParseOutput(body, w)
}
