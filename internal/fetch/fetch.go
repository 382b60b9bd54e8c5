// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves candidate papers published within a lookback
// window and filters out papers already delivered in an earlier digest.
package fetch

import (
	"context"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Fetcher returns candidate papers for one run. The arXiv backend is the
// production implementation; tests supply a mock.
type Fetcher interface {
	Search(ctx context.Context, cfg types.FetchConfig, lookbackDays int) ([]types.Paper, error)
}

// LookbackDays returns the fetch window in days for a run starting at now.
// Normally one day; on the catch-up weekday it widens to three days so
// papers submitted over the weekend publication gap are not missed.
func LookbackDays(now time.Time, catchup time.Weekday) int {
	if now.Weekday() == catchup {
		return 3
	}
	return 1
}

// FilterUnseen returns the papers whose ID is not in seen, preserving
// input order. Pure; no side effects.
func FilterUnseen(papers []types.Paper, seen map[string]struct{}) []types.Paper {
	var unseen []types.Paper
	for _, p := range papers {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		unseen = append(unseen, p)
	}
	return unseen
}
