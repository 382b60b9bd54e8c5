// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest ranks evaluation records and delivers the daily digest
// to a Slack channel.
package digest

import (
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Top keeps the records the model marked relevant, sorts them by score
// descending, and truncates to the first n. The sort is stable, so tied
// scores keep their original relative order. Pure apart from the count
// logging on w.
func Top(records []types.EvaluationRecord, n int, w io.Writer) []types.EvaluationRecord {
	var relevant []types.EvaluationRecord
	for _, r := range records {
		if r.IsRelevant {
			relevant = append(relevant, r)
		}
	}

	fmt.Fprintf(w, "found %d relevant papers out of %d total\n", len(relevant), len(records))

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].RelevanceScore > relevant[j].RelevanceScore
	})

	if n > 0 && len(relevant) > n {
		relevant = relevant[:n]
	}

	for i, r := range relevant {
		fmt.Fprintf(w, "  %d. [%d/10] %s\n", i+1, r.RelevanceScore, r.PaperID)
	}
	return relevant
}
