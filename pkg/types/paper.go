// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-digest pipeline.
package types

import "time"

// Paper holds the metadata for one candidate paper returned by the fetcher.
// Papers are immutable for the duration of a run; ID is stable across runs
// and is the key used to correlate evaluation results and the seen-set.
type Paper struct {
	// ID is the arXiv identifier without version suffix (e.g. "2301.07041").
	ID string `json:"id" yaml:"id"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Published is the submission date reported by the source.
	Published time.Time `json:"published" yaml:"published"`

	// URL is the paper's abstract page.
	URL string `json:"url" yaml:"url"`
}
