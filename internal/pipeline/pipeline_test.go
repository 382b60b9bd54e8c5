// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/internal/batch"
	"github.com/pdiddy/paper-digest/internal/seen"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// --- mocks ---

type mockFetcher struct {
	papers []types.Paper
	err    error

	gotLookback int
}

func (m *mockFetcher) Search(_ context.Context, _ types.FetchConfig, lookbackDays int) ([]types.Paper, error) {
	m.gotLookback = lookbackDays
	return m.papers, m.err
}

type mockEvaluator struct {
	records   []types.EvaluationRecord
	submitErr error
	pollErr   error

	gotRequests []batch.Request
	submitted   bool
}

func (m *mockEvaluator) Submit(_ context.Context, requests []batch.Request) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.gotRequests = requests
	m.submitted = true
	return "batch-1", nil
}

func (m *mockEvaluator) Poll(_ context.Context, _ string, _, _ time.Duration, _ io.Writer) ([]types.EvaluationRecord, error) {
	return m.records, m.pollErr
}

type mockPublisher struct {
	err error

	gotRecords []types.EvaluationRecord
	gotPapers  []types.Paper
	called     bool
}

func (m *mockPublisher) Send(_ context.Context, records []types.EvaluationRecord, papers []types.Paper, _ io.Writer) error {
	m.called = true
	m.gotRecords = records
	m.gotPapers = papers
	return m.err
}

// --- helpers ---

func paper(id string) types.Paper {
	return types.Paper{ID: id, Title: "T-" + id, Abstract: "A-" + id, URL: "http://arxiv.org/abs/" + id}
}

func evaluation(id string, score int) types.EvaluationRecord {
	return types.EvaluationRecord{PaperID: id, RelevanceScore: score, IsRelevant: score >= 7, KeyInsight: "k"}
}

func newPipeline(t *testing.T, f *mockFetcher, e *mockEvaluator, pub *mockPublisher) (*Pipeline, *seen.Store) {
	t.Helper()
	store := seen.NewStore(filepath.Join(t.TempDir(), "seen_papers.json"), io.Discard)
	return &Pipeline{
		Config: types.PipelineConfig{
			Fetch:  types.FetchConfig{Keywords: []string{"LLM"}, CatchupWeekday: time.Monday},
			Batch:  types.BatchConfig{Model: "m", PollInterval: time.Millisecond},
			Digest: types.DigestConfig{TopN: 10},
		},
		Profile:   types.TeamProfile{Focus: "f"},
		Fetcher:   f,
		Evaluator: e,
		Publisher: pub,
		Seen:      store,
		Log:       &bytes.Buffer{},
	}, store
}

// --- tests ---

func TestRunEndToEnd(t *testing.T) {
	// Three fetched papers, one already seen: two requests are built, the
	// batch returns two records, one clears the relevance bar, and the
	// digest carries exactly that one. Afterwards all three IDs are seen,
	// including the low scorer.
	f := &mockFetcher{papers: []types.Paper{paper("p1"), paper("p2"), paper("p3")}}
	e := &mockEvaluator{records: []types.EvaluationRecord{evaluation("p2", 9), evaluation("p3", 4)}}
	pub := &mockPublisher{}

	p, store := newPipeline(t, f, e, pub)
	require.NoError(t, store.Save(map[string]struct{}{"p1": {}}))

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Fetched: 3, New: 2, Evaluated: 2, Relevant: 1, Delivered: true}, summary)

	require.Len(t, e.gotRequests, 2)
	assert.Equal(t, "p2", e.gotRequests[0].CustomID)
	assert.Equal(t, "p3", e.gotRequests[1].CustomID)

	require.Len(t, pub.gotRecords, 1)
	assert.Equal(t, "p2", pub.gotRecords[0].PaperID)
	require.Len(t, pub.gotPapers, 2, "publisher joins against the unseen set")

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"p1": {}, "p2": {}, "p3": {}}, got)
}

func TestRunNoNewPapers(t *testing.T) {
	f := &mockFetcher{papers: []types.Paper{paper("p1")}}
	e := &mockEvaluator{}
	pub := &mockPublisher{}

	p, store := newPipeline(t, f, e, pub)
	require.NoError(t, store.Save(map[string]struct{}{"p1": {}}))

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Fetched: 1, New: 0}, summary)
	assert.False(t, e.submitted, "nothing to evaluate")
	assert.False(t, pub.called)
}

func TestRunBatchFailureLeavesSeenSetUntouched(t *testing.T) {
	f := &mockFetcher{papers: []types.Paper{paper("p1")}}
	e := &mockEvaluator{records: nil} // terminal failure: no results
	pub := &mockPublisher{}

	p, store := newPipeline(t, f, e, pub)

	summary, err := p.Run(context.Background())
	require.NoError(t, err, "a failed batch ends the run gracefully")
	assert.Equal(t, 0, summary.Evaluated)
	assert.False(t, pub.called, "no digest for a failed batch")

	got, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, got, "unevaluated papers must not be marked seen")
}

func TestRunSubmitErrorAborts(t *testing.T) {
	f := &mockFetcher{papers: []types.Paper{paper("p1")}}
	e := &mockEvaluator{submitErr: errors.New("upload refused")}
	pub := &mockPublisher{}

	p, store := newPipeline(t, f, e, pub)

	_, err := p.Run(context.Background())
	assert.ErrorContains(t, err, "submitting batch")

	got, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.Empty(t, got)
}

func TestRunPublishErrorLeavesSeenSetUntouched(t *testing.T) {
	f := &mockFetcher{papers: []types.Paper{paper("p1")}}
	e := &mockEvaluator{records: []types.EvaluationRecord{evaluation("p1", 9)}}
	pub := &mockPublisher{err: errors.New("webhook returned HTTP 403")}

	p, store := newPipeline(t, f, e, pub)

	_, err := p.Run(context.Background())
	assert.ErrorContains(t, err, "sending digest")

	got, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.Empty(t, got, "failed delivery must leave papers retryable")
}

func TestRunNothingRelevantStillMarksSeen(t *testing.T) {
	f := &mockFetcher{papers: []types.Paper{paper("p1")}}
	e := &mockEvaluator{records: []types.EvaluationRecord{evaluation("p1", 2)}}
	pub := &mockPublisher{}

	p, store := newPipeline(t, f, e, pub)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Relevant)
	assert.False(t, summary.Delivered)
	assert.True(t, pub.called, "publisher decides to skip an empty digest itself")

	got, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.Contains(t, got, "p1", "a low score is still a verdict")
}

func TestRunCompletedBatchWithNoParsedRecordsStillMarksSeen(t *testing.T) {
	// A completed batch whose lines all failed to parse is not a failed
	// batch: the papers were evaluated, so they are tracked.
	f := &mockFetcher{papers: []types.Paper{paper("p1")}}
	e := &mockEvaluator{records: []types.EvaluationRecord{}}
	pub := &mockPublisher{}

	p, store := newPipeline(t, f, e, pub)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	got, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.Contains(t, got, "p1")
}

func TestRunFetchErrorAborts(t *testing.T) {
	f := &mockFetcher{err: errors.New("arXiv API returned HTTP 503")}
	p, _ := newPipeline(t, f, &mockEvaluator{}, &mockPublisher{})

	_, err := p.Run(context.Background())
	assert.ErrorContains(t, err, "fetching papers")
}

func TestRunLookbackFollowsWeekday(t *testing.T) {
	monday := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	for _, tt := range []struct {
		day  time.Time
		want int
	}{
		{monday, 3},
		{monday.AddDate(0, 0, 2), 1},
	} {
		f := &mockFetcher{}
		p, _ := newPipeline(t, f, &mockEvaluator{}, &mockPublisher{})
		day := tt.day
		p.Now = func() time.Time { return day }

		_, err := p.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tt.want, f.gotLookback, fmt.Sprintf("run on %s", day.Weekday()))
	}
}

func TestRunSaveFailureIsFatal(t *testing.T) {
	f := &mockFetcher{papers: []types.Paper{paper("p1")}}
	e := &mockEvaluator{records: []types.EvaluationRecord{evaluation("p1", 9)}}
	pub := &mockPublisher{}

	p, _ := newPipeline(t, f, e, pub)
	// Point the store at a path whose rename target is a directory.
	p.Seen = seen.NewStore(t.TempDir(), io.Discard)

	_, err := p.Run(context.Background())
	assert.Error(t, err, "state inconsistency must not be silently swallowed")
}
