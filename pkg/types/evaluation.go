// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EvaluationRecord is one parsed model verdict for a paper. The score,
// flags, and text all come from the model; the parser validates structure
// only, so the score/flag relationship must be treated as untrusted.
type EvaluationRecord struct {
	// PaperID links the record back to the evaluated Paper. It is filled
	// from the batch envelope's correlation key, not from the model output.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// RelevanceScore is the model's 0-10 relevance rating.
	RelevanceScore int `json:"relevance_score" yaml:"relevance_score"`

	// IsRelevant is the model's score>=7 derivation.
	IsRelevant bool `json:"is_relevant" yaml:"is_relevant"`

	// NeedsSummary is true when the abstract exceeded the summary threshold.
	NeedsSummary bool `json:"needs_summary" yaml:"needs_summary"`

	// Summary is the model's 1-2 sentence summary, or nil when not needed.
	Summary *string `json:"summary" yaml:"summary"`

	// KeyInsight is the model's one-sentence takeaway.
	KeyInsight string `json:"key_insight" yaml:"key_insight"`
}

// BatchStatus is the lifecycle state of a batch job as reported by the
// batch API. The external system is the source of truth.
type BatchStatus string

const (
	BatchValidating BatchStatus = "validating"
	BatchInProgress BatchStatus = "in_progress"
	BatchFinalizing BatchStatus = "finalizing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
	BatchExpired    BatchStatus = "expired"
	BatchCancelling BatchStatus = "cancelling"
	BatchCancelled  BatchStatus = "cancelled"
)

// Terminal reports whether the status is final and polling should stop.
func (s BatchStatus) Terminal() bool {
	switch s {
	case BatchCompleted, BatchFailed, BatchExpired, BatchCancelled:
		return true
	}
	return false
}

// RequestCounts tracks per-request progress within a batch job.
type RequestCounts struct {
	Completed int `json:"completed" yaml:"completed"`
	Failed    int `json:"failed" yaml:"failed"`
	Total     int `json:"total" yaml:"total"`
}

// BatchJob mirrors the batch API's job resource for one evaluation run.
type BatchJob struct {
	// ID is the job identifier assigned by the batch API.
	ID string `json:"id" yaml:"id"`

	// Status is the job's lifecycle state.
	Status BatchStatus `json:"status" yaml:"status"`

	// RequestCounts reports completed/failed/total request progress.
	RequestCounts RequestCounts `json:"request_counts" yaml:"request_counts"`

	// OutputFileID references the result file once the job completes.
	OutputFileID string `json:"output_file_id" yaml:"output_file_id"`
}
