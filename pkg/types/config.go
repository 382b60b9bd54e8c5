// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the paper fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Keywords are the search terms OR-ed into the arXiv query.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// MaxResults is the maximum number of papers requested per run (default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// CatchupWeekday is the day on which the lookback window widens to
	// three days to bridge the weekend submission gap (default Monday).
	CatchupWeekday time.Weekday `json:"catchup_weekday" yaml:"catchup_weekday"`
}

// BatchConfig holds settings for batch evaluation against the LLM API.
type BatchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the root of the OpenAI-compatible batch API.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is the bearer token for the batch API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the model identifier used for every scoring request.
	Model string `json:"model" yaml:"model"`

	// PollInterval is the delay between job status checks (default 30s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// MaxWait bounds the total time spent polling one job (default 24h,
	// matching the completion window enforced by the external system).
	MaxWait time.Duration `json:"max_wait" yaml:"max_wait"`
}

// DigestConfig holds settings for ranking and Slack delivery.
type DigestConfig struct {
	HTTPConfig `yaml:",inline"`

	// WebhookURL is the Slack incoming-webhook endpoint.
	WebhookURL string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`

	// TopN is the maximum number of papers included in the digest (default 10).
	TopN int `json:"top_n" yaml:"top_n"`
}

// PipelineConfig groups all stage configurations for one daily run.
type PipelineConfig struct {
	Fetch  FetchConfig  `json:"fetch" yaml:"fetch"`
	Batch  BatchConfig  `json:"batch" yaml:"batch"`
	Digest DigestConfig `json:"digest" yaml:"digest"`

	// StatePath is the seen-set file location (default "data/seen_papers.json").
	StatePath string `json:"state_path" yaml:"state_path"`

	// ProfilePath is the team profile YAML location; empty uses the built-in default.
	ProfilePath string `json:"profile_path,omitempty" yaml:"profile_path,omitempty"`
}

// TeamProfile is the read-only curation profile embedded in every scoring
// prompt. It is loaded once at startup and never mutated.
type TeamProfile struct {
	// Focus is a short statement of what the team is building.
	Focus string `json:"focus" yaml:"focus"`

	// Interests lists topics the team cares about.
	Interests []string `json:"interests" yaml:"interests"`

	// Avoid lists topics to score down.
	Avoid []string `json:"avoid" yaml:"avoid"`
}
