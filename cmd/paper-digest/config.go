// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Built-in defaults; overridable via config file or PAPER_DIGEST_* env.
const (
	defaultUserAgent    = "paper-digest/0.1"
	defaultHTTPTimeout  = 60 * time.Second
	defaultMaxResults   = 100
	defaultPollInterval = 30 * time.Second
	defaultMaxWait      = 24 * time.Hour
	defaultTopN         = 10
	defaultStatePath    = "data/seen_papers.json"
)

// defaultKeywords mirrors the team's standing arXiv query.
var defaultKeywords = []string{"large language models", "LLM", "transformers"}

// pipelineConfig assembles the run configuration from the config file,
// environment, and secrets, in that order of precedence.
func pipelineConfig() (types.PipelineConfig, error) {
	viper.SetDefault("fetch.user_agent", defaultUserAgent)
	viper.SetDefault("fetch.timeout", defaultHTTPTimeout)
	viper.SetDefault("fetch.max_results", defaultMaxResults)
	viper.SetDefault("fetch.keywords", defaultKeywords)
	viper.SetDefault("fetch.catchup_weekday", "monday")
	viper.SetDefault("batch.timeout", defaultHTTPTimeout)
	viper.SetDefault("batch.poll_interval", defaultPollInterval)
	viper.SetDefault("batch.max_wait", defaultMaxWait)
	viper.SetDefault("digest.timeout", defaultHTTPTimeout)
	viper.SetDefault("digest.top_n", defaultTopN)
	viper.SetDefault("state_path", defaultStatePath)

	catchup, err := parseWeekday(viper.GetString("fetch.catchup_weekday"))
	if err != nil {
		return types.PipelineConfig{}, err
	}

	cfg := types.PipelineConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("fetch.timeout"),
				UserAgent: viper.GetString("fetch.user_agent"),
			},
			Keywords:       viper.GetStringSlice("fetch.keywords"),
			MaxResults:     viper.GetInt("fetch.max_results"),
			CatchupWeekday: catchup,
		},
		Batch: types.BatchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("batch.timeout"),
				UserAgent: viper.GetString("fetch.user_agent"),
			},
			BaseURL:      strings.TrimRight(viper.GetString("batch.base_url"), "/"),
			APIKey:       secretDefault("batch-api-key", viper.GetString("batch.api_key")),
			Model:        viper.GetString("batch.model"),
			PollInterval: viper.GetDuration("batch.poll_interval"),
			MaxWait:      viper.GetDuration("batch.max_wait"),
		},
		Digest: types.DigestConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout: viper.GetDuration("digest.timeout"),
			},
			WebhookURL: secretDefault("slack-webhook-url", viper.GetString("digest.webhook_url")),
			TopN:       viper.GetInt("digest.top_n"),
		},
		StatePath:   viper.GetString("state_path"),
		ProfilePath: viper.GetString("profile_path"),
	}
	return cfg, nil
}

// validateForRun checks the values a full evaluation run cannot proceed
// without. Absence of any is a startup-time fatal condition.
func validateForRun(cfg types.PipelineConfig) error {
	var missing []string
	if cfg.Batch.BaseURL == "" {
		missing = append(missing, "batch.base_url")
	}
	if cfg.Batch.APIKey == "" {
		missing = append(missing, "batch.api_key (or .secrets/batch-api-key)")
	}
	if cfg.Batch.Model == "" {
		missing = append(missing, "batch.model")
	}
	if cfg.Digest.WebhookURL == "" {
		missing = append(missing, "digest.webhook_url (or .secrets/slack-webhook-url)")
	}
	if len(cfg.Fetch.Keywords) == 0 {
		missing = append(missing, "fetch.keywords")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// validateForBatch is the subset needed to talk to the batch API alone.
func validateForBatch(cfg types.PipelineConfig) error {
	if cfg.Batch.BaseURL == "" || cfg.Batch.APIKey == "" {
		return fmt.Errorf("missing required configuration: batch.base_url and batch.api_key")
	}
	return nil
}

func parseWeekday(name string) (time.Weekday, error) {
	days := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	if d, ok := days[strings.ToLower(name)]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("invalid fetch.catchup_weekday %q", name)
}
