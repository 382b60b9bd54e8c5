// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile loads the team curation profile embedded in every
// scoring prompt.
package profile

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Default is the built-in profile used when no profile file is configured.
func Default() types.TeamProfile {
	return types.TeamProfile{
		Focus: "The team is working on building a batched API server to offer the cheapest intelligence possible. Please give any relevant papers that would be helpful when they are designing this application.",
		Interests: []string{
			"Batched generative AI workloads",
			"Inference optimization and cost reduction",
			"Open source models",
			"verification of llm answers",
			"llm as a judge",
		},
		Avoid: []string{
			"Pure theoretical papers without applications",
			"Incremental benchmark improvements",
			"Papers focused on training from scratch",
		},
	}
}

// Load reads a TeamProfile from a YAML file. An empty path returns the
// built-in default. A missing or unparseable file is an error: a digest
// scored against the wrong profile is worse than no digest.
func Load(path string) (types.TeamProfile, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.TeamProfile{}, fmt.Errorf("reading profile %s: %w", path, err)
	}

	var p types.TeamProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return types.TeamProfile{}, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if p.Focus == "" {
		return types.TeamProfile{}, fmt.Errorf("profile %s has no focus statement", path)
	}
	return p, nil
}
