// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/pkg/types"
)

func testProfile() types.TeamProfile {
	return types.TeamProfile{
		Focus:     "Building a batched API server for cheap inference.",
		Interests: []string{"Batched generative AI workloads", "Inference optimization"},
		Avoid:     []string{"Pure theoretical papers without applications"},
	}
}

func testPapers() []types.Paper {
	return []types.Paper{
		{ID: "2301.00001", Title: "Paper A", Abstract: "Abstract A"},
		{ID: "2301.00002", Title: "Paper B", Abstract: "Abstract B"},
	}
}

func TestBuildRequestsOnePerPaper(t *testing.T) {
	requests, err := BuildRequests(testPapers(), testProfile(), "gpt-4o-mini")
	require.NoError(t, err)
	require.Len(t, requests, 2, "every paper gets a request, no filtering")

	for i, req := range requests {
		assert.Equal(t, testPapers()[i].ID, req.CustomID, "paper ID is the correlation key")
		assert.Equal(t, "POST", req.Method)
		assert.Equal(t, "/v1/chat/completions", req.URL)
		assert.Equal(t, "gpt-4o-mini", req.Body.Model)
		require.Len(t, req.Body.Messages, 2)
		assert.Equal(t, "system", req.Body.Messages[0].Role)
		assert.Contains(t, req.Body.Messages[0].Content, "ONLY valid JSON")
	}
}

func TestBuildRequestsPromptContent(t *testing.T) {
	requests, err := BuildRequests(testPapers()[:1], testProfile(), "m")
	require.NoError(t, err)

	prompt := requests[0].Body.Messages[1].Content
	assert.Contains(t, prompt, "Building a batched API server")
	assert.Contains(t, prompt, "- Batched generative AI workloads")
	assert.Contains(t, prompt, "- Pure theoretical papers without applications")
	assert.Contains(t, prompt, "Paper A")
	assert.Contains(t, prompt, "Abstract A")
	// The threshold derivations ride inside the prompt instructions.
	assert.Contains(t, prompt, "relevance_score >= 7")
	assert.Contains(t, prompt, "more than 60 words")
	assert.Contains(t, prompt, "exactly one sentence")
}

func TestEncodeJSONL(t *testing.T) {
	requests, err := BuildRequests(testPapers(), testProfile(), "m")
	require.NoError(t, err)

	payload, err := EncodeJSONL(requests)
	require.NoError(t, err)

	scanner := bufio.NewScanner(bytes.NewReader(payload))
	scanner.Buffer(make([]byte, 64*1024), maxResultLine)

	var ids []string
	for scanner.Scan() {
		var req Request
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &req), "each line is standalone JSON")
		ids = append(ids, req.CustomID)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"2301.00001", "2301.00002"}, ids)
}

func TestEncodeJSONLEmpty(t *testing.T) {
	payload, err := EncodeJSONL(nil)
	require.NoError(t, err)
	assert.Empty(t, payload)
}
