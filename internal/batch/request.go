// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// systemInstruction pins the model to bare JSON output. The parser still
// tolerates deviations; see parse.go.
const systemInstruction = "You are a model that must output ONLY valid JSON. No explanations. No extra text."

// scoringPromptTmpl is the per-paper evaluation prompt. It embeds the team
// profile and instructs the model to derive the relevance flag from a fixed
// score threshold and the summary flag from abstract length.
var scoringPromptTmpl = template.Must(template.New("scoring").Parse(`You are curating research papers for an AI engineering team.

TEAM PROFILE:
Focus: {{.Profile.Focus}}

What they care about:
{{range .Profile.Interests}}- {{.}}
{{end}}
What to avoid:
{{range .Profile.Avoid}}- {{.}}
{{end}}
Evaluate this research paper.

TITLE:
{{.Paper.Title}}

ABSTRACT:
{{.Paper.Abstract}}

INSTRUCTIONS:
1. relevance_score: output an integer from 0 to 10.
2. is_relevant: true if relevance_score >= 7, else false.
3. needs_summary: true if the abstract is more than 60 words, else false.
4. summary: if needs_summary is true, write a 1-2 sentence summary; otherwise use null.
5. key_insight: write exactly one sentence stating the main takeaway.

Respond ONLY with valid JSON in this format:

{
"relevance_score": 0,
"is_relevant": false,
"needs_summary": false,
"summary": null,
"key_insight": "string"
}
`))

// Request is one line of the batch input payload, in the batch API's
// envelope format. CustomID carries the paper ID and is the only link
// between a result line and its paper.
type Request struct {
	CustomID string      `json:"custom_id"`
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Body     RequestBody `json:"body"`
}

// RequestBody is the chat-completion payload for one scoring request.
type RequestBody struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionsPath is the fixed endpoint every batch request targets.
const completionsPath = "/v1/chat/completions"

// BuildRequests constructs one scoring request per paper. Every paper gets
// a request; no filtering or validation of paper content happens here.
func BuildRequests(papers []types.Paper, profile types.TeamProfile, model string) ([]Request, error) {
	requests := make([]Request, 0, len(papers))
	for _, p := range papers {
		prompt, err := renderScoringPrompt(profile, p)
		if err != nil {
			return nil, fmt.Errorf("rendering prompt for %s: %w", p.ID, err)
		}

		requests = append(requests, Request{
			CustomID: p.ID,
			Method:   "POST",
			URL:      completionsPath,
			Body: RequestBody{
				Model: model,
				Messages: []Message{
					{Role: "system", Content: systemInstruction},
					{Role: "user", Content: prompt},
				},
			},
		})
	}
	return requests, nil
}

// EncodeJSONL serializes requests as a newline-delimited payload, one
// JSON object per line, the format the batch file-upload endpoint expects.
func EncodeJSONL(requests []Request) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, req := range requests {
		if err := enc.Encode(req); err != nil {
			return nil, fmt.Errorf("encoding request %s: %w", req.CustomID, err)
		}
	}
	return buf.Bytes(), nil
}

func renderScoringPrompt(profile types.TeamProfile, paper types.Paper) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Profile types.TeamProfile
		Paper   types.Paper
	}{profile, paper}
	if err := scoringPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
