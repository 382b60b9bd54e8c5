// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// thinkSpanRE matches a reasoning span emitted by thinking models. The
// match is non-greedy and may cover multiple lines.
var thinkSpanRE = regexp.MustCompile(`(?s)<think>.*?</think>`)

// ParseEvaluation extracts one evaluation record from raw model output.
// The model is instructed to emit bare JSON but does not always comply,
// so the parser tolerates reasoning spans and surrounding prose:
//
//  1. strip any <think>...</think> span,
//  2. trim whitespace,
//  3. if the content starts with '{', parse it directly,
//  4. otherwise scan for an embedded balanced JSON object and parse that.
//
// Returns ok=false when no attempt yields valid JSON. That is a soft
// failure; the caller logs it and drops the record.
func ParseEvaluation(raw string) (types.EvaluationRecord, bool) {
	content := thinkSpanRE.ReplaceAllString(raw, "")
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "{") {
		var rec types.EvaluationRecord
		if err := json.Unmarshal([]byte(content), &rec); err == nil {
			return rec, true
		}
	}

	// Largest bracketed region first: everything from the first '{' to the
	// last '}'. This is what a single JSON object wrapped in prose reduces to.
	first := strings.IndexByte(content, '{')
	last := strings.LastIndexByte(content, '}')
	if first >= 0 && last > first {
		var rec types.EvaluationRecord
		if err := json.Unmarshal([]byte(content[first:last+1]), &rec); err == nil {
			return rec, true
		}
	}

	// The greedy span can splice unrelated blocks together; fall back to
	// individually balanced regions.
	for _, candidate := range jsonCandidates(content) {
		var rec types.EvaluationRecord
		if err := json.Unmarshal([]byte(candidate), &rec); err == nil {
			return rec, true
		}
	}

	return types.EvaluationRecord{}, false
}

// jsonCandidates returns balanced {...} regions of content, in order of
// appearance. Each candidate starts at a '{' and ends at the brace that
// balances it. The scan tracks string literals and escapes, so braces
// inside JSON strings do not confuse the depth count; a naive greedy
// regex can splice unrelated blocks into an invalid candidate.
func jsonCandidates(content string) []string {
	var candidates []string

	for start := 0; start < len(content); start++ {
		if content[start] != '{' {
			continue
		}

		end := matchBrace(content, start)
		if end < 0 {
			// No balanced close from here; later opens are inside
			// this unterminated region, so stop scanning.
			break
		}

		candidates = append(candidates, content[start:end+1])
		start = end
	}
	return candidates
}

// matchBrace returns the index of the brace closing the object that opens
// at start, or -1 when the text ends before the object is balanced.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// envelope is one line of the batch output file: the correlation key plus
// the nested chat-completion response carrying the model's raw text.
type envelope struct {
	CustomID string `json:"custom_id"`
	Response struct {
		Body struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		} `json:"body"`
	} `json:"response"`
}

// maxResultLine bounds one output line; abstracts and reasoning spans can
// make result lines long.
const maxResultLine = 1 << 20

// ParseOutput reads newline-delimited result envelopes and returns the
// evaluation records that parse. The correlation key is taken from the
// envelope, never from the model content, and is attached as PaperID.
// Per-line failures are logged to w and skipped; they never abort the
// batch.
func ParseOutput(r io.Reader, w io.Writer) ([]types.EvaluationRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxResultLine)

	// Non-nil even when every line is dropped: a completed batch with no
	// parseable records is not the same as a failed batch.
	records := []types.EvaluationRecord{}
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var env envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			fmt.Fprintf(w, "skipping line %d: %v\n", lineNo, err)
			continue
		}
		if env.CustomID == "" {
			fmt.Fprintf(w, "skipping line %d: missing custom_id\n", lineNo)
			continue
		}
		if len(env.Response.Body.Choices) == 0 {
			fmt.Fprintf(w, "skipping %s: response has no choices\n", env.CustomID)
			continue
		}

		rec, ok := ParseEvaluation(env.Response.Body.Choices[0].Message.Content)
		if !ok {
			fmt.Fprintf(w, "failed to parse evaluation for %s\n", env.CustomID)
			continue
		}

		rec.PaperID = env.CustomID
		records = append(records, rec)
		fmt.Fprintf(w, "parsed %s: score=%d\n", rec.PaperID, rec.RelevanceScore)
	}

	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("reading batch output: %w", err)
	}
	return records, nil
}
