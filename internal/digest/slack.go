// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// abstractPreviewRunes is how much of the raw abstract is shown when the
// model judged a summary unnecessary. Runes, not bytes, so a multibyte
// character is never split.
const abstractPreviewRunes = 200

// Publisher posts the ranked digest to a Slack incoming webhook.
type Publisher struct {
	WebhookURL string
	HTTP       *http.Client

	// Now supplies the header date; tests pin it. Defaults to time.Now.
	Now func() time.Time
}

// NewPublisher returns a Publisher for the given digest settings.
func NewPublisher(cfg types.DigestConfig) *Publisher {
	return &Publisher{
		WebhookURL: cfg.WebhookURL,
		HTTP:       &http.Client{Timeout: cfg.Timeout},
	}
}

// Block Kit payload structures, limited to the block types the digest uses.
type blockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type block struct {
	Type string     `json:"type"`
	Text *blockText `json:"text,omitempty"`
}

func headerBlock(text string) block {
	return block{Type: "header", Text: &blockText{Type: "plain_text", Text: text}}
}

func sectionBlock(markdown string) block {
	return block{Type: "section", Text: &blockText{Type: "mrkdwn", Text: markdown}}
}

func dividerBlock() block {
	return block{Type: "divider"}
}

// BuildBlocks renders the digest message: a dated header, a summary line
// with counts, then one section per ranked record. Records join to papers
// by ID; a record whose paper is missing is logged to w and skipped.
func BuildBlocks(records []types.EvaluationRecord, papers []types.Paper, now time.Time, w io.Writer) []block {
	byID := make(map[string]types.Paper, len(papers))
	for _, p := range papers {
		byID[p.ID] = p
	}

	blocks := []block{
		headerBlock(fmt.Sprintf("📚 Team Research Digest - %s", now.Format("January 2, 2006"))),
		sectionBlock(fmt.Sprintf(
			"Found %d papers out of %d new papers today worth reading based on your team's focus.",
			len(records), len(papers))),
		dividerBlock(),
	}

	rank := 0
	for _, rec := range records {
		paper, ok := byID[rec.PaperID]
		if !ok {
			fmt.Fprintf(w, "warning: no paper found for %s, skipping\n", rec.PaperID)
			continue
		}
		rank++

		summary := summaryText(rec, paper)
		blocks = append(blocks, sectionBlock(fmt.Sprintf(
			"*%d. <%s|%s>*\n⭐ Score: %d/10\n💡 %s\n\n_%s_",
			rank, paper.URL, paper.Title, rec.RelevanceScore, rec.KeyInsight, summary)))
		blocks = append(blocks, dividerBlock())
	}

	return blocks
}

// summaryText picks the model summary when one was requested, or a fixed
// preview of the raw abstract otherwise.
func summaryText(rec types.EvaluationRecord, paper types.Paper) string {
	if rec.NeedsSummary && rec.Summary != nil {
		return *rec.Summary
	}
	abstract := []rune(paper.Abstract)
	if len(abstract) > abstractPreviewRunes {
		abstract = abstract[:abstractPreviewRunes]
	}
	return string(abstract) + "..."
}

// Send delivers the ranked digest. When no records are relevant it logs
// and returns nil without posting. A non-200 webhook response is an
// error; the caller reports it and does not retry.
func (p *Publisher) Send(ctx context.Context, records []types.EvaluationRecord, papers []types.Paper, w io.Writer) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "no relevant papers to send")
		return nil
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	payload := struct {
		Blocks []block `json:"blocks"`
	}{BuildBlocks(records, papers, now(), w)}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling digest: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.WebhookURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := p.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}

	fmt.Fprintf(w, "sent %d papers to Slack\n", len(records))
	return nil
}
