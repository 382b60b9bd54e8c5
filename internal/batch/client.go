// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch submits bulk scoring requests to an asynchronous batch
// API, polls the job to a terminal state, and parses the model output
// back into evaluation records.
package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// completionWindow is the completion ceiling requested for every job; the
// external system enforces it.
const completionWindow = "24h"

// Client talks to an OpenAI-compatible batch API.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

// NewClient returns a Client for the given API settings.
func NewClient(cfg types.BatchConfig) *Client {
	return &Client{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		HTTP:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
}

// Submit serializes the requests as one newline-delimited payload, uploads
// it as a file resource, and creates a batch job referencing that file.
// Any failure here aborts the run; no paper may be marked seen if the
// evaluation job was never established.
func (c *Client) Submit(ctx context.Context, requests []Request) (string, error) {
	payload, err := EncodeJSONL(requests)
	if err != nil {
		return "", err
	}

	fileID, err := c.uploadFile(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("uploading batch input: %w", err)
	}

	job, err := c.createBatch(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("creating batch job: %w", err)
	}
	return job.ID, nil
}

// uploadFile posts the JSONL payload to the file-upload endpoint with
// purpose=batch and returns the file resource ID.
func (c *Client) uploadFile(ctx context.Context, payload []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("purpose", "batch"); err != nil {
		return "", fmt.Errorf("writing purpose field: %w", err)
	}
	part, err := mw.CreateFormFile("file", "batch_requests.jsonl")
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return "", fmt.Errorf("writing payload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finalizing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/files", &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("file upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("file upload returned HTTP %d: %s", resp.StatusCode, string(b))
	}

	var file struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return "", fmt.Errorf("decoding file response: %w", err)
	}
	if file.ID == "" {
		return "", fmt.Errorf("file upload response missing id")
	}
	return file.ID, nil
}

// createBatch creates a batch job referencing the uploaded input file.
func (c *Client) createBatch(ctx context.Context, fileID string) (types.BatchJob, error) {
	reqBody := struct {
		InputFileID      string `json:"input_file_id"`
		Endpoint         string `json:"endpoint"`
		CompletionWindow string `json:"completion_window"`
	}{fileID, completionsPath, completionWindow}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return types.BatchJob{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/batches", bytes.NewReader(bodyBytes))
	if err != nil {
		return types.BatchJob{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return types.BatchJob{}, fmt.Errorf("batch create request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return types.BatchJob{}, fmt.Errorf("batch create returned HTTP %d: %s", resp.StatusCode, string(b))
	}

	var job types.BatchJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return types.BatchJob{}, fmt.Errorf("decoding batch response: %w", err)
	}
	if job.ID == "" {
		return types.BatchJob{}, fmt.Errorf("batch create response missing id")
	}
	return job, nil
}

// GetBatch retrieves the current job state from the job-status endpoint.
func (c *Client) GetBatch(ctx context.Context, batchID string) (types.BatchJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/batches/"+batchID, nil)
	if err != nil {
		return types.BatchJob{}, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, 0)
	if err != nil {
		return types.BatchJob{}, fmt.Errorf("batch status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.BatchJob{}, fmt.Errorf("batch status returned HTTP %d", resp.StatusCode)
	}

	var job types.BatchJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return types.BatchJob{}, fmt.Errorf("decoding batch status: %w", err)
	}
	return job, nil
}

// FileContent streams the newline-delimited result envelopes for fileID.
// The caller owns the returned reader.
func (c *Client) FileContent(ctx context.Context, fileID string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/files/"+fileID+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, 0)
	if err != nil {
		return nil, fmt.Errorf("file content request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("file content returned HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}
