// Package parser submits uploaded bytes to the external text extraction
// service and retrieves the result. Extraction is best-effort enrichment:
// every failure surfaces as an empty result, never as an error, so document
// creation is never blocked on a parse.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"docvault/internal/config"
)

// PlaceholderText is stored as the extracted text for formats that carry no
// extractable text (images, media, archives). These never reach the provider.
const PlaceholderText = "[no text content]"

// Client extracts text from uploaded file content.
// ok is false when extraction failed or produced nothing; callers proceed
// without extracted text in that case.
type Client interface {
	Extract(ctx context.Context, data []byte, filename string) (text string, ok bool)
}

// nonTextExts lists extensions that short-circuit to PlaceholderText.
var nonTextExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".webp": {},
	".svg": {}, ".ico": {}, ".tif": {}, ".tiff": {},
	".mp3": {}, ".wav": {}, ".flac": {}, ".ogg": {},
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {},
	".zip": {}, ".gz": {}, ".tar": {}, ".rar": {}, ".7z": {},
	".exe": {}, ".bin": {},
}

type jobResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Job states reported by the extraction service.
const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
)

// httpClient talks to the extraction job API: submit bytes, poll the job on
// a fixed interval up to maxAttempts, then fetch the result text.
type httpClient struct {
	endpoint     string
	http         *http.Client
	pollInterval time.Duration
	maxAttempts  int
	sleep        func(time.Duration)
	log          *slog.Logger
}

// NewClient creates an extraction client from config.
func NewClient(cfg config.ParserConfig) Client {
	return &httpClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		http: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		},
		pollInterval: time.Duration(cfg.PollIntervalSec) * time.Second,
		maxAttempts:  cfg.MaxAttempts,
		sleep:        time.Sleep,
		log:          slog.Default().With("component", "parser"),
	}
}

func (c *httpClient) Extract(ctx context.Context, data []byte, filename string) (string, bool) {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		if _, skip := nonTextExts[ext]; skip {
			return PlaceholderText, true
		}
	}

	// The poll window is bounded by maxAttempts regardless of the caller's
	// cancellation; a client disconnect must not leave a half-tracked job.
	ctx = context.WithoutCancel(ctx)

	jobID, err := c.submit(ctx, data, filename)
	if err != nil {
		c.log.Warn("extraction submit failed", "filename", filename, "error", err)
		return "", false
	}

	status, err := c.await(ctx, jobID)
	if err != nil {
		c.log.Warn("extraction polling failed", "job_id", jobID, "error", err)
		return "", false
	}
	if status != statusSucceeded {
		c.log.Warn("extraction did not succeed", "job_id", jobID, "status", status)
		return "", false
	}

	text, err := c.fetchText(ctx, jobID)
	if err != nil {
		c.log.Warn("extraction result fetch failed", "job_id", jobID, "error", err)
		return "", false
	}
	return text, true
}

// submit uploads the bytes as a multipart job and returns the job ID.
func (c *httpClient) submit(ctx context.Context, data []byte, filename string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/jobs", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("submit job: unexpected status %d", resp.StatusCode)
	}

	var job jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return "", fmt.Errorf("decode job response: %w", err)
	}
	if job.ID == "" {
		return "", fmt.Errorf("job response missing id")
	}
	return job.ID, nil
}

// await polls job status until it is terminal or the attempt ceiling is hit.
// Hitting the ceiling is an error; there are no retries past the window.
func (c *httpClient) await(ctx context.Context, jobID string) (string, error) {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		status, err := c.jobStatus(ctx, jobID)
		if err != nil {
			return "", err
		}
		if status == statusSucceeded || status == statusFailed {
			return status, nil
		}
		c.sleep(c.pollInterval)
	}
	return "", fmt.Errorf("job %s not terminal after %d attempts", jobID, c.maxAttempts)
}

func (c *httpClient) jobStatus(ctx context.Context, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/jobs/"+jobID, nil)
	if err != nil {
		return "", fmt.Errorf("create status request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("poll job: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("poll job: unexpected status %d", resp.StatusCode)
	}

	var st statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}
	return st.Status, nil
}

func (c *httpClient) fetchText(ctx context.Context, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/jobs/"+jobID+"/text", nil)
	if err != nil {
		return "", fmt.Errorf("create result request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch result: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch result: unexpected status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read result body: %w", err)
	}
	return string(b), nil
}
