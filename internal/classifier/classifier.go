// Package classifier talks to the external bottle image classifier.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds one classification call.
const DefaultTimeout = 20 * time.Second

// maxResponseBytes caps how much of an upstream reply is read.
const maxResponseBytes = 1 << 20

// ErrUpstream wraps non-2xx replies and undecodable bodies from the classifier.
var ErrUpstream = errors.New("classifier upstream error")

// Suggestion is one candidate label for a detected bottle.
type Suggestion struct {
	Type string `json:"type"`
}

// Result is the classifier's verdict. Suggestions is omitted when no plastic
// bottle was found.
type Result struct {
	IsBottle    bool         `json:"isBottle"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

// Detected returns the first suggested type of a positive result.
func (r Result) Detected() (string, bool) {
	if !r.IsBottle || len(r.Suggestions) == 0 {
		return "", false
	}
	t := strings.TrimSpace(r.Suggestions[0].Type)
	if t == "" {
		return "", false
	}
	return t, true
}

// Classifier decides whether a photo shows a plastic bottle.
type Classifier interface {
	Classify(ctx context.Context, img Image) (Result, error)
}

type classifyRequest struct {
	PhotoDataURI string `json:"photoDataUri"`
}

// HTTPClient calls a classifier over HTTP.
type HTTPClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates a classifier client for url.
func NewHTTPClient(url, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Classify sends img to the classifier and decodes its verdict.
func (c *HTTPClient) Classify(ctx context.Context, img Image) (Result, error) {
	body, err := json.Marshal(classifyRequest{PhotoDataURI: img.DataURI()})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return Result{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	if !result.IsBottle {
		result.Suggestions = nil
	}
	return result, nil
}

// Static always returns the same result. It backs local development when no
// classifier is configured.
type Static struct {
	Result Result
	Err    error
}

// Classify returns the configured result.
func (s Static) Classify(context.Context, Image) (Result, error) {
	return s.Result, s.Err
}
