// Package generation calls the remote content-generation endpoints. The
// models behind them are opaque; this package only moves fields in and
// results out.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const DefaultTimeout = 30 * time.Second

// InsufficientCreditsError carries the backend's message verbatim so it can
// be shown to the user as is.
type InsufficientCreditsError struct {
	Message string
}

func (e *InsufficientCreditsError) Error() string {
	if e.Message == "" {
		return "insufficient credits"
	}
	return e.Message
}

type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation failed with status %d", e.Status)
	}
	return e.Message
}

// IsInsufficientCredits reports whether err came from an HTTP 402.
func IsInsufficientCredits(err error) bool {
	var target *InsufficientCreditsError
	return errors.As(err, &target)
}

// Result is either a decoded JSON object (Fields) or a downloaded file.
type Result struct {
	Fields      map[string]any
	File        []byte
	ContentType string
	FileName    string
}

func (r *Result) IsFile() bool {
	return r.File != nil
}

// String returns a string field, or "" when it is absent or not a string.
func (r *Result) String(name string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	s, _ := r.Fields[name].(string)
	return s
}

type Generator interface {
	Generate(ctx context.Context, endpoint string, fields map[string]any) (*Result, error)
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

func New(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger.With().Str("component", "generation").Logger(),
	}
}

func (c *Client) Generate(ctx context.Context, endpoint string, fields map[string]any) (*Result, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read generation response: %w", err)
	}
	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("generation call finished")

	if resp.StatusCode == http.StatusPaymentRequired {
		return nil, &InsufficientCreditsError{Message: errorMessage(body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode generation response: %w", err)
		}
		return &Result{Fields: fields}, nil
	}

	return &Result{
		File:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FileName:    fileName(resp.Header.Get("Content-Disposition")),
	}, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Detail
}

func fileName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
