// Package api holds the JSON wire types shared by the history backend and its
// clients, plus the small POST helper both client packages use.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tb0hdan/adapta-history/pkg/models"
)

const (
	PathSaveHistory   = "/save-history"
	PathGetHistory    = "/get-history"
	PathDeleteHistory = "/delete-history-item"
)

type SaveRequest struct {
	UserID     string         `json:"user_id" validate:"required,max=64"`
	ToolType   string         `json:"tool_type" validate:"required,max=64"`
	ToolName   string         `json:"tool_name" validate:"required,max=255"`
	InputData  string         `json:"input_data" validate:"max=1000"`
	OutputData string         `json:"output_data" validate:"max=2000"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type SaveResponse struct {
	Success   bool   `json:"success"`
	HistoryID string `json:"history_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ListRequest struct {
	UserID   string `json:"user_id" validate:"required,max=64"`
	ToolType string `json:"tool_type,omitempty" validate:"max=64"`
	Limit    int    `json:"limit,omitempty" validate:"min=0,max=100"`
}

type ListResponse struct {
	Success bool                  `json:"success"`
	History []models.HistoryEntry `json:"history"`
	Error   string                `json:"error,omitempty"`
}

type DeleteRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
	ItemID string `json:"item_id" validate:"required,max=36"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is the failure body of every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// StatusError reports a non-2xx response. Message is the backend's error
// field when it sent one.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// PostJSON marshals body, POSTs it to url and decodes a 2xx JSON response
// into out. A bearer token is attached when non-empty.
func PostJSON(ctx context.Context, client *http.Client, url, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure ErrorResponse
		_ = json.Unmarshal(data, &failure)
		return &StatusError{Status: resp.StatusCode, Message: failure.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
