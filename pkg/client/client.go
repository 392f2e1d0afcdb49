// Package client talks to the history backend. Save and Delete report
// success as a boolean and never fail the caller; List distinguishes
// "not signed in" from "backend unavailable".
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tb0hdan/adapta-history/pkg/api"
	"github.com/tb0hdan/adapta-history/pkg/models"
	"github.com/tb0hdan/adapta-history/pkg/types"
)

const DefaultTimeout = 30 * time.Second

// TokenSource returns the bearer token to attach, or "" for none.
type TokenSource func(ctx context.Context) string

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      TokenSource
}

type HistoryClient struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	logger  zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *HistoryClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &HistoryClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		token:   cfg.Token,
		logger:  logger.With().Str("component", "history-client").Logger(),
	}
}

func (c *HistoryClient) bearer(ctx context.Context) string {
	if c.token == nil {
		return ""
	}
	return c.token(ctx)
}

func (c *HistoryClient) post(ctx context.Context, path string, body, out any) error {
	return api.PostJSON(ctx, c.http, c.baseURL+path, c.bearer(ctx), body, out)
}

// Save persists one tool invocation. Non-string input and output are
// serialized to JSON, then truncated to 1000 and 2000 characters. Any failure
// is logged and reported as false.
func (c *HistoryClient) Save(ctx context.Context, userID, toolType, toolName string, input, output any, metadata map[string]any) bool {
	if userID == "" {
		c.logger.Warn().Str("tool_type", toolType).Msg("skipping history save: no user")
		return false
	}

	req := api.SaveRequest{
		UserID:     userID,
		ToolType:   toolType,
		ToolName:   toolName,
		InputData:  types.Truncate(types.Stringify(input), types.MaxInputChars),
		OutputData: types.Truncate(types.Stringify(output), types.MaxOutputChars),
		Metadata:   metadata,
	}

	var resp api.SaveResponse
	if err := c.post(ctx, api.PathSaveHistory, req, &resp); err != nil {
		c.logger.Error().Err(fmt.Errorf("%w: %w", types.ErrSaveFailed, err)).Str("tool_type", toolType).Msg("history save failed")
		return false
	}
	if !resp.Success {
		c.logger.Error().Err(types.ErrSaveFailed).Str("tool_type", toolType).Str("reason", resp.Error).Msg("history save rejected")
		return false
	}

	c.logger.Debug().Str("tool_type", toolType).Str("history_id", resp.HistoryID).Msg("history saved")
	return true
}

// List returns up to limit entries, newest first. An empty toolType lists
// every tool; limit <= 0 uses the default of 10. No entries is an empty,
// non-nil slice and a nil error.
func (c *HistoryClient) List(ctx context.Context, userID, toolType string, limit int) ([]models.HistoryEntry, error) {
	if userID == "" {
		return nil, types.ErrNotAuthenticated
	}
	if limit <= 0 {
		limit = types.DefaultListLimit
	}
	if limit > types.MaxListLimit {
		limit = types.MaxListLimit
	}

	var resp api.ListResponse
	if err := c.post(ctx, api.PathGetHistory, api.ListRequest{UserID: userID, ToolType: toolType, Limit: limit}, &resp); err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) && (statusErr.Status == http.StatusUnauthorized || statusErr.Status == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %w", types.ErrNotAuthenticated, err)
		}
		return nil, fmt.Errorf("%w: %w", types.ErrHistoryUnavailable, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", types.ErrHistoryUnavailable, resp.Error)
	}

	if resp.History == nil {
		return []models.HistoryEntry{}, nil
	}
	return resp.History, nil
}

// Delete removes one entry owned by userID and reports whether the backend
// confirmed it.
func (c *HistoryClient) Delete(ctx context.Context, userID, entryID string) bool {
	if userID == "" || entryID == "" {
		return false
	}

	var resp api.DeleteResponse
	if err := c.post(ctx, api.PathDeleteHistory, api.DeleteRequest{UserID: userID, ItemID: entryID}, &resp); err != nil {
		c.logger.Error().Err(fmt.Errorf("%w: %w", types.ErrDeleteFailed, err)).Str("history_id", entryID).Msg("history delete failed")
		return false
	}
	if !resp.Success {
		c.logger.Error().Err(types.ErrDeleteFailed).Str("history_id", entryID).Str("reason", resp.Error).Msg("history delete rejected")
		return false
	}
	return true
}
