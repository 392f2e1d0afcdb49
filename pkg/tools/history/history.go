package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/adapta-history/pkg/server"
	"github.com/tb0hdan/adapta-history/pkg/storage"
	"github.com/tb0hdan/adapta-history/pkg/tools"
	"github.com/tb0hdan/adapta-history/pkg/types"
)

type Input struct {
	Action   string `json:"action" jsonschema:"one of list, get, delete" validate:"required,oneof=list get delete"`
	UserID   string `json:"user_id" jsonschema:"owner of the history entries" validate:"required,max=64"`
	ToolType string `json:"tool_type,omitempty" jsonschema:"restrict list to one tool type" validate:"max=64"`
	ID       string `json:"id,omitempty" jsonschema:"entry id for get and delete" validate:"max=36"`
	Limit    int    `json:"limit,omitempty" validate:"min=0,max=100"`
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	store     storage.Storage
}

func (t *Tool) Register(srv *server.Server) error {
	tool := &mcp.Tool{
		Name:        "history",
		Description: "Browse and manage a user's tool history. Actions: list (newest first, optional tool_type), get (by id), delete (by id).",
	}

	t.store = srv.Storage()

	mcp.AddTool(&srv.Server, tool, t.HistoryHandler)
	t.logger.Debug().Msg("history tool registered")

	return nil
}

func (t *Tool) HistoryHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	var resultText string

	switch input.Action {
	case "list":
		limit := input.Limit
		if limit == 0 {
			limit = types.DefaultListLimit
		}
		entries, err := t.store.ListHistoryEntries(ctx, input.UserID, input.ToolType, limit)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list history: %w", err)
		}
		total, err := t.store.CountHistoryEntries(ctx, input.UserID, input.ToolType)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to count history: %w", err)
		}
		data, _ := json.MarshalIndent(map[string]any{
			"total":     total,
			"limit":     limit,
			"tool_type": input.ToolType,
			"history":   entries,
		}, "", "  ")
		resultText = string(data)

	case "get":
		if input.ID == "" {
			return nil, nil, fmt.Errorf("id is required for get action")
		}
		entry, err := t.store.GetHistoryEntry(ctx, input.UserID, input.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("history entry not found: %w", err)
		}
		data, _ := json.MarshalIndent(entry, "", "  ")
		resultText = string(data)

	case "delete":
		if input.ID == "" {
			return nil, nil, fmt.Errorf("id is required for delete action")
		}
		if err := t.store.DeleteHistoryEntry(ctx, input.UserID, input.ID); err != nil {
			return nil, nil, fmt.Errorf("failed to delete history entry: %w", err)
		}
		resultText = fmt.Sprintf("History entry %s deleted successfully", input.ID)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: resultText},
		},
	}, nil, nil
}

func New(logger zerolog.Logger) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", "history").Logger(),
		validator: validator.New(),
	}
}
