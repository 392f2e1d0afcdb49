package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tb0hdan/adapta-history/pkg/api"
	"github.com/tb0hdan/adapta-history/pkg/auth"
	"github.com/tb0hdan/adapta-history/pkg/models"
	"github.com/tb0hdan/adapta-history/pkg/storage"
	"github.com/tb0hdan/adapta-history/pkg/types"
	"gorm.io/datatypes"
)

type HistoryHandler struct {
	srv *Server
}

func NewHistoryHandler(srv *Server) *HistoryHandler {
	return &HistoryHandler{srv: srv}
}

func (h *HistoryHandler) Register(e *echo.Echo) {
	e.POST(api.PathSaveHistory, h.Save)
	e.POST(api.PathGetHistory, h.List)
	e.POST(api.PathDeleteHistory, h.Delete)
}

func (h *HistoryHandler) bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.srv.validator.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("validation error: %v", err))
	}
	return nil
}

// authorize checks the bearer token against userID when a secret is configured.
func (h *HistoryHandler) authorize(c echo.Context, userID string) error {
	if len(h.srv.jwtSecret) == 0 {
		return nil
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	user, err := auth.VerifyToken(h.srv.jwtSecret, token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if user.ID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "token does not match user_id")
	}
	return nil
}

func (h *HistoryHandler) Save(c echo.Context) error {
	var req api.SaveRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.authorize(c, req.UserID); err != nil {
		return err
	}

	entry := &models.HistoryEntry{
		UserID:     req.UserID,
		ToolType:   req.ToolType,
		ToolName:   req.ToolName,
		InputData:  req.InputData,
		OutputData: req.OutputData,
	}
	if len(req.Metadata) > 0 {
		entry.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := h.srv.storage.CreateHistoryEntry(c.Request().Context(), entry); err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}
	h.srv.logger.Debug().
		Str("user_id", entry.UserID).
		Str("tool_type", entry.ToolType).
		Str("history_id", entry.ID).
		Msg("history entry saved")

	return c.JSON(http.StatusOK, api.SaveResponse{Success: true, HistoryID: entry.ID})
}

func (h *HistoryHandler) List(c echo.Context) error {
	var req api.ListRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.authorize(c, req.UserID); err != nil {
		return err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = types.DefaultListLimit
	}

	entries, err := h.srv.storage.ListHistoryEntries(c.Request().Context(), req.UserID, req.ToolType, limit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	return c.JSON(http.StatusOK, api.ListResponse{Success: true, History: entries})
}

func (h *HistoryHandler) Delete(c echo.Context) error {
	var req api.DeleteRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.authorize(c, req.UserID); err != nil {
		return err
	}

	err := h.srv.storage.DeleteHistoryEntry(c.Request().Context(), req.UserID, req.ItemID)
	if errors.Is(err, storage.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	h.srv.logger.Debug().Str("user_id", req.UserID).Str("history_id", req.ItemID).Msg("history entry deleted")

	return c.JSON(http.StatusOK, api.DeleteResponse{Success: true})
}
