package storage

import (
	"context"
	"errors"

	"github.com/tb0hdan/adapta-history/pkg/models"
)

// ErrNotFound is returned when an entry does not exist or belongs to another user.
var ErrNotFound = errors.New("history entry not found")

type Storage interface {
	// History entry operations
	CreateHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error
	GetHistoryEntry(ctx context.Context, userID, id string) (*models.HistoryEntry, error)
	ListHistoryEntries(ctx context.Context, userID, toolType string, limit int) ([]models.HistoryEntry, error)
	CountHistoryEntries(ctx context.Context, userID, toolType string) (int64, error)
	DeleteHistoryEntry(ctx context.Context, userID, id string) error

	// Lifecycle
	Close() error
}
