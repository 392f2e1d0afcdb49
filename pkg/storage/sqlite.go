package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/tb0hdan/adapta-history/pkg/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type SQLiteStorage struct {
	db *gorm.DB
}

type Config struct {
	DatabasePath string
	Debug        bool
}

func NewSQLiteStorage(cfg Config) (*SQLiteStorage, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	database, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := database.AutoMigrate(&models.HistoryEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStorage{db: database}, nil
}

func (s *SQLiteStorage) CreateHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *SQLiteStorage) GetHistoryEntry(ctx context.Context, userID, id string) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// scoped filters by owner and, when toolType is non-empty, by tool.
func (s *SQLiteStorage) scoped(ctx context.Context, userID, toolType string) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.HistoryEntry{}).Where("user_id = ?", userID)
	if toolType != "" {
		query = query.Where("tool_type = ?", toolType)
	}
	return query
}

// ListHistoryEntries returns the newest entries first. Entries created within
// the same clock tick keep insertion order through rowid.
func (s *SQLiteStorage) ListHistoryEntries(ctx context.Context, userID, toolType string, limit int) ([]models.HistoryEntry, error) {
	entries := make([]models.HistoryEntry, 0)
	query := s.scoped(ctx, userID, toolType).Order("created_at DESC").Order("rowid DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&entries).Error
	return entries, err
}

func (s *SQLiteStorage) CountHistoryEntries(ctx context.Context, userID, toolType string) (int64, error) {
	var total int64
	err := s.scoped(ctx, userID, toolType).Count(&total).Error
	return total, err
}

func (s *SQLiteStorage) DeleteHistoryEntry(ctx context.Context, userID, id string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.HistoryEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
