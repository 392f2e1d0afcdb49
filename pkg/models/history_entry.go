package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HistoryEntry is one persisted tool invocation. Entries are created and
// deleted, never updated.
type HistoryEntry struct {
	ID         string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
	UserID     string            `gorm:"type:varchar(64);index:idx_history_user_tool;not null" json:"user_id,omitempty"`
	ToolType   string            `gorm:"type:varchar(64);index:idx_history_user_tool;not null" json:"tool_type"`
	ToolName   string            `gorm:"type:varchar(255);not null" json:"tool_name"`
	InputData  string            `gorm:"type:text" json:"input_data"`
	OutputData string            `gorm:"type:text" json:"output_data,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
}

// TableName keeps the table name stable regardless of gorm's pluralization.
func (HistoryEntry) TableName() string {
	return "history_entries"
}

// BeforeCreate assigns the identifier on the backend side.
func (e *HistoryEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// CreditsUsed reads the credits_used metadata key, which arrives as a JSON number.
func (e HistoryEntry) CreditsUsed() (int, bool) {
	if e.Metadata == nil {
		return 0, false
	}
	switch v := e.Metadata["credits_used"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		if f, err := v.Float64(); err == nil {
			return int(f), true
		}
	}
	return 0, false
}
