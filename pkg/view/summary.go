package view

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tb0hdan/adapta-history/pkg/types"
)

const (
	InputPreviewChars  = 200
	OutputPreviewChars = 250
)

// Summarize renders an output for a list row. Structured outputs with a
// questions array or a total_score get a short label; image outputs show the
// URL; anything else is a character preview.
func Summarize(output string, limit int) string {
	var obj map[string]any
	if err := json.Unmarshal([]byte(output), &obj); err == nil {
		if questions, ok := obj["questions"].([]any); ok {
			if len(questions) == 1 {
				return "1 question"
			}
			return fmt.Sprintf("%d questions", len(questions))
		}
		if score, ok := obj["total_score"].(float64); ok {
			return fmt.Sprintf("Score: %g/1000", score)
		}
		if url, ok := obj["image_url"].(string); ok && url != "" {
			return "Image: " + url
		}
	}
	return Preview(output, limit)
}

// Preview cuts s to limit characters and marks the cut with an ellipsis.
func Preview(s string, limit int) string {
	cut := types.Truncate(s, limit)
	if cut != s {
		return cut + "..."
	}
	return s
}

// RelativeTime renders recent timestamps as "3 minutes ago" and anything a
// week or older as dd/mm/yyyy.
func RelativeTime(t, now time.Time) string {
	if now.Sub(t) >= 7*24*time.Hour {
		return t.Format("02/01/2006")
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
