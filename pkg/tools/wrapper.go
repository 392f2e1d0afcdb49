package tools

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tb0hdan/adapta-history/pkg/events"
	"github.com/tb0hdan/adapta-history/pkg/generation"
	"github.com/tb0hdan/adapta-history/pkg/types"
)

// HistorySaver is the save half of the history client.
type HistorySaver interface {
	Save(ctx context.Context, userID, toolType, toolName string, input, output any, metadata map[string]any) bool
}

// GenerateFunc runs one generation call on behalf of userID.
type GenerateFunc func(ctx context.Context, userID string, fields map[string]any) (*generation.Result, error)

// Recorder saves successful generations in the background and announces
// them on the hub.
type Recorder struct {
	saver  HistorySaver
	hub    *events.Hub
	logger zerolog.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

func NewRecorder(saver HistorySaver, hub *events.Hub, logger zerolog.Logger) *Recorder {
	return &Recorder{
		saver:  saver,
		hub:    events.Or(hub),
		logger: logger,
		now:    time.Now,
	}
}

// Wait blocks until every pending save has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// WrapGenerator wraps a generation call so that a successful result is
// recorded in history. The save never delays or alters the result.
func WrapGenerator(rec *Recorder, cfg ToolConfig, generate GenerateFunc) GenerateFunc {
	return func(ctx context.Context, userID string, fields map[string]any) (*generation.Result, error) {
		result, err := generate(ctx, userID, fields)
		if err != nil {
			return result, err
		}

		input := cfg.HistoryInput(fields)
		output := historyOutput(cfg, result)
		metadata := historyMetadata(cfg, fields, result, rec.now())

		rec.wg.Add(1)
		// Using background context intentionally - the save must complete even if the request is cancelled.
		go func() { //nolint:contextcheck
			defer rec.wg.Done()
			rec.save(context.Background(), cfg, userID, input, output, metadata)
		}()

		return result, nil
	}
}

func (r *Recorder) save(ctx context.Context, cfg ToolConfig, userID, input, output string, metadata map[string]any) {
	logger := r.logger.With().Str("tool", cfg.ID).Str("tool_type", cfg.Type).Logger()

	if !r.saver.Save(ctx, userID, cfg.Type, cfg.Name, input, output, metadata) {
		logger.Warn().Err(types.ErrSaveFailed).Msg("generation result not saved to history")
		return
	}
	logger.Debug().Msg("generation saved to history")
	r.hub.HistoryUpdated.Publish(events.HistoryUpdated{ToolType: cfg.Type})
}

func historyOutput(cfg ToolConfig, result *generation.Result) string {
	if result == nil {
		return ""
	}
	if result.IsFile() {
		name := result.FileName
		if name == "" {
			name = "file"
		}
		return "Generated file: " + name
	}
	if cfg.OutputField != "" {
		if value, ok := result.Fields[cfg.OutputField]; ok {
			return types.Stringify(value)
		}
	}
	return types.Stringify(result.Fields)
}

// historyMetadata keeps the scalar option fields (tone, style, mode...) and
// adds credits_used and timestamp.
func historyMetadata(cfg ToolConfig, fields map[string]any, result *generation.Result, now time.Time) map[string]any {
	metadata := make(map[string]any)
	for name, value := range fields {
		if name == "user_id" || cfg.isInputField(name) {
			continue
		}
		switch v := value.(type) {
		case string:
			if v != "" {
				metadata[name] = types.Truncate(v, 100)
			}
		case bool, int, int64, float64:
			metadata[name] = v
		}
	}
	if result != nil && result.IsFile() && result.FileName != "" {
		metadata["file_name"] = result.FileName
	}
	metadata["credits_used"] = cfg.Credits
	metadata["timestamp"] = now.UTC().Format(time.RFC3339)
	return metadata
}
