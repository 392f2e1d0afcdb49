package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tb0hdan/adapta-history/pkg/auth"
	"github.com/tb0hdan/adapta-history/pkg/events"
	"github.com/tb0hdan/adapta-history/pkg/generation"
	"github.com/tb0hdan/adapta-history/pkg/types"
)

// Viewport is the surface a tool renders into.
type Viewport interface {
	ScrollToTop()
}

type noViewport struct{}

func (noViewport) ScrollToTop() {}

type AdapterConfig struct {
	Tool      ToolConfig
	Generator generation.Generator
	History   HistorySaver
	Users     auth.Provider
	Hub       *events.Hub
	Viewport  Viewport
}

// Adapter binds one tool to the history subsystem: it accepts replayed
// input while mounted and records every successful generation.
type Adapter struct {
	cfg      ToolConfig
	gen      generation.Generator
	users    auth.Provider
	hub      *events.Hub
	viewport Viewport
	recorder *Recorder
	run      GenerateFunc
	logger   zerolog.Logger

	mu          sync.Mutex
	input       string
	output      *generation.Result
	err         error
	unsubscribe func()
}

func NewAdapter(cfg AdapterConfig, logger zerolog.Logger) *Adapter {
	hub := events.Or(cfg.Hub)
	viewport := cfg.Viewport
	if viewport == nil {
		viewport = noViewport{}
	}
	a := &Adapter{
		cfg:      cfg.Tool,
		gen:      cfg.Generator,
		users:    cfg.Users,
		hub:      hub,
		viewport: viewport,
		logger:   logger.With().Str("tool", cfg.Tool.ID).Logger(),
	}
	a.recorder = NewRecorder(cfg.History, hub, a.logger)
	a.run = WrapGenerator(a.recorder, cfg.Tool, a.call)
	return a
}

func (a *Adapter) Config() ToolConfig {
	return a.cfg
}

// Mount starts accepting replayed input. Mounting twice is a no-op.
func (a *Adapter) Mount() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unsubscribe != nil {
		return
	}
	a.unsubscribe = a.hub.LoadInput.Subscribe(a.replay)
}

func (a *Adapter) Unmount() {
	a.mu.Lock()
	unsubscribe := a.unsubscribe
	a.unsubscribe = nil
	a.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (a *Adapter) replay(ev events.LoadInput) {
	a.mu.Lock()
	a.input = ev.Text
	a.output = nil
	a.err = nil
	a.mu.Unlock()

	a.viewport.ScrollToTop()
	a.logger.Debug().Msg("input replayed from history")
}

func (a *Adapter) SetInput(text string) {
	a.mu.Lock()
	a.input = text
	a.mu.Unlock()
}

func (a *Adapter) Input() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.input
}

func (a *Adapter) Output() *generation.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.output
}

func (a *Adapter) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Generate calls the tool's endpoint. fields holds the tool-specific
// request; when the primary input field is missing the current input is
// used. On success the output is committed and a history save starts in the
// background.
func (a *Adapter) Generate(ctx context.Context, fields map[string]any) (*generation.Result, error) {
	payload := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	if primary := a.cfg.PrimaryField(); primary != "" {
		if _, ok := payload[primary]; !ok {
			payload[primary] = a.Input()
		} else {
			a.SetInput(types.Stringify(payload[primary]))
		}
	}

	user, err := a.users.CurrentUser(ctx)
	if err == nil && (user == nil || user.ID == "") {
		err = types.ErrNotAuthenticated
	} else if err != nil {
		err = fmt.Errorf("%w: %w", types.ErrNotAuthenticated, err)
	}
	if err != nil {
		a.fail(err)
		return nil, err
	}

	return a.run(ctx, user.ID, payload)
}

// call is the unwrapped generation: it performs the request and commits
// the outcome to the adapter state.
func (a *Adapter) call(ctx context.Context, userID string, fields map[string]any) (*generation.Result, error) {
	fields["user_id"] = userID

	result, err := a.gen.Generate(ctx, a.cfg.Endpoint, fields)
	if err != nil {
		a.fail(err)
		return nil, err
	}

	a.mu.Lock()
	a.output = result
	a.err = nil
	a.mu.Unlock()
	return result, nil
}

func (a *Adapter) fail(err error) {
	a.mu.Lock()
	a.output = nil
	a.err = err
	a.mu.Unlock()
	a.logger.Debug().Err(err).Msg("generation failed")
}

// Wait blocks until background history saves have finished.
func (a *Adapter) Wait() {
	a.recorder.Wait()
}
