// Package view is the single history list used by every tool page and the
// all-tools history page. Variants differ only in Options.
package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/tb0hdan/adapta-history/pkg/events"
	"github.com/tb0hdan/adapta-history/pkg/historystore"
	"github.com/tb0hdan/adapta-history/pkg/models"
	"github.com/tb0hdan/adapta-history/pkg/types"
)

var (
	ErrEntryNotFound = errors.New("history entry not loaded")
	ErrCancelled     = errors.New("cancelled")
)

type Density int

const (
	Compact Density = iota
	Detailed
)

type RenderState int

const (
	StateLoginRequired RenderState = iota
	StateLoading
	StateError
	StateEmpty
	StateList
	// StateIdle is a panel that was never opened; nothing has been requested.
	StateIdle
)

func (s RenderState) String() string {
	switch s {
	case StateLoginRequired:
		return "login-required"
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateEmpty:
		return "empty"
	case StateList:
		return "list"
	case StateIdle:
		return "idle"
	}
	return "unknown"
}

// ClipboardFunc writes text to the system clipboard.
type ClipboardFunc func(text string) error

type Confirmer interface {
	Confirm(prompt string) bool
}

// refuseAll is used when no Confirmer is configured, so nothing is deleted
// without an explicit yes.
type refuseAll struct{}

func (refuseAll) Confirm(string) bool { return false }

type Notifier interface {
	Notify(message string)
}

type Options struct {
	Title      string
	Density    Density
	Expandable bool
	// IsPro lifts the free-tier cap.
	IsPro bool
	// FreeVisible is how many entries a free user sees; 0 means types.FreeVisibleEntries.
	FreeVisible int

	Hub       *events.Hub
	Clipboard ClipboardFunc
	Confirmer Confirmer
	Notifier  Notifier
	Now       func() time.Time
}

type View struct {
	store *historystore.Store
	opts  Options
	hub   *events.Hub

	mu       sync.Mutex
	open     bool
	showAll  bool
	expanded map[string]bool
}

func New(store *historystore.Store, opts Options) *View {
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Confirmer == nil {
		opts.Confirmer = refuseAll{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FreeVisible <= 0 {
		opts.FreeVisible = types.FreeVisibleEntries
	}
	if opts.Title == "" {
		opts.Title = "History"
	}
	return &View{
		store:    store,
		opts:     opts,
		hub:      events.Or(opts.Hub),
		expanded: make(map[string]bool),
	}
}

// Open shows the panel and loads the list.
func (v *View) Open(ctx context.Context) error {
	v.mu.Lock()
	v.open = true
	v.mu.Unlock()
	v.store.SetVisible(true)
	return v.store.Reload(ctx)
}

func (v *View) Close() {
	v.mu.Lock()
	v.open = false
	v.mu.Unlock()
	v.store.SetVisible(false)
}

func (v *View) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open
}

func (v *View) Retry(ctx context.Context) error {
	return v.store.Reload(ctx)
}

func (v *View) ToggleShowAll() {
	v.mu.Lock()
	v.showAll = !v.showAll
	v.mu.Unlock()
}

// Toggle expands or collapses one entry. It is a no-op for non-expandable views.
func (v *View) Toggle(entryID string) {
	if !v.opts.Expandable {
		return
	}
	v.mu.Lock()
	v.expanded[entryID] = !v.expanded[entryID]
	v.mu.Unlock()
}

func (v *View) IsExpanded(entryID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expanded[entryID]
}

func (v *View) entry(entryID string) (models.HistoryEntry, error) {
	entry, ok := v.store.Find(entryID)
	if !ok {
		return models.HistoryEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	return entry, nil
}

// Copy puts the entry's input on the clipboard.
func (v *View) Copy(entryID string) error {
	entry, err := v.entry(entryID)
	if err != nil {
		return err
	}
	if err := v.opts.Clipboard(entry.InputData); err != nil {
		v.notify("could not copy to clipboard")
		return fmt.Errorf("failed to copy entry: %w", err)
	}
	v.notify("copied to clipboard")
	return nil
}

// Reuse sends the entry's input to whichever tool is mounted, then closes
// the panel. It returns how many tools received it.
func (v *View) Reuse(entryID string) (int, error) {
	entry, err := v.entry(entryID)
	if err != nil {
		return 0, err
	}
	delivered := v.hub.LoadInput.Publish(events.LoadInput{Text: entry.InputData})
	v.Close()
	return delivered, nil
}

// Delete asks for confirmation, then removes the entry through the store.
func (v *View) Delete(ctx context.Context, entryID string) error {
	if !v.opts.Confirmer.Confirm("Delete this history item?") {
		return ErrCancelled
	}
	if err := v.store.Delete(ctx, entryID); err != nil {
		v.notify("could not delete history item")
		return err
	}
	return nil
}

func (v *View) notify(message string) {
	if v.opts.Notifier != nil {
		v.opts.Notifier.Notify(message)
	}
}

// State maps the store snapshot to what the panel shows.
func (v *View) State() RenderState {
	return stateOf(v.store.Snapshot())
}

func stateOf(snap historystore.Snapshot) RenderState {
	switch snap.State {
	case historystore.StateError:
		if snap.NeedsLogin() {
			return StateLoginRequired
		}
		return StateError
	case historystore.StateLoaded:
		if len(snap.Entries) == 0 {
			return StateEmpty
		}
		return StateList
	case historystore.StateIdle:
		return StateIdle
	}
	return StateLoading
}

// Visible returns the entries the user may see and how many are hidden by
// the free-tier cap.
func (v *View) Visible() ([]models.HistoryEntry, int) {
	return v.visible(v.store.Snapshot().Entries)
}

func (v *View) visible(entries []models.HistoryEntry) ([]models.HistoryEntry, int) {
	v.mu.Lock()
	showAll := v.showAll
	v.mu.Unlock()

	if v.opts.IsPro || showAll || len(entries) <= v.opts.FreeVisible {
		return entries, 0
	}
	return entries[:v.opts.FreeVisible], len(entries) - v.opts.FreeVisible
}

func (v *View) Render() string {
	snap := v.store.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render(v.opts.Title))
	b.WriteString("\n\n")

	switch stateOf(snap) {
	case StateLoginRequired:
		b.WriteString(mutedStyle.Render("Sign in to see your history."))
	case StateIdle:
		b.WriteString(mutedStyle.Render("Open the panel to load your history."))
	case StateLoading:
		b.WriteString(mutedStyle.Render("Loading history..."))
	case StateError:
		b.WriteString(errorStyle.Render(snap.Message))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Retry to load again."))
	case StateEmpty:
		b.WriteString(mutedStyle.Render("No history yet. Your generations will appear here."))
	case StateList:
		entries, hidden := v.visible(snap.Entries)
		rows := make([]string, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, v.renderEntry(entry))
		}
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
		if hidden > 0 {
			b.WriteString("\n")
			b.WriteString(mutedStyle.Render(fmt.Sprintf("%d more entries. Upgrade to PRO or show all.", hidden)))
		}
	}
	return b.String()
}

func (v *View) renderEntry(entry models.HistoryEntry) string {
	full := v.opts.Density == Detailed || v.IsExpanded(entry.ID)

	input, output := entry.InputData, entry.OutputData
	if !full {
		input = Preview(input, InputPreviewChars)
		output = Summarize(output, OutputPreviewChars)
	}

	header := toolStyle.Render(entry.ToolName) + "  " + mutedStyle.Render(RelativeTime(entry.CreatedAt, v.opts.Now()))
	lines := []string{header, input}
	if output != "" {
		lines = append(lines, mutedStyle.Render("→ ")+output)
	}
	if credits, ok := entry.CreditsUsed(); ok && v.opts.Density == Detailed {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%d credits", credits)))
	}

	body := strings.Join(lines, "\n")
	if v.opts.Density == Detailed {
		return entryStyle.Render(body)
	}
	return body + "\n"
}
