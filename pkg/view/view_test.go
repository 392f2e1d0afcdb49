package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tb0hdan/adapta-history/pkg/auth"
	"github.com/tb0hdan/adapta-history/pkg/events"
	"github.com/tb0hdan/adapta-history/pkg/historystore"
	"github.com/tb0hdan/adapta-history/pkg/models"
	"github.com/tb0hdan/adapta-history/pkg/types"
	"gorm.io/datatypes"
)

type memoryBackend struct {
	mu       sync.Mutex
	entries  []models.HistoryEntry
	listErr  error
	deleteOK bool
	deletes  int
	lists    int
}

func (m *memoryBackend) List(context.Context, string, string, int) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.HistoryEntry(nil), m.entries...), nil
}

func (m *memoryBackend) Delete(_ context.Context, _, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if !m.deleteOK {
		return false
	}
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true
		}
	}
	return false
}

type confirmer bool

func (c confirmer) Confirm(string) bool { return bool(c) }

type recorder struct{ messages []string }

func (r *recorder) Notify(message string) { r.messages = append(r.messages, message) }

var now = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

type ViewTestSuite struct {
	suite.Suite
	backend  *memoryBackend
	hub      *events.Hub
	user     *auth.User
	store    *historystore.Store
	notifier *recorder
	copied   string
}

func (s *ViewTestSuite) SetupTest() {
	s.backend = &memoryBackend{deleteOK: true}
	for i := 0; i < 5; i++ {
		s.backend.entries = append(s.backend.entries, models.HistoryEntry{
			ID:         fmt.Sprintf("e%d", i),
			CreatedAt:  now.Add(-time.Duration(i+1) * time.Minute),
			ToolType:   "translation",
			ToolName:   "Tradutor Corporativo",
			InputData:  fmt.Sprintf("input %d", i),
			OutputData: fmt.Sprintf("output %d", i),
			Metadata:   datatypes.JSONMap{"credits_used": float64(1)},
		})
	}
	s.hub = events.NewHub()
	s.user = &auth.User{ID: "u1"}
	s.notifier = &recorder{}
	s.copied = ""
}

func (s *ViewTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
		s.store = nil
	}
}

func (s *ViewTestSuite) newView(opts Options) *View {
	s.store = historystore.New(historystore.Config{
		ToolType: "translation",
		Backend:  s.backend,
		Users:    auth.Static{User: s.user},
		Hub:      s.hub,
	}, zerolog.Nop())

	opts.Hub = s.hub
	opts.Now = func() time.Time { return now }
	opts.Notifier = s.notifier
	opts.Clipboard = func(text string) error {
		s.copied = text
		return nil
	}
	return New(s.store, opts)
}

func (s *ViewTestSuite) listCalls() int {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return s.backend.lists
}

func (s *ViewTestSuite) TestIdleBeforeOpen() {
	v := s.newView(Options{})
	s.Equal(StateIdle, v.State())
	s.NotContains(v.Render(), "Loading history")
	s.Zero(s.listCalls())
}

func (s *ViewTestSuite) TestOpenViewReloadsOnUpdate() {
	v := s.newView(Options{})
	s.store.Mount()
	s.Require().NoError(v.Open(context.Background()))
	s.True(s.store.Visible())

	s.hub.HistoryUpdated.Publish(events.HistoryUpdated{ToolType: "translation"})
	s.Eventually(func() bool { return s.listCalls() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func (s *ViewTestSuite) TestClosedViewIgnoresUpdates() {
	v := s.newView(Options{})
	s.store.Mount()
	s.Require().NoError(v.Open(context.Background()))
	_, err := v.Reuse("e1")
	s.Require().NoError(err)
	s.False(s.store.Visible())

	s.hub.HistoryUpdated.Publish(events.HistoryUpdated{ToolType: "translation"})
	s.store.Close()
	s.Equal(1, s.listCalls())
}

func (s *ViewTestSuite) TestLoginRequired() {
	s.user = nil
	v := s.newView(Options{})

	s.ErrorIs(v.Open(context.Background()), types.ErrNotAuthenticated)
	s.Equal(StateLoginRequired, v.State())
	s.Contains(v.Render(), "Sign in")
}

func (s *ViewTestSuite) TestErrorThenRetry() {
	s.backend.listErr = errors.New("timeout")
	v := s.newView(Options{})

	s.Error(v.Open(context.Background()))
	s.Equal(StateError, v.State())
	s.Contains(v.Render(), historystore.MessageUnavailable)

	s.backend.mu.Lock()
	s.backend.listErr = nil
	s.backend.mu.Unlock()

	s.NoError(v.Retry(context.Background()))
	s.Equal(StateList, v.State())
}

func (s *ViewTestSuite) TestEmptyState() {
	s.backend.entries = nil
	v := s.newView(Options{})

	s.NoError(v.Open(context.Background()))
	s.Equal(StateEmpty, v.State())
	s.Contains(v.Render(), "No history yet")
}

func (s *ViewTestSuite) TestFreeTierCap() {
	v := s.newView(Options{})
	s.Require().NoError(v.Open(context.Background()))

	visible, hidden := v.Visible()
	s.Len(visible, 3)
	s.Equal(2, hidden)
	s.Contains(v.Render(), "2 more entries")
	s.NotContains(v.Render(), "input 3")

	v.ToggleShowAll()
	visible, hidden = v.Visible()
	s.Len(visible, 5)
	s.Zero(hidden)
	s.Contains(v.Render(), "input 4")
}

func (s *ViewTestSuite) TestProSeesEverything() {
	v := s.newView(Options{IsPro: true})
	s.Require().NoError(v.Open(context.Background()))

	visible, hidden := v.Visible()
	s.Len(visible, 5)
	s.Zero(hidden)
}

func (s *ViewTestSuite) TestCopy() {
	v := s.newView(Options{})
	s.Require().NoError(v.Open(context.Background()))

	s.NoError(v.Copy("e1"))
	s.Equal("input 1", s.copied)
	s.Equal([]string{"copied to clipboard"}, s.notifier.messages)

	s.ErrorIs(v.Copy("missing"), ErrEntryNotFound)
}

func (s *ViewTestSuite) TestReusePublishesInputAndCloses() {
	v := s.newView(Options{})
	s.Require().NoError(v.Open(context.Background()))
	s.True(v.IsOpen())

	var received []string
	s.hub.LoadInput.Subscribe(func(ev events.LoadInput) { received = append(received, ev.Text) })

	delivered, err := v.Reuse("e2")
	s.NoError(err)
	s.Equal(1, delivered)
	s.Equal([]string{"input 2"}, received)
	s.False(v.IsOpen())
}

func (s *ViewTestSuite) TestReuseWithoutMountedToolIsNoop() {
	v := s.newView(Options{})
	s.Require().NoError(v.Open(context.Background()))

	delivered, err := v.Reuse("e0")
	s.NoError(err)
	s.Zero(delivered)
}

func (s *ViewTestSuite) TestDeleteRequiresConfirmation() {
	v := s.newView(Options{Confirmer: confirmer(false)})
	s.Require().NoError(v.Open(context.Background()))

	s.ErrorIs(v.Delete(context.Background(), "e0"), ErrCancelled)
	s.Zero(s.backend.deletes)
}

func (s *ViewTestSuite) TestDeleteWithoutConfirmerIsRefused() {
	v := s.newView(Options{})
	s.Require().NoError(v.Open(context.Background()))

	s.ErrorIs(v.Delete(context.Background(), "e0"), ErrCancelled)
	s.Zero(s.backend.deletes)
	visible, _ := v.Visible()
	s.Equal("e0", visible[0].ID)
}

func (s *ViewTestSuite) TestDeleteConfirmed() {
	v := s.newView(Options{Confirmer: confirmer(true), IsPro: true})
	s.Require().NoError(v.Open(context.Background()))

	s.NoError(v.Delete(context.Background(), "e0"))
	visible, _ := v.Visible()
	s.Len(visible, 4)
	s.NotContains(v.Render(), "input 0")
}

func (s *ViewTestSuite) TestDeleteFailureNotifies() {
	s.backend.deleteOK = false
	v := s.newView(Options{IsPro: true, Confirmer: confirmer(true)})
	s.Require().NoError(v.Open(context.Background()))

	s.ErrorIs(v.Delete(context.Background(), "e0"), types.ErrDeleteFailed)
	s.Equal([]string{"could not delete history item"}, s.notifier.messages)
	visible, _ := v.Visible()
	s.Len(visible, 5)
}

func (s *ViewTestSuite) TestToggleOnlyWhenExpandable() {
	v := s.newView(Options{})
	v.Toggle("e0")
	s.False(v.IsExpanded("e0"))

	v = s.newView(Options{Expandable: true})
	v.Toggle("e0")
	s.True(v.IsExpanded("e0"))
	v.Toggle("e0")
	s.False(v.IsExpanded("e0"))
}

func (s *ViewTestSuite) TestCompactPreviewAndDetailed() {
	long := strings.Repeat("x", 400)
	s.backend.entries = []models.HistoryEntry{{
		ID: "long", CreatedAt: now.Add(-10 * 24 * time.Hour), ToolName: "Resumidor", InputData: long, OutputData: long,
		Metadata: datatypes.JSONMap{"credits_used": float64(2)},
	}}

	v := s.newView(Options{Title: "Recent"})
	s.Require().NoError(v.Open(context.Background()))
	out := v.Render()
	s.Contains(out, "Recent")
	s.Contains(out, strings.Repeat("x", InputPreviewChars)+"...")
	s.NotContains(out, strings.Repeat("x", OutputPreviewChars+1))
	s.Contains(out, "10/05/2026")

	s.store.Close()
	v = s.newView(Options{Density: Detailed})
	s.Require().NoError(v.Open(context.Background()))
	out = v.Render()
	s.Contains(out, "2 credits")
}

func TestViewTestSuite(t *testing.T) {
	suite.Run(t, new(ViewTestSuite))
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"questions", `{"questions":["a","b","c"],"tips":["t"]}`, "3 questions"},
		{"single question", `{"questions":["a"]}`, "1 question"},
		{"score", `{"total_score":880,"feedback":"ok"}`, "Score: 880/1000"},
		{"image", `{"image_url":"https://cdn/x.png"}`, "Image: https://cdn/x.png"},
		{"plain", "short text", "short text"},
		{"other json", `{"summary":"s"}`, `{"summary":"s"}`},
		{"long", strings.Repeat("é", 300), strings.Repeat("é", 250) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.output, OutputPreviewChars))
		})
	}
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "5 minutes ago", RelativeTime(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3 hours ago", RelativeTime(now.Add(-3*time.Hour), now))
	assert.Equal(t, "13/05/2026", RelativeTime(now.Add(-7*24*time.Hour), now))
}

func TestRenderStateString(t *testing.T) {
	assert.Equal(t, "login-required", StateLoginRequired.String())
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "unknown", RenderState(99).String())
}
