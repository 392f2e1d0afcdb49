// Package historystore holds the loading state of one history list.
//
// A Store moves through Idle, Loading, Loaded and Error. Every reload
// supersedes the previous one: a result that arrives after a newer reload
// started, or after Close, is dropped.
package historystore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qmuntal/stateless"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/adapta-history/pkg/auth"
	"github.com/tb0hdan/adapta-history/pkg/events"
	"github.com/tb0hdan/adapta-history/pkg/models"
	"github.com/tb0hdan/adapta-history/pkg/types"
)

type State string

const (
	StateIdle    State = "Idle"
	StateLoading State = "Loading"
	StateLoaded  State = "Loaded"
	StateError   State = "Error"
)

type trigger string

const (
	triggerReload    trigger = "Reload"
	triggerSucceeded trigger = "ListSucceeded"
	triggerFailed    trigger = "ListFailed"
)

const (
	MessageNotAuthenticated = "sign in to see your history"
	MessageUnavailable      = "could not load history, check your connection and retry"
)

var ErrClosed = errors.New("history store closed")

// Backend is the subset of the history client a store needs.
type Backend interface {
	List(ctx context.Context, userID, toolType string, limit int) ([]models.HistoryEntry, error)
	Delete(ctx context.Context, userID, entryID string) bool
}

type Config struct {
	// ToolType scopes the list. Empty lists every tool.
	ToolType string
	// Limit <= 0 uses the backend default.
	Limit   int
	Backend Backend
	Users   auth.Provider
	Hub     *events.Hub
	// Sessions, when set, triggers a reload whenever the signed-in user changes.
	Sessions *events.Bus[auth.SessionChange]
}

// Snapshot is an immutable view of the store. Version increases with every
// transition, so observers can drop stale snapshots.
type Snapshot struct {
	State    State
	ToolType string
	Entries  []models.HistoryEntry
	Err      error
	Message  string
	Version  uint64
}

// NeedsLogin reports whether the last load failed for lack of a user.
func (s Snapshot) NeedsLogin() bool {
	return s.State == StateError && errors.Is(s.Err, types.ErrNotAuthenticated)
}

type Store struct {
	cfg    Config
	hub    *events.Hub
	logger zerolog.Logger

	mu      sync.Mutex
	fsm     *stateless.StateMachine
	seq     uint64
	version uint64
	entries []models.HistoryEntry
	err     error
	closed  bool
	visible bool
	unsubs  []func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	changes events.Bus[Snapshot]
}

func New(cfg Config, logger zerolog.Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())

	fsm := stateless.NewStateMachine(StateIdle)
	fsm.Configure(StateIdle).
		Permit(triggerReload, StateLoading)
	fsm.Configure(StateLoading).
		PermitReentry(triggerReload).
		Permit(triggerSucceeded, StateLoaded).
		Permit(triggerFailed, StateError)
	fsm.Configure(StateLoaded).
		Permit(triggerReload, StateLoading)
	fsm.Configure(StateError).
		Permit(triggerReload, StateLoading)

	return &Store{
		cfg:    cfg,
		hub:    events.Or(cfg.Hub),
		logger: logger.With().Str("component", "history-store").Str("tool_type", cfg.ToolType).Logger(),
		fsm:    fsm,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Mount subscribes to history updates (and session changes when
// configured). A matching update triggers a background reload, but only
// while the store is visible; a store that was never shown stays Idle.
func (s *Store) Mount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(s.unsubs) > 0 {
		return
	}

	s.unsubs = append(s.unsubs, s.hub.HistoryUpdated.Subscribe(func(ev events.HistoryUpdated) {
		if s.cfg.ToolType != "" && ev.ToolType != s.cfg.ToolType {
			return
		}
		s.reloadAsync()
	}))
	if s.cfg.Sessions != nil {
		s.unsubs = append(s.unsubs, s.cfg.Sessions.Subscribe(func(auth.SessionChange) {
			s.reloadAsync()
		}))
	}
}

// SetVisible marks whether the list is currently shown. Hidden stores ignore
// update and session events; explicit Reload calls still go through.
func (s *Store) SetVisible(visible bool) {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
}

func (s *Store) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *Store) reloadAsync() {
	s.mu.Lock()
	if s.closed || !s.visible {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		if err := s.Reload(s.ctx); err != nil && !errors.Is(err, ErrClosed) {
			s.logger.Debug().Err(err).Msg("background reload failed")
		}
	}()
}

// OnChange registers an observer for every transition. Observers run on the
// goroutine that caused the transition and must not block.
func (s *Store) OnChange(fn func(Snapshot)) func() {
	return s.changes.Subscribe(fn)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:    s.fsm.MustState().(State),
		ToolType: s.cfg.ToolType,
		Err:      s.err,
		Version:  s.version,
	}
	if s.entries != nil {
		snap.Entries = make([]models.HistoryEntry, len(s.entries))
		copy(snap.Entries, s.entries)
	}
	if snap.State == StateError {
		snap.Message = MessageUnavailable
		if errors.Is(s.err, types.ErrNotAuthenticated) {
			snap.Message = MessageNotAuthenticated
		}
	}
	return snap
}

// fireLocked must be called with mu held.
func (s *Store) fireLocked(t trigger) error {
	if err := s.fsm.Fire(t); err != nil {
		return fmt.Errorf("history store transition %s: %w", t, err)
	}
	s.version++
	return nil
}

// Reload fetches the list again. It returns the load error, ErrClosed after
// Close, or nil when a newer reload superseded this one.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.seq++
	seq := s.seq
	if err := s.fireLocked(triggerReload); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.changes.Publish(snap)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	entries, loadErr := s.load(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if seq != s.seq {
		s.mu.Unlock()
		s.logger.Debug().Uint64("seq", seq).Msg("discarding superseded history result")
		return nil
	}
	t := triggerSucceeded
	if loadErr != nil {
		t = triggerFailed
		s.entries = nil
		s.err = loadErr
	} else {
		s.entries = entries
		s.err = nil
	}
	if err := s.fireLocked(t); err != nil {
		s.mu.Unlock()
		return err
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.changes.Publish(snap)

	return loadErr
}

func (s *Store) currentUser(ctx context.Context) (*auth.User, error) {
	if s.cfg.Users == nil {
		return nil, types.ErrNotAuthenticated
	}
	user, err := s.cfg.Users.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrNotAuthenticated, err)
	}
	if user == nil || user.ID == "" {
		return nil, types.ErrNotAuthenticated
	}
	return user, nil
}

func (s *Store) load(ctx context.Context) ([]models.HistoryEntry, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.cfg.Backend.List(ctx, user.ID, s.cfg.ToolType, s.cfg.Limit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("history load failed")
		if errors.Is(err, types.ErrNotAuthenticated) {
			return nil, err
		}
		if !errors.Is(err, types.ErrHistoryUnavailable) {
			err = fmt.Errorf("%w: %w", types.ErrHistoryUnavailable, err)
		}
		return nil, err
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

// Delete asks the backend to remove entryID. The list is never edited
// locally: success triggers a full reload, failure leaves it as it was and
// returns ErrDeleteFailed.
func (s *Store) Delete(ctx context.Context, entryID string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if !s.cfg.Backend.Delete(ctx, user.ID, entryID) {
		return fmt.Errorf("%w: %s", types.ErrDeleteFailed, entryID)
	}

	if err := s.Reload(ctx); err != nil && !errors.Is(err, ErrClosed) {
		s.logger.Debug().Err(err).Msg("reload after delete failed")
	}
	return nil
}

// Find returns the loaded entry with the given id.
func (s *Store) Find(entryID string) (models.HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == entryID {
			return e, true
		}
	}
	return models.HistoryEntry{}, false
}

// Close unsubscribes, cancels in-flight loads and waits for background
// reloads. Later results are discarded.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	s.cancel()
	s.wg.Wait()
}
