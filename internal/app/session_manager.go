package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rmuhamedgaliev/arcana/internal/engine"
	"github.com/rmuhamedgaliev/arcana/internal/observe"
	"github.com/rmuhamedgaliev/arcana/internal/player"
	"github.com/rmuhamedgaliev/arcana/internal/story/catalog"
)

// SessionInfo holds metadata about an active session.
type SessionInfo struct {
	// Key identifies the transport endpoint the session belongs to
	// (a WebSocket connection, a Discord channel).
	Key string

	// PlayerID is the player the session loads and saves.
	PlayerID string

	// StartedAt is when the session was started.
	StartedAt time.Time
}

// managedSession is one running engine. cancel stops it; done closes
// when the engine goroutine has fully exited.
type managedSession struct {
	info   SessionInfo
	cancel context.CancelFunc
	done   chan struct{}
}

// SessionManager runs game sessions, at most one per key. Starting a
// session on a key that already has one stops the old session first.
// All exported methods are safe for concurrent use.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*managedSession

	catalog    *catalog.Catalog
	store      player.Store
	metrics    *observe.Metrics
	log        *slog.Logger
	showStatus bool
}

// NewSessionManager creates a SessionManager. metrics may be nil; log
// defaults to slog.Default.
func NewSessionManager(cat *catalog.Catalog, store player.Store, metrics *observe.Metrics, log *slog.Logger) *SessionManager {
	if log == nil {
		log = slog.Default()
	}
	return &SessionManager{
		sessions:   make(map[string]*managedSession),
		catalog:    cat,
		store:      store,
		metrics:    metrics,
		log:        log,
		showStatus: true,
	}
}

// SetStatusDisplay toggles the attribute snapshot in new sessions.
// Running sessions keep their setting.
func (sm *SessionManager) SetStatusDisplay(enabled bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.showStatus = enabled
}

// Run hosts a session on the calling goroutine and blocks until it
// ends. Any previous session on the same key is stopped and waited for
// before the new one begins.
func (sm *SessionManager) Run(ctx context.Context, key, playerID string, ch engine.Channel) engine.Reason {
	sm.stopAndWait(key)

	p, err := sm.loadPlayer(ctx, playerID)
	if err != nil {
		sm.log.Error("failed to load player, refusing session",
			"key", key, "player", playerID, "error", err)
		return engine.ReasonDataError
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	sess := &managedSession{
		info:   SessionInfo{Key: key, PlayerID: playerID, StartedAt: time.Now().UTC()},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	sm.mu.Lock()
	sm.sessions[key] = sess
	sm.mu.Unlock()

	defer func() {
		cancel()
		sm.mu.Lock()
		if sm.sessions[key] == sess {
			delete(sm.sessions, key)
		}
		sm.mu.Unlock()
		close(sess.done)
	}()

	if sm.metrics != nil {
		stop := sm.metrics.SessionStarted(sessionCtx)
		defer stop()
	}

	opts := []engine.Option{engine.WithLogger(sm.log.With("key", key))}
	if sm.metrics != nil {
		opts = append(opts, engine.WithRecorder(sm.metrics))
	}
	sm.mu.Lock()
	showStatus := sm.showStatus
	sm.mu.Unlock()
	if !showStatus {
		opts = append(opts, engine.WithStatusDisplay(false))
	}

	gctx := engine.NewGameContext(p, sm.catalog)
	return engine.New(gctx, ch, sm.store, opts...).Run(sessionCtx)
}

// Start hosts a session on its own goroutine; onDone, if non-nil, is
// called with the terminal reason after the session has fully exited.
func (sm *SessionManager) Start(ctx context.Context, key, playerID string, ch engine.Channel, onDone func(engine.Reason)) {
	go func() {
		reason := sm.Run(ctx, key, playerID, ch)
		if onDone != nil {
			onDone(reason)
		}
	}()
}

// Stop cancels the session on key, if any, and waits for it to exit.
// Reports whether a session was running.
func (sm *SessionManager) Stop(key string) bool {
	return sm.stopAndWait(key)
}

// StopAll cancels every running session and waits for them to exit or
// for ctx to expire.
func (sm *SessionManager) StopAll(ctx context.Context) error {
	sm.mu.Lock()
	sessions := make([]*managedSession, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.Unlock()

	for _, s := range sessions {
		s.cancel()
	}
	for _, s := range sessions {
		select {
		case <-s.done:
		case <-ctx.Done():
			return fmt.Errorf("app: stop sessions: %w", ctx.Err())
		}
	}
	return nil
}

// Reset stops the player's session on key and wipes the player's
// attributes and progress. The identity row survives.
func (sm *SessionManager) Reset(ctx context.Context, key, playerID string) error {
	sm.stopAndWait(key)
	if err := sm.store.ResetProgress(ctx, playerID); err != nil {
		return fmt.Errorf("app: reset progress: %w", err)
	}
	sm.log.Info("player progress reset", "key", key, "player", playerID)
	return nil
}

// IsActive reports whether a session is running on key.
func (sm *SessionManager) IsActive(key string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	_, ok := sm.sessions[key]
	return ok
}

// Active returns the number of running sessions.
func (sm *SessionManager) Active() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// Info returns metadata for the session on key, if one is running.
func (sm *SessionManager) Info(key string) (SessionInfo, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.sessions[key]
	if !ok {
		return SessionInfo{}, false
	}
	return s.info, true
}

// stopAndWait cancels the session on key and blocks until its
// goroutine has exited. The wait happens outside the lock so the
// exiting session can deregister itself.
func (sm *SessionManager) stopAndWait(key string) bool {
	sm.mu.Lock()
	sess, ok := sm.sessions[key]
	if ok {
		delete(sm.sessions, key)
	}
	sm.mu.Unlock()

	if !ok {
		return false
	}
	sess.cancel()
	<-sess.done
	return true
}

// loadPlayer fetches the stored player or creates a fresh one.
func (sm *SessionManager) loadPlayer(ctx context.Context, playerID string) (*player.Player, error) {
	p, err := sm.store.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = player.New(playerID)
	}
	return p, nil
}
