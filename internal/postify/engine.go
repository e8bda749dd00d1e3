package postify

import (
	"context"
	"fmt"
	"strings"
)

// Engine wires the session, feed, interaction state and dispatcher together
// and exposes the operations a presentation layer needs. All state hangs off
// the Engine; nothing is global.
type Engine struct {
	Session      *SessionStore
	Feed         *FeedStore
	Interactions *Interactions
	Actions      *Dispatcher

	backend Backend
	logger  Logger
}

// Options tunes an Engine. The zero value is usable.
type Options struct {
	Encryptor     Encryptor // seals the persisted session; nil stores plaintext
	Clock         Clock     // defaults to RealClock
	MaxImageBytes int64     // defaults to MaxImageBytes
}

// NewEngine creates an Engine. Logout is wired to clear the feed and then the
// interaction state, in that order, after the identity itself.
func NewEngine(backend Backend, kv KeyValueStore, logger Logger, opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}

	session := NewSessionStore(kv, opts.Encryptor, logger)
	feed := NewFeedStore(backend, logger, clock)
	ui := NewInteractions()
	session.OnLogout(feed.Clear)
	session.OnLogout(ui.ClearAll)

	return &Engine{
		Session:      session,
		Feed:         feed,
		Interactions: ui,
		Actions:      NewDispatcher(session, feed, ui, backend, logger, opts.MaxImageBytes),
		backend:      backend,
		logger:       logger,
	}
}

// Start restores a persisted session and, if there is one, loads the feed.
// It returns the restored user, or nil when the auth screen should be shown.
// A failed initial load is logged and returned, but the session stays active.
func (e *Engine) Start(ctx context.Context) (*User, error) {
	gen := e.Feed.Generation()
	user, err := e.Session.Restore()
	if err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	if err := e.Feed.RefreshFor(ctx, gen); err != nil {
		return user, err
	}
	return user, nil
}

// Signup registers an account. It does not log in; the caller logs in
// separately.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (string, error) {
	if strings.TrimSpace(req.Username) == "" {
		return "", ErrMissingUsername
	}
	if req.Email == "" || req.Password == "" {
		return "", ErrMissingCredentials
	}

	msg, err := e.backend.Signup(ctx, req)
	if err != nil {
		e.logger.Warn("signup rejected", "email", req.Email, "error", err)
		return "", &AuthError{Message: backendMessage(err), Err: err}
	}
	e.logger.Info("account created", "username", req.Username)
	return msg, nil
}

// Login authenticates, starts the session and loads the feed. A failed feed
// load does not fail the login; it is logged and the feed stays empty.
// Logging in as a different user while a session is active ends that session
// first, so none of its feed or ephemeral state carries over.
func (e *Engine) Login(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := e.backend.Login(ctx, email, password)
	if err != nil {
		e.logger.Warn("login rejected", "email", email, "error", err)
		return nil, &AuthError{Message: backendMessage(err), Err: err}
	}
	if user == nil || user.ID == "" {
		return nil, &AuthError{Message: "login response did not include a user"}
	}

	if prev := e.Session.Current(); prev != nil && prev.ID != user.ID {
		e.logger.Info("switching user", "from", prev.Username, "to", user.Username)
		e.Logout()
	}

	gen := e.Feed.Generation()
	if err := e.Session.Login(*user); err != nil {
		e.logger.Error("session not persisted", "error", err)
	}

	if err := e.Feed.RefreshFor(ctx, gen); err != nil {
		e.logger.Warn("initial feed load failed", "error", err)
	}
	return e.Session.Current(), nil
}

// Logout ends the session and clears the feed and every piece of ephemeral state.
func (e *Engine) Logout() {
	e.Session.Logout()
}

// Refresh reloads the feed. It requires a session.
func (e *Engine) Refresh(ctx context.Context) error {
	gen := e.Feed.Generation()
	if e.Session.Current() == nil {
		return ErrNotAuthenticated
	}
	return e.Feed.RefreshFor(ctx, gen)
}

// OpenDetail opens the detail view of the post with the given id.
func (e *Engine) OpenDetail(postID string) bool {
	p, ok := e.Feed.Find(postID)
	if !ok {
		return false
	}
	e.Interactions.OpenDetail(p)
	return true
}

// View returns a consistent snapshot of everything a presentation layer
// renders. Orphaned interaction entries are pruned lazily here once they
// outnumber the posts in a loaded feed by two to one.
func (e *Engine) View() FeedView {
	posts, loading := e.Feed.Snapshot()
	if n := e.Interactions.Len(); len(posts) > 0 && n > 2*len(posts) {
		if removed := e.Interactions.Prune(posts); removed > 0 {
			e.logger.Debug("pruned orphaned interaction state", "entries", removed)
		}
	}
	return ProjectView(posts, e.Session.Current(), e.Interactions, loading)
}
