package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"postify/internal/api"
	"postify/internal/config"
	"postify/internal/database"
	"postify/internal/encryption"
	"postify/internal/postify"
)

// ErrNoSession is returned by commands that need a logged-in user when no
// session was persisted.
var ErrNoSession = fmt.Errorf("%w: run 'postify login' first", postify.ErrNotAuthenticated)

// PostifyApp is the application layer between the CLI and the engine.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw CLI input, and manages the DB lifecycle on Close.
type PostifyApp struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	engine  *postify.Engine
	logger  *slog.Logger
	op      *Operation
	logFile *os.File
}

// NewApp creates a fully wired PostifyApp from the given config.
// operation identifies the CLI command being run (e.g. "Login", "Post").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*PostifyApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, cfg.LogLevel)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	client, err := api.NewClient(cfg.APIURL, cfg.RequestTimeout.Duration, logger, postify.UUIDGenerator{})
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating api client: %w", err)
	}

	logger.Debug("app starting", "operation", operation, "database", db.Path(), "api", cfg.APIURL)

	engine := postify.NewEngine(client, db, logger, postify.Options{
		Encryptor:     enc,
		MaxImageBytes: cfg.Feed.MaxImageBytes,
	})

	return &PostifyApp{
		cfg:     cfg,
		db:      db,
		engine:  engine,
		logger:  logger,
		op:      NewOperation(operation, ""),
		logFile: logFile,
	}, nil
}

// newAppWith wires an app around an existing backend and store. Tests use it
// to run the app layer against a fake backend.
func newAppWith(backend postify.Backend, db *database.SQLiteDatabase, operation string) *PostifyApp {
	logger := slog.New(newHandler(io.Discard, "test", slog.LevelDebug))
	return &PostifyApp{
		cfg:    config.NewConfig(os.TempDir()),
		db:     db,
		engine: postify.NewEngine(backend, db, logger, postify.Options{}),
		logger: logger,
		op:     NewOperation(operation, ""),
	}
}

// persistOperation saves the operation to the database, giving it an id.
// Only commands that change client or server state call it.
func (a *PostifyApp) persistOperation(parameters string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = parameters
	dbOp, err := a.db.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// resume restores the persisted session and loads the feed.
func (a *PostifyApp) resume(ctx context.Context) (*postify.User, error) {
	user, err := a.engine.Start(ctx)
	if user == nil {
		if err != nil {
			return nil, err
		}
		return nil, ErrNoSession
	}
	return user, err
}

// Signup registers an account. It does not log in.
func (a *PostifyApp) Signup(ctx context.Context, username, email, password string) (string, error) {
	if err := a.persistOperation(email); err != nil {
		return "", err
	}
	msg, err := a.engine.Signup(ctx, postify.SignupRequest{Username: username, Email: email, Password: password})
	return msg, a.op.Record(err)
}

// Login authenticates and persists the session for later commands.
func (a *PostifyApp) Login(ctx context.Context, email, password string) (*postify.User, error) {
	if err := a.persistOperation(email); err != nil {
		return nil, err
	}
	user, err := a.engine.Login(ctx, email, password)
	return user, a.op.Record(err)
}

// Logout ends the persisted session. It succeeds even if no one is logged in.
func (a *PostifyApp) Logout() (*postify.User, error) {
	if err := a.persistOperation(""); err != nil {
		return nil, err
	}
	user, err := a.engine.Session.Restore()
	if err != nil {
		a.logger.Warn("reading session before logout", "error", err)
	}
	a.engine.Logout()
	return user, nil
}

// WhoAmI returns the persisted user without contacting the backend, or nil.
func (a *PostifyApp) WhoAmI() (*postify.User, error) {
	return a.engine.Session.Restore()
}

// Feed loads the feed and returns the view for the given tab ("all" or "mine").
func (a *PostifyApp) Feed(ctx context.Context, rawTab string) (postify.FeedView, error) {
	tab, ok := postify.ParseTab(rawTab)
	if !ok {
		return postify.FeedView{}, fmt.Errorf("unknown tab %q: use all or mine", rawTab)
	}
	if _, err := a.resume(ctx); err != nil {
		return postify.FeedView{}, err
	}
	a.engine.Interactions.SetTab(tab)
	return a.engine.View(), nil
}

// Show returns a single post with its comments expanded.
func (a *PostifyApp) Show(ctx context.Context, postID string) (*postify.FeedEntry, error) {
	if _, err := a.resume(ctx); err != nil {
		return nil, err
	}
	if !a.engine.OpenDetail(postID) {
		return nil, fmt.Errorf("post %s not found", postID)
	}
	return a.engine.View().Detail, nil
}

// CreatePost publishes a post. imagePath may be empty.
func (a *PostifyApp) CreatePost(ctx context.Context, text, imagePath string) error {
	if _, err := a.resume(ctx); err != nil {
		return err
	}
	if err := a.persistOperation(imagePath); err != nil {
		return err
	}

	draft := postify.PostDraft{Text: text}
	if imagePath != "" {
		img, err := ReadImageFile(imagePath, a.cfg.Feed.MaxImageBytes)
		if err != nil {
			return a.op.Record(err)
		}
		draft.Image = img
	}
	return a.op.Record(a.engine.Actions.CreatePost(ctx, draft))
}

// ToggleLike likes or unlikes a post and reports whether it is now liked.
func (a *PostifyApp) ToggleLike(ctx context.Context, postID string) (bool, error) {
	user, err := a.resume(ctx)
	if err != nil {
		return false, err
	}
	if err := a.persistOperation(postID); err != nil {
		return false, err
	}
	if err := a.op.Record(a.engine.Actions.ToggleLike(ctx, postID)); err != nil {
		return false, err
	}
	p, ok := a.engine.Feed.Find(postID)
	return ok && postify.IsLikedByMe(p, user), nil
}

// Comment adds a comment to a post.
func (a *PostifyApp) Comment(ctx context.Context, postID, text string) error {
	if _, err := a.resume(ctx); err != nil {
		return err
	}
	if err := a.persistOperation(postID); err != nil {
		return err
	}
	return a.op.Record(a.engine.Actions.AddComment(ctx, postID, text))
}

// GetHistory returns the most recent recorded operations.
func (a *PostifyApp) GetHistory(limit int) ([]*database.Operation, error) {
	return a.db.ListOperations(limit)
}

// Close finalizes the operation record and closes all resources.
func (a *PostifyApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
