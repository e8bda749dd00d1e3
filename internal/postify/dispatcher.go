package postify

import (
	"context"
	"strings"
)

// Dispatcher performs the mutating feed actions. Every action confirms with
// the backend first and then refetches the whole feed; nothing is patched
// into the local collection.
type Dispatcher struct {
	session  *SessionStore
	feed     *FeedStore
	ui       *Interactions
	backend  Backend
	logger   Logger
	maxImage int64
}

// NewDispatcher creates a Dispatcher. maxImage caps upload size in bytes;
// values outside (0, MaxImageBytes] fall back to MaxImageBytes.
func NewDispatcher(session *SessionStore, feed *FeedStore, ui *Interactions, backend Backend, logger Logger, maxImage int64) *Dispatcher {
	if maxImage <= 0 || maxImage > MaxImageBytes {
		maxImage = MaxImageBytes
	}
	return &Dispatcher{
		session:  session,
		feed:     feed,
		ui:       ui,
		backend:  backend,
		logger:   logger,
		maxImage: maxImage,
	}
}

// CreatePost validates the draft locally, submits it and refreshes the feed.
// Validation failures return a *ValidationError without any remote call.
// A backend rejection returns an *ActionError and the feed is not refreshed.
func (d *Dispatcher) CreatePost(ctx context.Context, draft PostDraft) error {
	gen := d.feed.Generation()
	user := d.session.Current()
	if user == nil {
		return ErrNotAuthenticated
	}

	if !draft.hasText() && !draft.hasImage() {
		return ErrEmptyPost
	}

	var img *Image
	if draft.hasImage() {
		c := *draft.Image
		if err := validateImage(&c, d.maxImage); err != nil {
			return err
		}
		img = &c
	}

	text := draft.Text
	if !draft.hasText() {
		text = ""
	}

	err := d.backend.CreatePost(ctx, NewPost{Actor: actorOf(user), Text: text, Image: img})
	if err != nil {
		d.logger.Error("creating post", "error", err)
		return &ActionError{Action: "create post", Message: backendMessage(err), Err: err}
	}

	d.logger.Info("post created", "user", user.Username, "image", img != nil)
	d.ui.CloseComposer()
	d.refreshAfter(ctx, gen, "create post")
	return nil
}

// ToggleLike likes or unlikes postID; the server decides which. On failure
// the error is logged and returned, and the feed keeps its last confirmed state.
func (d *Dispatcher) ToggleLike(ctx context.Context, postID string) error {
	gen := d.feed.Generation()
	user := d.session.Current()
	if user == nil {
		return ErrNotAuthenticated
	}

	if err := d.backend.ToggleLike(ctx, postID, actorOf(user)); err != nil {
		d.logger.Warn("toggling like", "post", postID, "error", err)
		return &ActionError{Action: "toggle like", Message: backendMessage(err), Err: err}
	}

	d.logger.Debug("like toggled", "post", postID, "user", user.Username)
	d.refreshAfter(ctx, gen, "toggle like")
	return nil
}

// AddComment submits text as a comment on postID. Blank text is rejected
// with ErrEmptyComment before any remote call. On success only this post's
// draft is cleared.
func (d *Dispatcher) AddComment(ctx context.Context, postID, text string) error {
	gen := d.feed.Generation()
	user := d.session.Current()
	if user == nil {
		return ErrNotAuthenticated
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyComment
	}

	if err := d.backend.AddComment(ctx, postID, actorOf(user), text); err != nil {
		d.logger.Warn("adding comment", "post", postID, "error", err)
		return &ActionError{Action: "add comment", Message: backendMessage(err), Err: err}
	}

	d.logger.Debug("comment added", "post", postID, "user", user.Username)
	d.ui.ClearDraft(postID)
	d.refreshAfter(ctx, gen, "add comment")
	return nil
}

// SubmitDraft submits the current draft for postID as a comment.
func (d *Dispatcher) SubmitDraft(ctx context.Context, postID string) error {
	return d.AddComment(ctx, postID, d.ui.Draft(postID))
}

// refreshAfter reloads the feed after a confirmed action. gen is the feed
// generation captured when the action started, so an action that outlives
// its session does not repopulate the feed. A failed reload is logged by the
// store; the action itself already succeeded.
func (d *Dispatcher) refreshAfter(ctx context.Context, gen uint64, action string) {
	if err := d.feed.RefreshFor(ctx, gen); err != nil {
		d.logger.Warn("feed not refreshed after action", "action", action, "error", err)
	}
}
