package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"postify/internal/postify"
)

// BackendError is a failure carrying a server message, like the HTTP client's
// status errors.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string          { return e.Message }
func (e *BackendError) BackendMessage() string { return e.Message }

// ErrTransport simulates a network failure with no server message.
var ErrTransport = errors.New("connection refused")

type fakeAccount struct {
	user     postify.User
	password string
}

// FakeBackend is an in-memory postify.Backend with the same semantics as
// the real service: newest posts first, server-side like toggling, and
// append-only comments. It counts calls and can be made to fail or block.
type FakeBackend struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount // by email
	posts    []postify.Post
	clock    *StubClock
	ids      *StubIDGenerator
	userIDs  *StubIDGenerator
	calls    map[string]int

	// Fail* make the corresponding call return the error when non-nil.
	FailSignup  error
	FailLogin   error
	FailList    error
	FailCreate  error
	FailLike    error
	FailComment error

	// BeforeListReturn, when set, runs after ListPosts has taken its snapshot
	// and before it returns. Tests use it to hold a response in flight.
	BeforeListReturn func(ctx context.Context)

	// AfterMutation, when set, runs after a like or comment has been applied
	// and before the call returns.
	AfterMutation func(ctx context.Context)
}

// NewFakeBackend creates an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		accounts: make(map[string]*fakeAccount),
		clock:    FixedClock(),
		ids:      NewStubIDGenerator("post"),
		userIDs:  NewStubIDGenerator("user"),
		calls:    make(map[string]int),
	}
}

// AddUser registers an account directly and returns it.
func (b *FakeBackend) AddUser(id, username, email, password string) postify.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := postify.User{ID: id, Username: username, Email: email}
	b.accounts[email] = &fakeAccount{user: u, password: password}
	return u
}

// Calls returns how many times the named method was called.
func (b *FakeBackend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// Posts returns the server-side collection.
func (b *FakeBackend) Posts() []postify.Post {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]postify.Post(nil), b.posts...)
}

// Seed inserts a post directly, bypassing validation.
func (b *FakeBackend) Seed(p postify.Post) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.posts = append([]postify.Post{p}, b.posts...)
}

func (b *FakeBackend) Signup(_ context.Context, req postify.SignupRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["Signup"]++
	if b.FailSignup != nil {
		return "", b.FailSignup
	}
	if _, ok := b.accounts[req.Email]; ok {
		return "", &BackendError{Message: "Email already registered"}
	}
	for _, a := range b.accounts {
		if a.user.Username == req.Username {
			return "", &BackendError{Message: "Username already taken"}
		}
	}
	u := postify.User{ID: b.userIDs.New(), Username: req.Username, Email: req.Email}
	b.accounts[req.Email] = &fakeAccount{user: u, password: req.Password}
	return "User created successfully", nil
}

func (b *FakeBackend) Login(_ context.Context, email, password string) (*postify.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["Login"]++
	if b.FailLogin != nil {
		return nil, b.FailLogin
	}
	a, ok := b.accounts[email]
	if !ok || a.password != password {
		return nil, &BackendError{Message: "Invalid credentials"}
	}
	u := a.user
	return &u, nil
}

func (b *FakeBackend) ListPosts(ctx context.Context) ([]postify.Post, error) {
	b.mu.Lock()
	b.calls["ListPosts"]++
	if b.FailList != nil {
		err := b.FailList
		b.mu.Unlock()
		return nil, err
	}
	snapshot := make([]postify.Post, len(b.posts))
	for i, p := range b.posts {
		p.Likes = append([]postify.Like{}, p.Likes...)
		p.Comments = append([]postify.Comment{}, p.Comments...)
		snapshot[i] = p
	}
	hook := b.BeforeListReturn
	b.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	return snapshot, nil
}

func (b *FakeBackend) CreatePost(_ context.Context, np postify.NewPost) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["CreatePost"]++
	if b.FailCreate != nil {
		return b.FailCreate
	}
	p := postify.Post{
		ID:        b.ids.New(),
		UserID:    np.UserID,
		Username:  np.Username,
		Text:      np.Text,
		CreatedAt: b.clock.Now(),
	}
	if np.Image != nil {
		p.Image = np.Image.DataURL()
	}
	b.clock.Advance(1)
	b.posts = append([]postify.Post{p}, b.posts...)
	return nil
}

func (b *FakeBackend) ToggleLike(ctx context.Context, postID string, actor postify.Actor) error {
	if err := b.toggleLike(postID, actor); err != nil {
		return err
	}
	b.afterMutation(ctx)
	return nil
}

func (b *FakeBackend) toggleLike(postID string, actor postify.Actor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["ToggleLike"]++
	if b.FailLike != nil {
		return b.FailLike
	}
	p, err := b.find(postID)
	if err != nil {
		return err
	}
	for i, l := range p.Likes {
		if l.UserID == actor.UserID {
			p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
			return nil
		}
	}
	p.Likes = append(p.Likes, postify.Like{UserID: actor.UserID, Username: actor.Username})
	return nil
}

func (b *FakeBackend) AddComment(ctx context.Context, postID string, actor postify.Actor, text string) error {
	if err := b.addComment(postID, actor, text); err != nil {
		return err
	}
	b.afterMutation(ctx)
	return nil
}

func (b *FakeBackend) addComment(postID string, actor postify.Actor, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["AddComment"]++
	if b.FailComment != nil {
		return b.FailComment
	}
	p, err := b.find(postID)
	if err != nil {
		return err
	}
	p.Comments = append(p.Comments, postify.Comment{
		UserID:      actor.UserID,
		Username:    actor.Username,
		Text:        text,
		CommentedAt: b.clock.Now(),
	})
	return nil
}

func (b *FakeBackend) afterMutation(ctx context.Context) {
	b.mu.Lock()
	hook := b.AfterMutation
	b.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
}

// find returns a pointer into b.posts. Caller holds mu.
func (b *FakeBackend) find(postID string) (*postify.Post, error) {
	for i := range b.posts {
		if b.posts[i].ID == postID {
			return &b.posts[i], nil
		}
	}
	return nil, &BackendError{Message: fmt.Sprintf("Post %s not found", postID)}
}

var _ postify.Backend = (*FakeBackend)(nil)
