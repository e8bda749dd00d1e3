package postify

import "context"

// Backend is the remote feed service. Implementations must be safe for
// concurrent use. Errors that carry a server message should implement
// MessageCarrier so it can be shown to the user verbatim.
type Backend interface {
	// Signup registers a new account and returns the server's confirmation message.
	Signup(ctx context.Context, req SignupRequest) (string, error)

	// Login validates credentials and returns the authenticated user.
	Login(ctx context.Context, email, password string) (*User, error)

	// ListPosts returns the full feed in the order the server chooses.
	ListPosts(ctx context.Context) ([]Post, error)

	// CreatePost submits a new post on behalf of the actor.
	CreatePost(ctx context.Context, post NewPost) error

	// ToggleLike likes the post for the actor, or unlikes it if already liked.
	ToggleLike(ctx context.Context, postID string, actor Actor) error

	// AddComment appends a comment to the post.
	AddComment(ctx context.Context, postID string, actor Actor, text string) error
}
