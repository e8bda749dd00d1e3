package postify

import (
	"strings"
	"time"
)

// User is an authenticated account as returned by the backend on login.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Like records that a user liked a post.
type Like struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Comment is a single comment attached to a post. Comments are append-only.
type Comment struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	Text        string    `json:"text"`
	CommentedAt time.Time `json:"commentedAt"`
}

// Post is a feed entry. Username is a denormalized copy taken when the post
// was created and is never re-resolved. Image holds the inlined data URL.
type Post struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"text,omitempty"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Likes     []Like    `json:"likes"`
	Comments  []Comment `json:"comments"`
}

// clone returns a deep copy so callers never share slices with the store.
func (p Post) clone() Post {
	c := p
	if p.Likes != nil {
		c.Likes = append([]Like(nil), p.Likes...)
	}
	if p.Comments != nil {
		c.Comments = append([]Comment(nil), p.Comments...)
	}
	return c
}

func clonePosts(posts []Post) []Post {
	out := make([]Post, len(posts))
	for i := range posts {
		out[i] = posts[i].clone()
	}
	return out
}

// Image is an image selected for upload, before it is inlined into a post.
type Image struct {
	Data        []byte
	ContentType string // detected from Data when empty
}

// PostDraft is the user's input to CreatePost.
type PostDraft struct {
	Text  string
	Image *Image
}

// hasText reports whether the draft carries non-blank text.
func (d PostDraft) hasText() bool {
	return strings.TrimSpace(d.Text) != ""
}

// hasImage reports whether the draft carries image bytes.
func (d PostDraft) hasImage() bool {
	return d.Image != nil && len(d.Image.Data) > 0
}

// Actor identifies the user performing a mutating call.
type Actor struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func actorOf(u *User) Actor {
	return Actor{UserID: u.ID, Username: u.Username}
}

// NewPost is the payload sent to the backend to create a post.
type NewPost struct {
	Actor
	Text  string
	Image *Image
}

// SignupRequest carries the fields required to register an account.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Tab selects which feed a view shows.
type Tab string

const (
	TabAll  Tab = "all"
	TabMine Tab = "mine"
)

// ParseTab converts user input into a Tab. "my" is accepted as an alias of "mine".
func ParseTab(s string) (Tab, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return TabAll, true
	case "mine", "my":
		return TabMine, true
	default:
		return "", false
	}
}
