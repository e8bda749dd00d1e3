package devserver

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"postify/internal/postify"
)

var (
	errEmailTaken    = errors.New("email already registered")
	errUsernameTaken = errors.New("username already taken")
	errInvalidLogin  = errors.New("invalid credentials")
	errPostNotFound  = errors.New("post not found")
)

type account struct {
	user postify.User
	hash []byte
}

// store is the in-memory state of the development backend. Posts are kept
// newest first, the order the feed is served in.
type store struct {
	mu       sync.RWMutex
	accounts map[string]*account // by lowercased email
	posts    []*postify.Post
	ids      postify.IDGenerator
	clock    postify.Clock
	cost     int
}

func newStore(ids postify.IDGenerator, clock postify.Clock, bcryptCost int) *store {
	return &store{
		accounts: make(map[string]*account),
		ids:      ids,
		clock:    clock,
		cost:     bcryptCost,
	}
}

func (s *store) signup(username, email, password string) (postify.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return postify.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := s.accounts[key]; ok {
		return postify.User{}, errEmailTaken
	}
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Username, username) {
			return postify.User{}, errUsernameTaken
		}
	}

	u := postify.User{ID: s.ids.New(), Username: username, Email: email}
	s.accounts[key] = &account{user: u, hash: hash}
	return u, nil
}

func (s *store) login(email, password string) (postify.User, error) {
	s.mu.RLock()
	a, ok := s.accounts[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return postify.User{}, errInvalidLogin
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return postify.User{}, errInvalidLogin
	}
	return a.user, nil
}

func (s *store) list() []postify.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]postify.Post, len(s.posts))
	for i, p := range s.posts {
		out[i] = copyPost(p)
	}
	return out
}

func (s *store) create(actor postify.Actor, text, image string) postify.Post {
	p := &postify.Post{
		ID:        s.ids.New(),
		UserID:    actor.UserID,
		Username:  actor.Username,
		Text:      text,
		Image:     image,
		CreatedAt: s.clock.Now(),
		Likes:     []postify.Like{},
		Comments:  []postify.Comment{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append([]*postify.Post{p}, s.posts...)
	return copyPost(p)
}

// toggleLike removes the actor's like if present and adds it otherwise.
func (s *store) toggleLike(postID string, actor postify.Actor) (postify.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.find(postID)
	if p == nil {
		return postify.Post{}, errPostNotFound
	}
	for i, l := range p.Likes {
		if l.UserID == actor.UserID {
			p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
			return copyPost(p), nil
		}
	}
	p.Likes = append(p.Likes, postify.Like{UserID: actor.UserID, Username: actor.Username})
	return copyPost(p), nil
}

func (s *store) comment(postID string, actor postify.Actor, text string) (postify.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.find(postID)
	if p == nil {
		return postify.Post{}, errPostNotFound
	}
	p.Comments = append(p.Comments, postify.Comment{
		UserID:      actor.UserID,
		Username:    actor.Username,
		Text:        text,
		CommentedAt: s.clock.Now(),
	})
	return copyPost(p), nil
}

// find returns the post with id. Caller holds mu.
func (s *store) find(id string) *postify.Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func copyPost(p *postify.Post) postify.Post {
	c := *p
	c.Likes = append([]postify.Like{}, p.Likes...)
	c.Comments = append([]postify.Comment{}, p.Comments...)
	return c
}

// stats is reported by the health endpoint.
func (s *store) stats() (users, posts int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), len(s.posts)
}

