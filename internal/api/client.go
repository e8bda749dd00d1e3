// Package api is the HTTP client for the Postify backend.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"postify/internal/postify"
)

// RequestIDHeader carries a per-request id that the backend echoes in its logs.
const RequestIDHeader = "X-Request-ID"

// maxResponseBytes bounds how much of a response body is read. A feed of
// inlined images can be large, so the cap is generous.
const maxResponseBytes = 256 << 20

// Client implements postify.Backend over HTTP+JSON.
type Client struct {
	baseURL string
	http    *http.Client
	logger  postify.Logger
	ids     postify.IDGenerator
}

var _ postify.Backend = (*Client)(nil)

// NewClient creates a Client for the API rooted at baseURL,
// e.g. "http://localhost:3000/api".
func NewClient(baseURL string, timeout time.Duration, logger postify.Logger, ids postify.IDGenerator) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q", baseURL)
	}
	if ids == nil {
		ids = postify.UUIDGenerator{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		ids:     ids,
	}, nil
}

type credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message string        `json:"message"`
	User    *postify.User `json:"user"`
}

type createPostRequest struct {
	Text     string `json:"text,omitempty"`
	Image    string `json:"image,omitempty"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type commentRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

func (c *Client) Signup(ctx context.Context, req postify.SignupRequest) (string, error) {
	var resp messageResponse
	body := credentials{Username: req.Username, Email: req.Email, Password: req.Password}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*postify.User, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("login response has no user")
	}
	return resp.User, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]postify.Post, error) {
	var posts []postify.Post
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) CreatePost(ctx context.Context, np postify.NewPost) error {
	req := createPostRequest{Text: np.Text, UserID: np.UserID, Username: np.Username}
	if np.Image != nil {
		req.Image = np.Image.DataURL()
	}
	return c.do(ctx, http.MethodPost, "/posts", req, nil)
}

func (c *Client) ToggleLike(ctx context.Context, postID string, actor postify.Actor) error {
	return c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/like", actor, nil)
}

func (c *Client) AddComment(ctx context.Context, postID string, actor postify.Actor, text string) error {
	req := commentRequest{UserID: actor.UserID, Username: actor.Username, Text: text}
	return c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/comment", req, nil)
}

// do sends one request. in is encoded as the JSON body when non-nil; a 2xx
// response body is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	reqID := c.ids.New()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}
	c.logger.Debug("request done",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se, decodeErr := newStatusError(resp.StatusCode, data)
		if decodeErr != nil {
			c.logger.Debug("error response is not JSON",
				"method", method, "path", path, "status", resp.StatusCode,
				"request_id", reqID, "body", truncate(data, 200), "error", decodeErr)
		}
		return se
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// truncate returns at most n bytes of b as a string, for logging.
func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
