package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"postify/internal/postify"
	"postify/internal/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New(Options{
		IDs:        testutil.NewStubIDGenerator("id"),
		Clock:      testutil.FixedClock(),
		BcryptCost: bcrypt.MinCost,
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var m struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m.Message
}

func signupAndLogin(t *testing.T, s *Server, username, email string) postify.User {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/auth/signup", gin.H{"username": username, "email": email, "password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/auth/login", gin.H{"email": email, "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		User postify.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.User
}

func TestSignup(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/auth/signup", gin.H{"username": "alice", "email": "alice@example.com", "password": "pw"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User created successfully", message(t, w))

	w = doJSON(t, s, http.MethodPost, "/api/auth/signup", gin.H{"username": "alice2", "email": "ALICE@example.com", "password": "pw"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already registered", message(t, w))

	w = doJSON(t, s, http.MethodPost, "/api/auth/signup", gin.H{"username": "Alice", "email": "other@example.com", "password": "pw"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Username already taken", message(t, w))

	w = doJSON(t, s, http.MethodPost, "/api/auth/signup", gin.H{"email": "x@example.com", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	u := signupAndLogin(t, s, "alice", "alice@example.com")

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice", u.Username)

	w := doJSON(t, s, http.MethodPost, "/api/auth/login", gin.H{"email": "alice@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", message(t, w))

	w = doJSON(t, s, http.MethodPost, "/api/auth/login", gin.H{"email": "nobody@example.com", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "hash")
}

func TestPosts(t *testing.T) {
	s := newTestServer(t)
	alice := signupAndLogin(t, s, "alice", "alice@example.com")
	bob := signupAndLogin(t, s, "bob", "bob@example.com")

	w := doJSON(t, s, http.MethodPost, "/api/posts", gin.H{"text": "first", "userId": alice.ID, "username": alice.Username})
	require.Equal(t, http.StatusCreated, w.Code)
	var first postify.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	w = doJSON(t, s, http.MethodPost, "/api/posts", gin.H{"image": "data:image/png;base64,iVBORw0KGgo=", "userId": bob.ID, "username": bob.Username})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/posts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var posts []postify.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, bob.ID, posts[0].UserID, "newest post first")
	assert.Equal(t, first.ID, posts[1].ID)
	assert.Contains(t, w.Body.String(), `"likes":[]`, "empty likes encode as an array")

	t.Run("like toggles", func(t *testing.T) {
		w := doJSON(t, s, http.MethodPost, "/api/posts/"+first.ID+"/like", gin.H{"userId": bob.ID, "username": bob.Username})
		require.Equal(t, http.StatusOK, w.Code)
		var p postify.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.Equal(t, []postify.Like{{UserID: bob.ID, Username: "bob"}}, p.Likes)

		w = doJSON(t, s, http.MethodPost, "/api/posts/"+first.ID+"/like", gin.H{"userId": bob.ID, "username": bob.Username})
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.Empty(t, p.Likes)
	})

	t.Run("comment appends trimmed text", func(t *testing.T) {
		w := doJSON(t, s, http.MethodPost, "/api/posts/"+first.ID+"/comment", gin.H{"userId": bob.ID, "username": bob.Username, "text": "  nice!  "})
		require.Equal(t, http.StatusOK, w.Code)
		var p postify.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		require.Len(t, p.Comments, 1)
		assert.Equal(t, "nice!", p.Comments[0].Text)
		assert.Equal(t, bob.ID, p.Comments[0].UserID)
	})

	t.Run("unknown post", func(t *testing.T) {
		w := doJSON(t, s, http.MethodPost, "/api/posts/missing/like", gin.H{"userId": bob.ID})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Post not found", message(t, w))
	})
}

func TestCreatePostValidation(t *testing.T) {
	tests := []struct {
		name string
		body gin.H
	}{
		{name: "no user", body: gin.H{"text": "hi"}},
		{name: "no content", body: gin.H{"text": "   ", "userId": "u1"}},
		{name: "image is not a data url", body: gin.H{"image": "http://example.com/x.png", "userId": "u1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := doJSON(t, s, http.MethodPost, "/api/posts", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, message(t, w))
		})
	}
}

func TestCommentRejectsBlankText(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/posts", gin.H{"text": "hi", "userId": "u1", "username": "u"})
	require.Equal(t, http.StatusCreated, w.Code)
	var p postify.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))

	w = doJSON(t, s, http.MethodPost, "/api/posts/"+p.ID+"/comment", gin.H{"userId": "u1", "text": " \n "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(t)
	big := strings.Repeat("a", MaxBodyBytes+1)

	w := doJSON(t, s, http.MethodPost, "/api/posts", gin.H{"image": "data:image/png;base64," + big, "userId": "u1"})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))

	l, err = NewLogger("bogus")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1), "unknown level falls back to info")
}
