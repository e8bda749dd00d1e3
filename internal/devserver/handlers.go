package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"postify/internal/postify"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createPostRequest struct {
	Text     string `json:"text"`
	Image    string `json:"image"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type commentRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

func (s *Server) health(c *gin.Context) {
	users, posts := s.store.stats()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "users": users, "posts": posts})
}

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondMessage(c, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	u, err := s.store.signup(req.Username, req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.logger.Info("account created", zap.String("user_id", u.ID), zap.String("username", u.Username))
	respondMessage(c, http.StatusCreated, "User created successfully")
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondMessage(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, err := s.store.login(req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": u})
}

func (s *Server) listPosts(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.list())
}

func (s *Server) createPost(c *gin.Context) {
	var req createPostRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID == "" {
		respondMessage(c, http.StatusBadRequest, "userId is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" && req.Image == "" {
		respondMessage(c, http.StatusBadRequest, "Post must have text or an image")
		return
	}
	if req.Image != "" && !strings.HasPrefix(req.Image, "data:image/") {
		respondMessage(c, http.StatusBadRequest, "Image must be an image data URL")
		return
	}

	p := s.store.create(postify.Actor{UserID: req.UserID, Username: req.Username}, req.Text, req.Image)
	c.JSON(http.StatusCreated, p)
}

func (s *Server) toggleLike(c *gin.Context) {
	var req postify.Actor
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID == "" {
		respondMessage(c, http.StatusBadRequest, "userId is required")
		return
	}

	p, err := s.store.toggleLike(c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) addComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if req.UserID == "" || text == "" {
		respondMessage(c, http.StatusBadRequest, "userId and text are required")
		return
	}

	p, err := s.store.comment(c.Param("id"), postify.Actor{UserID: req.UserID, Username: req.Username}, text)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// bindJSON decodes the body into v, answering 400 or 413 on failure.
func bindJSON(c *gin.Context, v any) bool {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondMessage(c, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	respondMessage(c, http.StatusBadRequest, "Invalid request body")
	return false
}

func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errEmailTaken):
		respondMessage(c, http.StatusConflict, "Email already registered")
	case errors.Is(err, errUsernameTaken):
		respondMessage(c, http.StatusConflict, "Username already taken")
	case errors.Is(err, errInvalidLogin):
		respondMessage(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, errPostNotFound):
		respondMessage(c, http.StatusNotFound, "Post not found")
	default:
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
	}
}

func respondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}
