// Package devserver is an in-memory implementation of the Postify backend
// API, used for local development and end-to-end tests of the client.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"

	"postify/internal/postify"
)

// MaxBodyBytes caps request bodies. It leaves room above the 5 MiB image
// limit for base64 inflation of smaller images and the JSON envelope.
const MaxBodyBytes = 6 << 20

// Options configures a Server. Zero values select defaults.
type Options struct {
	Logger         *zap.Logger
	AllowedOrigins []string // CORS origins; empty allows any origin
	IDs            postify.IDGenerator
	Clock          postify.Clock
	BcryptCost     int
}

// Server serves the Postify API under /api.
type Server struct {
	store  *store
	logger *zap.Logger
	router *gin.Engine
}

// New creates a Server with an empty store.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.IDs == nil {
		opts.IDs = postify.UUIDGenerator{}
	}
	if opts.Clock == nil {
		opts.Clock = postify.RealClock{}
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	s := &Server{
		store:  newStore(opts.IDs, opts.Clock, opts.BcryptCost),
		logger: opts.Logger,
	}
	s.router = s.routes(opts.AllowedOrigins)
	return s
}

// NewLogger builds a production zap logger at the given level. An unknown
// level falls back to info.
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level.SetLevel(lvl)
	return cfg.Build()
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev backend listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("dev backend shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) routes(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), s.requestLog(), limitBody(MaxBodyBytes))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")
	api.GET("/health", s.health)
	api.POST("/auth/signup", s.signup)
	api.POST("/auth/login", s.login)
	api.GET("/posts", s.listPosts)
	api.POST("/posts", s.createPost)
	api.POST("/posts/:id/like", s.toggleLike)
	api.POST("/posts/:id/comment", s.addComment)
	return r
}
