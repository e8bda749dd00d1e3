package app

import (
	"context"
	"fmt"

	"postify/internal/config"
	"postify/internal/devserver"
)

// Serve runs the bundled development backend until ctx is cancelled.
// addr overrides the configured listen address when non-empty.
func Serve(ctx context.Context, cfg *config.Config, addr string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	logger, err := devserver.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("creating server logger: %w", err)
	}
	defer logger.Sync()

	srv := devserver.New(devserver.Options{
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	return srv.ListenAndServe(ctx, addr)
}
