package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"dictionary-annotator/internal/logger"
	"dictionary-annotator/internal/session"
)

const (
	shutdownTimeout = 10 * time.Second
	// maxUploadBytes bounds a table plus dictionary upload.
	maxUploadBytes = 64 << 20
)

// Options configure the HTTP API.
type Options struct {
	Addr           string
	AllowedOrigins []string
}

// Server serves the annotation API.
type Server struct {
	engine   *gin.Engine
	sessions *session.Manager
	log      *logger.Logger
	addr     string
}

// New builds the server and its routes.
func New(sessions *session.Manager, opts Options, log *logger.Logger) *Server {
	s := &Server{
		sessions: sessions,
		log:      logger.OrNop(log),
		addr:     opts.Addr,
	}

	s.engine = s.router(opts.AllowedOrigins)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, evicting idle sessions in the background.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("listening", "addr", s.addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		s.sessions.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.sessions.Close()

	return err
}
