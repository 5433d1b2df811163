// Package server implements the reportkit REST API: session endpoints,
// the vulnerability catalog, reports with their findings and evidence,
// and document export.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/vantagesec/reportkit/internal/config"
	"github.com/vantagesec/reportkit/internal/database"
	"github.com/vantagesec/reportkit/internal/document"
	"github.com/vantagesec/reportkit/internal/session"
)

// Server is the long-running API daemon. It owns the database handle, the
// session manager, the document renderer, and a cron purger that clears
// expired refresh tokens.
type Server struct {
	cfg         *config.Config
	db          database.DB
	sessions    *session.Manager
	renderer    document.Renderer
	evidenceDir string
	purger      *purger
}

// New creates a Server. Call Start() to begin serving.
func New(cfg *config.Config, db database.DB) *Server {
	mgr := session.New(
		cfg.Session.Secret,
		time.Duration(cfg.Session.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.Session.RefreshTTLHours)*time.Hour,
	)
	s := &Server{
		cfg:         cfg,
		db:          db,
		sessions:    mgr,
		renderer:    document.NewPDFRenderer(),
		evidenceDir: cfg.Server.EvidenceDir,
	}
	s.purger = newPurger(db, cfg.Session.PurgeSchedule)
	return s
}

// Start runs the server until ctx is cancelled. It:
//  1. Starts the refresh-token purge scheduler
//  2. Binds the HTTP server (blocks until shutdown)
func (s *Server) Start(ctx context.Context) error {
	port := s.cfg.Server.Port
	if port == 0 {
		port = 7190
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	if s.evidenceDir != "" {
		if err := os.MkdirAll(s.evidenceDir, 0o700); err != nil {
			return fmt.Errorf("creating evidence directory: %w", err)
		}
	}

	if err := s.purger.Start(ctx); err != nil {
		return fmt.Errorf("starting session purger: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           buildHandler(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.purger.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server: listening", "addr", "http://"+addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
