package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ethpandaops/junitoor/pkg/config"
	"github.com/ethpandaops/junitoor/pkg/index"
	"github.com/ethpandaops/junitoor/pkg/upload"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the API HTTP server lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Server = (*server)(nil)

type server struct {
	log         logrus.FieldLogger
	cfg         *config.Config
	indexStore  index.Store
	localServer *localFileServer
	reader      upload.Reader
	httpServer  *http.Server
	wg          sync.WaitGroup
	done        chan struct{}
	stopOnce    sync.Once
}

// NewServer creates a new API server.
func NewServer(
	log logrus.FieldLogger,
	cfg *config.Config,
) Server {
	return &server{
		log:  log.WithField("component", "api"),
		cfg:  cfg,
		done: make(chan struct{}),
	}
}

// Start opens the report index and starts the HTTP server.
func (s *server) Start(ctx context.Context) error {
	s.indexStore = index.NewStore(s.log, &s.cfg.Index.Database)
	if err := s.indexStore.Start(ctx); err != nil {
		return fmt.Errorf("starting index store: %w", err)
	}

	s.localServer = newLocalFileServer(s.log, s.cfg.Report.OutputDir)

	// Uploaded copies are used when the local file is gone.
	if s.cfg.Upload.S3.Enabled {
		s.reader = upload.NewS3Reader(s.log, &s.cfg.Upload.S3)

		s.log.WithField("bucket", s.cfg.Upload.S3.Bucket).
			Info("S3 report fallback enabled")
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.API.Server.Listen,
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: s.cfg.API.Server.ReadHeaderTimeout,
	}

	// Bind the listener synchronously so we fail fast on port conflicts.
	ln, err := net.Listen("tcp", s.cfg.API.Server.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.API.Server.Listen, err)
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.log.WithField("listen", ln.Addr().String()).
			Info("API server starting")

		if err := s.httpServer.Serve(ln); err != nil &&
			err != http.ErrServerClosed {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server and closes the index.
func (s *server) Stop() error {
	s.stopOnce.Do(func() { close(s.done) })

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	s.wg.Wait()

	if s.indexStore != nil {
		if err := s.indexStore.Stop(); err != nil {
			return fmt.Errorf("stopping index store: %w", err)
		}
	}

	s.log.Info("API server stopped")

	return nil
}
