package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/joestump/lela/internal/config"
)

// ErrNoURI is returned by Open when no database URI is configured.
var ErrNoURI = errors.New("database uri not set")

// Store owns the single SQLite handle used by a session. The handle is
// opened lazily and may be closed any number of times.
type Store struct {
	cfg    config.Database
	logger *zap.Logger
	conn   *sql.DB
}

// New creates a Store for cfg. No connection is made until Open.
func New(cfg config.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{cfg: cfg, logger: logger.Named("store")}
}

// Open opens the database if it is not already open.
func (s *Store) Open(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}
	if strings.TrimSpace(s.cfg.URI) == "" {
		return ErrNoURI
	}

	dsn := DSN(s.cfg)
	s.logger.Debug("opening database", zap.String("uri", s.cfg.URI))

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open lela database: %w", err)
	}

	// One connection keeps shared-cache and in-memory URIs consistent.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open lela database: %w", err)
	}

	s.conn = conn
	return nil
}

// Close releases the handle. It is a no-op when nothing is open.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// IsOpen reports whether a handle is currently held.
func (s *Store) IsOpen() bool {
	return s.conn != nil
}

// Conn returns the underlying *sql.DB, or nil when closed.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// DSN builds the driver data source name for cfg. file: URIs get the open
// mode from cfg.Flags unless they already carry one.
func DSN(cfg config.Database) string {
	uri := strings.TrimSpace(cfg.URI)
	params := []string{"_pragma=busy_timeout(5000)"}
	if strings.HasPrefix(uri, "file:") && !strings.Contains(uri, "mode=") {
		params = append([]string{"mode=" + cfg.Flags.Mode()}, params...)
	}

	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + strings.Join(params, "&")
}
