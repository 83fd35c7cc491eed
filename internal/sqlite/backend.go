// Package sqlite implements the embedded SQLite store for motif: the
// component graph, compositions, embeddings, the feedback ledger, and code
// patterns all live in one database so multi-statement mutations can run in
// a single transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// DatabaseFile is the SQLite file name inside DataDir.
const DatabaseFile = "motif.db"

// timeLayout is fixed-width so text timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// busyTimeoutMS bounds how long a writer waits on a locked database.
const busyTimeoutMS = 10000

// Compile-time interface checks.
var (
	_ types.GraphStore    = (*Backend)(nil)
	_ types.FeedbackStore = (*Backend)(nil)
	_ types.PatternStore  = (*Backend)(nil)
	_ types.VectorStore   = (*Backend)(nil)
)

// Backend implements the motif stores on top of SQLite.
// The zero value is not usable; call NewBackend then Attach.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *zap.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger.Named("sqlite")
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens (or creates) the database in config.DataDir and applies the
// schema. Existing data is kept. Returns ErrAlreadyOpen if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyOpen
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return &types.TransientStoreError{Op: "create data dir", Err: err}
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return &types.TransientStoreError{Op: "open", Err: err}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return &types.TransientStoreError{Op: "ping", Err: err}
	}
	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("applying schema: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true
	b.logger.Debug("attached", zap.String("path", dbPath))
	return nil
}

// Detach closes the database. Detach is idempotent. After Detach, every
// operation returns ErrStoreClosed.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	return nil
}

// DB returns the underlying handle for collaborators that share the
// database (the ANN index). Returns nil when detached.
func (b *Backend) DB() *sql.DB {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.db
}

// handle returns the open database or ErrStoreClosed. Callers must not hold
// b.mu; the returned handle stays valid until Detach.
func (b *Backend) handle() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreClosed
	}
	return b.db, nil
}

// dsn builds the connection string. Pragmas go in the DSN so every pooled
// connection gets them, not only the first.
func dsn(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, busyTimeoutMS,
	)
}

func applySchema(ctx context.Context, db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}

// withImmediateTx runs fn inside BEGIN IMMEDIATE on a dedicated connection.
// The write lock is taken before fn reads anything, so a check-then-insert
// inside fn cannot race another writer.
func (b *Backend) withImmediateTx(ctx context.Context, fn func(conn *sql.Conn) error) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return &types.TransientStoreError{Op: "acquire connection", Err: err}
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("beginning immediate transaction: %w", err)
	}
	if err := fn(conn); err != nil {
		if _, rbErr := conn.ExecContext(context.Background(), "ROLLBACK"); rbErr != nil {
			b.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
