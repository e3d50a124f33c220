package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/smartpowerctl/internal/errors"
	"codeberg.org/mutker/smartpowerctl/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	mu     sync.Mutex
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	// Several short-lived processes may share the journal
	dsn := cfg.DBPath + "?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateAndUpdateSchema(db, cfg.DBPath, log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Debug().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Msg("Journal repository initialized")

	return &repository{
		db:     db,
		logger: log,
	}, nil
}

func (r *repository) Store(ctx context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, insertEntrySQL,
		entry.Timestamp.UnixNano(),
		entry.Device,
		entry.Kind,
		entry.Command,
		boolToInt(entry.Success),
		entry.Error,
	)
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, recentEntriesSQL, limit)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entry   Entry
			nanos   int64
			success int
		)
		if err := rows.Scan(&nanos, &entry.Device, &entry.Kind, &entry.Command, &success, &entry.Error); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		entry.Timestamp = time.Unix(0, nanos)
		entry.Success = success == 1
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return entries, nil
}

func (r *repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		r.logger.Debug().Err(err).Msg("Failed to checkpoint journal")
	}

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}
