package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5

	// Fixed width so stored timestamps sort chronologically as text.
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
)

// Store persists analysis runs in a sqlite database.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts when watch mode saves runs
	// back to back.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores run and its symbols in one transaction. An empty ID is
// replaced by a fresh UUID; the ID used is returned.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.Target) == "" {
		return "", fmt.Errorf("run target must not be empty")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (
  id, target, project_root, schema_version, ts_utc,
  candidate_count, target_file_count, external_file_count, skipped_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.Target,
			run.ProjectRoot,
			SchemaVersion,
			run.Timestamp.UTC().Format(timestampLayout),
			run.Candidates,
			run.TargetFiles,
			run.ExternalFiles,
			run.Skipped,
		); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO run_symbols (run_id, name, fqn, kind, location, is_public, usage_count)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, sym := range run.Symbols {
			if _, err := stmt.ExecContext(ctx, run.ID, sym.Name, sym.FullyQualifiedName, sym.Kind, sym.Location, sym.IsPublic, sym.UsageCount); err != nil {
				return fmt.Errorf("insert symbol %q: %w", sym.Name, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// LatestRun returns the most recent run of target, or nil when there is
// none.
func (s *Store) LatestRun(ctx context.Context, target string) (*Run, error) {
	runs, err := s.Runs(ctx, target, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

// Runs returns up to limit runs of target, newest first, with their
// symbols. A limit of zero or less returns every run.
func (s *Store) Runs(ctx context.Context, target string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT id, target, project_root, ts_utc, candidate_count, target_file_count, external_file_count, skipped_count
FROM runs
WHERE target = ?
ORDER BY ts_utc DESC, rowid DESC`
	args := []any{target}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var runs []Run
	err := s.withRetry("load runs", func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		runs = runs[:0]
		for rows.Next() {
			var (
				run   Run
				tsRaw string
			)
			if err := rows.Scan(&run.ID, &run.Target, &run.ProjectRoot, &tsRaw, &run.Candidates, &run.TargetFiles, &run.ExternalFiles, &run.Skipped); err != nil {
				return fmt.Errorf("scan run row: %w", err)
			}
			ts, err := time.Parse(timestampLayout, tsRaw)
			if err != nil {
				return fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
			}
			run.Timestamp = ts.UTC()
			runs = append(runs, run)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	for i := range runs {
		symbols, err := s.symbols(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Symbols = symbols
	}
	return runs, nil
}

func (s *Store) symbols(ctx context.Context, runID string) ([]SymbolRecord, error) {
	symbols := make([]SymbolRecord, 0)
	err := s.withRetry("load run symbols", func() error {
		rows, err := s.db.QueryContext(ctx, `
SELECT name, fqn, kind, location, is_public, usage_count
FROM run_symbols
WHERE run_id = ?
ORDER BY name ASC`, runID)
		if err != nil {
			return err
		}
		defer rows.Close()

		symbols = symbols[:0]
		for rows.Next() {
			var sym SymbolRecord
			if err := rows.Scan(&sym.Name, &sym.FullyQualifiedName, &sym.Kind, &sym.Location, &sym.IsPublic, &sym.UsageCount); err != nil {
				return fmt.Errorf("scan symbol row: %w", err)
			}
			symbols = append(symbols, sym)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return symbols, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
