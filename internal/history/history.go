// Package history keeps a sqlite log of terminal download outcomes, so the
// live queue can be cleared without losing the record of what ran.
package history

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Entry is one finished download: completed, failed, or cancelled.
type Entry struct {
	ID           int64     `json:"id"`
	ItemID       string    `json:"item_id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	OutputFile   string    `json:"output_file,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Duration     int64     `json:"duration,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Store wraps the history database.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open connects to the sqlite file at path, creating and migrating it as
// needed.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// sqlite allows one writer; a single connection avoids lock churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate history database: %w", err)
	}

	return &Store{db: db, logger: logger.With().Str("component", "history").Logger()}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Record appends one terminal outcome.
func (s *Store) Record(e Entry) error {
	query := `INSERT INTO history (item_id, url, title, status, output_file, error_message, duration, finished_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		e.ItemID,
		e.URL,
		e.Title,
		e.Status,
		e.OutputFile,
		e.ErrorMessage,
		e.Duration,
		e.FinishedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first. limit <= 0 means no
// limit.
func (s *Store) List(limit int) ([]Entry, error) {
	query := `
		SELECT id, item_id, url, title, status, output_file, error_message, duration, finished_at
		FROM history
		ORDER BY finished_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var finished int64
		if err := rows.Scan(&e.ID, &e.ItemID, &e.URL, &e.Title, &e.Status,
			&e.OutputFile, &e.ErrorMessage, &e.Duration, &finished); err != nil {
			return nil, err
		}
		e.FinishedAt = time.Unix(finished, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than cutoff and reports how many went.
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM history WHERE finished_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("removed", n).Msg("pruned history entries")
	}
	return n, nil
}

// Clear deletes every entry.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
