package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/OmarIbannez/clean-twitter/internal/models"
)

// SQLiteJournal implements Journal using SQLite
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (and creates if needed) the journal at dbPath
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create journal directory")
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open journal")
	}

	journal := &SQLiteJournal{db: db}
	if err := journal.initDB(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init journal schema")
	}

	return journal, nil
}

// initDB initializes the database schema
func (s *SQLiteJournal) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS removals (
		run_id TEXT NOT NULL,
		post_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		text TEXT,
		posted_at DATETIME,
		error TEXT,
		attempted_at DATETIME NOT NULL,
		PRIMARY KEY (run_id, post_id)
	);

	CREATE INDEX IF NOT EXISTS idx_attempted_at ON removals(attempted_at);
	CREATE INDEX IF NOT EXISTS idx_post_id ON removals(post_id);
	`

	_, err := s.db.Exec(query)
	return err
}

// RecordRemoval saves a removal attempt. Repeated attempts on the same post
// within one run overwrite the earlier row.
func (s *SQLiteJournal) RecordRemoval(r *models.Removal) error {
	attemptedAt := r.AttemptedAt
	if attemptedAt.IsZero() {
		attemptedAt = time.Now()
	}

	query := `
	INSERT INTO removals (run_id, post_id, kind, text, posted_at, error, attempted_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, post_id) DO UPDATE SET
		kind = excluded.kind,
		text = excluded.text,
		posted_at = excluded.posted_at,
		error = excluded.error,
		attempted_at = excluded.attempted_at
	`

	_, err := s.db.Exec(query,
		r.RunID,
		r.PostID,
		string(r.Kind),
		r.Text,
		nullTime(r.PostedAt),
		r.Error,
		attemptedAt.UTC(),
	)

	return errors.Wrapf(err, "record removal of %s", r.PostID)
}

// ListRemovals retrieves the newest removal attempts first
func (s *SQLiteJournal) ListRemovals(limit int) ([]*models.Removal, error) {
	query := `SELECT run_id, post_id, kind, text, posted_at, error, attempted_at
	          FROM removals ORDER BY attempted_at DESC, post_id DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list removals")
	}
	defer rows.Close()

	var removals []*models.Removal
	for rows.Next() {
		var (
			r        models.Removal
			kind     string
			text     sql.NullString
			postedAt sql.NullTime
			errText  sql.NullString
		)

		err := rows.Scan(
			&r.RunID,
			&r.PostID,
			&kind,
			&text,
			&postedAt,
			&errText,
			&r.AttemptedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan removal")
		}

		r.Kind = models.RemovalKind(kind)
		r.Text = text.String
		r.Error = errText.String
		if postedAt.Valid {
			r.PostedAt = postedAt.Time
		}

		removals = append(removals, &r)
	}

	return removals, errors.Wrap(rows.Err(), "iterate removals")
}

// Enabled always reports true for the SQLite journal
func (s *SQLiteJournal) Enabled() bool {
	return true
}

// Close closes the database connection
func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
