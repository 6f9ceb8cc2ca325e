package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL,
	bot TEXT NOT NULL,
	pack TEXT NOT NULL,
	file_name TEXT NOT NULL,
	file_path TEXT NOT NULL,
	size INTEGER NOT NULL,
	mime TEXT,
	completed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_downloads_completed ON downloads(completed_at);
`

// Entry is one completed download.
type Entry struct {
	JobID       string    `json:"job_id,omitempty"`
	Bot         string    `json:"bot"`
	Pack        string    `json:"pack"`
	FileName    string    `json:"file_name"`
	FilePath    string    `json:"file_path"`
	Size        int64     `json:"size"`
	Mime        string    `json:"mime,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// Store keeps the download history in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create history dir for %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open history database: %s", path)
	}
	// a single connection avoids SQLITE_BUSY between writers of one process
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not create history schema")
	}

	return &Store{db: db}, nil
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CompletedAt.IsZero() {
		e.CompletedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (job_id, bot, pack, file_name, file_path, size, mime, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.JobID, e.Bot, e.Pack, e.FileName, e.FilePath, e.Size, e.Mime, e.CompletedAt.UnixNano(),
	)
	if err != nil {
		return errors.Wrapf(err, "could not record %s", e.FileName)
	}
	return nil
}

// List returns the most recent entries first. A limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT job_id, bot, pack, file_name, file_path, size, COALESCE(mime, ''), completed_at
		FROM downloads ORDER BY completed_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "could not query history")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			completed int64
		)
		if err := rows.Scan(&e.JobID, &e.Bot, &e.Pack, &e.FileName, &e.FilePath, &e.Size, &e.Mime, &completed); err != nil {
			return nil, errors.Wrap(err, "could not scan history row")
		}
		e.CompletedAt = time.Unix(0, completed)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
