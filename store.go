package folio

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/andrasna/folio/github"
)

// ErrNotFound is returned when a requested post or snapshot does not exist.
var ErrNotFound = errors.New("folio: not found")

// Snapshot is the last successfully fetched list of pinned repositories.
type Snapshot struct {
	Login     string
	Repos     []github.Repository
	FetchedAt time.Time
}

// Store wraps a SQLite database holding repository snapshots, so a build
// can fall back to the last good fetch when the API is unavailable.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets serve read snapshots while a build writes one.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
    login TEXT PRIMARY KEY,
    fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS pinned_repos (
    login TEXT NOT NULL,
    position INTEGER NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    url TEXT NOT NULL,
    description TEXT NOT NULL,
    stars INTEGER NOT NULL DEFAULT 0,
    forks INTEGER NOT NULL DEFAULT 0,
    language TEXT NOT NULL,
    language_color TEXT NOT NULL,
    PRIMARY KEY (login, position)
);
`)
	return err
}

// SaveRepos replaces the snapshot for login with repos, keeping their order.
func (s *Store) SaveRepos(login string, repos []github.Repository, fetchedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM pinned_repos WHERE login = ?`, login); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	for i, r := range repos {
		_, err := tx.Exec(`INSERT INTO pinned_repos (login, position, id, name, url, description, stars, forks, language, language_color)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			login, i, r.ID, r.Name, r.URL, r.Description, r.Stars, r.Forks, r.Language, r.LanguageColor)
		if err != nil {
			return fmt.Errorf("insert %s: %w", r.Name, err)
		}
	}
	_, err = tx.Exec(`INSERT INTO snapshots (login, fetched_at) VALUES (?, ?)
ON CONFLICT(login) DO UPDATE SET fetched_at = excluded.fetched_at`,
		login, fetchedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return tx.Commit()
}

// LoadRepos returns the snapshot for login, or ErrNotFound if none was saved.
func (s *Store) LoadRepos(login string) (Snapshot, error) {
	var fetchedAt string
	err := s.db.QueryRow(`SELECT fetched_at FROM snapshots WHERE login = ?`, login).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Login: login}
	if t, err := time.Parse(time.RFC3339, fetchedAt); err == nil {
		snap.FetchedAt = t
	}

	rows, err := s.db.Query(`SELECT id, name, url, description, stars, forks, language, language_color
FROM pinned_repos WHERE login = ? ORDER BY position`, login)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var r github.Repository
		if err := rows.Scan(&r.ID, &r.Name, &r.URL, &r.Description, &r.Stars, &r.Forks, &r.Language, &r.LanguageColor); err != nil {
			return Snapshot{}, err
		}
		snap.Repos = append(snap.Repos, r)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
