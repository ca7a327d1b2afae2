package cloud

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrVariableNotFound indicates the store holds no value for a variable.
var ErrVariableNotFound = errors.New("cloud variable not found")

// Store keeps the last known value of every cloud variable so a project
// resumes with them when the server is unreachable.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (creating if needed) the SQLite database at path.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS variables (
		project TEXT NOT NULL,
		name    TEXT NOT NULL,
		value   TEXT NOT NULL,
		PRIMARY KEY (project, name)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Set records the value of a variable.
func (s *Store) Set(project, name, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO variables (project, name, value) VALUES (?, ?, ?)",
		project, name, value,
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	return nil
}

// Get returns the stored value of a variable.
func (s *Store) Get(project, name string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM variables WHERE project = ? AND name = ?", project, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrVariableNotFound
		}
		return "", fmt.Errorf("querying %s: %w", name, err)
	}
	return value, nil
}

// All returns every stored variable of a project.
func (s *Store) All(project string) (map[string]string, error) {
	rows, err := s.db.Query("SELECT name, value FROM variables WHERE project = ?", project)
	if err != nil {
		return nil, fmt.Errorf("listing variables: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scanning variable: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}
