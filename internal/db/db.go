package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	_ "github.com/mattn/go-sqlite3"
)

// maxSearchResults caps how many places SearchPlaces returns.
const maxSearchResults = 10

// DB wraps a database connection
type DB struct {
	*sql.DB
}

// Place is a gazetteer entry that can fill the coordinate inputs.
type Place struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	State     string  `json:"state"`
	Zip       string  `json:"zip,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewDB opens (creating if needed) the SQLite database at path and ensures
// the schema exists.
func NewDB(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS places (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT NOT NULL,
	state     TEXT NOT NULL DEFAULT '',
	zip       TEXT NOT NULL DEFAULT '',
	latitude  REAL NOT NULL,
	longitude REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_places_name ON places (name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_places_zip ON places (zip);
`)
	return err
}

// SearchPlaces returns places whose name or zip starts with query, ignoring
// case. Queries that sanitize to nothing return no rows.
func (d *DB) SearchPlaces(query string) ([]Place, error) {
	if d == nil || d.DB == nil {
		return nil, errors.New("database not initialized")
	}

	term := sanitizeSearchTerm(query)
	if term == "" {
		return nil, nil
	}
	pattern := term + "%"

	rows, err := d.Query(`
SELECT id, name, state, zip, latitude, longitude
FROM places
WHERE name LIKE ? OR zip LIKE ?
ORDER BY name COLLATE NOCASE, state
LIMIT ?`, pattern, pattern, maxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("search places %q: %w", query, err)
	}
	defer rows.Close()

	var places []Place
	for rows.Next() {
		var p Place
		if err := rows.Scan(&p.ID, &p.Name, &p.State, &p.Zip, &p.Latitude, &p.Longitude); err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search places %q: %w", query, err)
	}
	return places, nil
}

// InsertPlace adds one gazetteer row.
func (d *DB) InsertPlace(p Place) (int64, error) {
	if d == nil || d.DB == nil {
		return 0, errors.New("database not initialized")
	}
	res, err := d.Exec(
		"INSERT INTO places (name, state, zip, latitude, longitude) VALUES (?, ?, ?, ?, ?)",
		p.Name, p.State, p.Zip, p.Latitude, p.Longitude,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// sanitizeSearchTerm keeps letters, digits, spaces, hyphens, apostrophes
// and periods, collapsing runs of whitespace. LIKE wildcards never survive.
func sanitizeSearchTerm(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '\'', r == '.':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
