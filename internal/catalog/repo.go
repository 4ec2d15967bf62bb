package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/noteagator/internal/models"
)

// Catalog is the read side used by the serving layers.
type Catalog interface {
	ListDir(dir string) ([]models.NoteSummary, error)
}

var _ Catalog = (*DB)(nil)

// UpsertNote inserts or replaces a catalog row.
func (db *DB) UpsertNote(n models.NoteSummary) error {
	_, err := db.conn.Exec(`
		INSERT INTO notes (path, description, format, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			description = excluded.description,
			format      = excluded.format,
			checksum    = excluded.checksum,
			updated_at  = excluded.updated_at
	`, n.Path, n.Description, n.Format, n.Checksum, n.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("catalog: upsert note: %w", err)
	}
	return nil
}

// DeleteNote removes a catalog row. Deleting a missing path is not an error.
func (db *DB) DeleteNote(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("catalog: delete note: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a note, or "" if the note is
// not catalogued.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every catalogued note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// List returns the notes whose path starts with prefix, ordered by path.
// An empty prefix lists everything.
func (db *DB) List(prefix string) ([]models.NoteSummary, error) {
	rows, err := db.conn.Query(`
		SELECT path, description, format, checksum, updated_at
		FROM notes
		WHERE substr(path, 1, length(?)) = ?
		ORDER BY path
	`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []models.NoteSummary
	for rows.Next() {
		var n models.NoteSummary
		if err := rows.Scan(&n.Path, &n.Description, &n.Format, &n.Checksum, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// normalizePrefix turns a user supplied directory into a path prefix.
func normalizePrefix(dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return ""
	}
	return dir + "/"
}

// ListDir is List scoped to a directory below the base.
func (db *DB) ListDir(dir string) ([]models.NoteSummary, error) {
	return db.List(normalizePrefix(dir))
}
