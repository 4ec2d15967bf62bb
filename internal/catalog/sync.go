package catalog

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/noteagator/internal/checksum"
	"github.com/starford/noteagator/internal/models"
	"github.com/starford/noteagator/internal/parser"
	"github.com/starford/noteagator/internal/storage"
)

// Sync walks the notebook and brings the catalog up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the catalog
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts its catalog row.
func indexFile(db *DB, rel string, data []byte, updated time.Time) error {
	doc := parser.Parse(rel, data)
	return db.UpsertNote(models.NoteSummary{
		Path:        rel,
		Description: doc.Description,
		Format:      doc.Format(),
		Checksum:    checksum.Sum(data),
		UpdatedAt:   updated,
	})
}

// ignored reports whether a slash separated relative path is outside the
// catalog: anything under .git and in-flight temp files.
func ignored(rel string) bool {
	if strings.HasPrefix(path.Base(rel), storage.TempPrefix) {
		return true
	}
	for _, part := range strings.Split(rel, "/") {
		if part == ".git" {
			return true
		}
	}
	return false
}
