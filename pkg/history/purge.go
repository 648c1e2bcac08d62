package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PurgeOrphanedMedia removes files in the store directory left behind by
// temporary attachment staging: any file whose name is a canonical
// 36-character UUID followed by a dot and an arbitrary extension. It is a
// pure filesystem cleanup with no dependency on the mapping cache and
// therefore takes no lock. Returns the number of files removed.
func (s *Store) PurgeOrphanedMedia() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("scanning media directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isOrphanedMediaName(entry.Name()) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.log.Error().Err(err).Str("path", path).Msg("removing orphaned media failed")
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("orphaned media purged")
	}
	return removed, nil
}

// isOrphanedMediaName matches "<uuid>.<ext>" where the uuid is the
// canonical 8-4-4-4-12 hexadecimal form.
func isOrphanedMediaName(name string) bool {
	dot := strings.IndexByte(name, '.')
	if dot != 36 {
		return false
	}
	_, err := uuid.Parse(name[:36])
	return err == nil
}
