package store

import (
	"os"
	"path/filepath"

	"github.com/galleryforge/artcrawl/internal/logging"
)

// PurgeClasses deletes the image files and class directories of the given
// class slugs and drops their manifest rows. This is the end-of-run batch
// step: a class's floor can only be evaluated once its traversal ended.
// Returns the number of manifest rows removed.
func PurgeClasses(m *Manifest, images Images, classes []string) (int, error) {
	drop := make(map[string]bool, len(classes))

	for _, classID := range classes {
		drop[classID] = true

		dir := filepath.Join(images.Root, classID)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				logging.Warnf("purge: cannot list class dir [%s]: %v", dir, err)
			}
			continue
		}

		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			if err := os.Remove(p); err != nil {
				logging.Warnf("purge: cannot remove [%s]: %v", p, err)
			}
		}
		if err := os.Remove(dir); err != nil {
			logging.Warnf("purge: cannot remove class dir [%s]: %v", dir, err)
		}
		logging.Infof("purged under-quota class %q (%d files)", classID, len(entries))
	}

	return m.RemoveClasses(drop)
}
