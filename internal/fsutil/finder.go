// Package fsutil contains small filesystem helpers shared by the manifest
// loaders.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindFilesByExtension walks the given paths and returns a de-duplicated,
// flat list of files carrying the extension. A path may be a single file or
// a directory; paths that do not exist are silently skipped.
func FindFilesByExtension(ext string, paths ...string) ([]string, error) {
	var found []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, ok := seen[p]; !ok {
			found = append(found, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // A configured path that does not exist is not an error.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ext {
				add(path)
			}
			continue
		}

		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ext {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}
