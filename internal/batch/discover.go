package batch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"birdstamp/internal/render"
)

// Discover lists the supported image files under root in sorted order.
// A file root returns itself when supported; unsupported extensions are
// silently omitted, never reported as failures. A missing root returns
// an empty list.
func Discover(root string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if render.Supported(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				if path != root && strings.HasPrefix(entry.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if render.Supported(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(root, entry.Name())
			if render.Supported(path) {
				files = append(files, path)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}
