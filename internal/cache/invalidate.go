package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClearDir removes the directory and all contents, then recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeEntriesByAge removes cache entries whose modification time is
// older than maxAge.
func PurgeEntriesByAge(dir string, maxAge time.Duration) (int, error) {
	return purge(dir, maxAge, func(name string) bool { return strings.HasSuffix(name, entryExt) })
}

// PurgeFilesByAge removes every regular file under dir older than maxAge.
// It backs the upload and output directory cleanup. A missing dir is not an
// error.
func PurgeFilesByAge(dir string, maxAge time.Duration) (int, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	return purge(dir, maxAge, func(string) bool { return true })
}

func purge(dir string, maxAge time.Duration, match func(name string) bool) (int, error) {
	if maxAge <= 0 || strings.TrimSpace(dir) == "" {
		return 0, nil
	}
	now := time.Now()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !match(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) <= maxAge {
			return nil
		}
		if os.Remove(path) == nil {
			removed++
		}
		return nil
	})
	return removed, err
}

// EnforceEntryLimits evicts the least recently used entries until the
// cache holds at most maxCount entries and maxBytes bytes. Zero disables a
// limit.
func EnforceEntryLimits(dir string, maxBytes int64, maxCount int) (int, error) {
	if maxBytes <= 0 && maxCount <= 0 {
		return 0, nil
	}
	type entry struct {
		path string
		size int64
		mod  time.Time
	}
	var entries []entry
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), entryExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		entries = append(entries, entry{path: path, size: info.Size(), mod: info.ModTime()})
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mod.Before(entries[j].mod) })
	removed := 0
	count := len(entries)
	for _, e := range entries {
		overCount := maxCount > 0 && count > maxCount
		overBytes := maxBytes > 0 && total > maxBytes
		if !overCount && !overBytes {
			break
		}
		if err := os.Remove(e.path); err != nil {
			continue
		}
		removed++
		count--
		total -= e.size
	}
	return removed, nil
}
