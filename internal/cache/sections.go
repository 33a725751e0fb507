// Package cache keeps AI-written section text on disk and purges aged files
// from the cache, upload and output directories.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const entryExt = ".json"

var errNoDir = errors.New("cache: dir not configured")

// Entry is one cached section body together with what produced it.
type Entry struct {
	Model   string    `json:"model"`
	Topic   string    `json:"topic"`
	Section string    `json:"section"`
	Text    string    `json:"text"`
	SavedAt time.Time `json:"saved_at"`
}

// SectionCache stores section entries as one JSON file per key.
type SectionCache struct {
	Dir string
	// StrictPerms keeps the directory at 0700 and entries at 0600.
	StrictPerms bool
}

// Key derives the entry key from the model identity and the full prompt.
func Key(model, prompt string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + prompt))
	return hex.EncodeToString(h[:])
}

func (c *SectionCache) dirMode() os.FileMode {
	if c.StrictPerms {
		return 0o700
	}
	return 0o755
}

func (c *SectionCache) fileMode() os.FileMode {
	if c.StrictPerms {
		return 0o600
	}
	return 0o644
}

func (c *SectionCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errNoDir
	}
	if err := os.MkdirAll(c.Dir, c.dirMode()); err != nil {
		return err
	}
	if c.StrictPerms {
		// MkdirAll leaves an existing directory's mode alone.
		if info, err := os.Stat(c.Dir); err == nil && info.Mode().Perm() != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

func (c *SectionCache) path(key string) string {
	return filepath.Join(c.Dir, key+entryExt)
}

// Lookup returns the entry for key. Unreadable or empty entries count as a
// miss. A hit refreshes the file mtime so EnforceEntryLimits evicts the least
// recently used entries first.
func (c *SectionCache) Lookup(_ context.Context, key string) (Entry, bool, error) {
	var e Entry
	if err := c.ensureDir(); err != nil {
		return e, false, err
	}
	p := c.path(key)
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return e, false, nil
	}
	if err != nil {
		return e, false, err
	}
	if json.Unmarshal(b, &e) != nil || e.Text == "" {
		return Entry{}, false, nil
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return e, true, nil
}

// Store writes e under key. The file is replaced atomically.
func (c *SectionCache) Store(_ context.Context, key string, e Entry) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	tmp, err := os.CreateTemp(c.Dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), c.fileMode()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// Delete removes one entry. Missing entries are not an error.
func (c *SectionCache) Delete(_ context.Context, key string) error {
	if c == nil || c.Dir == "" {
		return nil
	}
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
