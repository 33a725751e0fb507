package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// reportFilename names a generated report after its author and creation time.
func reportFilename(studentName, rollNo string, now time.Time) string {
	name := safeComponent(strings.ReplaceAll(strings.TrimSpace(studentName), " ", "_"))
	if name == "" {
		name = "Student"
	}
	roll := safeComponent(strings.TrimSpace(rollNo))
	return fmt.Sprintf("Smart_Report_%s_%s_%d.docx", name, roll, now.Unix())
}

// uploadName is the stored name of an uploaded sample: the document id, an
// underscore, and the client's base name.
func uploadName(id, original string) string {
	return id + "_" + safeComponent(filepath.Base(original))
}

// originalName strips the document id prefix added by uploadName.
func originalName(id, stored string) string {
	return strings.TrimPrefix(filepath.Base(stored), id+"_")
}

// findSample locates the stored upload for a document id.
func findSample(dir, id string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), id+"_") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", os.ErrNotExist
}

// ResolveOutput maps a report filename to its path under the outputs dir.
// Names that would escape the directory are rejected.
func (a *App) ResolveOutput(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: bad report name %q", ErrInvalidRequest, name)
	}
	p := filepath.Join(a.cfg.OutputsDir, name)
	info, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", os.ErrNotExist
	}
	return p, nil
}

// safeComponent drops path separators and control characters.
func safeComponent(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r < 0x20:
			return -1
		default:
			return r
		}
	}, s)
}
