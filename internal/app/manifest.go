package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/hyperifyio/goreport/internal/imagematch"
	"github.com/hyperifyio/goreport/internal/sections"
)

// manifestEntry records one generated section.
type manifestEntry struct {
	Index   int    `json:"index"`
	Section string `json:"section"`
	SHA256  string `json:"sha256"`
	Words   int    `json:"words"`
}

// manifestMeta captures run details that aid reproducibility.
type manifestMeta struct {
	Topic        string    `json:"topic"`
	Engine       string    `json:"engine"`
	Provider     string    `json:"provider,omitempty"`
	Model        string    `json:"model,omitempty"`
	Style        string    `json:"style"`
	QualityScore float64   `json:"quality_score"`
	Template     string    `json:"template"`
	Version      string    `json:"version"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of the given text.
func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// buildManifestEntries lists the content sections in report order.
func buildManifestEntries(g sections.GeneratedContent) []manifestEntry {
	list := g.Ordered()
	out := make([]manifestEntry, 0, len(list))
	for i, s := range list {
		out = append(out, manifestEntry{
			Index:   i + 1,
			Section: s.Name,
			SHA256:  computeSHA256Hex(strings.TrimSpace(s.Body)),
			Words:   s.WordCount(),
		})
	}
	return out
}

// marshalManifestJSON encodes the sidecar manifest.
func marshalManifestJSON(meta manifestMeta, entries []manifestEntry, images []imagematch.Placement) ([]byte, error) {
	if images == nil {
		images = []imagematch.Placement{}
	}
	payload := struct {
		Meta     manifestMeta           `json:"meta"`
		Sections []manifestEntry        `json:"sections"`
		Images   []imagematch.Placement `json:"images"`
	}{Meta: meta, Sections: entries, Images: images}
	return json.MarshalIndent(payload, "", "  ")
}

// manifestSidecarPath returns the manifest path next to a report.
func manifestSidecarPath(reportPath string) string {
	return reportPath + ".manifest.json"
}

func writeManifest(reportPath string, meta manifestMeta, g sections.GeneratedContent, images []imagematch.Placement) error {
	b, err := marshalManifestJSON(meta, buildManifestEntries(g), images)
	if err != nil {
		return err
	}
	return os.WriteFile(manifestSidecarPath(reportPath), b, 0o644)
}
