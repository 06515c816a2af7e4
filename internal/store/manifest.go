package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"github.com/hyperifyio/bookmatch/internal/extract"
)

// Manifest records what an extraction run read and produced, so a catalog can
// be traced back to the exact page it came from.
type Manifest struct {
	Source       string                 `json:"source"`
	PageTitle    string                 `json:"page_title,omitempty"`
	SourceSHA256 string                 `json:"source_sha256"`
	SourceBytes  int                    `json:"source_bytes"`
	Output       string                 `json:"output"`
	Format       Format                 `json:"format"`
	Found        int                    `json:"blocks_found"`
	Segmented    int                    `json:"blocks_segmented"`
	Records      int                    `json:"records"`
	Discarded    int                    `json:"discarded"`
	Reasons      map[extract.Reason]int `json:"reasons"`
	Version      string                 `json:"version,omitempty"`
	GeneratedAt  time.Time              `json:"generated_at"`
}

// NewManifest summarizes one extraction of doc from source into output.
func NewManifest(source string, doc []byte, res extract.Result, output string, now time.Time) Manifest {
	h := sha256.Sum256(doc)
	format, _ := FormatOf(output)
	return Manifest{
		Source:       source,
		PageTitle:    extract.PageTitle(string(doc)),
		SourceSHA256: hex.EncodeToString(h[:]),
		SourceBytes:  len(doc),
		Output:       output,
		Format:       format,
		Found:        res.Found,
		Segmented:    res.Segmented,
		Records:      len(res.Records),
		Discarded:    res.Discarded(),
		Reasons:      res.Summary(),
		GeneratedAt:  now.UTC(),
	}
}

// SidecarPath returns the manifest path next to an output file.
func SidecarPath(output string) string {
	return output + ".manifest.json"
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(path string, m Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(path, append(b, '\n'))
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}
