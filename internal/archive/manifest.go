package archive

import (
	"encoding/json"
	"fmt"

	"github.com/FocuswithJustin/cleanchart/core/cas"
)

// ManifestName is the file name of the manifest inside a bundle.
const ManifestName = "manifest.json"

// ManifestVersion is the manifest format version.
const ManifestVersion = "1"

// Manifest lists the rendered files of a bundle with their digests.
type Manifest struct {
	Version string         `json:"version"`
	Title   string         `json:"title,omitempty"`
	Source  string         `json:"source_blake3"`
	Format  string         `json:"format"`
	Files   []ManifestFile `json:"files"`
}

// ManifestFile is one entry of the manifest.
type ManifestFile struct {
	Name string `json:"name"`
	Size int    `json:"size"`
	cas.Digest
}

// NewManifest describes entries. The manifest file itself is not listed.
func NewManifest(title, source, format string, entries []Entry) *Manifest {
	m := &Manifest{Version: ManifestVersion, Title: title, Source: source, Format: format}
	for _, e := range entries {
		m.Files = append(m.Files, ManifestFile{Name: e.Name, Size: len(e.Data), Digest: cas.Sum(e.Data)})
	}
	return m
}

// Entry encodes the manifest as a bundle entry.
func (m *Manifest) Entry() (Entry, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Entry{}, err
	}
	return Entry{Name: ManifestName, Data: append(data, '\n')}, nil
}

// ReadManifest loads the manifest of a bundle.
func ReadManifest(path string) (*Manifest, error) {
	data, err := ReadFile(path, ManifestName)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// Verify re-reads every listed file and checks its digests.
func (m *Manifest) Verify(path string) error {
	for _, f := range m.Files {
		data, err := ReadFile(path, f.Name)
		if err != nil {
			return err
		}
		if got := cas.Sum(data); got != f.Digest {
			return fmt.Errorf("digest mismatch for %s", f.Name)
		}
	}
	return nil
}
