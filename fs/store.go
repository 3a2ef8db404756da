// Package fs provides file-based persistence for index metadata and build
// progress. Writes are atomic: content goes to a temp file in the same
// directory, then renames over the target.
package fs

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/docsearch"
)

// Compile-time interface verification.
var (
	_ docsearch.MetadataStore = (*MetadataStore)(nil)
	_ docsearch.ProgressStore = (*ProgressStore)(nil)
)

// MetadataStore persists IndexMetadata as a JSON file.
type MetadataStore struct {
	path string
}

// NewMetadataStore creates a MetadataStore writing to the given file path.
func NewMetadataStore(path string) *MetadataStore {
	return &MetadataStore{path: path}
}

// SaveMetadata atomically writes the metadata.
func (s *MetadataStore) SaveMetadata(meta *docsearch.IndexMetadata) error {
	return writeJSON(s.path, meta)
}

// LoadMetadata returns the stored metadata. A missing or unparseable file
// returns ENOTFOUND; the caller treats both as "no usable index".
func (s *MetadataStore) LoadMetadata() (*docsearch.IndexMetadata, error) {
	var meta docsearch.IndexMetadata
	if err := readJSON(s.path, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ProgressStore persists EmbeddingProgress as a JSON file.
type ProgressStore struct {
	path string
}

// NewProgressStore creates a ProgressStore writing to the given file path.
func NewProgressStore(path string) *ProgressStore {
	return &ProgressStore{path: path}
}

// SaveProgress atomically writes the progress record.
func (s *ProgressStore) SaveProgress(p *docsearch.EmbeddingProgress) error {
	return writeJSON(s.path, p)
}

// LoadProgress returns the stored progress record. A missing or
// unparseable file returns ENOTFOUND.
func (s *ProgressStore) LoadProgress() (*docsearch.EmbeddingProgress, error) {
	var p docsearch.EmbeddingProgress
	if err := readJSON(s.path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Clear removes the progress file. Used when a rebuild invalidates prior
// progress so the next build starts from zero. Idempotent.
func (s *ProgressStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return docsearch.Errorf(docsearch.ENOTFOUND, "file not found: %s", filepath.Base(path))
		}
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		// A corrupt file is treated as absent so the stage rebuilds.
		return docsearch.Errorf(docsearch.ENOTFOUND, "corrupt file: %s: %v", filepath.Base(path), err)
	}
	return nil
}
