// Package artifacts reads the immutable model files the planner is built
// from: per-class vectorizer/matrix/id-map triples, the parser gazetteer and
// the reorderer vocab, config and weights. Files are produced by the offline
// training pipeline; readers tolerate UTF-8 byte-order marks and ignore
// unknown JSON fields so newer pipelines stay loadable.
package artifacts

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spkg/bom"
)

// Store resolves names inside a single artifact directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute location of a named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether the named artifact is present and a regular file.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// ReadJSON decodes the named artifact into v.
func (s *Store) ReadJSON(name string, v any) error {
	f, err := os.Open(s.Path(name))
	if err != nil {
		return errors.Wrapf(err, "opening artifact %s", name)
	}
	defer f.Close()

	if err := json.NewDecoder(bom.NewReader(f)).Decode(v); err != nil {
		return errors.Wrapf(err, "decoding artifact %s", name)
	}
	return nil
}

// ReadBlob returns the raw bytes of an opaque artifact.
func (s *Store) ReadBlob(name string) ([]byte, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		return nil, errors.Wrapf(err, "opening artifact %s", name)
	}
	defer f.Close()

	data, err := io.ReadAll(bom.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "reading artifact %s", name)
	}
	return data, nil
}
