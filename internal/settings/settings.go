// Package settings persists the user-supplied plugin settings as TOML.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Settings are the user-supplied values for the immich plugin.
type Settings struct {
	ImmichServerURL string `toml:"immichServerUrl"`
	AlbumName       string `toml:"albumName"`
	PadImage        bool   `toml:"padImage"`
}

// FileStore reads and writes Settings to a TOML file. Writes are last-writer
// wins; there is no locking between processes.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path. The file does not
// need to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the settings. A missing file yields zero Settings.
func (s *FileStore) Load() (Settings, error) {
	var conf Settings
	if _, err := toml.DecodeFile(s.path, &conf); errors.Is(err, fs.ErrNotExist) {
		return Settings{}, nil
	} else if err != nil {
		return Settings{}, fmt.Errorf("decoding settings %s: %w", s.path, err)
	}
	return conf, nil
}

// Save writes conf to disk. It reports whether the file changed; if the
// stored values already equal conf nothing is written. Keys other than the
// ones in [Settings] are kept, comments are not.
func (s *FileStore) Save(conf Settings) (bool, error) {
	current, err := s.Load()
	if err != nil {
		return false, err
	}
	if current == conf {
		return false, nil
	}

	doc := map[string]any{}
	if _, err := toml.DecodeFile(s.path, &doc); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("decoding settings %s: %w", s.path, err)
	}
	doc["immichServerUrl"] = conf.ImmichServerURL
	doc["albumName"] = conf.AlbumName
	if _, ok := doc["padImage"]; ok || conf.PadImage != current.PadImage {
		doc["padImage"] = conf.PadImage
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return false, fmt.Errorf("encoding settings: %w", err)
	}

	// Write to a temp file in the same directory and rename over the
	// original so readers never see a partial file.
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return false, err
	}
	return true, nil
}
