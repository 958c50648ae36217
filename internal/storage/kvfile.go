// Package storage provides the durable stores behind questforge: key-value
// backends for the quest draft and the YAML registry of published quests.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/questforge/internal/filelock"
	"gopkg.in/yaml.v3"
)

// localStoreFile is the top-level structure of localstore.yaml.
type localStoreFile struct {
	Version string            `yaml:"version"`
	Entries map[string]string `yaml:"entries"`
}

// FileKVStore keeps string values in a single YAML file, emulating browser
// local storage: every read goes to disk, so a value saved by one process
// is seen by the next Get in any other.
type FileKVStore struct {
	path string
}

// NewFileKVStore creates a FileKVStore backed by the file at path. The file
// and its directory are created on the first write.
func NewFileKVStore(path string) *FileKVStore {
	return &FileKVStore{path: path}
}

// Path returns the backing file path.
func (s *FileKVStore) Path() string { return s.path }

// Get returns the value stored under key.
func (s *FileKVStore) Get(key string) (string, bool, error) {
	data, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := data.Entries[key]
	return v, ok, nil
}

// Set stores value under key, replacing any previous value.
func (s *FileKVStore) Set(key, value string) error {
	return s.update(func(f *localStoreFile) bool {
		f.Entries[key] = value
		return true
	})
}

// Delete removes key. A missing key or missing file is not an error.
func (s *FileKVStore) Delete(key string) error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}
	return s.update(func(f *localStoreFile) bool {
		if _, ok := f.Entries[key]; !ok {
			return false
		}
		delete(f.Entries, key)
		return true
	})
}

// Keys returns every stored key.
func (s *FileKVStore) Keys() ([]string, error) {
	data, err := s.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(data.Entries))
	for k := range data.Entries {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *FileKVStore) read() (*localStoreFile, error) {
	f := &localStoreFile{Version: "1.0", Entries: make(map[string]string)}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("reading local store: %w", err)
	}
	if err := yaml.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("reading local store: parsing YAML: %w", err)
	}
	if f.Entries == nil {
		f.Entries = make(map[string]string)
	}
	return f, nil
}

// update runs fn on the current contents under an exclusive lock and writes
// the result back when fn reports a change.
func (s *FileKVStore) update(fn func(f *localStoreFile) bool) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("writing local store: creating directory: %w", err)
	}

	err := filelock.With(s.path+".lock", func() error {
		data, err := s.read()
		if err != nil {
			return err
		}
		if !fn(data) {
			return nil
		}

		out, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		tmp := s.path + ".tmp"
		if err := os.WriteFile(tmp, out, 0o600); err != nil {
			return err
		}
		if err := os.Rename(tmp, s.path); err != nil {
			return fmt.Errorf("replacing file: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing local store: %w", err)
	}
	return nil
}
