// Package filestore implements kv.Store on top of a single JSON document on
// the local filesystem.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/internal/file"
	"github.com/praxis-health/praxis/internal/kv"
)

// DefaultFilename is the name of the session file within the praxis home
// directory.
const DefaultFilename = "session.json"

type store struct {
	path string
	// mu serializes read-modify-write cycles within this process. Writers in
	// other processes are tolerated because every write replaces the whole
	// file by rename.
	mu sync.Mutex
}

// NewStore returns a kv.Store backed by the file at path. The file and its
// parent directory are created on first write.
func NewStore(path string) kv.Store {
	return &store{
		path: path,
	}
}

// DefaultPath returns the location of the session file within the user's
// praxis home directory.
func DefaultPath() (string, error) {
	homeDir, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "error locating user's home directory")
	}
	return filepath.Join(homeDir, ".praxis", DefaultFilename), nil
}

func (s *store) Get(
	_ context.Context,
	keys ...string,
) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := all[key]; ok {
			values[key] = value
		}
	}
	return values, nil
}

func (s *store) PutAll(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return err
	}
	for key, value := range values {
		all[key] = value
	}
	return s.save(all)
}

func (s *store) DeleteAll(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(all, key)
	}
	if len(all) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "error deleting %s", s.path)
		}
		return nil
	}
	return s.save(all)
}

func (s *store) load() (map[string]string, error) {
	all := map[string]string{}
	if !file.Exists(s.path) {
		return all, nil
	}
	fileBytes, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", s.path)
	}
	if len(fileBytes) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(fileBytes, &all); err != nil {
		return nil, errors.Wrapf(err, "error parsing %s", s.path)
	}
	return all, nil
}

// save writes all to a temporary file alongside the target and renames it into
// place, so that the target always holds either the old or the new document.
func (s *store) save(all map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, "error creating %s", dir)
	}
	fileBytes, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return errors.Wrap(err, "error marshaling session data")
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return errors.Wrapf(err, "error creating temporary file in %s", dir)
	}
	defer os.Remove(tmp.Name()) // nolint: errcheck
	if _, err := tmp.Write(fileBytes); err != nil {
		tmp.Close() // nolint: errcheck
		return errors.Wrapf(err, "error writing to %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "error writing to %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return errors.Wrapf(err, "error setting permissions on %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrapf(err, "error writing to %s", s.path)
	}
	return nil
}
