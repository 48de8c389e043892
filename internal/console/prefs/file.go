package prefs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	pkgerrors "gradedesk/pkg/errors"
)

// fileState is the on-disk layout.
type fileState struct {
	Theme Theme `json:"theme,omitempty"`
}

// FileStore keeps preferences in a small JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Theme(ctx context.Context) (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return Light, err
	}
	return ParseTheme(string(st.Theme))
}

func (s *FileStore) SetTheme(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	st.Theme = theme
	return s.save(st)
}

func (s *FileStore) load() (fileState, error) {
	var st fileState
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, pkgerrors.Wrapf(err, pkgerrors.PreferenceStoreError, "read preferences failed: %v", err)
	}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, pkgerrors.Wrapf(err, pkgerrors.PreferenceStoreError, "parse preferences failed: %v", err)
	}
	return st, nil
}

func (s *FileStore) save(st fileState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.PreferenceStoreError, "create preferences dir failed: %v", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.PreferenceStoreError, "marshal preferences failed: %v", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.PreferenceStoreError, "write preferences failed: %v", err)
	}
	return nil
}
