package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"pharmacy-dashboard/internal/models"
)

// FileStore keeps one JSON document per client under dir.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

func (f *FileStore) Load(_ context.Context, id string) (models.Settings, error) {
	if err := checkID(id); err != nil {
		return models.Settings{}, err
	}

	data, err := os.ReadFile(f.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("read settings: %w", err)
	}

	s := models.DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return models.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// Save writes to a temp file and renames it so readers never see a partial
// document.
func (f *FileStore) Save(_ context.Context, id string, s models.Settings) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := Validate(s); err != nil {
		return err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(id)); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
