package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend stores each slot as <dir>/<slot>.json. Writes go through a
// temporary file and a rename so a crash never leaves a half-written record.
type FileBackend struct {
	dir string
}

// NewFileBackend creates dir if needed and returns a backend rooted there.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) path(slot Slot) string {
	return filepath.Join(f.dir, string(slot)+".json")
}

func (f *FileBackend) Get(_ context.Context, slot Slot) ([]byte, error) {
	data, err := os.ReadFile(f.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", slot, err)
	}
	return data, nil
}

func (f *FileBackend) Put(_ context.Context, slot Slot, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, "."+string(slot)+"-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", slot, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup; gone after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // already failing
		return fmt.Errorf("write %s: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", slot, err)
	}
	if err := os.Rename(tmp.Name(), f.path(slot)); err != nil {
		return fmt.Errorf("commit %s: %w", slot, err)
	}
	return nil
}

func (f *FileBackend) Close() error { return nil }
