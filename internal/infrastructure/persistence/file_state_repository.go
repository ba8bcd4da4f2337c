package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tecsitel/backend/internal/application/state"
)

// FileStateRepository persists the full state snapshot as a pretty-printed
// JSON document on local disk. Writes go through a temp file and rename so
// a crash mid-save never leaves a truncated document.
type FileStateRepository struct {
	path string
}

// NewFileStateRepository creates a repository writing to the given path
func NewFileStateRepository(path string) *FileStateRepository {
	return &FileStateRepository{path: path}
}

// Load reads the persisted snapshot. A missing file is not an error: the
// first run starts from an empty, normalized state.
func (r *FileStateRepository) Load(ctx context.Context) (*state.FullState, error) {
	if err := ctx.Err(); err != nil {
		return nil, state.NewPersistenceError("load", err)
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			fresh := &state.FullState{}
			fresh.Normalize()
			return fresh, nil
		}
		return nil, state.NewPersistenceError("load", err)
	}

	var loaded state.FullState
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, state.NewPersistenceError("load", fmt.Errorf("corrupt state file %s: %w", r.path, err))
	}
	loaded.Normalize()
	return &loaded, nil
}

// Save overwrites the persisted snapshot with the given state
func (r *FileStateRepository) Save(ctx context.Context, snapshot *state.FullState) error {
	if err := ctx.Err(); err != nil {
		return state.NewPersistenceError("save", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return state.NewPersistenceError("save", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return state.NewPersistenceError("save", err)
	}

	tmp, err := os.CreateTemp(dir, ".database-*.json")
	if err != nil {
		return state.NewPersistenceError("save", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return state.NewPersistenceError("save", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return state.NewPersistenceError("save", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return state.NewPersistenceError("save", err)
	}
	return nil
}
