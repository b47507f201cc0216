package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"StakeHouse/internal/model"
)

// JSONFile stores the snapshot as a single indented JSON document.
type JSONFile struct {
	Path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{Path: path}
}

// Load reads the snapshot. Returns an empty state if the file doesn't exist.
func (f *JSONFile) Load() (*model.State, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.State{}, nil
		}
		return nil, err
	}
	var state model.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return &state, nil
}

// Save writes to a temp file and renames it over the old snapshot.
func (f *JSONFile) Save(state *model.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

func (f *JSONFile) Close() error { return nil }
