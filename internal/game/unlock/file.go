package unlock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File names used by FilePersister inside its directory.
const (
	UnlockedFile = "unlocked_items.json"
	ObtainedFile = "obtained_items.json"
)

// FilePersister stores each set as a JSON array of strings in its own file.
// Every write goes to a temp file in the same directory that is then renamed
// over the target, so readers see either the old or the new file.
type FilePersister struct {
	dir string
}

// NewFilePersister returns a persister rooted at dir. The directory is
// created on first save.
//
// Precondition: dir must be non-empty.
func NewFilePersister(dir string) *FilePersister {
	return &FilePersister{dir: dir}
}

// Dir returns the directory holding the state files.
func (p *FilePersister) Dir() string { return p.dir }

// Load reads both files. A missing file yields a nil set; a corrupt file is an error.
func (p *FilePersister) Load(_ context.Context) (State, error) {
	unlocked, err := readSet(filepath.Join(p.dir, UnlockedFile))
	if err != nil {
		return State{}, err
	}
	obtained, err := readSet(filepath.Join(p.dir, ObtainedFile))
	if err != nil {
		return State{}, err
	}
	return State{Unlocked: unlocked, Obtained: obtained}, nil
}

// Save writes both files, each atomically.
func (p *FilePersister) Save(_ context.Context, s State) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("unlock: creating %q: %w", p.dir, err)
	}
	if err := writeSetAtomic(filepath.Join(p.dir, UnlockedFile), s.Unlocked); err != nil {
		return err
	}
	return writeSetAtomic(filepath.Join(p.dir, ObtainedFile), s.Obtained)
}

func readSet(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("unlock: reading %q: %w", path, err)
	}
	var set []string
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("unlock: parsing %q: %w", path, err)
	}
	if set == nil {
		set = []string{}
	}
	return set, nil
}

func writeSetAtomic(path string, set []string) error {
	if set == nil {
		set = []string{}
	}
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("unlock: encoding %q: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("unlock: creating temp for %q: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("unlock: writing %q: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("unlock: syncing %q: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unlock: closing %q: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("unlock: replacing %q: %w", path, err)
	}
	cleanup = false
	return nil
}
