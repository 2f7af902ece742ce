package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/sessionid"
)

const fileExt = ".json"

// File is a Store that writes one JSON document per session into a
// directory.
type File struct {
	base
	dir string
	mu  sync.Mutex
}

// NewFile returns a store rooted at dir, creating the directory if needed.
func NewFile(dir string, opts ...Option) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &File{base: newBase(opts), dir: dir}, nil
}

// Save implements Store.
func (f *File) Save(_ context.Context, s Session) (Session, error) {
	s, err := f.stamp(s)
	if err != nil {
		return Session{}, err
	}
	path, err := f.path(s.ID)
	if err != nil {
		return Session{}, err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return Session{}, fmt.Errorf("encode session %s: %w", s.ID, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Load implements Store.
func (f *File) Load(_ context.Context, id string) (Session, error) {
	path, err := f.path(id)
	if err != nil {
		return Session{}, ErrNotFound
	}
	return readSession(path)
}

// List implements Store.
func (f *File) List(_ context.Context, accountID string, gameType game.Variant) ([]Summary, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		s, err := readSession(filepath.Join(f.dir, name))
		if err != nil {
			return nil, err
		}
		if s.AccountID == accountID && s.GameType == gameType {
			out = append(out, s.Summary())
		}
	}
	sortSummaries(out)
	return out, nil
}

// Delete implements Store.
func (f *File) Delete(_ context.Context, id string) error {
	path, err := f.path(id)
	if err != nil {
		return ErrNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// path maps a session id to its file. Only well-formed ids are accepted so
// an id can never name a file outside the directory.
func (f *File) path(id string) (string, error) {
	if err := sessionid.Validate(id); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, id+fileExt), nil
}

func readSession(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("decode session %s: %w", filepath.Base(path), err)
	}
	return s, nil
}

// writeFileAtomic writes data to a temporary file in the same directory and
// renames it over filename, so readers see either the old or the new
// document and never a partial one.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	committed = true
	return nil
}
