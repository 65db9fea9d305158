// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FileStore reads and writes flat named loose files.
type FileStore interface {
	// List returns names of regular top-level files in lexical order.
	List() ([]string, error)
	// Size returns the byte size of one file.
	Size(name string) (int64, error)
	// ReadFile returns full file content.
	ReadFile(name string) ([]byte, error)
	// WriteFile creates or truncates one file.
	WriteFile(name string, data []byte) error
}

// DirStore is a FileStore backed by one filesystem directory.
type DirStore struct {
	// Root is the directory holding loose files.
	Root string
}

// NewDirStore returns a store rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{Root: dir}
}

// List returns regular files in Root, including symlinks to regular files; subdirectories are skipped.
func (s *DirStore) List() ([]string, error) {
	dirEntries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.Root, err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		regular := de.Type().IsRegular()
		if de.Type()&fs.ModeSymlink != 0 {
			// Links count when they resolve to a regular file.
			fi, err := os.Stat(s.path(de.Name()))
			regular = err == nil && fi.Mode().IsRegular()
		}

		if !regular {
			continue
		}

		names = append(names, de.Name())
	}

	sort.Strings(names)
	return names, nil
}

// Size returns file size from stat.
func (s *DirStore) Size(name string) (int64, error) {
	fi, err := os.Stat(s.path(name))
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", name, err)
	}

	if !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("stat %s: %w", name, os.ErrNotExist)
	}

	return fi.Size(), nil
}

// ReadFile reads one loose file.
func (s *DirStore) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return data, nil
}

// WriteFile writes one loose file, creating Root when missing.
func (s *DirStore) WriteFile(name string, data []byte) error {
	if err := os.MkdirAll(s.Root, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := os.WriteFile(s.path(name), data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

// path joins name under Root.
func (s *DirStore) path(name string) string {
	return filepath.Join(s.Root, name)
}
