// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import (
	"path/filepath"
	"strings"
)

// UnpackSuffix is appended to an archive path to form its loose file directory.
const UnpackSuffix = ".unpack"

// DefaultArchiveExt is appended when a directory lacks UnpackSuffix.
const DefaultArchiveExt = ".dat"

// UnpackDirFor returns the sibling loose file directory for an archive path.
func UnpackDirFor(archivePath string) string {
	return cleanPath(archivePath) + UnpackSuffix
}

// ArchivePathFor returns the archive path for a loose file directory:
// UnpackSuffix is stripped, otherwise DefaultArchiveExt is appended.
func ArchivePathFor(dir string) string {
	dir = cleanPath(dir)
	if name := filepath.Base(dir); name != UnpackSuffix && strings.HasSuffix(name, UnpackSuffix) {
		return strings.TrimSuffix(dir, UnpackSuffix)
	}

	return dir + DefaultArchiveExt
}

// cleanPath removes trailing separators so suffix handling sees the directory name.
func cleanPath(p string) string {
	if p == "" {
		return p
	}

	return filepath.Clean(p)
}
