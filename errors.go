// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import "errors"

// Sentinel errors for DAT operations. Use errors.Is in callers.
var (
	// ErrBadMagic means the archive does not start with the DAT magic tag.
	ErrBadMagic = errors.New("invalid DAT file: bad magic")
	// ErrTruncatedInput means a read or table pointer runs past the end of the buffer.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrFieldTooLong means a string exceeds its fixed table width.
	ErrFieldTooLong = errors.New("field exceeds fixed width")
	// ErrMissingManifest means a hashed-format repack has no sidecar manifest.
	ErrMissingManifest = errors.New("missing manifest")
	// ErrMissingLooseFile means a referenced filename is absent from the loose file directory.
	ErrMissingLooseFile = errors.New("missing loose file")
	// ErrMissingManifestEntry means a loose file has no manifest record in strict mode.
	ErrMissingManifestEntry = errors.New("loose file has no manifest record")
	// ErrInvalidTable means a table header holds an impossible count, width, or relative offset.
	ErrInvalidTable = errors.New("invalid table")
	// ErrInvalidSeek means the cursor was moved to a negative offset.
	ErrInvalidSeek = errors.New("invalid seek offset")
	// ErrInvalidEntryName means an entry name is empty or not a flat filename.
	ErrInvalidEntryName = errors.New("invalid entry name")
	// ErrDuplicateEntryName means two entries share the same name.
	ErrDuplicateEntryName = errors.New("duplicate entry name")
	// ErrSizeOverflow means a size or offset exceeds the uint32 range of the format.
	ErrSizeOverflow = errors.New("size exceeds uint32 DAT limit")
	// ErrLooseFileChanged means a loose file size changed between stat and read.
	ErrLooseFileChanged = errors.New("loose file changed during pack")
	// ErrArchiveExists means the pack destination exists and overwrite is not allowed.
	ErrArchiveExists = errors.New("archive already exists")
	// ErrUnknownFormat means the format variant is not recognized.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrUnknownByteOrder means the byte order is not recognized.
	ErrUnknownByteOrder = errors.New("unknown byte order")
	// ErrNilStore means the loose file store is nil.
	ErrNilStore = errors.New("file store is nil")
	// ErrNilArchive means the archive is nil.
	ErrNilArchive = errors.New("archive is nil")
)
