// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import (
	"fmt"
	"strings"
)

// ExtensionFromName returns the suffix after the last "." or empty string when name has none.
// Archives built by tools that store the first 4 bytes of a dotless name as
// its extension repack here with an empty extension record unless the
// decoded Extension is kept.
func ExtensionFromName(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}

	return name[idx+1:]
}

// NewEntry builds an entry from name and payload with derived extension and size.
func NewEntry(name string, payload []byte) Entry {
	return Entry{
		EntryInfo: EntryInfo{
			Name:      name,
			Extension: ExtensionFromName(name),
			Size:      uint32(len(payload)), //nolint:gosec // checked by Encode
		},
		Payload: payload,
	}
}

// maxNameLength returns the longest entry name in bytes.
func maxNameLength(entries []Entry) int {
	longest := 0
	for i := range entries {
		if n := len(entries[i].Name); n > longest {
			longest = n
		}
	}

	return longest
}

// resolveNameWidth picks the filename record width and checks every name against it.
// A zero width means longest name + 1 so every record keeps a NUL terminator.
func resolveNameWidth(entries []Entry, width uint32) (uint32, error) {
	if width == 0 {
		longest := maxNameLength(entries)
		if len(entries) == 0 {
			return 0, nil
		}

		if uint64(longest)+1 > maxUint32 {
			return 0, fmt.Errorf("%w: name length %d", ErrSizeOverflow, longest)
		}

		return uint32(longest) + 1, nil //nolint:gosec // bounded above
	}

	for i := range entries {
		if uint64(len(entries[i].Name)) > uint64(width) {
			return 0, fmt.Errorf(
				"%w: filename %q is %d bytes, recorded width %d",
				ErrFieldTooLong, entries[i].Name, len(entries[i].Name), width,
			)
		}
	}

	return width, nil
}

// validateEntries checks names, extensions, and sizes before any byte is written.
func validateEntries(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		e := &entries[i]
		if e.Name == "" {
			return fmt.Errorf("%w: entry %d has empty name", ErrInvalidEntryName, i)
		}

		if _, ok := seen[e.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateEntryName, e.Name)
		}
		seen[e.Name] = struct{}{}

		if len(e.Extension) > extensionWidth {
			return fmt.Errorf("%w: extension %q of %q exceeds %d bytes", ErrFieldTooLong, e.Extension, e.Name, extensionWidth)
		}

		if uint64(len(e.Payload)) > maxUint32 {
			return fmt.Errorf("%w: entry %q payload %d bytes", ErrSizeOverflow, e.Name, len(e.Payload))
		}
	}

	return nil
}

// validateFlatName rejects names that would escape or nest inside the unpack directory.
func validateFlatName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidEntryName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidEntryName, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains separator or NUL", ErrInvalidEntryName, name)
	case hasWindowsDrivePrefix(name):
		return fmt.Errorf("%w: %q has drive prefix", ErrInvalidEntryName, name)
	}

	return nil
}

// hasWindowsDrivePrefix reports whether name starts with a drive prefix like C:.
func hasWindowsDrivePrefix(name string) bool {
	if len(name) < 2 {
		return false
	}

	return isASCIIAlpha(name[0]) && name[1] == ':'
}

// isASCIIAlpha reports whether byte is ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
