// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import (
	"context"
	"fmt"
)

// Unpack writes every entry payload to store in table order, then the
// manifest for hashed archives. Names are validated before the first write;
// files written before a later write error are left in place.
func Unpack(ctx context.Context, a *Archive, store FileStore, opts UnpackOptions) error {
	if a == nil {
		return ErrNilArchive
	}
	if store == nil {
		return ErrNilStore
	}

	if ctx == nil {
		ctx = context.Background()
	}

	writeManifest := a.Format == FormatHashed && !opts.SkipManifest
	if err := validateUnpackNames(a.Entries, writeManifest); err != nil {
		return err
	}

	for i := range a.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		e := &a.Entries[i]
		if uint64(len(e.Payload)) != uint64(e.Size) {
			return fmt.Errorf("%w: %q has %d of %d payload bytes", ErrTruncatedInput, e.Name, len(e.Payload), e.Size)
		}

		if err := store.WriteFile(e.Name, e.Payload); err != nil {
			return fmt.Errorf("unpack %q: %w", e.Name, err)
		}

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(e.EntryInfo)
		}
	}

	if !writeManifest {
		return nil
	}

	if err := SaveManifest(store, ManifestFromArchive(a)); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}

	return nil
}

// UnpackFile decodes the archive at path and unpacks it into UnpackDirFor(path).
// It returns the decoded archive and the output directory.
func UnpackFile(ctx context.Context, path string, opts UnpackOptions) (*Archive, string, error) {
	opts.applyDefaults()

	a, err := DecodeFile(path, opts.ReaderOptions)
	if err != nil {
		return nil, "", err
	}

	outDir := UnpackDirFor(path)
	if err := Unpack(ctx, a, NewDirStore(outDir), opts); err != nil {
		return a, outDir, err
	}

	return a, outDir, nil
}

// validateUnpackNames rejects unsafe, duplicate, or reserved names.
func validateUnpackNames(entries []Entry, reserveManifest bool) error {
	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		name := entries[i].Name
		if err := validateFlatName(name); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}

		if reserveManifest && name == ManifestFileName {
			return fmt.Errorf("%w: %q is reserved for the manifest", ErrInvalidEntryName, name)
		}

		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateEntryName, name)
		}
		seen[name] = struct{}{}
	}

	return nil
}
