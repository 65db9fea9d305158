// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// packItem is one resolved entry before its payload is loaded.
type packItem struct {
	name  string
	size  int64
	index int16
	hash  uint32
}

// Pack builds an archive from loose files in store.
//
// Legacy format packs listed files in lexical order. Hashed format requires
// the manifest: its Files order comes first, loose files absent from it
// follow in lexical order with zero index and hash (or fail with
// StrictManifest). The manifest itself and files matched by Ignore rules are
// never packed; files named by the manifest are always packed.
func Pack(ctx context.Context, store FileStore, opts PackOptions) (*EncodeResult, error) {
	opts.applyDefaults()

	if store == nil {
		return nil, ErrNilStore
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := ParseByteOrder(string(opts.ByteOrder)); err != nil {
		return nil, err
	}

	format, err := DetectPackFormat(store, opts.Format)
	if err != nil {
		return nil, err
	}

	matcher, err := newIgnoreMatcher(opts.Ignore)
	if err != nil {
		return nil, err
	}

	listed, err := store.List()
	if err != nil {
		return nil, err
	}
	names := selectLooseFiles(listed, matcher)

	var manifest *Manifest
	if format == FormatHashed {
		if manifest, err = LoadManifest(store); err != nil {
			return nil, err
		}
	}

	items, err := planPackItems(names, manifest, opts.StrictManifest)
	if err != nil {
		return nil, err
	}

	a := &Archive{
		Format:    format,
		ByteOrder: opts.ByteOrder,
		Entries:   make([]Entry, len(items)),
	}
	if manifest != nil {
		a.Unk1 = manifest.Unk1
		a.UnknownIndices = manifest.UnknownIndices
		a.NameWidth = manifest.NameWidth
	}
	if opts.NameWidth != 0 {
		a.NameWidth = opts.NameWidth
	}

	for i, item := range items {
		a.Entries[i] = Entry{EntryInfo: EntryInfo{
			Name:      item.name,
			Extension: ExtensionFromName(item.name),
			Index:     item.index,
			Hash:      item.hash,
		}}
	}

	// Width violations must surface before any loose file is touched.
	if _, err := resolveNameWidth(a.Entries, a.NameWidth); err != nil {
		return nil, err
	}

	if opts.OnPlanned != nil {
		opts.OnPlanned(len(items))
	}

	for i := range items {
		size, err := store.Size(items[i].name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrMissingLooseFile, items[i].name)
			}

			return nil, err
		}

		if size > maxUint32 {
			return nil, fmt.Errorf("%w: %s is %d bytes", ErrSizeOverflow, items[i].name, size)
		}

		items[i].size = size
		a.Entries[i].Size = uint32(size) //nolint:gosec // bounded above
	}

	for i := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := store.ReadFile(items[i].name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrMissingLooseFile, items[i].name)
			}

			return nil, err
		}

		if int64(len(data)) != items[i].size {
			return nil, fmt.Errorf("%w: %s was %d bytes, read %d", ErrLooseFileChanged, items[i].name, items[i].size, len(data))
		}

		a.Entries[i].Payload = data
	}

	return Encode(a, EncodeOptions{OnEntryDone: opts.OnEntryDone})
}

// PackDir packs dir and writes the archive to ArchivePathFor(dir).
// Nothing is written unless the whole archive was built.
func PackDir(ctx context.Context, dir string, opts PackOptions) (*EncodeResult, string, error) {
	outPath := ArchivePathFor(dir)

	if !opts.Overwrite {
		if _, err := os.Stat(outPath); err == nil {
			return nil, outPath, fmt.Errorf("%w: %s", ErrArchiveExists, outPath)
		}
	}

	res, err := Pack(ctx, NewDirStore(dir), opts)
	if err != nil {
		return nil, outPath, err
	}

	if err := writeFileAtomic(outPath, res.Data); err != nil {
		return nil, outPath, err
	}

	return res, outPath, nil
}

// DetectPackFormat resolves FormatAuto to hashed when store holds a manifest, legacy otherwise.
func DetectPackFormat(store FileStore, format Format) (Format, error) {
	switch format {
	case FormatLegacy, FormatHashed:
		return format, nil
	case FormatAuto, "":
		ok, err := hasManifest(store)
		if err != nil {
			return "", err
		}

		if ok {
			return FormatHashed, nil
		}

		return FormatLegacy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// planPackItems merges manifest order with loose file names.
func planPackItems(names []string, manifest *Manifest, strict bool) ([]packItem, error) {
	if manifest == nil {
		items := make([]packItem, len(names))
		for i, name := range names {
			items[i] = packItem{name: name}
		}

		return items, nil
	}

	items := make([]packItem, 0, len(manifest.Files)+len(names))
	listed := make(map[string]struct{}, len(manifest.Files))
	for _, file := range manifest.Files {
		if file.Name == ManifestFileName {
			continue
		}

		if err := validateFlatName(file.Name); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}

		listed[file.Name] = struct{}{}
		items = append(items, packItem{name: file.Name, index: file.Index, hash: file.Hash})
	}

	for _, name := range names {
		if _, ok := listed[name]; ok {
			continue
		}

		if strict {
			return nil, fmt.Errorf("%w: %s", ErrMissingManifestEntry, name)
		}

		items = append(items, packItem{name: name})
	}

	return items, nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec // archives are shared game assets
		return fmt.Errorf("write DAT: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace DAT: %w", err)
	}

	return nil
}
