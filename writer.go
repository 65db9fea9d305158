// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import (
	"fmt"
	"os"
	"time"
)

// Encode lays out the archive tables and payloads.
//
// Tables are written in fixed order with placeholder header pointers that are
// patched once each table start is known; the data-offset table is patched
// after payloads are placed on 16-byte boundaries. Entries with an empty
// Extension get one derived from Name. Archive entries are not modified.
func Encode(a *Archive, opts EncodeOptions) (*EncodeResult, error) {
	startedAt := time.Now()

	if a == nil {
		return nil, ErrNilArchive
	}

	variant, err := encodeVariant(a.Format)
	if err != nil {
		return nil, err
	}

	order := a.ByteOrder
	if order == "" {
		order = ByteOrderLittle
	}
	if _, err := ParseByteOrder(string(order)); err != nil {
		return nil, err
	}

	entries := make([]Entry, len(a.Entries))
	copy(entries, a.Entries)
	for i := range entries {
		if entries[i].Extension == "" {
			entries[i].Extension = ExtensionFromName(entries[i].Name)
		}
	}

	if err := validateEntries(entries); err != nil {
		return nil, err
	}

	width := a.NameWidth
	if opts.NameWidth != 0 {
		width = opts.NameWidth
	}

	width, err = resolveNameWidth(entries, width)
	if err != nil {
		return nil, err
	}

	if err := checkArchiveSize(entries, width, len(a.UnknownIndices), variant); err != nil {
		return nil, err
	}

	plan := &Archive{
		Format:         variant.format(),
		ByteOrder:      order,
		NameWidth:      width,
		Unk1:           a.Unk1,
		UnknownIndices: a.UnknownIndices,
		Entries:        entries,
	}

	c := NewCursor(make([]byte, 0, estimateArchiveSize(entries, width)), order)
	tableSize, err := writeTables(c, plan, variant)
	if err != nil {
		return nil, err
	}

	infos := make([]EntryInfo, len(entries))
	var dataSize int64
	for i := range entries {
		c.Align(payloadAlignment)

		info := entries[i].EntryInfo
		info.Size = uint32(len(entries[i].Payload)) //nolint:gosec // checked by validateEntries

		info.Offset = uint32(c.Pos()) //nolint:gosec // bounded by checkArchiveSize
		c.WriteBytes(entries[i].Payload)
		c.Align(payloadAlignment)

		infos[i] = info
		dataSize += int64(info.Size)

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(info)
		}
	}

	for i := range infos {
		if err := c.PatchU32(headerSize+4*i, infos[i].Offset); err != nil {
			return nil, fmt.Errorf("patch data offset of %q: %w", infos[i].Name, err)
		}
	}

	return &EncodeResult{
		Data:      c.Bytes(),
		Entries:   infos,
		Format:    plan.Format,
		NameWidth: width,
		TableSize: tableSize,
		DataSize:  dataSize,
		Duration:  time.Since(startedAt),
	}, nil
}

// EncodeFile encodes the archive and writes it to path.
func EncodeFile(path string, a *Archive, opts EncodeOptions) (*EncodeResult, error) {
	res, err := Encode(a, opts)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, res.Data, 0o644); err != nil { //nolint:gosec // archives are shared game assets
		return nil, fmt.Errorf("write DAT: %w", err)
	}

	return res, nil
}

// encodeVariant resolves the variant for encode; auto is not meaningful without a source.
func encodeVariant(f Format) (tableFormat, error) {
	switch f {
	case "", FormatLegacy:
		return legacyFormat{}, nil
	case FormatHashed:
		return hashedFormat{}, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %q", ErrUnknownFormat, f)
	}
}

// writeTables writes header and every table, returning the table region size.
func writeTables(c *Cursor, a *Archive, variant tableFormat) (int64, error) {
	count := len(a.Entries)

	c.WriteBytes(Magic[:])
	c.WriteI32(int32(count)) //nolint:gosec // bounded by checkArchiveSize
	c.WriteU32(headerSize)
	c.WriteU32(0) // extension table
	c.WriteU32(0) // filename table
	c.WriteU32(0) // size table
	c.WriteU32(0) // fifth table
	c.WriteU32(0) // padding

	for range count {
		c.WriteU32(0)
	}

	extPtr := c.Pos()
	for i := range a.Entries {
		if err := c.WriteFixedString(a.Entries[i].Extension, extensionWidth); err != nil {
			return 0, fmt.Errorf("write extension of %q: %w", a.Entries[i].Name, err)
		}
	}

	namePtr := c.Pos()
	c.WriteU32(a.NameWidth)
	for i := range a.Entries {
		if err := c.WriteFixedString(a.Entries[i].Name, int(a.NameWidth)); err != nil {
			return 0, fmt.Errorf("write filename: %w", err)
		}
	}

	sizePtr := c.Pos()
	for i := range a.Entries {
		c.WriteU32(uint32(len(a.Entries[i].Payload))) //nolint:gosec // checked by validateEntries
	}

	fifthPtr, err := variant.encodeFifth(c, a)
	if err != nil {
		return 0, fmt.Errorf("write %s table: %w", variant.format(), err)
	}

	patches := []struct {
		at  int
		val uint32
	}{
		{headerOffsetExtTable, uint32(extPtr)},   //nolint:gosec // bounded by checkArchiveSize
		{headerOffsetNameTable, uint32(namePtr)}, //nolint:gosec // bounded by checkArchiveSize
		{headerOffsetSizeTable, uint32(sizePtr)}, //nolint:gosec // bounded by checkArchiveSize
		{headerOffsetFifthTable, fifthPtr},
	}
	for _, p := range patches {
		if err := c.PatchU32(p.at, p.val); err != nil {
			return 0, fmt.Errorf("patch header at 0x%x: %w", p.at, err)
		}
	}

	return int64(c.Pos()), nil
}

// tableRegionSize returns bytes used by header and tables before the first payload.
func tableRegionSize(count int, width uint32, auxCount int, variant tableFormat) uint64 {
	n := uint64(headerSize)
	n += uint64(count) * 4               // data offsets
	n += uint64(count) * extensionWidth  // extensions
	n += 4 + uint64(count)*uint64(width) // filenames
	n += uint64(count) * 4               // sizes
	if variant.format() == FormatHashed {
		n += uint64(alignPadding(int(n%metadataAlignment), metadataAlignment)) //nolint:gosec // small
		n += metadataHeader + uint64(auxCount)*2 + uint64(count)*6
	}

	return n
}

// estimateArchiveSize returns an initial buffer capacity for Encode.
func estimateArchiveSize(entries []Entry, width uint32) int {
	n := tableRegionSize(len(entries), width, 0, legacyFormat{})
	for i := range entries {
		n += uint64(len(entries[i].Payload)) + 2*payloadAlignment
	}

	if n > maxUint32 {
		return 0
	}

	return int(n)
}

// checkArchiveSize rejects layouts whose offsets would not fit uint32 pointers.
func checkArchiveSize(entries []Entry, width uint32, auxCount int, variant tableFormat) error {
	if uint64(len(entries)) > 1<<31-1 {
		return fmt.Errorf("%w: %d entries", ErrSizeOverflow, len(entries))
	}

	end := tableRegionSize(len(entries), width, auxCount, variant)
	for i := range entries {
		end += uint64(alignPadding(int(end%payloadAlignment), payloadAlignment)) //nolint:gosec // small
		if end > maxUint32 {
			return fmt.Errorf("%w: entry %q starts past 4 GiB", ErrSizeOverflow, entries[i].Name)
		}
		end += uint64(len(entries[i].Payload))
	}

	return nil
}
