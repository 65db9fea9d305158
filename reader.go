// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import (
	"bytes"
	"fmt"
	"os"
)

// ReadHeader parses the fixed 0x20-byte header.
func ReadHeader(data []byte, order ByteOrder) (Header, error) {
	if _, err := ParseByteOrder(string(order)); err != nil {
		return Header{}, err
	}

	return readHeader(NewCursor(data, order))
}

// readHeader parses magic, count, and table pointers at cursor start.
func readHeader(c *Cursor) (Header, error) {
	var h Header

	magic, err := c.ReadBytes(len(Magic))
	if err != nil {
		return h, fmt.Errorf("%w: short header: %w", ErrBadMagic, err)
	}

	if !bytes.Equal(magic, Magic[:]) {
		return h, fmt.Errorf("%w: got %q", ErrBadMagic, magic)
	}

	if c.Len() < headerSize {
		return h, fmt.Errorf("%w: header needs 0x%x bytes, have 0x%x", ErrTruncatedInput, headerSize, c.Len())
	}

	count, err := c.ReadI32()
	if err != nil {
		return h, fmt.Errorf("read file count: %w", err)
	}

	if count < 0 {
		return h, fmt.Errorf("%w: negative file count %d", ErrInvalidTable, count)
	}

	h.FileCount = count
	ptrs := []*uint32{&h.DataOffsetTable, &h.ExtensionTable, &h.NameTable, &h.SizeTable, &h.FifthTable}
	for _, p := range ptrs {
		if *p, err = c.ReadU32(); err != nil {
			return h, fmt.Errorf("read table pointer: %w", err)
		}
	}

	return h, nil
}

// DecodeFile reads the archive at path and decodes it.
func DecodeFile(path string, opts ReaderOptions) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read DAT: %w", err)
	}

	return Decode(data, opts)
}

// Decode parses the archive tables and copies every payload.
func Decode(data []byte, opts ReaderOptions) (*Archive, error) {
	a, c, err := decodeTables(data, opts)
	if err != nil {
		return nil, err
	}

	for i := range a.Entries {
		e := &a.Entries[i]
		if err := seekTable(c, uint64(e.Offset), "payload of "+e.Name); err != nil {
			return nil, err
		}

		payload, err := c.ReadBytes(int(e.Size))
		if err != nil {
			return nil, fmt.Errorf("read payload of %q: %w", e.Name, err)
		}
		e.Payload = payload
	}

	return a, nil
}

// ListEntries parses tables without copying payloads; payload bounds are still checked.
func ListEntries(data []byte, opts ReaderOptions) ([]EntryInfo, error) {
	a, _, err := decodeTables(data, opts)
	if err != nil {
		return nil, err
	}

	for i := range a.Entries {
		e := &a.Entries[i].EntryInfo
		if end := uint64(e.Offset) + uint64(e.Size); end > uint64(len(data)) {
			return nil, fmt.Errorf("%w: payload of %q ends at 0x%x past 0x%x", ErrTruncatedInput, e.Name, end, len(data))
		}
	}

	return a.Infos(), nil
}

// decodeTables reads header, the four parallel tables, and the fifth table.
func decodeTables(data []byte, opts ReaderOptions) (*Archive, *Cursor, error) {
	opts.applyDefaults()

	if _, err := ParseByteOrder(string(opts.ByteOrder)); err != nil {
		return nil, nil, err
	}

	c := NewCursor(data, opts.ByteOrder)
	h, err := readHeader(c)
	if err != nil {
		return nil, nil, err
	}

	variant, err := selectFormat(opts.Format, h.FifthTable)
	if err != nil {
		return nil, nil, err
	}

	// Each table needs at least 4 bytes per entry; reject impossible counts before allocating.
	if uint64(h.FileCount)*4 > uint64(len(data)) {
		return nil, nil, fmt.Errorf("%w: file count %d exceeds archive size %d", ErrTruncatedInput, h.FileCount, len(data))
	}

	count := int(h.FileCount)
	a := &Archive{
		Format:    variant.format(),
		ByteOrder: opts.ByteOrder,
		Entries:   make([]Entry, count),
	}

	if err := seekTable(c, uint64(h.DataOffsetTable), "data offset"); err != nil {
		return nil, nil, err
	}
	for i := range a.Entries {
		if a.Entries[i].Offset, err = c.ReadU32(); err != nil {
			return nil, nil, fmt.Errorf("read data offset %d: %w", i, err)
		}
	}

	if err := seekTable(c, uint64(h.ExtensionTable), "extension"); err != nil {
		return nil, nil, err
	}
	for i := range a.Entries {
		if a.Entries[i].Extension, err = c.ReadFixedString(extensionWidth); err != nil {
			return nil, nil, fmt.Errorf("read extension %d: %w", i, err)
		}
	}

	if err := seekTable(c, uint64(h.NameTable), "filename"); err != nil {
		return nil, nil, err
	}
	width, err := c.ReadI32()
	if err != nil {
		return nil, nil, fmt.Errorf("read filename width: %w", err)
	}
	if width < 0 {
		return nil, nil, fmt.Errorf("%w: negative filename width %d", ErrInvalidTable, width)
	}
	a.NameWidth = uint32(width)
	for i := range a.Entries {
		if a.Entries[i].Name, err = c.ReadCString(int(width)); err != nil {
			return nil, nil, fmt.Errorf("read filename %d: %w", i, err)
		}
	}

	if err := seekTable(c, uint64(h.SizeTable), "size"); err != nil {
		return nil, nil, err
	}
	for i := range a.Entries {
		if a.Entries[i].Size, err = c.ReadU32(); err != nil {
			return nil, nil, fmt.Errorf("read size of %q: %w", a.Entries[i].Name, err)
		}
	}

	if err := variant.decodeFifth(c, h.FifthTable, a); err != nil {
		return nil, nil, err
	}

	return a, c, nil
}
