// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import "fmt"

// tableFormat handles the fifth header table for one archive variant.
type tableFormat interface {
	// format returns the variant tag.
	format() Format
	// decodeFifth reads the fifth table at ptr into the archive.
	decodeFifth(c *Cursor, ptr uint32, a *Archive) error
	// encodeFifth writes the fifth table at the cursor and returns its pointer (zero when absent).
	encodeFifth(c *Cursor, a *Archive) (uint32, error)
}

// legacyFormat keeps the fifth slot reserved.
type legacyFormat struct{}

// hashedFormat stores unk1, the auxiliary index block, hashes, and indices.
type hashedFormat struct{}

// selectFormat resolves the variant used for one operation.
func selectFormat(f Format, fifthPtr uint32) (tableFormat, error) {
	switch f {
	case FormatAuto:
		if fifthPtr != 0 {
			return hashedFormat{}, nil
		}

		return legacyFormat{}, nil
	case FormatLegacy:
		return legacyFormat{}, nil
	case FormatHashed:
		return hashedFormat{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

func (legacyFormat) format() Format { return FormatLegacy }

func (legacyFormat) decodeFifth(*Cursor, uint32, *Archive) error { return nil }

func (legacyFormat) encodeFifth(*Cursor, *Archive) (uint32, error) { return 0, nil }

func (hashedFormat) format() Format { return FormatHashed }

// decodeFifth reads the metadata table. Relative offsets are based at ptr.
func (hashedFormat) decodeFifth(c *Cursor, ptr uint32, a *Archive) error {
	if err := seekTable(c, uint64(ptr), "metadata"); err != nil {
		return err
	}

	var rel [4]int32
	for i := range rel {
		v, err := c.ReadI32()
		if err != nil {
			return fmt.Errorf("read metadata header: %w", err)
		}
		rel[i] = v
	}

	unk1, auxRel, hashRel, indexRel := rel[0], rel[1], rel[2], rel[3]
	if auxRel < 0 || hashRel < auxRel || indexRel < 0 {
		return fmt.Errorf(
			"%w: metadata offsets aux=0x%x hash=0x%x index=0x%x",
			ErrInvalidTable, auxRel, hashRel, indexRel,
		)
	}

	span := hashRel - auxRel
	if span%2 != 0 {
		return fmt.Errorf("%w: auxiliary index block spans odd %d bytes", ErrInvalidTable, span)
	}

	a.Unk1 = unk1
	count := len(a.Entries)

	if err := seekTable(c, uint64(ptr)+uint64(auxRel), "auxiliary index"); err != nil {
		return err
	}

	a.UnknownIndices = make([]int16, span/2)
	for i := range a.UnknownIndices {
		v, err := c.ReadI16()
		if err != nil {
			return fmt.Errorf("read auxiliary index %d: %w", i, err)
		}
		a.UnknownIndices[i] = v
	}

	if err := seekTable(c, uint64(ptr)+uint64(indexRel), "index"); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		v, err := c.ReadI16()
		if err != nil {
			return fmt.Errorf("read index of %q: %w", a.Entries[i].Name, err)
		}
		a.Entries[i].Index = v
	}

	if err := seekTable(c, uint64(ptr)+uint64(hashRel), "hash"); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		v, err := c.ReadU32()
		if err != nil {
			return fmt.Errorf("read hash of %q: %w", a.Entries[i].Name, err)
		}
		a.Entries[i].Hash = v
	}

	return nil
}

// encodeFifth writes the metadata table after 4-byte alignment and leaves
// the cursor at the end of the buffer.
func (hashedFormat) encodeFifth(c *Cursor, a *Archive) (uint32, error) {
	c.Align(metadataAlignment)
	start := c.Pos()

	c.WriteI32(a.Unk1)
	c.WriteI32(metadataHeader)
	c.WriteU32(0) // hash block, patched below
	c.WriteU32(0) // index block, patched below

	for _, v := range a.UnknownIndices {
		c.WriteI16(v)
	}

	hashRel := c.Pos() - start
	for i := range a.Entries {
		c.WriteU32(a.Entries[i].Hash)
	}

	indexRel := c.Pos() - start
	for i := range a.Entries {
		c.WriteI16(a.Entries[i].Index)
	}

	if err := c.PatchU32(start+8, uint32(hashRel)); err != nil { //nolint:gosec // bounded by buffer size
		return 0, err
	}
	if err := c.PatchU32(start+12, uint32(indexRel)); err != nil { //nolint:gosec // bounded by buffer size
		return 0, err
	}

	if err := c.Seek(c.Len()); err != nil {
		return 0, err
	}

	return uint32(start), nil //nolint:gosec // bounded by checkArchiveSize
}

// seekTable moves the cursor to a table pointer that must lie inside the buffer.
func seekTable(c *Cursor, ptr uint64, table string) error {
	if ptr > uint64(c.Len()) {
		return fmt.Errorf("%w: %s table pointer 0x%x past end 0x%x", ErrTruncatedInput, table, ptr, c.Len())
	}

	return c.Seek(int(ptr))
}
