// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	headerSize        = 0x20 // fixed DAT header size in bytes
	extensionWidth    = 4    // fixed extension record width
	payloadAlignment  = 0x10 // payload start and end alignment
	metadataAlignment = 4    // metadata table alignment (hashed format)
	metadataHeader    = 0x10 // unk1 + three relative offsets
	maxUint32         = 1<<32 - 1
)

// Header field offsets patched during encode.
const (
	headerOffsetExtTable   = 0x0C
	headerOffsetNameTable  = 0x10
	headerOffsetSizeTable  = 0x14
	headerOffsetFifthTable = 0x18
)

// Magic is the 4-byte archive tag.
var Magic = [4]byte{'D', 'A', 'T', 0}

// Format selects how the fifth header table is interpreted.
type Format string

// Archive format variants.
const (
	// FormatAuto picks FormatHashed when the fifth table pointer is non-zero (decode only).
	FormatAuto Format = "auto"
	// FormatLegacy leaves the fifth table slot reserved and zero.
	FormatLegacy Format = "legacy"
	// FormatHashed stores a metadata table with per-entry indices and hashes.
	FormatHashed Format = "hashed"
)

// ParseFormat converts a user string into Format.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(raw); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatLegacy, FormatHashed:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// ByteOrder selects integer byte order for every multi-byte field.
type ByteOrder string

// Byte orders. Console (PS3/X360) archives are big-endian.
const (
	ByteOrderLittle ByteOrder = "little"
	ByteOrderBig    ByteOrder = "big"
)

// ParseByteOrder converts a user string into ByteOrder.
func ParseByteOrder(raw string) (ByteOrder, error) {
	switch o := ByteOrder(raw); o {
	case "":
		return ByteOrderLittle, nil
	case ByteOrderLittle, ByteOrderBig:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownByteOrder, raw)
	}
}

// binaryOrder maps ByteOrder onto encoding/binary.
func (o ByteOrder) binaryOrder() binary.ByteOrder {
	if o == ByteOrderBig {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// Header is the fixed 0x20-byte archive header.
type Header struct {
	// FileCount is the number of entries in every table.
	FileCount int32 `json:"file_count" yaml:"file_count"`
	// DataOffsetTable is the absolute offset of the data-offset table.
	DataOffsetTable uint32 `json:"data_offset_table" yaml:"data_offset_table"`
	// ExtensionTable is the absolute offset of the extension table.
	ExtensionTable uint32 `json:"extension_table" yaml:"extension_table"`
	// NameTable is the absolute offset of the filename table.
	NameTable uint32 `json:"name_table" yaml:"name_table"`
	// SizeTable is the absolute offset of the size table.
	SizeTable uint32 `json:"size_table" yaml:"size_table"`
	// FifthTable is reserved (legacy) or the metadata table offset (hashed).
	FifthTable uint32 `json:"fifth_table" yaml:"fifth_table"`
}

// EntryInfo describes one packed file without its payload.
type EntryInfo struct {
	// Name is the filename as stored in the name table.
	Name string `json:"name" yaml:"name"`
	// Extension is the 4-byte extension record, stored independently of Name.
	Extension string `json:"extension" yaml:"extension"`
	// Offset is absolute payload offset in the archive.
	Offset uint32 `json:"offset" yaml:"offset"`
	// Size is payload length in bytes.
	Size uint32 `json:"size" yaml:"size"`
	// Index is the per-entry metadata index (hashed format only).
	Index int16 `json:"index,omitempty" yaml:"index,omitempty"`
	// Hash is the per-entry metadata hash (hashed format only).
	Hash uint32 `json:"hash,omitempty" yaml:"hash,omitempty"`
}

// Entry is one packed file with its payload.
type Entry struct {
	EntryInfo
	// Payload holds exactly Size bytes.
	Payload []byte `json:"-" yaml:"-"`
}

// Archive is a decoded DAT archive. Entry order is table order.
type Archive struct {
	// Format is the resolved variant (never FormatAuto after decode).
	Format Format `json:"format" yaml:"format"`
	// ByteOrder is the integer byte order used by the archive.
	ByteOrder ByteOrder `json:"byte_order" yaml:"byte_order"`
	// NameWidth is the fixed filename record width; zero lets Encode pick max name length + 1.
	NameWidth uint32 `json:"name_width,omitempty" yaml:"name_width,omitempty"`
	// Unk1 is the opaque metadata scalar (hashed format only).
	Unk1 int32 `json:"unk1,omitempty" yaml:"unk1,omitempty"`
	// UnknownIndices is the opaque auxiliary index block (hashed format only).
	UnknownIndices []int16 `json:"unknown_indices,omitempty" yaml:"unknown_indices,omitempty"`
	// Entries are packed files in table order.
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Infos returns entry metadata without payloads.
func (a *Archive) Infos() []EntryInfo {
	if a == nil {
		return nil
	}

	out := make([]EntryInfo, len(a.Entries))
	for i := range a.Entries {
		out[i] = a.Entries[i].EntryInfo
	}

	return out
}

// ReaderOptions configures decode behavior.
type ReaderOptions struct {
	// Format forces a variant; FormatAuto (default) detects it from the fifth pointer.
	Format Format `json:"format,omitempty" yaml:"format,omitempty"`
	// ByteOrder selects integer byte order (default little-endian).
	ByteOrder ByteOrder `json:"byte_order,omitempty" yaml:"byte_order,omitempty"`
}

// EncodeOptions configures Encode behavior.
type EncodeOptions struct {
	// OnEntryDone is called after one entry payload is written.
	OnEntryDone func(entry EntryInfo) `json:"-" yaml:"-"`
	// NameWidth overrides the archive name width when non-zero.
	NameWidth uint32 `json:"name_width,omitempty" yaml:"name_width,omitempty"`
}

// EncodeResult contains encode output and statistics.
type EncodeResult struct {
	// Data is the complete archive image.
	Data []byte `json:"-" yaml:"-"`
	// Entries carry final offsets in table order.
	Entries []EntryInfo `json:"entries" yaml:"entries"`
	// Format is the encoded variant.
	Format Format `json:"format" yaml:"format"`
	// NameWidth is the filename record width used.
	NameWidth uint32 `json:"name_width" yaml:"name_width"`
	// TableSize is header plus table bytes before the first payload.
	TableSize int64 `json:"table_size" yaml:"table_size"`
	// DataSize is payload bytes written, excluding padding.
	DataSize int64 `json:"data_size" yaml:"data_size"`
	// Duration is end-to-end encode duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// PackOptions configures loose directory repack.
type PackOptions struct {
	// OnPlanned is called once with the number of entries that will be packed.
	OnPlanned func(total int) `json:"-" yaml:"-"`
	// OnEntryDone is called after one entry payload is written.
	OnEntryDone func(entry EntryInfo) `json:"-" yaml:"-"`
	// Format selects the variant to write. FormatAuto picks hashed when a manifest exists.
	Format Format `json:"format,omitempty" yaml:"format,omitempty"`
	// ByteOrder selects integer byte order (default little-endian).
	ByteOrder ByteOrder `json:"byte_order,omitempty" yaml:"byte_order,omitempty"`
	// Ignore are ordered path rules; matching loose files are not packed.
	Ignore []pathrules.Rule `json:"ignore,omitempty" yaml:"ignore,omitempty"`
	// NameWidth overrides the filename record width when non-zero.
	NameWidth uint32 `json:"name_width,omitempty" yaml:"name_width,omitempty"`
	// StrictManifest fails when a loose file has no manifest record instead of zeroing index/hash.
	StrictManifest bool `json:"strict_manifest,omitempty" yaml:"strict_manifest,omitempty"`
	// Overwrite allows PackDir to replace an existing archive.
	Overwrite bool `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`
}

// UnpackOptions configures Unpack behavior.
type UnpackOptions struct {
	// OnEntryDone is called after one loose file is written.
	OnEntryDone func(entry EntryInfo) `json:"-" yaml:"-"`
	// ReaderOptions are used by UnpackFile to decode the archive.
	ReaderOptions ReaderOptions `json:"reader_options,omitzero" yaml:"reader_options,omitzero"`
	// SkipManifest disables writing the sidecar manifest for hashed archives.
	SkipManifest bool `json:"skip_manifest,omitempty" yaml:"skip_manifest,omitempty"`
}

// applyDefaults fills zero-valued reader options with defaults.
func (opts *ReaderOptions) applyDefaults() {
	if opts.Format == "" {
		opts.Format = FormatAuto
	}

	if opts.ByteOrder == "" {
		opts.ByteOrder = ByteOrderLittle
	}
}

// applyDefaults fills zero-valued pack options with defaults.
func (opts *PackOptions) applyDefaults() {
	if opts.Format == "" {
		opts.Format = FormatAuto
	}

	if opts.ByteOrder == "" {
		opts.ByteOrder = ByteOrderLittle
	}
}

// applyDefaults fills zero-valued unpack options with defaults.
func (opts *UnpackOptions) applyDefaults() {
	opts.ReaderOptions.applyDefaults()
}
