// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

/*
Package dat provides decode, encode, unpack, and repack operations for DAT
asset archives: a "DAT\x00" tagged container whose header points at four
parallel tables (data offsets, 4-byte extensions, fixed-width filenames,
sizes) and a fifth slot that is reserved in the legacy format and points at a
metadata table (per-entry index and hash plus an opaque auxiliary index block)
in the hashed format.

Layout rules (summary):
  - header is 0x20 bytes; the data-offset table always starts at 0x20;
  - extension, filename, and size tables follow in that order;
  - the filename table starts with its record width (longest name + 1 by default);
  - the hashed metadata table is 4-byte aligned;
  - every payload starts and ends on a 16-byte boundary;
  - console archives use big-endian integers everywhere.

# Decoding

	a, err := dat.DecodeFile("core.dat", dat.ReaderOptions{})
	if err != nil {
	    return err
	}
	for _, e := range a.Entries {
	    _ = e.Payload
	}

Metadata-only listing:

	entries, err := dat.ListEntries(data, dat.ReaderOptions{ByteOrder: dat.ByteOrderBig})

# Unpacking

UnpackFile writes loose files and, for hashed archives, the sidecar manifest
into "<archive>.unpack":

	a, dir, err := dat.UnpackFile(ctx, "core.dat", dat.UnpackOptions{})

# Repacking

PackDir reads "<archive>.unpack" and writes "<archive>". The format follows
the manifest presence unless set explicitly:

	res, out, err := dat.PackDir(ctx, "core.dat.unpack", dat.PackOptions{
	    Ignore:    dat.IgnoreRules("*.bak", "thumbs.db"),
	    Overwrite: true,
	})
	_ = res.Entries

Encode works on an in-memory Archive. Encode(Decode(x)) reproduces x byte for
byte for archives laid out by this package.
*/
package dat
