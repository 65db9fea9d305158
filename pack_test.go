// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestPack_LegacyThreeFilesLayout(t *testing.T) {
	t.Parallel()

	store := newMemStore(map[string][]byte{
		"c.dds": bytes.Repeat([]byte{'c'}, 33),
		"a.txt": []byte("hello"),
		"b.bin": bytes.Repeat([]byte{'b'}, 16),
	})

	res, err := Pack(context.Background(), store, PackOptions{})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	if res.Format != FormatLegacy {
		t.Fatalf("Format=%q, want legacy", res.Format)
	}

	names := make([]string, len(res.Entries))
	for i, e := range res.Entries {
		names[i] = e.Name
		if e.Offset%payloadAlignment != 0 {
			t.Fatalf("entry %q offset 0x%x not aligned", e.Name, e.Offset)
		}
		if i > 0 {
			prev := res.Entries[i-1]
			if e.Offset <= prev.Offset {
				t.Fatalf("offsets not increasing: 0x%x then 0x%x", prev.Offset, e.Offset)
			}
			if prev.Offset+prev.Size > e.Offset {
				t.Fatalf("entry %q overlaps %q", e.Name, prev.Name)
			}
		}
	}
	if !slices.Equal(names, []string{"a.txt", "b.bin", "c.dds"}) {
		t.Fatalf("order=%v, want lexical", names)
	}

	a, err := Decode(res.Data, ReaderOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for _, e := range a.Entries {
		if !bytes.Equal(e.Payload, store.files[e.Name]) {
			t.Fatalf("payload of %q differs", e.Name)
		}
	}
}

func TestPack_HashedRoundTripPreservesMetadata(t *testing.T) {
	t.Parallel()

	src := sampleArchive(FormatHashed, ByteOrderBig, 4)
	// Non-lexical table order must survive through the manifest.
	slices.Reverse(src.Entries)

	encoded, err := Encode(src, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(encoded.Data, ReaderOptions{ByteOrder: ByteOrderBig})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	store := newMemStore(nil)
	if err := Unpack(context.Background(), decoded, store, UnpackOptions{}); err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	res, err := Pack(context.Background(), store, PackOptions{ByteOrder: ByteOrderBig})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	if res.Format != FormatHashed {
		t.Fatalf("Format=%q, want hashed", res.Format)
	}
	if !bytes.Equal(res.Data, encoded.Data) {
		t.Fatal("repacked archive differs from source")
	}

	for i, e := range res.Entries {
		want := src.Entries[i]
		if e.Name != want.Name || e.Index != want.Index || e.Hash != want.Hash {
			t.Fatalf("entry %d=%s/%d/0x%x, want %s/%d/0x%x", i, e.Name, e.Index, e.Hash, want.Name, want.Index, want.Hash)
		}
	}
}

func TestPack_HashedExtraFileDefaultsToZero(t *testing.T) {
	t.Parallel()

	store := newMemStore(map[string][]byte{
		"z.txt":   []byte("z"),
		"new.bin": []byte("new"),
		"a.txt":   []byte("a"),
	})
	m := &Manifest{
		Unk1:           9,
		UnknownIndices: []int16{1, 2},
		Files:          ManifestFiles{{Name: "z.txt", Index: 3, Hash: 33}, {Name: "a.txt", Index: 4, Hash: 44}},
	}
	if err := SaveManifest(store, m); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	res, err := Pack(context.Background(), store, PackOptions{})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	want := []EntryInfo{
		{Name: "z.txt", Index: 3, Hash: 33},
		{Name: "a.txt", Index: 4, Hash: 44},
		{Name: "new.bin", Index: 0, Hash: 0},
	}
	if len(res.Entries) != len(want) {
		t.Fatalf("len(Entries)=%d, want %d", len(res.Entries), len(want))
	}
	for i, e := range res.Entries {
		if e.Name != want[i].Name || e.Index != want[i].Index || e.Hash != want[i].Hash {
			t.Fatalf("entry %d=%+v, want %+v", i, e, want[i])
		}
	}

	_, err = Pack(context.Background(), store, PackOptions{StrictManifest: true})
	if !errors.Is(err, ErrMissingManifestEntry) {
		t.Fatalf("strict err=%v, want ErrMissingManifestEntry", err)
	}
}

func TestPack_HashedRequiresManifest(t *testing.T) {
	t.Parallel()

	store := newMemStore(map[string][]byte{"a.txt": []byte("a")})
	_, err := Pack(context.Background(), store, PackOptions{Format: FormatHashed})
	if !errors.Is(err, ErrMissingManifest) {
		t.Fatalf("err=%v, want ErrMissingManifest", err)
	}
}

func TestPack_MissingLooseFile(t *testing.T) {
	t.Parallel()

	store := newMemStore(map[string][]byte{"a.txt": []byte("a")})
	m := &Manifest{Files: ManifestFiles{{Name: "a.txt"}, {Name: "gone.bin", Index: 1}}}
	if err := SaveManifest(store, m); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	_, err := Pack(context.Background(), store, PackOptions{})
	if !errors.Is(err, ErrMissingLooseFile) {
		t.Fatalf("err=%v, want ErrMissingLooseFile", err)
	}
}

func TestPack_NameWidthCheckedBeforeReading(t *testing.T) {
	t.Parallel()

	store := newMemStore(map[string][]byte{
		"a.txt":                    []byte("a"),
		"much_longer_filename.bin": []byte("b"),
	})
	m := &Manifest{NameWidth: 8, Files: ManifestFiles{{Name: "a.txt"}}}
	if err := SaveManifest(store, m); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}
	// Size lookups would fail if reached.
	store.sizes["a.txt"] = maxUint32 + 1

	_, err := Pack(context.Background(), store, PackOptions{})
	if !errors.Is(err, ErrFieldTooLong) {
		t.Fatalf("err=%v, want ErrFieldTooLong", err)
	}

	// An explicit width wide enough for every name takes precedence.
	delete(store.sizes, "a.txt")
	res, err := Pack(context.Background(), store, PackOptions{NameWidth: 64})
	if err != nil {
		t.Fatalf("Pack with width: %v", err)
	}
	if res.NameWidth != 64 {
		t.Fatalf("NameWidth=%d, want 64", res.NameWidth)
	}
}

func TestPack_SizeOverflowAndChangedFile(t *testing.T) {
	t.Parallel()

	store := newMemStore(map[string][]byte{"a.txt": []byte("abc")})
	store.sizes["a.txt"] = maxUint32 + 1
	if _, err := Pack(context.Background(), store, PackOptions{}); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("overflow err=%v, want ErrSizeOverflow", err)
	}

	store.sizes["a.txt"] = 10
	if _, err := Pack(context.Background(), store, PackOptions{}); !errors.Is(err, ErrLooseFileChanged) {
		t.Fatalf("changed err=%v, want ErrLooseFileChanged", err)
	}
}

func TestPack_IgnoreRules(t *testing.T) {
	t.Parallel()

	store := newMemStore(map[string][]byte{
		"a.txt":     []byte("a"),
		"a.txt.bak": []byte("old"),
		"keep.bak":  []byte("k"),
		"Thumbs.db": []byte("t"),
	})

	res, err := Pack(context.Background(), store, PackOptions{
		Ignore: IgnoreRules("*.bak", "!keep.bak", "thumbs.db"),
	})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	names := make([]string, len(res.Entries))
	for i, e := range res.Entries {
		names[i] = e.Name
	}
	if !slices.Equal(names, []string{"a.txt", "keep.bak"}) {
		t.Fatalf("packed %v, want [a.txt keep.bak]", names)
	}
}

func TestPack_PlannedTotalExcludesManifestAndIgnored(t *testing.T) {
	t.Parallel()

	store := newMemStore(map[string][]byte{
		"a.txt":   []byte("a"),
		"b.bin":   []byte("b"),
		"old.bak": []byte("old"),
	})
	if err := SaveManifest(store, &Manifest{Files: ManifestFiles{{Name: "b.bin", Index: 1}}}); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	planned, done := -1, 0
	res, err := Pack(context.Background(), store, PackOptions{
		Ignore:      IgnoreRules("*.bak"),
		OnPlanned:   func(total int) { planned = total },
		OnEntryDone: func(EntryInfo) { done++ },
	})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	if planned != 2 || done != 2 || len(res.Entries) != 2 {
		t.Fatalf("planned=%d done=%d entries=%d, want 2", planned, done, len(res.Entries))
	}
}

func TestPack_ManifestNamesIgnoreRulesDoNotApply(t *testing.T) {
	t.Parallel()

	store := newMemStore(map[string][]byte{"a.bak": []byte("a")})
	if err := SaveManifest(store, &Manifest{Files: ManifestFiles{{Name: "a.bak", Index: 1}}}); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	res, err := Pack(context.Background(), store, PackOptions{Ignore: IgnoreRules("*.bak")})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if len(res.Entries) != 1 || res.Entries[0].Name != "a.bak" {
		t.Fatalf("entries=%+v", res.Entries)
	}
}

func TestPack_RejectsUnsafeManifestName(t *testing.T) {
	t.Parallel()

	store := newMemStore(nil)
	if err := SaveManifest(store, &Manifest{Files: ManifestFiles{{Name: "../escape.txt"}}}); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	if _, err := Pack(context.Background(), store, PackOptions{}); !errors.Is(err, ErrInvalidEntryName) {
		t.Fatalf("err=%v, want ErrInvalidEntryName", err)
	}
}

func TestPack_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newMemStore(map[string][]byte{"a.txt": []byte("a")})
	if _, err := Pack(ctx, store, PackOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}

	if _, err := Pack(context.Background(), nil, PackOptions{}); !errors.Is(err, ErrNilStore) {
		t.Fatalf("nil store err=%v, want ErrNilStore", err)
	}
}

func TestDetectPackFormat(t *testing.T) {
	t.Parallel()

	plain := newMemStore(map[string][]byte{"a.txt": nil})
	withManifest := newMemStore(map[string][]byte{ManifestFileName: []byte("Files: {}\n")})

	tests := []struct {
		name   string
		store  FileStore
		format Format
		want   Format
	}{
		{"auto plain", plain, FormatAuto, FormatLegacy},
		{"empty plain", plain, "", FormatLegacy},
		{"auto manifest", withManifest, FormatAuto, FormatHashed},
		{"forced legacy", withManifest, FormatLegacy, FormatLegacy},
		{"forced hashed", plain, FormatHashed, FormatHashed},
	}

	for _, tt := range tests {
		got, err := DetectPackFormat(tt.store, tt.format)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := DetectPackFormat(plain, "rar"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("unknown format err=%v", err)
	}
}

func TestPackDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "core.dat.unpack")
	store := NewDirStore(dir)
	for name, data := range map[string]string{"a.txt": "hello", "bb.bin": "\x01\x02\x03"} {
		if err := store.WriteFile(name, []byte(data)); err != nil {
			t.Fatal(err)
		}
	}

	res, out, err := PackDir(context.Background(), dir, PackOptions{})
	if err != nil {
		t.Fatalf("PackDir: %v", err)
	}
	if out != filepath.Join(filepath.Dir(dir), "core.dat") {
		t.Fatalf("out=%q", out)
	}

	onDisk, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(onDisk, res.Data) {
		t.Fatal("written archive differs from result")
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	if _, _, err := PackDir(context.Background(), dir, PackOptions{}); !errors.Is(err, ErrArchiveExists) {
		t.Fatalf("second PackDir err=%v, want ErrArchiveExists", err)
	}

	if _, _, err := PackDir(context.Background(), dir, PackOptions{Overwrite: true}); err != nil {
		t.Fatalf("PackDir overwrite: %v", err)
	}
}

func TestPackDir_FailureLeavesArchiveUntouched(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "x.dat.unpack")
	store := NewDirStore(dir)
	if err := SaveManifest(store, &Manifest{NameWidth: 2, Files: ManifestFiles{{Name: "long.txt"}}}); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteFile("long.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}

	out := ArchivePathFor(dir)
	if err := os.WriteFile(out, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := PackDir(context.Background(), dir, PackOptions{Overwrite: true}); !errors.Is(err, ErrFieldTooLong) {
		t.Fatalf("err=%v, want ErrFieldTooLong", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "previous" {
		t.Fatalf("archive overwritten on failure: %q", data)
	}
}
