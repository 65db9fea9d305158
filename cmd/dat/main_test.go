// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/dat"
)

// testApp returns an app wired to buffers with an isolated config environment.
func testApp(t *testing.T, stdin string, interactive bool) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	a := &app{
		stdin:       strings.NewReader(stdin),
		stdout:      &stdout,
		stderr:      &stderr,
		interactive: func() bool { return interactive },
	}

	return a, &stdout, &stderr
}

func run(a *app, args ...string) error {
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func writeArchive(t *testing.T, path string, format dat.Format, order dat.ByteOrder) *dat.Archive {
	t.Helper()

	a := &dat.Archive{
		Format:    format,
		ByteOrder: order,
		Entries: []dat.Entry{
			dat.NewEntry("a.txt", []byte("hello")),
			dat.NewEntry("bb.bin", []byte{1, 2, 3}),
		},
	}
	if format == dat.FormatHashed {
		a.Unk1 = 1
		a.UnknownIndices = []int16{7, 8}
		a.Entries[0].Index, a.Entries[0].Hash = 2, 0x1234
		a.Entries[1].Index, a.Entries[1].Hash = 3, 0x5678
	}

	_, err := dat.EncodeFile(path, a, dat.EncodeOptions{})
	require.NoError(t, err)
	return a
}

func TestList(t *testing.T) {
	a, stdout, _ := testApp(t, "", false)
	path := filepath.Join(t.TempDir(), "core.dat")
	writeArchive(t, path, dat.FormatHashed, dat.ByteOrderBig)

	require.NoError(t, run(a, "list", "--console", "--no-progress", path))

	out := stdout.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "bb.bin")
	assert.Contains(t, out, "0x00001234")
}

func TestList_WrongByteOrder(t *testing.T) {
	a, _, _ := testApp(t, "", false)
	path := filepath.Join(t.TempDir(), "core.dat")
	writeArchive(t, path, dat.FormatLegacy, dat.ByteOrderBig)

	require.Error(t, run(a, "list", path))
}

func TestAutoUnpackThenRepackLegacy(t *testing.T) {
	a, _, _ := testApp(t, "", false)
	path := filepath.Join(t.TempDir(), "core.dat")
	writeArchive(t, path, dat.FormatLegacy, dat.ByteOrderLittle)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, run(a, "--no-progress", path))

	dir := path + dat.UnpackSuffix
	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
	assert.NoFileExists(t, filepath.Join(dir, dat.ManifestFileName))

	// Legacy archives are replaced without asking.
	a, _, _ = testApp(t, "", false)
	require.NoError(t, run(a, "--no-progress", dir))

	repacked, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, repacked)
}

func TestUnpackSkipManifest(t *testing.T) {
	a, _, _ := testApp(t, "", false)
	path := filepath.Join(t.TempDir(), "core.dat")
	writeArchive(t, path, dat.FormatHashed, dat.ByteOrderLittle)

	require.NoError(t, run(a, "unpack", "--skip-manifest", path))
	assert.FileExists(t, filepath.Join(path+dat.UnpackSuffix, "bb.bin"))
	assert.NoFileExists(t, filepath.Join(path+dat.UnpackSuffix, dat.ManifestFileName))
}

func TestRepackHashedOverwritePrompt(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "core.dat")
	writeArchive(t, path, dat.FormatHashed, dat.ByteOrderLittle)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	a, _, _ := testApp(t, "", false)
	require.NoError(t, run(a, "unpack", path))
	dir := path + dat.UnpackSuffix

	t.Run("non-interactive refuses", func(t *testing.T) {
		a, _, _ := testApp(t, "", false)
		require.ErrorIs(t, run(a, "repack", dir), dat.ErrArchiveExists)
	})

	t.Run("answer no", func(t *testing.T) {
		a, _, stderr := testApp(t, "n\n", true)
		require.ErrorIs(t, run(a, "repack", dir), dat.ErrArchiveExists)
		assert.Contains(t, stderr.String(), "overwrite?")
	})

	t.Run("answer yes", func(t *testing.T) {
		a, _, _ := testApp(t, "y\n", true)
		require.NoError(t, run(a, "repack", "--no-progress", dir))

		repacked, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, original, repacked)
	})

	t.Run("assume yes", func(t *testing.T) {
		a, _, _ := testApp(t, "", false)
		require.NoError(t, run(a, "pack", "--yes", dir))
	})
}

func TestRepackStrictManifest(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "core.dat")
	writeArchive(t, path, dat.FormatHashed, dat.ByteOrderLittle)

	a, _, _ := testApp(t, "", false)
	require.NoError(t, run(a, "unpack", path))
	dir := path + dat.UnpackSuffix
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.txt"), []byte("x"), 0o600))

	a, _, _ = testApp(t, "", false)
	require.ErrorIs(t, run(a, "repack", "--yes", "--strict-manifest", dir), dat.ErrMissingManifestEntry)

	a, _, _ = testApp(t, "", false)
	require.NoError(t, run(a, "repack", "--yes", "--ignore", "extra.*", "--strict-manifest", dir))
}

func TestRepackNameWidthTooNarrow(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "loose")
	require.NoError(t, os.Mkdir(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "texture.dds"), []byte("x"), 0o600))

	a, _, _ := testApp(t, "", false)
	require.ErrorIs(t, run(a, "--name-width", "4", dir), dat.ErrFieldTooLong)
	assert.NoFileExists(t, dir+dat.DefaultArchiveExt)
}

func TestInvalidFlags(t *testing.T) {
	a, _, _ := testApp(t, "", false)
	require.Error(t, run(a, "list", "--format", "rar", "x.dat"))

	a, _, _ = testApp(t, "", false)
	require.Error(t, run(a, "list", "--log-level", "loud", "x.dat"))
}

func TestJSONLogging(t *testing.T) {
	a, _, stderr := testApp(t, "", false)
	path := filepath.Join(t.TempDir(), "core.dat")
	writeArchive(t, path, dat.FormatLegacy, dat.ByteOrderLittle)

	require.NoError(t, run(a, "unpack", "--log-format", "json", path))
	assert.Contains(t, stderr.String(), `"msg":"Unpack complete"`)
}

func TestAskYesNo(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes ", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got, err := askYesNo(strings.NewReader(tt.in), &out, "Overwrite?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, "Overwrite? [y/N]: ", out.String())
	}
}
