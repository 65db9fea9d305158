// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/woozymasta/dat"
	"github.com/woozymasta/dat/internal/progress"
)

// unpackCmd builds the unpack subcommand.
func (a *app) unpackCmd() *cobra.Command {
	var skipManifest bool

	cmd := &cobra.Command{
		Use:   "unpack <archive>",
		Short: "Unpack an archive into <archive>.unpack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.skipManifest = skipManifest
			return a.runUnpack(cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&skipManifest, "skip-manifest", false, "do not write "+dat.ManifestFileName+" for hashed archives")
	return cmd
}

// repackCmd builds the repack subcommand.
func (a *app) repackCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "repack <directory>",
		Aliases: []string{"pack"},
		Short:   "Repack a directory into an archive",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRepack(cmd, args[0])
		},
	}
}

// listCmd builds the list subcommand.
func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list <archive>",
		Aliases: []string{"ls"},
		Short:   "List archive entries without extracting",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, args[0])
		},
	}
}

// runUnpack decodes path and writes its entries to the .unpack directory.
func (a *app) runUnpack(cmd *cobra.Command, path string) error {
	archive, err := dat.DecodeFile(path, a.readerOptions())
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	outDir := dat.UnpackDirFor(path)
	slog.Info("Unpacking archive",
		"archive", path,
		"format", archive.Format,
		"entries", len(archive.Entries),
		"output", outDir)

	bar := progress.New("unpack", len(archive.Entries), !a.cfg.NoProgress)
	err = dat.Unpack(cmd.Context(), archive, dat.NewDirStore(outDir), dat.UnpackOptions{
		SkipManifest: a.skipManifest,
		OnEntryDone: func(e dat.EntryInfo) {
			bar.Increment(e.Name)
			slog.Debug("Entry unpacked", "name", e.Name, "size", e.Size, "index", e.Index, "hash", e.Hash)
		},
	})
	bar.Finish()
	if err != nil {
		return err
	}

	slog.Info("Unpack complete", "output", outDir, "entries", len(archive.Entries))
	return nil
}

// runRepack packs dir into the archive path derived from it.
func (a *app) runRepack(cmd *cobra.Command, dir string) error {
	store := dat.NewDirStore(dir)
	format, err := dat.DetectPackFormat(store, dat.Format(a.cfg.Format))
	if err != nil {
		return err
	}

	outPath := dat.ArchivePathFor(dir)
	overwrite, err := a.confirmOverwrite(outPath, format)
	if err != nil {
		return err
	}

	slog.Info("Repacking directory", "dir", dir, "format", format, "output", outPath)

	var bar *progress.Bar
	res, outPath, err := dat.PackDir(cmd.Context(), dir, dat.PackOptions{
		Format:         format,
		ByteOrder:      a.cfg.ByteOrder(),
		Ignore:         dat.IgnoreRules(a.cfg.Ignore...),
		NameWidth:      a.cfg.NameWidth,
		StrictManifest: a.cfg.StrictManifest,
		Overwrite:      overwrite,
		OnPlanned: func(total int) {
			bar = progress.New("repack", total, !a.cfg.NoProgress)
		},
		OnEntryDone: func(e dat.EntryInfo) {
			bar.Increment(e.Name)
			slog.Debug("Entry packed", "name", e.Name, "offset", e.Offset, "size", e.Size)
		},
	})
	bar.Finish()
	if err != nil {
		return err
	}

	slog.Info("Repack complete",
		"output", outPath,
		"entries", len(res.Entries),
		"name_width", res.NameWidth,
		"size", len(res.Data),
		"duration", res.Duration)

	return nil
}

// runList prints one row per entry without extracting payloads.
func (a *app) runList(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	entries, err := dat.ListEntries(data, a.readerOptions())
	if err != nil {
		return fmt.Errorf("list %s: %w", path, err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEXT\tOFFSET\tSIZE\tINDEX\tHASH")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t0x%08x\t%d\t%d\t0x%08x\n", e.Name, e.Extension, e.Offset, e.Size, e.Index, e.Hash)
	}

	return tw.Flush()
}

// confirmOverwrite decides whether an existing output may be replaced.
// Hashed archives ask first; legacy archives are replaced silently.
func (a *app) confirmOverwrite(outPath string, format dat.Format) (bool, error) {
	if _, err := os.Stat(outPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	if format != dat.FormatHashed || a.cfg.AssumeYes {
		return true, nil
	}

	if !a.interactive() {
		return false, fmt.Errorf("%w: %s (use --yes to overwrite)", dat.ErrArchiveExists, outPath)
	}

	ok, err := askYesNo(a.stdin, a.stderr, fmt.Sprintf("%s exists, overwrite?", outPath))
	if err != nil {
		return false, err
	}

	if !ok {
		return false, fmt.Errorf("%w: %s", dat.ErrArchiveExists, outPath)
	}

	return true, nil
}
