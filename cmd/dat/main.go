// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

// Command dat unpacks and repacks DAT asset archives.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/woozymasta/dat"
	"github.com/woozymasta/dat/internal/config"
)

// app carries resolved configuration and I/O for one invocation.
type app struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	// interactive reports whether stdin can answer prompts.
	interactive func() bool

	cfgFile        string
	format         string
	logLevel       string
	logFormat      string
	ignore         []string
	nameWidth      uint32
	console        bool
	strictManifest bool
	assumeYes      bool
	noProgress     bool
	skipManifest   bool
}

func main() {
	a := &app{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		interactive: func() bool { return isTerminal(os.Stdin) },
	}

	if err := a.rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootCmd builds the command tree bound to a.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dat <archive|directory>",
		Short: "DAT archive (un)packer",
		Long: `dat unpacks DAT asset archives into loose files and repacks them.

Given a file, dat unpacks it into "<archive>.unpack/". Given a directory, dat
repacks it into the directory name with ".unpack" stripped. Hashed archives
keep per-file index and hash metadata in ` + dat.ManifestFileName + `.`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}

			fi, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			if fi.IsDir() {
				return a.runRepack(cmd, args[0])
			}

			return a.runUnpack(cmd, args[0])
		},
	}

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is dat.yaml in home or pwd)")
	flags.BoolVarP(&a.console, "console", "c", false, "big-endian byte order for PS3/X360 archives")
	flags.StringVar(&a.format, "format", "", "archive format (auto, legacy, hashed)")
	flags.StringSliceVar(&a.ignore, "ignore", nil, "glob patterns of loose files to skip on repack")
	flags.Uint32Var(&a.nameWidth, "name-width", 0, "fixed filename record width on repack (0 keeps manifest or derives)")
	flags.BoolVar(&a.strictManifest, "strict-manifest", false, "fail on loose files missing from the manifest")
	flags.BoolVarP(&a.assumeYes, "yes", "y", false, "overwrite existing archives without asking")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	flags.BoolVar(&a.noProgress, "no-progress", false, "disable progress bar")

	root.AddCommand(a.unpackCmd(), a.repackCmd(), a.listCmd())
	return root
}

// setup loads config, applies changed flags, and installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("console") {
		cfg.Console = a.console
	}
	if flags.Changed("format") {
		cfg.Format = a.format
	}
	if flags.Changed("ignore") {
		cfg.Ignore = a.ignore
	}
	if flags.Changed("name-width") {
		cfg.NameWidth = a.nameWidth
	}
	if flags.Changed("strict-manifest") {
		cfg.StrictManifest = a.strictManifest
	}
	if flags.Changed("yes") {
		cfg.AssumeYes = a.assumeYes
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if flags.Changed("no-progress") {
		cfg.NoProgress = a.noProgress
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	slog.SetDefault(newLogger(a.stderr, cfg.LogLevel, cfg.LogFormat))

	slog.Debug("Configuration",
		"format", cfg.Format,
		"console", cfg.Console,
		"ignore", cfg.Ignore,
		"name_width", cfg.NameWidth,
		"strict_manifest", cfg.StrictManifest,
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat)

	return nil
}

// newLogger returns a tint console logger or a JSON logger.
func newLogger(w io.Writer, levelName string, format string) *slog.Logger {
	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:   level,
			NoColor: !isTerminalWriter(w),
		})
	}

	return slog.New(handler)
}

// readerOptions builds decode options from config.
func (a *app) readerOptions() dat.ReaderOptions {
	return dat.ReaderOptions{
		Format:    dat.Format(a.cfg.Format),
		ByteOrder: a.cfg.ByteOrder(),
	}
}
