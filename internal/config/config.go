// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

// Package config loads CLI settings from file, environment, and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/woozymasta/dat"
)

// EnvPrefix prefixes environment overrides, e.g. DAT_LOG_LEVEL.
const EnvPrefix = "DAT"

// Config holds CLI settings.
type Config struct {
	Format         string   `mapstructure:"format"`
	LogLevel       string   `mapstructure:"log_level"`
	LogFormat      string   `mapstructure:"log_format"`
	Ignore         []string `mapstructure:"ignore"`
	NameWidth      uint32   `mapstructure:"name_width"`
	Console        bool     `mapstructure:"console"`
	StrictManifest bool     `mapstructure:"strict_manifest"`
	AssumeYes      bool     `mapstructure:"assume_yes"`
	NoProgress     bool     `mapstructure:"no_progress"`
}

// Load reads configuration from cfgFile, or dat.yaml in home or pwd when empty.
// A missing default file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("format", string(dat.FormatAuto))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("ignore", []string{})
	v.SetDefault("name_width", 0)
	v.SetDefault("console", false)
	v.SetDefault("strict_manifest", false)
	v.SetDefault("assume_yes", false)
	v.SetDefault("no_progress", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}

		v.AddConfigPath(".")
		v.SetConfigName("dat")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := dat.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}

	return nil
}

// ByteOrder maps the console switch onto archive byte order.
func (c *Config) ByteOrder() dat.ByteOrder {
	if c.Console {
		return dat.ByteOrderBig
	}

	return dat.ByteOrderLittle
}
