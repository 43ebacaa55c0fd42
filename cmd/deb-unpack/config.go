package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"go.yaml.in/yaml/v3"

	"github.com/etnz/deb-unpack/manifest"
)

const defaultConfigPath = "deb-unpack.yaml"

// Config is a business object holding the command's settings.
type Config struct {
	// WorkDir, if set, is used instead of a temporary directory.
	WorkDir   string
	Keep      bool
	Format    manifest.Format
	Template  string
	SafePaths bool
	Debug     bool
}

// loadConfig merges the config file with the command line. Flags set on the
// command line win over the file; the file wins over flag defaults. A
// missing file is only an error when --config was given explicitly.
func loadConfig(flags *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	var format string
	var err error
	if cfg.WorkDir, err = flags.GetString("work-dir"); err != nil {
		return nil, err
	}
	if cfg.Keep, err = flags.GetBool("keep"); err != nil {
		return nil, err
	}
	if format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.Template, err = flags.GetString("template"); err != nil {
		return nil, err
	}
	if cfg.SafePaths, err = flags.GetBool("safe-paths"); err != nil {
		return nil, err
	}
	if cfg.Debug, err = flags.GetBool("debug"); err != nil {
		return nil, err
	}

	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	dto, err := decodeConfig(path)
	switch {
	case err == nil:
		if dto.WorkDir != nil && !flags.Changed("work-dir") {
			cfg.WorkDir = *dto.WorkDir
		}
		if dto.Keep != nil && !flags.Changed("keep") {
			cfg.Keep = *dto.Keep
		}
		if dto.Format != nil && !flags.Changed("format") {
			format = *dto.Format
		}
		if dto.Template != nil && !flags.Changed("template") {
			cfg.Template = *dto.Template
		}
		if dto.SafePaths != nil && !flags.Changed("safe-paths") {
			cfg.SafePaths = *dto.SafePaths
		}
		if dto.Debug != nil && !flags.Changed("debug") {
			cfg.Debug = *dto.Debug
		}
	case os.IsNotExist(err) && !flags.Changed("config"):
		// No config file at the default location.
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if cfg.Format, err = manifest.ParseFormat(format); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig is the on-disk shape of the config file. Nil fields are unset.
type fileConfig struct {
	WorkDir   *string `json:"work_dir" yaml:"work_dir"`
	Keep      *bool   `json:"keep" yaml:"keep"`
	Format    *string `json:"format" yaml:"format"`
	Template  *string `json:"template" yaml:"template"`
	SafePaths *bool   `json:"safe_paths" yaml:"safe_paths"`
	Debug     *bool   `json:"debug" yaml:"debug"`
}

func decodeConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var dto fileConfig
	if err := unmarshal(path, data, &dto); err != nil {
		return nil, err
	}
	return &dto, nil
}

// unmarshal decodes data as YAML or JSON depending on the extension of
// path, rejecting unknown fields.
func unmarshal(path string, data []byte, v interface{}) error {
	ext := strings.ToLower(filepath.Ext(path))
	r := bytes.NewReader(data)
	if ext == ".yaml" || ext == ".yml" {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		return dec.Decode(v)
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
