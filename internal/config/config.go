// valpkg - valmond release packager
// Copyright (C) 2025 The ALR Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/PuerkitoBio/purell"
	ktoml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pelletier/go-toml/v2"
)

const (
	FormatDeb = "deb"
	FormatRPM = "rpm"

	PackagerFPM  = "fpm"
	PackagerNFPM = "nfpm"

	VersionGit    = "git"
	VersionGoGit  = "go-git"
	DefaultConfig = "valpkg.toml"
)

// Config describes one release build. Every component receives the parts
// it needs at construction; nothing reads process-wide state.
type Config struct {
	Name          string              `toml:"name" koanf:"name"`
	Root          string              `toml:"root" koanf:"root"`
	Binary        string              `toml:"binary" koanf:"binary"`
	BuildScript   string              `toml:"buildScript" koanf:"buildScript"`
	BuildParams   []string            `toml:"buildParams" koanf:"buildParams"`
	BuildDir      string              `toml:"buildDir" koanf:"buildDir"`
	PackagingDir  string              `toml:"packagingDir" koanf:"packagingDir"`
	RepoDir       string              `toml:"repoDir" koanf:"repoDir"`
	WorkDir       string              `toml:"workDir" koanf:"workDir"`
	Archs         []string            `toml:"archs" koanf:"archs"`
	Formats       []string            `toml:"formats" koanf:"formats"`
	RepoSubdirs   map[string]string   `toml:"repoSubdirs" koanf:"repoSubdirs"`
	Packager      string              `toml:"packager" koanf:"packager"`
	FPM           string              `toml:"fpm" koanf:"fpm"`
	VersionSource string              `toml:"versionSource" koanf:"versionSource"`
	Epoch         string              `toml:"epoch" koanf:"epoch"`
	Maintainer    string              `toml:"maintainer" koanf:"maintainer"`
	Vendor        string              `toml:"vendor" koanf:"vendor"`
	Homepage      string              `toml:"homepage" koanf:"homepage"`
	Description   string              `toml:"description" koanf:"description"`
	License       string              `toml:"license" koanf:"license"`
	Depends       []string            `toml:"depends" koanf:"depends"`
	FormatDepends map[string][]string `toml:"formatDepends" koanf:"formatDepends"`
	LedgerPath    string              `toml:"ledgerPath" koanf:"ledgerPath"`
	LogLevel      string              `toml:"logLevel" koanf:"logLevel"`
}

// Default returns the settings the valmond release has always been built with.
func Default() *Config {
	return &Config{
		Name:          "valmond",
		Root:          ".",
		Binary:        "bin/valmond",
		BuildScript:   "binary.sh",
		BuildParams:   []string{"-DCMAKE_BUILD_TYPE=Release"},
		BuildDir:      "packaging/build",
		PackagingDir:  "packaging",
		RepoDir:       "packaging/distro",
		WorkDir:       ".",
		Archs:         []string{"amd64"},
		Formats:       []string{FormatRPM, FormatDeb},
		RepoSubdirs:   map[string]string{FormatDeb: "debian", FormatRPM: "centos"},
		Packager:      PackagerFPM,
		FPM:           "fpm",
		VersionSource: VersionGit,
		Epoch:         "1",
		Maintainer:    "XRPL Labs <packages@xrpl-labs.com>",
		Vendor:        "XRPL-Labs",
		Homepage:      "https://xrpl-labs.com/",
		Description:   "XRPL Validator monitoring agent",
		Depends:       []string{"curl"},
		FormatDepends: map[string][]string{FormatDeb: {"libcurl3 | libcurl4"}},
		LogLevel:      "INFO",
	}
}

// SupportedFormats lists the output formats a repository has a place for.
func SupportedFormats() []string {
	return []string{FormatRPM, FormatDeb}
}

// Load reads defaults, then the TOML file at path (if it exists), then
// VALPKG_* environment variables. An empty path means DefaultConfig.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfig
	}

	k := koanf.New(".")
	if err := k.Load(defaultsProvider{}, ktoml.Parser()); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), ktoml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	env := NewEnvConfig()
	if err := env.Load(); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := k.Merge(env.koanf()); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultsProvider feeds Default() to koanf as TOML so that file and
// environment layers merge over it key by key.
type defaultsProvider struct{}

func (defaultsProvider) ReadBytes() ([]byte, error) {
	return toml.Marshal(Default())
}

func (defaultsProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("defaults provider does not support this method")
}

func (c *Config) normalize() error {
	if c.Homepage != "" {
		const flags = purell.FlagLowercaseHost |
			purell.FlagLowercaseScheme |
			purell.FlagRemoveDefaultPort |
			purell.FlagRemoveDuplicateSlashes |
			purell.FlagRemoveFragment
		u, err := purell.NormalizeURLString(c.Homepage, flags)
		if err != nil {
			return fmt.Errorf("invalid homepage %q: %w", c.Homepage, err)
		}
		c.Homepage = u
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New("name must not be empty")
	}
	if len(c.Archs) == 0 {
		return errors.New("at least one architecture is required")
	}
	if err := ValidateFormats(c.Formats); err != nil {
		return err
	}
	for _, f := range SupportedFormats() {
		if c.RepoSubdirs[f] == "" {
			return fmt.Errorf("no repository subdirectory configured for %s", f)
		}
	}
	switch c.Packager {
	case PackagerFPM, PackagerNFPM:
	default:
		return fmt.Errorf("unknown packager %q", c.Packager)
	}
	switch c.VersionSource {
	case VersionGit, VersionGoGit:
	default:
		return fmt.Errorf("unknown version source %q", c.VersionSource)
	}
	return nil
}

// ValidateFormats rejects formats that have no repository subdirectory.
func ValidateFormats(formats []string) error {
	if len(formats) == 0 {
		return errors.New("no output formats requested")
	}
	for _, f := range formats {
		if !slices.Contains(SupportedFormats(), f) {
			return fmt.Errorf("unsupported output format %q", f)
		}
	}
	return nil
}

func (c *Config) ToTOML() (string, error) {
	b, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
