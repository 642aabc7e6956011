// Copyright 2024 The ink-storage2 Authors
// This file is part of ink-storage2.
//
// ink-storage2 is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ink-storage2 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with ink-storage2. If not, see <http://www.gnu.org/licenses/>.

// Package config loads the demo harness's node-style configuration file:
// which hasher a fresh store should default to, the SmallVec capacity,
// and the defrag batch size a deployment wants baked in. It is not
// consulted by the storage engine itself (that core takes every
// parameter as an explicit argument), only by cmd/inkstore-demo.
package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/ink-go/storage2/hash"
)

// Hasher names one of the four fixed digest functions a HashMap-backed
// collection may be configured to use.
type Hasher string

const (
	HasherBlake2x256 Hasher = "blake2-256"
	HasherBlake2x128 Hasher = "blake2-128"
	HasherSha2x256   Hasher = "sha2-256"
	HasherKeccak256  Hasher = "keccak-256"
)

// Config is the demo harness's deployment-time configuration.
type Config struct {
	Hasher            Hasher `toml:"hasher"`
	SmallVecCapacity  uint32 `toml:"small_vec_capacity"`
	BTreeDefragPerTxn uint32 `toml:"btree_defrag_per_txn"`
}

// Default returns the configuration the demo falls back to when no
// file is present.
func Default() Config {
	return Config{
		Hasher:            HasherBlake2x256,
		SmallVecCapacity:  16,
		BTreeDefragPerTxn: 32,
	}
}

// Load reads and parses a TOML configuration file from fs at path,
// overlaying it onto Default(). A missing file is not an error: Load
// returns the default configuration unchanged, matching the source's
// node binary convention of "absent config means defaults".
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return cfg, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if !exists {
		return cfg, nil
	}

	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save serializes cfg to fs at path in TOML form, creating parent
// directories as needed.
func Save(fs afero.Fs, path string, cfg Config) error {
	raw, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := afero.WriteFile(fs, path, raw, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Valid reports whether cfg names one of the four fixed hashers.
func (c Config) Valid() bool {
	switch c.Hasher {
	case HasherBlake2x256, HasherBlake2x128, HasherSha2x256, HasherKeccak256:
		return true
	default:
		return false
	}
}

// Resolve maps the configured hasher name to its hash.Hasher
// implementation, falling back to Blake2x256 for an unrecognized name.
func (c Config) Resolve() hash.Hasher {
	switch c.Hasher {
	case HasherBlake2x128:
		return hash.Blake2x128
	case HasherSha2x256:
		return hash.Sha2x256
	case HasherKeccak256:
		return hash.Keccak256
	default:
		return hash.Blake2x256
	}
}
