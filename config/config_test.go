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

package config_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/ink-go/storage2/config"
	"github.com/ink-go/storage2/hash"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := config.Load(fs, "/etc/inkstore.toml")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := config.Config{Hasher: config.HasherKeccak256, SmallVecCapacity: 8, BTreeDefragPerTxn: 4}
	require.NoError(t, config.Save(fs, "/etc/inkstore.toml", cfg))

	got, err := config.Load(fs, "/etc/inkstore.toml")
	require.NoError(t, err)
	require.Equal(t, cfg, got)
	require.Equal(t, hash.Keccak256, got.Resolve())
}

func TestInvalidHasherNameRejected(t *testing.T) {
	cfg := config.Config{Hasher: "md5"}
	require.False(t, cfg.Valid())
}
