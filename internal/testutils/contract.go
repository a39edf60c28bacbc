// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luxfi/pop/pkg/constants"
	"github.com/stretchr/testify/require"
)

// FlipperWasm is the smallest valid wasm module: magic plus version.
const FlipperWasm = "0x0061736d01000000"

const flipperManifest = `[package]
name = "flipper"
version = "0.1.0"
edition = "2021"

[dependencies]
ink = { version = "5.0.0", default-features = false }

[lib]
path = "lib.rs"
`

// FlipperBundle is the metadata of the ink! flipper example, trimmed to
// what deployment reads.
const FlipperBundle = `{
  "source": {
    "hash": "0x9dc4e7e2ec7a3d0c5d9d1b1ab6a0bfc2f2a1e2a5e0f8b3b0b65c4c0f2a0c4e11",
    "language": "ink! 5.0.0",
    "compiler": "rustc 1.78.0",
    "wasm": "` + FlipperWasm + `"
  },
  "contract": {"name": "flipper", "version": "0.1.0"},
  "spec": {
    "constructors": [
      {
        "label": "new",
        "selector": "0x9bae9d5e",
        "payable": false,
        "default": false,
        "args": [{"label": "init_value", "type": {"displayName": ["bool"], "type": 0}}],
        "docs": ["Creates a new flipper smart contract initialized with the given value."]
      },
      {
        "label": "default",
        "selector": "0xed4b9d1b",
        "payable": false,
        "default": false,
        "args": [],
        "docs": ["Creates a new flipper smart contract initialized to false."]
      }
    ]
  },
  "types": [
    {"id": 0, "type": {"def": {"primitive": "bool"}}}
  ]
}`

// WriteContractProject lays out a built flipper contract under a temp dir
// and returns the project directory.
func WriteContractProject(t *testing.T) string {
	return WriteContractProjectWithBundle(t, "flipper", FlipperBundle)
}

// WriteContractProjectWithBundle writes a Cargo.toml for name and, when
// bundle is non empty, target/ink/<name>.contract.
func WriteContractProjectWithBundle(t *testing.T, name string, bundle string) string {
	dir := t.TempDir()
	require.NoError(t, WriteContractFiles(dir, name, bundle))
	return dir
}

// WriteContractFiles lays out a contract project in an existing dir.
func WriteContractFiles(dir, name, bundle string) error {
	manifest := flipperManifest
	if name != "flipper" {
		manifest = "[package]\nname = \"" + name + "\"\nversion = \"0.1.0\"\n"
	}
	if err := os.WriteFile(filepath.Join(dir, constants.CargoManifestFileName), []byte(manifest), constants.WriteReadReadPerms); err != nil {
		return err
	}
	if bundle == "" {
		return nil
	}
	target := filepath.Join(dir, filepath.FromSlash(constants.InkTargetDir))
	if err := os.MkdirAll(target, constants.DefaultPerms755); err != nil {
		return err
	}
	artifact := filepath.Join(target, underscored(name)+constants.ContractBundleExt)
	return os.WriteFile(artifact, []byte(bundle), constants.WriteReadReadPerms)
}

func underscored(name string) string {
	out := []byte(name)
	for i, c := range out {
		if c == '-' {
			out[i] = '_'
		}
	}
	return string(out)
}
