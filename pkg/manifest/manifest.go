// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/luxfi/pop/pkg/constants"
	"github.com/spf13/viper"
)

var (
	ErrManifestNotFound = errors.New("Cargo.toml manifest not found")
	ErrBundleNotFound   = errors.New("contract bundle not found, build the contract first")
	ErrNoPackageName    = errors.New("manifest has no package name")
)

// Path is the location of a contract's Cargo.toml.
type Path struct {
	file string
}

// ResolvePath locates the manifest. A non empty dir must contain a
// Cargo.toml, otherwise the current working directory is used.
func ResolvePath(dir string) (Path, error) {
	file := constants.CargoManifestFileName
	if dir != "" {
		file = filepath.Join(dir, constants.CargoManifestFileName)
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return Path{}, fmt.Errorf("%w: %w", ErrManifestNotFound, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Path{}, fmt.Errorf("%w at %s", ErrManifestNotFound, abs)
	}
	if info.IsDir() {
		return Path{}, fmt.Errorf("%w: %s is a directory", ErrManifestNotFound, abs)
	}
	return Path{file: abs}, nil
}

func (p Path) String() string {
	return p.file
}

func (p Path) Dir() string {
	return filepath.Dir(p.file)
}

// ArtifactName is the file stem cargo-contract uses for the bundle: the
// [lib] name if set, otherwise the package name with dashes replaced.
func (p Path) ArtifactName() (string, error) {
	v := viper.New()
	v.SetConfigFile(p.file)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", p.file, err)
	}
	if name := v.GetString("lib.name"); name != "" {
		return name, nil
	}
	name := v.GetString("package.name")
	if name == "" {
		return "", fmt.Errorf("%w: %s", ErrNoPackageName, p.file)
	}
	return strings.ReplaceAll(name, "-", "_"), nil
}

// BundlePath is <manifest dir>/target/ink/<name>.contract.
func (p Path) BundlePath() (string, error) {
	name, err := p.ArtifactName()
	if err != nil {
		return "", err
	}
	return filepath.Join(p.Dir(), filepath.FromSlash(constants.InkTargetDir), name+constants.ContractBundleExt), nil
}

// Resolver resolves manifests and loads their bundles from the filesystem.
type Resolver struct{}

func (Resolver) Resolve(dir string) (Path, error) {
	return ResolvePath(dir)
}

func (Resolver) LoadBundle(p Path) (*Bundle, error) {
	bundlePath, err := p.BundlePath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(bundlePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, bundlePath)
	}
	return LoadBundle(bundlePath)
}
