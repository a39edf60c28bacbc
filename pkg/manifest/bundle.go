// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package manifest

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/luxfi/pop/pkg/constants"
	"golang.org/x/mod/semver"
)

var (
	ErrNoWasm             = errors.New("contract bundle has no wasm code")
	ErrNotInk             = errors.New("contract bundle is not an ink! contract")
	ErrUnsupportedVersion = errors.New("unsupported ink! version")
)

// Bundle is the .contract file produced by cargo-contract: wasm code plus
// the ink! metadata.
type Bundle struct {
	Source   Source      `json:"source"`
	Contract Info        `json:"contract"`
	Spec     Spec        `json:"spec"`
	Types    []TypeEntry `json:"types"`
}

type Source struct {
	Hash     string `json:"hash"`
	Language string `json:"language"`
	Compiler string `json:"compiler"`
	Wasm     string `json:"wasm"`
}

type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Spec struct {
	Constructors []Constructor `json:"constructors"`
}

type Constructor struct {
	Label    string   `json:"label"`
	Selector string   `json:"selector"`
	Args     []Arg    `json:"args"`
	Payable  bool     `json:"payable"`
	Default  bool     `json:"default"`
	Docs     []string `json:"docs"`
}

type Arg struct {
	Label string  `json:"label"`
	Type  TypeRef `json:"type"`
}

type TypeRef struct {
	DisplayName []string `json:"displayName"`
	Type        int      `json:"type"`
}

// TypeEntry is one entry of the scale-info type registry.
type TypeEntry struct {
	ID   int      `json:"id"`
	Type TypeInfo `json:"type"`
}

type TypeInfo struct {
	Path []string `json:"path"`
	Def  TypeDef  `json:"def"`
}

// TypeDef has exactly one non nil member.
type TypeDef struct {
	Primitive string        `json:"primitive,omitempty"`
	Composite *CompositeDef `json:"composite,omitempty"`
	Array     *ArrayDef     `json:"array,omitempty"`
	Sequence  *SequenceDef  `json:"sequence,omitempty"`
	Variant   *VariantDef   `json:"variant,omitempty"`
	Tuple     *[]int        `json:"tuple,omitempty"`
	Compact   *SequenceDef  `json:"compact,omitempty"`
}

type CompositeDef struct {
	Fields []Field `json:"fields"`
}

type ArrayDef struct {
	Len  int `json:"len"`
	Type int `json:"type"`
}

type SequenceDef struct {
	Type int `json:"type"`
}

type VariantDef struct {
	Variants []Variant `json:"variants"`
}

type Field struct {
	Name     string `json:"name,omitempty"`
	Type     int    `json:"type"`
	TypeName string `json:"typeName,omitempty"`
}

type Variant struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
	Index  int     `json:"index"`
}

// LoadBundle reads and checks a .contract file.
func LoadBundle(path string) (*Bundle, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract bundle: %w", err)
	}
	var bundle Bundle
	if err := json.Unmarshal(bs, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse contract bundle %s: %w", path, err)
	}
	if err := bundle.checkLanguage(); err != nil {
		return nil, err
	}
	if strings.TrimPrefix(bundle.Source.Wasm, "0x") == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoWasm, path)
	}
	return &bundle, nil
}

// Code returns the wasm blob.
func (b *Bundle) Code() ([]byte, error) {
	code, err := hex.DecodeString(strings.TrimPrefix(b.Source.Wasm, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid wasm encoding in contract bundle: %w", err)
	}
	if len(code) == 0 {
		return nil, ErrNoWasm
	}
	return code, nil
}

// InkVersion returns the semver of the ink! language, e.g. v4.3.0.
func (b *Bundle) InkVersion() (string, error) {
	lang := strings.TrimSpace(b.Source.Language)
	if !strings.HasPrefix(lang, "ink!") {
		return "", fmt.Errorf("%w: language %q", ErrNotInk, b.Source.Language)
	}
	version := "v" + strings.TrimSpace(strings.TrimPrefix(lang, "ink!"))
	if !semver.IsValid(version) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedVersion, b.Source.Language)
	}
	return version, nil
}

func (b *Bundle) checkLanguage() error {
	version, err := b.InkVersion()
	if err != nil {
		return err
	}
	if semver.Compare(version, constants.MinInkVersion) < 0 {
		return fmt.Errorf("%w: %s, need at least %s", ErrUnsupportedVersion, version, constants.MinInkVersion)
	}
	return nil
}

// FindConstructor looks a constructor up by label.
func (b *Bundle) FindConstructor(label string) (Constructor, bool) {
	for _, c := range b.Spec.Constructors {
		if c.Label == label {
			return c, true
		}
	}
	return Constructor{}, false
}

// ConstructorLabels lists the available constructors, used in error messages.
func (b *Bundle) ConstructorLabels() []string {
	labels := make([]string, 0, len(b.Spec.Constructors))
	for _, c := range b.Spec.Constructors {
		labels = append(labels, c.Label)
	}
	return labels
}
