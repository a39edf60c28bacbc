// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package flags

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/spf13/pflag"
)

// HexBytes is a flag value holding hex encoded bytes, with or without 0x.
type HexBytes []byte

var _ pflag.Value = (*HexBytes)(nil)

func (h *HexBytes) String() string {
	if h == nil || len(*h) == 0 {
		return ""
	}
	return codec.HexEncodeToString(*h)
}

func (h *HexBytes) Set(s string) error {
	b, err := codec.HexDecodeString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid hex %q: %w", s, err)
	}
	*h = b
	return nil
}

func (*HexBytes) Type() string {
	return "hex"
}

// OptionalUint64 is a uint64 flag that remembers whether it was set.
// Underscore digit separators are accepted.
type OptionalUint64 struct {
	value *uint64
}

var _ pflag.Value = (*OptionalUint64)(nil)

func (o *OptionalUint64) String() string {
	if o == nil || o.value == nil {
		return ""
	}
	return strconv.FormatUint(*o.value, 10)
}

func (o *OptionalUint64) Set(s string) error {
	v, err := strconv.ParseUint(strings.ReplaceAll(strings.TrimSpace(s), "_", ""), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid unsigned integer %q", s)
	}
	o.value = &v
	return nil
}

func (*OptionalUint64) Type() string {
	return "uint64"
}

// Get returns nil when the flag was never set.
func (o *OptionalUint64) Get() *uint64 {
	if o == nil || o.value == nil {
		return nil
	}
	v := *o.value
	return &v
}
