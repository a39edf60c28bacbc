// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/pop/pkg/constants"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

var (
	ss58Prefix = []byte("SS58PRE")

	ErrInvalidAddress = errors.New("invalid account address")
)

// Address identifies a deployed contract instance (an AccountId32).
type Address [32]byte

func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// SS58 renders the address with the given network prefix.
func (a Address) SS58(network uint16) string {
	var payload []byte
	if network < 64 {
		payload = append(payload, byte(network))
	} else {
		payload = append(payload,
			byte((network&0b1111_1100)>>2)|0b0100_0000,
			byte(network>>8)|byte((network&0b11)<<6),
		)
	}
	payload = append(payload, a[:]...)
	h, _ := blake2b.New512(nil)
	h.Write(ss58Prefix)
	h.Write(payload)
	checksum := h.Sum(nil)[:2]
	return base58.Encode(append(payload, checksum...))
}

func (a Address) String() string {
	return a.SS58(constants.DefaultSS58Prefix)
}

// CodeHash is the on-chain identifier of a wasm blob.
func CodeHash(code []byte) [32]byte {
	return blake2b.Sum256(code)
}

// ParseAddress accepts a 0x prefixed hex account id or an SS58 address of
// any network.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") {
		bs, err := hex.DecodeString(s[2:])
		if err != nil || len(bs) != len(a) {
			return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		copy(a[:], bs)
		return a, nil
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}
	prefixLen := 1
	if len(raw) > 0 && raw[0]&0b0100_0000 != 0 {
		prefixLen = 2
	}
	if len(raw) != prefixLen+len(a)+2 {
		return a, fmt.Errorf("%w: %q has length %d", ErrInvalidAddress, s, len(raw))
	}
	body, checksum := raw[:len(raw)-2], raw[len(raw)-2:]
	h, _ := blake2b.New512(nil)
	h.Write(ss58Prefix)
	h.Write(body)
	if !bytes.Equal(h.Sum(nil)[:2], checksum) {
		return a, fmt.Errorf("%w: %q has a bad checksum", ErrInvalidAddress, s)
	}
	copy(a[:], body[prefixLen:])
	return a, nil
}
