// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package signer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/luxfi/pop/pkg/constants"
	"github.com/luxfi/pop/pkg/contract"
)

var (
	ErrEmptySecretURI = errors.New("empty secret URI")
	ErrInvalidKey     = errors.New("invalid secret URI")
)

// Identity is an sr25519 key pair derived from a secret URI.
type Identity struct {
	pair signature.KeyringPair
}

// FromSecretURI derives an identity from a secret URI such as "//Alice",
// "//Alice///password" or "<mnemonic>//hard/soft". A URI that starts with a
// derivation path uses the development phrase.
func FromSecretURI(uri string, network uint16) (Identity, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Identity{}, ErrEmptySecretURI
	}
	pair, err := signature.KeyringPairFromSecret(uri, network)
	if err != nil {
		// the library error may quote the URI, which is secret
		return Identity{}, fmt.Errorf("%w: cannot derive an sr25519 key pair", ErrInvalidKey)
	}
	if len(pair.PublicKey) != 32 {
		return Identity{}, fmt.Errorf("%w: unexpected public key length %d", ErrInvalidKey, len(pair.PublicKey))
	}
	return Identity{pair: pair}, nil
}

func (i Identity) AccountID() [32]byte {
	var id [32]byte
	copy(id[:], i.pair.PublicKey)
	return id
}

// Address is the SS58 rendering for the network the identity was built for.
func (i Identity) Address() string {
	return i.pair.Address
}

func (i Identity) KeyringPair() signature.KeyringPair {
	return i.pair
}

// Factory builds identities for one SS58 network.
type Factory struct {
	Network uint16
}

func NewFactory() Factory {
	return Factory{Network: constants.DefaultSS58Prefix}
}

func (f Factory) FromSecretURI(uri string) (contract.Signer, error) {
	return FromSecretURI(uri, f.Network)
}
