// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package chain

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/luxfi/pop/pkg/contract"
	"golang.org/x/crypto/blake2b"
)

var contractAddrV1 = [16]byte{'c', 'o', 'n', 't', 'r', 'a', 'c', 't', '_', 'a', 'd', 'd', 'r', '_', 'v', '1'}

// DeriveContractAddress reproduces the pallet's default address generator:
// blake2_256(("contract_addr_v1", deployer, code_hash, input, salt).encode()).
func DeriveContractAddress(deployer, codeHash [32]byte, input, salt []byte) (contract.Address, error) {
	var preimage []byte
	for _, v := range []any{
		contractAddrV1,
		deployer,
		codeHash,
		types.NewBytes(input),
		types.NewBytes(salt),
	} {
		bs, err := codec.Encode(v)
		if err != nil {
			return contract.Address{}, err
		}
		preimage = append(preimage, bs...)
	}
	return contract.Address(blake2b.Sum256(preimage)), nil
}
