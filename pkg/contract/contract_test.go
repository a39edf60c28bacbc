// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract_test

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/luxfi/pop/pkg/contract"
	"github.com/stretchr/testify/require"
)

func ptr(v uint64) *uint64 {
	return &v
}

func TestNewWeightLimit(t *testing.T) {
	limit, err := contract.NewWeightLimit(ptr(100_000_000), ptr(131_072))
	require.NoError(t, err)
	weight, ok := limit.Fixed()
	require.True(t, ok)
	require.Equal(t, contract.Weight{RefTime: 100_000_000, ProofSize: 131_072}, weight)

	limit, err = contract.NewWeightLimit(nil, nil)
	require.NoError(t, err)
	_, ok = limit.Fixed()
	require.False(t, ok)

	_, err = contract.NewWeightLimit(ptr(1), nil)
	require.ErrorIs(t, err, contract.ErrPartialWeightLimit)
	require.Contains(t, err.Error(), "proof size")

	_, err = contract.NewWeightLimit(nil, ptr(1))
	require.ErrorIs(t, err, contract.ErrPartialWeightLimit)
	require.Contains(t, err.Error(), "gas limit")
}

func TestWeightString(t *testing.T) {
	require.Equal(t, "Weight(ref_time: 84213000, proof_size: 98304)", contract.Weight{RefTime: 84_213_000, ProofSize: 98_304}.String())
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("prepare: %w", &contract.Error{
		Kind: contract.BalanceResolutionFailed,
		Err:  &contract.Error{Kind: contract.NetworkError, Err: cause},
	})

	require.ErrorIs(t, err, contract.ErrBalanceResolutionFailed)
	require.ErrorIs(t, err, contract.ErrNetwork)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, contract.ErrEstimationFailed)
	require.Equal(t, contract.BalanceResolutionFailed, contract.KindOf(err))
	require.Equal(t, contract.KindUnknown, contract.KindOf(cause))
	require.Equal(t, "balance resolution failed: network error: connection refused", errors.Unwrap(err).Error())
	require.Equal(t, "ErrorKind(42)", contract.ErrorKind(42).String())
}

func TestAddressRendering(t *testing.T) {
	alice, err := contract.ParseAddress("0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	require.NoError(t, err)
	require.Equal(t, "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY", alice.String())
	require.Equal(t, "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d", alice.Hex())

	parsed, err := contract.ParseAddress(alice.String())
	require.NoError(t, err)
	require.Equal(t, alice, parsed)

	// two byte network prefix
	parsed, err = contract.ParseAddress(alice.SS58(1000))
	require.NoError(t, err)
	require.Equal(t, alice, parsed)
	require.NotEqual(t, alice.String(), alice.SS58(1000))
}

func TestParseAddressErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"0x1234",
		"0xzz3593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d",
		"5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQZ",
		"not-base58-0OIl",
	} {
		_, err := contract.ParseAddress(s)
		require.ErrorIs(t, err, contract.ErrInvalidAddress, s)
	}
}

func TestInstantiateRequestIsImmutable(t *testing.T) {
	args := []string{"true"}
	value := big.NewInt(10)
	salt := []byte{1, 2}
	code := []byte{0x00, 0x61, 0x73, 0x6d}
	req := contract.NewInstantiateRequest(contract.RequestParams{
		ContractName: "flipper",
		Constructor:  "new",
		Args:         args,
		Value:        value,
		Salt:         salt,
		Code:         code,
		WeightLimit:  contract.FixedWeight(5, 6),
	})

	args[0] = "false"
	value.SetInt64(0)
	salt[0] = 9
	code[0] = 0xff
	require.Equal(t, []string{"true"}, req.Args())
	require.Equal(t, "10", req.Value().String())
	require.Equal(t, []byte{1, 2}, req.Salt())
	require.Equal(t, contract.CodeHash([]byte{0x00, 0x61, 0x73, 0x6d}), req.CodeHash())

	req.Args()[0] = "mutated"
	req.Value().SetInt64(99)
	require.Equal(t, []string{"true"}, req.Args())
	require.Equal(t, "10", req.Value().String())
	require.False(t, req.Submitted())
	require.Equal(t, "flipper::new(1 args)", req.String())

	weight, ok := req.WeightLimit().Fixed()
	require.True(t, ok)
	require.Equal(t, contract.Weight{RefTime: 5, ProofSize: 6}, weight)
}

func TestInstantiateRequestNilValue(t *testing.T) {
	req := contract.NewInstantiateRequest(contract.RequestParams{ContractName: "flipper"})
	require.Equal(t, "0", req.Value().String())
}
