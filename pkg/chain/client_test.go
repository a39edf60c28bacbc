// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/luxfi/pop/pkg/contract"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

type stubSigner struct {
	id [32]byte
}

func (s stubSigner) AccountID() [32]byte { return s.id }
func (s stubSigner) Address() string     { return contract.Address(s.id).String() }

func mustHex(t *testing.T, s string) []byte {
	bs, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return bs
}

const (
	weightsHex  = "a10f 9101 411f 2103"
	depositHex  = "01 05000000000000000000000000000000"
	accountHex  = "1111111111111111111111111111111111111111111111111111111111111111"
	emptyDebug  = "00"
	successTail = "00 00000000 00 " + accountHex
)

func TestDecodeInstantiateResultSuccess(t *testing.T) {
	r, err := decodeInstantiateResult(mustHex(t, weightsHex+depositHex+emptyDebug+successTail))
	require.NoError(t, err)
	require.True(t, r.ok)
	require.False(t, r.reverted())
	require.Equal(t, contract.Weight{RefTime: 1000, ProofSize: 100}, r.gasConsumed)
	require.Equal(t, contract.Weight{RefTime: 2000, ProofSize: 200}, r.gasRequired)
	require.Equal(t, big.NewInt(5), r.storageDeposit)
	require.Equal(t, accountHex, hex.EncodeToString(r.account[:]))

	estimate := r.estimate()
	require.Equal(t, r.gasRequired, estimate.GasRequired)
	require.Equal(t, "5", estimate.StorageDeposit.String())
}

func TestDecodeInstantiateResultRefundAndEvents(t *testing.T) {
	// refund deposit, debug message "hi", trailing events field
	r, err := decodeInstantiateResult(mustHex(t, weightsHex+"00 07000000000000000000000000000000"+"086869"+successTail+"00"))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(-7), r.storageDeposit)
	require.Equal(t, "hi", r.debugMessage)
}

func TestDecodeInstantiateResultRevert(t *testing.T) {
	r, err := decodeInstantiateResult(mustHex(t, weightsHex+depositHex+emptyDebug+"00 01000000 0401 "+accountHex))
	require.NoError(t, err)
	require.True(t, r.reverted())
	require.Equal(t, []byte{0x01}, r.data)
}

func TestDecodeInstantiateResultModuleError(t *testing.T) {
	r, err := decodeInstantiateResult(mustHex(t, weightsHex+depositHex+emptyDebug+"01 03 04 05000000"))
	require.NoError(t, err)
	require.False(t, r.ok)
	require.Equal(t, "Module { index: 4, error: 05000000 }", r.dispatch.String())
}

func TestDecodeInstantiateResultOtherDispatchErrors(t *testing.T) {
	r, err := decodeInstantiateResult(mustHex(t, weightsHex+depositHex+emptyDebug+"01 02"))
	require.NoError(t, err)
	require.Equal(t, "BadOrigin", r.dispatch.String())

	r, err = decodeInstantiateResult(mustHex(t, weightsHex+depositHex+emptyDebug+"01 07 02"))
	require.NoError(t, err)
	require.Equal(t, "Token(2)", r.dispatch.String())
}

func TestDecodeInstantiateResultTruncated(t *testing.T) {
	_, err := decodeInstantiateResult(mustHex(t, weightsHex+depositHex+emptyDebug))
	require.ErrorIs(t, err, errTruncatedResult)

	_, err = decodeInstantiateResult(mustHex(t, "a10f"))
	require.Error(t, err)
}

func testRequest(t *testing.T) *contract.InstantiateRequest {
	var id [32]byte
	copy(id[:], mustHex(t, accountHex))
	return contract.NewInstantiateRequest(contract.RequestParams{
		ContractName: "flipper",
		Constructor:  "new",
		CallData:     mustHex(t, "9bae9d5e01"),
		Value:        big.NewInt(1),
		WeightLimit:  contract.ToBeEstimated(),
		Code:         mustHex(t, "0061736d01000000"),
		Signer:       stubSigner{id: id},
	})
}

func TestEncodeDryRunArgs(t *testing.T) {
	req := testRequest(t)
	upload, err := encodeDryRunArgs(req, false)
	require.NoError(t, err)
	expected := accountHex +
		"01000000000000000000000000000000" + // value
		"00" + "00" + // no gas limit, no deposit limit
		"00" + "20" + "0061736d01000000" + // Code::Upload
		"14" + "9bae9d5e01" + // data
		"00" // salt
	require.Equal(t, expected, hex.EncodeToString(upload))

	existing, err := encodeDryRunArgs(req, true)
	require.NoError(t, err)
	hash := req.CodeHash()
	require.Contains(t, hex.EncodeToString(existing), "0000"+"01"+hex.EncodeToString(hash[:]))
}

func TestDeriveContractAddress(t *testing.T) {
	var deployer, codeHash [32]byte
	copy(deployer[:], mustHex(t, accountHex))
	codeHash[0] = 0xaa
	input := mustHex(t, "9bae9d5e")

	preimage := append([]byte("contract_addr_v1"), deployer[:]...)
	preimage = append(preimage, codeHash[:]...)
	preimage = append(preimage, 0x10)
	preimage = append(preimage, input...)
	preimage = append(preimage, 0x00)

	address, err := DeriveContractAddress(deployer, codeHash, input, nil)
	require.NoError(t, err)
	require.Equal(t, contract.Address(blake2b.Sum256(preimage)), address)

	salted, err := DeriveContractAddress(deployer, codeHash, input, []byte{1})
	require.NoError(t, err)
	require.NotEqual(t, address, salted)
}

type fakeSubscription struct {
	statuses chan types.ExtrinsicStatus
	errs     chan error
}

func newFakeSubscription(statuses ...types.ExtrinsicStatus) *fakeSubscription {
	s := &fakeSubscription{
		statuses: make(chan types.ExtrinsicStatus, len(statuses)),
		errs:     make(chan error, 1),
	}
	for _, status := range statuses {
		s.statuses <- status
	}
	return s
}

func (s *fakeSubscription) Chan() <-chan types.ExtrinsicStatus { return s.statuses }
func (s *fakeSubscription) Err() <-chan error                  { return s.errs }

func TestAwaitInclusion(t *testing.T) {
	c := New("ws://localhost:9944", nil)
	block := types.NewHash(mustHex(t, accountHex))

	hash, err := c.awaitInclusion(context.Background(), newFakeSubscription(
		types.ExtrinsicStatus{IsReady: true},
		types.ExtrinsicStatus{IsInBlock: true, AsInBlock: block},
	))
	require.NoError(t, err)
	require.Equal(t, block, hash)
}

func TestAwaitInclusionRejected(t *testing.T) {
	c := New("ws://localhost:9944", nil)

	_, err := c.awaitInclusion(context.Background(), newFakeSubscription(types.ExtrinsicStatus{IsInvalid: true}))
	require.ErrorIs(t, err, ErrExtrinsicRejected)
	require.NotErrorIs(t, err, contract.ErrOutcomeUnknown)

	_, err = c.awaitInclusion(context.Background(), newFakeSubscription(types.ExtrinsicStatus{IsDropped: true}))
	require.ErrorIs(t, err, ErrExtrinsicRejected)
}

func TestAwaitInclusionUnknown(t *testing.T) {
	c := New("ws://localhost:9944", nil)

	sub := newFakeSubscription()
	close(sub.statuses)
	_, err := c.awaitInclusion(context.Background(), sub)
	require.ErrorIs(t, err, contract.ErrOutcomeUnknown)

	sub = newFakeSubscription()
	sub.errs <- errors.New("connection reset")
	_, err = c.awaitInclusion(context.Background(), sub)
	require.ErrorIs(t, err, contract.ErrOutcomeUnknown)

	_, err = c.awaitInclusion(context.Background(), newFakeSubscription(types.ExtrinsicStatus{IsRetracted: true}))
	require.ErrorIs(t, err, contract.ErrOutcomeUnknown)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.awaitInclusion(ctx, newFakeSubscription())
	require.ErrorIs(t, err, contract.ErrOutcomeUnknown)
	require.ErrorIs(t, err, context.Canceled)
}

func applyExtrinsic(index uint32) *types.Phase {
	return &types.Phase{IsApplyExtrinsic: true, AsApplyExtrinsic: index}
}

func TestAddressFromEvents(t *testing.T) {
	var account [32]byte
	copy(account[:], mustHex(t, accountHex))
	wrapped := make([]any, len(account))
	for i, b := range account {
		wrapped[i] = types.NewU8(b)
	}
	events := []*event{
		{name: "System.ExtrinsicSuccess", phase: applyExtrinsic(0)},
		{name: instantiatedEvent, phase: applyExtrinsic(0), fields: registry.DecodedFields{
			{Name: "deployer", Value: [32]byte{}},
			{Name: contractEventField, Value: [32]byte{9}},
		}},
		{name: instantiatedEvent, phase: applyExtrinsic(1), fields: registry.DecodedFields{
			{Name: "deployer", Value: [32]byte{}},
			{Name: contractEventField, Value: registry.DecodedFields{{Name: "", Value: wrapped}}},
		}},
	}

	address, err := addressFromEvents(events, 1)
	require.NoError(t, err)
	require.Equal(t, contract.Address(account), address)

	address, err = addressFromEvents(events, 0)
	require.NoError(t, err)
	require.Equal(t, contract.Address{9}, address)
}

func TestAddressFromEventsWithoutInstantiated(t *testing.T) {
	events := []*event{
		{name: "System.ExtrinsicSuccess", phase: applyExtrinsic(2)},
		{name: instantiatedEvent, phase: applyExtrinsic(1), fields: registry.DecodedFields{
			{Name: contractEventField, Value: [32]byte{9}},
		}},
	}

	_, err := addressFromEvents(events, 2)
	require.ErrorIs(t, err, contract.ErrOutcomeUnknown)
	require.ErrorIs(t, err, ErrNoInstantiated)
}

func TestAddressFromEventsUndecodableContract(t *testing.T) {
	events := []*event{
		{name: "System.ExtrinsicSuccess", phase: applyExtrinsic(0)},
		{name: instantiatedEvent, phase: applyExtrinsic(0), fields: registry.DecodedFields{
			{Name: "deployer", Value: [32]byte{}},
			{Name: contractEventField, Value: "5C4hrfjw9DjXZTzV3MwzrrAr9P1MJhSrvWGWqi1eSuyUpnhM"},
		}},
	}

	_, err := addressFromEvents(events, 0)
	require.ErrorIs(t, err, contract.ErrOutcomeUnknown)
	require.ErrorIs(t, err, ErrNoInstantiated)
	require.Contains(t, err.Error(), "cannot decode contract")
}

func TestAddressFromEventsExtrinsicFailed(t *testing.T) {
	events := []*event{
		{name: extrinsicFailedEvent, phase: applyExtrinsic(3), fields: registry.DecodedFields{
			{Name: "dispatch_error", Value: "Module"},
		}},
	}
	_, err := addressFromEvents(events, 3)
	require.ErrorIs(t, err, ErrExtrinsicFailed)
	require.Contains(t, err.Error(), "dispatch_error: Module")
}

func TestDecodeFirst(t *testing.T) {
	var decimals uint8
	require.NoError(t, decodeFirst(json.RawMessage(`12`), &decimals))
	require.Equal(t, uint8(12), decimals)
	require.NoError(t, decodeFirst(json.RawMessage(`[10, 18]`), &decimals))
	require.Equal(t, uint8(10), decimals)

	var symbol string
	require.NoError(t, decodeFirst(json.RawMessage(`["DOT", "USDT"]`), &symbol))
	require.Equal(t, "DOT", symbol)
	require.Error(t, decodeFirst(json.RawMessage(`{}`), &symbol))
}

func TestCallHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	release := make(chan struct{})
	defer close(release)
	_, err := call(ctx, func() (int, error) {
		<-release
		return 1, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	v, err := call(context.Background(), func() (int, error) { return 7, nil })
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestCallReleasingLateResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	proceed := make(chan struct{})
	released := make(chan int, 1)

	go func() {
		<-started
		cancel()
	}()
	_, err := callReleasing(ctx, func() (int, error) {
		close(started)
		<-proceed
		return 42, nil
	}, func(v int) { released <- v })
	require.ErrorIs(t, err, context.Canceled)

	close(proceed)
	select {
	case v := <-released:
		require.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("late result was not released")
	}
}

func TestCallReleasingKeepsTimelyResult(t *testing.T) {
	v, err := callReleasing(context.Background(), func() (int, error) { return 7, nil }, func(int) {
		t.Fatal("a delivered result must not be released")
	})
	require.NoError(t, err)
	require.Equal(t, 7, v)
}
