// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package chain

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/luxfi/pop/pkg/contract"
)

// returnFlagRevert is bit 0 of ExecReturnValue.flags.
const returnFlagRevert uint32 = 1

var errTruncatedResult = errors.New("unexpected end of runtime api result")

// weightArg is sp_weights::Weight, both fields compact.
type weightArg struct {
	RefTime   types.UCompact
	ProofSize types.UCompact
}

func newWeightArg(w contract.Weight) weightArg {
	return weightArg{
		RefTime:   types.NewUCompactFromUInt(w.RefTime),
		ProofSize: types.NewUCompactFromUInt(w.ProofSize),
	}
}

// none encodes Option::None for any payload type.
type none struct{}

func (none) Encode(e scale.Encoder) error {
	return e.PushByte(0)
}

// codeArg is pallet_contracts::Code: Upload(Vec<u8>) or Existing(Hash).
type codeArg struct {
	upload   []byte
	existing *[32]byte
}

func (c codeArg) Encode(e scale.Encoder) error {
	if c.existing != nil {
		if err := e.PushByte(1); err != nil {
			return err
		}
		return e.Encode(types.NewHash(c.existing[:]))
	}
	if err := e.PushByte(0); err != nil {
		return err
	}
	return e.Encode(types.NewBytes(c.upload))
}

func newCodeArg(req *contract.InstantiateRequest, reuse bool) codeArg {
	if reuse {
		hash := req.CodeHash()
		return codeArg{existing: &hash}
	}
	return codeArg{upload: req.Code()}
}

// encodeDryRunArgs encodes the ContractsApi_instantiate parameters with
// neither a gas limit nor a storage deposit limit.
func encodeDryRunArgs(req *contract.InstantiateRequest, reuse bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := scale.NewEncoder(&buf)
	origin := req.Signer().AccountID()
	for _, v := range []any{
		origin,
		types.NewU128(*req.Value()),
		none{},
		none{},
		newCodeArg(req, reuse),
		types.NewBytes(req.CallData()),
		types.NewBytes(req.Salt()),
	} {
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode dry run arguments: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// dispatchError is the subset of sp_runtime::DispatchError worth naming.
type dispatchError struct {
	variant     byte
	moduleIndex byte
	moduleError [4]byte
	detail      byte
}

var dispatchErrorNames = []string{
	"Other", "CannotLookup", "BadOrigin", "Module", "ConsumerRemaining",
	"NoProviders", "TooManyConsumers", "Token", "Arithmetic", "Transactional",
	"Exhausted", "Corruption", "Unavailable", "RootNotAllowed",
}

func (d dispatchError) String() string {
	name := fmt.Sprintf("DispatchError(%d)", d.variant)
	if int(d.variant) < len(dispatchErrorNames) {
		name = dispatchErrorNames[d.variant]
	}
	switch d.variant {
	case 3:
		return fmt.Sprintf("Module { index: %d, error: %x }", d.moduleIndex, d.moduleError)
	case 7, 8, 9:
		return fmt.Sprintf("%s(%d)", name, d.detail)
	default:
		return name
	}
}

func decodeDispatchError(dec *scale.Decoder) (dispatchError, error) {
	var d dispatchError
	variant, err := dec.ReadOneByte()
	if err != nil {
		return d, err
	}
	d.variant = variant
	switch variant {
	case 3:
		if d.moduleIndex, err = dec.ReadOneByte(); err != nil {
			return d, err
		}
		err = dec.Read(d.moduleError[:])
	case 7, 8, 9:
		d.detail, err = dec.ReadOneByte()
	}
	return d, err
}

// instantiateResult is ContractResult<Result<InstantiateReturnValue, DispatchError>>.
// The trailing events field of newer runtimes is ignored.
type instantiateResult struct {
	gasConsumed    contract.Weight
	gasRequired    contract.Weight
	storageDeposit *big.Int
	debugMessage   string

	ok       bool
	flags    uint32
	data     []byte
	account  [32]byte
	dispatch dispatchError
}

func (r instantiateResult) reverted() bool {
	return r.ok && r.flags&returnFlagRevert != 0
}

func (r instantiateResult) estimate() contract.DryRunEstimate {
	return contract.DryRunEstimate{
		GasConsumed:    r.gasConsumed,
		GasRequired:    r.gasRequired,
		StorageDeposit: new(big.Int).Set(r.storageDeposit),
		DebugMessage:   r.debugMessage,
	}
}

func decodeWeight(dec *scale.Decoder) (contract.Weight, error) {
	refTime, err := dec.DecodeUintCompact()
	if err != nil {
		return contract.Weight{}, err
	}
	proofSize, err := dec.DecodeUintCompact()
	if err != nil {
		return contract.Weight{}, err
	}
	if !refTime.IsUint64() || !proofSize.IsUint64() {
		return contract.Weight{}, fmt.Errorf("weight out of range: %s, %s", refTime, proofSize)
	}
	return contract.Weight{RefTime: refTime.Uint64(), ProofSize: proofSize.Uint64()}, nil
}

func decodeInstantiateResult(bs []byte) (instantiateResult, error) {
	var r instantiateResult
	dec := scale.NewDecoder(bytes.NewReader(bs))
	wrap := func(field string, err error) error {
		return fmt.Errorf("failed to decode dry run %s: %w", field, err)
	}

	var err error
	if r.gasConsumed, err = decodeWeight(dec); err != nil {
		return r, wrap("gas consumed", err)
	}
	if r.gasRequired, err = decodeWeight(dec); err != nil {
		return r, wrap("gas required", err)
	}
	depositKind, err := dec.ReadOneByte()
	if err != nil {
		return r, wrap("storage deposit", err)
	}
	var deposit types.U128
	if err := dec.Decode(&deposit); err != nil {
		return r, wrap("storage deposit", err)
	}
	r.storageDeposit = new(big.Int).Set(deposit.Int)
	switch depositKind {
	case 0:
		r.storageDeposit.Neg(r.storageDeposit)
	case 1:
	default:
		return r, wrap("storage deposit", fmt.Errorf("unknown variant %d", depositKind))
	}
	var debug types.Bytes
	if err := dec.Decode(&debug); err != nil {
		return r, wrap("debug message", err)
	}
	r.debugMessage = string(debug)

	resultKind, err := dec.ReadOneByte()
	if err != nil {
		return r, wrap("result", errTruncatedResult)
	}
	switch resultKind {
	case 0:
		r.ok = true
		var flags types.U32
		if err := dec.Decode(&flags); err != nil {
			return r, wrap("return flags", err)
		}
		r.flags = uint32(flags)
		var data types.Bytes
		if err := dec.Decode(&data); err != nil {
			return r, wrap("return data", err)
		}
		r.data = data
		if err := dec.Read(r.account[:]); err != nil {
			return r, wrap("account id", err)
		}
	case 1:
		if r.dispatch, err = decodeDispatchError(dec); err != nil {
			return r, wrap("dispatch error", err)
		}
	default:
		return r, wrap("result", fmt.Errorf("unknown variant %d", resultKind))
	}
	return r, nil
}
