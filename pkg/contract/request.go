// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"bytes"
	"fmt"
	"math/big"
	"slices"
	"sync/atomic"

	"github.com/luxfi/pop/pkg/balance"
)

// Signer is the identity an instantiation is signed with.
type Signer interface {
	AccountID() [32]byte
	Address() string
}

// RequestParams holds everything bound into an InstantiateRequest.
type RequestParams struct {
	ContractName string
	Constructor  string
	Args         []string
	CallData     []byte
	Value        *big.Int
	Token        balance.TokenMetadata
	WeightLimit  WeightLimit
	Salt         []byte
	Code         []byte
	Signer       Signer
	URL          string
}

// InstantiateRequest is a fully prepared deployment. It is never mutated
// after construction and can be submitted at most once.
type InstantiateRequest struct {
	contractName string
	constructor  string
	args         []string
	callData     []byte
	value        *big.Int
	token        balance.TokenMetadata
	weightLimit  WeightLimit
	salt         []byte
	code         []byte
	codeHash     [32]byte
	signer       Signer
	url          string

	submitted atomic.Bool
}

func NewInstantiateRequest(p RequestParams) *InstantiateRequest {
	value := new(big.Int)
	if p.Value != nil {
		value.Set(p.Value)
	}
	return &InstantiateRequest{
		contractName: p.ContractName,
		constructor:  p.Constructor,
		args:         slices.Clone(p.Args),
		callData:     bytes.Clone(p.CallData),
		value:        value,
		token:        p.Token,
		weightLimit:  p.WeightLimit,
		salt:         bytes.Clone(p.Salt),
		code:         bytes.Clone(p.Code),
		codeHash:     CodeHash(p.Code),
		signer:       p.Signer,
		url:          p.URL,
	}
}

func (r *InstantiateRequest) ContractName() string { return r.contractName }
func (r *InstantiateRequest) Constructor() string  { return r.constructor }
func (r *InstantiateRequest) Args() []string       { return slices.Clone(r.args) }
func (r *InstantiateRequest) CallData() []byte     { return bytes.Clone(r.callData) }
func (r *InstantiateRequest) Value() *big.Int      { return new(big.Int).Set(r.value) }
func (r *InstantiateRequest) Salt() []byte         { return bytes.Clone(r.salt) }
func (r *InstantiateRequest) Code() []byte         { return bytes.Clone(r.code) }
func (r *InstantiateRequest) CodeHash() [32]byte   { return r.codeHash }
func (r *InstantiateRequest) Signer() Signer       { return r.signer }
func (r *InstantiateRequest) URL() string          { return r.url }

// Token is the native token the value was denominated in.
func (r *InstantiateRequest) Token() balance.TokenMetadata {
	return r.token
}

func (r *InstantiateRequest) WeightLimit() WeightLimit {
	return r.weightLimit
}

// Submitted reports whether a submission was already attempted.
func (r *InstantiateRequest) Submitted() bool {
	return r.submitted.Load()
}

// claimSubmission flips the one-shot guard; only the first caller wins.
func (r *InstantiateRequest) claimSubmission() bool {
	return r.submitted.CompareAndSwap(false, true)
}

func (r *InstantiateRequest) String() string {
	return fmt.Sprintf("%s::%s(%d args)", r.contractName, r.constructor, len(r.args))
}
