// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chain talks to a Substrate node running pallet-contracts.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/retriever"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/state"
	"github.com/centrifuge/go-substrate-rpc-client/v4/rpc/author"
	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	luxlog "github.com/luxfi/log"
	"github.com/luxfi/pop/pkg/balance"
	"github.com/luxfi/pop/pkg/contract"
	"golang.org/x/sync/errgroup"
)

const (
	dryRunMethod = "ContractsApi_instantiate"

	instantiateWithCodeCall = "Contracts.instantiate_with_code"
	instantiateCall         = "Contracts.instantiate"

	instantiatedEvent     = "Contracts.Instantiated"
	extrinsicFailedEvent  = "System.ExtrinsicFailed"
	contractEventField    = "contract"
	pristineCodeStorage   = "PristineCode"
	contractsPalletPrefix = "Contracts"
)

var (
	ErrConnect           = errors.New("failed to connect to node")
	ErrContractReverted  = errors.New("contract reverted")
	ErrDispatch          = errors.New("dispatch error")
	ErrExtrinsicFailed   = errors.New("extrinsic failed")
	ErrExtrinsicRejected = errors.New("extrinsic rejected by the node")
	ErrNoInstantiated    = errors.New("no Contracts.Instantiated event for the extrinsic")
	ErrUnsupportedSigner = errors.New("signer cannot sign extrinsics")
)

// KeyringSigner is a contract.Signer backed by an sr25519 key pair.
type KeyringSigner interface {
	contract.Signer
	KeyringPair() signature.KeyringPair
}

// Client is a lazily connected node client. Nothing touches the network
// until the first call.
type Client struct {
	url string
	log luxlog.Logger

	lock sync.Mutex
	api  *gsrpc.SubstrateAPI
	meta *types.Metadata
}

func New(url string, log luxlog.Logger) *Client {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return &Client{
		url: url,
		log: log.New("url", url),
	}
}

func (c *Client) Close() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.api != nil {
		c.api.Client.Close()
		c.api = nil
		c.meta = nil
	}
}

// call runs fn in a goroutine and gives up when ctx is done. The RPC
// library has no context support.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	return callReleasing(ctx, fn, nil)
}

// callReleasing is call for results that hold resources. When ctx is done
// before fn returns, release receives the late result.
func callReleasing[T any](ctx context.Context, fn func() (T, error), release func(T)) (T, error) {
	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		if release != nil {
			go func() {
				if r := <-ch; r.err == nil {
					release(r.value)
				}
			}()
		}
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.value, r.err
	}
}

func (c *Client) connect(ctx context.Context) (*gsrpc.SubstrateAPI, *types.Metadata, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.api != nil {
		return c.api, c.meta, nil
	}
	c.log.Debug("connecting")
	api, err := call(ctx, func() (*gsrpc.SubstrateAPI, error) {
		return gsrpc.NewSubstrateAPI(c.url)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w %s: %w", ErrConnect, c.url, err)
	}
	meta, err := call(ctx, api.RPC.State.GetMetadataLatest)
	if err != nil {
		api.Client.Close()
		return nil, nil, fmt.Errorf("failed to fetch metadata from %s: %w", c.url, err)
	}
	c.api, c.meta = api, meta
	c.log.Debug("connected")
	return api, meta, nil
}

// TokenMetadata reads the native token decimals and symbol from
// system_properties. Missing properties default to 0 and "".
func (c *Client) TokenMetadata(ctx context.Context) (balance.TokenMetadata, error) {
	api, _, err := c.connect(ctx)
	if err != nil {
		return balance.TokenMetadata{}, err
	}
	props, err := call(ctx, func() (map[string]json.RawMessage, error) {
		var props map[string]json.RawMessage
		err := api.Client.Call(&props, "system_properties")
		return props, err
	})
	if err != nil {
		return balance.TokenMetadata{}, fmt.Errorf("failed to fetch system properties: %w", err)
	}
	var meta balance.TokenMetadata
	if raw, ok := props["tokenDecimals"]; ok {
		var decimals uint8
		if err := decodeFirst(raw, &decimals); err != nil {
			return meta, fmt.Errorf("invalid tokenDecimals %s: %w", raw, err)
		}
		meta.Decimals = decimals
	}
	if raw, ok := props["tokenSymbol"]; ok {
		var symbol string
		if err := decodeFirst(raw, &symbol); err != nil {
			return meta, fmt.Errorf("invalid tokenSymbol %s: %w", raw, err)
		}
		meta.Symbol = symbol
	}
	c.log.Debug("token metadata", "decimals", meta.Decimals, "symbol", meta.Symbol)
	return meta, nil
}

// decodeFirst accepts both a scalar and a list, in which case the first
// element is the native token.
func decodeFirst[T any](raw json.RawMessage, out *T) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []T
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		if len(list) > 0 {
			*out = list[0]
		}
		return nil
	}
	return json.Unmarshal(trimmed, out)
}

// codeExists reports whether the wasm blob is already stored on chain.
func (c *Client) codeExists(ctx context.Context, api *gsrpc.SubstrateAPI, meta *types.Metadata, hash [32]byte) bool {
	key, err := types.CreateStorageKey(meta, contractsPalletPrefix, pristineCodeStorage, hash[:])
	if err != nil {
		c.log.Debug("code storage lookup unavailable", "error", err)
		return false
	}
	raw, err := call(ctx, func() (*types.StorageDataRaw, error) {
		return api.RPC.State.GetStorageRawLatest(key)
	})
	if err != nil {
		c.log.Debug("code storage lookup failed", "error", err)
		return false
	}
	return raw != nil && len(*raw) > 0
}

// DryRunInstantiate simulates the instantiation through the contracts
// runtime api. Reverts and dispatch errors are returned as errors.
func (c *Client) DryRunInstantiate(ctx context.Context, req *contract.InstantiateRequest) (contract.DryRunEstimate, error) {
	api, meta, err := c.connect(ctx)
	if err != nil {
		return contract.DryRunEstimate{}, err
	}
	reuse := c.codeExists(ctx, api, meta, req.CodeHash())
	args, err := encodeDryRunArgs(req, reuse)
	if err != nil {
		return contract.DryRunEstimate{}, err
	}
	raw, err := call(ctx, func() (string, error) {
		var res string
		err := api.Client.Call(&res, "state_call", dryRunMethod, codec.HexEncodeToString(args))
		return res, err
	})
	if err != nil {
		return contract.DryRunEstimate{}, fmt.Errorf("dry run call failed: %w", err)
	}
	bs, err := codec.HexDecodeString(raw)
	if err != nil {
		return contract.DryRunEstimate{}, fmt.Errorf("invalid dry run response: %w", err)
	}
	result, err := decodeInstantiateResult(bs)
	if err != nil {
		return contract.DryRunEstimate{}, err
	}
	c.log.Debug("dry run result",
		"ok", result.ok,
		"codeReused", reuse,
		"gasRequired", result.gasRequired,
		"debugMessage", result.debugMessage,
	)
	switch {
	case !result.ok:
		return contract.DryRunEstimate{}, withDebug(fmt.Errorf("%w: %s", ErrDispatch, result.dispatch), result.debugMessage)
	case result.reverted():
		return contract.DryRunEstimate{}, withDebug(fmt.Errorf("%w with data %s", ErrContractReverted, codec.HexEncodeToString(result.data)), result.debugMessage)
	}
	return result.estimate(), nil
}

func withDebug(err error, debugMessage string) error {
	if msg := strings.TrimSpace(debugMessage); msg != "" {
		return fmt.Errorf("%w, debug message: %s", err, msg)
	}
	return err
}

type signingContext struct {
	genesis types.Hash
	runtime *types.RuntimeVersion
	nonce   uint64
}

// fetchSigningContext reads the independent values an extrinsic signature
// needs. None of them changes chain state.
func (c *Client) fetchSigningContext(ctx context.Context, api *gsrpc.SubstrateAPI, address string) (signingContext, error) {
	var sc signingContext
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		genesis, err := call(gctx, func() (types.Hash, error) {
			return api.RPC.Chain.GetBlockHash(0)
		})
		if err != nil {
			return fmt.Errorf("failed to fetch genesis hash: %w", err)
		}
		sc.genesis = genesis
		return nil
	})
	g.Go(func() error {
		rv, err := call(gctx, api.RPC.State.GetRuntimeVersionLatest)
		if err != nil {
			return fmt.Errorf("failed to fetch runtime version: %w", err)
		}
		sc.runtime = rv
		return nil
	})
	g.Go(func() error {
		nonce, err := call(gctx, func() (uint64, error) {
			var nonce uint64
			err := api.Client.Call(&nonce, "system_accountNextIndex", address)
			return nonce, err
		})
		if err != nil {
			return fmt.Errorf("failed to fetch account nonce: %w", err)
		}
		sc.nonce = nonce
		return nil
	})
	return sc, g.Wait()
}

func (c *Client) buildCall(meta *types.Metadata, req *contract.InstantiateRequest, weight contract.Weight, reuse bool) (types.Call, error) {
	value := types.NewUCompact(req.Value())
	if reuse {
		hash := req.CodeHash()
		return types.NewCall(meta, instantiateCall,
			value,
			newWeightArg(weight),
			none{},
			types.NewHash(hash[:]),
			types.NewBytes(req.CallData()),
			types.NewBytes(req.Salt()),
		)
	}
	return types.NewCall(meta, instantiateWithCodeCall,
		value,
		newWeightArg(weight),
		none{},
		types.NewBytes(req.Code()),
		types.NewBytes(req.CallData()),
		types.NewBytes(req.Salt()),
	)
}

// SubmitInstantiate signs and submits the instantiation once and waits for
// it to be included in a block. Failures before broadcast wrap
// contract.ErrNotBroadcast, failures after broadcast where inclusion is
// unknown wrap contract.ErrOutcomeUnknown.
func (c *Client) SubmitInstantiate(ctx context.Context, req *contract.InstantiateRequest, weight contract.Weight) (contract.Address, error) {
	notBroadcast := func(err error) (contract.Address, error) {
		return contract.Address{}, fmt.Errorf("%w: %w", contract.ErrNotBroadcast, err)
	}
	signer, ok := req.Signer().(KeyringSigner)
	if !ok {
		return notBroadcast(ErrUnsupportedSigner)
	}
	api, meta, err := c.connect(ctx)
	if err != nil {
		return notBroadcast(err)
	}
	reuse := c.codeExists(ctx, api, meta, req.CodeHash())
	instantiate, err := c.buildCall(meta, req, weight, reuse)
	if err != nil {
		return notBroadcast(fmt.Errorf("failed to build instantiate call: %w", err))
	}
	sc, err := c.fetchSigningContext(ctx, api, signer.Address())
	if err != nil {
		return notBroadcast(err)
	}
	ext := types.NewExtrinsic(instantiate)
	err = ext.Sign(signer.KeyringPair(), types.SignatureOptions{
		BlockHash:          sc.genesis,
		Era:                types.ExtrinsicEra{IsImmortalEra: true},
		GenesisHash:        sc.genesis,
		Nonce:              types.NewUCompactFromUInt(sc.nonce),
		SpecVersion:        sc.runtime.SpecVersion,
		Tip:                types.NewUCompactFromUInt(0),
		TransactionVersion: sc.runtime.TransactionVersion,
	})
	if err != nil {
		return notBroadcast(fmt.Errorf("failed to sign extrinsic: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return notBroadcast(err)
	}

	callName := instantiateWithCodeCall
	if reuse {
		callName = instantiateCall
	}
	c.log.Info("submitting extrinsic",
		"call", callName,
		"nonce", sc.nonce,
		"weight", weight,
	)
	sub, err := callReleasing(ctx, func() (*author.ExtrinsicStatusSubscription, error) {
		return api.RPC.Author.SubmitAndWatchExtrinsic(ext)
	}, func(late *author.ExtrinsicStatusSubscription) {
		c.log.Debug("dropping late status subscription")
		late.Unsubscribe()
	})
	if err != nil {
		return contract.Address{}, fmt.Errorf("failed to submit extrinsic: %w", err)
	}
	defer sub.Unsubscribe()

	blockHash, err := c.awaitInclusion(ctx, sub)
	if err != nil {
		return contract.Address{}, err
	}
	return c.instantiatedAddress(ctx, api, blockHash, ext, req)
}

// awaitInclusion blocks until the extrinsic is in a block.
func (c *Client) awaitInclusion(ctx context.Context, sub statusSubscription) (types.Hash, error) {
	for {
		select {
		case <-ctx.Done():
			return types.Hash{}, fmt.Errorf("%w: %w", contract.ErrOutcomeUnknown, ctx.Err())
		case err := <-sub.Err():
			return types.Hash{}, fmt.Errorf("%w: status subscription failed: %w", contract.ErrOutcomeUnknown, err)
		case status, ok := <-sub.Chan():
			if !ok {
				return types.Hash{}, fmt.Errorf("%w: status subscription closed", contract.ErrOutcomeUnknown)
			}
			switch {
			case status.IsInBlock:
				c.log.Info("extrinsic in block", "block", status.AsInBlock.Hex())
				return status.AsInBlock, nil
			case status.IsFinalized:
				return status.AsFinalized, nil
			case status.IsInvalid:
				return types.Hash{}, fmt.Errorf("%w: invalid", ErrExtrinsicRejected)
			case status.IsDropped:
				return types.Hash{}, fmt.Errorf("%w: dropped from the pool", ErrExtrinsicRejected)
			case status.IsUsurped:
				return types.Hash{}, fmt.Errorf("%w: usurped by %s", ErrExtrinsicRejected, status.AsUsurped.Hex())
			case status.IsRetracted, status.IsFinalityTimeout:
				return types.Hash{}, fmt.Errorf("%w: block containing the extrinsic was retracted", contract.ErrOutcomeUnknown)
			default:
				c.log.Debug("extrinsic status", "ready", status.IsReady, "broadcast", status.IsBroadcast)
			}
		}
	}
}

// instantiatedAddress locates the extrinsic in the block and reads the
// contract address from its events.
func (c *Client) instantiatedAddress(
	ctx context.Context,
	api *gsrpc.SubstrateAPI,
	blockHash types.Hash,
	ext types.Extrinsic,
	req *contract.InstantiateRequest,
) (contract.Address, error) {
	unknown := func(err error) (contract.Address, error) {
		return contract.Address{}, fmt.Errorf("%w: included in block %s: %w", contract.ErrOutcomeUnknown, blockHash.Hex(), err)
	}
	block, err := call(ctx, func() (*types.SignedBlock, error) {
		return api.RPC.Chain.GetBlock(blockHash)
	})
	if err != nil {
		return unknown(fmt.Errorf("failed to fetch block: %w", err))
	}
	index, err := extrinsicIndex(block.Block.Extrinsics, ext)
	if err != nil {
		return unknown(err)
	}
	events, err := call(ctx, func() ([]*event, error) {
		r, err := retriever.NewDefaultEventRetriever(state.NewEventProvider(api.RPC.State), api.RPC.State)
		if err != nil {
			return nil, err
		}
		parsed, err := r.GetEvents(blockHash)
		if err != nil {
			return nil, err
		}
		return toEvents(parsed), nil
	})
	if err != nil {
		return unknown(fmt.Errorf("failed to fetch events: %w", err))
	}

	address, err := addressFromEvents(events, index)
	if err != nil {
		return contract.Address{}, fmt.Errorf("included in block %s: %w", blockHash.Hex(), err)
	}
	// the event is authoritative, the derived address is only a cross-check
	derived, err := DeriveContractAddress(req.Signer().AccountID(), req.CodeHash(), req.CallData(), req.Salt())
	switch {
	case err != nil:
		c.log.Debug("cannot derive contract address", "error", err)
	case address != derived:
		c.log.Warn("instantiated address differs from derived address",
			"event", address.String(),
			"derived", derived.String(),
		)
	}
	return address, nil
}

func extrinsicIndex(extrinsics []types.Extrinsic, ext types.Extrinsic) (uint32, error) {
	want, err := codec.Encode(ext)
	if err != nil {
		return 0, err
	}
	for i, candidate := range extrinsics {
		got, err := codec.Encode(candidate)
		if err != nil {
			continue
		}
		if bytes.Equal(got, want) {
			return uint32(i), nil
		}
	}
	return 0, errors.New("extrinsic not found in block")
}

// addressFromEvents returns the instantiated contract of the extrinsic at
// index. A failed extrinsic wraps ErrExtrinsicFailed. A successful one
// without a decodable Contracts.Instantiated event wraps
// contract.ErrOutcomeUnknown since the address cannot be confirmed.
func addressFromEvents(events []*event, index uint32) (contract.Address, error) {
	var undecodable *event
	for _, ev := range events {
		if !ev.appliesTo(index) {
			continue
		}
		switch ev.name {
		case extrinsicFailedEvent:
			return contract.Address{}, fmt.Errorf("%w: %s", ErrExtrinsicFailed, ev.describe())
		case instantiatedEvent:
			if a, ok := ev.account(contractEventField); ok {
				return a, nil
			}
			undecodable = ev
		}
	}
	if undecodable != nil {
		return contract.Address{}, fmt.Errorf("%w: %w: cannot decode %s of %s",
			contract.ErrOutcomeUnknown, ErrNoInstantiated, contractEventField, undecodable.describe())
	}
	return contract.Address{}, fmt.Errorf("%w: %w", contract.ErrOutcomeUnknown, ErrNoInstantiated)
}
