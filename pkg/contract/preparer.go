// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/go-playground/validator/v10"
	luxlog "github.com/luxfi/log"
	"github.com/luxfi/pop/pkg/balance"
	"github.com/luxfi/pop/pkg/manifest"
)

// DeployOptions are the raw user inputs of a deployment.
type DeployOptions struct {
	Path        string
	Constructor string `validate:"required"`
	Args        []string
	Value       string `validate:"required"`
	GasLimit    *uint64
	ProofSize   *uint64
	Salt        []byte
	URL         string `validate:"required,url"`
	SecretURI   string `validate:"required"`
}

type ManifestResolver interface {
	Resolve(path string) (manifest.Path, error)
	LoadBundle(path manifest.Path) (*manifest.Bundle, error)
}

type TokenMetadataService interface {
	TokenMetadata(ctx context.Context) (balance.TokenMetadata, error)
}

type BalanceParser interface {
	Parse(expr string, meta balance.TokenMetadata) (*big.Int, error)
}

type SignerFactory interface {
	FromSecretURI(uri string) (Signer, error)
}

// ConstructorEncoder produces the call data of a constructor.
type ConstructorEncoder interface {
	EncodeConstructor(label string, args []string) ([]byte, error)
}

// EncoderFactory builds a ConstructorEncoder for a loaded bundle.
type EncoderFactory func(bundle *manifest.Bundle) ConstructorEncoder

// Preparer turns DeployOptions into an InstantiateRequest. It reads the
// chain but never writes to it.
type Preparer struct {
	manifests ManifestResolver
	tokens    TokenMetadataService
	balances  BalanceParser
	signers   SignerFactory
	encoders  EncoderFactory
	validate  *validator.Validate
	log       luxlog.Logger
}

func NewPreparer(
	manifests ManifestResolver,
	tokens TokenMetadataService,
	balances BalanceParser,
	signers SignerFactory,
	encoders EncoderFactory,
	log luxlog.Logger,
) *Preparer {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return &Preparer{
		manifests: manifests,
		tokens:    tokens,
		balances:  balances,
		signers:   signers,
		encoders:  encoders,
		validate:  validator.New(),
		log:       log,
	}
}

var errInvalidOptions = errors.New("invalid deploy options")

// Prepare resolves the weight limit, the manifest, the value, the signer
// and the constructor call data, in that order. The only chain access is
// the token metadata read.
func (p *Preparer) Prepare(ctx context.Context, opts DeployOptions) (*InstantiateRequest, error) {
	weightLimit, err := NewWeightLimit(opts.GasLimit, opts.ProofSize)
	if err != nil {
		return nil, err
	}
	if err := p.validate.Struct(opts); err != nil {
		return nil, optionsError(err)
	}

	path, err := p.manifests.Resolve(opts.Path)
	if err != nil {
		return nil, newError(ManifestNotFound, err)
	}
	bundle, err := p.manifests.LoadBundle(path)
	if err != nil {
		return nil, newError(ManifestNotFound, err)
	}
	code, err := bundle.Code()
	if err != nil {
		return nil, newError(ManifestNotFound, err)
	}
	p.log.Debug("contract bundle loaded",
		"manifest", path.String(),
		"contract", bundle.Contract.Name,
		"codeSize", len(code),
	)

	value, token, err := p.resolveValue(ctx, opts.Value)
	if err != nil {
		return nil, err
	}

	signer, err := p.signers.FromSecretURI(opts.SecretURI)
	if err != nil {
		return nil, newError(InvalidSigningKey, err)
	}
	p.log.Debug("signer resolved", "address", signer.Address())

	callData, err := p.encoders(bundle).EncodeConstructor(opts.Constructor, opts.Args)
	if err != nil {
		return nil, newError(InvalidConstructorArgs, err)
	}

	return NewInstantiateRequest(RequestParams{
		ContractName: bundle.Contract.Name,
		Constructor:  opts.Constructor,
		Args:         opts.Args,
		CallData:     callData,
		Value:        value,
		Token:        token,
		WeightLimit:  weightLimit,
		Salt:         opts.Salt,
		Code:         code,
		Signer:       signer,
		URL:          opts.URL,
	}), nil
}

func (p *Preparer) resolveValue(ctx context.Context, expr string) (*big.Int, balance.TokenMetadata, error) {
	meta, err := p.tokens.TokenMetadata(ctx)
	if err != nil {
		return nil, meta, newError(BalanceResolutionFailed, newError(NetworkError, err))
	}
	value, err := p.balances.Parse(expr, meta)
	if err != nil {
		return nil, meta, newError(BalanceResolutionFailed, err)
	}
	p.log.Debug("value resolved", "expr", expr, "value", value.String())
	return value, meta, nil
}

// optionsError maps a failed field to the error kind of the step that
// would have consumed it.
func optionsError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return newError(KindUnknown, fmt.Errorf("%w: %w", errInvalidOptions, err))
	}
	field := verrs[0]
	cause := fmt.Errorf("%w: %s failed the %q check", errInvalidOptions, field.Field(), field.Tag())
	switch field.Field() {
	case "Constructor":
		return newError(InvalidConstructorArgs, cause)
	case "Value":
		return newError(BalanceResolutionFailed, cause)
	case "URL":
		return newError(NetworkError, cause)
	case "SecretURI":
		return newError(InvalidSigningKey, cause)
	default:
		return newError(KindUnknown, cause)
	}
}
