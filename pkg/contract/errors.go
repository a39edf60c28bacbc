// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every terminal failure of a deployment.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	ManifestNotFound
	BalanceResolutionFailed
	InvalidSigningKey
	InvalidConstructorArgs
	PartialWeightLimit
	EstimationFailed
	SubmissionFailed
	NetworkError
	// IndeterminateOutcome means the extrinsic may or may not have been included.
	IndeterminateOutcome
)

var kindNames = map[ErrorKind]string{
	KindUnknown:             "deployment failed",
	ManifestNotFound:        "manifest not found",
	BalanceResolutionFailed: "balance resolution failed",
	InvalidSigningKey:       "invalid signing key",
	InvalidConstructorArgs:  "invalid constructor arguments",
	PartialWeightLimit:      "partial weight limit",
	EstimationFailed:        "estimation failed",
	SubmissionFailed:        "submission failed",
	NetworkError:            "network error",
	IndeterminateOutcome:    "indeterminate outcome",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the structured failure returned by Preparer and Deployer.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind that carries no cause, so the
// Err* values below can be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Kind == e.Kind
}

var (
	ErrManifestNotFound        = &Error{Kind: ManifestNotFound}
	ErrBalanceResolutionFailed = &Error{Kind: BalanceResolutionFailed}
	ErrInvalidSigningKey       = &Error{Kind: InvalidSigningKey}
	ErrInvalidConstructorArgs  = &Error{Kind: InvalidConstructorArgs}
	ErrPartialWeightLimit      = &Error{Kind: PartialWeightLimit}
	ErrEstimationFailed        = &Error{Kind: EstimationFailed}
	ErrSubmissionFailed        = &Error{Kind: SubmissionFailed}
	ErrNetwork                 = &Error{Kind: NetworkError}
	ErrIndeterminateOutcome    = &Error{Kind: IndeterminateOutcome}
)

var (
	ErrAlreadySubmitted = errors.New("instantiation request was already submitted")
	ErrNilRequest       = errors.New("nil instantiation request")

	// ErrNotBroadcast marks chain client failures that happened before the
	// extrinsic left the process.
	ErrNotBroadcast = errors.New("extrinsic was not broadcast")
	// ErrOutcomeUnknown marks chain client failures after broadcast where
	// inclusion could not be confirmed or ruled out.
	ErrOutcomeUnknown = errors.New("extrinsic outcome unknown")
)

func newError(kind ErrorKind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the outermost ErrorKind in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
