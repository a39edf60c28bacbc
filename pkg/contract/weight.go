// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"errors"
	"fmt"
)

// Weight is the two dimensional execution budget of a call.
type Weight struct {
	RefTime   uint64
	ProofSize uint64
}

func (w Weight) String() string {
	return fmt.Sprintf("Weight(ref_time: %d, proof_size: %d)", w.RefTime, w.ProofSize)
}

// WeightLimit is either a fixed Weight supplied by the caller or a marker
// that the weight must be estimated with a dry run.
type WeightLimit struct {
	fixed  bool
	weight Weight
}

func FixedWeight(refTime, proofSize uint64) WeightLimit {
	return WeightLimit{fixed: true, weight: Weight{RefTime: refTime, ProofSize: proofSize}}
}

func ToBeEstimated() WeightLimit {
	return WeightLimit{}
}

// NewWeightLimit builds the limit from the optional --gas and --proof-size
// values. Both or neither must be given.
func NewWeightLimit(gasLimit, proofSize *uint64) (WeightLimit, error) {
	switch {
	case gasLimit != nil && proofSize != nil:
		return FixedWeight(*gasLimit, *proofSize), nil
	case gasLimit == nil && proofSize == nil:
		return ToBeEstimated(), nil
	case gasLimit != nil:
		return WeightLimit{}, newError(PartialWeightLimit, errors.New("gas limit given without proof size"))
	default:
		return WeightLimit{}, newError(PartialWeightLimit, errors.New("proof size given without gas limit"))
	}
}

// Fixed returns the caller supplied weight, if any.
func (l WeightLimit) Fixed() (Weight, bool) {
	return l.weight, l.fixed
}

func (l WeightLimit) String() string {
	if l.fixed {
		return l.weight.String()
	}
	return "to be estimated"
}
