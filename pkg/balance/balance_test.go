// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package balance

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

var unit = TokenMetadata{Decimals: 12, Symbol: "UNIT"}

func TestParseDenominate(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		meta     TokenMetadata
		expected string
		err      error
	}{
		{name: "raw", expr: "1000000", meta: unit, expected: "1000000"},
		{name: "raw with underscores", expr: "1_000_000", meta: unit, expected: "1000000"},
		{name: "raw ignores missing symbol", expr: "42", meta: TokenMetadata{}, expected: "42"},
		{name: "whole token", expr: "1UNIT", meta: unit, expected: "1000000000000"},
		{name: "space before symbol", expr: "1 UNIT", meta: unit, expected: "1000000000000"},
		{name: "fraction", expr: "1.5UNIT", meta: unit, expected: "1500000000000"},
		{name: "trailing zeros", expr: "1.500UNIT", meta: unit, expected: "1500000000000"},
		{name: "kilo", expr: "10kUNIT", meta: unit, expected: "10000000000000000"},
		{name: "giga", expr: "2GUNIT", meta: unit, expected: "2000000000000000000000"},
		{name: "milli", expr: "250mDOT", meta: TokenMetadata{Decimals: 10, Symbol: "DOT"}, expected: "2500000000"},
		{name: "micro", expr: "5μUNIT", meta: unit, expected: "5000000"},
		{name: "micro ascii", expr: "5uUNIT", meta: unit, expected: "5000000"},
		{name: "nano", expr: "1nUNIT", meta: unit, expected: "1000"},
		{name: "symbol mismatch", expr: "1DOT", meta: unit, err: ErrSymbolMismatch},
		{name: "no chain symbol", expr: "1DOT", meta: TokenMetadata{Decimals: 10}, err: ErrNoTokenSymbol},
		{name: "too many decimals", expr: "0.0000000000001UNIT", meta: unit, err: ErrTooManyDecimals},
		{name: "below smallest unit", expr: "1nUNIT", meta: TokenMetadata{Decimals: 6, Symbol: "UNIT"}, err: ErrTooManyDecimals},
		{name: "raw overflow", expr: "340282366920938463463374607431768211456", meta: unit, err: ErrOverflow},
		{name: "denominated overflow", expr: "340282366920938463463374607431768211455UNIT", meta: unit, err: ErrOverflow},
		{name: "empty", expr: "  ", meta: unit, err: ErrEmpty},
		{name: "negative", expr: "-1UNIT", meta: unit, err: ErrInvalidFormat},
		{name: "garbage", expr: "one UNIT", meta: unit, err: ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := Parser{}.Parse(tt.expr, tt.meta)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, amount.String())
		})
	}
}

func TestParseMaxU128(t *testing.T) {
	v, err := Parse("340282366920938463463374607431768211455")
	require.NoError(t, err)
	amount, err := v.Denominate(unit)
	require.NoError(t, err)
	require.Equal(t, 0, amount.Cmp(maxU128))
}

func TestDenominateReturnsCopy(t *testing.T) {
	v, err := Parse("7")
	require.NoError(t, err)
	a, err := v.Denominate(unit)
	require.NoError(t, err)
	a.SetInt64(100)
	b, err := v.Denominate(unit)
	require.NoError(t, err)
	require.Equal(t, "7", b.String())
}

func TestFormat(t *testing.T) {
	require.Equal(t, "1.5 UNIT", Format(big.NewInt(1_500_000_000_000), unit))
	require.Equal(t, "0.005 X", Format(big.NewInt(5), TokenMetadata{Decimals: 3, Symbol: "X"}))
	require.Equal(t, "12", Format(big.NewInt(12), TokenMetadata{}))
	require.Equal(t, "0 UNIT", Format(nil, unit))
}
