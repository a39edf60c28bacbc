// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package balance

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmpty            = errors.New("empty balance")
	ErrInvalidFormat    = errors.New("invalid balance format")
	ErrSymbolMismatch   = errors.New("token symbol mismatch")
	ErrTooManyDecimals  = errors.New("balance has more fractional digits than the token supports")
	ErrOverflow         = errors.New("balance does not fit in u128")
	ErrNoTokenSymbol    = errors.New("chain does not define a token symbol")
	maxU128             = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	denominatedPattern  = regexp.MustCompile(`^([0-9][0-9_]*)(?:\.([0-9][0-9_]*))?\s*(\S+)$`)
	defaultDenomination = unitPrefix{symbol: "", exponent: 0}
)

// TokenMetadata is the chain's native token description.
type TokenMetadata struct {
	Decimals uint8
	Symbol   string
}

type unitPrefix struct {
	symbol   string
	exponent int
}

var prefixes = []unitPrefix{
	{"G", 9},
	{"M", 6},
	{"k", 3},
	{"m", -3},
	{"μ", -6},
	{"u", -6},
	{"n", -9},
}

// Variant is a parsed balance expression, either a raw amount in the
// smallest unit or a decimal amount in the token's denomination.
type Variant struct {
	raw *big.Int

	integer  string
	fraction string
	unit     string
}

// Parse accepts "1000000", "1_000_000", "1.5UNIT", "10 kUNIT" and "250mDOT".
func Parse(expr string) (Variant, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Variant{}, ErrEmpty
	}
	if isDigits(strings.ReplaceAll(expr, "_", "")) {
		raw, ok := new(big.Int).SetString(strings.ReplaceAll(expr, "_", ""), 10)
		if !ok {
			return Variant{}, fmt.Errorf("%w: %q", ErrInvalidFormat, expr)
		}
		if raw.Cmp(maxU128) > 0 {
			return Variant{}, fmt.Errorf("%w: %s", ErrOverflow, expr)
		}
		return Variant{raw: raw}, nil
	}
	m := denominatedPattern.FindStringSubmatch(expr)
	if m == nil || !isLetters(m[3]) {
		return Variant{}, fmt.Errorf("%w: %q", ErrInvalidFormat, expr)
	}
	return Variant{
		integer:  strings.ReplaceAll(m[1], "_", ""),
		fraction: strings.TrimRight(strings.ReplaceAll(m[2], "_", ""), "0"),
		unit:     m[3],
	}, nil
}

// Denominate converts the variant into the smallest chain unit.
func (v Variant) Denominate(meta TokenMetadata) (*big.Int, error) {
	if v.raw != nil {
		return new(big.Int).Set(v.raw), nil
	}
	if meta.Symbol == "" {
		return nil, ErrNoTokenSymbol
	}
	prefix, err := splitUnit(v.unit, meta.Symbol)
	if err != nil {
		return nil, err
	}
	scale := int(meta.Decimals) + prefix.exponent
	if scale < 0 || len(v.fraction) > scale {
		return nil, fmt.Errorf("%w: %s.%s%s with %d decimals", ErrTooManyDecimals, v.integer, v.fraction, v.unit, meta.Decimals)
	}
	digits := v.integer + v.fraction + strings.Repeat("0", scale-len(v.fraction))
	amount, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, digits)
	}
	if amount.Cmp(maxU128) > 0 {
		return nil, fmt.Errorf("%w: %s%s", ErrOverflow, v.integer, v.unit)
	}
	return amount, nil
}

// splitUnit matches unit against the symbol, optionally preceded by a
// metric prefix. An exact symbol match wins over a prefix reading.
func splitUnit(unit, symbol string) (unitPrefix, error) {
	if unit == symbol {
		return defaultDenomination, nil
	}
	for _, p := range prefixes {
		if strings.HasPrefix(unit, p.symbol) && strings.TrimPrefix(unit, p.symbol) == symbol {
			return p, nil
		}
	}
	return unitPrefix{}, fmt.Errorf("%w: got %q, chain uses %q", ErrSymbolMismatch, unit, symbol)
}

// Parser is the balance parser used by the deployment preparer.
type Parser struct{}

func (Parser) Parse(expr string, meta TokenMetadata) (*big.Int, error) {
	v, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return v.Denominate(meta)
}

// Format renders an amount of smallest units in the token denomination,
// e.g. 1500000000000 with 12 decimals is "1.5 UNIT".
func Format(amount *big.Int, meta TokenMetadata) string {
	if amount == nil {
		amount = new(big.Int)
	}
	s := amount.String()
	if meta.Decimals > 0 {
		d := int(meta.Decimals)
		if len(s) <= d {
			s = strings.Repeat("0", d-len(s)+1) + s
		}
		integer, fraction := s[:len(s)-d], strings.TrimRight(s[len(s)-d:], "0")
		s = integer
		if fraction != "" {
			s += "." + fraction
		}
	}
	if meta.Symbol == "" {
		return s
	}
	return s + " " + meta.Symbol
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isLetters(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r == 'μ' {
			continue
		}
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
