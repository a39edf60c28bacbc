// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transcode turns constructor arguments given as strings into SCALE
// encoded call data, using the type registry of an ink! bundle.
package transcode

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/luxfi/pop/pkg/contract"
	"github.com/luxfi/pop/pkg/manifest"
)

var (
	ErrUnknownConstructor = errors.New("unknown constructor")
	ErrArgumentCount      = errors.New("wrong number of constructor arguments")
	ErrInvalidLiteral     = errors.New("invalid argument literal")
	ErrUnsupportedType    = errors.New("unsupported argument type")
	ErrUnknownType        = errors.New("type not found in contract metadata")
)

// Encoder encodes constructor calls for one contract bundle.
type Encoder struct {
	bundle *manifest.Bundle
	types  map[int]manifest.TypeInfo
}

func New(bundle *manifest.Bundle) *Encoder {
	registry := make(map[int]manifest.TypeInfo, len(bundle.Types))
	for _, entry := range bundle.Types {
		registry[entry.ID] = entry.Type
	}
	return &Encoder{
		bundle: bundle,
		types:  registry,
	}
}

// EncodeConstructor returns selector ++ encoded args for the constructor
// with the given label.
func (e *Encoder) EncodeConstructor(label string, args []string) ([]byte, error) {
	ctor, ok := e.bundle.FindConstructor(label)
	if !ok {
		return nil, fmt.Errorf("%w %q, available: %s", ErrUnknownConstructor, label, strings.Join(e.bundle.ConstructorLabels(), ", "))
	}
	if len(args) != len(ctor.Args) {
		return nil, fmt.Errorf("%w: %s expects %d, got %d", ErrArgumentCount, label, len(ctor.Args), len(args))
	}
	selector, err := codec.HexDecodeString(ctor.Selector)
	if err != nil || len(selector) != 4 {
		return nil, fmt.Errorf("constructor %s has an invalid selector %q", label, ctor.Selector)
	}
	data := selector
	for i, arg := range ctor.Args {
		encoded, err := e.encode(ctor.Args[i].Type.Type, strings.TrimSpace(args[i]))
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", arg.Label, err)
		}
		data = append(data, encoded...)
	}
	return data, nil
}

func (e *Encoder) lookup(id int) (manifest.TypeInfo, error) {
	info, ok := e.types[id]
	if !ok {
		return manifest.TypeInfo{}, fmt.Errorf("%w: %d", ErrUnknownType, id)
	}
	return info, nil
}

func (e *Encoder) encode(id int, literal string) ([]byte, error) {
	info, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	def := info.Def
	switch {
	case def.Primitive != "":
		return encodePrimitive(def.Primitive, literal)
	case def.Array != nil:
		return e.encodeArray(def.Array, literal)
	case def.Sequence != nil:
		return e.encodeSequence(def.Sequence, literal)
	case def.Composite != nil:
		return e.encodeComposite(def.Composite, literal)
	case def.Variant != nil:
		return e.encodeVariant(info.Path, def.Variant, literal)
	case def.Tuple != nil:
		if len(*def.Tuple) != 0 {
			return nil, fmt.Errorf("%w: tuple of %d", ErrUnsupportedType, len(*def.Tuple))
		}
		if literal != "()" && literal != "" {
			return nil, fmt.Errorf("%w: expected (), got %q", ErrInvalidLiteral, literal)
		}
		return nil, nil
	case def.Compact != nil:
		return e.encodeCompact(def.Compact, literal)
	default:
		return nil, fmt.Errorf("%w: type %d", ErrUnsupportedType, id)
	}
}

func (e *Encoder) isByte(id int) bool {
	info, err := e.lookup(id)
	return err == nil && info.Def.Primitive == "u8"
}

func (e *Encoder) encodeArray(def *manifest.ArrayDef, literal string) ([]byte, error) {
	if e.isByte(def.Type) {
		bs, err := parseBytes(literal, def.Len)
		if err != nil {
			return nil, err
		}
		return bs, nil
	}
	items, err := splitList(literal)
	if err != nil {
		return nil, err
	}
	if len(items) != def.Len {
		return nil, fmt.Errorf("%w: expected %d elements, got %d", ErrInvalidLiteral, def.Len, len(items))
	}
	return e.encodeItems(def.Type, items)
}

func (e *Encoder) encodeSequence(def *manifest.SequenceDef, literal string) ([]byte, error) {
	if e.isByte(def.Type) {
		bs, err := codec.HexDecodeString(literal)
		if err != nil {
			return nil, fmt.Errorf("%w: expected hex bytes, got %q", ErrInvalidLiteral, literal)
		}
		return codec.Encode(types.NewBytes(bs))
	}
	items, err := splitList(literal)
	if err != nil {
		return nil, err
	}
	prefix, err := codec.Encode(types.NewUCompactFromUInt(uint64(len(items))))
	if err != nil {
		return nil, err
	}
	body, err := e.encodeItems(def.Type, items)
	if err != nil {
		return nil, err
	}
	return append(prefix, body...), nil
}

func (e *Encoder) encodeItems(id int, items []string) ([]byte, error) {
	var out []byte
	for i, item := range items {
		bs, err := e.encode(id, item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, bs...)
	}
	return out, nil
}

// encodeComposite supports newtypes such as AccountId and Balance. A 32
// byte newtype also accepts an SS58 address.
func (e *Encoder) encodeComposite(def *manifest.CompositeDef, literal string) ([]byte, error) {
	if len(def.Fields) != 1 {
		return nil, fmt.Errorf("%w: struct with %d fields", ErrUnsupportedType, len(def.Fields))
	}
	inner, err := e.lookup(def.Fields[0].Type)
	if err != nil {
		return nil, err
	}
	if arr := inner.Def.Array; arr != nil && arr.Len == 32 && e.isByte(arr.Type) && !strings.HasPrefix(literal, "0x") {
		addr, err := contract.ParseAddress(literal)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLiteral, err)
		}
		return addr[:], nil
	}
	return e.encode(def.Fields[0].Type, literal)
}

func (e *Encoder) encodeVariant(path []string, def *manifest.VariantDef, literal string) ([]byte, error) {
	name, inner, hasInner := strings.Cut(literal, "(")
	name = strings.TrimSpace(name)
	if hasInner {
		if !strings.HasSuffix(inner, ")") {
			return nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidLiteral, literal)
		}
		inner = strings.TrimSpace(strings.TrimSuffix(inner, ")"))
	}
	for _, v := range def.Variants {
		if v.Name != name {
			continue
		}
		out := []byte{byte(v.Index)}
		switch {
		case len(v.Fields) == 0 && !hasInner:
			return out, nil
		case len(v.Fields) == 1 && hasInner:
			bs, err := e.encode(v.Fields[0].Type, inner)
			if err != nil {
				return nil, err
			}
			return append(out, bs...), nil
		default:
			return nil, fmt.Errorf("%w: variant %s takes %d values", ErrInvalidLiteral, v.Name, len(v.Fields))
		}
	}
	names := make([]string, 0, len(def.Variants))
	for _, v := range def.Variants {
		names = append(names, v.Name)
	}
	return nil, fmt.Errorf("%w: %q is not a variant of %s (%s)", ErrInvalidLiteral, name, strings.Join(path, "::"), strings.Join(names, ", "))
}

func (e *Encoder) encodeCompact(def *manifest.SequenceDef, literal string) ([]byte, error) {
	inner, err := e.lookup(def.Type)
	if err != nil {
		return nil, err
	}
	bits, ok := unsignedBits[inner.Def.Primitive]
	if !ok {
		return nil, fmt.Errorf("%w: compact of type %d", ErrUnsupportedType, def.Type)
	}
	n, err := parseUnsigned(literal, bits)
	if err != nil {
		return nil, err
	}
	return codec.Encode(types.NewUCompact(n))
}

var unsignedBits = map[string]uint{"u8": 8, "u16": 16, "u32": 32, "u64": 64, "u128": 128}

func encodePrimitive(primitive, literal string) ([]byte, error) {
	switch primitive {
	case "bool":
		b, err := strconv.ParseBool(literal)
		if err != nil {
			return nil, fmt.Errorf("%w: expected bool, got %q", ErrInvalidLiteral, literal)
		}
		return codec.Encode(types.NewBool(b))
	case "str":
		return codec.Encode(types.NewText(unquote(literal)))
	case "char":
		s := unquoteChar(literal)
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError || size != len(s) {
			return nil, fmt.Errorf("%w: expected a single character, got %q", ErrInvalidLiteral, literal)
		}
		return codec.Encode(types.NewU32(uint32(r)))
	case "u8", "u16", "u32", "u64", "u128":
		n, err := parseUnsigned(literal, unsignedBits[primitive])
		if err != nil {
			return nil, err
		}
		switch primitive {
		case "u8":
			return codec.Encode(types.NewU8(uint8(n.Uint64())))
		case "u16":
			return codec.Encode(types.NewU16(uint16(n.Uint64())))
		case "u32":
			return codec.Encode(types.NewU32(uint32(n.Uint64())))
		case "u64":
			return codec.Encode(types.NewU64(n.Uint64()))
		default:
			return codec.Encode(types.NewU128(*n))
		}
	case "i8", "i16", "i32", "i64", "i128":
		bits, _ := strconv.Atoi(primitive[1:])
		n, err := parseSigned(literal, uint(bits))
		if err != nil {
			return nil, err
		}
		switch primitive {
		case "i8":
			return codec.Encode(types.NewI8(int8(n.Int64())))
		case "i16":
			return codec.Encode(types.NewI16(int16(n.Int64())))
		case "i32":
			return codec.Encode(types.NewI32(int32(n.Int64())))
		case "i64":
			return codec.Encode(types.NewI64(n.Int64()))
		default:
			return codec.Encode(types.NewI128(*n))
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, primitive)
	}
}

func parseUnsigned(literal string, bits uint) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.ReplaceAll(literal, "_", ""), 10)
	if !ok || n.Sign() < 0 || n.BitLen() > int(bits) {
		return nil, fmt.Errorf("%w: expected u%d, got %q", ErrInvalidLiteral, bits, literal)
	}
	return n, nil
}

func parseSigned(literal string, bits uint) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.ReplaceAll(literal, "_", ""), 10)
	limit := new(big.Int).Lsh(big.NewInt(1), bits-1)
	if !ok || n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, fmt.Errorf("%w: expected i%d, got %q", ErrInvalidLiteral, bits, literal)
	}
	return n, nil
}

func parseBytes(literal string, length int) ([]byte, error) {
	bs, err := codec.HexDecodeString(literal)
	if err != nil || !strings.HasPrefix(literal, "0x") {
		return nil, fmt.Errorf("%w: expected 0x prefixed hex, got %q", ErrInvalidLiteral, literal)
	}
	if len(bs) != length {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidLiteral, length, len(bs))
	}
	return bs, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

func unquoteChar(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return unquote(s)
}

// splitList splits "[a, [b, c], \"d,e\"]" into its top level elements.
func splitList(literal string) ([]string, error) {
	if !strings.HasPrefix(literal, "[") || !strings.HasSuffix(literal, "]") {
		return nil, fmt.Errorf("%w: expected [a, b, ...], got %q", ErrInvalidLiteral, literal)
	}
	body := strings.TrimSpace(literal[1 : len(literal)-1])
	if body == "" {
		return nil, nil
	}
	var (
		items   []string
		depth   int
		quoted  bool
		current strings.Builder
	)
	for _, r := range body {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			depth--
		case r == ',' && depth == 0:
			items = append(items, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}
	if depth != 0 || quoted {
		return nil, fmt.Errorf("%w: unbalanced list %q", ErrInvalidLiteral, literal)
	}
	return append(items, strings.TrimSpace(current.String())), nil
}
