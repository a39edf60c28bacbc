// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package chain

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/parser"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/luxfi/pop/pkg/contract"
)

// statusSubscription is the part of an author_submitAndWatchExtrinsic
// subscription awaitInclusion reads.
type statusSubscription interface {
	Chan() <-chan types.ExtrinsicStatus
	Err() <-chan error
}

// event is a decoded runtime event of one block.
type event struct {
	name   string
	phase  *types.Phase
	fields registry.DecodedFields
}

func toEvents(parsed []*parser.Event) []*event {
	events := make([]*event, 0, len(parsed))
	for _, p := range parsed {
		if p == nil {
			continue
		}
		events = append(events, &event{
			name:   p.Name,
			phase:  p.Phase,
			fields: p.Fields,
		})
	}
	return events
}

func (e *event) appliesTo(index uint32) bool {
	return e.phase != nil && e.phase.IsApplyExtrinsic && e.phase.AsApplyExtrinsic == index
}

func (e *event) account(field string) (contract.Address, bool) {
	for _, f := range e.fields {
		if f != nil && f.Name == field {
			return accountFromValue(f.Value)
		}
	}
	return contract.Address{}, false
}

func (e *event) describe() string {
	parts := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		if f == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", f.Name, f.Value))
	}
	return fmt.Sprintf("%s { %s }", e.name, strings.Join(parts, ", "))
}

// accountFromValue flattens the decoded form of an AccountId32, which the
// registry may present as a byte array, a slice of integers or a newtype
// wrapping either.
func accountFromValue(v any) (contract.Address, bool) {
	var a contract.Address
	switch t := v.(type) {
	case nil:
		return a, false
	case registry.DecodedFields:
		if len(t) == 1 && t[0] != nil {
			return accountFromValue(t[0].Value)
		}
		return a, false
	case *registry.DecodedField:
		return accountFromValue(t.Value)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Array && rv.Kind() != reflect.Slice {
		return a, false
	}
	if rv.Len() == 1 {
		return accountFromValue(rv.Index(0).Interface())
	}
	if rv.Len() != len(a) {
		return a, false
	}
	for i := range a {
		elem := rv.Index(i)
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.CanUint() || elem.Uint() > 0xff {
			return a, false
		}
		a[i] = byte(elem.Uint())
	}
	return a, true
}
