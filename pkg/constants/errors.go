// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package constants

import "errors"

var (
	ErrNoSecretURI = errors.New("no secret URI given. Use --suri, set POP_SURI, or run interactively to be prompted")
	ErrInvalidURL  = errors.New("invalid node url, expected a ws://, wss://, http:// or https:// endpoint")
)
