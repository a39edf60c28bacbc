// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package utils

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/luxfi/pop/internal/testutils"
)

const (
	// NodeURLEnv and ContractPathEnv point the node backed specs at a running
	// substrate-contracts-node and a built flipper. They are skipped otherwise.
	NodeURLEnv      = "POP_E2E_NODE_URL"
	ContractPathEnv = "POP_E2E_CONTRACT_PATH"
	DevSURI         = "//Alice"
)

func PrintStdErr(err error) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		fmt.Println(string(exitErr.Stderr))
	}
}

// NewFlipperProject writes a built flipper contract into a new temp dir.
func NewFlipperProject() (string, error) {
	dir, err := os.MkdirTemp("", "pop-e2e-flipper")
	if err != nil {
		return "", err
	}
	if err := testutils.WriteContractFiles(dir, "flipper", testutils.FlipperBundle); err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}
	return dir, nil
}
