// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commands

import (
	"os"
	"os/exec"

	"github.com/luxfi/pop/pkg/constants"
	"github.com/luxfi/pop/pkg/prompts"
	"github.com/luxfi/pop/tests/e2e/utils"
)

// UpContract runs `pop up contract` without prompts and returns its
// combined output.
/* #nosec G204 */
func UpContract(args ...string) (string, error) {
	cmdArgs := append([]string{
		UpCmd,
		ContractCmd,
		"--" + constants.SkipEnvFlag,
		"--non-interactive",
	}, args...)

	cmd := exec.Command(CLIBinary, cmdArgs...)
	cmd.Env = append(os.Environ(), prompts.EnvNonInteractive+"=1")
	output, err := cmd.CombinedOutput()
	if err != nil {
		utils.PrintStdErr(err)
	}
	return string(output), err
}
