// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package upcmd

import (
	"github.com/luxfi/pop/pkg/application"
	"github.com/luxfi/pop/pkg/cobrautils"
	"github.com/spf13/cobra"
)

var app *application.Pop

// pop up
func NewCmd(injectedApp *application.Pop) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Deploy to a running network",
		Long: `The up command suite deploys built artifacts, such as ink! smart contracts,
to a running Substrate node.`,
		RunE: cobrautils.CommandSuiteUsage,
	}
	app = injectedApp
	// up contract
	cmd.AddCommand(newContractCmd())
	return cmd
}
