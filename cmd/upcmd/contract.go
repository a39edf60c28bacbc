// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package upcmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	luxlog "github.com/luxfi/log"
	"github.com/luxfi/pop/cmd/flags"
	"github.com/luxfi/pop/pkg/balance"
	"github.com/luxfi/pop/pkg/chain"
	"github.com/luxfi/pop/pkg/cobrautils"
	"github.com/luxfi/pop/pkg/constants"
	"github.com/luxfi/pop/pkg/contract"
	"github.com/luxfi/pop/pkg/manifest"
	"github.com/luxfi/pop/pkg/prompts"
	"github.com/luxfi/pop/pkg/signer"
	"github.com/luxfi/pop/pkg/transcode"
	"github.com/luxfi/pop/pkg/ux"
	"github.com/spf13/cobra"
)

type UpContractFlags struct {
	path        string
	constructor string
	args        []string
	value       string
	gas         flags.OptionalUint64
	proofSize   flags.OptionalUint64
	salt        flags.HexBytes
	url         string
	suri        string
	timeout     time.Duration
}

var upContractFlags UpContractFlags

// deployClient is the node client used by the command.
type deployClient interface {
	contract.ChainClient
	contract.TokenMetadataService
	Close()
}

// newDeployClient is a variable for testing purposes to allow mocking the node
var newDeployClient = func(url string, log luxlog.Logger) deployClient {
	return chain.New(url, log)
}

// pop up contract
func newContractCmd() *cobra.Command {
	upContractFlags = UpContractFlags{}
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Deploy an ink! smart contract to a node",
		Long: `Deploy a built ink! smart contract and instantiate it with the given constructor.

Unless both --gas and --proof-size are given, a dry run estimates the weight
before the extrinsic is submitted. The extrinsic is submitted at most once.`,
		RunE: upContract,
		Args: cobrautils.ExactArgs(0),
	}
	cmd.Flags().StringVarP(&upContractFlags.path, "path", "p", "", "path to the contract build folder")
	cmd.Flags().StringVar(&upContractFlags.constructor, "constructor", constants.DefaultConstructor, "the name of the contract constructor to call")
	cmd.Flags().StringArrayVar(&upContractFlags.args, "args", nil, "a constructor argument, encoded as a string (repeatable)")
	cmd.Flags().StringVar(&upContractFlags.value, "value", constants.DefaultValue, "transfers an initial balance to the instantiated contract, e.g. 10UNIT")
	cmd.Flags().Var(&upContractFlags.gas, "gas", "maximum amount of gas to be used, estimated with a dry run if not set")
	cmd.Flags().Var(&upContractFlags.proofSize, "proof-size", "maximum proof size for the instantiation, estimated with a dry run if not set")
	cmd.Flags().Var(&upContractFlags.salt, "salt", "hex salt used in the address derivation of the new contract")
	cmd.Flags().StringVarP(&upContractFlags.suri, "suri", "s", "", "secret key URI for the account deploying the contract, e.g. //Alice")
	cmd.Flags().DurationVar(&upContractFlags.timeout, "timeout", constants.DeployTimeout, "overall deadline of the deployment")
	flags.AddURLFlagToCmd(cmd, app, &upContractFlags.url)
	return cmd
}

func upContract(cmd *cobra.Command, _ []string) error {
	ux.Logger.PrintToUser("Pop CLI: Deploy a smart contract")

	// reject a half specified weight before anything is asked for
	weightLimit, err := contract.NewWeightLimit(upContractFlags.gas.Get(), upContractFlags.proofSize.Get())
	if err != nil {
		ux.Logger.RedXToUser("Deployment failed.")
		return err
	}

	suri, prompted, err := resolveSecretURI(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), resolveTimeout(cmd))
	defer cancel()

	client := newDeployClient(upContractFlags.url, app.Log)
	defer client.Close()

	preparer := contract.NewPreparer(
		manifest.Resolver{},
		client,
		balance.Parser{},
		signer.NewFactory(),
		func(b *manifest.Bundle) contract.ConstructorEncoder { return transcode.New(b) },
		app.Log,
	)
	req, err := preparer.Prepare(ctx, contract.DeployOptions{
		Path:        upContractFlags.path,
		Constructor: upContractFlags.constructor,
		Args:        upContractFlags.args,
		Value:       upContractFlags.value,
		GasLimit:    upContractFlags.gas.Get(),
		ProofSize:   upContractFlags.proofSize.Get(),
		Salt:        upContractFlags.salt,
		URL:         upContractFlags.url,
		SecretURI:   suri,
	})
	if err != nil {
		ux.Logger.RedXToUser("Deployment failed.")
		return err
	}
	app.Log.Info("deployment prepared",
		"request", req.String(),
		"signer", req.Signer().Address(),
		"url", req.URL(),
		"weightLimit", weightLimit.String(),
	)

	// whoever typed the secret is at a terminal and gets a last look
	if prompted {
		ux.Logger.PrintToUser("Deploying %s with %s from %s to %s",
			req, balance.Format(req.Value(), req.Token()), req.Signer().Address(), req.URL())
		yes, err := app.Prompt.CaptureYesNo("Submit the instantiation? It cannot be undone")
		if err != nil {
			return err
		}
		if !yes {
			ux.Logger.PrintToUser("Aborted by user. Nothing has been submitted")
			return nil
		}
	}

	progress := ux.NewProgressTracker(ux.Logger.Writer())
	deployer := contract.NewDeployer(client, newProgressReporter(progress), app.Log)
	result, err := deployer.Deploy(ctx, req)
	if err != nil {
		if contract.KindOf(err) == contract.IndeterminateOutcome {
			progress.PrintWarning("The extrinsic may have been included. Check the chain before deploying again.")
		}
		ux.Logger.RedXToUser("Deployment failed.")
		return err
	}

	if err := ux.PrintSummaryTable(ux.Logger.Writer(), summaryRows(req, result)); err != nil {
		return err
	}
	ux.Logger.GreenCheckmarkToUser("Deployment complete")
	return nil
}

// resolveSecretURI takes --suri, then POP_SURI or the config file, then
// asks. prompted reports whether the user typed it.
func resolveSecretURI(cmd *cobra.Command) (suri string, prompted bool, err error) {
	if cmd.Flags().Changed("suri") {
		return upContractFlags.suri, false, nil
	}
	if app.Conf != nil && app.Conf.ConfigValueIsSet(constants.ConfigSecretURI) {
		return app.Conf.GetConfigStringValue(constants.ConfigSecretURI), false, nil
	}
	suri, err = app.Prompt.CaptureSecret("Secret key URI for the account deploying the contract")
	if errors.Is(err, prompts.ErrNonInteractive) {
		return "", false, fmt.Errorf("%w: %w", constants.ErrNoSecretURI, err)
	}
	if err != nil {
		return "", false, err
	}
	return suri, true, nil
}

func resolveTimeout(cmd *cobra.Command) time.Duration {
	if !cmd.Flags().Changed("timeout") && app.Conf != nil && app.Conf.ConfigValueIsSet(constants.ConfigTimeout) {
		if d := app.Conf.GetConfigDurationValue(constants.ConfigTimeout); d > 0 {
			return d
		}
	}
	return upContractFlags.timeout
}

func summaryRows(req *contract.InstantiateRequest, result contract.Result) []ux.Row {
	source := "caller supplied"
	if result.Estimated {
		source = "dry run"
	}
	return []ux.Row{
		{Key: "Contract", Value: req.ContractName()},
		{Key: "Constructor", Value: req.Constructor()},
		{Key: "Value", Value: fmt.Sprintf("%s (%s)", balance.Format(req.Value(), req.Token()), req.Value())},
		{Key: "Ref time", Value: ux.ConvertToStringWithThousandSeparator(result.Weight.RefTime)},
		{Key: "Proof size", Value: ux.ConvertToStringWithThousandSeparator(result.Weight.ProofSize)},
		{Key: "Weight source", Value: source},
		{Key: "Deployer", Value: req.Signer().Address()},
		{Key: "Address", Value: result.Address.String()},
	}
}
