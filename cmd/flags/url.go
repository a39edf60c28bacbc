// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package flags

import (
	"fmt"
	"net/url"

	"github.com/luxfi/pop/pkg/application"
	"github.com/luxfi/pop/pkg/constants"
	"github.com/spf13/cobra"
)

const urlFlag = "url"

// AddURLFlagToCmd registers --url. When the flag is not given the value falls
// back to POP_URL or the config file, then to the local node.
func AddURLFlagToCmd(cmd *cobra.Command, app *application.Pop, nodeURL *string) {
	cmd.Flags().StringVar(nodeURL, urlFlag, constants.DefaultNodeURL, "websocket endpoint of the node")

	existingPreRunE := cmd.PreRunE
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if existingPreRunE != nil {
			if err := existingPreRunE(cmd, args); err != nil {
				return err
			}
		}
		if !cmd.Flags().Changed(urlFlag) && app.Conf != nil && app.Conf.ConfigValueIsSet(constants.ConfigURL) {
			*nodeURL = app.Conf.GetConfigStringValue(constants.ConfigURL)
		}
		return ValidateURL(*nodeURL)
	}
}

// ValidateURL accepts ws, wss, http and https endpoints with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", constants.ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("%w, got %q", constants.ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w, %q has no host", constants.ErrInvalidURL, raw)
	}
	return nil
}
