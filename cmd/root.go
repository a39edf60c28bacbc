// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	luxlog "github.com/luxfi/log"
	"github.com/luxfi/log/level"
	"github.com/luxfi/pop/cmd/upcmd"
	"github.com/luxfi/pop/pkg/application"
	"github.com/luxfi/pop/pkg/config"
	"github.com/luxfi/pop/pkg/constants"
	"github.com/luxfi/pop/pkg/prompts"
	"github.com/luxfi/pop/pkg/ux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	app        *application.Pop
	logFactory luxlog.Factory

	logLevel       string
	Version        = "0.1.0"
	cfgFile        string
	nonInteractive bool
	skipEnv        bool
)

func NewRootCmd() *cobra.Command {
	// rootCmd represents the base command when called without any subcommands
	rootCmd := &cobra.Command{
		Use: "pop",
		Long: `Pop CLI - deploy ink! smart contracts to Substrate nodes.

QUICK START:

  # Build the contract first, then deploy it to a local node
  pop up contract --path ./flipper --args true --suri //Alice

Settings can also come from POP_URL, POP_SURI and POP_TIMEOUT, a .env file in
the working directory, or $HOME/.pop/config.json.`,
		PersistentPreRunE: createApp,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Disable printing the completion command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pop/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "ERROR", "log level shown on the console")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false,
		"Disable prompts; fail if required values are missing (also enabled when stdin is not a TTY or CI=1)")
	rootCmd.PersistentFlags().BoolVar(&skipEnv, constants.SkipEnvFlag, false, "do not load the .env file of the working directory")

	// add up command
	rootCmd.AddCommand(upcmd.NewCmd(app))

	return rootCmd
}

func createApp(_ *cobra.Command, _ []string) error {
	if !skipEnv {
		if err := loadDotEnv(); err != nil {
			return err
		}
	}
	baseDir, err := setupEnv()
	if err != nil {
		return err
	}
	log, err := setupLogging(baseDir, logLevel)
	if err != nil {
		return err
	}
	if err := initConfig(baseDir); err != nil {
		return err
	}

	prompts.SetNonInteractive(nonInteractive)
	app.Setup(baseDir, log, config.New(), prompts.NewPrompterForMode(), uuid.NewString())
	app.Log.Debug("pop started", "version", Version, "config", viper.ConfigFileUsed())
	return nil
}

// loadDotEnv reads .env from the working directory. Variables already set in
// the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed loading .env: %w", err)
	}
	return nil
}

func setupEnv() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		// no logger here yet
		return "", fmt.Errorf("unable to get the home directory: %w", err)
	}
	baseDir := filepath.Join(home, constants.BaseDirName)
	if err := os.MkdirAll(filepath.Join(baseDir, constants.LogDir), 0o750); err != nil {
		return "", fmt.Errorf("failed creating the basedir %s: %w", baseDir, err)
	}
	return baseDir, nil
}

// setupLogging writes every level to a rotated file under baseDir and
// displays displayLevel and above on the console.
func setupLogging(baseDir, displayLevel string) (luxlog.Logger, error) {
	display, err := luxlog.ToLevel(displayLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", displayLevel, err)
	}

	config := luxlog.Config{}
	config.LogLevel = luxlog.Level(level.Debug)
	config.DisplayLevel = display
	config.Directory = filepath.Join(baseDir, constants.LogDir)
	if err := os.MkdirAll(config.Directory, constants.DefaultPerms755); err != nil {
		return nil, fmt.Errorf("failed creating log directory: %w", err)
	}

	// some logging config params
	config.LogFormat = luxlog.Colors
	config.MaxSize = constants.MaxLogFileSize
	config.MaxFiles = constants.MaxNumOfLogFiles
	config.MaxAge = constants.RetainOldFiles

	// caller tracking should show the command, not the ux wrapper
	luxlog.RegisterInternalPackages("github.com/luxfi/pop/pkg/ux")

	factory := luxlog.NewFactoryWithConfig(config)
	log, err := factory.Make(constants.LogName)
	if err != nil {
		factory.Close()
		return nil, fmt.Errorf("failed setting up logging, exiting: %w", err)
	}
	logFactory = factory
	// create the user facing logger as a global var
	ux.NewUserLog(log, os.Stdout)
	return log, nil
}

// initConfig reads in config file and ENV variables if set.
// Priority: flags > env vars > config file > defaults
func initConfig(baseDir string) error {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(baseDir)
		viper.SetConfigType(constants.DefaultConfigFileType)
		viper.SetConfigName(constants.DefaultConfigFileName) // config.json
	}

	// POP_URL -> url, POP_SURI -> suri, POP_TIMEOUT -> timeout
	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
	case errors.As(err, &notFound) && cfgFile == "":
		// No config file is normal - most users don't have one
	default:
		return fmt.Errorf("failed reading config file: %w", err)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app = application.New()
	rootCmd := NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if app.Log != nil && err != nil {
		app.Log.Error("command failed", "error", err)
	}
	if logFactory != nil {
		logFactory.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nERROR: %s\n", err)
		os.Exit(1)
	}
}
