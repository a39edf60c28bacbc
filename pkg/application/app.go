// Copyright (C) 2022, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package application

import (
	"fmt"
	"os"
	"path/filepath"

	luxlog "github.com/luxfi/log"
	"github.com/luxfi/pop/pkg/config"
	"github.com/luxfi/pop/pkg/constants"
	"github.com/luxfi/pop/pkg/prompts"
)

type Pop struct {
	Log     luxlog.Logger
	baseDir string
	Conf    *config.Config
	Prompt  prompts.Prompter
	// RunID identifies one invocation in the log file.
	RunID string
}

func New() *Pop {
	return &Pop{}
}

func (app *Pop) Setup(baseDir string, log luxlog.Logger, conf *config.Config, prompt prompts.Prompter, runID string) {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	app.baseDir = baseDir
	app.Log = log.New("run", runID)
	app.Conf = conf
	app.Prompt = prompt
	app.RunID = runID
}

func (app *Pop) GetBaseDir() string {
	return app.baseDir
}

func (app *Pop) GetLogDir() string {
	return filepath.Join(app.baseDir, constants.LogDir)
}

func (app *Pop) GetLogFile() string {
	return filepath.Join(app.GetLogDir(), constants.LogFileName)
}

// GetConfigPath is the default config file, ~/.pop/config.json.
func (app *Pop) GetConfigPath() string {
	return filepath.Join(app.baseDir, constants.DefaultConfigFileName+"."+constants.DefaultConfigFileType)
}

// EnsureDirs creates the base and log directories.
func (app *Pop) EnsureDirs() error {
	for _, dir := range []string{app.baseDir, app.GetLogDir()} {
		if err := os.MkdirAll(dir, constants.DefaultPerms755); err != nil {
			return fmt.Errorf("failed creating %s: %w", dir, err)
		}
	}
	return nil
}

func (app *Pop) ConfigFileExists() bool {
	if app.Conf != nil && app.Conf.ConfigFileExists() {
		return true
	}
	_, err := os.Stat(app.GetConfigPath())
	return err == nil
}
