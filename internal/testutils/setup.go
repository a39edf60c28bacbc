// Copyright (C) 2022, Lux Partners Limited, All rights reserved.
// See the file LICENSE for licensing terms.

package testutils

import (
	"io"
	"testing"

	luxlog "github.com/luxfi/log"
	"github.com/luxfi/pop/pkg/application"
	"github.com/luxfi/pop/pkg/config"
	"github.com/luxfi/pop/pkg/prompts"
	"github.com/luxfi/pop/pkg/ux"
	"github.com/spf13/viper"
)

// SetupTestInTempDir returns an app rooted in a temp dir with an empty
// config and a prompter that never prompts. User output is discarded.
func SetupTestInTempDir(t *testing.T) *application.Pop {
	testDir := t.TempDir()

	app := application.New()
	app.Setup(testDir, luxlog.NewNoOpLogger(), config.NewWithViper(viper.New()), prompts.NewNonInteractivePrompter(), "test")
	ux.SetUserLog(luxlog.NewNoOpLogger(), io.Discard)
	return app
}
