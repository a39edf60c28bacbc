// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package prompts asks the user for values that were not given as flags.
//
// Prompting only happens when stdin is a TTY and neither POP_NON_INTERACTIVE
// nor CI is truthy. Otherwise every prompt fails with ErrNonInteractive so
// scripts learn which flag is missing instead of hanging.
package prompts

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

const (
	Yes = "Yes"
	No  = "No"
)

var errEmptyInput = errors.New("string cannot be empty")

// promptUIRunner is a variable for testing purposes to allow mocking prompt.Run()
var promptUIRunner = func(prompt promptui.Prompt) (string, error) {
	return prompt.Run()
}

// promptUISelectRunner is a variable for testing purposes to allow mocking select.Run()
var promptUISelectRunner = func(sel promptui.Select) (int, string, error) {
	return sel.Run()
}

type Prompter interface {
	// CaptureSecret reads a value without echoing it back.
	CaptureSecret(promptStr string) (string, error)
	CaptureYesNo(promptStr string) (bool, error)
}

type realPrompter struct{}

// NewPrompter returns a Prompter backed by promptui.
func NewPrompter() Prompter {
	return &realPrompter{}
}

func validateNonEmpty(input string) error {
	if strings.TrimSpace(input) == "" {
		return errEmptyInput
	}
	return nil
}

func (*realPrompter) CaptureSecret(promptStr string) (string, error) {
	prompt := promptui.Prompt{
		Label:    promptStr,
		Mask:     '*',
		Validate: validateNonEmpty,
	}

	return promptUIRunner(prompt)
}

func (*realPrompter) CaptureYesNo(promptStr string) (bool, error) {
	prompt := promptui.Select{
		Label: promptStr,
		Items: []string{Yes, No},
	}

	_, decision, err := promptUISelectRunner(prompt)
	if err != nil {
		return false, err
	}
	return decision == Yes, nil
}
