// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation prompts for destructive actions.
//
// The pattern is the same everywhere:
//  1. If --force (or --confirm) is present, proceed without prompting
//  2. If --json mode, require the flag (no interactive prompts in JSON mode)
//  3. If stdin is not a TTY, require the flag (can't prompt)
//  4. Otherwise, ask on the terminal

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/peterh/liner"
)

// ConfirmationOptions describes how a command may confirm.
type ConfirmationOptions struct {
	// Forced indicates --force or --confirm was passed
	Forced bool
	// JSONMode indicates --json was passed
	JSONMode bool
	// Flag names the flag that skips the prompt, for error messages
	Flag string
}

// RequireConfirmation reports whether the action may proceed. A declined
// prompt returns false with a nil error.
func RequireConfirmation(env *Env, prompt string, opts ConfirmationOptions) (bool, error) {
	if opts.Forced {
		return true, nil
	}
	flag := opts.Flag
	if flag == "" {
		flag = "--force"
	}
	if opts.JSONMode {
		return false, &UsageError{Field: flag, Reason: "is required in JSON mode"}
	}
	if env.Confirm == nil && !CanPrompt() {
		return false, &UsageError{Field: flag, Reason: "is required when stdin is not a terminal"}
	}
	return env.confirm(prompt)
}

// PromptConfirm asks a yes/no question on the terminal. Ctrl+C answers no.
func PromptConfirm(prompt string) (bool, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	answer, err := line.Prompt(fmt.Sprintf("%s [y/N]: ", prompt))
	if errors.Is(err, liner.ErrPromptAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
