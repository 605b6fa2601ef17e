// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for sheetcsv.
//
// Command: config [subcommand]
// Short:   View and modify the saved settings
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print one value
//   set <key> <value>   Set a configuration value
//   reset               Reset to default configuration
//   path                Show configuration file path
//
// Examples:
//   sheetcsv config set format.separator semicolon
//   sheetcsv config set format.encoding windows-1252
//   sheetcsv config set significant_figures.price 3
//   sheetcsv config set significant_figures.price 0    Remove the entry
//   sheetcsv config get format.quoting --json
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/sheetcsv-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(env *Env, args Args) error {
	switch args.Subcommand {
	case "", "show", "list":
		return handleConfigShow(env, args)
	case "get":
		return handleConfigGet(env, args)
	case "set":
		return handleConfigSet(env, args)
	case "reset":
		return handleConfigReset(env, args)
	case "path":
		return handleConfigPath(env, args)
	default:
		return ErrUnknownSubcommand("config", args.Subcommand, "sheetcsv config [show|get|set|reset|path]")
	}
}

// handleConfigShow displays the current configuration, one dotted key per
// line, grouped by section.
func handleConfigShow(env *Env, args Args) error {
	path, _ := config.ConfigPathTOML()
	if args.JSON {
		return NewJSONResponse("config", ConfigData{Path: path, Value: env.Config}).PrintTo(env.Stdout)
	}

	w := env.Stdout
	fmt.Fprintln(w, TitleStyle.Render("sheetcsv Configuration"))
	fmt.Fprintln(w, RenderSeparator(41))

	section := ""
	for _, key := range env.Config.GetAllKeys() {
		head, rest, ok := strings.Cut(key, ".")
		if !ok {
			head, rest = "", key
		}
		if head != section {
			section = head
			fmt.Fprintln(w, SectionStyle.Render("["+section+"]"))
		}
		value, err := env.Config.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  %s%s\n", RenderLabel(rest+":"), ValueStyle.Render(displayValue(value)))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", DimStyle.Render("File:"), path)
	return nil
}

func handleConfigGet(env *Env, args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "sheetcsv config get format.separator")
	}
	value, err := env.Config.Get(args.ConfigKey)
	if err != nil {
		return configKeyError(args.ConfigKey, err)
	}
	if args.JSON {
		return NewJSONResponse("config", ConfigData{Key: args.ConfigKey, Value: value}).PrintTo(env.Stdout)
	}
	fmt.Fprintln(env.Stdout, displayValue(value))
	return nil
}

// handleConfigSet sets a configuration value. The change is validated as a
// whole before anything is written.
func handleConfigSet(env *Env, args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "sheetcsv config set format.encoding utf-8")
	}
	cfg := env.Config.Clone()
	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return configKeyError(args.ConfigKey, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := cfg.FormatOptions(); err != nil {
		return err
	}
	if err := env.save(cfg); err != nil {
		return &ConfigError{Err: err}
	}
	*env.Config = *cfg

	if args.JSON {
		value, _ := cfg.Get(args.ConfigKey)
		return NewJSONResponse("config", ConfigData{Key: args.ConfigKey, Value: value}).PrintTo(env.Stdout)
	}
	printf(env.Stdout, args.Quiet, "%s %s = %s\n", SuccessStyle.Render("[OK]"), args.ConfigKey, args.ConfigVal)
	return nil
}

func handleConfigReset(env *Env, args Args) error {
	ok, err := RequireConfirmation(env, "Reset every setting to its default?", ConfirmationOptions{
		Forced:   hasArg(args.Raw, "--confirm", "--force", "-f"),
		JSONMode: args.JSON,
		Flag:     "--confirm",
	})
	if err != nil || !ok {
		return err
	}
	cfg := config.Default()
	if err := env.save(cfg); err != nil {
		return &ConfigError{Err: err}
	}
	*env.Config = *cfg
	if args.JSON {
		return NewJSONResponse("config", ConfigData{Value: cfg}).PrintTo(env.Stdout)
	}
	printf(env.Stdout, args.Quiet, "%s Configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
	return nil
}

func handleConfigPath(env *Env, args Args) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return &ConfigError{Err: err}
	}
	if args.JSON {
		return NewJSONResponse("config", ConfigData{Path: path, Value: path}).PrintTo(env.Stdout)
	}
	fmt.Fprintln(env.Stdout, path)
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func configKeyError(key string, err error) error {
	if strings.HasPrefix(err.Error(), "unknown field") {
		return &NotFoundError{Resource: "config key", ID: key, Err: err}
	}
	return NewUsageError(key, "", err.Error())
}

// displayValue renders a config value for the terminal.
func displayValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return `""`
		}
		return fmt.Sprintf("%q", val)
	case map[string]int:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%d", k, val[k]))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}

func hasArg(raw []string, names ...string) bool {
	for _, arg := range raw {
		for _, name := range names {
			if arg == name {
				return true
			}
		}
	}
	return false
}
