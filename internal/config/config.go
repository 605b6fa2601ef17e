// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and persistence for sheetcsv.
//
// Settings live in a single TOML file with sensible defaults, environment
// variable overrides, and validation.
//
// Configuration file location:
//   - ~/.sheetcsv/config.toml
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/util"
)

// CurrentVersion is written into saved files.
const CurrentVersion = "1"

// SeparatorCustom selects FormatConfig.CustomSeparator as the separator.
const SeparatorCustom = "custom"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete sheetcsv configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Format holds the last-used formatting choices.
	Format FormatConfig `toml:"format" json:"format"`

	// Source remembers the last workbook and sheet.
	Source SourceConfig `toml:"source" json:"source"`

	// SignificantFigures maps a column name to the digits kept for it.
	SignificantFigures map[string]int `toml:"significant_figures" json:"significant_figures"`

	History HistoryConfig `toml:"history" json:"history"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// FormatConfig contains the output format settings as the user typed them.
type FormatConfig struct {
	// Separator is a preset name ("comma", "semicolon", "tab", "pipe",
	// "space"), a literal, or "custom" to use CustomSeparator.
	Separator       string `toml:"separator" json:"separator"`
	CustomSeparator string `toml:"custom_separator" json:"custom_separator"`
	// Quoting is one of none, text, all.
	Quoting string `toml:"quoting" json:"quoting"`
	// Quote is the single quote character.
	Quote      string `toml:"quote" json:"quote"`
	Encoding   string `toml:"encoding" json:"encoding"`
	LineEnding string `toml:"line_ending" json:"line_ending"`
}

// SourceConfig contains the most recently used input.
type SourceConfig struct {
	LastFile string `toml:"last_file" json:"last_file"`
	Sheet    string `toml:"sheet" json:"sheet"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled    bool `toml:"enabled" json:"enabled"`
	MaxEntries int  `toml:"max_entries" json:"max_entries"`
	// Path is the SQLite file (empty = ~/.sheetcsv/history.db)
	Path string `toml:"path" json:"path"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level"`
	// Format is "text" or "json".
	Format string `toml:"format" json:"format"`
	// File receives log output (empty = ~/.sheetcsv/sheetcsv.log for the TUI,
	// stderr for commands).
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Format: FormatConfig{
			Separator:  "comma",
			Quoting:    "text",
			Quote:      `"`,
			Encoding:   "utf-8",
			LineEnding: "auto",
		},
		SignificantFigures: map[string]int{},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the sheetcsv configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sheetcsv"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// HistoryPath resolves the history database location.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return expandHome(c.History.Path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// LogPath resolves the log file used by the interactive interface.
func (c *Config) LogPath() (string, error) {
	if c.Logging.File != "" {
		return expandHome(c.Logging.File)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sheetcsv.log"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.sheetcsv/config.toml, falling back to
// defaults when the file does not exist. Environment overrides are applied
// last, then the result is validated.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadTOML decodes a TOML file into cfg and fills missing values.
func LoadTOML(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
// Keys missing from the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Format
	if cfg.Format.Separator == "" {
		cfg.Format.Separator = defaults.Format.Separator
	}
	if cfg.Format.Quoting == "" {
		cfg.Format.Quoting = defaults.Format.Quoting
	}
	if cfg.Format.Quote == "" {
		cfg.Format.Quote = defaults.Format.Quote
	}
	if cfg.Format.Encoding == "" {
		cfg.Format.Encoding = defaults.Format.Encoding
	}
	if cfg.Format.LineEnding == "" {
		cfg.Format.LineEnding = defaults.Format.LineEnding
	}

	if cfg.SignificantFigures == nil {
		cfg.SignificantFigures = map[string]int{}
	}

	if cfg.History.MaxEntries == 0 {
		cfg.History.MaxEntries = defaults.History.MaxEntries
	}

	// Logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# sheetcsv configuration file\n")
	sb.WriteString("# Written on exit and by --save-settings - edit with care\n\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, []byte(sb.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Format settings go through the same parsers the engine uses, so a
	// config that validates always yields usable options.
	if _, err := c.separator(); err != nil {
		errs = append(errs, ValidationError{Field: "format.separator", Message: reason(err)})
	}
	if _, err := csvfmt.ParseQuoting(c.Format.Quoting); err != nil {
		errs = append(errs, ValidationError{Field: "format.quoting", Message: reason(err)})
	}
	if _, err := csvfmt.ParseEncoding(c.Format.Encoding); err != nil {
		errs = append(errs, ValidationError{Field: "format.encoding", Message: reason(err)})
	}
	if _, err := csvfmt.ParseLineEnding(c.Format.LineEnding); err != nil {
		errs = append(errs, ValidationError{Field: "format.line_ending", Message: reason(err)})
	}
	if len(errs) == 0 {
		// Cross-field checks (quote length, encodability) need parsed values.
		if _, err := c.FormatOptions(); err != nil {
			var cfgErr *csvfmt.ConfigurationError
			field := "format"
			if errors.As(err, &cfgErr) {
				field = configField(cfgErr.Field)
			}
			errs = append(errs, ValidationError{Field: field, Message: reason(err)})
		}
	}

	if c.History.MaxEntries < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.max_entries",
			Message: fmt.Sprintf("must be non-negative, got %d", c.History.MaxEntries),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: text, json", c.Logging.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// configField maps an engine option name to its config key.
func configField(field string) string {
	switch {
	case field == "quote_char":
		return "format.quote"
	case strings.HasPrefix(field, "significant_figures."):
		return field
	default:
		return "format." + field
	}
}

func reason(err error) string {
	var cfgErr *csvfmt.ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Reason
	}
	return err.Error()
}

// =============================================================================
// FORMAT OPTIONS
// =============================================================================

// FormatOptions builds the engine options for one run. The returned value
// shares nothing with c, so later edits to the config do not leak into a
// run that is already going.
func (c *Config) FormatOptions() (csvfmt.Options, error) {
	opts := csvfmt.DefaultOptions()

	sep, err := c.separator()
	if err != nil {
		return csvfmt.Options{}, err
	}
	opts.Separator = sep

	if opts.Quoting, err = csvfmt.ParseQuoting(c.Format.Quoting); err != nil {
		return csvfmt.Options{}, err
	}
	if opts.Encoding, err = csvfmt.ParseEncoding(c.Format.Encoding); err != nil {
		return csvfmt.Options{}, err
	}
	if opts.LineEnding, err = csvfmt.ParseLineEnding(c.Format.LineEnding); err != nil {
		return csvfmt.Options{}, err
	}
	opts.QuoteChar = c.Format.Quote

	if len(c.SignificantFigures) > 0 {
		opts.SignificantFigures = make(map[string]int, len(c.SignificantFigures))
		for column, n := range c.SignificantFigures {
			opts.SignificantFigures[column] = n
		}
	}

	if err := opts.Validate(); err != nil {
		return csvfmt.Options{}, err
	}
	return opts, nil
}

// ApplyFormatOptions stores opts back into the format section. A separator
// that matches a preset is saved by name; anything else goes to the custom
// field.
func (c *Config) ApplyFormatOptions(opts csvfmt.Options) {
	c.Format.Separator = SeparatorCustom
	// ParseSeparator treats backslashes as escapes on the way back in.
	c.Format.CustomSeparator = strings.ReplaceAll(opts.Separator, `\`, `\\`)
	for _, name := range SeparatorPresets() {
		if presetValue(name) == opts.Separator {
			c.Format.Separator = name
			c.Format.CustomSeparator = ""
			break
		}
	}
	c.Format.Quoting = opts.Quoting.String()
	c.Format.Quote = opts.QuoteChar
	c.Format.Encoding = opts.Encoding.String()
	c.Format.LineEnding = opts.LineEnding.String()

	c.SignificantFigures = make(map[string]int, len(opts.SignificantFigures))
	for column, n := range opts.SignificantFigures {
		c.SignificantFigures[column] = n
	}
}

// SeparatorPresets lists the named separators in display order.
func SeparatorPresets() []string {
	return []string{"comma", "semicolon", "tab", "pipe", "space"}
}

func presetValue(name string) string {
	sep, _ := csvfmt.ParseSeparator(name)
	return sep
}

func (c *Config) separator() (string, error) {
	if strings.EqualFold(c.Format.Separator, SeparatorCustom) {
		if c.Format.CustomSeparator == "" {
			return "", &csvfmt.ConfigurationError{
				Field:  "separator",
				Value:  SeparatorCustom,
				Reason: "custom separator selected but custom_separator is empty",
			}
		}
		return csvfmt.ParseSeparator(c.Format.CustomSeparator)
	}
	return csvfmt.ParseSeparator(c.Format.Separator)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SHEETCSV_SEPARATOR: overrides format.separator
//   - SHEETCSV_ENCODING: overrides format.encoding
//   - SHEETCSV_QUOTING: overrides format.quoting
//   - SHEETCSV_LINE_ENDING: overrides format.line_ending
//   - SHEETCSV_LOG_LEVEL: overrides logging.level
func (c *Config) ApplyEnvOverrides() {
	if sep := os.Getenv("SHEETCSV_SEPARATOR"); sep != "" {
		c.Format.Separator = sep
		if !strings.EqualFold(sep, SeparatorCustom) {
			c.Format.CustomSeparator = ""
		}
	}
	if enc := os.Getenv("SHEETCSV_ENCODING"); enc != "" {
		c.Format.Encoding = enc
	}
	if quoting := os.Getenv("SHEETCSV_QUOTING"); quoting != "" {
		c.Format.Quoting = quoting
	}
	if le := os.Getenv("SHEETCSV_LINE_ENDING"); le != "" {
		c.Format.LineEnding = le
	}
	if level := os.Getenv("SHEETCSV_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "format.encoding").
// Map sections take the column as the last part ("significant_figures.price").
func (c *Config) Get(key string) (interface{}, error) {
	field, mapKey, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if mapKey == "" {
		return field.Interface(), nil
	}
	v := field.MapIndex(reflect.ValueOf(mapKey))
	if !v.IsValid() {
		return nil, fmt.Errorf("unknown field: %s", key)
	}
	return v.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "format.quoting").
// Setting a map entry to "" or "0" removes it.
func (c *Config) Set(key string, value interface{}) error {
	field, mapKey, err := c.lookup(key)
	if err != nil {
		return err
	}
	if mapKey == "" {
		if !field.CanSet() {
			return fmt.Errorf("cannot set field: %s", key)
		}
		if field.Kind() == reflect.Map || field.Kind() == reflect.Struct {
			return fmt.Errorf("field '%s' is a section; set one of its keys", key)
		}
		return setFieldValue(field, value)
	}

	if field.IsNil() {
		field.Set(reflect.MakeMap(field.Type()))
	}
	elem := reflect.New(field.Type().Elem()).Elem()
	if err := setFieldValue(elem, value); err != nil {
		return err
	}
	if elem.IsZero() {
		field.SetMapIndex(reflect.ValueOf(mapKey), reflect.Value{})
		return nil
	}
	field.SetMapIndex(reflect.ValueOf(mapKey), elem)
	return nil
}

// lookup walks the dotted key. For map fields the final part is returned as
// mapKey and field is the map itself.
func (c *Config) lookup(key string) (reflect.Value, string, error) {
	if key == "" {
		return reflect.Value{}, "", errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, "", fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field, "", nil
		}

		switch field.Kind() {
		case reflect.Struct:
			v = field
		case reflect.Map:
			if i != len(parts)-2 {
				return reflect.Value{}, "", fmt.Errorf("invalid key: %s", key)
			}
			// Column names keep their original spelling, dots excluded.
			return field, parts[i+1], nil
		default:
			return reflect.Value{}, "", fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return reflect.Value{}, "", fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			if strVal == "" {
				field.SetInt(0)
				return nil
			}
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			switch strings.ToLower(strVal) {
			case "1", "true", "yes", "on":
				field.SetBool(true)
			case "0", "false", "no", "off", "":
				field.SetBool(false)
			default:
				return fmt.Errorf("invalid boolean value: %q", strVal)
			}
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation. Significant
// figure entries are listed per column.
func (c *Config) GetAllKeys() []string {
	keys := []string{
		"version",
		"format.separator",
		"format.custom_separator",
		"format.quoting",
		"format.quote",
		"format.encoding",
		"format.line_ending",
		"source.last_file",
		"source.sheet",
		"history.enabled",
		"history.max_entries",
		"history.path",
		"logging.level",
		"logging.format",
		"logging.file",
	}
	columns := make([]string, 0, len(c.SignificantFigures))
	for column := range c.SignificantFigures {
		columns = append(columns, "significant_figures."+column)
	}
	sort.Strings(columns)
	return append(keys, columns...)
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.SignificantFigures != nil {
		clone.SignificantFigures = make(map[string]int, len(c.SignificantFigures))
		for k, v := range c.SignificantFigures {
			clone.SignificantFigures[k] = v
		}
	}
	return &clone
}

// String returns a string representation of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
