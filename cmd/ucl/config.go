package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/shibukawa/ucl/parser"
	"github.com/shibukawa/ucl/tokenizer"
)

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

const defaultConfigFile = "ucl.yaml"

// Config represents the tool configuration
type Config struct {
	MaxDepth         int               `yaml:"max_depth"`
	DuplicateKeys    string            `yaml:"duplicate_keys"` // implicit-array, error, override
	SizeSuffixBinary bool              `yaml:"size_suffix_binary"`
	StrictUnicode    bool              `yaml:"strict_unicode"`
	MaxTokens        int               `yaml:"max_tokens"`
	MaxStringLength  int               `yaml:"max_string_length"`
	Variables        map[string]string `yaml:"variables"`
}

// LoadConfig loads configuration from the given path. When path is empty
// the default file is used if it exists; a missing default is not an
// error.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.DuplicateKeys {
	case "", "implicit-array", "error", "override":
	default:
		return fmt.Errorf("%w: unknown duplicate_keys policy %q", ErrConfigValidation, c.DuplicateKeys)
	}
	if c.MaxDepth < 0 || c.MaxTokens < 0 || c.MaxStringLength < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrConfigValidation)
	}
	return nil
}

// ParserOptions converts the configuration to parser options.
func (c *Config) ParserOptions() parser.Options {
	opts := parser.DefaultOptions()

	if c.MaxDepth > 0 {
		opts.MaxDepth = c.MaxDepth
	}

	switch c.DuplicateKeys {
	case "error":
		opts.DuplicateKeys = parser.DuplicateError
	case "override":
		opts.DuplicateKeys = parser.DuplicateOverride
	}

	tok := tokenizer.DefaultOptions()
	tok.SizeSuffixBinary = c.SizeSuffixBinary
	tok.StrictUnicode = c.StrictUnicode
	if c.MaxTokens > 0 {
		tok.MaxTokens = c.MaxTokens
	}
	if c.MaxStringLength > 0 {
		tok.MaxStringLength = c.MaxStringLength
	}
	opts.Tokenizer = tok

	return opts
}
