package console

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fortio.org/log"
	"github.com/smarthome-go/hmsconsole/homescript/compiler"
	"github.com/smarthome-go/hmsconsole/homescript/runtime"
	"gopkg.in/yaml.v3"
)

// The console configuration as read from a YAML file.
// Missing keys keep their default values.
type Config struct {
	ReturnMode             ReturnMode `yaml:"return_mode"`
	QuietTrailingSemicolon bool       `yaml:"quiet_trailing_semicolon"`
	Filename               string     `yaml:"filename"`
	// Features which are enabled from the start, like `use` would.
	Features      []string `yaml:"features"`
	CallStackSize uint     `yaml:"call_stack_size"`
	StackSize     uint     `yaml:"stack_size"`
	LogLevel      string   `yaml:"log_level"`
	// Maximum length of a displayed result, zero disables shortening.
	OutputLimit           int    `yaml:"output_limit"`
	Banner                string `yaml:"banner"`
	PersistentRedirection bool   `yaml:"persistent_redirection"`
}

func DefaultConfig() Config {
	limits := runtime.DefaultLimits()

	return Config{
		ReturnMode:             ReturnLastExpression,
		QuietTrailingSemicolon: true,
		Filename:               "<console>",
		Features:               make([]string, 0),
		CallStackSize:          limits.CallStackMaxSize,
		StackSize:              limits.StackMaxSize,
		LogLevel:               "info",
		OutputLimit:            DefaultReprLimit,
		Banner:                 Banner(),
	}
}

func LoadConfig(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config file: %w", err)
	}

	config, err := ParseConfig(content)
	if err != nil {
		return Config{}, fmt.Errorf("invalid config file `%s`: %w", path, err)
	}

	log.Debugf("Loaded config from `%s`", path)
	return config, nil
}

// Parses a YAML document on top of the default configuration.
// Unknown keys and features are rejected.
func ParseConfig(content []byte) (Config, error) {
	config := DefaultConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	// An empty document leaves the defaults in place.
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}

	if _, err := config.Flags(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// The flags corresponding to the configured features.
func (self Config) Flags() (compiler.Flags, error) {
	var flags compiler.Flags

	for _, name := range self.Features {
		flag, found := compiler.LookupFeature(name)
		if !found {
			return 0, fmt.Errorf(
				"unknown feature '%s', available features are: %s",
				name,
				strings.Join(compiler.FeatureNames(), ", "),
			)
		}
		flags |= flag
	}

	return flags, nil
}

func (self Config) RunnerOptions() (RunnerOptions, error) {
	flags, err := self.Flags()
	if err != nil {
		return RunnerOptions{}, err
	}

	options := DefaultRunnerOptions()
	options.ReturnMode = self.ReturnMode
	options.QuietTrailingSemicolon = self.QuietTrailingSemicolon
	options.Flags = flags
	if self.Filename != "" {
		options.Filename = self.Filename
	}
	if self.CallStackSize != 0 {
		options.Limits.CallStackMaxSize = self.CallStackSize
	}
	if self.StackSize != 0 {
		options.Limits.StackMaxSize = self.StackSize
	}

	return options, nil
}
