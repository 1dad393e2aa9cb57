package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/zoobzio/persist"
)

// Config holds everything the host needs to run a module.
// Precedence, lowest first: defaults, YAML file, environment, flags.
type Config struct {
	Module     string `yaml:"module" env:"PERSIST_MODULE" validate:"required"`
	ModuleDir  string `yaml:"module_dir" env:"PERSIST_MODULE_DIR"`
	ShadowDir  string `yaml:"shadow_dir" env:"PERSIST_SHADOW_DIR"`
	Codec      string `yaml:"codec" env:"PERSIST_CODEC" validate:"oneof=msgpack json yaml cbor"`
	HaltOnExit bool   `yaml:"halt_on_exit" env:"PERSIST_HALT_ON_EXIT"`
	LogLevel   string `yaml:"log_level" env:"PERSIST_LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat  string `yaml:"log_format" env:"PERSIST_LOG_FORMAT" validate:"oneof=text json"`
}

// ExitError carries the process exit code for a configuration failure.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

var validate = validator.New()

func defaultConfig() Config {
	return Config{
		Codec:     "msgpack",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// ArtifactPath resolves where the module artifact lives.
func (c Config) ArtifactPath() (string, error) {
	if c.ModuleDir != "" {
		return filepath.Join(c.ModuleDir, persist.LibraryName(c.Module)), nil
	}
	return persist.ArtifactPath(c.Module)
}

// parseConfig builds a Config from args and the environment. It returns
// true when the caller should exit cleanly, as after -h.
func parseConfig(args []string, output io.Writer) (*Config, bool, error) {
	fs := flag.NewFlagSet("persist", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
persist - run a module with hot reload and preserved state.

Usage:
  persist [options] [MODULE]

Options:
`)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "Path to a YAML config file.")
	module := fs.String("module", "", "Module name, without platform prefix or suffix.")
	moduleDir := fs.String("module-dir", "", "Directory holding the module artifact. Defaults to the executable's directory.")
	shadowDir := fs.String("shadow-dir", "", "Directory for per-load copies of the artifact. Defaults to the system temp dir.")
	codec := fs.String("codec", "", "Codec for preserved resources: msgpack, json, yaml or cbor.")
	haltOnExit := fs.Bool("halt-on-exit", false, "Stop when a run ends without a pending reload.")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn or error.")
	logFormat := fs.String("log-format", "", "Log format: text or json.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	cfg := defaultConfig()

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("read config: %v", err)}
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("parse config %s: %v", *configPath, err)}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("parse env: %v", err)}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "module":
			cfg.Module = *module
		case "module-dir":
			cfg.ModuleDir = *moduleDir
		case "shadow-dir":
			cfg.ShadowDir = *shadowDir
		case "codec":
			cfg.Codec = *codec
		case "halt-on-exit":
			cfg.HaltOnExit = *haltOnExit
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		}
	})
	if cfg.Module == "" && fs.NArg() > 0 {
		cfg.Module = fs.Arg(0)
	}

	cfg.Codec = strings.ToLower(cfg.Codec)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := validate.Struct(cfg); err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid config: %v", err)}
	}
	return &cfg, false, nil
}
