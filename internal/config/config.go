// Package config handles loading and parsing application configuration.
// It supports these sources (highest priority first):
//  1. Command-line flags:      --storage-path=roster.db --driver=sqlite
//  2. A YAML file given by --config or the CONFIG_PATH environment variable
//  3. Environment variables (STORAGE_PATH, STORAGE_DRIVER, ...), including
//     a .env file in the working directory
//  4. The env-default values on Config
//
// The parsed values are returned as a *Config pointer so the struct is
// shared by reference rather than copied everywhere.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/student-roster/internal/validate"
	"github.com/alexflint/go-arg"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev" validate:"oneof=dev staging prod"`

	// StoragePath is the filesystem path to the SQLite .db file. An empty
	// path is rejected by the store, not here.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"students.db"`

	// Driver selects the database/sql driver: "sqlite3" is mattn/go-sqlite3
	// (cgo), "sqlite" is modernc.org/sqlite (pure Go).
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite3" validate:"oneof=sqlite3 sqlite"`

	// FirstID is the ID handed to the first student of a freshly created
	// table. 22001 keeps existing rosters and printed IDs compatible.
	FirstID int64 `yaml:"first_id" env:"FIRST_STUDENT_ID" env-default:"22001" validate:"gt=0"`

	// StrictSchema makes schema creation fail when the students table
	// already exists instead of treating it as success.
	StrictSchema bool `yaml:"strict_schema" env:"STRICT_SCHEMA" env-default:"false"`
}

// cliArgs are the command-line flags. Empty values leave the file/env
// configuration untouched.
type cliArgs struct {
	Config      string `arg:"--config,env:CONFIG_PATH" help:"path to the configuration YAML file"`
	EnvFile     string `arg:"--env-file" default:".env" help:"dotenv file loaded before reading the environment"`
	StoragePath string `arg:"--storage-path" help:"SQLite database file, overrides storage_path"`
	Driver      string `arg:"--driver" help:"database driver: sqlite3 or sqlite, overrides driver"`
	Env         string `arg:"--env" help:"environment: dev, staging or prod, overrides env"`
}

func (cliArgs) Description() string {
	return "Manage a roster of students stored in an SQLite file."
}

func newParser(program string, dest *cliArgs) (*arg.Parser, error) {
	return arg.NewParser(arg.Config{Program: program}, dest)
}

// Load parses args (os.Args style, program name first) and returns the
// validated configuration. arg.ErrHelp is returned untouched when --help
// is requested.
func Load(args []string) (*Config, error) {
	if len(args) == 0 {
		return nil, errors.New("config.Load: missing program name")
	}

	var flags cliArgs
	parser, err := newParser(filepath.Base(args[0]), &flags)
	if err != nil {
		return nil, fmt.Errorf("config.Load: build parser: %w", err)
	}
	if err := parser.Parse(args[1:]); err != nil {
		if errors.Is(err, arg.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("config.Load: parse flags: %w", err)
	}

	// godotenv never overrides variables that are already set, so real
	// environment variables still win over the file.
	if flags.EnvFile != "" {
		if err := godotenv.Load(flags.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config.Load: read env file: %w", err)
		}
	}

	var cfg Config
	if flags.Config != "" {
		if _, err := os.Stat(flags.Config); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config.Load: config file does not exist: %s", flags.Config)
		}
		if err := cleanenv.ReadConfig(flags.Config, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read config: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read env: %w", err)
		}
	}

	if flags.StoragePath != "" {
		cfg.StoragePath = flags.StoragePath
	}
	if flags.Driver != "" {
		cfg.Driver = flags.Driver
	}
	if flags.Env != "" {
		cfg.Env = flags.Env
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to exit on failure. If this
// function returns, the config is valid.
func MustLoad(args []string) *Config {
	cfg, err := Load(args)
	if errors.Is(err, arg.ErrHelp) {
		var flags cliArgs
		if parser, perr := newParser(filepath.Base(args[0]), &flags); perr == nil {
			parser.WriteHelp(os.Stdout)
		}
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}

	return cfg
}
