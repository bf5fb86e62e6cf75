// main is the entry point of the student roster console program.
//
// STARTUP SEQUENCE:
//  1. Load configuration (flags, YAML file, environment)
//  2. Initialise the logger (diagnostics go to stderr)
//  3. Open the SQLite database; failure here is the only fatal error
//  4. Create the students table (logged, but the menu still starts)
//  5. Run the menu loop until the user exits
//  6. Close the database exactly once, whatever happened before
//
// RUNNING:
//
//	go run ./cmd/student-roster --config=config/local.yaml
//
// or (with environment variables):
//
//	STORAGE_PATH=students.db go run ./cmd/student-roster
package main

import (
	"log/slog"
	"os"

	"github.com/aanand-mishra/student-roster/internal/config"
	"github.com/aanand-mishra/student-roster/internal/logger"
	"github.com/aanand-mishra/student-roster/internal/menu"
	"github.com/aanand-mishra/student-roster/internal/storage/sqlite"
)

const version = "1.0.0"

func main() {
	// os.Exit skips deferred calls, so everything that needs cleanup
	// lives in run.
	os.Exit(run())
}

func run() int {
	cfg := config.MustLoad(os.Args)

	log := logger.New(cfg.Env, os.Stderr)
	log.Debug("starting student-roster",
		slog.String("env", cfg.Env),
		slog.String("version", version))

	// New only records the configuration; nothing touches the disk until
	// Initialize. Registering Close first means the handle is released on
	// every return path below, including the early "return 1".
	store := sqlite.New(cfg, log)
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	if err := store.Initialize(cfg.StoragePath); err != nil {
		log.Error("failed to initialise storage",
			slog.String("path", cfg.StoragePath),
			slog.String("error", err.Error()))
		return 1
	}

	// A broken schema surfaces again on the first add/view; the menu
	// still starts so the user can see those errors.
	if err := store.EnsureSchema(); err != nil {
		log.Error("failed to create students table", slog.String("error", err.Error()))
	}

	// On a terminal the prompter is a line editor with history; when stdin
	// is a pipe or file it falls back to reading plain lines.
	prompt := menu.NewPrompter(os.Stdin, os.Stdout)
	defer prompt.Close()

	if err := menu.New(store, prompt, os.Stdout, os.Stderr, log).Run(); err != nil {
		log.Error("menu stopped", slog.String("error", err.Error()))
		return 1
	}

	return 0
}
