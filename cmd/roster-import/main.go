// roster-import adds students from CSV on stdin to the roster database.
//
//	roster-import --storage-path=students.db < students.csv
//
// Rows are "first,last"; a "first_name,last_name" header is optional.
// It accepts the same flags, config file and environment as student-roster.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aanand-mishra/student-roster/internal/config"
	"github.com/aanand-mishra/student-roster/internal/importer"
	"github.com/aanand-mishra/student-roster/internal/logger"
	"github.com/aanand-mishra/student-roster/internal/storage/sqlite"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.MustLoad(os.Args)
	log := logger.New(cfg.Env, os.Stderr)

	store, err := sqlite.Open(cfg, log)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("path", cfg.StoragePath),
			slog.String("error", err.Error()))
		return 1
	}
	defer store.Close()

	if err := store.EnsureSchema(); err != nil {
		log.Error("failed to create students table", slog.String("error", err.Error()))
		return 1
	}

	result, err := importer.New(store, log, os.Stderr).Import(os.Stdin)
	if err == nil && len(result.Added) == 0 && len(result.Rejected) > 0 {
		err = importer.ErrNothingImported
	}
	if err != nil {
		log.Error("import failed", slog.String("error", err.Error()))
		return 1
	}

	fmt.Printf("Imported %d students into %s", len(result.Added), store.Path())
	if n := len(result.Rejected); n > 0 {
		fmt.Printf(" (%d rows rejected, see log)", n)
	}
	fmt.Println()

	counts, malformed := result.RejectedByKind()
	for _, c := range counts {
		fmt.Printf("  %-20s %d\n", c.Kind, c.Count)
	}
	if malformed > 0 {
		fmt.Printf("  %-20s %d\n", "malformed row", malformed)
	}

	return 0
}
