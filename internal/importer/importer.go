// Package importer bulk-loads students from CSV into the roster.
//
// Each row is one AddStudent call, so every row is its own unit of work:
// a rejected row is logged and skipped, it never undoes rows already added.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aanand-mishra/student-roster/internal/storage"
	"github.com/schollz/progressbar/v3"
)

// Adder is the slice of storage.Storage the importer needs.
type Adder interface {
	AddStudent(firstName, lastName string) (int64, error)
}

// ErrNothingImported is returned by callers that treat an import with no
// added rows as a failure.
var ErrNothingImported = errors.New("no students imported")

// Rejected describes a row that could not be added.
type Rejected struct {
	Line int
	Err  error
}

// Result summarizes an import.
type Result struct {
	Added    []int64
	Rejected []Rejected
}

// KindCount is the number of rejected rows that failed with Kind.
type KindCount struct {
	Kind  storage.Kind
	Count int
}

// RejectedByKind groups the rejected rows by storage failure kind, in
// the order kinds are declared in storage.Kinds. Rows that never reached
// the store, such as a wrong field count, are returned as malformed.
func (r Result) RejectedByKind() (counts []KindCount, malformed int) {
	byKind := make(map[storage.Kind]int)
	for _, rej := range r.Rejected {
		kind, ok := storage.KindOf(rej.Err)
		if !ok {
			malformed++
			continue
		}
		byKind[kind]++
	}

	for _, kind := range storage.Kinds.Members() {
		if n := byKind[kind]; n > 0 {
			counts = append(counts, KindCount{Kind: kind, Count: n})
		}
	}
	return counts, malformed
}

// Importer reads "first,last" rows. An optional first row
// "first_name,last_name" (any case) is treated as a header.
type Importer struct {
	store    Adder
	log      *slog.Logger
	progress io.Writer
}

// New returns an Importer. Progress is drawn on progress; pass io.Discard
// to hide it.
func New(store Adder, log *slog.Logger, progress io.Writer) *Importer {
	return &Importer{
		store:    store,
		log:      log.With(slog.String("component", "importer")),
		progress: progress,
	}
}

// Import reads every record from r and adds it. Only malformed CSV aborts
// the import; storage failures are collected in Result.Rejected.
func (im *Importer) Import(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("importer: read csv: %w", err)
	}

	first := 0
	if len(records) > 0 && isHeader(records[0]) {
		first = 1
	}
	rows := records[first:]
	if len(rows) == 0 {
		im.log.Info("nothing to import")
		return Result{}, nil
	}

	bar := progressbar.NewOptions(len(rows),
		progressbar.OptionSetWriter(im.progress),
		progressbar.OptionSetDescription("importing students"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Close()

	var result Result
	for i, record := range rows {
		line := first + i + 1

		id, err := im.addRecord(record)
		if err != nil {
			im.log.Warn("row rejected",
				slog.Int("line", line),
				slog.String("error", err.Error()))
			result.Rejected = append(result.Rejected, Rejected{Line: line, Err: err})
		} else {
			result.Added = append(result.Added, id)
		}

		_ = bar.Add(1)
	}
	_ = bar.Finish()

	im.log.Info("import finished",
		slog.Int("added", len(result.Added)),
		slog.Int("rejected", len(result.Rejected)))
	return result, nil
}

func (im *Importer) addRecord(record []string) (int64, error) {
	if len(record) != 2 {
		return 0, fmt.Errorf("expected 2 fields, got %d", len(record))
	}
	return im.store.AddStudent(record[0], record[1])
}

func isHeader(record []string) bool {
	return len(record) == 2 &&
		strings.EqualFold(strings.TrimSpace(record[0]), "first_name") &&
		strings.EqualFold(strings.TrimSpace(record[1]), "last_name")
}
