// Package sqlite provides the SQLite-backed roster store using Go's
// standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no network,
// no separate server process, and nothing to install beyond the driver.
// Two drivers are registered and selected by configuration:
//
//	"sqlite3"  github.com/mattn/go-sqlite3 (cgo, the default)
//	"sqlite"   modernc.org/sqlite (pure Go, no C toolchain needed)
//
// LIFECYCLE:
// ──────────
// A store moves through Uninitialized → Open → Closed. Only Initialize and
// Close are accepted outside the Open state; everything else fails with
// storage.KindStorageUnavailable.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/aanand-mishra/student-roster/internal/config"
	"github.com/aanand-mishra/student-roster/internal/storage"
	"github.com/aanand-mishra/student-roster/internal/types"
	"github.com/aanand-mishra/student-roster/internal/validate"

	// Importing the drivers registers "sqlite3" and "sqlite" with
	// database/sql. mattn's package is also used for its error codes.
	"github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by New.
const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

const (
	// The column DEFAULT is kept for compatibility with existing roster
	// files; SQLite ignores it when the ID column is omitted, so IDs are
	// actually driven by the sqlite_sequence seed written in EnsureSchema.
	createStudentsSQL = `
		CREATE TABLE students (
			ID         INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL DEFAULT 22001,
			FIRST_NAME TEXT    NOT NULL,
			LAST_NAME  TEXT    NOT NULL
		)
	`
	seedSequenceSQL = "INSERT INTO sqlite_sequence (name, seq) VALUES ('students', ?)"
	insertSQL       = "INSERT INTO students (FIRST_NAME, LAST_NAME) VALUES (?, ?)"
	getSQL          = "SELECT ID, FIRST_NAME, LAST_NAME FROM students WHERE ID = ? LIMIT 1"
	// No ORDER BY: rows come back in storage order, which is insertion
	// order for this schema.
	listSQL = "SELECT ID, FIRST_NAME, LAST_NAME FROM students"
)

type state int

const (
	stateUninitialized state = iota
	stateOpen
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// SQLite is the concrete implementation of storage.Storage.
//
// It owns exactly one *sql.DB limited to a single connection, and is not
// safe for concurrent use.
type SQLite struct {
	driver       string
	firstID      int64
	strictSchema bool
	log          *slog.Logger

	path  string
	db    *sql.DB
	state state
}

var _ storage.Storage = (*SQLite)(nil)

// New returns an uninitialized store configured from cfg. Call Initialize
// before using it.
func New(cfg *config.Config, log *slog.Logger) *SQLite {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverCGO
	}
	firstID := cfg.FirstID
	if firstID <= 0 {
		firstID = 22001
	}

	return &SQLite{
		driver:       driver,
		firstID:      firstID,
		strictSchema: cfg.StrictSchema,
		log:          log.With(slog.String("component", "store")),
	}
}

// Open is New followed by Initialize(cfg.StoragePath).
func Open(cfg *config.Config, log *slog.Logger) (*SQLite, error) {
	s := New(cfg, log)
	if err := s.Initialize(cfg.StoragePath); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file backing the store, empty until Initialize succeeds.
func (s *SQLite) Path() string {
	return s.path
}

// ─────────────────────────────────────────────────────────────────────────────
// Initialize opens (or creates) the database file at path.
//
// HOW THE CONNECTION IS CHECKED:
// ──────────────────────────────
// sql.Open only validates the driver name and DSN; no file is touched
// yet. The new handle is pinged and sqlite_master is read once, so a
// missing directory, a permission problem or a file that is not a
// database all surface here as KindOpenFailed instead of on the first
// menu choice.
//
// Calling Initialize on an open store swaps in the new connection only
// after it has passed those checks. If the new open fails, the old
// connection stays in place and the store remains usable.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Initialize(path string) error {
	const op = "Initialize"

	if strings.TrimSpace(path) == "" {
		return s.fail(op, storage.KindStorageUnavailable, errors.New("storage path is not set"))
	}

	db, err := openDB(s.driver, path)
	if err != nil {
		return s.fail(op, storage.KindOpenFailed, err)
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("closing previous connection",
				slog.String("path", s.path),
				slog.String("error", err.Error()))
		}
	}

	s.db = db
	s.path = path
	s.state = stateOpen

	s.log.Info("opened database successfully",
		slog.String("path", path),
		slog.String("driver", s.driver))
	return nil
}

// openDB returns a checked single-connection handle for path.
func openDB(driver, path string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// One process-wide handle: a single connection, never recycled.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	var tables int
	if err := db.QueryRow("SELECT count(*) FROM sqlite_master").Scan(&tables); err != nil {
		db.Close()
		return nil, fmt.Errorf("read schema: %w", err)
	}

	return db, nil
}

// Both drivers read everything after '?' in a plain filename as
// connection options. A file: URI with those characters escaped keeps
// the whole path as the filename.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// dsn converts a filesystem path into a SQLite URI filename.
func dsn(path string) string {
	return "file:" + uriEscaper.Replace(path)
}

// ─────────────────────────────────────────────────────────────────────────────
// EnsureSchema creates the students table.
//
// HOW THE FIRST ID IS CHOSEN:
// ───────────────────────────
// AUTOINCREMENT keeps the largest ID ever handed out in the internal
// sqlite_sequence table and gives the next row that value plus one. A
// freshly created table therefore gets a sqlite_sequence row holding
// first_id - 1, and the first student receives first_id (22001 by
// default). Both statements run in one transaction, so a table never
// exists without its seed.
//
// An existing table counts as success unless the store was configured
// with strict_schema, in which case it is a KindSchemaError.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) EnsureSchema() error {
	const op = "EnsureSchema"

	if err := s.ready(op); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return s.fail(op, storage.KindSchemaError, fmt.Errorf("begin: %w", err))
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback()

	if _, err := tx.Exec(createStudentsSQL); err != nil {
		if isAlreadyExists(err) && !s.strictSchema {
			s.log.Debug("students table already exists")
			return nil
		}
		return s.fail(op, storage.KindSchemaError, fmt.Errorf("create table: %w", err))
	}

	if _, err := tx.Exec(seedSequenceSQL, s.firstID-1); err != nil {
		return s.fail(op, storage.KindSchemaError, fmt.Errorf("seed ids: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return s.fail(op, storage.KindSchemaError, fmt.Errorf("commit: %w", err))
	}

	s.log.Info("table created successfully",
		slog.String("table", "students"),
		slog.Int64("first_id", s.firstID))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// AddStudent inserts a new row and returns the ID the database assigned.
//
// HOW NAMES ARE HANDLED:
// ──────────────────────
// Names are trimmed and checked by validator before any SQL runs, so an
// empty name is a KindValidation error and never reaches the table.
//
// The values are then bound to ? placeholders. The driver sends the
// statement and the values separately, and the engine treats the values
// as data only. A name like "'); DROP TABLE students;--" is stored as
// typed.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) AddStudent(firstName, lastName string) (int64, error) {
	const op = "AddStudent"

	if err := s.ready(op); err != nil {
		return 0, err
	}

	student, err := validate.NewStudent(types.NewStudent{
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return 0, s.fail(op, storage.KindValidation, err)
	}

	stmt, err := s.db.Prepare(insertSQL)
	if err != nil {
		return 0, s.fail(op, storage.KindInsertFailed, fmt.Errorf("prepare: %w", err))
	}
	defer stmt.Close()

	result, err := stmt.Exec(student.FirstName, student.LastName)
	if err != nil {
		return 0, s.fail(op, storage.KindInsertFailed, fmt.Errorf("exec: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, s.fail(op, storage.KindInsertFailed, fmt.Errorf("last insert id: %w", err))
	}

	s.log.Debug("student added", slog.Int64("id", id))
	return id, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetStudent fetches exactly one student row matched by primary key.
//
// QueryRow never returns nil for a missing row. sql.ErrNoRows surfaces
// from Scan, and is reported as KindNotFound so the menu can tell a
// miss apart from a broken database.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetStudent(id int64) (types.Student, error) {
	const op = "GetStudent"

	if err := s.ready(op); err != nil {
		return types.Student{}, err
	}

	stmt, err := s.db.Prepare(getSQL)
	if err != nil {
		return types.Student{}, s.fail(op, storage.KindQueryFailed, fmt.Errorf("prepare: %w", err))
	}
	defer stmt.Close()

	var student types.Student
	err = stmt.QueryRow(id).Scan(&student.ID, &student.FirstName, &student.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, s.fail(op, storage.KindNotFound,
			fmt.Errorf("no student found with id: %d", id))
	}
	if err != nil {
		return types.Student{}, s.fail(op, storage.KindQueryFailed, fmt.Errorf("scan: %w", err))
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ListStudents returns a lazy sequence over all students.
//
// HOW THE SEQUENCE WORKS:
// ───────────────────────
// The query runs when iteration starts and the sequence can be ranged over
// only once; a second range yields a single KindQueryFailed error. A
// failure during iteration is yielded as the last pair.
//
// The store holds one connection and the cursor keeps it busy, so do not
// call other store methods from inside the loop. Use storage.Collect to
// read everything first.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) ListStudents() iter.Seq2[types.Student, error] {
	const op = "ListStudents"
	consumed := false

	return func(yield func(types.Student, error) bool) {
		if consumed {
			yield(types.Student{}, s.fail(op, storage.KindQueryFailed,
				errors.New("sequence already consumed")))
			return
		}
		consumed = true

		if err := s.ready(op); err != nil {
			yield(types.Student{}, err)
			return
		}

		stmt, err := s.db.Prepare(listSQL)
		if err != nil {
			yield(types.Student{}, s.fail(op, storage.KindQueryFailed, fmt.Errorf("prepare: %w", err)))
			return
		}
		defer stmt.Close()

		rows, err := stmt.Query()
		if err != nil {
			yield(types.Student{}, s.fail(op, storage.KindQueryFailed, fmt.Errorf("query: %w", err)))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var student types.Student
			if err := rows.Scan(&student.ID, &student.FirstName, &student.LastName); err != nil {
				yield(types.Student{}, s.fail(op, storage.KindQueryFailed, fmt.Errorf("scan row: %w", err)))
				return
			}
			if !yield(student, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Student{}, s.fail(op, storage.KindQueryFailed, fmt.Errorf("rows iteration: %w", err)))
		}
	}
}

// Close releases the connection. It is safe to call more than once and on
// a nil or never-initialized store.
func (s *SQLite) Close() error {
	if s == nil {
		return nil
	}
	if s.db == nil {
		s.state = stateClosed
		return nil
	}

	err := s.db.Close()
	s.db = nil
	s.state = stateClosed
	if err != nil {
		return s.fail("Close", storage.KindStorageUnavailable, err)
	}

	s.log.Debug("database closed", slog.String("path", s.path))
	return nil
}

func (s *SQLite) ready(op string) error {
	if s.state == stateOpen && s.db != nil {
		return nil
	}
	return s.fail(op, storage.KindStorageUnavailable,
		fmt.Errorf("database is %s", s.state))
}

// fail logs the failure and returns it as a *storage.Error. Lookups that
// simply miss and rejected input are warnings, everything else an error.
func (s *SQLite) fail(op string, kind storage.Kind, err error) error {
	serr := storage.E(op, kind, err)

	level := slog.LevelError
	if kind.Expected() {
		level = slog.LevelWarn
	}
	s.log.Log(context.Background(), level, "storage operation failed",
		slog.String("op", op),
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()))

	return serr
}

// isAlreadyExists reports whether err is SQLite's "table ... already
// exists". mattn's driver exposes the result code; modernc's is matched on
// the message.
func isAlreadyExists(err error) bool {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.Code != sqlite3.ErrError {
		return false
	}
	return strings.Contains(err.Error(), "already exists")
}
