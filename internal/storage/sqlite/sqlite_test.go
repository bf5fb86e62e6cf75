package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aanand-mishra/student-roster/internal/config"
	"github.com/aanand-mishra/student-roster/internal/logger"
	"github.com/aanand-mishra/student-roster/internal/storage"
	"github.com/aanand-mishra/student-roster/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var drivers = []string{DriverCGO, DriverPureGo}

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	return &config.Config{
		Env:         "dev",
		StoragePath: filepath.Join(t.TempDir(), "students.db"),
		Driver:      driver,
		FirstID:     22001,
	}
}

// newTestStore returns an open store with the schema in place.
func newTestStore(t *testing.T, cfg *config.Config) *SQLite {
	t.Helper()

	s, err := Open(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.EnsureSchema())
	return s
}

func forEachDriver(t *testing.T, fn func(t *testing.T, driver string)) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			fn(t, driver)
		})
	}
}

func mustCollect(t *testing.T, s *SQLite) []types.Student {
	t.Helper()
	students, err := storage.Collect(s.ListStudents())
	require.NoError(t, err)
	return students
}

func TestInitialize(t *testing.T) {
	forEachDriver(t, func(t *testing.T, driver string) {
		t.Run("creates the file", func(t *testing.T) {
			cfg := testConfig(t, driver)
			s := New(cfg, logger.Discard())
			defer s.Close()

			require.NoError(t, s.Initialize(cfg.StoragePath))
			assert.Equal(t, cfg.StoragePath, s.Path())

			_, err := os.Stat(cfg.StoragePath)
			assert.NoError(t, err)
		})

		t.Run("empty path", func(t *testing.T) {
			for _, path := range []string{"", "   "} {
				s := New(testConfig(t, driver), logger.Discard())

				err := s.Initialize(path)
				assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
				assert.Nil(t, s.db, "no connection must be established")

				_, err = s.AddStudent("Ada", "Lovelace")
				assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
			}
		})

		t.Run("missing directory", func(t *testing.T) {
			s := New(testConfig(t, driver), logger.Discard())

			err := s.Initialize(filepath.Join(t.TempDir(), "no", "such", "dir", "students.db"))
			assert.ErrorIs(t, err, storage.ErrOpenFailed)
			assert.Nil(t, s.db)
		})

		t.Run("not a database", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "students.db")
			junk := make([]byte, 0, 4096)
			for len(junk) < 4096 {
				junk = append(junk, "this is not a sqlite database file. "...)
			}
			require.NoError(t, os.WriteFile(path, junk, 0o644))

			s := New(testConfig(t, driver), logger.Discard())
			err := s.Initialize(path)
			assert.ErrorIs(t, err, storage.ErrOpenFailed)
		})

		t.Run("path with URI characters", func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range []string{"roster?v2.db", "roster#1.db", "100%.db"} {
				path := filepath.Join(dir, name)
				s := New(testConfig(t, driver), logger.Discard())

				require.NoError(t, s.Initialize(path), name)
				require.NoError(t, s.EnsureSchema(), name)
				require.NoError(t, s.Close())

				_, err := os.Stat(path)
				assert.NoError(t, err, name)
			}

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			var names []string
			for _, e := range entries {
				if !e.IsDir() && filepath.Ext(e.Name()) == ".db" {
					names = append(names, e.Name())
				}
			}
			assert.ElementsMatch(t, []string{"roster?v2.db", "roster#1.db", "100%.db"}, names)
		})

		t.Run("failed reinitialize keeps the open connection", func(t *testing.T) {
			cfg := testConfig(t, driver)
			s := newTestStore(t, cfg)

			id, err := s.AddStudent("Ada", "Lovelace")
			require.NoError(t, err)

			err = s.Initialize(filepath.Join(t.TempDir(), "missing", "students.db"))
			assert.ErrorIs(t, err, storage.ErrOpenFailed)
			assert.Equal(t, cfg.StoragePath, s.Path())

			got, err := s.GetStudent(id)
			require.NoError(t, err)
			assert.Equal(t, "Ada", got.FirstName)
		})

		t.Run("again on an open store keeps the data", func(t *testing.T) {
			cfg := testConfig(t, driver)
			s := newTestStore(t, cfg)

			id, err := s.AddStudent("Ada", "Lovelace")
			require.NoError(t, err)

			require.NoError(t, s.Initialize(cfg.StoragePath))
			require.NoError(t, s.EnsureSchema())

			got, err := s.GetStudent(id)
			require.NoError(t, err)
			assert.Equal(t, "Ada", got.FirstName)
		})
	})
}

func TestEnsureSchema(t *testing.T) {
	forEachDriver(t, func(t *testing.T, driver string) {
		t.Run("idempotent", func(t *testing.T) {
			s := newTestStore(t, testConfig(t, driver))

			assert.NoError(t, s.EnsureSchema())
			assert.NoError(t, s.EnsureSchema())
		})

		t.Run("strict schema fails the second call", func(t *testing.T) {
			cfg := testConfig(t, driver)
			cfg.StrictSchema = true
			s := newTestStore(t, cfg)

			err := s.EnsureSchema()
			assert.ErrorIs(t, err, storage.ErrSchema)
			assert.Contains(t, err.Error(), "already exists")

			// A failed schema call leaves the store usable.
			_, err = s.AddStudent("Ada", "Lovelace")
			assert.NoError(t, err)
		})

		t.Run("before initialize", func(t *testing.T) {
			s := New(testConfig(t, driver), logger.Discard())
			assert.ErrorIs(t, s.EnsureSchema(), storage.ErrStorageUnavailable)
		})
	})
}

func TestAddAndGetStudent(t *testing.T) {
	forEachDriver(t, func(t *testing.T, driver string) {
		s := newTestStore(t, testConfig(t, driver))

		names := []types.NewStudent{
			{FirstName: "Ada", LastName: "Lovelace"},
			{FirstName: "Alan", LastName: "Turing"},
			{FirstName: "Robert'); DROP TABLE students;--", LastName: "Tables"},
			{FirstName: "Émilie", LastName: "du Châtelet"},
		}

		for _, n := range names {
			id, err := s.AddStudent(n.FirstName, n.LastName)
			require.NoError(t, err)

			got, err := s.GetStudent(id)
			require.NoError(t, err)
			assert.Equal(t, types.Student{ID: id, FirstName: n.FirstName, LastName: n.LastName}, got)
		}

		assert.Len(t, mustCollect(t, s), len(names))
	})
}

func TestAddStudentTrimsNames(t *testing.T) {
	s := newTestStore(t, testConfig(t, DriverCGO))

	id, err := s.AddStudent("  Grace ", "Hopper\n")
	require.NoError(t, err)

	got, err := s.GetStudent(id)
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.FirstName)
	assert.Equal(t, "Hopper", got.LastName)
}

func TestAddStudentValidation(t *testing.T) {
	forEachDriver(t, func(t *testing.T, driver string) {
		s := newTestStore(t, testConfig(t, driver))

		_, err := s.AddStudent("Ada", "Lovelace")
		require.NoError(t, err)

		tests := []struct {
			name      string
			firstName string
			lastName  string
			wantMsg   string
		}{
			{name: "empty first name", firstName: "", lastName: "Turing", wantMsg: "field FirstName is required"},
			{name: "empty last name", firstName: "Alan", lastName: "", wantMsg: "field LastName is required"},
			{name: "blank names", firstName: " ", lastName: "\t", wantMsg: "field FirstName is required"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				id, err := s.AddStudent(tt.firstName, tt.lastName)
				assert.ErrorIs(t, err, storage.ErrValidation)
				assert.Contains(t, err.Error(), tt.wantMsg)
				assert.Zero(t, id)

				assert.Len(t, mustCollect(t, s), 1, "no row may be inserted")
			})
		}
	})
}

func TestGetStudentNotFound(t *testing.T) {
	forEachDriver(t, func(t *testing.T, driver string) {
		s := newTestStore(t, testConfig(t, driver))

		for _, id := range []int64{22001, 0, -1, 99999} {
			_, err := s.GetStudent(id)
			assert.ErrorIs(t, err, storage.ErrNotFound)

			kind, ok := storage.KindOf(err)
			assert.True(t, ok)
			assert.Equal(t, storage.KindNotFound, kind)
		}
	})
}

func TestListStudents(t *testing.T) {
	forEachDriver(t, func(t *testing.T, driver string) {
		t.Run("empty table", func(t *testing.T) {
			s := newTestStore(t, testConfig(t, driver))

			students := mustCollect(t, s)
			assert.NotNil(t, students)
			assert.Empty(t, students)
		})

		t.Run("insertion order with seeded ids", func(t *testing.T) {
			s := newTestStore(t, testConfig(t, driver))

			_, err := s.AddStudent("Ada", "Lovelace")
			require.NoError(t, err)
			_, err = s.AddStudent("Alan", "Turing")
			require.NoError(t, err)

			assert.Equal(t, []types.Student{
				{ID: 22001, FirstName: "Ada", LastName: "Lovelace"},
				{ID: 22002, FirstName: "Alan", LastName: "Turing"},
			}, mustCollect(t, s))
		})

		t.Run("custom first id", func(t *testing.T) {
			cfg := testConfig(t, driver)
			cfg.FirstID = 1
			s := newTestStore(t, cfg)

			id, err := s.AddStudent("Ada", "Lovelace")
			require.NoError(t, err)
			assert.Equal(t, int64(1), id)
		})

		t.Run("ids continue after reopening", func(t *testing.T) {
			cfg := testConfig(t, driver)
			s := newTestStore(t, cfg)

			_, err := s.AddStudent("Ada", "Lovelace")
			require.NoError(t, err)
			_, err = s.AddStudent("Alan", "Turing")
			require.NoError(t, err)
			require.NoError(t, s.Close())

			reopened := newTestStore(t, cfg)
			id, err := reopened.AddStudent("Grace", "Hopper")
			require.NoError(t, err)
			assert.Equal(t, int64(22003), id)

			students := mustCollect(t, reopened)
			require.Len(t, students, 3)
			for i := 1; i < len(students); i++ {
				assert.Greater(t, students[i].ID, students[i-1].ID)
			}
		})

		t.Run("one shot", func(t *testing.T) {
			s := newTestStore(t, testConfig(t, driver))
			_, err := s.AddStudent("Ada", "Lovelace")
			require.NoError(t, err)

			seq := s.ListStudents()
			first, err := storage.Collect(seq)
			require.NoError(t, err)
			assert.Len(t, first, 1)

			_, err = storage.Collect(seq)
			assert.ErrorIs(t, err, storage.ErrQueryFailed)
		})

		t.Run("early break releases the connection", func(t *testing.T) {
			s := newTestStore(t, testConfig(t, driver))
			for _, n := range []string{"Ada", "Alan", "Grace"} {
				_, err := s.AddStudent(n, "Student")
				require.NoError(t, err)
			}

			for student, err := range s.ListStudents() {
				require.NoError(t, err)
				assert.Equal(t, "Ada", student.FirstName)
				break
			}

			// The single connection is free again.
			_, err := s.GetStudent(22002)
			assert.NoError(t, err)
		})

		t.Run("lazy until ranged", func(t *testing.T) {
			s := newTestStore(t, testConfig(t, driver))

			seq := s.ListStudents()
			_, err := s.AddStudent("Ada", "Lovelace")
			require.NoError(t, err)

			students, err := storage.Collect(seq)
			require.NoError(t, err)
			assert.Len(t, students, 1)
		})
	})
}

func TestStatementFailures(t *testing.T) {
	forEachDriver(t, func(t *testing.T, driver string) {
		s := newTestStore(t, testConfig(t, driver))
		_, err := s.db.Exec("DROP TABLE students")
		require.NoError(t, err)

		_, err = s.AddStudent("Ada", "Lovelace")
		assert.ErrorIs(t, err, storage.ErrInsertFailed)

		_, err = s.GetStudent(22001)
		assert.ErrorIs(t, err, storage.ErrQueryFailed)
		assert.NotErrorIs(t, err, storage.ErrNotFound)

		_, err = storage.Collect(s.ListStudents())
		assert.ErrorIs(t, err, storage.ErrQueryFailed)
	})
}

func TestClose(t *testing.T) {
	forEachDriver(t, func(t *testing.T, driver string) {
		t.Run("twice", func(t *testing.T) {
			s := newTestStore(t, testConfig(t, driver))

			assert.NoError(t, s.Close())
			assert.NoError(t, s.Close())
		})

		t.Run("never initialized", func(t *testing.T) {
			s := New(testConfig(t, driver), logger.Discard())
			assert.NoError(t, s.Close())
		})

		t.Run("nil store", func(t *testing.T) {
			var s *SQLite
			assert.NoError(t, s.Close())
		})

		t.Run("operations after close", func(t *testing.T) {
			s := newTestStore(t, testConfig(t, driver))
			require.NoError(t, s.Close())

			_, err := s.AddStudent("Ada", "Lovelace")
			assert.ErrorIs(t, err, storage.ErrStorageUnavailable)

			_, err = s.GetStudent(22001)
			assert.ErrorIs(t, err, storage.ErrStorageUnavailable)

			_, err = storage.Collect(s.ListStudents())
			assert.ErrorIs(t, err, storage.ErrStorageUnavailable)

			assert.ErrorIs(t, s.EnsureSchema(), storage.ErrStorageUnavailable)
		})

		t.Run("initialize after close reopens", func(t *testing.T) {
			cfg := testConfig(t, driver)
			s := newTestStore(t, cfg)
			require.NoError(t, s.Close())

			require.NoError(t, s.Initialize(cfg.StoragePath))
			_, err := s.AddStudent("Ada", "Lovelace")
			assert.NoError(t, err)
		})
	})
}
