// Package menu is the console front end of the roster: a blocking loop that
// shows the menu, reads a choice, runs one storage operation and prints the
// result.
//
//	1  add a student
//	2  view one student by ID
//	3  view all students
//	0  exit
//
// Storage failures are reported on the error stream and the loop carries
// on. Only input errors end Run with an error; end of input ends it cleanly.
package menu

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aanand-mishra/student-roster/internal/storage"
	"github.com/aanand-mishra/student-roster/internal/styled"
)

// errQuit ends the loop without an error.
var errQuit = errors.New("quit")

// Menu drives the roster from a Prompter.
type Menu struct {
	store  storage.Storage
	prompt Prompter
	out    io.Writer
	errOut io.Writer
	log    *slog.Logger
}

// New returns a Menu printing results to out and failures to errOut.
func New(
	store storage.Storage,
	prompt Prompter,
	out io.Writer,
	errOut io.Writer,
	log *slog.Logger,
) *Menu {
	return &Menu{
		store:  store,
		prompt: prompt,
		out:    out,
		errOut: errOut,
		log:    log.With(slog.String("component", "menu")),
	}
}

// Run blocks until the user exits or the input ends.
func (m *Menu) Run() error {
	m.welcome()

	for {
		m.showMenu()

		choice, err := m.read("> ")
		if err == nil {
			err = m.dispatch(strings.TrimSpace(choice))
		}

		if errors.Is(err, errQuit) {
			m.goodbye()
			return nil
		}
		if err != nil {
			return fmt.Errorf("menu: read input: %w", err)
		}
	}
}

func (m *Menu) dispatch(choice string) error {
	m.log.Debug("menu choice", slog.String("choice", choice))

	switch choice {
	case "1":
		return m.addStudent()
	case "2":
		return m.viewStudent()
	case "3":
		m.viewAllStudents()
		return nil
	case "0":
		return errQuit
	default:
		fmt.Fprintln(m.out, "Invalid input!!")
		return nil
	}
}

// read prompts for one line. Labels stay on a single line for liner. End of input and CTRL+C both mean quit.
func (m *Menu) read(label string) (string, error) {
	line, err := m.prompt.Prompt(label)
	if errors.Is(err, io.EOF) || errors.Is(err, ErrAborted) {
		return "", errQuit
	}
	return line, err
}

func (m *Menu) addStudent() error {
	fmt.Fprintln(m.out, "\nTo add a student to database, follow the instructions :")

	fmt.Fprintln(m.out)
	firstName, err := m.read("Enter the firstName of student : ")
	if err != nil {
		return err
	}
	lastName, err := m.read("Enter the lastName of student : ")
	if err != nil {
		return err
	}

	id, err := m.store.AddStudent(firstName, lastName)
	if err != nil {
		m.failure("adding student to database", err)
		return nil
	}

	styled.SuccessColor().Fprintf(m.out,
		"Student added to database successfully with ID %d.\n", id)
	return nil
}

func (m *Menu) viewStudent() error {
	fmt.Fprintln(m.out)
	input, err := m.read("Enter the id of the student you want to view : ")
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		styled.ErrorColor().Fprintf(m.errOut, "Invalid ID %q: must be an integer\n", input)
		return nil
	}

	student, err := m.store.GetStudent(id)
	if err != nil {
		if kind, _ := storage.KindOf(err); kind == storage.KindNotFound {
			styled.ErrorColor().Fprintf(m.errOut, "No student found with ID: %d\n", id)
		} else {
			m.failure("viewing the student", err)
		}
		return nil
	}

	fmt.Fprintln(m.out, styled.StudentTable(student))
	return nil
}

func (m *Menu) viewAllStudents() {
	students, err := storage.Collect(m.store.ListStudents())
	if err != nil {
		m.failure("viewing the students", err)
		return
	}

	if len(students) == 0 {
		styled.DimmedColor().Fprintln(m.out, "\nThe roster is empty.")
		return
	}

	fmt.Fprintln(m.out, "\nHere is the complete database :")
	fmt.Fprintln(m.out, styled.StudentTable(students...))
}

func (m *Menu) failure(action string, err error) {
	styled.ErrorColor().Fprintf(m.errOut, "Error : %s: %v\n", action, err)
}

func (m *Menu) welcome() {
	fmt.Fprintln(m.out, "\nHello User !!")
	fmt.Fprintln(m.out, "Welcome to Database system!!")
}

func (m *Menu) showMenu() {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "Press 1: to add a student to database.")
	fmt.Fprintln(m.out, "Press 2: to view about a student in the database.")
	fmt.Fprintln(m.out, "Press 3: to view all students in the database.")
	fmt.Fprintln(m.out, "Press 0: to exit the program.")
}

func (m *Menu) goodbye() {
	fmt.Fprintln(m.out, "\nThanks for using the program!!")
	fmt.Fprintln(m.out, "Have a nice day :)")
}
