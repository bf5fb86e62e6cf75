package menu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
)

// ErrAborted is returned by a Prompter when the user pressed CTRL+C.
var ErrAborted = errors.New("prompt aborted")

// Prompter reads one line of user input after showing label. It returns
// io.EOF when the input is exhausted.
type Prompter interface {
	Prompt(label string) (string, error)
	Close() error
}

// NewPrompter picks a line editor for interactive terminals and a plain
// line reader for everything else (pipes, files, tests).
func NewPrompter(in *os.File, out io.Writer) Prompter {
	if in == os.Stdin && (isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd())) {
		return NewLinerPrompter()
	}
	return NewLineReader(in, out)
}

// LineReader reads newline-terminated input from any io.Reader.
type LineReader struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewLineReader returns a Prompter reading from in and writing labels to out.
func NewLineReader(in io.Reader, out io.Writer) *LineReader {
	return &LineReader{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (r *LineReader) Prompt(label string) (string, error) {
	fmt.Fprint(r.out, label)

	line, err := r.reader.ReadString('\n')
	if err != nil {
		// A last line without a newline still counts.
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func (r *LineReader) Close() error {
	return nil
}

// LinerPrompter wraps peterh/liner for interactive sessions: line editing
// and an in-memory history of the current session.
type LinerPrompter struct {
	line *liner.State
}

// NewLinerPrompter takes over the terminal until Close is called.
func NewLinerPrompter() *LinerPrompter {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &LinerPrompter{line: line}
}

func (p *LinerPrompter) Prompt(label string) (string, error) {
	input, err := p.line.Prompt(label)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrAborted
		}
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		p.line.AppendHistory(input)
	}
	return input, nil
}

// Close restores the terminal.
func (p *LinerPrompter) Close() error {
	return p.line.Close()
}
