// Package prompt reads user input one line at a time.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

// LineReader returns the next line of input without its trailing newline.
// It returns io.EOF once input is exhausted.
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

// Scanner reads lines from a plain reader such as a pipe or a test buffer.
type Scanner struct {
	sc     *bufio.Scanner
	closer io.Closer
}

// NewScanner wraps r. If r is an io.Closer it is closed by Close.
func NewScanner(r io.Reader) *Scanner {
	s := &Scanner{sc: bufio.NewScanner(r)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Stdin reads from the process's standard input. Close leaves stdin open
// since the scanner does not own it.
func Stdin() *Scanner {
	return NewScanner(io.NopCloser(os.Stdin))
}

// ReadLine returns the next line.
func (s *Scanner) ReadLine() (string, error) {
	if s.sc.Scan() {
		return strings.TrimRight(s.sc.Text(), "\r"), nil
	}
	err := s.sc.Err()
	if err == nil || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
		// A reader closed under us is the end of input.
		return "", io.EOF
	}
	return "", err
}

// Close closes the underlying reader if it has a Close method.
func (s *Scanner) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Readline is an interactive terminal reader with editing, history and tab
// completion.
type Readline struct {
	rl *readline.Instance
}

// NewReadline opens a terminal reader. History is loaded from and appended
// to historyFile when it is non-empty.
func NewReadline(promptText, historyFile string, commands []string) (*Readline, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptText,
		HistoryFile:     historyFile,
		AutoComplete:    Completer(commands),
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return nil, fmt.Errorf("init readline: %w", err)
	}
	return &Readline{rl: rl}, nil
}

// ReadLine returns the next line. Ctrl-C is reported as io.EOF.
func (r *Readline) ReadLine() (string, error) {
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	return line, nil
}

// Close restores the terminal.
func (r *Readline) Close() error {
	return r.rl.Close()
}

// Completer completes the first word against commands.
func Completer(commands []string) *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, c := range commands {
		items = append(items, readline.PcItem(c))
	}
	return readline.NewPrefixCompleter(items...)
}

// Open picks an interactive reader when stdin is a terminal and a plain
// scanner otherwise.
func Open(promptText, historyFile string, commands []string) (LineReader, error) {
	if readline.IsTerminal(int(os.Stdin.Fd())) {
		return NewReadline(promptText, historyFile, commands)
	}
	return Stdin(), nil
}
