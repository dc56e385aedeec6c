package session

import (
	"context"
	"errors"
	"strings"
)

// ErrQuit is returned by the quit command to end the session cleanly.
var ErrQuit = errors.New("quit")

type command struct {
	name string
	help string
	run  func(s *Session) error
}

var commands []command

// Filled in init because help ranges over the table.
func init() {
	commands = []command{
		{name: "help", help: "list commands", run: (*Session).help},
		{name: "whoami", help: "show what lela knows about you", run: (*Session).whoami},
		{name: "quit", help: "end the session", run: quit},
		{name: "exit", help: "end the session", run: quit},
	}
}

func quit(*Session) error { return ErrQuit }

// Commands lists the command names understood at the idle prompt.
func Commands() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}
	return names
}

// parseInput reads one line at the idle prompt. Unknown input is ignored.
func (s *Session) parseInput(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := s.in.ReadLine()
	if err != nil {
		return err
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	for _, c := range commands {
		if strings.EqualFold(fields[0], c.name) {
			return c.run(s)
		}
	}
	return nil
}

func (s *Session) help() error {
	for _, c := range commands {
		s.console.Say("%-8s %s", c.name, c.help)
	}
	return nil
}

func (s *Session) whoami() error {
	p := s.profile
	if !p.Known() {
		s.console.Say("I don't know you yet.")
		return nil
	}
	if p.Gender == "" {
		s.console.Say("You're %s, %d.", p.Name, p.Age)
		return nil
	}
	s.console.Say("You're %s, %s, %d.", p.Name, p.Gender, p.Age)
	return nil
}
