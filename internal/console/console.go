// Package console writes preamble-prefixed lines for the interactive shell.
package console

import (
	"fmt"
	"io"
	"time"
)

// Console prints lines prefixed with "<preamble>> ".
type Console struct {
	out      io.Writer
	err      io.Writer
	preamble string

	// Delay is slept after every Say to mimic typing. Zero disables it.
	Delay time.Duration
	sleep func(time.Duration)
}

// New returns a Console writing conversation to out and errors to errOut.
func New(out, errOut io.Writer, preamble string, delay time.Duration) *Console {
	return &Console{
		out:      out,
		err:      errOut,
		preamble: preamble,
		Delay:    delay,
		sleep:    time.Sleep,
	}
}

// Say prints one conversational line and waits for the typing delay.
func (c *Console) Say(format string, args ...any) {
	c.Printf(format+"\n", args...)
	if c.Delay > 0 {
		c.sleep(c.Delay)
	}
}

// Printf prints a formatted, preamble-prefixed message to the output.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, "%s> "+format, append([]any{c.preamble}, args...)...)
}

// Error prints "ERROR: <err>" to the error stream.
func (c *Console) Error(err error) {
	fmt.Fprintf(c.err, "%s> ERROR: %v\n", c.preamble, err)
}

// Prompt returns the input prompt shown before each line read.
func Prompt(preamble string) string {
	return preamble + "[+] "
}
