// Package logging provides the progress logger used by the binder.
package logging

import (
	"io"
	"log"
)

// Logger receives progress messages.
type Logger interface {
	Println(msg string)
	Printf(format string, args ...interface{})
}

type stdLogger struct {
	l       *log.Logger
	verbose bool
}

// New returns a Logger writing to w. Messages are dropped unless verbose is
// set.
func New(w io.Writer, verbose bool) Logger {
	return &stdLogger{l: log.New(w, "", log.LstdFlags), verbose: verbose}
}

func (s *stdLogger) Println(msg string) {
	if s.verbose {
		s.l.Println(msg)
	}
}

func (s *stdLogger) Printf(format string, args ...interface{}) {
	if s.verbose {
		s.l.Printf(format, args...)
	}
}

// Discard is a Logger that drops everything.
var Discard Logger = nop{}

type nop struct{}

func (nop) Println(string)                {}
func (nop) Printf(string, ...interface{}) {}
