package ai

import (
	"fmt"
	"io"
	"strings"
)

// TokenSink receives incremental generation output. Start is called once
// before the first token; Error is called instead of further tokens when
// generation fails mid-stream.
type TokenSink interface {
	Start()
	Token(text string)
	Error(err error)
}

// ConsoleSink writes tokens to w as they arrive and keeps the cumulative
// text, so callers can read back the full answer after streaming.
type ConsoleSink struct {
	w    io.Writer
	text strings.Builder
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Start() {
	s.text.Reset()
}

func (s *ConsoleSink) Token(text string) {
	s.text.WriteString(text)
	fmt.Fprint(s.w, text)
}

func (s *ConsoleSink) Error(err error) {
	fmt.Fprintf(s.w, "\nError: %v\n", err)
}

// Text returns the accumulated output so far.
func (s *ConsoleSink) Text() string { return s.text.String() }

// NullSink discards everything. Used when the caller wants the generator's
// streaming path exercised without any visible output.
type NullSink struct{}

func (NullSink) Start()       {}
func (NullSink) Token(string) {}
func (NullSink) Error(error)  {}

