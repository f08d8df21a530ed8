// Package content builds page content streams for generated documents.
//
// The generator draws with a fixed vocabulary: absolute-positioned text runs
// in the single /F1 font resource and nonstroking color switches. Each
// command renders as one line of the content stream.
package content

import (
	"bytes"
	"fmt"
)

// Command is a single drawing instruction.
type Command interface {
	Render(buf *bytes.Buffer)
}

// TextShow places one run of glyphs at an absolute baseline position. Glyphs
// is the uppercase hex glyph-id string produced by the subset encoder.
type TextShow struct {
	X, Y   float64
	Size   float64
	Glyphs string
}

// Render writes the full text object: begin text, select /F1 at the given
// size, set the text matrix to a pure translation, show the run, end text.
func (c TextShow) Render(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "BT /F1 %.2f Tf 1 0 0 1 %.2f %.2f Tm <%s> Tj ET",
		c.Size, c.X, c.Y, c.Glyphs)
}

// FillColor switches the nonstroking fill color.
type FillColor struct {
	R, G, B float64
}

// Render writes the rg operator with three-decimal components.
func (c FillColor) Render(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "%.3f %.3f %.3f rg", c.R, c.G, c.B)
}

// Stream is the ordered command list of one page.
type Stream struct {
	commands []Command
}

// NewStream creates an empty content stream.
func NewStream() *Stream {
	return &Stream{
		commands: make([]Command, 0),
	}
}

// Add appends a command to the stream.
func (s *Stream) Add(cmd Command) {
	s.commands = append(s.commands, cmd)
}

// Len returns the number of commands in the stream.
func (s *Stream) Len() int {
	return len(s.commands)
}

// Commands returns the commands in draw order.
func (s *Stream) Commands() []Command {
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// Render serializes the stream, one command per line.
func (s *Stream) Render() []byte {
	var buf bytes.Buffer
	for i, cmd := range s.commands {
		if i > 0 {
			buf.WriteByte('\n')
		}
		cmd.Render(&buf)
	}
	return buf.Bytes()
}
