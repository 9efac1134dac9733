package main

import (
	"fmt"
	"io"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keyflow/internal/input"
	"github.com/dshills/keyflow/internal/input/key"
	"github.com/dshills/keyflow/internal/input/pointer"
)

// printOutput writes one line per output call.
type printOutput struct {
	w io.Writer
}

func (p printOutput) emit(ev input.OutputEvent) {
	fmt.Fprintln(p.w, ev.String())
}

func (p printOutput) KeyDown(code key.Code) {
	p.emit(input.OutputEvent{Kind: input.OutputKeyDown, Code: code})
}

func (p printOutput) KeyUp(code key.Code) {
	p.emit(input.OutputEvent{Kind: input.OutputKeyUp, Code: code})
}

func (p printOutput) ButtonDown(button int) {
	p.emit(input.OutputEvent{Kind: input.OutputButtonDown, Button: button})
}

func (p printOutput) ButtonUp(button int) {
	p.emit(input.OutputEvent{Kind: input.OutputButtonUp, Button: button})
}

func (p printOutput) Move(m pointer.Movement) {
	p.emit(input.OutputEvent{Kind: input.OutputMove, Move: m})
}

// screenOutput shows the most recent output calls in the terminal and
// doubles as the pointer layer indicator.
type screenOutput struct {
	printOutput
	screen  tcell.Screen
	title   string
	pointer bool
	lines   []string
}

func newScreenOutput(screen tcell.Screen, title string) *screenOutput {
	s := &screenOutput{screen: screen, title: title}
	s.printOutput = printOutput{w: s}
	s.draw()
	return s
}

// Write receives one rendered line from printOutput.
func (s *screenOutput) Write(p []byte) (int, error) {
	line := string(p)
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	_, height := s.screen.Size()
	keep := max(height-2, 1)
	s.lines = append(s.lines, line)
	if len(s.lines) > keep {
		s.lines = s.lines[len(s.lines)-keep:]
	}
	s.draw()
	return len(p), nil
}

func (s *screenOutput) PointerLayer(on bool) {
	s.pointer = on
	s.draw()
}

func (s *screenOutput) draw() {
	s.screen.Clear()
	header := s.title
	if s.pointer {
		header += "  [pointer]"
	}
	s.put(0, header, tcell.StyleDefault.Bold(true))
	for i, line := range s.lines {
		s.put(i+2, line, tcell.StyleDefault)
	}
	s.screen.Show()
}

func (s *screenOutput) put(y int, text string, style tcell.Style) {
	x := 0
	for _, r := range text {
		s.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
