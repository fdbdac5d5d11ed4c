// Package anchor implements a minimal terminal status area: regular log
// lines scroll as usual, while a set of named lots stays anchored at the
// bottom of the screen and gets redrawn in place.
package anchor

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"atomicgo.dev/cursor"
	"github.com/fatih/color"
)

type Color int

const (
	Plain Color = iota
	Red
	Green
	Yellow
	Cyan
)

var palette = map[Color]*color.Color{
	Plain:  color.New(),
	Red:    color.New(color.FgRed, color.Bold),
	Green:  color.New(color.FgGreen, color.Bold),
	Yellow: color.New(color.FgYellow, color.Bold),
	Cyan:   color.New(color.FgCyan, color.Bold),
}

type Anchor struct {
	mutex  sync.Mutex
	accent *color.Color
	lots   []*Lot
	reader *bufio.Reader
}

type Lot struct {
	anchor *Anchor
	name   string
	status string
	closed bool
}

func New(accent Color) *Anchor {
	tint, ok := palette[accent]
	if !ok {
		tint = palette[Plain]
	}
	return &Anchor{
		accent: tint,
		reader: bufio.NewReader(os.Stdin),
	}
}

// Printf writes a scrolling line above the anchored area.
func (anchor *Anchor) Printf(format string, a ...interface{}) {
	anchor.mutex.Lock()
	defer anchor.mutex.Unlock()

	anchor.wipe()
	fmt.Printf(format+"\n", a...)
	anchor.draw()
}

// AnchorPrintf behaves as Printf, but renders with the accent color,
// meant for failures and warnings.
func (anchor *Anchor) AnchorPrintf(format string, a ...interface{}) {
	anchor.mutex.Lock()
	defer anchor.mutex.Unlock()

	anchor.wipe()
	anchor.accent.Printf(format+"\n", a...)
	anchor.draw()
}

// Reads wipes the anchored area, prompts and blocks for a line of input.
func (anchor *Anchor) Reads(prompt string) string {
	anchor.mutex.Lock()
	defer anchor.mutex.Unlock()

	anchor.wipe()
	fmt.Printf("%s ", prompt)
	line, _ := anchor.reader.ReadString('\n')
	anchor.draw()
	return strings.TrimSpace(line)
}

// Lot returns the anchored line registered under the
// given name, allocating it on first use.
func (anchor *Anchor) Lot(name string) *Lot {
	anchor.mutex.Lock()
	defer anchor.mutex.Unlock()

	for _, lot := range anchor.lots {
		if lot.name == name {
			return lot
		}
	}

	lot := &Lot{anchor: anchor, name: name}
	anchor.lots = append(anchor.lots, lot)
	return lot
}

func (lot *Lot) Printf(format string, a ...interface{}) {
	lot.anchor.mutex.Lock()
	defer lot.anchor.mutex.Unlock()

	lot.anchor.wipe()
	lot.status = fmt.Sprintf(format, a...)
	lot.anchor.draw()
}

func (lot *Lot) Print(status string) {
	lot.Printf("%s", status)
}

// Close marks the lot as done, optionally with a final status.
func (lot *Lot) Close(status ...string) {
	lot.anchor.mutex.Lock()
	defer lot.anchor.mutex.Unlock()

	lot.anchor.wipe()
	lot.closed = true
	lot.status = "done"
	if len(status) > 0 {
		lot.status = status[0]
	}
	lot.anchor.draw()
}

// wipe and draw assume the mutex is held.
func (anchor *Anchor) wipe() {
	if len(anchor.lots) == 0 {
		return
	}
	cursor.StartOfLine()
	for range anchor.lots {
		cursor.ClearLine()
		cursor.Up(1)
	}
	cursor.ClearLine()
}

func (anchor *Anchor) draw() {
	for _, lot := range anchor.lots {
		marker := "…"
		if lot.closed {
			marker = "✓"
		}
		fmt.Printf("\n%s %s: %s", marker, lot.name, lot.status)
	}
}
