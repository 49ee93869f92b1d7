// Package indent decides indentation for new lines and detects the indent
// unit a document uses, driven by indent.* query captures.
package indent

import (
	"fmt"
	"strings"
)

// Kind is the character an indent unit is made of.
type Kind uint8

const (
	Spaces Kind = iota
	Tabs
)

// Unit is one level of indentation.
type Unit struct {
	Kind Kind
	// Width is the number of spaces, or the display width of a tab.
	Width int
}

// SpacesUnit returns a unit of n spaces.
func SpacesUnit(n int) Unit { return Unit{Kind: Spaces, Width: n} }

// TabsUnit returns a tab unit displayed tabWidth columns wide.
func TabsUnit(tabWidth int) Unit { return Unit{Kind: Tabs, Width: tabWidth} }

// String returns the whitespace for level levels.
func (u Unit) String(level int) string {
	if level <= 0 {
		return ""
	}
	if u.Kind == Tabs {
		return strings.Repeat("\t", level)
	}
	return strings.Repeat(" ", level*max(u.Width, 1))
}

// Columns is the display width of one level.
func (u Unit) Columns() int { return max(u.Width, 1) }

// Strategy tells the caller how to indent a line break.
type Strategy struct {
	IndentLevel int
	// InsertExtraLineBreak asks for a second line so a closing token that
	// sat right after the caret keeps a line of its own one level out.
	InsertExtraLineBreak bool
}

// DetectedKind is the outcome of indent detection.
type DetectedKind uint8

const (
	Unknown DetectedKind = iota
	DetectedTabs
	DetectedSpaces
)

// Detected is the indent unit a document appears to use.
type Detected struct {
	Kind  DetectedKind
	Width int
}

// Unit converts d, falling back to def when detection failed.
func (d Detected) Unit(def Unit) Unit {
	switch d.Kind {
	case DetectedTabs:
		return TabsUnit(def.Columns())
	case DetectedSpaces:
		return SpacesUnit(d.Width)
	}
	return def
}

func (d Detected) String() string {
	switch d.Kind {
	case DetectedTabs:
		return "tabs"
	case DetectedSpaces:
		return fmt.Sprintf("%d spaces", d.Width)
	}
	return "unknown"
}

// Level returns the indent level of the whitespace at the start of line,
// rounding partial levels down. Tabs advance to the next tab stop.
func Level(line []byte, unit Unit, tabWidth int) int {
	return leadingColumns(line, tabWidth) / unit.Columns()
}

func leadingColumns(line []byte, tabWidth int) int {
	col := 0
	for _, c := range line {
		switch c {
		case ' ':
			col++
		case '\t':
			tw := max(tabWidth, 1)
			col += tw - col%tw
		default:
			return col
		}
	}
	return col
}
