package text

import (
	"strings"
	"unicode/utf8"
)

// Delimiter identifies the line-break sequence that terminates a line.
type Delimiter uint8

const (
	DelimiterNone Delimiter = iota
	DelimiterLF
	DelimiterCR
	DelimiterCRLF
)

// Len returns the delimiter length. It is the same in UTF-16 code units and
// UTF-8 bytes since CR and LF are single-unit in both encodings.
func (d Delimiter) Len() int {
	switch d {
	case DelimiterLF, DelimiterCR:
		return 1
	case DelimiterCRLF:
		return 2
	}
	return 0
}

// HasLF reports whether the delimiter contains a line feed.
func (d Delimiter) HasLF() bool { return d == DelimiterLF || d == DelimiterCRLF }

// Text returns the delimiter's characters.
func (d Delimiter) Text() string {
	switch d {
	case DelimiterLF:
		return "\n"
	case DelimiterCR:
		return "\r"
	case DelimiterCRLF:
		return "\r\n"
	}
	return ""
}

func (d Delimiter) String() string {
	switch d {
	case DelimiterLF:
		return "LF"
	case DelimiterCR:
		return "CR"
	case DelimiterCRLF:
		return "CRLF"
	}
	return "none"
}

// RuneUTF16Len returns the number of UTF-16 code units needed for r.
func RuneUTF16Len(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}

// UTF16Len returns the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	n := 0
	for i := 0; i < len(s); {
		if s[i] < utf8.RuneSelf {
			n++
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		n += RuneUTF16Len(r)
		i += size
	}
	return n
}

// UTF16LenBytes is UTF16Len for a byte slice.
func UTF16LenBytes(b []byte) int {
	n := 0
	for i := 0; i < len(b); {
		if b[i] < utf8.RuneSelf {
			n++
			i++
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		n += RuneUTF16Len(r)
		i += size
	}
	return n
}

// Segment is one line of a split string: its content and the delimiter that
// ended it.
type Segment struct {
	Content   string
	Delimiter Delimiter
}

// Len returns the segment's total byte length including the delimiter.
func (s Segment) Len() int { return len(s.Content) + s.Delimiter.Len() }

// SplitLines splits s at CRLF, LF and lone CR. The result always holds at least
// one segment; the last segment carries DelimiterNone and may be empty.
func SplitLines(s string) []Segment {
	segs := make([]Segment, 0, strings.Count(s, "\n")+1)
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			segs = append(segs, Segment{Content: s[start:i], Delimiter: DelimiterLF})
			start = i + 1
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				segs = append(segs, Segment{Content: s[start:i], Delimiter: DelimiterCRLF})
				i++
			} else {
				segs = append(segs, Segment{Content: s[start:i], Delimiter: DelimiterCR})
			}
			start = i + 1
		}
	}
	return append(segs, Segment{Content: s[start:]})
}

// IsIndentWhitespace reports whether c is a space or a tab.
func IsIndentWhitespace(c byte) bool { return c == ' ' || c == '\t' }

// IsWhitespace reports whether c is ASCII whitespace, line breaks included.
func IsWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
