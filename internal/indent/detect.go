package indent

import (
	"context"

	"github.com/xonecas/quill/internal/language"
	"github.com/xonecas/quill/internal/lineindex"
	"github.com/xonecas/quill/internal/query"
	"github.com/xonecas/quill/internal/text"
	"github.com/xonecas/quill/internal/treesitter"
)

// DetectOptions bounds indent detection.
type DetectOptions struct {
	// SampleLines caps how many lines are inspected from the top.
	SampleLines int
	// MinVotes is the number of agreeing lines needed for a verdict.
	MinVotes int
}

// DefaultDetectOptions mirrors the editor defaults in the config package.
var DefaultDetectOptions = DetectOptions{SampleLines: 100, MinVotes: 5}

type vote struct {
	tabs  bool
	width int
}

// Detect infers the document's indent unit. Each indented line votes after
// its whitespace is divided by its syntactic depth; a tie or too few votes
// yields Unknown. Without an indent query it falls back to the deltas of
// leading whitespace between consecutive lines.
func (s *Service) Detect(ctx context.Context, opts DetectOptions) Detected {
	if opts.SampleLines <= 0 {
		opts.SampleLines = DefaultDetectOptions.SampleLines
	}
	if opts.MinVotes <= 0 {
		opts.MinVotes = DefaultDetectOptions.MinVotes
	}
	lines := s.sample(opts.SampleLines)
	if len(lines) == 0 {
		return Detected{}
	}

	var caps []query.Capture
	structural := false
	if s.tree != nil && s.tree.Valid(s.tree.Root()) && s.tree.Language().Query(language.Indents) != nil {
		last := lines[len(lines)-1]
		span := treesitter.SpanFor(s.tr, text.ByteRange{Start: 0, End: last.EndByte()})
		var err error
		caps, err = s.tree.LayerCaptures(ctx, s.tree.Root(), language.Indents, span, s.src)
		if err != nil {
			return Detected{}
		}
		structural = true
	}

	var votes map[vote]int
	if !structural {
		votes = s.deltaVotes(lines)
	} else {
		votes = s.depthVotes(lines, caps)
	}
	return verdict(votes, opts.MinVotes)
}

func (s *Service) sample(n int) []lineindex.Line {
	ix := s.tr.Lines()
	out := make([]lineindex.Line, 0, min(n, ix.LineCount()))
	for row := 0; row < ix.LineCount() && row < n; row++ {
		l, _ := ix.LineAtRow(row)
		out = append(out, l)
	}
	return out
}

// leading returns the whitespace prefix of a line and the offset of its first
// other byte; blank lines report ok=false.
func (s *Service) leading(l lineindex.Line) (ws []byte, first int, ok bool) {
	r := l.ContentByteRange()
	i := r.Start
	for i < r.End && text.IsIndentWhitespace(s.src[i]) {
		i++
	}
	if i == r.End {
		return nil, 0, false
	}
	return s.src[r.Start:i], i, true
}

func (s *Service) depthVotes(lines []lineindex.Line, caps []query.Capture) map[vote]int {
	votes := make(map[vote]int)
	for _, l := range lines {
		ws, first, ok := s.leading(l)
		if !ok || len(ws) == 0 {
			continue
		}
		depth := 0
		ignored := false
		for _, c := range caps {
			inside := c.Range.Start < first && first < c.Range.End
			switch {
			case c.Category == query.CategoryIndentBegin && inside:
				depth++
			case c.Category == query.CategoryIndentIgnore && inside:
				ignored = true
			case c.Category == query.CategoryIndentEnd && c.Range.Start == first:
				depth--
			}
		}
		if ignored || depth <= 0 {
			continue
		}
		if v, ok := classify(ws, depth); ok {
			votes[v]++
		}
	}
	return votes
}

func classify(ws []byte, depth int) (vote, bool) {
	tabs, spaces := 0, 0
	for _, c := range ws {
		if c == '\t' {
			tabs++
		} else {
			spaces++
		}
	}
	switch {
	case spaces == 0 && tabs == depth:
		return vote{tabs: true}, true
	case tabs == 0 && spaces%depth == 0:
		return vote{width: spaces / depth}, true
	}
	return vote{}, false
}

func (s *Service) deltaVotes(lines []lineindex.Line) map[vote]int {
	votes := make(map[vote]int)
	var prev []byte
	for _, l := range lines {
		ws, _, ok := s.leading(l)
		if !ok {
			continue
		}
		if len(ws) > len(prev) && string(ws[:len(prev)]) == string(prev) {
			if v, ok := classify(ws[len(prev):], 1); ok {
				votes[v]++
			}
		}
		prev = ws
	}
	return votes
}

func verdict(votes map[vote]int, minVotes int) Detected {
	var best vote
	bestN, runnerUp := 0, 0
	for v, n := range votes {
		switch {
		case n > bestN:
			runnerUp, best, bestN = bestN, v, n
		case n > runnerUp:
			runnerUp = n
		}
	}
	if bestN < minVotes || bestN == runnerUp {
		return Detected{}
	}
	if best.tabs {
		return Detected{Kind: DetectedTabs}
	}
	return Detected{Kind: DetectedSpaces, Width: best.width}
}
