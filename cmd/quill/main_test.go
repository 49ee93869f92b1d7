package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xonecas/quill/internal/lineindex"
	"github.com/xonecas/quill/internal/query"
	"github.com/xonecas/quill/internal/text"
)

func TestPaintRuns(t *testing.T) {
	src := []byte("a // b\nc")
	caps := []query.Capture{
		{Category: query.CategoryVariable, Range: text.ByteRange{Start: 0, End: 1}},
		{Category: query.CategoryComment, Range: text.ByteRange{Start: 2, End: 8}},
		{Category: query.CategoryIndentBegin, Range: text.ByteRange{Start: 0, End: 8}},
	}
	var got []string
	for _, r := range paintRuns(src, caps) {
		got = append(got, r.cat.String()+":"+string(src[r.start:r.end]))
	}
	want := []string{"variable:a", "none: ", "comment:// b", "comment:\n", "comment:c"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("runs = %q, want %q", got, want)
	}
}

func TestPrintChanges(t *testing.T) {
	lines := lineindex.New("a\nb\n")
	second, _ := lines.LineAtRow(1)
	var cs lineindex.ChangeSet
	cs.MarkEdited(second.ID)
	var buf bytes.Buffer
	printChanges(&buf, lines, cs)
	if got := buf.String(); got != "inserted=0 removed=0 edited=1\nstale rows: 1\n" {
		t.Errorf("output = %q", got)
	}
}
