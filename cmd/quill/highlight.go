package main

import (
	"fmt"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/xonecas/quill/internal/highlight"
	"github.com/xonecas/quill/internal/query"
	"github.com/xonecas/quill/internal/text"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight FILE",
	Short: "Print a file colored by capture category",
	Args:  cobra.ExactArgs(1),
	RunE:  runHighlight,
}

func init() {
	highlightCmd.Flags().String("theme", "", "chroma style (defaults to the configured theme)")
	highlightCmd.Flags().Bool("captures", false, "list captures instead of coloring")
}

func runHighlight(cmd *cobra.Command, args []string) error {
	d, err := openDocument(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	themeName, _ := cmd.Flags().GetString("theme")
	if themeName == "" {
		themeName = cfg.Highlight.Theme
	}
	th, err := highlight.LoadTheme(themeName)
	if err != nil {
		return err
	}

	src := d.Bytes()
	sched := highlight.NewScheduler()
	results := make(chan highlight.Result, 1)
	sched.Submit(d.HighlightJob(text.ByteRange{Start: 0, End: len(src)}), func(r highlight.Result) {
		results <- r
	})
	res := <-results
	sched.Wait()
	if res.Err != nil {
		return res.Err
	}

	if list, _ := cmd.Flags().GetBool("captures"); list {
		for _, c := range res.Captures {
			fmt.Fprintf(os.Stdout, "%-12s %-10s %-24s %q\n", c.Category, c.Language, c.Range, src[c.Range.Start:c.Range.End])
		}
		return nil
	}
	fmt.Fprint(os.Stdout, paint(src, res.Captures, th))
	return nil
}

type run struct {
	cat   query.Category
	start int
	end   int
}

// paintRuns splits src into runs of one category. Captures are in document
// order, so a later capture overrides the bytes of an earlier enclosing one.
// Runs never span a line break.
func paintRuns(src []byte, caps []query.Capture) []run {
	cats := make([]query.Category, len(src))
	for _, c := range caps {
		if c.Category.IsIndent() || c.Category == query.CategoryInjection {
			continue
		}
		for i := max(c.Range.Start, 0); i < min(c.Range.End, len(src)); i++ {
			cats[i] = c.Category
		}
	}
	var runs []run
	for i := 0; i < len(src); {
		j := i + 1
		if src[i] != '\n' {
			for j < len(src) && src[j] != '\n' && cats[j] == cats[i] {
				j++
			}
		}
		runs = append(runs, run{cat: cats[i], start: i, end: j})
		i = j
	}
	return runs
}

func paint(src []byte, caps []query.Capture, th highlight.Theme) string {
	styles := make(map[query.Category]lipgloss.Style)
	styleFor := func(cat query.Category) lipgloss.Style {
		if s, ok := styles[cat]; ok {
			return s
		}
		s := lipgloss.NewStyle().Foreground(lipgloss.Color(th.Color(cat))).Bold(th.Bold(cat))
		styles[cat] = s
		return s
	}
	var b strings.Builder
	for _, r := range paintRuns(src, caps) {
		chunk := string(src[r.start:r.end])
		if chunk == "\n" || r.cat == query.CategoryNone {
			b.WriteString(chunk)
			continue
		}
		b.WriteString(styleFor(r.cat).Render(chunk))
	}
	return b.String()
}
