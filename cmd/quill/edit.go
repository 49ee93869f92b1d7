package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xonecas/quill/internal/lineindex"
	"github.com/xonecas/quill/internal/text"
)

var editCmd = &cobra.Command{
	Use:   "edit FILE",
	Short: "Apply one edit and print the lines it invalidates",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func init() {
	editCmd.Flags().Int("at", 0, "character offset of the edit")
	editCmd.Flags().Int("delete", 0, "number of characters to remove")
	editCmd.Flags().String("insert", "", `text to insert (\n and \t are unescaped)`)
	editCmd.Flags().Bool("print", false, "print the edited text")
}

func runEdit(cmd *cobra.Command, args []string) error {
	at, _ := cmd.Flags().GetInt("at")
	del, _ := cmd.Flags().GetInt("delete")
	ins, _ := cmd.Flags().GetString("insert")
	ins = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r").Replace(ins)

	d, err := openDocument(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	r := text.NewCharRange(at, del)
	if at < 0 || del < 0 || r.End > d.Len() {
		return fmt.Errorf("range %v outside document of %d characters", r, d.Len())
	}
	changes := d.Replace(r, ins)
	printChanges(os.Stdout, d.Lines(), changes)
	if show, _ := cmd.Flags().GetBool("print"); show {
		fmt.Fprint(os.Stdout, d.Text())
	}
	return nil
}

func printChanges(w io.Writer, lines *lineindex.Index, changes lineindex.ChangeSet) {
	fmt.Fprintf(w, "inserted=%d removed=%d edited=%d\n",
		len(changes.Inserted()), len(changes.Removed()), len(changes.Edited()))
	var rows []string
	for _, id := range changes.IDs() {
		if l, ok := lines.Line(id); ok {
			rows = append(rows, fmt.Sprint(l.Row))
		}
	}
	fmt.Fprintf(w, "stale rows: %s\n", strings.Join(rows, " "))
}
