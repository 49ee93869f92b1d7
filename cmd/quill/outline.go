package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xonecas/quill/internal/treesitter"
)

var outlineCmd = &cobra.Command{
	Use:   "outline FILE",
	Short: "List the top-level symbols of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		d, err := openDocument(args[0])
		if err != nil {
			return err
		}
		defer d.Close()
		syms := d.Outline()
		if len(syms) == 0 {
			fmt.Fprintln(os.Stdout, "no symbols")
			return nil
		}
		rowOf := func(b int) int {
			l, _ := d.Lines().LineAtByte(b)
			return l.Row
		}
		fmt.Fprint(os.Stdout, treesitter.FormatOutline(syms, rowOf))
		return nil
	},
}
