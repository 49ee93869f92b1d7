package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var layersCmd = &cobra.Command{
	Use:   "layers FILE",
	Short: "List the syntax layers of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		d, err := openDocument(args[0])
		if err != nil {
			return err
		}
		defer d.Close()
		layers := d.Layers()
		if len(layers) == 0 {
			fmt.Fprintln(os.Stdout, "no grammar: highlighted by lexer only")
			return nil
		}
		for _, l := range layers {
			ranges := make([]string, len(l.Ranges))
			for i, r := range l.Ranges {
				ranges[i] = r.String()
			}
			fmt.Fprintf(os.Stdout, "%s%-10s %v children=%d %s\n",
				strings.Repeat("  ", l.Depth), l.Language, l.Cover, l.Children, strings.Join(ranges, " "))
		}
		return nil
	},
}
