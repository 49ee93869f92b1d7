package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xonecas/quill/internal/text"
)

var indentCmd = &cobra.Command{
	Use:   "indent FILE",
	Short: "Print the detected indent unit, and optionally the line-break strategy at an offset",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndent,
}

func init() {
	indentCmd.Flags().Int("at", -1, "character offset of a line break to indent")
}

func runIndent(cmd *cobra.Command, args []string) error {
	d, err := openDocument(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := context.Background()
	detected := d.DetectIndentStrategy(ctx)
	fmt.Fprintf(os.Stdout, "detected: %v\n", detected)

	at, _ := cmd.Flags().GetInt("at")
	if at < 0 {
		return nil
	}
	if at > d.Len() {
		return fmt.Errorf("offset %d beyond document length %d", at, d.Len())
	}
	unit := detected.Unit(defaultUnit())
	st := d.StrategyForInsertingLineBreak(ctx, text.CharRange{Start: at, End: at}, unit)
	fmt.Fprintf(os.Stdout, "line break at %d: level=%d extra_line_break=%v indent=%q\n",
		at, st.IndentLevel, st.InsertExtraLineBreak, unit.String(st.IndentLevel))
	return nil
}
