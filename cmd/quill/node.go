package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xonecas/quill/internal/text"
)

var nodeCmd = &cobra.Command{
	Use:   "node FILE ROW COL",
	Short: "Print the syntax node at a zero-based row and byte column",
	Args:  cobra.ExactArgs(3),
	RunE:  runNode,
}

func init() {
	nodeCmd.Flags().Bool("highest", false, "print the largest node starting at the position")
}

func runNode(cmd *cobra.Command, args []string) error {
	row, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("row: %w", err)
	}
	col, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("col: %w", err)
	}
	d, err := openDocument(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	p := text.Point{Row: row, Column: col}
	find := d.SyntaxNode
	if highest, _ := cmd.Flags().GetBool("highest"); highest {
		find = d.HighestSyntaxNode
	}
	n, ok := find(p)
	if !ok {
		return fmt.Errorf("no syntax node at %v", p)
	}
	fmt.Fprintf(os.Stdout, "%s (%s) %v-%v %v\n", n.Type, n.Language, n.Start, n.End, n.Range)
	return nil
}
