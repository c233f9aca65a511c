package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardcap/internal/capture"
	"cardcap/internal/prints"
)

func newFilenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "filename <card> [set] [number]",
		Short:       "Print the output filename of a print",
		Args:        cobra.RangeArgs(1, 3),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var p prints.Print
			if len(args) > 1 {
				p.SetCode = args[1]
			}
			if len(args) > 2 {
				p.CollectorNumber = args[2]
			}
			fmt.Fprintln(cmd.OutOrStdout(), capture.OutputKey(args[0], p))
			return nil
		},
	}
}
