package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cardcap/internal/capture"
	"cardcap/internal/prints"
)

func newPrintsCommand(ctx *commandContext) *cobra.Command {
	var tokens bool

	cmd := &cobra.Command{
		Use:   "prints <card name>",
		Short: "Show the prints a card reconciles to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")

			lock, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			mode := prints.ModeNormal
			if tokens {
				mode = prints.ModeToken
			}
			rt, err := openRuntime(cmd.Context(), cfg, logger, runtimeOptions{mode: mode})
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.orchestrator.Search(cmd.Context(), name, mode)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result.Skipped {
				fmt.Fprintf(out, "%s: no print matched the filters (no_match = skip)\n", name)
				return nil
			}
			rows := make([][]string, 0, len(result.Prints))
			for _, p := range result.Prints {
				illustration := ""
				if rec, ok := result.Record(p); ok {
					illustration = rec.IllustrationID
				}
				rows = append(rows, []string{p.DisplayText, p.SetCode, p.CollectorNumber, illustration, capture.OutputKey(name, p)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Print", "Set", "Number", "Illustration", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			if result.Fallback {
				fmt.Fprintln(out, "Selected by the no-match policy.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&tokens, "tokens", false, "Ignore set filters")
	return cmd
}
