package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cardcap/internal/capture"
	"cardcap/internal/cardlist"
	"cardcap/internal/prints"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var (
		primeFile string
		dryRun    bool
		tokens    bool
	)

	cmd := &cobra.Command{
		Use:   "capture <cards.txt>",
		Short: "Capture every card in a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			cards, err := cardlist.ParseFile(args[0])
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				return fmt.Errorf("no cards found in %s", args[0])
			}
			var primeCards []string
			if primeFile != "" {
				if primeCards, err = cardlist.ParseFile(primeFile); err != nil {
					return err
				}
			}

			lock, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mode := prints.ModeNormal
			if tokens {
				mode = prints.ModeToken
			}
			rt, err := openRuntime(runCtx, cfg, logger, runtimeOptions{mode: mode, withLedger: !dryRun})
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if dryRun {
				return printPlan(runCtx, out, rt.orchestrator, cards, mode)
			}

			if err := rt.orchestrator.Prepare(runCtx); err != nil {
				return err
			}
			colorize := shouldColorize(out)
			if len(primeCards) > 0 {
				summary, err := rt.orchestrator.Prime(runCtx, primeCards)
				printSummary(out, "Priming", summary, colorize)
				if err != nil {
					return err
				}
			}
			summary, err := rt.orchestrator.Run(runCtx, cards)
			printSummary(out, "Capture", summary, colorize)
			return err
		},
	}

	cmd.Flags().StringVar(&primeFile, "prime", "", "Card list rendered once, unfiltered and unsaved, before the capture run")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Reconcile prints and show the plan without capturing")
	cmd.Flags().BoolVar(&tokens, "tokens", false, "Treat the list as tokens and ignore set filters")
	return cmd
}

func printPlan(ctx context.Context, out io.Writer, o *capture.Orchestrator, cards []string, mode prints.Mode) error {
	rows := make([][]string, 0, len(cards))
	for _, name := range cards {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := o.Search(ctx, name, mode)
		if err != nil {
			rows = append(rows, []string{name, "-", "-", "error: " + err.Error(), ""})
			continue
		}
		if result.Skipped {
			rows = append(rows, []string{name, "-", "-", "skip (no match)", ""})
			continue
		}
		for _, p := range result.Prints {
			rows = append(rows, []string{name, p.SetCode, p.CollectorNumber, capture.OutputKey(name, p), yesNo(result.Fallback)})
		}
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Card", "Set", "Number", "Output", "Fallback"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
	return nil
}
