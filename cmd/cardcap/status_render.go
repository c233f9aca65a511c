package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"cardcap/internal/capture"
	"cardcap/internal/history"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const summaryLabelWidth = 10

func printSummary(out io.Writer, label string, summary capture.Summary, colorize bool) {
	fmt.Fprintf(out, "== %s ==\n", label)
	fmt.Fprintln(out, summaryLine("Saved", summary.Saved, ansiGreen, colorize))
	fmt.Fprintln(out, summaryLine("Skipped", summary.Skipped, ansiYellow, colorize))
	failedColor := ""
	if summary.Failed > 0 {
		failedColor = ansiRed
	}
	fmt.Fprintln(out, summaryLine("Failed", summary.Failed, failedColor, colorize))
	if summary.Primed > 0 {
		fmt.Fprintln(out, summaryLine("Primed", summary.Primed, ansiBlue, colorize))
	}
	fmt.Fprintf(out, "  %-*s %s\n", summaryLabelWidth, "Duration:", summary.Duration.Round(10*time.Millisecond))
	if summary.RunID != "" {
		fmt.Fprintf(out, "  %-*s %s\n", summaryLabelWidth, "Run:", summary.RunID)
	}

	failures := failedRows(summary)
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Card", "Set", "Number", "Reason"},
		failures,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
}

func summaryLine(label string, count int, color string, colorize bool) string {
	line := fmt.Sprintf("  %-*s %d", summaryLabelWidth, label+":", count)
	if colorize && color != "" {
		return color + line + ansiReset
	}
	return line
}

func failedRows(summary capture.Summary) [][]string {
	var rows [][]string
	for _, card := range summary.Results {
		if len(card.Prints) == 0 {
			if card.Outcome == history.OutcomeFailed {
				rows = append(rows, []string{card.Card, "-", "-", card.Reason})
			}
			continue
		}
		for _, p := range card.Prints {
			if p.Outcome == history.OutcomeFailed {
				rows = append(rows, []string{card.Card, p.Print.SetCode, p.Print.CollectorNumber, p.Reason})
			}
		}
	}
	return rows
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
