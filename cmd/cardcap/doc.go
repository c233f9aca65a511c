// Command cardcap drives a browser-hosted card renderer through a card list
// and saves one stabilized PNG per selected print.
//
// Subcommands:
//   - capture: run a card list (with optional priming pass and dry run)
//   - prints: show which prints a card reconciles to
//   - filename: print the deterministic output name of a print
//   - history: inspect the run ledger
//   - serve: run the bundled image server
//   - config: write or show configuration
package main
