package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cardcap/internal/project"
	"cardcap/internal/textedit"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var (
		output      string
		inPlace     bool
		whiteBorder bool
		blackBorder bool
	)

	cmd := &cobra.Command{
		Use:   "edit <project.cardconjurer>",
		Short: "Apply the configured text edits to a saved project file",
		Long: "Apply the [text] edits from the configuration to every card of a saved\n" +
			"project file, optionally adding or removing the white border overlay.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if whiteBorder && blackBorder {
				return errors.New("--white-border and --black-border are mutually exclusive")
			}
			if inPlace && output != "" {
				return errors.New("--in-place and --output are mutually exclusive")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source := args[0]
			p, err := project.Load(source)
			if err != nil {
				return err
			}
			opts := project.EditOptions{Plan: textedit.PlanFromConfig(cfg.Text)}
			switch {
			case whiteBorder:
				opts.Border = project.BorderWhite
			case blackBorder:
				opts.Border = project.BorderBlack
			}
			if opts.Plan.Empty() && opts.Border == project.BorderKeep {
				return errors.New("nothing to edit: configure [text] or pass a border flag")
			}
			report := p.ApplyEdits(opts)

			target := output
			switch {
			case inPlace:
				target = source
			case target == "":
				target = editedPath(source)
			}
			if err := p.Save(target); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Applied edits to %d cards (%d changed, %d fields)\n", report.Cards, report.Changed, report.Fields)
			fmt.Fprintf(out, "Saved edited project file to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default <name>_edited<ext> next to the input)")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "Overwrite the input file")
	cmd.Flags().BoolVar(&whiteBorder, "white-border", false, "Add the white border overlay")
	cmd.Flags().BoolVar(&blackBorder, "black-border", false, "Remove the white border overlay")
	return cmd
}

func editedPath(source string) string {
	ext := filepath.Ext(source)
	return strings.TrimSuffix(source, ext) + "_edited" + ext
}
