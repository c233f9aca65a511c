package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"cardcap/internal/artpipeline"
	"cardcap/internal/lands"
	"cardcap/internal/prints"
	"cardcap/internal/project"
	"cardcap/internal/services"
)

func newLandsCommand(ctx *commandContext) *cobra.Command {
	var (
		templatePath string
		output       string
		strategy     string
		extraFilter  string
		includeSets  []string
		excludeSets  []string
		whiteBorder  bool
	)

	cmd := &cobra.Command{
		Use:   "lands [land type...]",
		Short: "Generate a full-art basic land project from a template",
		Long: "Search full-art printings of each basic land type, prepare their art and\n" +
			"clone the matching template card for every selected print. With no land\n" +
			"types every basic land is generated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if templatePath == "" || output == "" {
				return errors.New("--template and --output are required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			templates, err := project.Load(templatePath)
			if err != nil {
				return err
			}

			if strategy == "" {
				strategy = cfg.Selection.Strategy
			}
			selected, err := prints.ParseStrategy(strategy)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "lands", "strategy", "", err)
			}
			if !cmd.Flags().Changed("include-sets") {
				includeSets = cfg.Filters.BasicLandIncludeSets
			}
			if !cmd.Flags().Changed("exclude-sets") {
				excludeSets = cfg.Filters.BasicLandExcludeSets
			}
			if !cmd.Flags().Changed("filter") {
				extraFilter = cfg.Scryfall.ExtraFilter
			}
			if !cmd.Flags().Changed("white-border") {
				whiteBorder = cfg.Renderer.WhiteBorder
			}

			store, err := buildStore(cfg, logger)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "setup", "storage", "", err)
			}
			client, err := buildScryfall(cfg)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "setup", "scryfall", "", err)
			}
			pipeline, err := buildPipeline(cfg, store, client, logger)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "setup", "art pipeline", "", err)
			}
			var art lands.ArtPreparer
			if pipeline != nil {
				art = pipeline
			}

			gen := lands.New(client, art, artpipeline.NewHTTPFetcher(seconds(cfg.Art.TimeoutSeconds)), lands.Options{
				Lands:          args,
				Filter:         prints.NewSetFilter(includeSets, excludeSets),
				Strategy:       selected,
				ExtraFilter:    extraFilter,
				ImageServerURL: cfg.Storage.ServerURL,
				WhiteBorder:    whiteBorder,
				UpscaleFactor:  cfg.Upscale.Factor,
			}, logger)
			generated, report, err := gen.Generate(cmd.Context(), templates)
			out := cmd.OutOrStdout()
			printSkippedLands(out, report)
			if err != nil {
				return err
			}
			if err := generated.Save(output); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved %d cards to %s\n", generated.Len(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Template project holding one card per land type")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output project path")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Print selection: latest, earliest, random or all (default from [selection])")
	cmd.Flags().StringVar(&extraFilter, "filter", "", "Extra search filter appended to every query")
	cmd.Flags().StringSliceVar(&includeSets, "include-sets", nil, "Only use prints from these sets")
	cmd.Flags().StringSliceVar(&excludeSets, "exclude-sets", nil, "Never use prints from these sets")
	cmd.Flags().BoolVar(&whiteBorder, "white-border", false, "Add the white border overlay")
	return cmd
}

func printSkippedLands(out io.Writer, report lands.Report) {
	if len(report.Skipped) == 0 {
		return
	}
	names := make([]string, 0, len(report.Skipped))
	for land := range report.Skipped {
		names = append(names, land)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, land := range names {
		rows = append(rows, []string{land, report.Skipped[land]})
	}
	fmt.Fprintln(out, renderTable([]string{"Skipped", "Reason"}, rows, []columnAlignment{alignLeft, alignLeft}))
}
