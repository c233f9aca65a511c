package lands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cardcap/internal/artpipeline"
	"cardcap/internal/logging"
	"cardcap/internal/prints"
	"cardcap/internal/project"
	"cardcap/internal/scryfall"
)

// Basics lists the land types the generator knows, in color order.
var Basics = []string{"Plains", "Island", "Swamp", "Mountain", "Forest", "Wastes"}

// ErrNothingGenerated is returned when no land could be generated.
var ErrNothingGenerated = errors.New("no lands were generated")

// IsBasic reports whether name is one of Basics.
func IsBasic(name string) bool {
	for _, basic := range Basics {
		if basic == name {
			return true
		}
	}
	return false
}

// Searcher runs external card searches.
type Searcher interface {
	Search(ctx context.Context, query string, opts scryfall.SearchOptions) ([]scryfall.Card, error)
}

// ArtPreparer resolves the art URL of a print.
type ArtPreparer interface {
	Prepare(ctx context.Context, ref artpipeline.Ref, hint *artpipeline.Hint) artpipeline.Result
}

// Options configures a Generator.
type Options struct {
	// Lands are the land types to generate; empty means Basics.
	Lands    []string
	Filter   prints.SetFilter
	Strategy prints.Strategy
	Pick     prints.Picker
	// ExtraFilter is appended to every search query.
	ExtraFilter string
	// ImageServerURL prefixes the blank symbol and white border assets.
	ImageServerURL string
	WhiteBorder    bool
	// UpscaleFactor scales measured art dimensions when the pipeline
	// returned upscaled art.
	UpscaleFactor int
}

// Generator builds full-art land projects.
type Generator struct {
	searcher Searcher
	art      ArtPreparer
	fetcher  artpipeline.Fetcher
	opts     Options
	logger   *slog.Logger
}

// New constructs a generator. art may be nil to use the raw art crop URLs;
// fetcher may be nil to skip art placement.
func New(searcher Searcher, art ArtPreparer, fetcher artpipeline.Fetcher, opts Options, logger *slog.Logger) *Generator {
	if len(opts.Lands) == 0 {
		opts.Lands = Basics
	}
	if opts.Strategy == "" {
		opts.Strategy = prints.StrategyEarliest
	}
	if opts.UpscaleFactor <= 0 {
		opts.UpscaleFactor = 1
	}
	return &Generator{
		searcher: searcher,
		art:      art,
		fetcher:  fetcher,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "lands"),
	}
}

// Report summarizes a Generate call.
type Report struct {
	// Generated holds the keys of generated cards in output order.
	Generated []string
	// Skipped maps a land type to why nothing was generated for it.
	Skipped map[string]string
}

func (r *Report) skip(land, reason string) {
	if r.Skipped == nil {
		r.Skipped = make(map[string]string)
	}
	r.Skipped[land] = reason
}

// Query builds the full-art search for one land type.
func Query(land, extra string) string {
	parts := []string{`!"` + land + `"`, "type:land", "type:basic", "is:fullart"}
	if extra = strings.TrimSpace(extra); extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, " ")
}

// Generate builds one card per selected print of every requested land type,
// cloned from the template card with the same title. Land types without a
// template, without matching prints or whose search fails are skipped and
// reported. It returns ErrNothingGenerated when every land type was skipped.
func (g *Generator) Generate(ctx context.Context, templates *project.Project) (*project.Project, Report, error) {
	out := project.New()
	var report Report
	for _, land := range g.opts.Lands {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		logger := logging.WithContext(ctx, g.logger).With(logging.String(logging.FieldCard, land))
		if !IsBasic(land) {
			logger.Warn("unknown land type, skipping")
			report.skip(land, "unknown land type")
			continue
		}
		template, ok := templates.Find(land)
		if !ok {
			logger.Warn("no template card for land type, skipping")
			report.skip(land, "no template")
			continue
		}

		selected, err := g.selectPrints(ctx, logger, land)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, report, ctxErr
			}
			logging.WarnWithContext(logger, "full-art search failed", "search_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "land type skipped"),
			)
			report.skip(land, "search failed")
			continue
		}
		if len(selected) == 0 {
			report.skip(land, "no matching prints")
			continue
		}

		for _, card := range selected {
			generated, err := g.build(ctx, logger, template, land, card)
			if err != nil {
				return nil, report, err
			}
			out.Append(generated)
			report.Generated = append(report.Generated, generated.Key())
			logger.Info("generated land", logging.String("key", generated.Key()))
		}
	}
	if out.Len() == 0 {
		return nil, report, ErrNothingGenerated
	}
	return out, report, nil
}

// selectPrints searches full-art printings oldest first, applies the set
// filter and the selection strategy. An include list that matches nothing
// yields no prints.
func (g *Generator) selectPrints(ctx context.Context, logger *slog.Logger, land string) ([]scryfall.Card, error) {
	query := Query(land, g.opts.ExtraFilter)
	cards, err := g.searcher.Search(ctx, query, scryfall.SearchOptions{Unique: "prints", Order: "released", Dir: "asc"})
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		logger.Info("no full-art prints found", logging.String("query", query))
		return nil, nil
	}

	byKey := make(map[prints.Key]scryfall.Card, len(cards))
	candidates := make([]prints.Print, 0, len(cards))
	for _, card := range cards {
		p := prints.Print{
			DisplayText:     fmt.Sprintf("%s (%s #%s)", land, strings.ToUpper(card.Set), card.CollectorNumber),
			SetCode:         card.Set,
			CollectorNumber: card.CollectorNumber,
		}
		byKey[p.Key()] = card
		candidates = append(candidates, p)
	}
	kept, fallback := g.opts.Filter.Apply(candidates)
	if fallback || len(kept) == 0 {
		logger.Info("no full-art prints left after set filters", logging.Int("found", len(cards)))
		return nil, nil
	}

	chosen := prints.SelectByStrategy(prints.List{Ordering: prints.OldestFirst, Prints: kept}, g.opts.Strategy, g.opts.Pick)
	logger.Info("selected full-art prints",
		logging.Int("found", len(cards)),
		logging.Int("kept", len(kept)),
		logging.Int("selected", len(chosen)),
		logging.String("strategy", string(g.opts.Strategy)),
	)
	out := make([]scryfall.Card, 0, len(chosen))
	for _, p := range chosen {
		out = append(out, byKey[p.Key()])
	}
	return out, nil
}

func (g *Generator) build(ctx context.Context, logger *slog.Logger, template project.Card, land string, card scryfall.Card) (project.Card, error) {
	generated, err := template.Clone()
	if err != nil {
		return project.Card{}, err
	}
	set := strings.ToUpper(card.Set)
	if set == "" {
		set = "UNK"
	}
	number := card.CollectorNumber
	if number == "" {
		number = "0"
	}
	logger = logger.With(logging.String(logging.FieldSetCode, set), logging.String(logging.FieldCollectorNumber, number))

	artURL, stage := g.prepareArt(ctx, logger, land, set, number, card)
	generated.SetKey(fmt.Sprintf("%s (%s #%s)", land, set, number))
	generated.Set("artSource", artURL)
	g.place(ctx, logger, generated, card.ArtCropURL(), stage)

	base := strings.TrimRight(g.opts.ImageServerURL, "/")
	blank := base + "/img/blank.png"
	generated.Set("setSymbolSource", blank)
	generated.Set("watermarkSource", blank)
	artist := card.Artist
	if artist == "" {
		artist = "Unknown"
	}
	generated.Set("infoSet", set)
	generated.Set("infoNumber", number)
	generated.Set("infoArtist", artist)
	year := card.ReleasedAt
	if len(year) > 4 {
		year = year[:4]
	}
	generated.Set("infoYear", year)
	if g.opts.WhiteBorder {
		generated.AddWhiteBorder(base)
	}
	return generated, nil
}

func (g *Generator) prepareArt(ctx context.Context, logger *slog.Logger, land, set, number string, card scryfall.Card) (string, artpipeline.Stage) {
	crop := card.ArtCropURL()
	if g.art == nil {
		return crop, ""
	}
	res := g.art.Prepare(ctx, artpipeline.Ref{CardName: land, SetCode: set, CollectorNumber: number}, &artpipeline.Hint{ArtURL: crop, TypeLine: card.Type()})
	if res.URL == "" {
		logging.WarnWithContext(logger, "art preparation failed", "art_prepare_failed",
			logging.String(logging.FieldImpact, "using the raw art crop"),
		)
		return crop, ""
	}
	return res.URL, res.Stage
}

// place sets the art placement from the source art's pixel size. Placement is
// skipped with a warning when the template has no art bounds or the art
// cannot be measured.
func (g *Generator) place(ctx context.Context, logger *slog.Logger, card project.Card, sourceURL string, stage artpipeline.Stage) {
	frame, ok := FrameOf(card)
	if !ok || g.fetcher == nil || sourceURL == "" {
		logger.Debug("skipping art placement", logging.Bool("has_bounds", ok))
		return
	}
	data, err := g.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		logging.WarnWithContext(logger, "art measurement failed", "art_measure_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "template art placement kept"),
		)
		return
	}
	width, height, err := imageSize(data)
	if err != nil {
		logging.WarnWithContext(logger, "art measurement failed", "art_measure_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "template art placement kept"),
		)
		return
	}
	if stage == artpipeline.StageUpscaled {
		width *= g.opts.UpscaleFactor
		height *= g.opts.UpscaleFactor
	}
	placement, err := FitArt(frame, float64(width), float64(height))
	if err != nil {
		logger.Warn("art placement failed", logging.Error(err))
		return
	}
	card.Set("artX", placement.X)
	card.Set("artY", placement.Y)
	card.Set("artZoom", placement.Zoom)
	card.Set("artRotate", 0)
	logger.Debug("art placed",
		logging.String("art_x", fmt.Sprintf("%.4f", placement.X)),
		logging.String("art_y", fmt.Sprintf("%.4f", placement.Y)),
		logging.String("art_zoom", fmt.Sprintf("%.4f", placement.Zoom)),
	)
}
