package prints

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"cardcap/internal/logging"
)

// Mode selects how filters apply to a card.
type Mode int

const (
	ModeNormal Mode = iota
	// ModePriming captures every exact match with no filtering.
	ModePriming
	// ModeToken skips set filters; token sets carry their own prefixes.
	ModeToken
)

func (m Mode) String() string {
	switch m {
	case ModePriming:
		return "priming"
	case ModeToken:
		return "token"
	default:
		return "normal"
	}
}

// Policy is the selection configuration for a run.
type Policy struct {
	Strategy Strategy
	NoMatch  Strategy
	Filters  Filters
	Mode     Mode
	// Pick overrides the random source; nil uses math/rand/v2.
	Pick Picker
}

func (p Policy) filterFor(cardName string) SetFilter {
	if p.Mode != ModeNormal {
		return SetFilter{}
	}
	return p.Filters.For(cardName)
}

// Record is one print returned by the external search service.
type Record struct {
	Name            string
	SetCode         string
	CollectorNumber string
	IllustrationID  string
	TypeLine        string
	ReleasedAt      string
	ArtURL          string
}

// Key returns the record's join key.
func (r Record) Key() Key {
	return KeyOf(r.SetCode, r.CollectorNumber)
}

// Searcher queries the external metadata service. Results are ordered by
// release date, oldest first.
type Searcher interface {
	SearchPrints(ctx context.Context, query string) ([]Record, error)
}

// Result is the reconciled list of prints to capture.
type Result struct {
	Prints []Print
	// Ordering is the order Prints are listed in.
	Ordering Ordering
	// Fallback is set when no print satisfied the filters or the external join.
	Fallback bool
	// Pending is set when an include filter matched nothing: Prints is the
	// post-exclude list and the no-match policy still has to be applied with
	// ApplyNoMatch.
	Pending bool
	// Skipped is set when the no-match policy is skip.
	Skipped bool
	// Records maps captured prints to their matched external record.
	Records map[Key]Record
}

// Record returns the external record matched to p, if any.
func (r Result) Record(p Print) (Record, bool) {
	rec, ok := r.Records[p.Key()]
	return rec, ok
}

// ReconcileLocal selects prints from the renderer's own list.
//
// Excluded sets are removed first, then the include list is applied. An
// include list that matches nothing returns the whole post-exclude list with
// Fallback and Pending set, leaving the no-match policy to the caller.
// Single-pick strategies expand the representative to every print of its set.
func ReconcileLocal(cardName string, local List, policy Policy) Result {
	if policy.Mode == ModePriming {
		return Result{Prints: append([]Print(nil), local.Prints...), Ordering: local.Ordering}
	}

	kept, fallback := policy.filterFor(cardName).Apply(local.Prints)
	if fallback {
		return Result{Prints: kept, Ordering: local.Ordering, Fallback: true, Pending: true}
	}
	return Result{Prints: selectExpanded(List{Ordering: local.Ordering, Prints: kept}, policy.Strategy, policy.Pick), Ordering: local.Ordering}
}

// ApplyNoMatch resolves a pending fallback with the no-match policy. Results
// that are not pending are returned unchanged.
func ApplyNoMatch(res Result, policy Policy) Result {
	if !res.Pending {
		return res
	}
	if policy.NoMatch == StrategySkip {
		return Result{Ordering: res.Ordering, Fallback: true, Skipped: true}
	}
	candidates := List{Ordering: res.Ordering, Prints: res.Prints}
	return Result{
		Prints:   selectExpanded(candidates, policy.NoMatch, policy.Pick),
		Ordering: res.Ordering,
		Fallback: true,
		Records:  res.Records,
	}
}

func selectExpanded(list List, strategy Strategy, pick Picker) []Print {
	selected := SelectByStrategy(list, strategy, pick)
	if strategy != StrategyAll && len(selected) == 1 {
		return expandToSet(list.Prints, selected[0])
	}
	return selected
}

// Reconciler cross-references local prints with an external search service.
type Reconciler struct {
	searcher    Searcher
	extraFilter string
	logger      *slog.Logger
}

// NewReconciler builds a reconciler. A nil searcher restricts it to local mode.
// extraFilter is appended verbatim to every search, e.g. "lang:en".
func NewReconciler(searcher Searcher, extraFilter string, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		searcher:    searcher,
		extraFilter: strings.TrimSpace(extraFilter),
		logger:      logging.NewComponentLogger(logger, "prints"),
	}
}

// CrossReferences reports whether external search is configured.
func (r *Reconciler) CrossReferences() bool {
	return r != nil && r.searcher != nil
}

// Reconcile returns the prints to capture for cardName. Without a searcher,
// or in priming mode, it is ReconcileLocal and may come back Pending. Search
// failures degrade to local mode; only context cancellation is returned as an
// error.
func (r *Reconciler) Reconcile(ctx context.Context, cardName string, local List, policy Policy) (Result, error) {
	if !r.CrossReferences() || policy.Mode == ModePriming {
		return ReconcileLocal(cardName, local, policy), nil
	}
	logger := logging.WithContext(ctx, r.logger)

	filter := policy.filterFor(cardName)
	query := BuildQuery(cardName, filter, r.extraFilter)
	records, err := r.searcher.SearchPrints(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		logging.WarnWithContext(logger, "unique art search failed", "search_failed",
			logging.String("query", query),
			logging.Error(err),
			logging.String(logging.FieldImpact, "selecting from renderer prints only"),
		)
		return ReconcileLocal(cardName, local, policy), nil
	}

	if len(records) == 0 {
		retry := BuildRetryQuery(cardName, policy.NoMatch, r.extraFilter)
		logger.Info("no unique art matched filters, retrying without set filters",
			logging.String("query", query),
			logging.String("retry_query", retry),
		)
		records, err = r.searcher.SearchPrints(ctx, retry)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			logger.Warn("retry search failed", logging.String("query", retry), logging.Error(err))
			records = nil
		}
	}

	matched, byKey := r.join(ctx, logger, local.Prints, records)
	if len(matched) == 0 {
		return r.noMatch(logger, local, policy), nil
	}

	selected := SelectByStrategy(List{Ordering: OldestFirst, Prints: matched}, policy.Strategy, policy.Pick)
	result := Result{Prints: selected, Ordering: OldestFirst, Records: make(map[Key]Record, len(selected))}
	for _, p := range selected {
		result.Records[p.Key()] = byKey[p.Key()]
	}
	logger.Debug("cross-referenced prints",
		logging.Int("external", len(records)),
		logging.Int("matched", len(matched)),
		logging.Int("selected", len(selected)),
	)
	return result, nil
}

type matchedPrint struct {
	print  Print
	record Record
}

// join matches records against local prints on (set, number), then follows
// illustration identities to recover prints filtered out by set. The result is
// ordered oldest first.
func (r *Reconciler) join(ctx context.Context, logger *slog.Logger, local []Print, records []Record) ([]Print, map[Key]Record) {
	index := make(map[Key]Print, len(local))
	for _, p := range local {
		if k := p.Key(); !k.IsZero() {
			if _, dup := index[k]; !dup {
				index[k] = p
			}
		}
	}

	var matches []matchedPrint
	seen := make(map[Key]struct{})
	add := func(rec Record) {
		k := rec.Key()
		p, ok := index[k]
		if !ok {
			return
		}
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		matches = append(matches, matchedPrint{print: p, record: rec})
	}

	for _, rec := range records {
		add(rec)
	}

	followed := make(map[string]struct{})
	for _, rec := range records {
		id := strings.TrimSpace(rec.IllustrationID)
		if id == "" {
			continue
		}
		if _, ok := followed[id]; ok {
			continue
		}
		followed[id] = struct{}{}
		siblings, err := r.searcher.SearchPrints(ctx, IllustrationQuery(id))
		if err != nil {
			logger.Warn("illustration search failed", logging.String("illustration_id", id), logging.Error(err))
			continue
		}
		for _, sib := range siblings {
			if sib.IllustrationID == "" {
				sib.IllustrationID = id
			}
			add(sib)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return releasedBefore(matches[i].record.ReleasedAt, matches[j].record.ReleasedAt)
	})

	out := make([]Print, 0, len(matches))
	byKey := make(map[Key]Record, len(matches))
	for _, m := range matches {
		out = append(out, m.print)
		byKey[m.print.Key()] = m.record
	}
	return out, byKey
}

// releasedBefore orders ISO release dates ascending with undated records last.
func releasedBefore(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return false
	case b == "":
		return true
	default:
		return a < b
	}
}

func (r *Reconciler) noMatch(logger *slog.Logger, local List, policy Policy) Result {
	if policy.NoMatch == StrategySkip {
		logger.Info("no unique art matched renderer prints, skipping card",
			logging.String("no_match", string(policy.NoMatch)),
		)
		return Result{Ordering: local.Ordering, Fallback: true, Skipped: true}
	}
	selected := SelectByStrategy(local, policy.NoMatch, policy.Pick)
	logger.Info("no unique art matched renderer prints, using no-match policy",
		logging.String("no_match", string(policy.NoMatch)),
		logging.Int("selected", len(selected)),
	)
	return Result{Prints: selected, Ordering: local.Ordering, Fallback: true}
}

// BuildQuery renders the unique-art search for cardName with set filters and
// the free-form extra filter.
func BuildQuery(cardName string, filter SetFilter, extra string) string {
	parts := []string{exactName(cardName), "unique:art"}
	switch len(filter.Include) {
	case 0:
	case 1:
		parts = append(parts, "set:"+filter.Include[0])
	default:
		terms := make([]string, 0, len(filter.Include))
		for _, set := range filter.Include {
			terms = append(terms, "set:"+set)
		}
		parts = append(parts, "("+strings.Join(terms, " or ")+")")
	}
	for _, set := range filter.Exclude {
		parts = append(parts, "-set:"+set)
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, " ")
}

// BuildRetryQuery drops set filters and asks the service to prefer the print
// the no-match policy would pick.
func BuildRetryQuery(cardName string, noMatch Strategy, extra string) string {
	prefer := "prefer:oldest"
	if noMatch == StrategyLatest {
		prefer = "prefer:newest"
	}
	return BuildQuery(cardName, SetFilter{}, extra) + " " + prefer
}

// IllustrationQuery lists every print sharing an illustration.
func IllustrationQuery(id string) string {
	return fmt.Sprintf("illustrationid:%s unique:prints", strings.TrimSpace(id))
}

func exactName(cardName string) string {
	return `!"` + strings.ReplaceAll(strings.TrimSpace(cardName), `"`, "") + `"`
}
