package prints_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cardcap/internal/prints"
)

type fakeSearcher struct {
	results map[string][]prints.Record
	err     error
	queries []string
}

func (f *fakeSearcher) SearchPrints(_ context.Context, query string) ([]prints.Record, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func local(ps ...prints.Print) prints.List {
	return prints.List{Ordering: prints.NewestFirst, Prints: ps}
}

func pr(set, num string) prints.Print {
	return prints.Print{DisplayText: "Card (" + set + " #" + num + ")", SetCode: set, CollectorNumber: num, SelectorToken: set + num}
}

func TestReconcileLocalEarliestIsland(t *testing.T) {
	policy := prints.Policy{Strategy: prints.StrategyEarliest, NoMatch: prints.StrategyEarliest}
	res := prints.ReconcileLocal("Island", local(pr("LEA", "1"), pr("4ED", "2")), policy)
	if res.Fallback {
		t.Fatal("unexpected fallback")
	}
	if got := sets(res.Prints); !equalStrings(got, []string{"4ED#2"}) {
		t.Fatalf("got %v, want [4ED#2]", got)
	}
}

func TestReconcileLocalExpandsRepresentativeSet(t *testing.T) {
	policy := prints.Policy{Strategy: prints.StrategyLatest, NoMatch: prints.StrategyEarliest}
	res := prints.ReconcileLocal("Forest", local(pr("UST", "216"), pr("ust", "215"), pr("LEA", "1"), pr("UST", "214")), policy)
	want := []string{"UST#216", "ust#215", "UST#214"}
	if got := sets(res.Prints); !equalStrings(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReconcileLocalIncludeFallback(t *testing.T) {
	policy := prints.Policy{
		Strategy: prints.StrategyAll,
		NoMatch:  prints.StrategyEarliest,
		Filters:  prints.Filters{Legacy: prints.NewSetFilter([]string{"XYZ"}, []string{"lea"})},
	}
	res := prints.ReconcileLocal("Sol Ring", local(pr("C21", "263"), pr("LEA", "1"), pr("2ED", "2")), policy)
	if !res.Fallback || !res.Pending {
		t.Fatalf("expected pending fallback, got %+v", res)
	}
	if got := sets(res.Prints); !equalStrings(got, []string{"C21#263", "2ED#2"}) {
		t.Fatalf("fallback should return the post-exclude list, got %v", got)
	}
	if res.Ordering != prints.NewestFirst {
		t.Fatalf("fallback should keep the local ordering, got %v", res.Ordering)
	}

	resolved := prints.ApplyNoMatch(res, policy)
	if resolved.Pending || !resolved.Fallback {
		t.Fatalf("expected resolved fallback, got %+v", resolved)
	}
	if got := sets(resolved.Prints); !equalStrings(got, []string{"2ED#2"}) {
		t.Fatalf("earliest no-match should pick the oldest local print, got %v", got)
	}
}

func TestApplyNoMatchExpandsToSet(t *testing.T) {
	policy := prints.Policy{
		Strategy: prints.StrategyEarliest,
		NoMatch:  prints.StrategyLatest,
		Filters:  prints.Filters{Spells: prints.NewSetFilter([]string{"xyz"}, nil)},
	}
	res := prints.ReconcileLocal("Sol Ring", local(pr("C21", "263"), pr("c21", "264"), pr("LEA", "1")), policy)
	resolved := prints.ApplyNoMatch(res, policy)
	if got := sets(resolved.Prints); !equalStrings(got, []string{"C21#263", "c21#264"}) {
		t.Fatalf("latest no-match should expand to every print of its set, got %v", got)
	}
}

func TestApplyNoMatchLeavesResolvedResults(t *testing.T) {
	policy := prints.Policy{Strategy: prints.StrategyAll, NoMatch: prints.StrategySkip}
	res := prints.ReconcileLocal("Sol Ring", local(pr("LEA", "1")), policy)
	if res.Pending {
		t.Fatal("no include filter means nothing is pending")
	}
	if got := prints.ApplyNoMatch(res, policy); got.Skipped || len(got.Prints) != 1 {
		t.Fatalf("resolved result should pass through, got %+v", got)
	}
}

func TestReconcileLocalFallbackSkip(t *testing.T) {
	policy := prints.Policy{
		Strategy: prints.StrategyAll,
		NoMatch:  prints.StrategySkip,
		Filters:  prints.Filters{Spells: prints.NewSetFilter([]string{"xyz"}, nil)},
	}
	res := prints.ApplyNoMatch(prints.ReconcileLocal("Sol Ring", local(pr("LEA", "1")), policy), policy)
	if !res.Skipped || !res.Fallback || len(res.Prints) != 0 {
		t.Fatalf("expected skipped fallback, got %+v", res)
	}
}

func TestReconcileLocalIncludeMatches(t *testing.T) {
	policy := prints.Policy{
		Strategy: prints.StrategyAll,
		NoMatch:  prints.StrategyEarliest,
		Filters:  prints.Filters{Spells: prints.NewSetFilter([]string{"lea", "2ed"}, nil)},
	}
	res := prints.ReconcileLocal("Sol Ring", local(pr("C21", "263"), pr("2ED", "2"), pr("LEA", "1")), policy)
	if res.Fallback {
		t.Fatal("unexpected fallback")
	}
	if got := sets(res.Prints); !equalStrings(got, []string{"2ED#2", "LEA#1"}) {
		t.Fatalf("got %v", got)
	}
}

func TestFiltersResolveBasicLands(t *testing.T) {
	filters := prints.Filters{
		Spells:     prints.NewSetFilter(nil, []string{"sld"}),
		BasicLands: prints.NewSetFilter([]string{"unh"}, nil),
	}
	if f := filters.For("Snow-Covered Island"); len(f.Include) != 1 || f.Include[0] != "unh" {
		t.Fatalf("basic land should use basic land filter, got %+v", f)
	}
	if f := filters.For("Sol Ring"); len(f.Exclude) != 1 {
		t.Fatalf("spell should use spell filter, got %+v", f)
	}

	filters.Legacy = prints.NewSetFilter([]string{"LEA", "lea"}, nil)
	if f := filters.For("Island"); len(f.Include) != 1 || f.Include[0] != "lea" {
		t.Fatalf("legacy filter should win, got %+v", f)
	}
}

func TestModesBypassFilters(t *testing.T) {
	policy := prints.Policy{
		Strategy: prints.StrategyAll,
		NoMatch:  prints.StrategySkip,
		Filters:  prints.Filters{Legacy: prints.NewSetFilter([]string{"xyz"}, []string{"tblc"})},
	}
	list := local(pr("TBLC", "3"), pr("TM21", "1"))

	policy.Mode = prints.ModeToken
	if res := prints.ReconcileLocal("Soldier", list, policy); len(res.Prints) != 2 || res.Fallback {
		t.Fatalf("token mode should ignore set filters, got %+v", res)
	}

	policy.Mode = prints.ModePriming
	policy.Strategy = prints.StrategyEarliest
	if res := prints.ReconcileLocal("Soldier", list, policy); len(res.Prints) != 2 {
		t.Fatalf("priming mode should return every match, got %+v", res)
	}
}

func TestBuildQuery(t *testing.T) {
	filter := prints.NewSetFilter([]string{"LEA", "2ed"}, []string{"SLD"})
	got := prints.BuildQuery("Sol Ring", filter, "lang:en")
	want := `!"Sol Ring" unique:art (set:lea or set:2ed) -set:sld lang:en`
	if got != want {
		t.Fatalf("BuildQuery = %q, want %q", got, want)
	}
	if got := prints.BuildQuery("Island", prints.NewSetFilter([]string{"unh"}, nil), ""); got != `!"Island" unique:art set:unh` {
		t.Fatalf("single include query = %q", got)
	}
	if got := prints.BuildRetryQuery("Island", prints.StrategyLatest, ""); got != `!"Island" unique:art prefer:newest` {
		t.Fatalf("retry query = %q", got)
	}
	if got := prints.BuildRetryQuery("Island", prints.StrategySkip, ""); !strings.HasSuffix(got, "prefer:oldest") {
		t.Fatalf("retry query = %q", got)
	}
}

func TestReconcileCrossReferenceOldestFirst(t *testing.T) {
	query := `!"Sol Ring" unique:art`
	searcher := &fakeSearcher{results: map[string][]prints.Record{
		query: {
			{SetCode: "lea", CollectorNumber: "1", ReleasedAt: "1993-08-05", ArtURL: "https://img/lea.jpg"},
			{SetCode: "c21", CollectorNumber: "263", ReleasedAt: "2021-04-23", ArtURL: "https://img/c21.jpg"},
			{SetCode: "nope", CollectorNumber: "9", ReleasedAt: "2022-01-01"},
		},
	}}
	r := prints.NewReconciler(searcher, "", nil)
	list := local(pr("C21", "263"), pr("2ED", "2"), pr("LEA", "1"))

	res, err := r.Reconcile(context.Background(), "Sol Ring", list, prints.Policy{Strategy: prints.StrategyLatest, NoMatch: prints.StrategyEarliest})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := sets(res.Prints); !equalStrings(got, []string{"C21#263"}) {
		t.Fatalf("latest over oldest-first should pick the last match, got %v", got)
	}
	rec, ok := res.Record(res.Prints[0])
	if !ok || rec.ArtURL != "https://img/c21.jpg" {
		t.Fatalf("expected matched record, got %+v %v", rec, ok)
	}

	res, _ = r.Reconcile(context.Background(), "Sol Ring", list, prints.Policy{Strategy: prints.StrategyEarliest, NoMatch: prints.StrategyEarliest})
	if got := sets(res.Prints); !equalStrings(got, []string{"LEA#1"}) {
		t.Fatalf("earliest over oldest-first should pick the first match, got %v", got)
	}
}

func TestReconcileIllustrationJoin(t *testing.T) {
	query := `!"Island" unique:art set:unh`
	searcher := &fakeSearcher{results: map[string][]prints.Record{
		query: {{SetCode: "unh", CollectorNumber: "140", IllustrationID: "ill-1", ReleasedAt: "2004-11-19"}},
		prints.IllustrationQuery("ill-1"): {
			{SetCode: "unh", CollectorNumber: "140", ReleasedAt: "2004-11-19"},
			{SetCode: "pmei", CollectorNumber: "7", ReleasedAt: "2001-01-01"},
		},
	}}
	r := prints.NewReconciler(searcher, "", nil)
	policy := prints.Policy{
		Strategy: prints.StrategyAll,
		NoMatch:  prints.StrategyEarliest,
		Filters:  prints.Filters{BasicLands: prints.NewSetFilter([]string{"unh"}, nil)},
	}
	res, err := r.Reconcile(context.Background(), "Island", local(pr("PMEI", "7"), pr("LEA", "288")), policy)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Fallback {
		t.Fatal("illustration join should have matched")
	}
	if got := sets(res.Prints); !equalStrings(got, []string{"PMEI#7"}) {
		t.Fatalf("got %v", got)
	}
	if rec, _ := res.Record(res.Prints[0]); rec.IllustrationID != "ill-1" {
		t.Fatalf("sibling record should carry the illustration id, got %+v", rec)
	}
}

func TestReconcileRetriesWithPreferHint(t *testing.T) {
	retry := `!"Island" unique:art prefer:newest`
	searcher := &fakeSearcher{results: map[string][]prints.Record{
		retry: {{SetCode: "lea", CollectorNumber: "288", ReleasedAt: "1993-08-05"}},
	}}
	r := prints.NewReconciler(searcher, "", nil)
	policy := prints.Policy{
		Strategy: prints.StrategyAll,
		NoMatch:  prints.StrategyLatest,
		Filters:  prints.Filters{BasicLands: prints.NewSetFilter([]string{"xyz"}, nil)},
	}
	res, err := r.Reconcile(context.Background(), "Island", local(pr("LEA", "288")), policy)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(searcher.queries) < 2 || searcher.queries[1] != retry {
		t.Fatalf("expected retry query, got %v", searcher.queries)
	}
	if got := sets(res.Prints); !equalStrings(got, []string{"LEA#288"}) {
		t.Fatalf("got %v", got)
	}
}

func TestReconcileNoMatchPolicy(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]prints.Record{}}
	r := prints.NewReconciler(searcher, "", nil)
	list := local(pr("C21", "263"), pr("LEA", "1"))

	res, err := r.Reconcile(context.Background(), "Sol Ring", list, prints.Policy{Strategy: prints.StrategyAll, NoMatch: prints.StrategyEarliest})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !res.Fallback || !equalStrings(sets(res.Prints), []string{"LEA#1"}) {
		t.Fatalf("expected earliest local fallback, got %+v", res)
	}

	res, _ = r.Reconcile(context.Background(), "Sol Ring", list, prints.Policy{Strategy: prints.StrategyAll, NoMatch: prints.StrategySkip})
	if !res.Skipped || len(res.Prints) != 0 {
		t.Fatalf("expected skip, got %+v", res)
	}
}

func TestReconcileSearchFailureDegradesToLocal(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	r := prints.NewReconciler(searcher, "", nil)
	res, err := r.Reconcile(context.Background(), "Island", local(pr("LEA", "1"), pr("4ED", "2")), prints.Policy{Strategy: prints.StrategyEarliest, NoMatch: prints.StrategyEarliest})
	if err != nil {
		t.Fatalf("search failure should not be returned: %v", err)
	}
	if got := sets(res.Prints); !equalStrings(got, []string{"4ED#2"}) {
		t.Fatalf("got %v", got)
	}
}

func TestReconcileWithoutSearcherIsLocal(t *testing.T) {
	r := prints.NewReconciler(nil, "", nil)
	if r.CrossReferences() {
		t.Fatal("nil searcher should not cross-reference")
	}
	res, err := r.Reconcile(context.Background(), "Island", local(pr("LEA", "1")), prints.Policy{Strategy: prints.StrategyAll})
	if err != nil || len(res.Prints) != 1 {
		t.Fatalf("unexpected result %+v err %v", res, err)
	}
}

func TestReconcileOrdersUndatedRecordsLast(t *testing.T) {
	query := `!"Island" unique:art`
	searcher := &fakeSearcher{results: map[string][]prints.Record{
		query: {
			{SetCode: "4ed", CollectorNumber: "2", ReleasedAt: "1995-04-01"},
			{SetCode: "sld", CollectorNumber: "9"},
			{SetCode: "lea", CollectorNumber: "288", ReleasedAt: "1993-08-05"},
			{SetCode: "unh", CollectorNumber: "140", ReleasedAt: "2004-11-19"},
		},
	}}
	r := prints.NewReconciler(searcher, "", nil)
	list := local(pr("UNH", "140"), pr("SLD", "9"), pr("4ED", "2"), pr("LEA", "288"))
	res, err := r.Reconcile(context.Background(), "Island", list, prints.Policy{Strategy: prints.StrategyAll, NoMatch: prints.StrategyEarliest})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	want := []string{"LEA#288", "4ED#2", "UNH#140", "SLD#9"}
	if got := sets(res.Prints); !equalStrings(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if res.Ordering != prints.OldestFirst {
		t.Fatalf("cross-referenced prints are oldest first, got %v", res.Ordering)
	}
}
