package prints_test

import (
	"testing"

	"cardcap/internal/prints"
)

func TestMatchLocalExactNameGuard(t *testing.T) {
	options := []prints.Option{
		{Text: "Sol Ring (LEA #1)", Token: "0"},
		{Text: "Sol Ring Fragment (ABC #2)", Token: "1"},
		{Text: "sol ring", Token: "2"},
		{Text: "Sol Rings (XYZ #3)", Token: "3"},
	}
	got := prints.MatchLocal("Sol Ring", options)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %+v", got)
	}
	if got[0].SetCode != "LEA" || got[0].CollectorNumber != "1" || got[0].SelectorToken != "0" {
		t.Fatalf("unexpected first match: %+v", got[0])
	}
	if got[1].SetCode != "" || got[1].CollectorNumber != "" {
		t.Fatalf("bare name should carry no set info: %+v", got[1])
	}
}

func TestParseOptionSetNumber(t *testing.T) {
	cases := []struct {
		text       string
		set, num   string
		wantParsed bool
	}{
		{"Island (4ED #2)", "4ED", "2", true},
		{"Island (Fourth Edition #371a)", "Fourth Edition", "371a", true},
		{"Island (SLD  #  63 )", "SLD", "63", true},
		{"Island (Promo)", "", "", true},
		{"Islander (4ED #2)", "", "", false},
	}
	for _, tc := range cases {
		p, ok := prints.ParseOption("Island", tc.text, "t")
		if ok != tc.wantParsed {
			t.Fatalf("ParseOption(%q) ok = %v", tc.text, ok)
		}
		if !ok {
			continue
		}
		if p.SetCode != tc.set || p.CollectorNumber != tc.num {
			t.Errorf("ParseOption(%q) = %q/%q, want %q/%q", tc.text, p.SetCode, p.CollectorNumber, tc.set, tc.num)
		}
	}
}

func TestKeyOfIgnoresSetCase(t *testing.T) {
	a := prints.Print{SetCode: "LEA", CollectorNumber: "1"}.Key()
	b := prints.KeyOf("lea ", "1")
	if a != b {
		t.Fatalf("keys differ: %v vs %v", a, b)
	}
	if a.String() != "lea#1" {
		t.Fatalf("unexpected key string %q", a.String())
	}
}
