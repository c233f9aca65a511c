package textedit_test

import (
	"testing"

	"cardcap/internal/config"
	"cardcap/internal/textedit"
)

func intPtr(v int) *int { return &v }

func TestUpdateTag(t *testing.T) {
	cases := []struct {
		text  string
		name  string
		value int
		want  string
	}{
		{"Sol Ring", "fontsize", 30, "{fontsize30}Sol Ring"},
		{"{fontsize12}Sol Ring", "fontsize", 30, "{fontsize30}Sol Ring"},
		{"{fontsize-4}Sol {fontsize2}Ring", "fontsize", -6, "{fontsize-6}Sol {fontsize2}Ring"},
		{"{down10}text", "up", 2, "{up2}{down10}text"},
		{"{kerning3}x", "kerning", 3, "{kerning3}x"},
	}
	for _, tc := range cases {
		if got := textedit.UpdateTag(tc.text, tc.name, tc.value); got != tc.want {
			t.Errorf("UpdateTag(%q, %s, %d) = %q, want %q", tc.text, tc.name, tc.value, got, tc.want)
		}
	}
}

func TestUpdateTagIsIdempotent(t *testing.T) {
	once := textedit.UpdateTag("Lightning Bolt", "shadow", 2)
	twice := textedit.UpdateTag(once, "shadow", 2)
	if once != twice {
		t.Fatalf("second application changed text: %q -> %q", once, twice)
	}
}

func TestWrapBold(t *testing.T) {
	if got := textedit.WrapBold("2/2"); got != "{bold}2/2{/bold}" {
		t.Fatalf("WrapBold = %q", got)
	}
	if got := textedit.WrapBold("{bold}2/2{/bold}"); got != "{bold}2/2{/bold}" {
		t.Fatalf("WrapBold should be idempotent, got %q", got)
	}
}

func TestInsertAfterFlavor(t *testing.T) {
	text := "{fontsize2}Draw a card.{flavor}Knowledge is power."
	got := textedit.InsertAfterFlavor(text, "fontsize", -4)
	want := "{fontsize2}Draw a card.{flavor}{fontsize-4}Knowledge is power."
	if got != want {
		t.Fatalf("InsertAfterFlavor = %q, want %q", got, want)
	}
	if again := textedit.InsertAfterFlavor(got, "fontsize", -4); again != want {
		t.Fatalf("second application changed text: %q", again)
	}
	if got := textedit.InsertAfterFlavor("Draw a card.", "fontsize", -4); got != "Draw a card." {
		t.Fatalf("text without flavor should be unchanged, got %q", got)
	}
}

func TestAutoFitType(t *testing.T) {
	short := textedit.AutoFitType("Creature — Elf", 2, 10)
	if short.Excess != 0 || short.KerningChanged || short.FontSizeChanged {
		t.Fatalf("short type line should not change: %+v", short)
	}

	// threshold = 34 - 3 - floor(10*0.3) = 28; 32 characters -> excess 4.
	// kerning absorbs 2 (down to 1), the remaining 2 cost ceil(5) = 5 points.
	line := "Legendary Creature — Human Noble"
	fit := textedit.AutoFitType("{fontsize10}"+line, 3, 10)
	if fit.Length != 32 || fit.Excess != 4 {
		t.Fatalf("unexpected length/excess: %+v", fit)
	}
	if fit.Kerning != 1 || fit.FontSize != 5 || !fit.KerningChanged || !fit.FontSizeChanged {
		t.Fatalf("unexpected fit: %+v", fit)
	}

	// With kerning already at 1 only the font size moves.
	// threshold 33, 36 characters: excess 3 costs ceil(7.5) = 8 points.
	fit = textedit.AutoFitType(line+" Elf", 1, 0)
	if fit.KerningChanged || fit.FontSize != -8 {
		t.Fatalf("unexpected fit: %+v", fit)
	}
}

func TestPlanFromConfig(t *testing.T) {
	text := config.Text{
		Title:          config.TextField{FontSize: intPtr(38), Kerning: intPtr(1)},
		PT:             config.TextField{Bold: true},
		FlavorFontSize: intPtr(-4),
	}
	plan := textedit.PlanFromConfig(text)
	if len(plan) != 3 {
		t.Fatalf("expected title, pt and rules edits, got %+v", plan)
	}
	if plan[0].Field != textedit.FieldTitle || plan[1].Field != textedit.FieldPT || plan[2].Field != textedit.FieldRules {
		t.Fatalf("unexpected field order: %+v", plan)
	}

	got, changed := plan[0].Apply("Sol Ring")
	if !changed || got != "{fontsize38}{kerning1}Sol Ring" {
		t.Fatalf("title edit = %q changed=%v", got, changed)
	}
	if _, changed := plan[0].Apply(got); changed {
		t.Fatal("reapplying title edit should be a no-op")
	}
	if got, _ := plan[1].Apply("3/3"); got != "{bold}3/3{/bold}" {
		t.Fatalf("pt edit = %q", got)
	}
	if got, _ := plan[2].Apply("Tap.{flavor}Old."); got != "Tap.{flavor}{fontsize-4}Old." {
		t.Fatalf("rules edit = %q", got)
	}

	if !textedit.PlanFromConfig(config.Text{}).Empty() {
		t.Fatal("empty config should produce an empty plan")
	}
}

func TestPlanAutoFitType(t *testing.T) {
	plan := textedit.PlanFromConfig(config.Text{
		Type:        config.TextField{Kerning: intPtr(3), FontSize: intPtr(10)},
		AutoFitType: true,
	})
	if len(plan) != 1 || plan[0].Field != textedit.FieldType {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	got, _ := plan[0].Apply("Legendary Creature — Human Noble")
	if got != "{fontsize5}{kerning1}Legendary Creature — Human Noble" {
		t.Fatalf("auto-fit edit = %q", got)
	}
	short, _ := plan[0].Apply("Instant")
	if short != "{fontsize10}{kerning3}Instant" {
		t.Fatalf("short line should keep configured values, got %q", short)
	}
}
