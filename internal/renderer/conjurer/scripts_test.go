package conjurer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"cardcap/internal/renderer"
)

func TestJSStringEscapesQuotes(t *testing.T) {
	got := jsString(`Urza's "Tower"`)
	if got != `"Urza's \"Tower\""` {
		t.Fatalf("unexpected literal: %s", got)
	}
}

func TestSelectImportScriptEmbedsToken(t *testing.T) {
	script := selectImportScript("12")
	if strings.Count(script, `"12"`) != 2 {
		t.Fatalf("token should be assigned and verified: %s", script)
	}
	if !strings.Contains(script, "'import-index'") {
		t.Fatalf("script should target the print selector: %s", script)
	}
}

func TestCheckboxScriptTargetsIDsThenLabel(t *testing.T) {
	script := checkboxScript([]string{"hide-reminder-text", "text-hide-reminder"}, "reminder text", true)
	for _, want := range []string{`["hide-reminder-text","text-hide-reminder"]`, `"reminder text"`, "box.checked === true"} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}
}

func TestFieldButtonXPath(t *testing.T) {
	if got := fieldButton("Rules Text"); got != `//h4[text()='Rules Text']` {
		t.Fatalf("unexpected xpath: %s", got)
	}
}

func TestClassifyMarksDeadlineAsNotReady(t *testing.T) {
	err := classify(t.Context(), "apply art", fmt.Errorf("wait: %w", context.DeadlineExceeded))
	if !errors.Is(err, renderer.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if err := classify(t.Context(), "apply art", errors.New("boom")); errors.Is(err, renderer.ErrNotReady) {
		t.Fatalf("plain failures must not be transient: %v", err)
	}
}
