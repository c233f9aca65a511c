package prints

import (
	"regexp"
	"strings"
)

var setNumberPattern = regexp.MustCompile(`\(([^#]+?)\s*#([^)]+)\)`)

// Print is one published version of a card as surfaced by the renderer.
type Print struct {
	DisplayText     string
	SetCode         string
	CollectorNumber string
	SelectorToken   string
}

// Key returns the join key used to match prints against external records.
func (p Print) Key() Key {
	return KeyOf(p.SetCode, p.CollectorNumber)
}

// Option is a raw entry from the renderer's print selector.
type Option struct {
	Text  string
	Token string
}

// Key identifies a print by set code and collector number. The set code is
// compared case-insensitively.
type Key struct {
	Set    string
	Number string
}

// KeyOf builds a Key from a set code and collector number.
func KeyOf(set, number string) Key {
	return Key{Set: strings.ToLower(strings.TrimSpace(set)), Number: strings.TrimSpace(number)}
}

// IsZero reports whether the key carries no set or number.
func (k Key) IsZero() bool {
	return k.Set == "" && k.Number == ""
}

func (k Key) String() string {
	return k.Set + "#" + k.Number
}

// NamesCard reports whether displayText is an exact listing for cardName:
// the name itself, optionally followed by " (" and print details. Matching is
// case-insensitive so "Sol Ring" never matches "Sol Ring Fragment".
func NamesCard(cardName, displayText string) bool {
	name := strings.ToLower(cardName)
	text := strings.ToLower(displayText)
	if name == "" || !strings.HasPrefix(text, name) {
		return false
	}
	rest := text[len(name):]
	return rest == "" || strings.HasPrefix(rest, " (")
}

// ParseOption converts a selector entry into a Print when it passes the
// exact-name guard. Set code and collector number are read from a trailing
// "(SET #NUM)" label when present.
func ParseOption(cardName, displayText, token string) (Print, bool) {
	if !NamesCard(cardName, displayText) {
		return Print{}, false
	}
	p := Print{DisplayText: displayText, SelectorToken: token}
	if m := setNumberPattern.FindStringSubmatch(displayText); m != nil {
		p.SetCode = strings.TrimSpace(m[1])
		p.CollectorNumber = strings.TrimSpace(m[2])
	}
	return p, true
}

// MatchLocal applies ParseOption over a selector list, preserving order.
func MatchLocal(cardName string, options []Option) []Print {
	var out []Print
	for _, opt := range options {
		if p, ok := ParseOption(cardName, opt.Text, opt.Token); ok {
			out = append(out, p)
		}
	}
	return out
}

func sameSet(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
