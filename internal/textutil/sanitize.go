package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// UnknownSet stands in for a missing set code in file stems.
	UnknownSet = "unknown-set"
	// NoNumber stands in for a missing collector number in file stems.
	NoNumber = "no-num"
)

var (
	unsafeRun     = regexp.MustCompile(`[\s/:<>"\\|?*&]+`)
	repeatedDash  = regexp.MustCompile(`-+`)
	punctuationRm = strings.NewReplacer("'", "", ",", "")
)

// asciiFold decomposes accented characters and drops everything outside ASCII.
func asciiFold() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
}

// Normalize converts a display value into a lower-case, accent-free,
// filesystem-safe token. Apostrophes and commas are dropped, runs of
// whitespace and path-unsafe characters collapse to a single hyphen and no
// hyphen is left at either end. Normalize is idempotent.
func Normalize(value string) string {
	value = punctuationRm.Replace(value)
	folded, _, err := transform.String(asciiFold(), value)
	if err == nil {
		value = folded
	}
	value = unsafeRun.ReplaceAllString(value, "-")
	value = repeatedDash.ReplaceAllString(value, "-")
	value = strings.Trim(value, "-")
	return strings.ToLower(value)
}

// Stem builds the `{card}_{set}_{number}` file stem shared by art assets and
// captured cards. Missing set codes and collector numbers are replaced with
// stable placeholders.
func Stem(card, setCode, number string) string {
	set := Normalize(setCode)
	num := Normalize(number)
	return Normalize(card) + "_" + Ternary(set == "", UnknownSet, set) + "_" + Ternary(num == "", NoNumber, num)
}
