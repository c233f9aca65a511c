package textedit

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	TagFontSize = "fontsize"
	TagKerning  = "kerning"
	TagShadow   = "shadow"
	TagLeft     = "left"
	TagUp       = "up"
	TagDown     = "down"

	flavorMarker = "{flavor}"
	boldOpen     = "{bold}"
	boldClose    = "{/bold}"
)

var anyTagPattern = regexp.MustCompile(`\{[^}]+\}`)

// Tag is a numeric inline directive.
type Tag struct {
	Name  string
	Value int
}

func (t Tag) String() string {
	return "{" + t.Name + strconv.Itoa(t.Value) + "}"
}

// UpdateTag replaces the first {name<N>} directive in text with value, or
// prepends one when text has none.
func UpdateTag(text, name string, value int) string {
	pattern := regexp.MustCompile(`\{` + regexp.QuoteMeta(name) + `-?\d+\}`)
	tag := Tag{Name: name, Value: value}.String()
	if loc := pattern.FindStringIndex(text); loc != nil {
		return text[:loc[0]] + tag + text[loc[1]:]
	}
	return tag + text
}

// WrapBold wraps text in {bold}...{/bold} unless it is already bold.
func WrapBold(text string) string {
	if strings.Contains(text, boldOpen) {
		return text
	}
	return boldOpen + text + boldClose
}

// InsertAfterFlavor applies UpdateTag to the text following the first
// {flavor} marker. Text without a marker is returned unchanged.
func InsertAfterFlavor(text, name string, value int) string {
	before, after, found := strings.Cut(text, flavorMarker)
	if !found {
		return text
	}
	return before + flavorMarker + UpdateTag(after, name, value)
}

// StripTags removes every inline directive.
func StripTags(text string) string {
	return anyTagPattern.ReplaceAllString(text, "")
}

// AutoFit is the outcome of AutoFitType.
type AutoFit struct {
	Length   int
	Excess   int
	Kerning  int
	FontSize int
	// KerningChanged and FontSizeChanged report whether the values differ
	// from the inputs.
	KerningChanged  bool
	FontSizeChanged bool
}

// AutoFitType shrinks a type line that is too long for the frame. The allowed
// length is 34 - kerning - floor(fontSize*0.3) visible characters. Excess is
// absorbed first by lowering kerning (to a minimum of 1), then by dropping the
// font size 2.5 points per remaining character, rounded up.
func AutoFitType(text string, kerning, fontSize int) AutoFit {
	length := utf8.RuneCountInString(StripTags(text))
	threshold := 34 - kerning - int(math.Floor(float64(fontSize)*0.3))
	fit := AutoFit{Length: length, Excess: max(0, length-threshold), Kerning: kerning, FontSize: fontSize}
	if fit.Excess == 0 {
		return fit
	}
	kerningDrop := min(fit.Excess, max(0, kerning-1))
	remaining := fit.Excess - kerningDrop
	fit.Kerning = kerning - kerningDrop
	fit.FontSize = fontSize - int(math.Ceil(float64(remaining)*2.5))
	fit.KerningChanged = fit.Kerning != kerning
	fit.FontSizeChanged = fit.FontSize != fontSize
	return fit
}

func (a AutoFit) String() string {
	return fmt.Sprintf("length=%d excess=%d kerning=%d fontsize=%d", a.Length, a.Excess, a.Kerning, a.FontSize)
}
