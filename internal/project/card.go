package project

import (
	"encoding/json"
	"fmt"
	"strings"

	"cardcap/internal/textedit"
)

// WhiteBorderName is the frame name of the white border overlay.
const WhiteBorderName = "White Border"

// Card is one saved card of a project.
type Card struct {
	m map[string]any
}

// Key returns the card's project key, e.g. "Island (UST #216)".
func (c Card) Key() string {
	key, _ := c.m["key"].(string)
	return key
}

// SetKey replaces the project key.
func (c Card) SetKey(key string) { c.m["key"] = key }

// Name returns the title text without inline directives.
func (c Card) Name() string {
	title, _ := c.Text(TextTitle)
	return strings.TrimSpace(textedit.StripTags(title))
}

func (c Card) data() map[string]any {
	data, ok := c.m["data"].(map[string]any)
	if !ok {
		data = map[string]any{}
		c.m["data"] = data
	}
	return data
}

func (c Card) textField(key string) (map[string]any, bool) {
	text, ok := c.data()["text"].(map[string]any)
	if !ok {
		return nil, false
	}
	field, ok := text[key].(map[string]any)
	return field, ok
}

// Text returns the raw markup of a text field and whether the card has it.
func (c Card) Text(key string) (string, bool) {
	field, ok := c.textField(key)
	if !ok {
		return "", false
	}
	text, _ := field["text"].(string)
	return text, true
}

// SetText replaces the markup of an existing text field. It reports false
// when the card has no such field.
func (c Card) SetText(key, value string) bool {
	field, ok := c.textField(key)
	if !ok {
		return false
	}
	field["text"] = value
	return true
}

// Get returns a data value.
func (c Card) Get(name string) (any, bool) {
	v, ok := c.data()[name]
	return v, ok
}

// Set stores a data value.
func (c Card) Set(name string, value any) { c.data()[name] = value }

// Number returns a numeric data value, or def when absent or not numeric.
func (c Card) Number(name string, def float64) float64 {
	if f, ok := number(c.data()[name]); ok {
		return f
	}
	return def
}

// Bounds returns a rectangle data value such as artBounds, with missing
// edges defaulted to the unit rectangle.
func (c Card) Bounds(name string) (Rect, bool) {
	raw, ok := c.data()[name].(map[string]any)
	if !ok {
		return Rect{}, false
	}
	get := func(key string, def float64) float64 {
		if f, ok := number(raw[key]); ok {
			return f
		}
		return def
	}
	return Rect{X: get("x", 0), Y: get("y", 0), Width: get("width", 1), Height: get("height", 1)}, true
}

// Rect is a rectangle in card-relative units.
type Rect struct {
	X, Y, Width, Height float64
}

// Clone returns a deep copy of the card.
func (c Card) Clone() (Card, error) {
	data, err := json.Marshal(c.m)
	if err != nil {
		return Card{}, fmt.Errorf("clone card: %w", err)
	}
	var m map[string]any
	if err := decode(data, &m); err != nil {
		return Card{}, fmt.Errorf("clone card: %w", err)
	}
	return Card{m: m}, nil
}

func (c Card) frames() []any {
	frames, _ := c.data()["frames"].([]any)
	return frames
}

// HasWhiteBorder reports whether the top frame is the white border overlay.
func (c Card) HasWhiteBorder() bool {
	frames := c.frames()
	if len(frames) == 0 {
		return false
	}
	top, _ := frames[0].(map[string]any)
	name, _ := top["name"].(string)
	return name == WhiteBorderName
}

// AddWhiteBorder puts the white border overlay on top of the frame stack.
// Asset paths are prefixed with baseURL; an empty baseURL keeps them
// relative to the renderer. It reports false when the border is present.
func (c Card) AddWhiteBorder(baseURL string) bool {
	if c.HasWhiteBorder() {
		return false
	}
	c.Set("frames", append([]any{WhiteBorderFrame(baseURL)}, c.frames()...))
	return true
}

// RemoveWhiteBorder drops the white border overlay when it is on top.
func (c Card) RemoveWhiteBorder() bool {
	if !c.HasWhiteBorder() {
		return false
	}
	c.Set("frames", c.frames()[1:])
	return true
}

// WhiteBorderFrame returns the frame entry that draws a white border over the
// card. The renderer draws frames from index 0 on top.
func WhiteBorderFrame(baseURL string) map[string]any {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return map[string]any{
		"name": WhiteBorderName,
		"src":  base + "/img/frames/white.png",
		"masks": []any{
			map[string]any{"src": base + "/img/frames/seventh/regular/border.svg", "name": "Border"},
		},
		"noDefaultMask": true,
	}
}
