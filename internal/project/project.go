package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"cardcap/internal/fileutil"
)

// Text field keys of a card's data.text object.
const (
	TextTitle = "title"
	TextType  = "type"
	TextPT    = "pt"
	TextRules = "rules"
)

// ErrMalformed is returned when a project file is not a list of cards.
var ErrMalformed = errors.New("malformed project file")

// Project is a loaded project file.
type Project struct {
	// root is the wrapping object, nil when the file is a bare card list.
	root  map[string]any
	cards []Card
}

// New returns a bare-list project holding cards.
func New(cards ...Card) *Project {
	return &Project{cards: append([]Card(nil), cards...)}
}

// Load reads and parses the project file at path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a project file. Numbers keep their original text.
func Parse(data []byte) (*Project, error) {
	var doc any
	if err := decode(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	p := &Project{}
	list, ok := doc.([]any)
	if !ok {
		obj, isObj := doc.(map[string]any)
		if !isObj {
			return nil, fmt.Errorf("%w: root is neither a list nor an object", ErrMalformed)
		}
		list, ok = obj["cards"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: no cards list", ErrMalformed)
		}
		p.root = obj
	}
	for i, entry := range list {
		card, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: card %d is not an object", ErrMalformed, i)
		}
		p.cards = append(p.cards, Card{m: card})
	}
	return p, nil
}

func decode(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}

// Len returns the number of cards.
func (p *Project) Len() int { return len(p.cards) }

// Cards returns the cards in file order. Edits through the returned values
// modify the project.
func (p *Project) Cards() []Card { return p.cards }

// Append adds cards to the end of the project.
func (p *Project) Append(cards ...Card) {
	p.cards = append(p.cards, cards...)
}

// Find returns the first card whose title matches name, ignoring inline
// directives.
func (p *Project) Find(name string) (Card, bool) {
	for _, card := range p.cards {
		if card.Name() == name {
			return card, true
		}
	}
	return Card{}, false
}

// Marshal encodes the project with two-space indentation, keeping the
// wrapping object when the file had one.
func (p *Project) Marshal() ([]byte, error) {
	list := make([]any, 0, len(p.cards))
	for _, card := range p.cards {
		list = append(list, card.m)
	}
	var doc any = list
	if p.root != nil {
		p.root["cards"] = list
		doc = p.root
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	return append(data, '\n'), nil
}

// Save writes the project to path atomically.
func (p *Project) Save(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}
