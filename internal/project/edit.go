package project

import (
	"cardcap/internal/textedit"
)

// Border selects the border edit applied to every card.
type Border int

const (
	BorderKeep Border = iota
	BorderWhite
	BorderBlack
)

var fieldKeys = map[string]string{
	textedit.FieldTitle: TextTitle,
	textedit.FieldType:  TextType,
	textedit.FieldPT:    TextPT,
	textedit.FieldRules: TextRules,
}

// EditOptions are the edits applied by ApplyEdits.
type EditOptions struct {
	Plan   textedit.Plan
	Border Border
}

// EditReport summarizes an ApplyEdits call.
type EditReport struct {
	Cards   int
	Changed int
	// Fields counts text fields whose markup changed.
	Fields int
}

// ApplyEdits applies the border edit and the text plan to every card. Fields
// a card lacks are left alone. Edits are idempotent, so reapplying the same
// options changes nothing.
func (p *Project) ApplyEdits(opts EditOptions) EditReport {
	report := EditReport{Cards: len(p.cards)}
	for _, card := range p.cards {
		changed := false
		switch opts.Border {
		case BorderWhite:
			changed = card.AddWhiteBorder("")
		case BorderBlack:
			changed = card.RemoveWhiteBorder()
		}
		for _, edit := range opts.Plan {
			key, ok := fieldKeys[edit.Field]
			if !ok {
				continue
			}
			current, ok := card.Text(key)
			if !ok {
				continue
			}
			next, fieldChanged := edit.Apply(current)
			if !fieldChanged {
				continue
			}
			card.SetText(key, next)
			report.Fields++
			changed = true
		}
		if changed {
			report.Changed++
		}
	}
	return report
}
