package textedit

import (
	"cardcap/internal/config"
)

// Renderer text field names.
const (
	FieldTitle = "Title"
	FieldType  = "Type"
	FieldPT    = "Power/Toughness"
	FieldRules = "Rules Text"
)

// FieldEdit is the set of directives applied to one field.
type FieldEdit struct {
	Field string
	Tags  []Tag
	Bold  bool
	// Flavor sets {fontsize} after the {flavor} marker of rules text.
	Flavor *int
	// AutoFit shrinks kerning and font size of long type lines.
	AutoFit bool
}

// Empty reports whether the edit would never change text.
func (e FieldEdit) Empty() bool {
	return len(e.Tags) == 0 && !e.Bold && e.Flavor == nil && !e.AutoFit
}

// Apply returns the edited text and whether it differs from current.
func (e FieldEdit) Apply(current string) (string, bool) {
	tags := e.Tags
	if e.AutoFit {
		tags = e.autoFitTags(current)
	}
	text := current
	for _, tag := range tags {
		text = UpdateTag(text, tag.Name, tag.Value)
	}
	if e.Bold {
		text = WrapBold(text)
	}
	if e.Flavor != nil {
		text = InsertAfterFlavor(text, TagFontSize, *e.Flavor)
	}
	return text, text != current
}

func (e FieldEdit) autoFitTags(current string) []Tag {
	kerning, fontSize := 0, 0
	for _, tag := range e.Tags {
		switch tag.Name {
		case TagKerning:
			kerning = tag.Value
		case TagFontSize:
			fontSize = tag.Value
		}
	}
	fit := AutoFitType(current, kerning, fontSize)
	out := make([]Tag, 0, len(e.Tags)+2)
	seenKerning, seenFontSize := false, false
	for _, tag := range e.Tags {
		switch tag.Name {
		case TagKerning:
			seenKerning = true
			tag.Value = fit.Kerning
		case TagFontSize:
			seenFontSize = true
			tag.Value = fit.FontSize
		}
		out = append(out, tag)
	}
	if !seenKerning && fit.KerningChanged {
		out = append([]Tag{{Name: TagKerning, Value: fit.Kerning}}, out...)
	}
	if !seenFontSize && fit.FontSizeChanged {
		out = append(out, Tag{Name: TagFontSize, Value: fit.FontSize})
	}
	return out
}

// Plan is the ordered list of field edits for every print.
type Plan []FieldEdit

// Empty reports whether the plan has no edits.
func (p Plan) Empty() bool {
	for _, e := range p {
		if !e.Empty() {
			return false
		}
	}
	return true
}

// PlanFromConfig builds the edit plan for the configured text settings.
// Fields with nothing configured are omitted.
func PlanFromConfig(text config.Text) Plan {
	var plan Plan
	add := func(edit FieldEdit) {
		if !edit.Empty() {
			plan = append(plan, edit)
		}
	}

	add(FieldEdit{Field: FieldTitle, Tags: fieldTags(text.Title), Bold: text.Title.Bold})
	add(FieldEdit{Field: FieldType, Tags: fieldTags(text.Type), Bold: text.Type.Bold, AutoFit: text.AutoFitType})
	add(FieldEdit{Field: FieldPT, Tags: fieldTags(text.PT), Bold: text.PT.Bold})
	add(FieldEdit{Field: FieldRules, Tags: fieldTags(text.Rules), Bold: text.Rules.Bold, Flavor: text.FlavorFontSize})
	return plan
}

func fieldTags(field config.TextField) []Tag {
	var tags []Tag
	for _, candidate := range []struct {
		name  string
		value *int
	}{
		{TagKerning, field.Kerning},
		{TagFontSize, field.FontSize},
		{TagShadow, field.Shadow},
		{TagLeft, field.Left},
		{TagUp, field.Up},
		{TagDown, field.Down},
	} {
		if candidate.value != nil {
			tags = append(tags, Tag{Name: candidate.name, Value: *candidate.value})
		}
	}
	return tags
}
