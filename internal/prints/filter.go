package prints

import "strings"

var basicLandNames = map[string]struct{}{
	"Island":                {},
	"Forest":                {},
	"Mountain":              {},
	"Plains":                {},
	"Swamp":                 {},
	"Snow-Covered Island":   {},
	"Snow-Covered Forest":   {},
	"Snow-Covered Mountain": {},
	"Snow-Covered Plains":   {},
	"Snow-Covered Swamp":    {},
}

// IsBasicLand reports whether name is one of the basic land names that use
// the basic_land_* filter lists.
func IsBasicLand(name string) bool {
	_, ok := basicLandNames[strings.TrimSpace(name)]
	return ok
}

// SetFilter is an include/exclude pair of lower-cased set codes.
type SetFilter struct {
	Include []string
	Exclude []string
}

// NewSetFilter lower-cases and dedupes both lists.
func NewSetFilter(include, exclude []string) SetFilter {
	return SetFilter{Include: normalizeSets(include), Exclude: normalizeSets(exclude)}
}

// Empty reports whether the filter constrains nothing.
func (f SetFilter) Empty() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0
}

func (f SetFilter) includes(set string) bool {
	return containsSet(f.Include, set)
}

func (f SetFilter) excludes(set string) bool {
	return containsSet(f.Exclude, set)
}

// Apply removes excluded sets, then keeps only included sets. When an include
// list is active and nothing survives it, Apply returns the post-exclude list
// with fallback set so the caller can apply its no-match policy.
func (f SetFilter) Apply(prints []Print) (kept []Print, fallback bool) {
	afterExclude := prints
	if len(f.Exclude) > 0 {
		afterExclude = nil
		for _, p := range prints {
			if p.SetCode != "" && f.excludes(p.SetCode) {
				continue
			}
			afterExclude = append(afterExclude, p)
		}
	}
	if len(f.Include) == 0 {
		return afterExclude, false
	}
	for _, p := range afterExclude {
		if p.SetCode != "" && f.includes(p.SetCode) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return afterExclude, true
	}
	return kept, false
}

// Filters holds the legacy lists plus the granular spell and basic land lists.
// Legacy lists win whenever either of them is set.
type Filters struct {
	Legacy     SetFilter
	Spells     SetFilter
	BasicLands SetFilter
}

// For resolves the set filter that applies to cardName.
func (f Filters) For(cardName string) SetFilter {
	if !f.Legacy.Empty() {
		return f.Legacy
	}
	if IsBasicLand(cardName) {
		return f.BasicLands
	}
	return f.Spells
}

func normalizeSets(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func containsSet(list []string, set string) bool {
	set = strings.ToLower(strings.TrimSpace(set))
	for _, s := range list {
		if s == set {
			return true
		}
	}
	return false
}
