package prints

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Strategy picks which prints of a candidate list to capture.
type Strategy string

const (
	StrategyLatest   Strategy = "latest"
	StrategyEarliest Strategy = "earliest"
	StrategyRandom   Strategy = "random"
	StrategyAll      Strategy = "all"
	// StrategySkip is only valid as a no-match policy.
	StrategySkip Strategy = "skip"
)

// ParseStrategy validates a selection strategy.
func ParseStrategy(value string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(value)))
	switch s {
	case StrategyLatest, StrategyEarliest, StrategyRandom, StrategyAll:
		return s, nil
	}
	return "", fmt.Errorf("unknown selection strategy %q", value)
}

// ParseNoMatch validates a no-match policy, which additionally accepts skip.
func ParseNoMatch(value string) (Strategy, error) {
	if Strategy(strings.ToLower(strings.TrimSpace(value))) == StrategySkip {
		return StrategySkip, nil
	}
	return ParseStrategy(value)
}

// Ordering records which end of a list holds the newest print.
type Ordering int

const (
	// NewestFirst is the renderer selector order.
	NewestFirst Ordering = iota
	// OldestFirst is the external search order (released ascending).
	OldestFirst
)

func (o Ordering) String() string {
	if o == OldestFirst {
		return "oldest-first"
	}
	return "newest-first"
}

// List is a print list tagged with its ordering.
type List struct {
	Ordering Ordering
	Prints   []Print
}

// Latest returns the newest print in the list.
func (l List) Latest() (Print, bool) {
	if len(l.Prints) == 0 {
		return Print{}, false
	}
	if l.Ordering == OldestFirst {
		return l.Prints[len(l.Prints)-1], true
	}
	return l.Prints[0], true
}

// Earliest returns the oldest print in the list.
func (l List) Earliest() (Print, bool) {
	if len(l.Prints) == 0 {
		return Print{}, false
	}
	if l.Ordering == OldestFirst {
		return l.Prints[0], true
	}
	return l.Prints[len(l.Prints)-1], true
}

// Picker returns a value in [0, n). rand.IntN satisfies it.
type Picker func(n int) int

// SelectByStrategy applies strategy to list. All returns every print; latest,
// earliest and random return a single representative; skip returns nothing.
func SelectByStrategy(list List, strategy Strategy, pick Picker) []Print {
	if len(list.Prints) == 0 {
		return nil
	}
	switch strategy {
	case StrategyAll:
		return append([]Print(nil), list.Prints...)
	case StrategyLatest:
		p, _ := list.Latest()
		return []Print{p}
	case StrategyEarliest:
		p, _ := list.Earliest()
		return []Print{p}
	case StrategyRandom:
		if pick == nil {
			pick = rand.IntN
		}
		return []Print{list.Prints[pick(len(list.Prints))]}
	default:
		return nil
	}
}

// expandToSet returns every print in candidates sharing the representative's
// set code, or just the representative when it carries no set.
func expandToSet(candidates []Print, representative Print) []Print {
	if strings.TrimSpace(representative.SetCode) == "" {
		return []Print{representative}
	}
	var out []Print
	for _, p := range candidates {
		if sameSet(p.SetCode, representative.SetCode) {
			out = append(out, p)
		}
	}
	return out
}
