// Package overwrite decides whether a capture replaces an existing output.
package overwrite

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cardcap/internal/storage"
)

// ThresholdLayout is the absolute threshold format, interpreted in local time.
const ThresholdLayout = "2006-01-02-15-04-05"

var relativePattern = regexp.MustCompile(`^(\d+)([mMhH])$`)

// Policy configures overwrites. Always wins over the thresholds; at most one
// threshold may be set.
type Policy struct {
	Always    bool
	OlderThan time.Time
	NewerThan time.Time
}

// Reason explains a decision.
type Reason string

const (
	ReasonNew       Reason = "new"
	ReasonAlways    Reason = "overwrite"
	ReasonOlderThan Reason = "older than threshold"
	ReasonNewerThan Reason = "newer than threshold"
	ReasonExists    Reason = "exists"
)

// Decision is the outcome for one output key.
type Decision struct {
	Write  bool
	Reason Reason
}

// FromStrings parses threshold strings relative to now.
func FromStrings(always bool, olderThan, newerThan string, now time.Time) (Policy, error) {
	policy := Policy{Always: always}
	olderThan = strings.TrimSpace(olderThan)
	newerThan = strings.TrimSpace(newerThan)
	if olderThan != "" && newerThan != "" {
		return Policy{}, errors.New("older-than and newer-than thresholds cannot be combined")
	}
	var err error
	if olderThan != "" {
		if policy.OlderThan, err = ParseThreshold(olderThan, now); err != nil {
			return Policy{}, fmt.Errorf("older-than: %w", err)
		}
	}
	if newerThan != "" {
		if policy.NewerThan, err = ParseThreshold(newerThan, now); err != nil {
			return Policy{}, fmt.Errorf("newer-than: %w", err)
		}
	}
	return policy, nil
}

// ParseThreshold accepts yyyy-mm-dd-hh-mm-ss in local time, or a relative
// duration such as 30m or 2h meaning that long before now.
func ParseThreshold(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if m := relativePattern.FindStringSubmatch(value); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("parse %q: %w", value, err)
		}
		unit := time.Minute
		if strings.EqualFold(m[2], "h") {
			unit = time.Hour
		}
		return now.Add(-time.Duration(n) * unit), nil
	}
	t, err := time.ParseInLocation(ThresholdLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected yyyy-mm-dd-hh-mm-ss or a relative time like 30m or 2h, got %q", value)
	}
	return t, nil
}

// Validate rejects policies with both thresholds set.
func (p Policy) Validate() error {
	if !p.OlderThan.IsZero() && !p.NewerThan.IsZero() {
		return errors.New("older-than and newer-than thresholds cannot be combined")
	}
	return nil
}

// Decide applies the policy to an existing key's info. Comparisons are strict.
func (p Policy) Decide(info storage.Info) Decision {
	switch {
	case !info.Exists:
		return Decision{Write: true, Reason: ReasonNew}
	case p.Always:
		return Decision{Write: true, Reason: ReasonAlways}
	case !p.OlderThan.IsZero():
		if info.LastModified.Before(p.OlderThan) {
			return Decision{Write: true, Reason: ReasonOlderThan}
		}
		return Decision{Reason: ReasonExists}
	case !p.NewerThan.IsZero():
		if info.LastModified.After(p.NewerThan) {
			return Decision{Write: true, Reason: ReasonNewerThan}
		}
		return Decision{Reason: ReasonExists}
	default:
		return Decision{Reason: ReasonExists}
	}
}

func (p Policy) String() string {
	switch {
	case p.Always:
		return "always overwrite"
	case !p.OlderThan.IsZero():
		return "overwrite older than " + p.OlderThan.Format(ThresholdLayout)
	case !p.NewerThan.IsZero():
		return "overwrite newer than " + p.NewerThan.Format(ThresholdLayout)
	default:
		return "never overwrite"
	}
}
