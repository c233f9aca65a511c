package overwrite_test

import (
	"testing"
	"time"

	"cardcap/internal/overwrite"
	"cardcap/internal/storage"
)

func TestDecideMatrix(t *testing.T) {
	existing := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	info := storage.Info{Exists: true, LastModified: existing}

	cases := []struct {
		name   string
		policy overwrite.Policy
		write  bool
	}{
		{"always", overwrite.Policy{Always: true}, true},
		{"older than later threshold", overwrite.Policy{OlderThan: existing.Add(time.Hour)}, true},
		{"older than earlier threshold", overwrite.Policy{OlderThan: existing.Add(-time.Hour)}, false},
		{"newer than earlier threshold", overwrite.Policy{NewerThan: existing.Add(-time.Hour)}, true},
		{"newer than later threshold", overwrite.Policy{NewerThan: existing.Add(time.Hour)}, false},
		{"older than equal threshold", overwrite.Policy{OlderThan: existing}, false},
		{"newer than equal threshold", overwrite.Policy{NewerThan: existing}, false},
		{"no flags", overwrite.Policy{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.policy.Decide(info)
			if got.Write != tc.write {
				t.Fatalf("Decide = %+v, want write=%v", got, tc.write)
			}
		})
	}

	if got := (overwrite.Policy{}).Decide(storage.Info{}); !got.Write || got.Reason != overwrite.ReasonNew {
		t.Fatalf("absent file should always be written, got %+v", got)
	}
}

// The relative threshold forms count back from now: "older than 2h" writes
// files last modified more than two hours ago.
func TestParseThreshold(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)

	got, err := overwrite.ParseThreshold("2h", now)
	if err != nil || !got.Equal(now.Add(-2*time.Hour)) {
		t.Fatalf("ParseThreshold(2h) = %v, %v", got, err)
	}
	got, err = overwrite.ParseThreshold("45M", now)
	if err != nil || !got.Equal(now.Add(-45*time.Minute)) {
		t.Fatalf("ParseThreshold(45M) = %v, %v", got, err)
	}
	got, err = overwrite.ParseThreshold("2024-05-31-23-30-00", now)
	want := time.Date(2024, 5, 31, 23, 30, 0, 0, time.Local)
	if err != nil || !got.Equal(want) {
		t.Fatalf("ParseThreshold(absolute) = %v, %v", got, err)
	}
	for _, bad := range []string{"", "yesterday", "2h30m", "2024-05-31"} {
		if _, err := overwrite.ParseThreshold(bad, now); err == nil {
			t.Errorf("ParseThreshold(%q) should fail", bad)
		}
	}
}

func TestFromStrings(t *testing.T) {
	now := time.Now()
	if _, err := overwrite.FromStrings(false, "2h", "1h", now); err == nil {
		t.Fatal("expected error for combined thresholds")
	}
	policy, err := overwrite.FromStrings(false, "", "30m", now)
	if err != nil {
		t.Fatalf("FromStrings: %v", err)
	}
	if policy.NewerThan.IsZero() || !policy.OlderThan.IsZero() {
		t.Fatalf("unexpected policy %+v", policy)
	}
	if err := policy.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	bad := overwrite.Policy{OlderThan: now, NewerThan: now}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected Validate to reject both thresholds")
	}
}
