package textutil

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Lightning Bolt", "lightning-bolt"},
		{"lightning_bolt", "lightning_bolt"},
		{"Jötun Grunt", "jotun-grunt"},
		{"Urza's Saga", "urzas-saga"},
		{"Borrowing 100,000 Arrows", "borrowing-100000-arrows"},
		{"Fire // Ice", "fire-ice"},
		{"  Who / What / When / Where / Why  ", "who-what-when-where-why"},
		{"Question? *Mark* & <Friends>", "question-mark-friends"},
		{"---", ""},
		{"LEA", "lea"},
		{"★123", "123"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Lightning Bolt", "lightning_bolt", "Æther Vial", "Sol Ring (LEA #1)",
		"  --a--b--  ", "Ghazbán Ogre", "Kongming, \"Sleeping Dragon\"", "",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestStemPlaceholders(t *testing.T) {
	if got := Stem("Sol Ring", "LEA", "1"); got != "sol-ring_lea_1" {
		t.Fatalf("unexpected stem: %q", got)
	}
	if got := Stem("Sol Ring", "", ""); got != "sol-ring_unknown-set_no-num" {
		t.Fatalf("unexpected placeholder stem: %q", got)
	}
	if Stem("Sol Ring", "LEA", "1") != Stem("sol ring", "lea", "1") {
		t.Fatal("stem should not depend on case")
	}
}
