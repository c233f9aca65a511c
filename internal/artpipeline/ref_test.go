package artpipeline_test

import (
	"testing"

	"cardcap/internal/artpipeline"
)

func TestKeys(t *testing.T) {
	ref := artpipeline.Ref{CardName: "Dandân", SetCode: "ARN", CollectorNumber: "12"}
	if got := artpipeline.FileStem(ref); got != "dandan_arn_12" {
		t.Fatalf("unexpected stem %q", got)
	}
	ref = artpipeline.Ref{CardName: "Jace, the Mind Sculptor"}
	if got := artpipeline.OriginalKey("/local_art/art/", ref, ".jpg"); got != "local_art/art/original/jace-the-mind-sculptor_unknown-set_no-num.jpg" {
		t.Fatalf("unexpected original key %q", got)
	}
	if got := artpipeline.UpscaledKey("art", ref, "RealESRGAN x4plus", 2); got != "art/realesrgan-x4plus-2x/jace-the-mind-sculptor_unknown-set_no-num.png" {
		t.Fatalf("unexpected upscaled key %q", got)
	}
}

func TestTrimForRenderer(t *testing.T) {
	cases := []struct {
		art, server, app, want string
	}{
		{"http://host:4242/local_art/art/original/x.jpg", "http://host:4242", "http://host:4242/", "art/original/x.jpg"},
		{"http://host:4242/images/x.jpg", "http://host:4242", "http://host:4242/", "images/x.jpg"},
		{"http://images:80/local_art/x.jpg", "http://images:80", "http://host:4242/", "http://images:80/local_art/x.jpg"},
		{"https://cards.scryfall.io/x.jpg", "", "http://host:4242/", "https://cards.scryfall.io/x.jpg"},
		{"", "http://host:4242", "http://host:4242", ""},
	}
	for _, tc := range cases {
		if got := artpipeline.TrimForRenderer(tc.art, tc.server, tc.app); got != tc.want {
			t.Errorf("TrimForRenderer(%q) = %q, want %q", tc.art, got, tc.want)
		}
	}
}
