package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "card.png")

	if err := WriteAtomic(dst, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteAtomic(dst, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestCleanKey(t *testing.T) {
	cases := map[string]string{
		"art/original/island.jpg": "art/original/island.jpg",
		"/art//original/./x.png":  "art/original/x.png",
		"art\\original\\x.png":    "art/original/x.png",
		"  output/sol-ring.png  ": "output/sol-ring.png",
	}
	for in, want := range cases {
		got, err := CleanKey(in)
		if err != nil {
			t.Fatalf("CleanKey(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("CleanKey(%q) = %q, want %q", in, got, want)
		}
	}

	for _, bad := range []string{"", "/", "../etc/passwd", "art/../../x", "..\\x"} {
		if _, err := CleanKey(bad); !errors.Is(err, ErrUnsafeKey) {
			t.Errorf("CleanKey(%q) should be unsafe, got %v", bad, err)
		}
	}
}

func TestResolveKey(t *testing.T) {
	root := t.TempDir()
	got, err := ResolveKey(root, "a/b.png")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(root, "a", "b.png") {
		t.Fatalf("unexpected path %q", got)
	}
}
