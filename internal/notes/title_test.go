package notes

import (
	"strings"
	"testing"
	"time"
)

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain title", "plain title"},
		{`a/b\c`, "a b c"},
		{"q: what? [draft]", "q  what   draft "},
		{"  padded  ", "padded"},
		{"line\nbreak", "line break"},
	}
	for _, c := range cases {
		if got := SanitizeTitle(c.in); got != c.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTitle(t *testing.T) {
	now := time.Date(2024, 7, 2, 15, 4, 0, 0, time.UTC)

	t.Run("includes content slice, datetime and id", func(t *testing.T) {
		title := Title("What is a goroutine?", now)
		parts := strings.Split(title, " - ")
		if len(parts) != 3 {
			t.Fatalf("Expected 3 segments, got %d: %q", len(parts), title)
		}
		if parts[0] != "What is a goroutine" {
			t.Errorf("unexpected content segment %q", parts[0])
		}
		if parts[1] != "2024-7-2T15H4M" {
			t.Errorf("unexpected datetime segment %q", parts[1])
		}
		if len(parts[2]) != 5 {
			t.Errorf("Expected 5-character id, got %q", parts[2])
		}
	})

	t.Run("long content is truncated", func(t *testing.T) {
		title := Title(strings.Repeat("a", 100), now)
		first := strings.Split(title, " - ")[0]
		if len(first) != 40 {
			t.Errorf("Expected 40-character slice, got %d", len(first))
		}
	})

	t.Run("empty content still yields a title", func(t *testing.T) {
		title := Title("   ", now)
		parts := strings.Split(title, " - ")
		if len(parts) != 2 {
			t.Fatalf("Expected 2 segments for empty content, got %d: %q", len(parts), title)
		}
	})

	t.Run("titles are collision resistant", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			title := Title("same content", now)
			if seen[title] {
				t.Fatalf("duplicate title %q", title)
			}
			seen[title] = true
		}
	})
}

func TestContentSlice(t *testing.T) {
	if got := ContentSlice("short", 30, true); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := ContentSlice("exactly ten", 8, true); got != "exact..." {
		t.Errorf("got %q", got)
	}
	if got := ContentSlice("exactly ten", 8, false); got != "exactly " {
		t.Errorf("got %q", got)
	}
}

func TestShortHash(t *testing.T) {
	t.Run("is stable and short", func(t *testing.T) {
		a := ShortHash("some text")
		b := ShortHash("some text")
		if a != b {
			t.Errorf("hash is not deterministic: %q vs %q", a, b)
		}
		if len(a) != 8 {
			t.Errorf("Expected 8-character hash, got %q", a)
		}
	})

	t.Run("line endings do not change the hash", func(t *testing.T) {
		if ShortHash("a\r\nb") != ShortHash("a\nb") {
			t.Error("Expected CRLF and LF content to hash the same")
		}
	})

	t.Run("different content hashes differently", func(t *testing.T) {
		if ShortHash("one") == ShortHash("two") {
			t.Error("Expected different hashes for different content")
		}
	})
}
