package docload

import (
	"strings"
	"testing"
)

func TestSplitTextWindowGeometry(t *testing.T) {
	text := strings.Repeat("a", 2500)
	chunks := SplitText(text, 1000, 200)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1000 || len(chunks[1]) != 1000 {
		t.Errorf("full chunks should be 1000 runes, got %d and %d", len(chunks[0]), len(chunks[1]))
	}
	// Windows advance by size-overlap=800, so the tail starts at 1600.
	if len(chunks[2]) != 900 {
		t.Errorf("tail chunk should be 900 runes, got %d", len(chunks[2]))
	}
}

func TestSplitTextOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 1200; i++ {
		sb.WriteRune(rune('a' + i%26))
	}
	text := sb.String()
	chunks := SplitText(text, 1000, 200)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	first := []rune(chunks[0])
	second := []rune(chunks[1])
	if string(first[800:]) != string(second[:200]) {
		t.Error("second chunk should start with the last 200 runes of the first")
	}
}

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short", 1000, 200)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Errorf("short input should yield a single chunk, got %v", chunks)
	}
}

func TestSplitTextEmptyInput(t *testing.T) {
	if chunks := SplitText("", 1000, 200); len(chunks) != 0 {
		t.Errorf("empty input should yield no chunks, got %v", chunks)
	}
}

func TestSplitTextExactMultiple(t *testing.T) {
	// 1000 runes exactly: one chunk, no empty or duplicate tail.
	text := strings.Repeat("x", 1000)
	chunks := SplitText(text, 1000, 200)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestSplitTextRuneBoundaries(t *testing.T) {
	text := strings.Repeat("世界和平", 100)
	chunks := SplitText(text, 150, 50)
	for i, c := range chunks {
		if c == "" {
			t.Fatalf("chunk %d empty", i)
		}
		for _, r := range c {
			if r != '世' && r != '界' && r != '和' && r != '平' {
				t.Fatalf("chunk %d contains mangled rune %q", i, r)
			}
		}
	}
}

func TestSplitTextClampsBadOverlap(t *testing.T) {
	// overlap >= size would never advance; it must be clamped.
	chunks := SplitText(strings.Repeat("a", 50), 10, 10)
	if len(chunks) == 0 || len(chunks) > 10 {
		t.Fatalf("clamped overlap should still terminate, got %d chunks", len(chunks))
	}
}
