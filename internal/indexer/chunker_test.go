package indexer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "trailing spaces before newline",
			in:   "linea uno   \nlinea dos",
			want: "linea uno\nlinea dos",
		},
		{
			name: "tabs before newline",
			in:   "a\t\t\nb",
			want: "a\nb",
		},
		{
			name: "newline runs collapse to two",
			in:   "a\n\n\n\n\nb",
			want: "a\n\nb",
		},
		{
			name: "double newline preserved",
			in:   "a\n\nb",
			want: "a\n\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitText_Empty(t *testing.T) {
	if got := SplitText("", 1000, 150); got != nil {
		t.Errorf("SplitText(empty) = %v, want nil", got)
	}
	if got := SplitText("   \n\t  ", 1000, 150); len(got) != 0 {
		t.Errorf("SplitText(whitespace) = %v, want no chunks", got)
	}
}

func TestSplitText_ShortInput(t *testing.T) {
	got := SplitText("hola mundo", 1000, 150)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != "hola mundo" {
		t.Errorf("chunk = %q, want %q", got[0], "hola mundo")
	}
}

func TestSplitText_WindowBounds(t *testing.T) {
	text := strings.Repeat("palabra de prueba para ventanas. ", 200)
	maxSize := 100
	overlap := 20

	chunks := SplitText(text, maxSize, overlap)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > maxSize {
			t.Errorf("chunk %d has %d runes, exceeds max %d", i, n, maxSize)
		}
		if c != strings.TrimSpace(c) {
			t.Errorf("chunk %d not trimmed: %q", i, c)
		}
	}
}

func TestSplitText_Coverage(t *testing.T) {
	// Every piece of the source text must appear in some chunk. With
	// overlap the windows are position-based, so checking that each
	// non-overlapping slice of the normalized text is findable is enough.
	text := strings.Repeat("abcdefghij", 50)
	maxSize := 100
	overlap := 20

	chunks := SplitText(text, maxSize, overlap)
	joined := strings.Join(chunks, "")

	step := maxSize - overlap
	runes := []rune(Normalize(text))
	for i := 0; i < len(runes); i += step {
		j := i + step
		if j > len(runes) {
			j = len(runes)
		}
		piece := string(runes[i:j])
		if !strings.Contains(joined, piece) {
			t.Fatalf("piece at offset %d missing from chunks", i)
		}
	}
}

func TestSplitText_Overlap(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := SplitText(text, 100, 20)

	// Windows start at 0, 80 and 160; the last one reaches the end.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantLens := []int{100, 100, 90}
	for i, want := range wantLens {
		if got := len(chunks[i]); got != want {
			t.Errorf("chunk %d len = %d, want %d", i, got, want)
		}
	}
}

func TestSplitText_MultibyteRunes(t *testing.T) {
	text := strings.Repeat("ñ", 150)
	chunks := SplitText(text, 100, 20)
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 100 {
			t.Errorf("chunk %d has %d runes, exceeds max", i, n)
		}
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
	}
}

func TestSplitText_BadParams(t *testing.T) {
	// Degenerate parameters fall back to defaults instead of looping forever.
	text := strings.Repeat("y", 2500)
	chunks := SplitText(text, 0, -5)
	if len(chunks) == 0 {
		t.Fatal("expected chunks with fallback params")
	}
	chunks = SplitText(text, 50, 50)
	if len(chunks) == 0 {
		t.Fatal("expected chunks when overlap >= maxSize")
	}
}
