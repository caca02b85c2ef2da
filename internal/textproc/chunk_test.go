package textproc

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"
)

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func TestChunk_ShortTextIsOneChunk(t *testing.T) {
	chunks := Chunk("A short paragraph.", 100)
	if len(chunks) != 1 || chunks[0] != "A short paragraph." {
		t.Fatalf("chunks = %q", chunks)
	}
}

func TestChunk_PacksParagraphsGreedily(t *testing.T) {
	text := "First paragraph here.\n\nSecond one.\n\nMountainous paragraphs follow, noticeably longer than the others."

	chunks := Chunk(text, 40)
	if len(chunks) < 2 {
		t.Fatalf("chunk count = %d (%q), want at least 2", len(chunks), chunks)
	}
	if chunks[0] != "First paragraph here.\n\nSecond one." {
		t.Errorf("first chunk = %q, want the two small paragraphs packed together", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "Mountainous") {
		t.Errorf("second chunk = %q", chunks[1])
	}
}

func TestChunk_FallsBackToSentences(t *testing.T) {
	text := "Alpha beta. Gamma delta. Epsilon zeta."

	chunks := Chunk(text, 15)
	want := []string{"Alpha beta.", "Gamma delta.", "Epsilon zeta."}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %q, want %q", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestChunk_OversizedTokenIsExactlySliced(t *testing.T) {
	token := strings.Repeat("x", 25)

	chunks := Chunk(token, 10)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %q, want 3 slices", chunks)
	}
	if chunks[0] != strings.Repeat("x", 10) || chunks[1] != strings.Repeat("x", 10) {
		t.Errorf("full slices = %q, %q, want exactly 10 runes each", chunks[0], chunks[1])
	}
	if chunks[2] != strings.Repeat("x", 5) {
		t.Errorf("tail slice = %q", chunks[2])
	}
}

func TestChunk_BudgetCountsRunesNotBytes(t *testing.T) {
	word := strings.Repeat("é", 5) // 10 bytes, 5 runes

	chunks := Chunk(word, 5)
	if len(chunks) != 1 || chunks[0] != word {
		t.Fatalf("chunks = %q, want the 5-rune word intact", chunks)
	}
}

func TestChunk_NeverExceedsBudget(t *testing.T) {
	inputs := []string{
		"Plain short text.",
		strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40),
		"para one\n\n" + strings.Repeat("word ", 100) + "\n\npara three",
		"prefix " + strings.Repeat("y", 137) + " suffix",
		strings.Repeat("héllo wörld 世界 ", 30),
		"one\n\ntwo\n\nthree\n\nfour\n\nfive",
	}
	budgets := []int{1, 7, 16, 50, 120}

	for _, text := range inputs {
		for _, max := range budgets {
			for i, c := range Chunk(text, max) {
				if n := utf8.RuneCountInString(c); n > max {
					t.Errorf("budget %d, input %.20q...: chunk %d has %d runes: %q", max, text, i, n, c)
				}
			}
		}
	}
}

func TestChunk_PreservesNonWhitespaceContent(t *testing.T) {
	inputs := []string{
		"Alpha beta. Gamma delta. Epsilon zeta.",
		"para one\n\npara two with more words\n\n" + strings.Repeat("long ", 50),
		"token" + strings.Repeat("z", 99) + " after",
		strings.Repeat("héllo wörld. ", 25),
	}
	for _, text := range inputs {
		for _, max := range []int{4, 11, 30, 1000} {
			got := stripSpace(strings.Join(Chunk(text, max), ""))
			want := stripSpace(text)
			if got != want {
				t.Errorf("budget %d: content not preserved:\n got %q\nwant %q", max, got, want)
			}
		}
	}
}

func TestChunk_EmptyAndDefaultBudget(t *testing.T) {
	if chunks := Chunk("   \n\n  ", 10); chunks != nil {
		t.Errorf("whitespace-only input produced %q", chunks)
	}
	chunks := Chunk("small text", 0)
	if len(chunks) != 1 {
		t.Errorf("zero budget should select the default, got %q", chunks)
	}
}

func TestSplitSentences_KeepsDecimalsTogether(t *testing.T) {
	got := splitSentences("Pi is 3.14159 exactly. Or not!")
	if len(got) != 2 || got[0] != "Pi is 3.14159 exactly." || got[1] != "Or not!" {
		t.Errorf("sentences = %q", got)
	}
}
